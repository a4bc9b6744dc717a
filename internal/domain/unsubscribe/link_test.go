package unsubscribe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccept(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"https://example.com/u.", "https://example.com/u", true},
		{"https://example.com/u).;!?", "https://example.com/u", true},
		{"<https://example.com/u>", "https://example.com/u", true},
		{`"https://example.com/u"`, "https://example.com/u", true},
		{"HTTPS://EXAMPLE.COM/U", "HTTPS://EXAMPLE.COM/U", true},
		{"MailTo:list@example.com", "MailTo:list@example.com", true},
		{"  http://example.com/a?b=c&amp;d=e  ", "http://example.com/a?b=c&d=e", true},
		{"ftp://example.com/u", "", false},
		{"/unsubscribe", "", false},
		{"https://", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := accept(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindHTTP, KindOf("https://example.com"))
	assert.Equal(t, KindHTTP, KindOf("HTTP://example.com"))
	assert.Equal(t, KindMailto, KindOf("mailto:a@example.com"))
	assert.Equal(t, KindUnknown, KindOf("example.com"))
	assert.Equal(t, "mailto", KindMailto.String())
}

func TestParseMailto(t *testing.T) {
	m, err := ParseMailto("mailto:leave%2Bnews@example.com?subject=unsubscribe&body=please")
	require.NoError(t, err)
	assert.Equal(t, "leave+news@example.com", m.Address)
	assert.Equal(t, "unsubscribe", m.Subject)
	assert.Equal(t, "please", m.Body)

	m, err = ParseMailto("mailto:u@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u@example.com", m.Address)
	assert.Empty(t, m.Subject)

	_, err = ParseMailto("https://example.com")
	assert.Error(t, err)

	_, err = ParseMailto("mailto:?subject=x")
	assert.Error(t, err)
}

func TestOneClick(t *testing.T) {
	assert.True(t, OneClick(hdr("List-Unsubscribe-Post", "List-Unsubscribe=One-Click")))
	assert.False(t, OneClick(hdr("List-Unsubscribe", "<https://a.example/x>")))
	assert.False(t, OneClick(nil))
}

func TestOneClickLink(t *testing.T) {
	post := []string{"List-Unsubscribe-Post", "List-Unsubscribe=One-Click"}

	headers := hdr(append([]string{"List-Unsubscribe", "<mailto:u@example.com>, <https://a.example/oc>"}, post...)...)
	assert.True(t, OneClickLink(headers, "https://a.example/oc"))
	assert.False(t, OneClickLink(headers, "https://a.example/other"))

	// The header URL is unbracketed, so any link came from the body.
	malformed := hdr(append([]string{"List-Unsubscribe", "https://no-brackets.example/u"}, post...)...)
	assert.False(t, OneClickLink(malformed, "https://shop.example/preferences"))

	plainHTTP := hdr(append([]string{"List-Unsubscribe", "<http://a.example/oc>"}, post...)...)
	assert.False(t, OneClickLink(plainHTTP, "http://a.example/oc"))

	assert.False(t, OneClickLink(hdr("List-Unsubscribe", "<https://a.example/oc>"), "https://a.example/oc"))
}

func TestAction_IsValid(t *testing.T) {
	assert.True(t, Action{Action: ActionClick, Selector: "#go"}.IsValid())
	assert.True(t, Action{Action: ActionType, Selector: "input", Value: "a@b.c"}.IsValid())
	assert.False(t, Action{Action: ActionType, Selector: "input"}.IsValid())
	assert.False(t, Action{Action: "hover", Selector: "#go"}.IsValid())
	assert.False(t, Action{Action: ActionClick}.IsValid())
}

func TestRuneOffsets(t *testing.T) {
	buf := "héllo wörld https://x"
	got := runeOffsets(buf, [][]int{{0, 1}, {7, 8}, {14, 15}})
	assert.Equal(t, []int{0, 6, 12}, got)
}
