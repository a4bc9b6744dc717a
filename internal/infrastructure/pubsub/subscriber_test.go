package pubsub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSubscriber() *Subscriber {
	return &Subscriber{seen: make(map[string]struct{})}
}

func TestAccept(t *testing.T) {
	s := newTestSubscriber()

	n, ok := s.accept([]byte(`{"emailAddress":"me@example.com","historyId":42}`))
	require.True(t, ok)
	assert.Equal(t, Notification{EmailAddress: "me@example.com", HistoryID: 42}, n)

	_, ok = s.accept([]byte(`{"emailAddress":"me@example.com","historyId":42}`))
	assert.False(t, ok, "duplicate history id")

	_, ok = s.accept([]byte(`{"emailAddress":"other@example.com","historyId":42}`))
	assert.True(t, ok, "same history id for another mailbox")
}

func TestAccept_Malformed(t *testing.T) {
	s := newTestSubscriber()

	_, ok := s.accept([]byte(`not json`))
	assert.False(t, ok)

	_, ok = s.accept([]byte(`{"historyId":1}`))
	assert.False(t, ok)
}
