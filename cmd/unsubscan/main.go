// Command unsubscan prints the unsubscribe link of every message in .eml
// files or an mbox archive, one "<id>\t<link>" line per message.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"mailsort/internal/domain/email"
	"mailsort/internal/domain/unsubscribe"
	"mailsort/internal/infrastructure/mailfile"
)

const notFound = "-"

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type printer struct {
	out, errOut io.Writer
	onlyFound   bool
	failed      int
}

func (p *printer) print(id string, msg *email.Message, err error) {
	if err != nil {
		p.failed++
		fmt.Fprintf(p.errOut, "%s\t%v\n", id, err)
		return
	}

	link, ok := unsubscribe.ExtractMessage(msg)
	if !ok {
		if p.onlyFound {
			return
		}
		link = notFound
	}
	fmt.Fprintf(p.out, "%s\t%s\n", id, link)
}

func (p *printer) result() error {
	if p.failed > 0 {
		return fmt.Errorf("%d message(s) could not be read", p.failed)
	}
	return nil
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	p := &printer{out: out, errOut: errOut}

	rootCmd := &cobra.Command{
		Use:           "unsubscan",
		Short:         "Find unsubscribe links in saved email messages",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().BoolVar(&p.onlyFound, "only-found", false, "print only messages that have an unsubscribe link")

	emlCmd := &cobra.Command{
		Use:   "eml FILE...",
		Short: "Scan one or more .eml files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				msg, err := mailfile.ParseFile(path)
				id := path
				if msg != nil {
					id = msg.GmailID
				}
				p.print(id, msg, err)
			}
			return p.result()
		},
	}

	mboxCmd := &cobra.Command{
		Use:   "mbox FILE",
		Short: "Scan every message of an mbox archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := mailfile.ReadMboxFile(args[0], func(idx int, msg *email.Message, err error) error {
				id := fmt.Sprintf("#%d", idx+1)
				if msg != nil {
					id = msg.GmailID
				}
				p.print(id, msg, err)
				return nil
			})
			if err != nil {
				return err
			}
			return p.result()
		},
	}

	rootCmd.AddCommand(emlCmd, mboxCmd)
	return rootCmd
}
