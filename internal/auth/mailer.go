package auth

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/muurk/skylog/internal/logging"
)

// Message is one sign-in mail.
type Message struct {
	To      string
	From    string
	Subject string
	Link    string
	Support string
}

// Mailer delivers sign-in links.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// WriterMailer prints sign-in links to a writer. It is the delivery used
// by the CLI, where the link is opened from the terminal.
type WriterMailer struct {
	Out io.Writer
}

// Send writes the link.
func (m WriterMailer) Send(_ context.Context, msg Message) error {
	logging.Info("Sign-in link issued", zap.String("to", msg.To))
	if m.Out == nil {
		return nil
	}
	_, err := fmt.Fprintf(m.Out, "Sign-in link for %s (valid for 1 hour):\n\n  %s\n\n", msg.To, msg.Link)
	return err
}
