// Package notify builds and sends the run's mails: the summary to the distribution
// list and the failure notice to the administrator.
package notify

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/wneessen/go-mail"

	"f0oster/adsiteaudit/config"
)

type Priority int

const (
	PriorityNormal Priority = iota
	PriorityHigh
)

// Message is one outgoing mail. HTMLBody is sent as text/html. When SaveCopyPath is
// set the body is also written to that file.
type Message struct {
	To           []string
	Bcc          []string
	Subject      string
	Priority     Priority
	HTMLBody     string
	Attachments  []string
	SaveCopyPath string
}

type SMTPMailer struct {
	client *mail.Client
	from   string
}

func NewSMTPMailer(opts config.SMTPOptions) (*SMTPMailer, error) {
	clientOpts := []mail.Option{
		mail.WithPort(opts.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if opts.Username != "" {
		clientOpts = append(clientOpts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(opts.Username),
			mail.WithPassword(opts.Password),
		)
	}

	client, err := mail.NewClient(opts.Host, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}
	return &SMTPMailer{client: client, from: opts.From}, nil
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if msg.SaveCopyPath != "" {
		if err := SaveCopy(msg.SaveCopyPath, msg.HTMLBody); err != nil {
			return err
		}
	}

	out, err := Build(m.from, msg)
	if err != nil {
		return err
	}
	if err := m.client.DialAndSendWithContext(ctx, out); err != nil {
		return fmt.Errorf("send mail %q: %w", msg.Subject, err)
	}
	return nil
}

// Build converts msg into a go-mail message from the given sender.
func Build(from string, msg Message) (*mail.Msg, error) {
	out := mail.NewMsg()
	if err := out.From(from); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", from, err)
	}
	if err := out.To(msg.To...); err != nil {
		return nil, fmt.Errorf("invalid recipients: %w", err)
	}
	if len(msg.Bcc) > 0 {
		if err := out.Bcc(msg.Bcc...); err != nil {
			return nil, fmt.Errorf("invalid bcc recipients: %w", err)
		}
	}
	out.Subject(msg.Subject)
	if msg.Priority == PriorityHigh {
		out.SetImportance(mail.ImportanceHigh)
	}
	out.SetBodyString(mail.TypeTextHTML, msg.HTMLBody)
	for _, path := range msg.Attachments {
		out.AttachFile(path)
	}
	return out, nil
}

func SaveCopy(path, body string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create folder for mail copy: %w", err)
	}
	if err := os.WriteFile(filepath.Clean(path), []byte(body), 0o644); err != nil {
		return fmt.Errorf("save mail copy: %w", err)
	}
	return nil
}
