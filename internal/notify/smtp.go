package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"

	"github.com/oakline/taskherald/internal/config"
)

// implicitTLSPort is the SMTPS port; every other port is dialed with
// STARTTLS.
const implicitTLSPort = 465

// SMTPNotifier sends plain-text email through a configured SMTP relay.
type SMTPNotifier struct {
	cfg config.SMTPConfig
}

// NewSMTPNotifier creates an SMTPNotifier from the given settings.
func NewSMTPNotifier(cfg config.SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg}
}

// Send composes and transmits one message. Missing credentials fail
// without dialing so a misconfigured deployment degrades to logged
// errors rather than connection attempts.
func (n *SMTPNotifier) Send(ctx context.Context, recipient, subject, body string) error {
	if n.cfg.Username == "" || n.cfg.Password == "" {
		return fmt.Errorf("smtp: username or password not configured")
	}
	if recipient == "" {
		return fmt.Errorf("smtp: empty recipient")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := composeMessage(n.cfg.Sender(), recipient, subject, body)
	if err != nil {
		return err
	}

	if n.cfg.Debug {
		log.Printf("[smtp] sending to %s: %s", recipient, subject)
	}

	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)

	var client *smtp.Client
	if n.cfg.Port == implicitTLSPort {
		client, err = smtp.DialTLS(addr, nil)
	} else {
		client, err = smtp.DialStartTLS(addr, nil)
	}
	if err != nil {
		return fmt.Errorf("smtp: connecting to %s: %w", addr, err)
	}
	defer client.Close()

	auth := sasl.NewPlainClient("", n.cfg.Username, n.cfg.Password)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("smtp: authenticating %s: %w", n.cfg.Username, err)
	}

	if err := client.SendMail(n.cfg.Sender(), []string{recipient}, bytes.NewReader(msg)); err != nil {
		return fmt.Errorf("smtp: sending to %s: %w", recipient, err)
	}

	return client.Quit()
}

// composeMessage renders a single-part plain-text RFC 5322 message.
func composeMessage(from, to, subject, body string) ([]byte, error) {
	var h mail.Header
	h.SetDate(time.Now())
	h.SetAddressList("From", []*mail.Address{{Address: from}})
	h.SetAddressList("To", []*mail.Address{{Address: to}})
	h.SetSubject(subject)

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("smtp: composing message: %w", err)
	}
	if _, err := io.WriteString(w, body); err != nil {
		w.Close()
		return nil, fmt.Errorf("smtp: writing body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("smtp: finalizing message: %w", err)
	}

	return buf.Bytes(), nil
}
