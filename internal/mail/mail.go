// Package mail delivers transactional email through SendGrid or the console.
package mail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/SAP-F-2025/elearning-service/internal/config"
)

var (
	host     = "https://api.sendgrid.com"
	endpoint = "/v3/mail/send"
)

var ErrNoRecipient = errors.New("message has no recipient")

// Message is one outbound email
type Message struct {
	To      string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers messages synchronously
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type sendgridSender struct {
	key        string
	from       *sgmail.Email
	subjPrefix string
	logger     *slog.Logger
}

var _ Sender = (*sendgridSender)(nil)

func NewSendGridSender(cfg config.SendGridConfig, logger *slog.Logger) Sender {
	return &sendgridSender{
		key:        cfg.APIKey,
		from:       sgmail.NewEmail(cfg.FromName, cfg.FromEmail),
		subjPrefix: "[" + cfg.FromName + "] ",
		logger:     logger,
	}
}

func (s *sendgridSender) prepare(msg Message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = s.subjPrefix + msg.Subject
	p.AddTos(sgmail.NewEmail(msg.ToName, msg.To))

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/plain", msg.Text))
	if msg.HTML != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTML))
	}
	return m
}

func (s *sendgridSender) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	req := sendgrid.GetRequest(s.key, endpoint, host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(s.prepare(msg))

	res, err := sendgrid.API(req)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("failed to send email: status %d: %s", res.StatusCode, res.Body)
	}

	s.logger.Info("Email sent", "to", msg.To, "subject", msg.Subject)
	return nil
}

// Outbox logs messages instead of sending them and keeps every one it saw.
// It serves development setups without a SendGrid key, and tests.
type Outbox struct {
	mu     sync.Mutex
	sent   []Message
	logger *slog.Logger
	// Fail makes Send return an error, for exercising delivery failures
	Fail error
}

var _ Sender = (*Outbox)(nil)

func NewOutbox(logger *slog.Logger) *Outbox {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Outbox{logger: logger}
}

func (o *Outbox) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.Fail != nil {
		return o.Fail
	}
	o.sent = append(o.sent, msg)
	o.logger.InfoContext(ctx, "Email (console)", "to", msg.To, "subject", msg.Subject, "body", msg.Text)
	return nil
}

// Sent returns a copy of the delivered messages
func (o *Outbox) Sent() []Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Message(nil), o.sent...)
}

// Last returns the most recent message to address
func (o *Outbox) Last(address string) (Message, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := len(o.sent) - 1; i >= 0; i-- {
		if o.sent[i].To == address {
			return o.sent[i], true
		}
	}
	return Message{}, false
}

// NewSender picks SendGrid when an API key is configured
func NewSender(cfg config.SendGridConfig, logger *slog.Logger) Sender {
	if cfg.APIKey == "" {
		logger.Warn("SENDGRID_API_KEY not set, emails are logged to the console")
		return NewOutbox(logger)
	}
	return NewSendGridSender(cfg, logger)
}
