package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"gopkg.in/gomail.v2"
)

const (
	mailSubject  = "New Inquiry"
	mailTemplate = "admin_email"
)

type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

// Renderer is satisfied by the fiber html template engine.
type Renderer interface {
	Render(out io.Writer, name string, binding interface{}, layout ...string) error
}

// MailNotifier emails the operator an HTML summary of each inquiry.
type MailNotifier struct {
	cfg   MailConfig
	views Renderer
	send  func(*gomail.Message) error
}

func NewMailNotifier(cfg MailConfig, views Renderer) *MailNotifier {
	if cfg.To == "" {
		cfg.To = cfg.From
	}
	// gomail switches to implicit TLS on port 465.
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return &MailNotifier{cfg: cfg, views: views, send: func(msg *gomail.Message) error {
		return d.DialAndSend(msg)
	}}
}

// Message builds the email for ev without sending it.
func (m *MailNotifier) Message(ev InquiryEvent) (*gomail.Message, error) {
	var body bytes.Buffer
	if err := m.views.Render(&body, mailTemplate, map[string]any{
		"Listing": ev.Listing,
		"Inquiry": ev.Inquiry,
		"User":    ev.User,
	}); err != nil {
		return nil, fmt.Errorf("render %s: %w", mailTemplate, err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", m.cfg.To)
	if ev.User.Email != "" {
		msg.SetHeader("Reply-To", ev.User.Email)
	}
	msg.SetHeader("Subject", mailSubject)
	msg.SetBody("text/html", body.String())
	return msg, nil
}

func (m *MailNotifier) Notify(ctx context.Context, ev InquiryEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := m.Message(ev)
	if err != nil {
		return err
	}
	if err := m.send(msg); err != nil {
		return fmt.Errorf("smtp send to %s: %w", m.cfg.To, err)
	}
	return nil
}
