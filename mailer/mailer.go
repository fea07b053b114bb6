package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pevans/nbudigest/newsfeed"
	"github.com/wneessen/go-mail"
)

var (
	ErrNoRecipients = errors.New("no recipients configured")
	ErrNoSender     = errors.New("no sender address configured")
)

// Message is one outgoing HTML email.
type Message struct {
	From    string
	To      []string
	Subject string
	HTML    string
}

// Sender delivers a message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig holds the relay credentials.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

// SMTPSender sends mail through an authenticated relay with mandatory TLS.
type SMTPSender struct {
	cfg SMTPConfig
}

// NewSMTPSender creates an SMTP sender.
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

// Send dials the relay, authenticates and delivers msg.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	m := mail.NewMsg()
	if err := m.From(msg.From); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := m.To(msg.To...); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextHTML, msg.HTML)

	client, err := mail.NewClient(s.cfg.Host,
		mail.WithPort(s.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.cfg.Username),
		mail.WithPassword(s.cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return fmt.Errorf("failed to create mail client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	return nil
}

// Mailer sends the daily digest built from the summarized list.
type Mailer struct {
	sender     Sender
	input      *newsfeed.RecordStore
	from       string
	recipients []string
	location   *time.Location
	logger     *slog.Logger
	now        func() time.Time
}

// New creates a mailer. The digest date is rendered in loc.
func New(sender Sender, input *newsfeed.RecordStore, from string, recipients []string, loc *time.Location, logger *slog.Logger) *Mailer {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Mailer{
		sender:     sender,
		input:      input,
		from:       from,
		recipients: recipients,
		location:   loc,
		logger:     logger,
		now:        time.Now,
	}
}

// Run loads the summarized records and mails them. It reports whether a
// message was sent.
func (m *Mailer) Run(ctx context.Context) (bool, error) {
	records, err := m.input.Load()
	if err != nil {
		return false, fmt.Errorf("failed to load summarized records: %w", err)
	}
	return m.SendDigest(ctx, records)
}

// SendDigest mails records as one digest. Nothing is sent for an empty list.
func (m *Mailer) SendDigest(ctx context.Context, records []newsfeed.NewsRecord) (bool, error) {
	if len(records) == 0 {
		m.logger.Info("no records to send")
		return false, nil
	}
	if len(m.recipients) == 0 {
		return false, ErrNoRecipients
	}
	if m.from == "" {
		return false, ErrNoSender
	}

	html, err := RenderDigest(records, m.now().In(m.location))
	if err != nil {
		return false, err
	}

	err = m.sender.Send(ctx, Message{
		From:    m.from,
		To:      m.recipients,
		Subject: Subject,
		HTML:    html,
	})
	if err != nil {
		return false, err
	}

	m.logger.Info("digest sent",
		"records", len(records), "recipients", len(m.recipients))
	return true, nil
}
