package mailer

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"github.com/stagepass/stagepass/config"
	"github.com/stagepass/stagepass/pkg/logger"
)

// Mailer sends compiled template emails.
type Mailer interface {
	// SendTemplateTest delivers one compiled template to a single recipient.
	SendTemplateTest(ctx context.Context, to string, subject string, html string) error
}

// SMTPMailer sends emails through the configured SMTP relay.
type SMTPMailer struct {
	config *config.SMTPConfig
	logger logger.Logger
}

func NewSMTPMailer(cfg *config.SMTPConfig, logger logger.Logger) *SMTPMailer {
	return &SMTPMailer{
		config: cfg,
		logger: logger,
	}
}

func (m *SMTPMailer) SendTemplateTest(ctx context.Context, to string, subject string, html string) error {
	msg := mail.NewMsg()
	if err := msg.FromFormat(m.config.FromName, m.config.FromEmail); err != nil {
		return fmt.Errorf("failed to set from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, html)

	opts := []mail.Option{
		mail.WithPort(m.config.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.config.Username),
		mail.WithPassword(m.config.Password),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}

	client, err := mail.NewClient(m.config.Host, opts...)
	if err != nil {
		return fmt.Errorf("failed to create mail client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	m.logger.WithField("to", to).Info("Test email sent")
	return nil
}

// ConsoleMailer logs emails instead of sending them. Used in development
// when no SMTP relay is configured.
type ConsoleMailer struct {
	logger logger.Logger
}

func NewConsoleMailer(logger logger.Logger) *ConsoleMailer {
	return &ConsoleMailer{logger: logger}
}

func (m *ConsoleMailer) SendTemplateTest(_ context.Context, to string, subject string, html string) error {
	m.logger.WithFields(map[string]interface{}{
		"to":      to,
		"subject": subject,
		"bytes":   len(html),
	}).Info("Test email (console mode, not sent)")
	return nil
}
