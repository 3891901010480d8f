package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/cherriedy/ban-hang-so-api/config"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// NotificationService sends account related emails
type NotificationService interface {
	SendStaffCredentials(ctx context.Context, c StaffCredentials) error
}

// StaffCredentials is the content of the welcome email for a new staff account
type StaffCredentials struct {
	Email       string
	DisplayName string
	StoreName   string
	Password    string
}

// EmailProvider delivers a single email
type EmailProvider interface {
	SendEmail(ctx context.Context, to, subject, htmlBody, textBody string) error
}

// NotificationServiceImpl implements NotificationService
type NotificationServiceImpl struct {
	emailProvider EmailProvider
}

// NewNotificationService creates a new notification service
func NewNotificationService(emailProvider EmailProvider) NotificationService {
	return &NotificationServiceImpl{emailProvider: emailProvider}
}

var staffCredentialsTemplate = template.Must(template.New("staff_credentials").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2>Welcome to {{.StoreName}}</h2>
  <p>Hello {{.DisplayName}},</p>
  <p>A staff account has been created for you. Use the credentials below to sign in:</p>
  <table style="border-collapse: collapse;">
    <tr><td style="padding: 4px 12px 4px 0;"><strong>Email</strong></td><td>{{.Email}}</td></tr>
    <tr><td style="padding: 4px 12px 4px 0;"><strong>Password</strong></td><td><code>{{.Password}}</code></td></tr>
  </table>
  <p>Please change your password after your first login.</p>
</body>
</html>`))

// SendStaffCredentials emails a newly created staff member their login details
func (s *NotificationServiceImpl) SendStaffCredentials(ctx context.Context, c StaffCredentials) error {
	if s.emailProvider == nil {
		return fmt.Errorf("email provider not configured")
	}
	if !strings.Contains(c.Email, "@") {
		return fmt.Errorf("invalid email address: %s", c.Email)
	}

	if c.DisplayName == "" {
		c.DisplayName = c.Email
	}
	if c.StoreName == "" {
		c.StoreName = "your store"
	}

	var html bytes.Buffer
	if err := staffCredentialsTemplate.Execute(&html, c); err != nil {
		return fmt.Errorf("failed to render staff credentials email: %w", err)
	}

	text := fmt.Sprintf("Hello %s,\n\nA staff account has been created for you at %s.\nEmail: %s\nPassword: %s\n\nPlease change your password after your first login.\n",
		c.DisplayName, c.StoreName, c.Email, c.Password)

	subject := fmt.Sprintf("Your staff account at %s", c.StoreName)
	return s.emailProvider.SendEmail(ctx, c.Email, subject, html.String(), text)
}

// SMTPEmailProvider sends mail through an SMTP relay
type SMTPEmailProvider struct {
	cfg    config.EmailConfig
	logger *zap.Logger
}

// NewSMTPEmailProvider creates an SMTP provider from the email configuration
func NewSMTPEmailProvider(cfg config.EmailConfig, logger *zap.Logger) EmailProvider {
	return &SMTPEmailProvider{cfg: cfg, logger: logger}
}

func (p *SMTPEmailProvider) SendEmail(ctx context.Context, to, subject, htmlBody, textBody string) error {
	msg, err := p.buildMessage(to, subject, htmlBody, textBody)
	if err != nil {
		return err
	}

	tlsPolicy := mail.TLSOpportunistic
	if p.cfg.UseSTARTTLS {
		tlsPolicy = mail.TLSMandatory
	}
	timeout := p.cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	opts := []mail.Option{
		mail.WithPort(p.cfg.Port),
		mail.WithTLSPolicy(tlsPolicy),
		mail.WithTimeout(timeout),
	}
	if p.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(p.cfg.Username),
			mail.WithPassword(p.cfg.Password),
		)
	}

	client, err := mail.NewClient(p.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		p.logger.Error("Failed to send email", zap.String("to", to), zap.String("subject", subject), zap.Error(err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	p.logger.Info("Email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}

func (p *SMTPEmailProvider) buildMessage(to, subject, htmlBody, textBody string) (*mail.Msg, error) {
	msg := mail.NewMsg()

	from := p.cfg.FromEmail
	if from == "" {
		from = p.cfg.Username
	}
	if p.cfg.FromName != "" {
		if err := msg.FromFormat(p.cfg.FromName, from); err != nil {
			return nil, fmt.Errorf("invalid from address: %w", err)
		}
	} else if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}

	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}

	msg.Subject(subject)
	msg.SetDate()
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)
	if textBody != "" {
		msg.AddAlternativeString(mail.TypeTextPlain, textBody)
	}
	return msg, nil
}

// LogEmailProvider writes emails to the log instead of sending them. Used when SMTP is disabled.
type LogEmailProvider struct {
	logger *zap.Logger
}

func NewLogEmailProvider(logger *zap.Logger) EmailProvider {
	return &LogEmailProvider{logger: logger}
}

func (p *LogEmailProvider) SendEmail(ctx context.Context, to, subject, htmlBody, textBody string) error {
	p.logger.Info("Email delivery disabled, message not sent",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.Int("html_bytes", len(htmlBody)),
	)
	return nil
}
