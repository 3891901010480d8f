package services

import (
	"bytes"
	"context"
	"testing"

	"github.com/cherriedy/ban-hang-so-api/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingEmailProvider struct {
	to, subject, html, text string
	calls                   int
}

func (p *recordingEmailProvider) SendEmail(ctx context.Context, to, subject, htmlBody, textBody string) error {
	p.calls++
	p.to, p.subject, p.html, p.text = to, subject, htmlBody, textBody
	return nil
}

func TestSendStaffCredentials(t *testing.T) {
	provider := &recordingEmailProvider{}
	svc := NewNotificationService(provider)

	err := svc.SendStaffCredentials(context.Background(), StaffCredentials{
		Email:       "lan@example.com",
		DisplayName: "Lan <script>",
		StoreName:   "Tiệm Tạp Hóa",
		Password:    "Abc!23xyz789",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, provider.calls)
	assert.Equal(t, "lan@example.com", provider.to)
	assert.Equal(t, "Your staff account at Tiệm Tạp Hóa", provider.subject)
	assert.Contains(t, provider.html, "Abc!23xyz789")
	assert.Contains(t, provider.html, "Lan &lt;script&gt;")
	assert.Contains(t, provider.text, "Password: Abc!23xyz789")
}

func TestSendStaffCredentials_Errors(t *testing.T) {
	ctx := context.Background()

	err := NewNotificationService(nil).SendStaffCredentials(ctx, StaffCredentials{Email: "a@b.c"})
	assert.Error(t, err)

	provider := &recordingEmailProvider{}
	err = NewNotificationService(provider).SendStaffCredentials(ctx, StaffCredentials{Email: "not-an-email"})
	assert.Error(t, err)
	assert.Zero(t, provider.calls)
}

func TestSMTPEmailProvider_BuildMessage(t *testing.T) {
	p := &SMTPEmailProvider{
		cfg: config.EmailConfig{
			Host:      "smtp.example.com",
			Port:      587,
			FromEmail: "noreply@example.com",
			FromName:  "Ban Hang So",
		},
		logger: zap.NewNop(),
	}

	msg, err := p.buildMessage("staff@example.com", "Hello", "<p>hi</p>", "hi")
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)

	raw := buf.String()
	assert.Contains(t, raw, "To: <staff@example.com>")
	assert.Contains(t, raw, "Subject: Hello")
	assert.Contains(t, raw, "Ban Hang So")
	assert.Contains(t, raw, "text/html")
	assert.Contains(t, raw, "text/plain")

	_, err = p.buildMessage("bad address", "Hello", "<p>hi</p>", "")
	assert.Error(t, err)
}

func TestLogEmailProvider(t *testing.T) {
	assert.NoError(t, NewLogEmailProvider(zap.NewNop()).SendEmail(context.Background(), "a@b.c", "s", "<p/>", ""))
}
