package mail

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/elearning-service/internal/config"
)

func TestOutbox(t *testing.T) {
	ctx := context.Background()
	box := NewOutbox(nil)

	require.NoError(t, box.Send(ctx, VerificationMessage("ada@example.com", "Ada", "12345678", 15*time.Minute)))
	require.NoError(t, box.Send(ctx, EnrollmentMessage("bob@example.com", "Bob", "Go 101")))
	assert.ErrorIs(t, box.Send(ctx, Message{Subject: "nobody"}), ErrNoRecipient)

	assert.Len(t, box.Sent(), 2)
	msg, ok := box.Last("ada@example.com")
	require.True(t, ok)
	assert.Equal(t, "One-Time Passcode for Email Verification", msg.Subject)
	assert.Contains(t, msg.Text, "OTP: 12345678")
	assert.Contains(t, msg.Text, "valid for 15 minutes")

	_, ok = box.Last("carol@example.com")
	assert.False(t, ok)

	box.Fail = errors.New("smtp down")
	assert.Error(t, box.Send(ctx, EnrollmentMessage("bob@example.com", "Bob", "Go 101")))
}

func TestMessages(t *testing.T) {
	issued := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	cert := CertificateIssuedMessage("ada@example.com", "Ada", "Go 101", "Completion", "0123456789", issued)
	assert.Equal(t, "Congratulations! You've completed Go 101", cert.Subject)
	assert.Contains(t, cert.Text, "Verification code: 0123456789")
	assert.Contains(t, cert.Text, "Issued: 2026-03-01")

	reset := PasswordResetMessage("ada@example.com", "Ada", "87654321", 15*time.Minute)
	assert.Contains(t, reset.Text, "Dear Ada")
	assert.Contains(t, reset.Text, "OTP: 87654321")

	app := ApplicationStatusMessage("ada@example.com", "Ada", "Backend Intern", "Accepted")
	assert.Contains(t, app.Text, `"Backend Intern" is now: Accepted`)
}

func TestSendGridPrepare(t *testing.T) {
	s := NewSendGridSender(config.SendGridConfig{APIKey: "key", FromEmail: "noreply@example.com", FromName: "E-Learning"}, nil).(*sendgridSender)
	m := s.prepare(Message{To: "ada@example.com", ToName: "Ada", Subject: "Hi", Text: "hello"})

	require.Len(t, m.Personalizations, 1)
	assert.Equal(t, "[E-Learning] Hi", m.Personalizations[0].Subject)
	assert.Equal(t, "ada@example.com", m.Personalizations[0].To[0].Address)
	require.Len(t, m.Content, 1)
	assert.Equal(t, "text/plain", m.Content[0].Type)
	assert.Equal(t, "noreply@example.com", m.From.Address)
}
