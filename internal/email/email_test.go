package email

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type captured struct {
	from string
	to   []string
	raw  string
}

func capture(out *[]captured, err error) gomail.SendFunc {
	return func(from string, to []string, msg io.WriterTo) error {
		var buf bytes.Buffer
		if _, werr := msg.WriteTo(&buf); werr != nil {
			return werr
		}
		*out = append(*out, captured{from: from, to: to, raw: buf.String()})
		return err
	}
}

func TestSMTPServiceMessages(t *testing.T) {
	var sent []captured
	svc := NewSenderService("noreply@bharathmedicare.in", capture(&sent, nil))
	ctx := context.Background()

	require.NoError(t, svc.SendRegistrationPending(ctx, "rao@example.com", "Rao"))
	require.NoError(t, svc.SendDoctorApproved(ctx, "rao@example.com", "Rao"))
	require.NoError(t, svc.SendDoctorRejected(ctx, "rao@example.com", "Rao"))

	require.Len(t, sent, 3)
	assert.Equal(t, "noreply@bharathmedicare.in", sent[0].from)
	assert.Equal(t, []string{"rao@example.com"}, sent[0].to)
	assert.Contains(t, sent[0].raw, "Subject: BharathMedicare registration received")
	assert.Contains(t, sent[0].raw, "Dear Dr. Rao,")
	assert.Contains(t, sent[1].raw, "Subject: BharathMedicare account verified")
	assert.Contains(t, sent[2].raw, "Subject: BharathMedicare registration update")
}

func TestSMTPServiceWrapsFailures(t *testing.T) {
	var sent []captured
	boom := errors.New("relay refused")
	svc := NewSenderService("noreply@bharathmedicare.in", capture(&sent, boom))

	err := svc.SendDoctorApproved(context.Background(), "rao@example.com", "Rao")
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), `failed to send "BharathMedicare account verified" to rao@example.com`)
	require.Len(t, sent, 1)
}

func TestNewSMTPService(t *testing.T) {
	svc := NewSMTPService(Config{Host: "localhost", Port: 2525, From: "noreply@bharathmedicare.in"})
	require.NotNil(t, svc.send)
	assert.Equal(t, "noreply@bharathmedicare.in", svc.from)

	var _ Service = svc
	var _ Service = NewLogService(zerolog.Nop())
}

func TestSMTPServiceHonoursCancelledContext(t *testing.T) {
	var sent []captured
	svc := NewSenderService("noreply@bharathmedicare.in", capture(&sent, nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, svc.SendDoctorRejected(ctx, "rao@example.com", "Rao"), context.Canceled)
	assert.Empty(t, sent)
}

func TestLogService(t *testing.T) {
	var buf bytes.Buffer
	svc := NewLogService(zerolog.New(&buf))

	require.NoError(t, svc.SendRegistrationPending(context.Background(), "rao@example.com", "Rao"))
	assert.Contains(t, buf.String(), `"notification":"registration_pending"`)
	assert.Contains(t, buf.String(), `"to":"rao@example.com"`)
}
