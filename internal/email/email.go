// Package email notifies doctors about the state of their registration.
package email

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"
)

// Service sends registration lifecycle mail to doctors.
type Service interface {
	SendRegistrationPending(ctx context.Context, to, name string) error
	SendDoctorApproved(ctx context.Context, to, name string) error
	SendDoctorRejected(ctx context.Context, to, name string) error
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPService delivers mail through an SMTP relay, one connection per message.
type SMTPService struct {
	from string
	send func(*gomail.Message) error
}

func NewSMTPService(cfg Config) *SMTPService {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return &SMTPService{
		from: cfg.From,
		send: func(m *gomail.Message) error { return dialer.DialAndSend(m) },
	}
}

// NewSenderService delivers through s instead of dialing an SMTP server.
// Sender errors are returned unwrapped so callers can match them.
func NewSenderService(from string, s gomail.Sender) *SMTPService {
	return &SMTPService{
		from: from,
		send: func(m *gomail.Message) error {
			return s.Send(from, m.GetHeader("To"), m)
		},
	}
}

func (s *SMTPService) SendRegistrationPending(ctx context.Context, to, name string) error {
	return s.deliver(ctx, to, "BharathMedicare registration received", fmt.Sprintf(
		"Dear Dr. %s,\n\nThank you for registering with BharathMedicare. Your account is pending admin approval. "+
			"You will be notified once your NMC registration has been verified.\n\nBharathMedicare Team", name))
}

func (s *SMTPService) SendDoctorApproved(ctx context.Context, to, name string) error {
	return s.deliver(ctx, to, "BharathMedicare account verified", fmt.Sprintf(
		"Dear Dr. %s,\n\nYour BharathMedicare account has been verified. You can now log in.\n\nBharathMedicare Team", name))
}

func (s *SMTPService) SendDoctorRejected(ctx context.Context, to, name string) error {
	return s.deliver(ctx, to, "BharathMedicare registration update", fmt.Sprintf(
		"Dear Dr. %s,\n\nWe could not verify your registration and your account has been removed. "+
			"Please contact support if you believe this is a mistake.\n\nBharathMedicare Team", name))
}

func (s *SMTPService) deliver(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.send(m); err != nil {
		return fmt.Errorf("failed to send %q to %s: %w", subject, to, err)
	}
	return nil
}

// LogService writes notifications to the log instead of sending them.
type LogService struct {
	logger zerolog.Logger
}

func NewLogService(logger zerolog.Logger) *LogService {
	return &LogService{logger: logger}
}

func (s *LogService) SendRegistrationPending(_ context.Context, to, name string) error {
	s.log("registration_pending", to, name)
	return nil
}

func (s *LogService) SendDoctorApproved(_ context.Context, to, name string) error {
	s.log("doctor_approved", to, name)
	return nil
}

func (s *LogService) SendDoctorRejected(_ context.Context, to, name string) error {
	s.log("doctor_rejected", to, name)
	return nil
}

func (s *LogService) log(kind, to, name string) {
	s.logger.Info().Str("notification", kind).Str("to", to).Str("name", name).Msg("email not configured, notification logged")
}
