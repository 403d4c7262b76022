package services

import (
	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"
)

type EmailService interface {
	SendEmail(to, subject, msg string) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type emailService struct {
	cfg    SMTPConfig
	dialer *gomail.Dialer
}

func NewEmailService(cfg SMTPConfig) EmailService {
	return &emailService{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

func (e *emailService) SendEmail(to, subject, msg string) error {
	m := gomail.NewMessage()

	m.SetHeader("From", e.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", msg)

	return e.dialer.DialAndSend(m)
}

// logEmailService stands in for SMTP when no credentials are configured.
// It records that a message would have been sent, never its body.
type logEmailService struct{}

func NewLogEmailService() EmailService {
	return logEmailService{}
}

func (logEmailService) SendEmail(to, subject, _ string) error {
	log.Warn().Str("to", to).Str("subject", subject).Msg("SMTP not configured, email not sent")
	return nil
}
