package smtp

import (
	"context"
	"fmt"
	"net/smtp"

	"golang.org/x/time/rate"

	"github.com/campus-auth-api/internal/config"
)

// Mailer sends emails.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

type mailer struct {
	host     string
	port     string
	from     string
	username string
	password string
	limiter  *rate.Limiter
}

// NewMailer builds an SMTP mailer. Sends are throttled through a token
// bucket so a burst of signups cannot trip the provider's sending limits.
func NewMailer(cfg *config.Config) Mailer {
	return &mailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		from:     cfg.SMTPFrom,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		limiter:  rate.NewLimiter(rate.Limit(cfg.SMTPRatePerSec), cfg.SMTPBurst),
	}
}

func (m *mailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	if err := m.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("mail rate limiter: %w", err)
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n"+
		"MIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s",
		m.from, to, subject, htmlBody)
	addr := fmt.Sprintf("%s:%s", m.host, m.port)

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	return smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg))
}
