package mailer

import (
	"fmt"
	"log"
	"net/smtp"
	"os"
)

// Mailer sends plain-text notification emails over SMTP. All callers in
// the checkout pipeline invoke it fire-and-forget; a failed email must
// never fail the payment or order write that triggered it.
type Mailer struct {
	Host string
	Port string
	From string
	Pass string
}

func NewFromEnv() *Mailer {
	return &Mailer{
		Host: envOr("SMTP_HOST", "smtp.gmail.com"),
		Port: envOr("SMTP_PORT", "587"),
		From: os.Getenv("SMTP_FROM"),
		Pass: os.Getenv("SMTP_PASS"),
	}
}

func (m *Mailer) Send(to, subject, body string) error {
	if m.From == "" {
		return fmt.Errorf("mailer not configured")
	}
	msg := []byte("Subject: " + subject + "\r\n\r\n" + body)
	auth := smtp.PlainAuth("", m.From, m.Pass, m.Host)
	return smtp.SendMail(m.Host+":"+m.Port, auth, m.From, []string{to}, msg)
}

// SendAsync fires the email on its own goroutine and logs failures.
func (m *Mailer) SendAsync(to, subject, body string) {
	go func() {
		if err := m.Send(to, subject, body); err != nil {
			log.Printf("mailer: send to %s failed: %v", to, err)
		}
	}()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
