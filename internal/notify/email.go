package notify

import (
	"context"
	"fmt"
	"strings"

	gomail "gopkg.in/mail.v2"

	"insidertrack/internal/config"
	"insidertrack/internal/models"
)

// EmailChannel delivers over SMTP with an HTML body and plain text fallback.
type EmailChannel struct {
	Config config.EmailConfig
}

func NewEmailChannel(cfg config.EmailConfig) *EmailChannel {
	return &EmailChannel{Config: cfg}
}

func (c *EmailChannel) Name() string { return "email" }

func (c *EmailChannel) Send(ctx context.Context, rule models.AlertRule, trade models.InsiderTrade) error {
	if !c.Config.Enabled {
		return fmt.Errorf("email: channel disabled")
	}
	if rule.Email == nil || strings.TrimSpace(*rule.Email) == "" {
		return fmt.Errorf("email: rule %d has no destination address", rule.ID)
	}

	msg := RenderMessage(trade)

	m := gomail.NewMessage()
	m.SetHeader("From", c.Config.FromEmail)
	m.SetHeader("To", strings.TrimSpace(*rule.Email))
	m.SetHeader("Subject", msg.Title)
	m.SetBody("text/plain", msg.Body)
	m.AddAlternative("text/html", renderHTML(msg))

	d := gomail.NewDialer(c.Config.SMTPServer, c.Config.SMTPPort, c.Config.SMTPUser, c.Config.SMTPPass)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("email send: %w", err)
	}
	return nil
}

func renderHTML(msg Message) string {
	var sb strings.Builder
	sb.WriteString("<html><body>")
	fmt.Fprintf(&sb, "<h2>%s</h2>", htmlEscape(msg.Title))
	fmt.Fprintf(&sb, "<p>%s</p>", htmlEscape(msg.Body))
	sb.WriteString(`<p style="color:#888;font-size:12px">insidertrack alert</p>`)
	sb.WriteString("</body></html>")
	return sb.String()
}

func htmlEscape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}
