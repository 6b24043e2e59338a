package notify

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"gopkg.in/gomail.v2"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Enabled reports whether enough settings exist to attempt delivery.
func (c SMTPConfig) Enabled() bool {
	return strings.TrimSpace(c.Host) != "" && c.Port > 0
}

// SMTPMailer sends codes through an SMTP relay. Port 465 uses implicit TLS,
// any other port upgrades with STARTTLS when the server offers it.
type SMTPMailer struct {
	cfg    SMTPConfig
	dialer *gomail.Dialer
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

func (m *SMTPMailer) SendCode(ctx context.Context, msg CodeMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	gm, err := BuildMessage(m.cfg.From, msg)
	if err != nil {
		return err
	}
	if err := m.dialer.DialAndSend(gm); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}
	return nil
}

// Subject is "<workspace> - Code de connexion".
func Subject(workspaceName string) string {
	return workspaceName + " - Code de connexion"
}

var (
	textBody = texttemplate.Must(texttemplate.New("text").Parse(
		`Votre code de connexion {{.WorkspaceName}} : {{.Code}}

Ce code expire dans {{.Minutes}} minutes.
Si vous n'avez pas demandé ce code, ignorez cet email.
`))

	htmlBody = htmltemplate.Must(htmltemplate.New("html").Parse(
		`<html>
<body style="font-family: Arial, sans-serif; padding: 20px;">
  <h2>Votre code de connexion {{.WorkspaceName}}</h2>
  <p>Utilisez ce code pour vous connecter :</p>
  <h1 style="background: #f0f0f0; padding: 20px; text-align: center; letter-spacing: 5px;">{{.Code}}</h1>
  <p>Ce code expire dans {{.Minutes}} minutes.</p>
  <p>Si vous n'avez pas demandé ce code, ignorez cet email.</p>
</body>
</html>
`))
)

// BuildMessage renders a multipart (text + html) code email.
func BuildMessage(from string, msg CodeMessage) (*gomail.Message, error) {
	data := struct {
		WorkspaceName string
		Code          string
		Minutes       int
	}{
		WorkspaceName: msg.WorkspaceName,
		Code:          msg.Code,
		Minutes:       max(int(msg.TTL.Minutes()), 1),
	}

	var text, html bytes.Buffer
	if err := textBody.Execute(&text, data); err != nil {
		return nil, fmt.Errorf("render text body: %w", err)
	}
	if err := htmlBody.Execute(&html, data); err != nil {
		return nil, fmt.Errorf("render html body: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", Subject(msg.WorkspaceName))
	m.SetBody("text/plain", text.String())
	m.AddAlternative("text/html", html.String())
	return m, nil
}
