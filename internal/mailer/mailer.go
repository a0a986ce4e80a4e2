// Package mailer renders queued MailMessages into SMTP mails and sends
// them. Rendering is separated from delivery so templates are testable
// without a mail server.
package mailer

import (
	"encoding/json"
	"fmt"
	"html/template"

	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"

	"github.com/gearguard/gearguard/internal/core/domain"
)

var resetPasswordTmpl = template.Must(template.New("reset_password").Parse(`
<p>Hi {{.FullName}},</p>
<p>Your GearGuard password reset code is:</p>
<p style="font-size:24px;font-weight:bold;letter-spacing:4px;">{{.OTP}}</p>
<p>The code expires in {{.ExpiryMinutes}} minutes. If you did not request a
reset, you can ignore this mail.</p>
`))

var newAccountTmpl = template.Must(template.New("new_account").Parse(`
<p>Hi {{.FullName}},</p>
<p>A GearGuard account has been created for you.</p>
<p>Sign in with <b>{{.Email}}</b>. Your role is <b>{{.Role}}</b>.</p>
`))

// Render builds a ready-to-send mail from a queued message. The sender
// address is set by the caller.
func Render(from string, msg domain.MailMessage) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(from); err != nil {
		return nil, fmt.Errorf("set sender: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("set recipient: %w", err)
	}

	// Data arrives as generic JSON from the queue; re-marshal into the
	// concrete template payload for the message type.
	raw, err := json.Marshal(msg.Data)
	if err != nil {
		return nil, fmt.Errorf("marshal mail data: %w", err)
	}

	switch msg.Type {
	case domain.MailTypeResetPassword:
		var data domain.ResetPasswordMailData
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("decode reset password data: %w", err)
		}
		m.Subject("GearGuard - Password reset code")
		if err := m.SetBodyHTMLTemplate(resetPasswordTmpl, data); err != nil {
			return nil, fmt.Errorf("render reset password mail: %w", err)
		}
	case domain.MailTypeNewAccount:
		var data domain.NewAccountMailData
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("decode new account data: %w", err)
		}
		m.Subject("GearGuard - Your account")
		if err := m.SetBodyHTMLTemplate(newAccountTmpl, data); err != nil {
			return nil, fmt.Errorf("render new account mail: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported mail type %q", msg.Type)
	}

	return m, nil
}

// Sender delivers rendered mails over SMTP.
type Sender struct {
	client *mail.Client
	from   string
	log    zerolog.Logger
}

func NewSender(client *mail.Client, from string, log zerolog.Logger) *Sender {
	return &Sender{client: client, from: from, log: log}
}

// Send renders and delivers one queued message. A rendering failure is
// permanent (the message is malformed); a delivery failure is transient
// and the caller should requeue.
func (s *Sender) Send(msg domain.MailMessage) (permanent bool, err error) {
	m, err := Render(s.from, msg)
	if err != nil {
		return true, err
	}
	if err := s.client.DialAndSend(m); err != nil {
		return false, fmt.Errorf("send mail: %w", err)
	}
	s.log.Info().Str("type", msg.Type).Str("to", msg.To).Msg("mail sent")
	return false, nil
}
