// Package mail renders and delivers transactional emails.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"math"
	"text/template"
	"time"

	"github.com/yuin/goldmark"

	"budget_backend/internal/feature/auth/domain/entity"
	"budget_backend/internal/feature/auth/usecase"
	"budget_backend/internal/shared/ratelimiter"
)

// Message is a rendered email ready for a Transport.
type Message struct {
	From    string
	To      string
	Subject string
	Text    string
	HTML    string
}

// Transport delivers a rendered message.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// Mailer renders one-time code emails and hands them to a Transport.
type Mailer struct {
	transport Transport
	from      string
	appName   string
	pacer     *ratelimiter.RateLimiter
}

var _ usecase.OTPMailer = (*Mailer)(nil)

// NewMailer creates a Mailer. pacer may be nil.
func NewMailer(t Transport, from, appName string, pacer *ratelimiter.RateLimiter) *Mailer {
	if appName == "" {
		appName = "Budget"
	}
	return &Mailer{transport: t, from: from, appName: appName, pacer: pacer}
}

var markdown = goldmark.New()

type otpView struct {
	AppName string
	Code    string
	Minutes int
}

// otpTemplate bodies are Markdown. The text part is the rendered Markdown
// itself; the HTML part is converted with goldmark.
type otpTemplate struct {
	subject string
	body    *template.Template
}

var otpTemplates = map[entity.Purpose]otpTemplate{
	entity.PurposeEmailVerification: {
		subject: "Verify your email address",
		body: template.Must(template.New("verify.md").Parse(
			"## Welcome to {{.AppName}}!\n\n" +
				"Your verification code is: **{{.Code}}**\n\n" +
				"The code expires in {{.Minutes}} minutes.\n\n" +
				"If you did not create an account, you can ignore this email.\n")),
	},
	entity.PurposePasswordReset: {
		subject: "Reset your password",
		body: template.Must(template.New("reset.md").Parse(
			"## Reset your {{.AppName}} password\n\n" +
				"Your reset code is: **{{.Code}}**\n\n" +
				"The code expires in {{.Minutes}} minutes.\n\n" +
				"If you did not request a reset, you can ignore this email.\n")),
	},
}

// SendOTP renders the template for purpose and sends it to the recipient.
func (m *Mailer) SendOTP(ctx context.Context, to, code string, purpose entity.Purpose, ttl time.Duration) error {
	msg, err := m.renderOTP(to, code, purpose, ttl)
	if err != nil {
		return err
	}
	if err := m.pacer.Wait(ctx); err != nil {
		return fmt.Errorf("mail: %w", err)
	}
	if err := m.transport.Send(ctx, msg); err != nil {
		return fmt.Errorf("mail: send %s to %s: %w", purpose, to, err)
	}
	return nil
}

func (m *Mailer) renderOTP(to, code string, purpose entity.Purpose, ttl time.Duration) (Message, error) {
	tpl, ok := otpTemplates[purpose]
	if !ok {
		return Message{}, fmt.Errorf("mail: no template for purpose %q", purpose)
	}
	view := otpView{
		AppName: m.appName,
		Code:    code,
		Minutes: int(math.Ceil(ttl.Minutes())),
	}

	var text bytes.Buffer
	if err := tpl.body.Execute(&text, view); err != nil {
		return Message{}, fmt.Errorf("mail: render text: %w", err)
	}

	// goldmark omits raw HTML, so values are entity-escaped to survive as text
	view.AppName = html.EscapeString(view.AppName)
	var source, body bytes.Buffer
	if err := tpl.body.Execute(&source, view); err != nil {
		return Message{}, fmt.Errorf("mail: render html: %w", err)
	}
	if err := markdown.Convert(source.Bytes(), &body); err != nil {
		return Message{}, fmt.Errorf("mail: convert html: %w", err)
	}

	return Message{
		From:    m.from,
		To:      to,
		Subject: fmt.Sprintf("%s - %s", m.appName, tpl.subject),
		Text:    text.String(),
		HTML:    body.String(),
	}, nil
}
