package sender

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/seansyed/parafort-sub010/internal/domain"
)

type template struct {
	subject *texttemplate.Template
	html    *htmltemplate.Template
	text    *texttemplate.Template
}

func newTemplate(name, subject, html, text string) template {
	return template{
		subject: texttemplate.Must(texttemplate.New(name + "_subject").Parse(subject)),
		html:    htmltemplate.Must(htmltemplate.New(name).Parse(html)),
		text:    texttemplate.Must(texttemplate.New(name).Parse(text)),
	}
}

func (t template) render(to string, data any) (*Message, error) {
	var html, text bytes.Buffer
	if err := t.html.Execute(&html, data); err != nil {
		return nil, fmt.Errorf("render %s html: %w", t.html.Name(), err)
	}
	if err := t.text.Execute(&text, data); err != nil {
		return nil, fmt.Errorf("render %s text: %w", t.text.Name(), err)
	}

	var subject bytes.Buffer
	if err := t.subject.Execute(&subject, data); err != nil {
		return nil, fmt.Errorf("render %s subject: %w", t.html.Name(), err)
	}
	return &Message{To: to, Subject: subject.String(), HTML: html.String(), Text: text.String()}, nil
}

var (
	verificationTemplate = newTemplate("verification_code",
		"Your ParaFort verification code",
		`<h2>Verify your email</h2>
<p>Your verification code is <strong>{{.Code}}</strong>.</p>
<p>It expires in {{.Minutes}} minutes. If you did not request it, you can ignore this email.</p>`,
		`Your ParaFort verification code is {{.Code}}. It expires in {{.Minutes}} minutes.`)

	orderCreatedTemplate = newTemplate("order_created",
		"Order {{.OrderNumber}} received",
		`<h2>Thank you for your order</h2>
<p>We received order <strong>{{.OrderNumber}}</strong>{{if .BusinessName}} for {{.BusinessName}}{{end}}.</p>
<p>Total charged: ${{.Total}}{{if .Expedited}} (expedited processing){{end}}</p>
<p>We will email you as your filing progresses.</p>`,
		`We received order {{.OrderNumber}}{{if .BusinessName}} for {{.BusinessName}}{{end}}. Total charged: ${{.Total}}.`)

	orderStatusTemplate = newTemplate("order_status_changed",
		"Order {{.OrderNumber}} is now {{.Status}}",
		`<h2>Your order has been updated</h2>
<p>Order <strong>{{.OrderNumber}}</strong> is now <strong>{{.Status}}</strong> ({{.Progress}}% complete).</p>`,
		`Order {{.OrderNumber}} is now {{.Status}} ({{.Progress}}% complete).`)
)

// VerificationCodeEmail renders the email carrying a verification code.
func VerificationCodeEmail(to, code string, ttl time.Duration) (*Message, error) {
	return verificationTemplate.render(to, struct {
		Code    string
		Minutes int
	}{Code: code, Minutes: int(ttl.Minutes())})
}

// OrderCreatedEmail renders the order confirmation.
func OrderCreatedEmail(to string, o *domain.FormationOrder) (*Message, error) {
	return orderCreatedTemplate.render(to, struct {
		OrderNumber  string
		BusinessName string
		Total        string
		Expedited    bool
	}{
		OrderNumber:  o.OrderNumber,
		BusinessName: o.BusinessName,
		Total:        domain.FormatAmount(o.TotalAmount),
		Expedited:    o.IsExpedited,
	})
}

// OrderStatusEmail renders a status change notice.
func OrderStatusEmail(to, orderNumber, status string, progress int) (*Message, error) {
	return orderStatusTemplate.render(to, struct {
		OrderNumber string
		Status      string
		Progress    int
	}{
		OrderNumber: orderNumber,
		Status:      strings.ReplaceAll(status, "_", " "),
		Progress:    progress,
	})
}
