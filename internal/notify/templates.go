package notify

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tomplumbs/landing-page/internal/leads"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const (
	businessHTML = "business_notification.html.tmpl"
	businessText = "business_notification.txt.tmpl"
	receiptHTML  = "customer_receipt.html.tmpl"
	receiptText  = "customer_receipt.txt.tmpl"
)

// Document is one rendered email.
type Document struct {
	Subject string
	HTML    string
	Text    string
}

// Templater renders the business notification and the customer receipt.
// HTML goes through html/template, so every lead value is escaped for the
// context it lands in (element text, attribute, URL).
type Templater struct {
	profile Profile
	html    *htmltemplate.Template
	text    *texttemplate.Template
}

// NewTemplater parses the embedded templates.
func NewTemplater(profile Profile) (*Templater, error) {
	if profile.Location == nil {
		profile.Location = time.UTC
	}
	html, err := htmltemplate.New("email").Option("missingkey=error").ParseFS(templateFS, "templates/*.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("notify: parse html templates: %w", err)
	}
	text, err := texttemplate.New("email").Option("missingkey=error").ParseFS(templateFS, "templates/*.txt.tmpl")
	if err != nil {
		return nil, fmt.Errorf("notify: parse text templates: %w", err)
	}
	return &Templater{profile: profile, html: html, text: text}, nil
}

type templateData struct {
	Profile            Profile
	Lead               leads.Lead
	FirstName          string
	Reference          string
	SubmittedAt        string
	ClientIP           string
	Client             leads.ClientInfo
	ConditionLabel     string
	ContactMethodLabel string
	HasHeaterDetails   bool
}

func (t *Templater) data(sub leads.Submission) templateData {
	// Casers are stateful; make one per render since sends run concurrently.
	title := cases.Title(language.English)
	lead := sub.Lead
	contact := lead.ContactMethod
	if contact == "" {
		contact = leads.DefaultContactMethod
	}
	submitted := sub.SubmittedAt
	if submitted.IsZero() {
		submitted = time.Now()
	}
	return templateData{
		Profile:            t.profile,
		Lead:               lead,
		FirstName:          lead.FirstName(),
		Reference:          sub.Reference,
		SubmittedAt:        submitted.In(t.profile.Location).Format("Jan 2, 2006 3:04 PM MST"),
		ClientIP:           sub.ClientIP,
		Client:             sub.Client,
		ConditionLabel:     title.String(strings.ReplaceAll(lead.Condition, "-", " ")),
		ContactMethodLabel: title.String(contact),
		HasHeaterDetails:   lead.WaterHeaterAge != "" || lead.Condition != "",
	}
}

// BusinessNotification renders the new-lead email sent to the business inbox.
func (t *Templater) BusinessNotification(sub leads.Submission) (Document, error) {
	data := t.data(sub)
	subject := fmt.Sprintf("🔥 New %s Water Heater Lead: %s", t.profile.PackagePrice, sub.Lead.Name)
	return t.render(subject, businessHTML, businessText, data)
}

// CustomerReceipt renders the auto-response sent to the lead. Its content
// depends only on the lead's first name.
func (t *Templater) CustomerReceipt(sub leads.Submission) (Document, error) {
	data := t.data(sub)
	subject := fmt.Sprintf("☀️ Thanks for reaching out to %s!", t.profile.Name)
	return t.render(subject, receiptHTML, receiptText, data)
}

func (t *Templater) render(subject, htmlName, textName string, data templateData) (Document, error) {
	var html, text bytes.Buffer
	if err := t.html.ExecuteTemplate(&html, htmlName, data); err != nil {
		return Document{}, fmt.Errorf("notify: execute %s: %w", htmlName, err)
	}
	if err := t.text.ExecuteTemplate(&text, textName, data); err != nil {
		return Document{}, fmt.Errorf("notify: execute %s: %w", textName, err)
	}
	return Document{
		Subject: subject,
		HTML:    html.String(),
		Text:    strings.TrimSpace(text.String()),
	}, nil
}
