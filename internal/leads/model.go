package leads

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Field names as they appear on the wire and in the form.
const (
	FieldName           = "name"
	FieldPhone          = "phone"
	FieldEmail          = "email"
	FieldWaterHeaterAge = "waterHeaterAge"
	FieldCondition      = "condition"
	FieldContactMethod  = "contactMethod"
	FieldDetails        = "details"
)

// DefaultContactMethod is used when the visitor did not pick one.
const DefaultContactMethod = "phone"

// Maximum lengths, in runes, applied by Sanitize.
const (
	MaxNameLength           = 100
	MaxPhoneLength          = 20
	MaxEmailLength          = 100
	MaxWaterHeaterAgeLength = 50
	MaxConditionLength      = 50
	MaxContactMethodLength  = 20
	MaxDetailsLength        = 1000
)

// Lead is a water heater replacement request submitted from the landing page.
// It is never stored; it only lives long enough to be relayed as two emails.
type Lead struct {
	Name           string `json:"name"`
	Phone          string `json:"phone"`
	Email          string `json:"email"`
	WaterHeaterAge string `json:"waterHeaterAge"`
	Condition      string `json:"condition"`
	ContactMethod  string `json:"contactMethod"`
	Details        string `json:"details"`
}

// Sanitize returns a copy of raw with every field trimmed and capped.
// It never fails, and Sanitize(Sanitize(x)) == Sanitize(x).
func Sanitize(raw Lead) Lead {
	lead := Lead{
		Name:           clean(raw.Name, MaxNameLength),
		Phone:          clean(raw.Phone, MaxPhoneLength),
		Email:          clean(raw.Email, MaxEmailLength),
		WaterHeaterAge: clean(raw.WaterHeaterAge, MaxWaterHeaterAgeLength),
		Condition:      clean(raw.Condition, MaxConditionLength),
		ContactMethod:  clean(raw.ContactMethod, MaxContactMethodLength),
		Details:        clean(raw.Details, MaxDetailsLength),
	}
	if lead.ContactMethod == "" {
		lead.ContactMethod = DefaultContactMethod
	}
	return lead
}

// clean trims s and truncates it to max runes. Whitespace exposed by the cut
// is trimmed too, otherwise a second pass would change the value.
func clean(s string, max int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return strings.TrimRightFunc(string(runes[:max]), unicode.IsSpace)
}

// FirstName is the part of the name before the first space.
func (l Lead) FirstName() string {
	name := strings.TrimSpace(l.Name)
	if i := strings.IndexByte(name, ' '); i >= 0 {
		return name[:i]
	}
	return name
}

// PhoneDigits strips everything but digits, for tel: links.
func (l Lead) PhoneDigits() string {
	return digitsOnly(l.Phone)
}

// ClientInfo describes the browser that sent the submission.
type ClientInfo struct {
	Browser string
	OS      string
	Mobile  bool
	Bot     bool
}

// Submission wraps a sanitized lead with request metadata for the operator.
type Submission struct {
	Reference   string
	Lead        Lead
	SubmittedAt time.Time
	ClientIP    string
	Client      ClientInfo
}
