package leads

import (
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"
)

// Rule describes how one form field is validated. The same table drives the
// server check and, via GET /api/validation-rules, the browser pre-check.
type Rule struct {
	Field     string
	Required  bool
	MinLength int
	Pattern   *regexp.Regexp
	Choices   []string
	Messages  RuleMessages
}

// RuleMessages are the human-readable errors for each failed check.
type RuleMessages struct {
	Required  string `json:"required,omitempty"`
	MinLength string `json:"minLength,omitempty"`
	Pattern   string `json:"pattern,omitempty"`
	Choices   string `json:"choices,omitempty"`
}

// Patterns use the subset of regex syntax shared by RE2 and JavaScript.
var (
	namePattern  = regexp.MustCompile(`^[a-zA-Z '-]+$`)
	phonePattern = regexp.MustCompile(`^\(\d{3}\)\s\d{3}-\d{4}$`)
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

// Rules is the ordered rule table. Fields without a rule are always valid.
var Rules = []Rule{
	{
		Field:     FieldName,
		Required:  true,
		MinLength: 2,
		Pattern:   namePattern,
		Messages: RuleMessages{
			Required:  "Please enter your full name",
			MinLength: "Name must be at least 2 characters",
			Pattern:   "Please enter a valid name (letters, spaces, hyphens only)",
		},
	},
	{
		Field:    FieldPhone,
		Required: true,
		Pattern:  phonePattern,
		Messages: RuleMessages{
			Required: "Please enter your phone number",
			Pattern:  "Phone number must be in format (XXX) XXX-XXXX",
		},
	},
	{
		Field:    FieldEmail,
		Required: true,
		Pattern:  emailPattern,
		Messages: RuleMessages{
			Required: "Please enter your email address",
			Pattern:  "Invalid email format",
		},
	},
	{
		Field:   FieldContactMethod,
		Choices: []string{"phone", "email", "text"},
		Messages: RuleMessages{
			Choices: "Please choose phone, email or text as your contact method",
		},
	},
}

// RuleFor looks up the rule for field.
func RuleFor(field string) (Rule, error) {
	for _, rule := range Rules {
		if rule.Field == field {
			return rule, nil
		}
	}
	return Rule{}, fmt.Errorf("%w: %s", ErrUnknownField, field)
}

// FieldResult is the outcome of validating a single value.
type FieldResult struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// Check runs the rule against value: required, minimum length, pattern, choices.
// An empty value on an optional field is valid.
func (r Rule) Check(value string) FieldResult {
	if strings.TrimSpace(value) == "" {
		if r.Required {
			return FieldResult{Error: r.Messages.Required}
		}
		return FieldResult{Valid: true}
	}
	if r.MinLength > 0 && utf8.RuneCountInString(value) < r.MinLength {
		return FieldResult{Error: r.Messages.MinLength}
	}
	if r.Pattern != nil && !r.Pattern.MatchString(value) {
		return FieldResult{Error: r.Messages.Pattern}
	}
	if len(r.Choices) > 0 && !slices.Contains(r.Choices, value) {
		return FieldResult{Error: r.Messages.Choices}
	}
	return FieldResult{Valid: true}
}

// ValidateField validates value against the rule for field.
func ValidateField(field, value string) FieldResult {
	rule, err := RuleFor(field)
	if err != nil {
		return FieldResult{Valid: true}
	}
	return rule.Check(value)
}

// FieldError is one failed rule.
type FieldError struct {
	Field   string
	Message string
}

// ValidationErrors collects every failed rule of a lead, in rule order.
type ValidationErrors []FieldError

func (ve ValidationErrors) Error() string {
	return "leads: validation failed: " + strings.Join(ve.Messages(), ", ")
}

// Messages returns the error messages in rule order.
func (ve ValidationErrors) Messages() []string {
	out := make([]string, 0, len(ve))
	for _, e := range ve {
		out = append(out, e.Message)
	}
	return out
}

// Fields returns the names of the failing fields.
func (ve ValidationErrors) Fields() []string {
	out := make([]string, 0, len(ve))
	for _, e := range ve {
		out = append(out, e.Field)
	}
	return out
}

// ValidateLead applies every rule to the lead and returns the failures, or nil.
func ValidateLead(lead Lead) ValidationErrors {
	values := map[string]string{
		FieldName:           lead.Name,
		FieldPhone:          lead.Phone,
		FieldEmail:          lead.Email,
		FieldWaterHeaterAge: lead.WaterHeaterAge,
		FieldCondition:      lead.Condition,
		FieldContactMethod:  lead.ContactMethod,
		FieldDetails:        lead.Details,
	}
	var errs ValidationErrors
	for _, rule := range Rules {
		if res := rule.Check(values[rule.Field]); !res.Valid {
			errs = append(errs, FieldError{Field: rule.Field, Message: res.Error})
		}
	}
	return errs
}

type ruleJSON struct {
	Field     string       `json:"field"`
	Required  bool         `json:"required"`
	MinLength int          `json:"minLength,omitempty"`
	Pattern   string       `json:"pattern,omitempty"`
	Choices   []string     `json:"choices,omitempty"`
	Messages  RuleMessages `json:"messages"`
}

// MarshalJSON emits the pattern as its source text so browsers can compile it.
func (r Rule) MarshalJSON() ([]byte, error) {
	out := ruleJSON{
		Field:     r.Field,
		Required:  r.Required,
		MinLength: r.MinLength,
		Choices:   r.Choices,
		Messages:  r.Messages,
	}
	if r.Pattern != nil {
		out.Pattern = r.Pattern.String()
	}
	return json.Marshal(out)
}
