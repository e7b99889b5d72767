package leads

import "errors"

var (
	// ErrInvalidBody is returned when the submission body cannot be decoded.
	ErrInvalidBody = errors.New("leads: invalid request body")

	// ErrUnknownField is returned by RuleFor for fields without a rule.
	ErrUnknownField = errors.New("leads: no validation rule for field")
)
