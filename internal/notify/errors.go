package notify

import "errors"

var (
	// ErrSendFailed wraps provider failures so callers can match them with errors.Is.
	ErrSendFailed = errors.New("notify: send failed")

	// ErrInvalidConfig is returned by sender constructors given unusable settings.
	ErrInvalidConfig = errors.New("notify: invalid sender config")

	// ErrNoRecipient is returned when a message has no To address.
	ErrNoRecipient = errors.New("notify: message has no recipient")
)
