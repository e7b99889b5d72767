package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tomplumbs/landing-page/internal/config"
	"github.com/tomplumbs/landing-page/internal/leads"
)

type mockEmailSender struct {
	mu      sync.Mutex
	sent    []EmailMessage
	failOn  string // fail if To matches this
	callErr error
}

func (m *mockEmailSender) Send(ctx context.Context, msg EmailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.callErr != nil {
		return m.callErr
	}
	if m.failOn != "" && msg.To == m.failOn {
		return errors.New("mock email error")
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *mockEmailSender) sentTo(addr string) (EmailMessage, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range m.sent {
		if msg.To == addr {
			return msg, true
		}
	}
	return EmailMessage{}, false
}

func testConfig() *config.Config {
	return &config.Config{
		BusinessEmail:    "leads@tomplumbs.com",
		FromEmail:        "noreply@tomplumbs.com",
		BusinessName:     "Tom Plumb Plumbing",
		BusinessPhone:    "(760) 846-0414",
		BusinessLicense:  "955168",
		BusinessWebsite:  "https://tomplumbs.com",
		BusinessTimezone: "America/Los_Angeles",
	}
}

func testSubmission() leads.Submission {
	return leads.Submission{
		Reference: "ref-123",
		Lead: leads.Lead{
			Name:           "Jane Doe",
			Phone:          "(760) 555-0100",
			Email:          "jane@example.com",
			WaterHeaterAge: "10-15 years",
			Condition:      "not-working",
			ContactMethod:  "phone",
			Details:        "Leaking from the bottom.",
		},
		SubmittedAt: time.Date(2026, 3, 14, 18, 30, 0, 0, time.UTC),
		ClientIP:    "203.0.113.7",
		Client:      leads.ClientInfo{Browser: "Firefox", OS: "Linux x86_64"},
	}
}
