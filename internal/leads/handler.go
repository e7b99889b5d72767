package leads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mssola/useragent"

	"github.com/tomplumbs/landing-page/internal/config"
	"github.com/tomplumbs/landing-page/internal/observability/metrics"
	"github.com/tomplumbs/landing-page/pkg/logging"
)

const (
	maxBodyBytes    = 64 << 10
	dispatchTimeout = 30 * time.Second

	msgAccepted     = "Lead submitted successfully! Check your email for confirmation."
	msgEmailFailed  = "Lead submitted successfully! However, there was an issue sending confirmation emails. We will contact you shortly at the phone number provided."
	msgInvalidBody  = "Invalid request body"
	warnEmailFailed = "Email notification failed"
)

// Dispatcher relays an accepted submission to the business and the lead.
type Dispatcher interface {
	Dispatch(ctx context.Context, sub Submission) error
}

// SubmitResponse is the JSON envelope returned by POST /api/submit-lead.
type SubmitResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Warning string   `json:"warning,omitempty"`
	Errors  []string `json:"errors,omitempty"`
	Fields  []string `json:"fields,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// Handler handles HTTP requests for leads
type Handler struct {
	dispatcher    Dispatcher
	metrics       *metrics.LeadMetrics
	logger        *logging.Logger
	businessPhone string
	exposeErrors  bool
	now           func() time.Time
}

// NewHandler creates a new leads handler
func NewHandler(cfg *config.Config, dispatcher Dispatcher, m *metrics.LeadMetrics, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		dispatcher:    dispatcher,
		metrics:       m,
		logger:        logger,
		businessPhone: cfg.BusinessPhone,
		exposeErrors:  !cfg.IsProduction(),
		now:           time.Now,
	}
}

// SubmitLead handles POST /api/submit-lead requests.
func (h *Handler) SubmitLead(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	outcome := metrics.OutcomeError
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("lead submission panicked", "panic", rec, "path", r.URL.Path)
			outcome = metrics.OutcomeError
			h.writeServerError(w, fmt.Errorf("leads: unexpected failure: %v", rec))
		}
		h.metrics.ObserveSubmission(outcome, time.Since(start).Seconds())
	}()

	raw, err := decodeLead(w, r)
	if err != nil {
		h.logger.Warn("failed to decode lead submission", "error", err)
		outcome = metrics.OutcomeBadRequest
		writeJSON(w, http.StatusBadRequest, SubmitResponse{Success: false, Message: msgInvalidBody})
		return
	}

	sub := h.newSubmission(r, Sanitize(raw))
	logger := h.logger.With("reference", sub.Reference)
	logger.Info("lead submission received",
		"first_name", sub.Lead.FirstName(),
		"email", logging.MaskEmail(sub.Lead.Email),
		"phone", logging.MaskPhone(sub.Lead.Phone),
		"browser", sub.Client.Browser,
	)

	if verrs := ValidateLead(sub.Lead); len(verrs) > 0 {
		logger.Info("lead submission rejected", "fields", verrs.Fields())
		outcome = metrics.OutcomeInvalid
		messages := verrs.Messages()
		writeJSON(w, http.StatusBadRequest, SubmitResponse{
			Success: false,
			Message: strings.Join(messages, ", "),
			Errors:  messages,
			Fields:  verrs.Fields(),
		})
		return
	}

	// The visitor leaving the page must not abort the emails.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), dispatchTimeout)
	defer cancel()
	if err := h.dispatcher.Dispatch(ctx, sub); err != nil {
		logger.Error("lead email dispatch failed", "error", err)
		outcome = metrics.OutcomeEmailFailed
		writeJSON(w, http.StatusOK, SubmitResponse{
			Success: true,
			Message: msgEmailFailed,
			Warning: warnEmailFailed,
		})
		return
	}

	logger.Info("lead submission accepted")
	outcome = metrics.OutcomeAccepted
	writeJSON(w, http.StatusOK, SubmitResponse{Success: true, Message: msgAccepted})
}

// APITest handles GET /api/test requests.
func (h *Handler) APITest(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   "API is working!",
		"timestamp": h.now().UTC().Format(time.RFC3339Nano),
	})
}

// ValidationRules handles GET /api/validation-rules requests.
func (h *Handler) ValidationRules(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=300")
	writeJSON(w, http.StatusOK, map[string]any{"rules": Rules})
}

func (h *Handler) writeServerError(w http.ResponseWriter, err error) {
	resp := SubmitResponse{
		Success: false,
		Message: fmt.Sprintf("Unable to submit your request. Please call us directly at %s.", h.businessPhone),
	}
	if h.exposeErrors {
		resp.Error = err.Error()
	}
	writeJSON(w, http.StatusInternalServerError, resp)
}

func (h *Handler) newSubmission(r *http.Request, lead Lead) Submission {
	return Submission{
		Reference:   uuid.NewString(),
		Lead:        lead,
		SubmittedAt: h.now(),
		ClientIP:    clientIP(r),
		Client:      parseClient(r.UserAgent()),
	}
}

// decodeLead reads a JSON body, or a form body for posts made without
// JavaScript. An empty JSON body decodes to an empty lead.
func decodeLead(w http.ResponseWriter, r *http.Request) (Lead, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		var err error
		if mediaType == "multipart/form-data" {
			err = r.ParseMultipartForm(maxBodyBytes)
		} else {
			err = r.ParseForm()
		}
		if err != nil {
			return Lead{}, fmt.Errorf("%w: %v", ErrInvalidBody, err)
		}
		return Lead{
			Name:           r.PostFormValue(FieldName),
			Phone:          r.PostFormValue(FieldPhone),
			Email:          r.PostFormValue(FieldEmail),
			WaterHeaterAge: r.PostFormValue(FieldWaterHeaterAge),
			Condition:      r.PostFormValue(FieldCondition),
			ContactMethod:  r.PostFormValue(FieldContactMethod),
			Details:        r.PostFormValue(FieldDetails),
		}, nil
	}

	var lead Lead
	if err := json.NewDecoder(r.Body).Decode(&lead); err != nil {
		if errors.Is(err, io.EOF) {
			return Lead{}, nil
		}
		return Lead{}, fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	return lead, nil
}

// clientIP is the request's remote address without the port. Behind a
// trusted proxy RealIP has already applied forwarding headers.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func parseClient(header string) ClientInfo {
	if header == "" {
		return ClientInfo{}
	}
	ua := useragent.New(header)
	browser, version := ua.Browser()
	if version != "" {
		browser += " " + version
	}
	return ClientInfo{
		Browser: browser,
		OS:      ua.OS(),
		Mobile:  ua.Mobile(),
		Bot:     ua.Bot(),
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
