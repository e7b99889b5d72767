package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/tomplumbs/landing-page/internal/config"
	"github.com/tomplumbs/landing-page/internal/leads"
	"github.com/tomplumbs/landing-page/internal/observability/metrics"
	"github.com/tomplumbs/landing-page/pkg/logging"
)

// Email kinds, used as metric labels and provider tags.
const (
	KindBusinessNotification = "business_notification"
	KindCustomerReceipt      = "customer_receipt"
)

var dispatchTracer = otel.Tracer("tomplumb.internal.notify.dispatcher")

// DispatchError reports which of the two emails failed. A nil field means
// that email was delivered to the provider.
type DispatchError struct {
	Notification error
	Receipt      error
}

func (e *DispatchError) Error() string {
	var parts []string
	if e.Notification != nil {
		parts = append(parts, "business notification: "+e.Notification.Error())
	}
	if e.Receipt != nil {
		parts = append(parts, "customer receipt: "+e.Receipt.Error())
	}
	return "notify: dispatch failed: " + strings.Join(parts, "; ")
}

func (e *DispatchError) Unwrap() []error {
	var errs []error
	if e.Notification != nil {
		errs = append(errs, e.Notification)
	}
	if e.Receipt != nil {
		errs = append(errs, e.Receipt)
	}
	return errs
}

// Dispatcher relays a lead as two emails: a notice to the business inbox and a
// receipt to the lead.
type Dispatcher struct {
	sender        EmailSender
	templater     *Templater
	businessEmail string
	businessName  string
	metrics       *metrics.LeadMetrics
	logger        *logging.Logger
}

// NewDispatcher wires a dispatcher from startup configuration. A nil sender
// puts it in disabled mode: Dispatch logs a warning and reports success.
func NewDispatcher(cfg *config.Config, sender EmailSender, m *metrics.LeadMetrics, logger *logging.Logger) (*Dispatcher, error) {
	if logger == nil {
		logger = logging.Default()
	}
	profile, err := ProfileFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	templater, err := NewTemplater(profile)
	if err != nil {
		return nil, err
	}
	return &Dispatcher{
		sender:        sender,
		templater:     templater,
		businessEmail: cfg.BusinessEmail,
		businessName:  profile.Name,
		metrics:       m,
		logger:        logger,
	}, nil
}

// Enabled reports whether a provider is configured.
func (d *Dispatcher) Enabled() bool {
	return d.sender != nil
}

// Dispatch renders and sends both emails concurrently. Both are always
// attempted; failures come back as a *DispatchError.
func (d *Dispatcher) Dispatch(ctx context.Context, sub leads.Submission) error {
	logger := d.logger.With("reference", sub.Reference)
	if d.sender == nil {
		logger.Warn("email provider not configured; skipping lead emails")
		return nil
	}

	var g errgroup.Group
	var noticeErr, receiptErr error
	g.Go(func() error {
		noticeErr = d.send(ctx, logger, KindBusinessNotification, sub, func() (EmailMessage, error) {
			doc, err := d.templater.BusinessNotification(sub)
			if err != nil {
				return EmailMessage{}, err
			}
			return EmailMessage{
				To:      d.businessEmail,
				ToName:  d.businessName,
				ReplyTo: sub.Lead.Email,
				Subject: doc.Subject,
				Body:    doc.Text,
				HTML:    doc.HTML,
				Tag:     KindBusinessNotification,
			}, nil
		})
		return noticeErr
	})
	g.Go(func() error {
		receiptErr = d.send(ctx, logger, KindCustomerReceipt, sub, func() (EmailMessage, error) {
			doc, err := d.templater.CustomerReceipt(sub)
			if err != nil {
				return EmailMessage{}, err
			}
			return EmailMessage{
				To:      sub.Lead.Email,
				ToName:  sub.Lead.Name,
				Subject: doc.Subject,
				Body:    doc.Text,
				HTML:    doc.HTML,
				Tag:     KindCustomerReceipt,
			}, nil
		})
		return receiptErr
	})
	// A plain Group does not cancel the sibling send, so both errors are
	// final once Wait returns.
	if err := g.Wait(); err != nil {
		return &DispatchError{Notification: noticeErr, Receipt: receiptErr}
	}
	return nil
}

func (d *Dispatcher) send(ctx context.Context, logger *logging.Logger, kind string, sub leads.Submission, build func() (EmailMessage, error)) (err error) {
	ctx, span := dispatchTracer.Start(ctx, "notify.dispatch."+kind, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("email.kind", kind),
		attribute.String("lead.reference", sub.Reference),
	)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notify: %s panicked: %v", kind, r)
		}
		d.metrics.ObserveEmailSend(kind, err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			logger.Error("lead email failed", "kind", kind, "error", err)
			return
		}
		logger.Info("lead email sent", "kind", kind)
	}()

	msg, err := build()
	if err != nil {
		return fmt.Errorf("notify: render %s: %w", kind, err)
	}
	if err := d.sender.Send(ctx, msg); err != nil {
		if errors.Is(err, ErrSendFailed) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrSendFailed, err)
	}
	return nil
}
