package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomplumbs/landing-page/internal/observability/metrics"
)

func newTestDispatcher(t *testing.T, sender EmailSender) (*Dispatcher, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	d, err := NewDispatcher(testConfig(), sender, metrics.NewLeadMetrics(reg), nil)
	require.NoError(t, err)
	return d, reg
}

// emailSends reads tomplumb_email_sends_total for one kind/status pair.
func emailSends(t *testing.T, reg *prometheus.Registry, kind, status string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "tomplumb_email_sends_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range metric.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["kind"] == kind && labels["status"] == status {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestDispatch_SendsBothEmails(t *testing.T) {
	sender := &mockEmailSender{}
	d, _ := newTestDispatcher(t, sender)
	require.True(t, d.Enabled())

	err := d.Dispatch(context.Background(), testSubmission())
	require.NoError(t, err)

	notice, ok := sender.sentTo("leads@tomplumbs.com")
	require.True(t, ok, "expected business notification")
	assert.Equal(t, "jane@example.com", notice.ReplyTo)
	assert.Equal(t, KindBusinessNotification, notice.Tag)
	assert.Contains(t, notice.Subject, "Jane Doe")
	assert.NotEmpty(t, notice.HTML)
	assert.NotEmpty(t, notice.Body)

	receipt, ok := sender.sentTo("jane@example.com")
	require.True(t, ok, "expected customer receipt")
	assert.Empty(t, receipt.ReplyTo)
	assert.Equal(t, KindCustomerReceipt, receipt.Tag)
	assert.Equal(t, "Jane Doe", receipt.ToName)
}

func TestDispatch_ReceiptFailure(t *testing.T) {
	sender := &mockEmailSender{failOn: "jane@example.com"}
	d, reg := newTestDispatcher(t, sender)

	err := d.Dispatch(context.Background(), testSubmission())
	require.Error(t, err)

	var dispatchErr *DispatchError
	require.True(t, errors.As(err, &dispatchErr))
	assert.NoError(t, dispatchErr.Notification)
	assert.Error(t, dispatchErr.Receipt)
	assert.ErrorIs(t, err, ErrSendFailed)

	_, ok := sender.sentTo("leads@tomplumbs.com")
	assert.True(t, ok, "business notification should still be sent")

	assert.Equal(t, 1.0, emailSends(t, reg, KindCustomerReceipt, metrics.EmailStatusFailed))
	assert.Equal(t, 1.0, emailSends(t, reg, KindBusinessNotification, metrics.EmailStatusSent))
}

func TestDispatch_BothFail(t *testing.T) {
	sender := &mockEmailSender{callErr: errors.New("provider down")}
	d, _ := newTestDispatcher(t, sender)

	err := d.Dispatch(context.Background(), testSubmission())

	var dispatchErr *DispatchError
	require.True(t, errors.As(err, &dispatchErr))
	assert.Error(t, dispatchErr.Notification)
	assert.Error(t, dispatchErr.Receipt)
	assert.Contains(t, err.Error(), "business notification")
	assert.Contains(t, err.Error(), "customer receipt")
	assert.ErrorIs(t, err, ErrSendFailed)
}

func TestDispatch_DisabledWithoutSender(t *testing.T) {
	d, reg := newTestDispatcher(t, nil)
	assert.False(t, d.Enabled())

	err := d.Dispatch(context.Background(), testSubmission())
	assert.NoError(t, err)
	assert.Equal(t, 0.0, emailSends(t, reg, KindBusinessNotification, metrics.EmailStatusSent))
}

type panicSender struct{}

func (panicSender) Send(context.Context, EmailMessage) error { panic("boom") }

func TestDispatch_RecoversSenderPanic(t *testing.T) {
	d, _ := newTestDispatcher(t, panicSender{})

	err := d.Dispatch(context.Background(), testSubmission())

	var dispatchErr *DispatchError
	require.True(t, errors.As(err, &dispatchErr))
	assert.Contains(t, dispatchErr.Notification.Error(), "panicked")
}

// orderedSender fails the business notice, then lets the receipt through
// only after that failure has been returned.
type orderedSender struct {
	failed     chan struct{}
	receiptCtx error
	receiptTo  string
}

func (s *orderedSender) Send(ctx context.Context, msg EmailMessage) error {
	if msg.Tag == KindBusinessNotification {
		defer close(s.failed)
		return errors.New("inbox rejected")
	}
	<-s.failed
	s.receiptCtx = ctx.Err()
	s.receiptTo = msg.To
	return nil
}

func TestDispatch_FailedNoticeDoesNotCancelReceipt(t *testing.T) {
	sender := &orderedSender{failed: make(chan struct{})}
	d, reg := newTestDispatcher(t, sender)

	err := d.Dispatch(context.Background(), testSubmission())

	var dispatchErr *DispatchError
	require.True(t, errors.As(err, &dispatchErr))
	assert.ErrorContains(t, dispatchErr.Notification, "inbox rejected")
	assert.NoError(t, dispatchErr.Receipt)
	assert.NoError(t, sender.receiptCtx)
	assert.Equal(t, "jane@example.com", sender.receiptTo)
	assert.Equal(t, 1.0, emailSends(t, reg, KindCustomerReceipt, metrics.EmailStatusSent))
}
