package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alltechdigital/leads-api/internal/leads"
	"github.com/alltechdigital/leads-api/internal/observability/metrics"
	"github.com/alltechdigital/leads-api/pkg/logging"
)

// Service sends the two lead notification emails: the alert to the assigned
// representative and the confirmation to the submitter.
type Service struct {
	sender  EmailSender
	logger  *logging.Logger
	metrics *metrics.ContactMetrics
	now     func() time.Time
}

// NewService creates a notification service. metrics may be nil.
func NewService(sender EmailSender, logger *logging.Logger, m *metrics.ContactMetrics) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{sender: sender, logger: logger, metrics: m, now: time.Now}
}

// SendLeadNotifications sends both emails, rep alert first. A failure on one
// does not stop the other; the combined error reports what failed. Intended
// to run detached from the request that created the lead.
func (s *Service) SendLeadNotifications(ctx context.Context, payload leads.NotificationPayload) error {
	if s.sender == nil {
		s.logger.Warn("email sender not configured, skipping notifications", "lead_id", payload.LeadID)
		return nil
	}

	var firstErr error
	if err := s.send(ctx, leads.OutboxKindSalesAlert, payload); err != nil {
		firstErr = err
	}
	if err := s.send(ctx, leads.OutboxKindClientConfirmation, payload); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// send renders and dispatches one notification kind.
func (s *Service) send(ctx context.Context, kind string, payload leads.NotificationPayload) error {
	var (
		msg EmailMessage
		err error
	)
	switch kind {
	case leads.OutboxKindSalesAlert:
		msg, err = RenderSalesAlert(payload, s.now())
	case leads.OutboxKindClientConfirmation:
		msg, err = RenderClientConfirmation(payload, s.now())
	default:
		return fmt.Errorf("notify: unknown notification kind %q", kind)
	}
	if err != nil {
		s.metrics.ObserveEmail(kind, "failed")
		return err
	}

	if err := s.sender.Send(ctx, msg); err != nil {
		s.metrics.ObserveEmail(kind, "failed")
		s.logger.Error("notification send failed", "error", err, "kind", kind, "lead_id", payload.LeadID)
		return err
	}

	s.metrics.ObserveEmail(kind, "sent")
	s.logger.Info("notification sent", "kind", kind, "to", msg.To, "lead_id", payload.LeadID)
	return nil
}

// HandleOutboxEntry delivers a single queued notification. Satisfies the
// outbox Deliverer's handler contract.
func (s *Service) HandleOutboxEntry(ctx context.Context, entry OutboxEntry) error {
	var payload leads.NotificationPayload
	if err := json.Unmarshal(entry.Payload, &payload); err != nil {
		return fmt.Errorf("notify: decode outbox payload: %w", err)
	}
	return s.send(ctx, entry.Kind, payload)
}
