package service

import (
	"context"

	"clinical-intelligence-be/internal/pkg/logger"
	"clinical-intelligence-be/pkg/events"
	pktNats "clinical-intelligence-be/pkg/nats"
)

// EventSubscriber registers durable handlers for one event type.
type EventSubscriber interface {
	Subscribe(ctx context.Context, eventType, durableName string, handler pktNats.EventHandler) error
}

// AlertDelivery pushes an alert to the organization's connected clinicians.
type AlertDelivery interface {
	Deliver(orgId string, event events.Event)
}

// AlertService writes high-risk session alerts to the audit trail and forwards
// them to live connections.
type AlertService struct {
	subscriber  EventSubscriber
	delivery    AlertDelivery
	auditLogger logger.ILogger
	logger      logger.ILogger
}

// NewAlertService accepts a nil delivery.
func NewAlertService(sub EventSubscriber, delivery AlertDelivery, auditLog, log logger.ILogger) *AlertService {
	return &AlertService{
		subscriber:  sub,
		delivery:    delivery,
		auditLogger: auditLog,
		logger:      log,
	}
}

func (s *AlertService) Start(ctx context.Context) error {
	if err := s.subscriber.Subscribe(ctx, events.SessionHighRisk, "clinical-alert-worker", s.handleEvent); err != nil {
		s.logger.Error("ALERT", "Failed to start alert subscriber", map[string]interface{}{"error": err.Error()})
		return err
	}
	s.logger.Info("ALERT", "Alert service started", nil)
	return nil
}

func (s *AlertService) handleEvent(_ context.Context, event events.Event) error {
	details := map[string]interface{}{"occurred_at": event.Timestamp()}
	for k, v := range event.Payload() {
		details[k] = v
	}
	s.auditLogger.Warn("ALERT", "High-risk session flagged", details)

	if orgId, _ := event.Payload()["org_id"].(string); orgId != "" && s.delivery != nil {
		s.delivery.Deliver(orgId, event)
	}
	return nil
}
