package events

import (
	"context"
	"time"
)

const (
	SessionProcessed    = "SESSION_PROCESSED"
	SessionHighRisk     = "SESSION_HIGH_RISK"
	KnowledgeBaseSynced = "KNOWLEDGE_BASE_SYNCED"
)

// Event defines the contract for all domain events.
type Event interface {
	// EventType returns the event code, e.g. "SESSION_PROCESSED".
	EventType() string

	Payload() map[string]interface{}

	Timestamp() time.Time
}

// Publisher sends events to the bus.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// Payloads carry identifiers and markers only, never session text.

func NewSessionProcessedEvent(orgId, clientId string, degraded bool, riskLevel string) BaseEvent {
	return BaseEvent{
		Type: SessionProcessed,
		Data: map[string]interface{}{
			"org_id":     orgId,
			"client_id":  clientId,
			"degraded":   degraded,
			"risk_level": riskLevel,
		},
		OccurredAt: time.Now().UTC(),
	}
}

func NewSessionHighRiskEvent(orgId, clientId, riskLevel string, riskScore float64) BaseEvent {
	return BaseEvent{
		Type: SessionHighRisk,
		Data: map[string]interface{}{
			"org_id":     orgId,
			"client_id":  clientId,
			"risk_level": riskLevel,
			"risk_score": riskScore,
		},
		OccurredAt: time.Now().UTC(),
	}
}

func NewKnowledgeBaseSyncedEvent(orgId string, chunks int) BaseEvent {
	return BaseEvent{
		Type: KnowledgeBaseSynced,
		Data: map[string]interface{}{
			"org_id": orgId,
			"chunks": chunks,
		},
		OccurredAt: time.Now().UTC(),
	}
}

// NopPublisher drops events. Used when no bus is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

// RecordingPublisher keeps published events in memory.
type RecordingPublisher struct {
	Events []Event
}

func (r *RecordingPublisher) Publish(_ context.Context, event Event) error {
	r.Events = append(r.Events, event)
	return nil
}

// Types returns the event types in publish order.
func (r *RecordingPublisher) Types() []string {
	types := make([]string, len(r.Events))
	for i, e := range r.Events {
		types[i] = e.EventType()
	}
	return types
}
