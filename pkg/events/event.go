package events

import "time"

// Domain event types.
const (
	TypeTurnFinalized     = "TURN_FINALIZED"
	TypeExchangeFailed    = "EXCHANGE_FAILED"
	TypeLearningTriggered = "LEARNING_TRIGGERED"
	TypeDiagnosticSaved   = "DIAGNOSTIC_SAVED"
	TypeFeedbackSubmitted = "FEEDBACK_SUBMITTED"
)

// Event defines the contract for all domain events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "TURN_FINALIZED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	OccurredAt time.Time              `json:"occurred_at"`
}

func New(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now().UTC(),
	}
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
