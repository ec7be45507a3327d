package events

import (
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	TypeRiskAssessed = "risk.assessed"
)

// BaseEvent carries the envelope fields shared by every event
type BaseEvent struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}

// NewBaseEvent creates a base event with a fresh ID and the current UTC time
func NewBaseEvent(eventType, source string) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    source,
		Timestamp: time.Now().UTC(),
	}
}
