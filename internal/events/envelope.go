package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventEnvelope wraps every published payload. The partition key is the
// order id so consumers can keep per-order ordering.
type EventEnvelope[T any] struct {
	EventName     string    `json:"eventName"`
	EventVersion  int       `json:"eventVersion"`
	EventID       string    `json:"eventId"`
	CorrelationID string    `json:"correlationId,omitempty"`
	Producer      string    `json:"producer"`
	PartitionKey  string    `json:"partitionKey"`
	OccurredAt    time.Time `json:"occurredAt"`
	Payload       T         `json:"payload"`
}

func envelope[T any](name, producer, key, correlationID string, now time.Time, payload T) EventEnvelope[T] {
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	return EventEnvelope[T]{
		EventName:     name,
		EventVersion:  eventVersion,
		EventID:       uuid.NewString(),
		CorrelationID: correlationID,
		Producer:      producer,
		PartitionKey:  key,
		OccurredAt:    now.UTC(),
		Payload:       payload,
	}
}

// Check reports whether the envelope is a current-version name event.
func (e EventEnvelope[T]) Check(name string) error {
	switch {
	case e.EventName != name:
		return fmt.Errorf("event %s: got %q", name, e.EventName)
	case e.EventVersion != eventVersion:
		return fmt.Errorf("event %s: version %d not supported", name, e.EventVersion)
	case e.EventID == "" || e.PartitionKey == "":
		return fmt.Errorf("event %s: missing id or partition key", name)
	}
	return nil
}

// Decode parses a message body and checks it is a name event.
func Decode[T any](body []byte, name string) (EventEnvelope[T], error) {
	var env EventEnvelope[T]
	if err := json.Unmarshal(body, &env); err != nil {
		return env, fmt.Errorf("decode %s: %w", name, err)
	}
	return env, env.Check(name)
}
