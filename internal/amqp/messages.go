package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"ledger/internal/core"
)

// ActivityEvent announces a committed change. The worker stores it in the
// activity log; EventID makes redelivery harmless.
type ActivityEvent struct {
	EventID       string            `json:"eventId"`
	Kind          core.ActivityKind `json:"kind"`
	ActorID       int64             `json:"actorId"`
	OwnerID       int64             `json:"ownerId"`
	TransactionID int64             `json:"transactionId,omitempty"`
	BatchID       string            `json:"batchId,omitempty"`
	Count         int               `json:"count,omitempty"`
	Timestamp     time.Time         `json:"timestamp"`
}

// NewActivityEvent creates an event with a fresh id, stamped now.
func NewActivityEvent(kind core.ActivityKind, actorID, ownerID int64) *ActivityEvent {
	return &ActivityEvent{
		EventID:   uuid.NewString(),
		Kind:      kind,
		ActorID:   actorID,
		OwnerID:   ownerID,
		Timestamp: time.Now().UTC(),
	}
}

// Validate rejects events the worker cannot store.
func (e *ActivityEvent) Validate() error {
	switch {
	case e.EventID == "":
		return errors.New("event id is required")
	case !e.Kind.IsValid():
		return errors.New("unknown event kind " + string(e.Kind))
	case e.OwnerID <= 0:
		return errors.New("owner id is required")
	case e.Timestamp.IsZero():
		return errors.New("timestamp is required")
	}
	return nil
}

// Activity converts the event to its stored form.
func (e *ActivityEvent) Activity() core.Activity {
	return core.Activity{
		EventID:       e.EventID,
		Kind:          e.Kind,
		ActorID:       e.ActorID,
		OwnerID:       e.OwnerID,
		TransactionID: e.TransactionID,
		BatchID:       e.BatchID,
		Count:         e.Count,
		OccurredAt:    e.Timestamp,
	}
}

// ToJSON converts the message to JSON bytes
func (e *ActivityEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ActivityEventFromJSON decodes and validates an event.
func ActivityEventFromJSON(data []byte) (*ActivityEvent, error) {
	var e ActivityEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}
