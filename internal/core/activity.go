package core

import "time"

// ActivityKind names a change recorded in the activity log.
type ActivityKind string

const (
	ActivityTransactionCreated ActivityKind = "transaction.created"
	ActivityTransactionUpdated ActivityKind = "transaction.updated"
	ActivityTransactionDeleted ActivityKind = "transaction.deleted"
	ActivityImportCompleted    ActivityKind = "import.completed"
)

func (k ActivityKind) IsValid() bool {
	switch k {
	case ActivityTransactionCreated, ActivityTransactionUpdated, ActivityTransactionDeleted, ActivityImportCompleted:
		return true
	}
	return false
}

// Activity is one entry of the audit trail written by the activity worker.
type Activity struct {
	ID            int64        `json:"id"`
	EventID       string       `json:"eventId"`
	Kind          ActivityKind `json:"kind"`
	ActorID       int64        `json:"actorId"`
	OwnerID       int64        `json:"ownerId"`
	TransactionID int64        `json:"transactionId,omitempty"`
	BatchID       string       `json:"batchId,omitempty"`
	Count         int          `json:"count,omitempty"`
	OccurredAt    time.Time    `json:"occurredAt"`
	RecordedAt    time.Time    `json:"recordedAt"`
}
