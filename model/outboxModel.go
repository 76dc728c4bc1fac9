// model/outboxModel.go
package model

import (
	"encoding/json"
	"time"
)

const TopicRentalPromoted = "rental.promoted"

// OutboxMessage is an event recorded in the same transaction as the state change
// it describes and handed to the broker later by the relay.
type OutboxMessage struct {
	ID          int64           `json:"id"`
	Topic       string          `json:"topic"`
	Key         string          `json:"key"`
	Payload     json.RawMessage `json:"payload"`
	CreatedAt   time.Time       `json:"created_at"`
	ProcessedAt *time.Time      `json:"processed_at,omitempty"`
	Attempts    int             `json:"attempts"`
}

// PromotionEvent is the payload published when a waiting customer is handed a
// rental.
type PromotionEvent struct {
	NotificationID int64     `json:"notification_id"`
	EntryID        int64     `json:"entry_id"`
	CustomerID     string    `json:"customer_id"`
	BikeID         int64     `json:"bike_id"`
	RentalID       int64     `json:"rental_id"`
	Message        string    `json:"message"`
	SentAt         time.Time `json:"sent_at"`
}
