// model/waitlistModel.go
package model

import "time"

// WaitingListEntry is a customer's place in a bike's queue. Entries leave the
// queue by being served (promoted) or cancelled; the row itself is kept so
// notifications can keep pointing at it.
type WaitingListEntry struct {
	ID            int64      `json:"id"`
	WaitingListID int64      `json:"waiting_list_id"`
	BikeID        int64      `json:"bike_id"`
	CustomerID    string     `json:"customer_id"`
	Days          int        `json:"days"`
	CreatedAt     time.Time  `json:"created_at"`
	ServedAt      *time.Time `json:"served_at,omitempty"`
	CancelledAt   *time.Time `json:"cancelled_at,omitempty"`
}

func (e WaitingListEntry) Open() bool { return e.ServedAt == nil && e.CancelledAt == nil }

type Notification struct {
	ID         int64     `json:"id"`
	EntryID    int64     `json:"entry_id"`
	CustomerID string    `json:"customer_id"`
	BikeID     int64     `json:"bike_id"`
	RentalID   int64     `json:"rental_id"`
	Message    string    `json:"message"`
	SentAt     time.Time `json:"sent_at"`
}
