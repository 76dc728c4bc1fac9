// model/rentalModel.go
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type RentalStatus string

const (
	RentalActive RentalStatus = "ACTIVE"
	RentalClosed RentalStatus = "CLOSED"
)

type Rental struct {
	ID             int64           `json:"id"`
	BikeID         int64           `json:"bike_id"`
	CustomerID     string          `json:"customer_id"`
	Status         RentalStatus    `json:"status"`
	Days           int             `json:"days"`
	StartAt        time.Time       `json:"start_at"`
	EndAt          *time.Time      `json:"end_at,omitempty"`
	TotalAmountEur decimal.Decimal `json:"total_amount_eur"`
}

// ReturnNote is the audit record left when a rental is closed.
type ReturnNote struct {
	ID        int64     `json:"id"`
	RentalID  int64     `json:"rental_id"`
	AuthorID  string    `json:"author_id"`
	Comment   string    `json:"comment"`
	Condition string    `json:"condition"`
	CreatedAt time.Time `json:"created_at"`
}

// RentOutcome tells whether a rent request produced a rental or a queue entry.
type RentOutcome string

const (
	Rented     RentOutcome = "RENTED"
	Waitlisted RentOutcome = "WAITLISTED"
)
