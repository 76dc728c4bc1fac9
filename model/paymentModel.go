// model/paymentModel.go
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReferenceCurrency is the currency every stored total is expressed in.
const ReferenceCurrency = "EUR"

type PaymentStatus string

const (
	PaymentAuthorized     PaymentStatus = "AUTHORIZED"
	PaymentRequiresAction PaymentStatus = "REQUIRES_ACTION"
	PaymentFailed         PaymentStatus = "FAILED"
	PaymentPaid           PaymentStatus = "PAID"
)

// RentalPayment is one payment attempt. Rows are written once and never
// updated; a retry is a new row. The EUR rate and amount are null when no
// rate could be obtained.
type RentalPayment struct {
	ID               int64               `json:"id"`
	RentalID         int64               `json:"rental_id"`
	OriginalAmount   decimal.Decimal     `json:"original_amount"`
	OriginalCurrency string              `json:"original_currency"`
	FxRateToEur      decimal.NullDecimal `json:"fx_rate_to_eur"`
	AmountEur        decimal.NullDecimal `json:"amount_eur"`
	Status           PaymentStatus       `json:"status"`
	CreatedAt        time.Time           `json:"created_at"`
	PaidAt           *time.Time          `json:"paid_at,omitempty"`
	AuthorizationID  *string             `json:"authorization_id,omitempty"`
	PaymentID        *string             `json:"payment_id,omitempty"`
	FailureReason    *string             `json:"failure_reason,omitempty"`
}
