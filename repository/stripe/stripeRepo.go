package striperepo

import (
	"context"

	"github.com/shopspring/decimal"
)

// Raw PaymentIntent statuses the orchestrator maps onto payment statuses.
const (
	StatusRequiresCapture = "requires_capture"
	StatusRequiresAction  = "requires_action"
	StatusSucceeded       = "succeeded"
)

type AuthorizeReq struct {
	Currency      string
	Amount        decimal.Decimal
	PaymentMethod string
	Reference     string
}

type AuthorizeResp struct {
	AuthorizationID string
	Status          string
}

type CaptureResp struct {
	PaymentID string
	Status    string
}

// Repo talks to the card processor. Errors are transport or API failures; a
// declined or unfinished intent comes back as a status, not an error.
type Repo interface {
	Authorize(ctx context.Context, req AuthorizeReq) (*AuthorizeResp, error)
	Capture(ctx context.Context, authorizationID string) (*CaptureResp, error)
}
