package payment

import "github.com/shopspring/decimal"

type PayReq struct {
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency" validate:"required,len=3,alpha"`
	PaymentMethodID string          `json:"payment_method_id" validate:"required,max=255"`
}
