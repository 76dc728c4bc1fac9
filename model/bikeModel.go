// model/bikeModel.go
package model

import "github.com/shopspring/decimal"

type BikeStatus string

const (
	BikeAvailable BikeStatus = "AVAILABLE"
	BikeRented    BikeStatus = "RENTED"
)

type Bike struct {
	ID           int64           `json:"id"`
	Description  string          `json:"description"`
	Status       BikeStatus      `json:"status"`
	ProviderID   string          `json:"provider_id"`
	DailyRateEur decimal.Decimal `json:"daily_rate_eur"`
}

// TotalFor prices a rental of the given length.
func (b Bike) TotalFor(days int) decimal.Decimal {
	return b.DailyRateEur.Mul(decimal.NewFromInt(int64(days)))
}
