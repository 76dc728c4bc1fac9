// model/providerModel.go
package model

import "time"

// ProviderKind discriminates the parties of the marketplace. Corporations only
// offer bikes; students offer and rent; customers only rent.
type ProviderKind string

const (
	KindCorp     ProviderKind = "CORP"
	KindStudent  ProviderKind = "STUDENT"
	KindCustomer ProviderKind = "CUSTOMER"
)

type Provider struct {
	ID          string       `json:"id"`
	Kind        ProviderKind `json:"kind"`
	FullName    string       `json:"full_name,omitempty"`
	Email       string       `json:"email,omitempty"`
	CompanyName string       `json:"company_name,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

// CanRent reports whether the party may act as a renting customer.
func (p Provider) CanRent() bool {
	switch p.Kind {
	case KindStudent, KindCustomer:
		return true
	default:
		return false
	}
}

// DisplayName picks the kind-specific name field.
func (p Provider) DisplayName() string {
	if p.Kind == KindCorp {
		return p.CompanyName
	}
	return p.FullName
}
