package paymentrepo

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"

	"bikerental/model"
	"bikerental/util/database"
)

// Repo stores payment attempts. There is no update path: each attempt is one
// row written with its final status.
type Repo interface {
	Insert(ctx context.Context, p *model.RentalPayment) (int64, error)
	ListByRental(ctx context.Context, rentalID int64) ([]model.RentalPayment, error)
}

type repo struct{ db *database.DB }

func New(db *database.DB) Repo { return &repo{db} }

func (r *repo) Insert(ctx context.Context, p *model.RentalPayment) (int64, error) {
	const q = `
INSERT INTO rental_payments (rental_id, original_amount, original_currency, fx_rate_to_eur, amount_eur,
	status, created_at, paid_at, authorization_id, payment_id, failure_reason)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING id`
	var paidAt sql.NullTime
	if p.PaidAt != nil {
		paidAt = sql.NullTime{Time: p.PaidAt.UTC(), Valid: true}
	}
	var id int64
	err := r.db.QueryRowContext(ctx, q,
		p.RentalID, p.OriginalAmount.String(), p.OriginalCurrency, nullDecimal(p.FxRateToEur, -1), nullDecimal(p.AmountEur, 2),
		p.Status, p.CreatedAt.UTC(), paidAt, nullString(p.AuthorizationID), nullString(p.PaymentID), nullString(p.FailureReason),
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	p.ID = id
	return id, nil
}

func (r *repo) ListByRental(ctx context.Context, rentalID int64) ([]model.RentalPayment, error) {
	const q = `
SELECT id, rental_id, original_amount, original_currency, fx_rate_to_eur, amount_eur,
	status, created_at, paid_at, authorization_id, payment_id, failure_reason
FROM rental_payments
WHERE rental_id = $1
ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, rentalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RentalPayment
	for rows.Next() {
		var (
			p                     model.RentalPayment
			paidAt                sql.NullTime
			authID, payID, reason sql.NullString
		)
		if err := rows.Scan(
			&p.ID, &p.RentalID, &p.OriginalAmount, &p.OriginalCurrency, &p.FxRateToEur, &p.AmountEur,
			&p.Status, &p.CreatedAt, &paidAt, &authID, &payID, &reason,
		); err != nil {
			return nil, err
		}
		if paidAt.Valid {
			t := paidAt.Time
			p.PaidAt = &t
		}
		p.AuthorizationID = ptr(authID)
		p.PaymentID = ptr(payID)
		p.FailureReason = ptr(reason)
		out = append(out, p)
	}
	return out, rows.Err()
}

// nullDecimal stores d as text, fixed to places decimals unless places < 0.
func nullDecimal(d decimal.NullDecimal, places int32) sql.NullString {
	if !d.Valid {
		return sql.NullString{}
	}
	if places < 0 {
		return sql.NullString{String: d.Decimal.String(), Valid: true}
	}
	return sql.NullString{String: d.Decimal.StringFixed(places), Valid: true}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func ptr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
