package catalogrepo

import (
	"context"
	"database/sql"

	"bikerental/model"
	"bikerental/util/database"
)

// Repo is the slice of the bike catalog the rental ledger depends on. Browsing
// and editing bikes belong to another service; CreateBike exists for seeding.
type Repo interface {
	CreateBike(ctx context.Context, b *model.Bike) (int64, error)
	Bike(ctx context.Context, id int64) (*model.Bike, error)
	List(ctx context.Context) ([]model.Bike, error)

	LockBike(ctx context.Context, tx *sql.Tx, id int64) (*model.Bike, error)
	SetStatus(ctx context.Context, tx *sql.Tx, id int64, st model.BikeStatus) error
}

type repo struct{ db *database.DB }

func New(db *database.DB) Repo { return &repo{db} }

func (r *repo) CreateBike(ctx context.Context, b *model.Bike) (int64, error) {
	const q = `
INSERT INTO bikes (description, status, provider_id, daily_rate_eur)
VALUES ($1, $2, $3, $4)
RETURNING id`
	if b.Status == "" {
		b.Status = model.BikeAvailable
	}
	var id int64
	if err := r.db.QueryRowContext(ctx, q, b.Description, b.Status, b.ProviderID, b.DailyRateEur.StringFixed(2)).Scan(&id); err != nil {
		return 0, err
	}
	b.ID = id
	return id, nil
}

const selectBike = `
	SELECT id, description, status, provider_id, daily_rate_eur
	FROM bikes
	WHERE id = $1`

func (r *repo) Bike(ctx context.Context, id int64) (*model.Bike, error) {
	return scanBike(r.db.QueryRowContext(ctx, selectBike, id))
}

func (r *repo) List(ctx context.Context) ([]model.Bike, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, description, status, provider_id, daily_rate_eur
	FROM bikes
	ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Bike
	for rows.Next() {
		b, err := scanBike(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// LockBike reads the bike inside tx, taking a row lock where the dialect has one.
func (r *repo) LockBike(ctx context.Context, tx *sql.Tx, id int64) (*model.Bike, error) {
	return scanBike(tx.QueryRowContext(ctx, selectBike+r.db.ForUpdate(), id))
}

func (r *repo) SetStatus(ctx context.Context, tx *sql.Tx, id int64, st model.BikeStatus) error {
	const q = `
		UPDATE bikes
		SET status = $1
		WHERE id = $2`
	res, err := tx.ExecContext(ctx, q, st, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

type scanner interface{ Scan(dest ...any) error }

func scanBike(s scanner) (*model.Bike, error) {
	b := &model.Bike{}
	if err := s.Scan(&b.ID, &b.Description, &b.Status, &b.ProviderID, &b.DailyRateEur); err != nil {
		return nil, err
	}
	return b, nil
}
