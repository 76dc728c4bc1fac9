package notificationrepo

import (
	"context"
	"database/sql"

	"bikerental/model"
	"bikerental/util/database"
)

type Repo interface {
	Insert(ctx context.Context, tx *sql.Tx, n *model.Notification) (int64, error)
	ListByCustomer(ctx context.Context, customerID string) ([]model.Notification, error)
}

type repo struct{ db *database.DB }

func New(db *database.DB) Repo { return &repo{db} }

func (r *repo) Insert(ctx context.Context, tx *sql.Tx, n *model.Notification) (int64, error) {
	const q = `
INSERT INTO notifications (entry_id, customer_id, bike_id, rental_id, message, sent_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`
	var id int64
	if err := tx.QueryRowContext(ctx, q, n.EntryID, n.CustomerID, n.BikeID, n.RentalID, n.Message, n.SentAt.UTC()).Scan(&id); err != nil {
		return 0, err
	}
	n.ID = id
	return id, nil
}

func (r *repo) ListByCustomer(ctx context.Context, customerID string) ([]model.Notification, error) {
	const q = `
	SELECT id, entry_id, customer_id, bike_id, rental_id, message, sent_at
	FROM notifications
	WHERE customer_id = $1
	ORDER BY sent_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.EntryID, &n.CustomerID, &n.BikeID, &n.RentalID, &n.Message, &n.SentAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
