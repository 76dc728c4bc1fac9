package outboxrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"bikerental/model"
	"bikerental/util/database"
)

type Repo interface {
	// Insert records event in the caller's transaction.
	Insert(ctx context.Context, tx *sql.Tx, topic, key string, event any, now time.Time) (int64, error)
	// Lease hands out up to limit unprocessed messages, oldest first, and hides
	// them from other callers until now+holdFor. The claim commits before
	// returning, so no transaction stays open while the caller publishes.
	Lease(ctx context.Context, limit int, now time.Time, holdFor time.Duration) ([]model.OutboxMessage, error)
	// MarkProcessed and MarkFailed end a lease. A failed message is due again
	// immediately.
	MarkProcessed(ctx context.Context, id int64, at time.Time) error
	MarkFailed(ctx context.Context, id int64, reason string) error
	PendingCount(ctx context.Context) (int, error)
}

type repo struct{ db *database.DB }

func New(db *database.DB) Repo { return &repo{db} }

func (r *repo) Insert(ctx context.Context, tx *sql.Tx, topic, key string, event any, now time.Time) (int64, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return 0, err
	}
	const q = `
INSERT INTO outbox_messages (topic, msg_key, payload, created_at)
VALUES ($1, $2, $3, $4)
RETURNING id`
	var id int64
	if err := tx.QueryRowContext(ctx, q, topic, key, string(payload), now.UTC()).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repo) Lease(ctx context.Context, limit int, now time.Time, holdFor time.Duration) (out []model.OutboxMessage, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now = now.UTC()
	q := `
	SELECT id, topic, msg_key, payload, created_at, attempts
	FROM outbox_messages
	WHERE processed_at IS NULL
	  AND (lease_until IS NULL OR lease_until <= $1)
	ORDER BY created_at, id
	LIMIT $2` + r.db.SkipLocked()
	rows, err := tx.QueryContext(ctx, q, now, limit)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var m model.OutboxMessage
		var payload []byte
		if err = rows.Scan(&m.ID, &m.Topic, &m.Key, &payload, &m.CreatedAt, &m.Attempts); err != nil {
			rows.Close()
			return nil, err
		}
		m.Payload = json.RawMessage(payload)
		out = append(out, m)
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return nil, err
	}

	until := now.Add(holdFor)
	for _, m := range out {
		if _, err = tx.ExecContext(ctx, `
			UPDATE outbox_messages
			SET lease_until = $1
			WHERE id = $2`, until, m.ID); err != nil {
			return nil, err
		}
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repo) MarkProcessed(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE outbox_messages
		SET processed_at = $1,
			lease_until = NULL,
			attempts = attempts + 1,
			last_error = NULL
		WHERE id = $2`, at.UTC(), id)
	return err
}

func (r *repo) MarkFailed(ctx context.Context, id int64, reason string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE outbox_messages
		SET attempts = attempts + 1,
			lease_until = NULL,
			last_error = $1
		WHERE id = $2`, reason, id)
	return err
}

func (r *repo) PendingCount(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM outbox_messages
		WHERE processed_at IS NULL`).Scan(&n)
	return n, err
}
