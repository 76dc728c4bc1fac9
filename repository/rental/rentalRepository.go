// repository/rental/rentalRepository.go
package rentalrepo

import (
	"context"
	"database/sql"
	"time"

	"bikerental/model"
	"bikerental/util/database"
)

type Repo interface {
	// Rentals
	InsertRental(ctx context.Context, tx *sql.Tx, rt *model.Rental) (int64, error)
	LockRental(ctx context.Context, tx *sql.Tx, id int64) (*model.Rental, error)
	CloseRental(ctx context.Context, tx *sql.Tx, id int64, at time.Time) error
	Rental(ctx context.Context, id int64) (*model.Rental, error)
	ListByCustomer(ctx context.Context, customerID string) ([]model.Rental, error)

	// Waiting lists
	EnsureWaitingList(ctx context.Context, tx *sql.Tx, bikeID int64, now time.Time) (int64, error)
	HasOpenEntry(ctx context.Context, tx *sql.Tx, bikeID int64, customerID string) (bool, error)
	InsertEntry(ctx context.Context, tx *sql.Tx, e *model.WaitingListEntry) (int64, error)
	NextEntry(ctx context.Context, tx *sql.Tx, bikeID int64) (*model.WaitingListEntry, error)
	Entry(ctx context.Context, id int64) (*model.WaitingListEntry, error)
	LockEntry(ctx context.Context, tx *sql.Tx, id int64) (*model.WaitingListEntry, error)
	MarkServed(ctx context.Context, tx *sql.Tx, entryID int64, at time.Time) error
	MarkCancelled(ctx context.Context, tx *sql.Tx, entryID int64, at time.Time) error
	CancelOpenEntryOf(ctx context.Context, tx *sql.Tx, bikeID int64, customerID string, at time.Time) (int64, error)
	QueueDepth(ctx context.Context, tx *sql.Tx, bikeID int64) (int, error)
	OpenEntriesByCustomer(ctx context.Context, customerID string) ([]model.WaitingListEntry, error)

	// Return notes
	InsertReturnNote(ctx context.Context, tx *sql.Tx, n *model.ReturnNote) (int64, error)
}

type repo struct {
	db *database.DB
}

func New(db *database.DB) Repo { return &repo{db: db} }

type scanner interface{ Scan(dest ...any) error }

// Rentals

const selectRental = `
		SELECT id, bike_id, customer_id, status, days, start_at, end_at, total_amount_eur
		FROM rentals`

func scanRental(s scanner) (*model.Rental, error) {
	rt := &model.Rental{}
	var end sql.NullTime
	if err := s.Scan(&rt.ID, &rt.BikeID, &rt.CustomerID, &rt.Status, &rt.Days, &rt.StartAt, &end, &rt.TotalAmountEur); err != nil {
		return nil, err
	}
	if end.Valid {
		t := end.Time
		rt.EndAt = &t
	}
	return rt, nil
}

// InsertRental writes an ACTIVE rental. A second ACTIVE rental for the same bike
// trips the rentals_one_active_per_bike index.
func (r *repo) InsertRental(ctx context.Context, tx *sql.Tx, rt *model.Rental) (int64, error) {
	const q = `
		INSERT INTO rentals (bike_id, customer_id, status, days, start_at, total_amount_eur)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	var id int64
	err := tx.QueryRowContext(ctx, q,
		rt.BikeID, rt.CustomerID, rt.Status, rt.Days, rt.StartAt.UTC(), rt.TotalAmountEur.StringFixed(2),
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	rt.ID = id
	return id, nil
}

func (r *repo) LockRental(ctx context.Context, tx *sql.Tx, id int64) (*model.Rental, error) {
	return scanRental(tx.QueryRowContext(ctx, selectRental+`
		WHERE id = $1`+r.db.ForUpdate(), id))
}

// CloseRental only moves ACTIVE rentals; closing twice reports sql.ErrNoRows.
func (r *repo) CloseRental(ctx context.Context, tx *sql.Tx, id int64, at time.Time) error {
	const q = `
		UPDATE rentals
		SET status = 'CLOSED',
			end_at = $1
		WHERE id = $2
		AND status = 'ACTIVE'`
	res, err := tx.ExecContext(ctx, q, at.UTC(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *repo) Rental(ctx context.Context, id int64) (*model.Rental, error) {
	return scanRental(r.db.QueryRowContext(ctx, selectRental+`
		WHERE id = $1`, id))
}

func (r *repo) ListByCustomer(ctx context.Context, customerID string) ([]model.Rental, error) {
	rows, err := r.db.QueryContext(ctx, selectRental+`
		WHERE customer_id = $1
		ORDER BY start_at DESC, id DESC`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Rental
	for rows.Next() {
		rt, err := scanRental(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rt)
	}
	return out, rows.Err()
}

// Waiting lists

// EnsureWaitingList returns the bike's list id, creating the list on first use.
func (r *repo) EnsureWaitingList(ctx context.Context, tx *sql.Tx, bikeID int64, now time.Time) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, `
		SELECT id
		FROM waiting_lists
		WHERE bike_id = $1`, bikeID).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, err
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO waiting_lists (bike_id, created_at)
		VALUES ($1, $2)
		RETURNING id`, bikeID, now.UTC()).Scan(&id)
	return id, err
}

const selectEntry = `
		SELECT e.id, e.waiting_list_id, w.bike_id, e.customer_id, e.days, e.created_at, e.served_at, e.cancelled_at
		FROM waiting_list_entries e
		JOIN waiting_lists w ON w.id = e.waiting_list_id`

const openEntry = `e.served_at IS NULL
		AND e.cancelled_at IS NULL`

func scanEntry(s scanner) (*model.WaitingListEntry, error) {
	e := &model.WaitingListEntry{}
	var served, cancelled sql.NullTime
	if err := s.Scan(&e.ID, &e.WaitingListID, &e.BikeID, &e.CustomerID, &e.Days, &e.CreatedAt, &served, &cancelled); err != nil {
		return nil, err
	}
	if served.Valid {
		t := served.Time
		e.ServedAt = &t
	}
	if cancelled.Valid {
		t := cancelled.Time
		e.CancelledAt = &t
	}
	return e, nil
}

func (r *repo) HasOpenEntry(ctx context.Context, tx *sql.Tx, bikeID int64, customerID string) (bool, error) {
	var n int
	err := tx.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM waiting_list_entries e
		JOIN waiting_lists w ON w.id = e.waiting_list_id
		WHERE w.bike_id = $1
		AND e.customer_id = $2
		AND `+openEntry, bikeID, customerID).Scan(&n)
	return n > 0, err
}

func (r *repo) InsertEntry(ctx context.Context, tx *sql.Tx, e *model.WaitingListEntry) (int64, error) {
	const q = `
		INSERT INTO waiting_list_entries (waiting_list_id, customer_id, days, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	var id int64
	if err := tx.QueryRowContext(ctx, q, e.WaitingListID, e.CustomerID, e.Days, e.CreatedAt.UTC()).Scan(&id); err != nil {
		return 0, err
	}
	e.ID = id
	return id, nil
}

// NextEntry is the head of the bike's queue: oldest creation time, lowest id on
// ties. sql.ErrNoRows means the queue is empty.
func (r *repo) NextEntry(ctx context.Context, tx *sql.Tx, bikeID int64) (*model.WaitingListEntry, error) {
	return scanEntry(tx.QueryRowContext(ctx, selectEntry+`
		WHERE w.bike_id = $1
		AND `+openEntry+`
		ORDER BY e.created_at ASC, e.id ASC
		LIMIT 1`+r.db.ForUpdate(), bikeID))
}

func (r *repo) Entry(ctx context.Context, id int64) (*model.WaitingListEntry, error) {
	return scanEntry(r.db.QueryRowContext(ctx, selectEntry+`
		WHERE e.id = $1`, id))
}

func (r *repo) LockEntry(ctx context.Context, tx *sql.Tx, id int64) (*model.WaitingListEntry, error) {
	return scanEntry(tx.QueryRowContext(ctx, selectEntry+`
		WHERE e.id = $1`+r.db.ForUpdate(), id))
}

func (r *repo) MarkServed(ctx context.Context, tx *sql.Tx, entryID int64, at time.Time) error {
	return r.closeEntry(ctx, tx, "served_at", entryID, at)
}

func (r *repo) MarkCancelled(ctx context.Context, tx *sql.Tx, entryID int64, at time.Time) error {
	return r.closeEntry(ctx, tx, "cancelled_at", entryID, at)
}

func (r *repo) closeEntry(ctx context.Context, tx *sql.Tx, column string, entryID int64, at time.Time) error {
	q := `
		UPDATE waiting_list_entries
		SET ` + column + ` = $1
		WHERE id = $2
		AND served_at IS NULL
		AND cancelled_at IS NULL`
	res, err := tx.ExecContext(ctx, q, at.UTC(), entryID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CancelOpenEntryOf drops the customer's own pending entry for the bike, if
// any, and reports how many rows moved.
func (r *repo) CancelOpenEntryOf(ctx context.Context, tx *sql.Tx, bikeID int64, customerID string, at time.Time) (int64, error) {
	const q = `
		UPDATE waiting_list_entries
		SET cancelled_at = $1
		WHERE customer_id = $2
		AND served_at IS NULL
		AND cancelled_at IS NULL
		AND waiting_list_id IN (SELECT id FROM waiting_lists WHERE bike_id = $3)`
	res, err := tx.ExecContext(ctx, q, at.UTC(), customerID, bikeID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *repo) QueueDepth(ctx context.Context, tx *sql.Tx, bikeID int64) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM waiting_list_entries e
		JOIN waiting_lists w ON w.id = e.waiting_list_id
		WHERE w.bike_id = $1
		AND `+openEntry, bikeID).Scan(&n)
	return n, err
}

func (r *repo) OpenEntriesByCustomer(ctx context.Context, customerID string) ([]model.WaitingListEntry, error) {
	rows, err := r.db.QueryContext(ctx, selectEntry+`
		WHERE e.customer_id = $1
		AND `+openEntry+`
		ORDER BY e.created_at ASC, e.id ASC`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.WaitingListEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// Return notes

func (r *repo) InsertReturnNote(ctx context.Context, tx *sql.Tx, n *model.ReturnNote) (int64, error) {
	const q = `
		INSERT INTO return_notes (rental_id, author_id, comment, bike_condition, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	var id int64
	if err := tx.QueryRowContext(ctx, q, n.RentalID, n.AuthorID, n.Comment, n.Condition, n.CreatedAt.UTC()).Scan(&id); err != nil {
		return 0, err
	}
	n.ID = id
	return id, nil
}
