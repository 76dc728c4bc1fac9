package rentalsvc

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"bikerental/model"
	catalogrepo "bikerental/repository/catalog"
	notificationrepo "bikerental/repository/notification"
	providerrepo "bikerental/repository/provider"
	rentalrepo "bikerental/repository/rental"
	notificationsvc "bikerental/service/notification"
	"bikerental/util/apperr"
	"bikerental/util/database"
	"bikerental/util/keylock"
	"bikerental/util/metrics"
)

type RentResult struct {
	Outcome model.RentOutcome       `json:"result"`
	Rental  *model.Rental           `json:"rental,omitempty"`
	Entry   *model.WaitingListEntry `json:"entry,omitempty"`
}

type ReturnResult struct {
	Closed       *model.Rental       `json:"closed_rental"`
	Next         *model.Rental       `json:"next_rental,omitempty"`
	Notification *model.Notification `json:"notification,omitempty"`
}

type Service interface {
	// Rent creates an ACTIVE rental if the bike is free, otherwise queues the
	// customer behind the current renter.
	Rent(ctx context.Context, bikeID int64, customerID string, days int) (*RentResult, error)

	// ReturnBike closes an ACTIVE rental and hands the bike to the head of its
	// queue in the same transaction.
	ReturnBike(ctx context.Context, rentalID int64, authorID, comment, condition string) (*ReturnResult, error)

	CancelWaiting(ctx context.Context, entryID int64, customerID string) error

	MyRentals(ctx context.Context, customerID string) ([]model.Rental, error)
	MyNotifications(ctx context.Context, customerID string) ([]model.Notification, error)
	MyWaitlist(ctx context.Context, customerID string) ([]model.WaitingListEntry, error)
}

type Repos struct {
	Bikes         catalogrepo.Repo
	Customers     providerrepo.Repo
	Rentals       rentalrepo.Repo
	Notifications notificationrepo.Repo
}

type Option func(*service)

func WithClock(now func() time.Time) Option { return func(s *service) { s.now = now } }
func WithMetrics(m *metrics.Metrics) Option { return func(s *service) { s.m = m } }
func WithLogger(l *slog.Logger) Option      { return func(s *service) { s.log = l } }

type service struct {
	db     *database.DB
	r      Repos
	notify notificationsvc.Dispatcher
	locks  *keylock.Keyed
	now    func() time.Time
	m      *metrics.Metrics
	log    *slog.Logger
}

func New(db *database.DB, r Repos, notify notificationsvc.Dispatcher, opts ...Option) Service {
	s := &service{
		db:     db,
		r:      r,
		notify: notify,
		locks:  keylock.New(),
		now:    time.Now,
		log:    slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *service) Rent(ctx context.Context, bikeID int64, customerID string, days int) (res *RentResult, err error) {
	// accepted requests run to completion even if the caller goes away
	ctx = context.WithoutCancel(ctx)
	start := time.Now()
	defer func() {
		result := "error"
		if err == nil {
			result = string(res.Outcome)
		}
		s.observe(ctx, "rent", start, result, err, "bike_id", bikeID, "customer_id", customerID)
	}()

	if days < 1 {
		return nil, apperr.New(apperr.Validation, "days must be at least 1")
	}
	if _, err = s.renter(ctx, customerID); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(bikeID)
	defer unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, s.storageErr("rent", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	bike, err := s.r.Bikes.LockBike(ctx, tx, bikeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.New(apperr.NotFound, "bike %d not found", bikeID)
		}
		return nil, s.storageErr("rent", err)
	}
	now := s.now().UTC()

	if bike.Status == model.BikeAvailable {
		rt := &model.Rental{
			BikeID:         bike.ID,
			CustomerID:     customerID,
			Status:         model.RentalActive,
			Days:           days,
			StartAt:        now,
			TotalAmountEur: bike.TotalFor(days),
		}
		if _, err = s.r.Rentals.InsertRental(ctx, tx, rt); err != nil {
			return nil, s.storageErr("rent", err)
		}
		if err = s.r.Bikes.SetStatus(ctx, tx, bike.ID, model.BikeRented); err != nil {
			return nil, s.storageErr("rent", err)
		}
		if err = tx.Commit(); err != nil {
			return nil, s.storageErr("rent", err)
		}
		return &RentResult{Outcome: model.Rented, Rental: rt}, nil
	}

	listID, err := s.r.Rentals.EnsureWaitingList(ctx, tx, bike.ID, now)
	if err != nil {
		return nil, s.storageErr("rent", err)
	}
	waiting, err := s.r.Rentals.HasOpenEntry(ctx, tx, bike.ID, customerID)
	if err != nil {
		return nil, s.storageErr("rent", err)
	}
	if waiting {
		return nil, apperr.New(apperr.InvalidState, "customer is already in the waiting list for bike %d", bike.ID)
	}
	entry := &model.WaitingListEntry{
		WaitingListID: listID,
		BikeID:        bike.ID,
		CustomerID:    customerID,
		Days:          days,
		CreatedAt:     now,
	}
	if _, err = s.r.Rentals.InsertEntry(ctx, tx, entry); err != nil {
		return nil, s.storageErr("rent", err)
	}
	s.recordDepth(ctx, tx, bike.ID)
	if err = tx.Commit(); err != nil {
		return nil, s.storageErr("rent", err)
	}
	return &RentResult{Outcome: model.Waitlisted, Entry: entry}, nil
}

func (s *service) ReturnBike(ctx context.Context, rentalID int64, authorID, comment, condition string) (res *ReturnResult, err error) {
	ctx = context.WithoutCancel(ctx)
	start := time.Now()
	defer func() {
		result := "error"
		if err == nil {
			result = "closed"
			if res.Next != nil {
				result = "promoted"
			}
		}
		s.observe(ctx, "return", start, result, err, "rental_id", rentalID)
	}()

	current, err := s.r.Rentals.Rental(ctx, rentalID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.New(apperr.NotFound, "rental %d not found", rentalID)
		}
		return nil, s.storageErr("return", err)
	}
	if _, err = s.renter(ctx, authorID); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(current.BikeID)
	defer unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, s.storageErr("return", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	rt, err := s.r.Rentals.LockRental(ctx, tx, rentalID)
	if err != nil {
		return nil, s.storageErr("return", err)
	}
	if rt.Status != model.RentalActive {
		return nil, apperr.New(apperr.InvalidState, "only ACTIVE rentals can be returned")
	}
	bike, err := s.r.Bikes.LockBike(ctx, tx, rt.BikeID)
	if err != nil {
		return nil, s.storageErr("return", err)
	}

	now := s.now().UTC()
	if err = s.r.Rentals.CloseRental(ctx, tx, rt.ID, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.New(apperr.InvalidState, "only ACTIVE rentals can be returned")
		}
		return nil, s.storageErr("return", err)
	}
	rt.Status = model.RentalClosed
	rt.EndAt = &now

	note := &model.ReturnNote{
		RentalID:  rt.ID,
		AuthorID:  authorID,
		Comment:   comment,
		Condition: condition,
		CreatedAt: now,
	}
	if _, err = s.r.Rentals.InsertReturnNote(ctx, tx, note); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperr.New(apperr.InvalidState, "a return note already exists for rental %d", rt.ID)
		}
		return nil, s.storageErr("return", err)
	}

	// the renter cannot be promoted back onto the bike they just gave up
	if _, err = s.r.Rentals.CancelOpenEntryOf(ctx, tx, bike.ID, rt.CustomerID, now); err != nil {
		return nil, s.storageErr("return", err)
	}

	res = &ReturnResult{Closed: rt}
	next, err := s.r.Rentals.NextEntry(ctx, tx, bike.ID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		err = nil
		if err = s.r.Bikes.SetStatus(ctx, tx, bike.ID, model.BikeAvailable); err != nil {
			return nil, s.storageErr("return", err)
		}
	case err != nil:
		return nil, s.storageErr("return", err)
	default:
		// the bike stays RENTED: it passes straight to the next customer
		nextRental := &model.Rental{
			BikeID:         bike.ID,
			CustomerID:     next.CustomerID,
			Status:         model.RentalActive,
			Days:           next.Days,
			StartAt:        now,
			TotalAmountEur: bike.TotalFor(next.Days),
		}
		if _, err = s.r.Rentals.InsertRental(ctx, tx, nextRental); err != nil {
			return nil, s.storageErr("return", err)
		}
		if err = s.r.Rentals.MarkServed(ctx, tx, next.ID, now); err != nil {
			return nil, s.storageErr("return", err)
		}
		if bike.Status != model.BikeRented {
			if err = s.r.Bikes.SetStatus(ctx, tx, bike.ID, model.BikeRented); err != nil {
				return nil, s.storageErr("return", err)
			}
		}
		notification, nerr := s.notify.NotifyPromotion(ctx, tx, next, nextRental)
		if nerr != nil {
			err = s.storageErr("return", nerr)
			return nil, err
		}
		res.Next = nextRental
		res.Notification = notification
	}
	s.recordDepth(ctx, tx, bike.ID)

	if err = tx.Commit(); err != nil {
		return nil, s.storageErr("return", err)
	}
	return res, nil
}

func (s *service) CancelWaiting(ctx context.Context, entryID int64, customerID string) (err error) {
	ctx = context.WithoutCancel(ctx)
	start := time.Now()
	defer func() {
		result := "cancelled"
		if err != nil {
			result = "error"
		}
		s.observe(ctx, "cancel", start, result, err, "entry_id", entryID, "customer_id", customerID)
	}()

	e, err := s.r.Rentals.Entry(ctx, entryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.New(apperr.NotFound, "waiting list entry %d not found", entryID)
		}
		return s.storageErr("cancel", err)
	}
	// someone else's entry is reported as missing
	if e.CustomerID != customerID {
		return apperr.New(apperr.NotFound, "waiting list entry %d not found", entryID)
	}

	unlock := s.locks.Lock(e.BikeID)
	defer unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.storageErr("cancel", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	e, err = s.r.Rentals.LockEntry(ctx, tx, entryID)
	if err != nil {
		return s.storageErr("cancel", err)
	}
	if !e.Open() {
		return apperr.New(apperr.InvalidState, "waiting list entry %d is no longer queued", entryID)
	}
	if err = s.r.Rentals.MarkCancelled(ctx, tx, e.ID, s.now().UTC()); err != nil {
		return s.storageErr("cancel", err)
	}
	s.recordDepth(ctx, tx, e.BikeID)
	if err = tx.Commit(); err != nil {
		return s.storageErr("cancel", err)
	}
	return nil
}

func (s *service) MyRentals(ctx context.Context, customerID string) ([]model.Rental, error) {
	if _, err := s.renter(ctx, customerID); err != nil {
		return nil, err
	}
	rows, err := s.r.Rentals.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, s.storageErr("list", err)
	}
	return rows, nil
}

func (s *service) MyNotifications(ctx context.Context, customerID string) ([]model.Notification, error) {
	if _, err := s.renter(ctx, customerID); err != nil {
		return nil, err
	}
	rows, err := s.r.Notifications.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, s.storageErr("list", err)
	}
	return rows, nil
}

func (s *service) MyWaitlist(ctx context.Context, customerID string) ([]model.WaitingListEntry, error) {
	if _, err := s.renter(ctx, customerID); err != nil {
		return nil, err
	}
	rows, err := s.r.Rentals.OpenEntriesByCustomer(ctx, customerID)
	if err != nil {
		return nil, s.storageErr("list", err)
	}
	return rows, nil
}

// renter resolves a customer id to a party allowed to rent. Corporations only
// offer bikes, so they are reported as missing customers.
func (s *service) renter(ctx context.Context, customerID string) (*model.Provider, error) {
	if _, err := uuid.Parse(customerID); err != nil {
		return nil, apperr.New(apperr.Validation, "customer id must be a UUID")
	}
	p, err := s.r.Customers.ByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.New(apperr.NotFound, "customer %s not found", customerID)
		}
		return nil, s.storageErr("lookup", err)
	}
	if !p.CanRent() {
		return nil, apperr.New(apperr.NotFound, "customer %s not found", customerID)
	}
	return p, nil
}

// storageErr turns a tripped exclusivity fence or an exhausted lock wait into a
// Conflict the caller may resubmit.
func (s *service) storageErr(op string, err error) error {
	switch {
	case database.IsUniqueViolation(err):
		s.countConflict(op)
		return apperr.Wrap(apperr.Conflict, err, "concurrent update on the same bike, please retry")
	case database.IsBusy(err):
		s.countConflict(op)
		return apperr.Wrap(apperr.Conflict, err, "storage is busy, please retry")
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.Wrap(apperr.NotFound, err, "record not found")
	}
	return err
}

func (s *service) countConflict(op string) {
	if s.m != nil {
		s.m.ConflictTotal.WithLabelValues(op).Inc()
	}
}

func (s *service) recordDepth(ctx context.Context, tx *sql.Tx, bikeID int64) {
	if s.m == nil {
		return
	}
	n, err := s.r.Rentals.QueueDepth(ctx, tx, bikeID)
	if err != nil {
		s.log.WarnContext(ctx, "queue depth", "bike_id", bikeID, "err", err)
		return
	}
	s.m.QueueDepth.Observe(float64(n))
}

func (s *service) observe(ctx context.Context, op string, start time.Time, result string, err error, attrs ...any) {
	lat := time.Since(start)
	if s.m != nil {
		s.m.OpLatencyMS.WithLabelValues(op).Observe(float64(lat.Milliseconds()))
		switch op {
		case "rent":
			s.m.RentTotal.WithLabelValues(result).Inc()
		case "return":
			s.m.ReturnTotal.WithLabelValues(result).Inc()
		}
	}
	attrs = append(attrs, "op", op, "result", result, "latency_ms", lat.Milliseconds())
	if err != nil {
		attrs = append(attrs, "code", string(apperr.Code(err)), "err", err)
		if apperr.Code(err) == "" {
			s.log.ErrorContext(ctx, "rental op failed", attrs...)
			return
		}
	}
	s.log.InfoContext(ctx, "rental op", attrs...)
}
