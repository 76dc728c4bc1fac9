package notificationsvc

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"bikerental/model"
	notificationrepo "bikerental/repository/notification"
	outboxrepo "bikerental/repository/outbox"
)

// Dispatcher tells a promoted customer that their rental exists. The record and
// its outbox event are written in the caller's transaction; delivery happens
// when the relay publishes the event.
type Dispatcher interface {
	NotifyPromotion(ctx context.Context, tx *sql.Tx, entry *model.WaitingListEntry, rental *model.Rental) (*model.Notification, error)
}

type Option func(*dispatcher)

func WithClock(now func() time.Time) Option { return func(d *dispatcher) { d.now = now } }
func WithLogger(l *slog.Logger) Option      { return func(d *dispatcher) { d.log = l } }
func WithTopic(topic string) Option         { return func(d *dispatcher) { d.topic = topic } }

type dispatcher struct {
	n     notificationrepo.Repo
	o     outboxrepo.Repo
	now   func() time.Time
	log   *slog.Logger
	topic string
}

func New(n notificationrepo.Repo, o outboxrepo.Repo, opts ...Option) Dispatcher {
	d := &dispatcher{n: n, o: o, now: time.Now, log: slog.Default(), topic: model.TopicRentalPromoted}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func PromotionMessage(bikeID int64) string {
	return fmt.Sprintf("Bike %d is now available. A rental has been created for you.", bikeID)
}

func (d *dispatcher) NotifyPromotion(ctx context.Context, tx *sql.Tx, entry *model.WaitingListEntry, rental *model.Rental) (*model.Notification, error) {
	n := &model.Notification{
		EntryID:    entry.ID,
		CustomerID: entry.CustomerID,
		BikeID:     rental.BikeID,
		RentalID:   rental.ID,
		Message:    PromotionMessage(rental.BikeID),
		SentAt:     d.now().UTC(),
	}
	if _, err := d.n.Insert(ctx, tx, n); err != nil {
		return nil, fmt.Errorf("insert notification: %w", err)
	}

	ev := model.PromotionEvent{
		NotificationID: n.ID,
		EntryID:        n.EntryID,
		CustomerID:     n.CustomerID,
		BikeID:         n.BikeID,
		RentalID:       n.RentalID,
		Message:        n.Message,
		SentAt:         n.SentAt,
	}
	outboxID, err := d.o.Insert(ctx, tx, d.topic, n.CustomerID, ev, n.SentAt)
	if err != nil {
		return nil, fmt.Errorf("insert outbox event: %w", err)
	}

	d.log.InfoContext(ctx, "promotion notification recorded",
		"notification_id", n.ID,
		"customer_id", n.CustomerID,
		"bike_id", n.BikeID,
		"rental_id", n.RentalID,
		"outbox_id", strconv.FormatInt(outboxID, 10),
	)
	return n, nil
}
