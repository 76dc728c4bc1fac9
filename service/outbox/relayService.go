package outboxsvc

import (
	"context"
	"log/slog"
	"time"

	"bikerental/repository/broker"
	outboxrepo "bikerental/repository/outbox"
	"bikerental/util/metrics"
)

type Option func(*Relay)

func WithInterval(d time.Duration) Option   { return func(r *Relay) { r.interval = d } }
func WithBatchSize(n int) Option            { return func(r *Relay) { r.batch = n } }
func WithMetrics(m *metrics.Metrics) Option { return func(r *Relay) { r.m = m } }
func WithLogger(l *slog.Logger) Option      { return func(r *Relay) { r.log = l } }
func WithClock(now func() time.Time) Option { return func(r *Relay) { r.now = now } }
func WithPublishTimeout(d time.Duration) Option {
	return func(r *Relay) { r.publishTimeout = d }
}
func WithLease(d time.Duration) Option { return func(r *Relay) { r.lease = d } }

// Relay moves committed outbox messages to the broker. A message that fails to
// publish stays pending and is retried on the next tick, so consumers must
// tolerate duplicates.
type Relay struct {
	repo           outboxrepo.Repo
	pub            broker.Publisher
	interval       time.Duration
	batch          int
	publishTimeout time.Duration
	lease          time.Duration
	m              *metrics.Metrics
	log            *slog.Logger
	now            func() time.Time
}

func NewRelay(repo outboxrepo.Repo, pub broker.Publisher, opts ...Option) *Relay {
	r := &Relay{
		repo:           repo,
		pub:            pub,
		interval:       time.Second,
		batch:          100,
		publishTimeout: 5 * time.Second,
		log:            slog.Default(),
		now:            time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	if r.interval <= 0 {
		r.interval = time.Second
	}
	if r.batch <= 0 {
		r.batch = 100
	}
	return r
}

// Run relays until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()

	r.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.tick(ctx)
		}
	}
}

func (r *Relay) tick(ctx context.Context) {
	start := time.Now()
	published, failed, err := r.RelayOnce(ctx)
	if err != nil {
		if ctx.Err() == nil {
			r.log.ErrorContext(ctx, "outbox relay failed", "err", err)
		}
		return
	}
	if r.m != nil {
		if n, err := r.repo.PendingCount(ctx); err == nil {
			r.m.OutboxPending.Set(float64(n))
		}
	}
	if published > 0 || failed > 0 {
		r.log.InfoContext(ctx, "outbox relay",
			"op", "relay",
			"published", published,
			"failed", failed,
			"latency_ms", time.Since(start).Milliseconds(),
		)
	}
}

// RelayOnce leases one batch and publishes it in order. No transaction is
// open while the broker is called.
func (r *Relay) RelayOnce(ctx context.Context) (published, failed int, err error) {
	msgs, err := r.repo.Lease(ctx, r.batch, r.now(), r.leaseFor())
	if err != nil {
		return 0, 0, err
	}

	// a publish that went out must be recorded even during shutdown
	mctx := context.WithoutCancel(ctx)
	for _, m := range msgs {
		pctx, cancel := context.WithTimeout(ctx, r.publishTimeout)
		perr := r.pub.Publish(pctx, broker.Message{ID: m.ID, Topic: m.Topic, Key: m.Key, Payload: m.Payload})
		cancel()

		if perr != nil {
			failed++
			r.count("failed")
			r.log.WarnContext(ctx, "outbox publish failed", "outbox_id", m.ID, "topic", m.Topic, "attempts", m.Attempts+1, "err", perr)
			if err = r.repo.MarkFailed(mctx, m.ID, perr.Error()); err != nil {
				return published, failed, err
			}
			continue
		}
		published++
		r.count("published")
		if err = r.repo.MarkProcessed(mctx, m.ID, r.now()); err != nil {
			return published, failed, err
		}
	}
	return published, failed, nil
}

// leaseFor covers publishing a full batch, so a slow broker does not hand the
// same message to a second relay mid-batch.
func (r *Relay) leaseFor() time.Duration {
	if r.lease > 0 {
		return r.lease
	}
	return time.Duration(r.batch)*r.publishTimeout + time.Minute
}

func (r *Relay) count(result string) {
	if r.m != nil {
		r.m.OutboxRelayed.WithLabelValues(result).Inc()
	}
}
