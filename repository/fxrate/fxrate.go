// Package fxrate resolves conversion rates against the reference currency.
package fxrate

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"bikerental/model"
	"bikerental/util/metrics"
)

var ErrUnsupportedCurrency = errors.New("unsupported currency")

// RateScale is the number of decimal places a derived rate is rounded to.
const RateScale = 10

// Table holds "1 Base = Rates[X] X" quotes.
type Table struct {
	Base  string                     `json:"base"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

// Source fetches a fresh quote table from the upstream provider.
type Source interface {
	Latest(ctx context.Context, base string) (*Table, error)
}

type Cache interface {
	Get(ctx context.Context, key string) (*Table, bool, error)
	Set(ctx context.Context, key string, t *Table, ttl time.Duration) error
}

// Provider converts between currencies. asOf is accepted for callers that
// snapshot historic rates; the latest-rates source ignores it.
type Provider interface {
	Rate(ctx context.Context, from, to string, asOf time.Time) (decimal.Decimal, error)
}

type Option func(*provider)

func WithCache(c Cache) Option              { return func(p *provider) { p.cache = c } }
func WithTTL(d time.Duration) Option        { return func(p *provider) { p.ttl = d } }
func WithMetrics(m *metrics.Metrics) Option { return func(p *provider) { p.m = m } }
func WithLogger(l *slog.Logger) Option      { return func(p *provider) { p.log = l } }

type provider struct {
	src   Source
	cache Cache
	ttl   time.Duration
	group singleflight.Group
	m     *metrics.Metrics
	log   *slog.Logger
}

func New(src Source, opts ...Option) Provider {
	p := &provider{src: src, ttl: 30 * time.Minute, log: slog.Default()}
	for _, o := range opts {
		o(p)
	}
	if p.cache == nil {
		p.cache = NewMemoryCache(nil)
	}
	return p
}

func (p *provider) Rate(ctx context.Context, from, to string, _ time.Time) (decimal.Decimal, error) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	if from == to {
		p.count("identity")
		return decimal.NewFromInt(1), nil
	}

	t, err := p.table(ctx, model.ReferenceCurrency)
	if err != nil {
		p.count("error")
		return decimal.Zero, err
	}
	fromQ, ok := t.quote(from)
	if !ok {
		return decimal.Zero, ErrUnsupportedCurrency
	}
	toQ, ok := t.quote(to)
	if !ok {
		return decimal.Zero, ErrUnsupportedCurrency
	}
	return toQ.DivRound(fromQ, RateScale), nil
}

func (t *Table) quote(cur string) (decimal.Decimal, bool) {
	if cur == t.Base {
		return decimal.NewFromInt(1), true
	}
	q, ok := t.Rates[cur]
	if !ok || !q.IsPositive() {
		return decimal.Zero, false
	}
	return q, true
}

func cacheKey(base string) string { return "fx:latest:" + base }

func (p *provider) table(ctx context.Context, base string) (*Table, error) {
	key := cacheKey(base)
	if t, ok := p.cached(ctx, key); ok {
		p.count("cache")
		return t, nil
	}

	// singleflight collapses concurrent cache misses into one upstream fetch.
	v, err, _ := p.group.Do(key, func() (interface{}, error) {
		if t, ok := p.cached(ctx, key); ok {
			return t, nil
		}
		t, err := p.src.Latest(ctx, base)
		if err != nil {
			return nil, err
		}
		if err := p.cache.Set(ctx, key, t, p.ttl); err != nil {
			p.log.Warn("fx cache write failed", "key", key, "err", err)
		}
		p.count("provider")
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Table), nil
}

// cached treats cache errors as misses; the upstream stays the source of truth.
func (p *provider) cached(ctx context.Context, key string) (*Table, bool) {
	t, ok, err := p.cache.Get(ctx, key)
	if err != nil {
		p.log.Warn("fx cache read failed", "key", key, "err", err)
		return nil, false
	}
	return t, ok
}

func (p *provider) count(source string) {
	if p.m != nil {
		p.m.FXLookups.WithLabelValues(source).Inc()
	}
}
