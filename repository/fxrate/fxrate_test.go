package fxrate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"bikerental/util/metrics"
)

type fakeSource struct {
	hits  atomic.Int32
	table *Table
	err   error
	delay time.Duration
}

func (f *fakeSource) Latest(ctx context.Context, base string) (*Table, error) {
	f.hits.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.table, nil
}

func eurTable() *Table {
	return &Table{Base: "EUR", Rates: map[string]decimal.Decimal{
		"USD": decimal.RequireFromString("1.25"),
		"GBP": decimal.RequireFromString("0.8"),
		"JPY": decimal.RequireFromString("3"),
	}}
}

func TestRate_SameCurrencyIsOneWithoutFetch(t *testing.T) {
	src := &fakeSource{table: eurTable()}
	p := New(src)

	r, err := p.Rate(context.Background(), "eur", "EUR", time.Now())
	require.NoError(t, err)
	require.True(t, r.Equal(decimal.NewFromInt(1)))
	require.EqualValues(t, 0, src.hits.Load())
}

func TestRate_InvertsReferenceQuote(t *testing.T) {
	p := New(&fakeSource{table: eurTable()})

	r, err := p.Rate(context.Background(), "USD", "EUR", time.Now())
	require.NoError(t, err)
	require.Equal(t, "0.8", r.String())

	// 1/3 at ten places, half up
	r, err = p.Rate(context.Background(), "JPY", "EUR", time.Now())
	require.NoError(t, err)
	require.Equal(t, "0.3333333333", r.String())

	// cross rate via the reference currency
	r, err = p.Rate(context.Background(), "GBP", "USD", time.Now())
	require.NoError(t, err)
	require.Equal(t, "1.5625", r.String())
}

func TestRate_UnsupportedCurrency(t *testing.T) {
	p := New(&fakeSource{table: eurTable()})
	_, err := p.Rate(context.Background(), "XXX", "EUR", time.Now())
	require.ErrorIs(t, err, ErrUnsupportedCurrency)
}

func TestRate_SourceFailure(t *testing.T) {
	boom := errors.New("upstream down")
	p := New(&fakeSource{err: boom})
	_, err := p.Rate(context.Background(), "USD", "EUR", time.Now())
	require.ErrorIs(t, err, boom)
}

func TestRate_CachesForTTL(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	src := &fakeSource{table: eurTable()}
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	p := New(src, WithCache(NewMemoryCache(clock)), WithTTL(30*time.Minute), WithMetrics(m))

	for i := 0; i < 3; i++ {
		_, err := p.Rate(context.Background(), "USD", "EUR", now)
		require.NoError(t, err)
	}
	require.EqualValues(t, 1, src.hits.Load())
	require.Equal(t, 2.0, testutil.ToFloat64(m.FXLookups.WithLabelValues("cache")))

	now = now.Add(31 * time.Minute)
	_, err := p.Rate(context.Background(), "USD", "EUR", now)
	require.NoError(t, err)
	require.EqualValues(t, 2, src.hits.Load())
}

func TestRate_ConcurrentMissesCollapse(t *testing.T) {
	src := &fakeSource{table: eurTable(), delay: 100 * time.Millisecond}
	p := New(src)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.Rate(context.Background(), "USD", "EUR", time.Now())
			require.NoError(t, err)
		}()
	}
	wg.Wait()
	require.EqualValues(t, 1, src.hits.Load())
}

func TestHTTPSource_Latest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v6/key123/latest/EUR", r.URL.Path)
		_, _ = w.Write([]byte(`{"result":"success","base_code":"EUR","conversion_rates":{"EUR":1,"USD":1.0870}}`))
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL+"/v6", "key123", srv.Client())
	tbl, err := src.Latest(context.Background(), "EUR")
	require.NoError(t, err)
	require.Equal(t, "EUR", tbl.Base)
	require.True(t, tbl.Rates["USD"].Equal(decimal.RequireFromString("1.087")))
}

func TestHTTPSource_ErrorResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":"error","error-type":"invalid-key"}`))
	}))
	defer srv.Close()

	_, err := NewHTTPSource(srv.URL, "bad", srv.Client()).Latest(context.Background(), "EUR")
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid-key")
}

func TestRedisCache(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewRedisCache(db)
	ctx := context.Background()
	tbl := eurTable()
	payload, err := json.Marshal(tbl)
	require.NoError(t, err)

	mock.ExpectGet("fx:latest:EUR").RedisNil()
	mock.ExpectSet("fx:latest:EUR", string(payload), 30*time.Minute).SetVal("OK")
	mock.ExpectGet("fx:latest:EUR").SetVal(string(payload))

	_, ok, err := c.Get(ctx, "fx:latest:EUR")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, c.Set(ctx, "fx:latest:EUR", tbl, 30*time.Minute))

	got, ok, err := c.Get(ctx, "fx:latest:EUR")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, got.Rates["GBP"].Equal(decimal.RequireFromString("0.8")))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRate_RedisErrorFallsBackToSource(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectGet("fx:latest:EUR").SetErr(errors.New("connection refused"))
	mock.ExpectGet("fx:latest:EUR").SetErr(errors.New("connection refused"))
	mock.ExpectSet("fx:latest:EUR", mustJSON(t, eurTable()), 30*time.Minute).SetErr(errors.New("connection refused"))

	src := &fakeSource{table: eurTable()}
	p := New(src, WithCache(NewRedisCache(db)))

	r, err := p.Rate(context.Background(), "USD", "EUR", time.Now())
	require.NoError(t, err)
	require.Equal(t, "0.8", r.String())
	require.EqualValues(t, 1, src.hits.Load())
	require.NoError(t, mock.ExpectationsWereMet())
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}
