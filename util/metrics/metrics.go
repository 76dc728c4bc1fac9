package metrics

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	RentTotal     *prometheus.CounterVec // result=rented|waitlisted|error
	ReturnTotal   *prometheus.CounterVec // result=closed|promoted|error
	PaymentTotal  *prometheus.CounterVec // status=PAID|REQUIRES_ACTION|FAILED|error
	GatewayCalls  *prometheus.CounterVec // call=authorize|capture, result=ok|error
	FXLookups     *prometheus.CounterVec // source=identity|cache|provider|error
	OutboxRelayed *prometheus.CounterVec // result=published|failed

	OpLatencyMS *prometheus.HistogramVec // op=rent|return|cancel|pay

	ConflictTotal *prometheus.CounterVec // op=rent|return|cancel
	QueueDepth    prometheus.Histogram // open entries on the bike just changed
	OutboxPending prometheus.Gauge
}

// New builds and registers the collectors on reg. Tests pass a fresh
// prometheus.NewRegistry() so repeated construction does not panic.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RentTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rental_rent_total",
				Help: "Total rent requests by result",
			},
			[]string{"result"},
		),
		ReturnTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rental_return_total",
				Help: "Total bike returns by result",
			},
			[]string{"result"},
		),
		PaymentTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rental_payment_total",
				Help: "Total payment attempts by final status",
			},
			[]string{"status"},
		),
		GatewayCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_gateway_calls_total",
				Help: "Payment gateway calls by call and result",
			},
			[]string{"call", "result"},
		),
		FXLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fx_lookups_total",
				Help: "Exchange rate lookups by source",
			},
			[]string{"source"},
		),
		OutboxRelayed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "outbox_relayed_total",
				Help: "Outbox messages handed to the broker by result",
			},
			[]string{"result"},
		),
		OpLatencyMS: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rental_op_latency_ms",
				Help:    "Latency of rental and payment operations (ms)",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1ms .. ~2048ms
			},
			[]string{"op"},
		),
		ConflictTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rental_conflict_total",
				Help: "Storage fence violations and busy timeouts",
			},
			[]string{"op"},
		),
		QueueDepth: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "waitlist_queue_depth",
			Help:    "Open waiting-list entries of a bike, observed after each queue change",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
		}),
		OutboxPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "outbox_pending",
			Help: "Unprocessed outbox messages seen by the last relay tick",
		}),
	}

	reg.MustRegister(
		m.RentTotal,
		m.ReturnTotal,
		m.PaymentTotal,
		m.GatewayCalls,
		m.FXLookups,
		m.OutboxRelayed,
		m.OpLatencyMS,
		m.ConflictTotal,
		m.QueueDepth,
		m.OutboxPending,
	)

	return m
}
