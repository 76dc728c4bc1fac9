package paymentsvc

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"bikerental/model"
	fxrate "bikerental/repository/fxrate"
	paymentrepo "bikerental/repository/payment"
	striperepo "bikerental/repository/stripe"
	"bikerental/util/apperr"
	"bikerental/util/metrics"
)

var currencyRe = regexp.MustCompile(`^[A-Z]{3}$`)

// RentalReader is the read side of the rental ledger the orchestrator needs.
// Payments never change rentals.
type RentalReader interface {
	Rental(ctx context.Context, id int64) (*model.Rental, error)
}

type Service interface {
	// PayRental converts amount to EUR at today's rate, authorizes and captures
	// it, and records the attempt as one immutable row. Non-PAID outcomes are
	// returned as rows, not errors; transport failures are recorded as FAILED
	// and also returned as a Gateway error.
	PayRental(ctx context.Context, rentalID int64, amount decimal.Decimal, currency, paymentMethod string) (*model.RentalPayment, error)

	// ListPayments returns the rental's attempts, most recent first.
	ListPayments(ctx context.Context, rentalID int64) ([]model.RentalPayment, error)
}

type Option func(*service)

func WithClock(now func() time.Time) Option     { return func(s *service) { s.now = now } }
func WithMetrics(m *metrics.Metrics) Option     { return func(s *service) { s.m = m } }
func WithLogger(l *slog.Logger) Option          { return func(s *service) { s.log = l } }
func WithGatewayTimeout(d time.Duration) Option { return func(s *service) { s.timeout = d } }

type service struct {
	rentals  RentalReader
	payments paymentrepo.Repo
	fx       fxrate.Provider
	gw       striperepo.Repo
	now      func() time.Time
	timeout  time.Duration
	m        *metrics.Metrics
	log      *slog.Logger
}

func New(rentals RentalReader, payments paymentrepo.Repo, fx fxrate.Provider, gw striperepo.Repo, opts ...Option) Service {
	s := &service{
		rentals:  rentals,
		payments: payments,
		fx:       fx,
		gw:       gw,
		now:      time.Now,
		timeout:  15 * time.Second,
		log:      slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *service) PayRental(ctx context.Context, rentalID int64, amount decimal.Decimal, currency, paymentMethod string) (p *model.RentalPayment, err error) {
	ctx = context.WithoutCancel(ctx)
	start := time.Now()
	defer func() { s.observe(ctx, rentalID, start, p, err) }()

	if !amount.IsPositive() {
		return nil, apperr.New(apperr.Validation, "amount must be greater than zero")
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if !currencyRe.MatchString(currency) {
		return nil, apperr.New(apperr.Validation, "currency must be a 3-letter ISO code")
	}

	rt, err := s.rentals.Rental(ctx, rentalID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.New(apperr.NotFound, "rental %d not found", rentalID)
		}
		return nil, err
	}
	if rt.Status != model.RentalActive {
		return nil, apperr.New(apperr.InvalidState, "only ACTIVE rentals can be paid")
	}

	if exp := striperepo.MinorUnits(currency); !amount.Equal(amount.Truncate(exp)) {
		return nil, apperr.New(apperr.Validation, "%s amounts allow at most %d decimals", currency, exp)
	}

	p = &model.RentalPayment{
		RentalID:         rt.ID,
		OriginalAmount:   amount,
		OriginalCurrency: currency,
	}

	rate, err := s.rateToEur(ctx, currency)
	if err != nil {
		if apperr.Code(err) != apperr.Gateway {
			return nil, err
		}
		// no conversion, no charge; the attempt is still on record
		p.Status = model.PaymentFailed
		reason := apperr.Message(err)
		p.FailureReason = &reason
		p.CreatedAt = s.now().UTC()
		if _, ierr := s.payments.Insert(ctx, p); ierr != nil {
			return nil, fmt.Errorf("record payment attempt: %w", ierr)
		}
		return nil, err
	}
	p.FxRateToEur = decimal.NewNullDecimal(rate)
	p.AmountEur = decimal.NewNullDecimal(amount.Mul(rate).Round(2))

	gwErr := s.settle(ctx, p, paymentMethod)
	p.CreatedAt = s.now().UTC()
	if p.Status == model.PaymentPaid {
		paidAt := p.CreatedAt
		p.PaidAt = &paidAt
	}

	if _, err = s.payments.Insert(ctx, p); err != nil {
		return nil, fmt.Errorf("record payment attempt: %w", err)
	}
	if gwErr != nil {
		err = gwErr
		return nil, err
	}
	return p, nil
}

// rateToEur snapshots the conversion used for this attempt. EUR never reaches
// the provider.
func (s *service) rateToEur(ctx context.Context, currency string) (decimal.Decimal, error) {
	if currency == model.ReferenceCurrency {
		return decimal.NewFromInt(1), nil
	}
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	rate, err := s.fx.Rate(cctx, currency, model.ReferenceCurrency, s.now())
	if err != nil {
		if errors.Is(err, fxrate.ErrUnsupportedCurrency) {
			return decimal.Zero, apperr.New(apperr.Validation, "unsupported currency %s", currency)
		}
		return decimal.Zero, apperr.Wrap(apperr.Gateway, err, "exchange rate unavailable for %s", currency)
	}
	if !rate.IsPositive() {
		return decimal.Zero, apperr.New(apperr.Gateway, "exchange rate for %s is not positive", currency)
	}
	return rate, nil
}

// settle drives authorize then capture and fills in the outcome. The returned
// error is non-nil only for transport failures, which also leave p FAILED.
func (s *service) settle(ctx context.Context, p *model.RentalPayment, paymentMethod string) error {
	actx, cancel := context.WithTimeout(ctx, s.timeout)
	auth, err := s.gw.Authorize(actx, striperepo.AuthorizeReq{
		Currency:      p.OriginalCurrency,
		Amount:        p.OriginalAmount,
		PaymentMethod: paymentMethod,
		Reference:     fmt.Sprintf("rental:%d", p.RentalID),
	})
	cancel()
	s.countCall("authorize", err)
	if err != nil {
		return s.fail(p, err, "payment authorization failed")
	}
	p.AuthorizationID = &auth.AuthorizationID

	switch auth.Status {
	case striperepo.StatusRequiresCapture:
		p.Status = model.PaymentAuthorized
	case striperepo.StatusRequiresAction:
		p.Status = model.PaymentRequiresAction
		return nil
	default:
		p.Status = model.PaymentFailed
		reason := "authorization failed: " + auth.Status
		p.FailureReason = &reason
		return nil
	}

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	capture, err := s.gw.Capture(cctx, auth.AuthorizationID)
	cancel()
	s.countCall("capture", err)
	if err != nil {
		return s.fail(p, err, "payment capture failed")
	}
	if capture.PaymentID != "" {
		p.PaymentID = &capture.PaymentID
	}
	if capture.Status == striperepo.StatusSucceeded {
		p.Status = model.PaymentPaid
		return nil
	}
	p.Status = model.PaymentFailed
	reason := "capture failed: " + capture.Status
	p.FailureReason = &reason
	return nil
}

func (s *service) fail(p *model.RentalPayment, err error, msg string) error {
	p.Status = model.PaymentFailed
	reason := err.Error()
	p.FailureReason = &reason
	return apperr.Wrap(apperr.Gateway, err, "%s: %s", msg, reason)
}

func (s *service) ListPayments(ctx context.Context, rentalID int64) ([]model.RentalPayment, error) {
	if _, err := s.rentals.Rental(ctx, rentalID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.New(apperr.NotFound, "rental %d not found", rentalID)
		}
		return nil, err
	}
	return s.payments.ListByRental(ctx, rentalID)
}

func (s *service) countCall(call string, err error) {
	if s.m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	s.m.GatewayCalls.WithLabelValues(call, result).Inc()
}

func (s *service) observe(ctx context.Context, rentalID int64, start time.Time, p *model.RentalPayment, err error) {
	lat := time.Since(start)
	status := "error"
	if err == nil && p != nil {
		status = string(p.Status)
	}
	if s.m != nil {
		s.m.OpLatencyMS.WithLabelValues("pay").Observe(float64(lat.Milliseconds()))
		s.m.PaymentTotal.WithLabelValues(status).Inc()
	}
	attrs := []any{"op", "pay", "rental_id", rentalID, "status", status, "latency_ms", lat.Milliseconds()}
	if p != nil {
		attrs = append(attrs, "currency", p.OriginalCurrency)
		if p.AmountEur.Valid {
			attrs = append(attrs, "amount_eur", p.AmountEur.Decimal.StringFixed(2))
		}
	}
	if err != nil {
		attrs = append(attrs, "code", string(apperr.Code(err)), "err", err)
		if apperr.Code(err) == "" {
			s.log.ErrorContext(ctx, "payment failed", attrs...)
			return
		}
	}
	s.log.InfoContext(ctx, "payment", attrs...)
}
