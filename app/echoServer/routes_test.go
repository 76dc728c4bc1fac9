package echoServer

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	paymentctrl "bikerental/app/echoServer/controller/payment"
	rentalctrl "bikerental/app/echoServer/controller/rental"
	"bikerental/app/echoServer/validation"
	"bikerental/model"
	rentalsvc "bikerental/service/rental"
	"bikerental/util/apperr"
	"bikerental/util/jwt"
	"bikerental/util/metrics"
)

const (
	secret   = "test-secret"
	customer = "0d9c6a52-3b9e-4a7e-8f51-0c2b7c1d9e44"
)

type rentalSvcMock struct {
	rentFn            func(ctx context.Context, bikeID int64, customerID string, days int) (*rentalsvc.RentResult, error)
	returnFn          func(ctx context.Context, rentalID int64, authorID, comment, condition string) (*rentalsvc.ReturnResult, error)
	cancelFn          func(ctx context.Context, entryID int64, customerID string) error
	myRentalsFn       func(ctx context.Context, customerID string) ([]model.Rental, error)
	myNotificationsFn func(ctx context.Context, customerID string) ([]model.Notification, error)
	myWaitlistFn      func(ctx context.Context, customerID string) ([]model.WaitingListEntry, error)
}

func (m *rentalSvcMock) Rent(ctx context.Context, bikeID int64, customerID string, days int) (*rentalsvc.RentResult, error) {
	return m.rentFn(ctx, bikeID, customerID, days)
}
func (m *rentalSvcMock) ReturnBike(ctx context.Context, rentalID int64, authorID, comment, condition string) (*rentalsvc.ReturnResult, error) {
	return m.returnFn(ctx, rentalID, authorID, comment, condition)
}
func (m *rentalSvcMock) CancelWaiting(ctx context.Context, entryID int64, customerID string) error {
	return m.cancelFn(ctx, entryID, customerID)
}
func (m *rentalSvcMock) MyRentals(ctx context.Context, customerID string) ([]model.Rental, error) {
	return m.myRentalsFn(ctx, customerID)
}
func (m *rentalSvcMock) MyNotifications(ctx context.Context, customerID string) ([]model.Notification, error) {
	return m.myNotificationsFn(ctx, customerID)
}
func (m *rentalSvcMock) MyWaitlist(ctx context.Context, customerID string) ([]model.WaitingListEntry, error) {
	return m.myWaitlistFn(ctx, customerID)
}

type paymentSvcMock struct {
	payFn  func(ctx context.Context, rentalID int64, amount decimal.Decimal, currency, paymentMethod string) (*model.RentalPayment, error)
	listFn func(ctx context.Context, rentalID int64) ([]model.RentalPayment, error)
}

func (m *paymentSvcMock) PayRental(ctx context.Context, rentalID int64, amount decimal.Decimal, currency, paymentMethod string) (*model.RentalPayment, error) {
	return m.payFn(ctx, rentalID, amount, currency, paymentMethod)
}
func (m *paymentSvcMock) ListPayments(ctx context.Context, rentalID int64) ([]model.RentalPayment, error) {
	return m.listFn(ctx, rentalID)
}

func newServer(t *testing.T, rs *rentalSvcMock, ps *paymentSvcMock) *echo.Echo {
	t.Helper()
	e := echo.New()
	e.Validator = validation.New()
	reg := prometheus.NewRegistry()
	metrics.New(reg)
	Register(e, C{
		Rental:    &rentalctrl.Controller{Svc: rs, Log: discard()},
		Payment:   &paymentctrl.Controller{Svc: ps, Log: discard()},
		JWTSecret: secret,
		Gatherer:  reg,
	})
	return e
}

func do(t *testing.T, e *echo.Echo, method, path, body string, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if authed {
		tok, err := jwt.Issue(secret, customer, "customer", time.Hour)
		require.NoError(t, err)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRent_RentedAndWaitlisted(t *testing.T) {
	outcome := model.Rented
	rs := &rentalSvcMock{rentFn: func(ctx context.Context, bikeID int64, customerID string, days int) (*rentalsvc.RentResult, error) {
		require.Equal(t, int64(7), bikeID)
		require.Equal(t, customer, customerID)
		require.Equal(t, 3, days)
		if outcome == model.Rented {
			return &rentalsvc.RentResult{Outcome: outcome, Rental: &model.Rental{ID: 1, BikeID: bikeID, TotalAmountEur: decimal.RequireFromString("15.00")}}, nil
		}
		return &rentalsvc.RentResult{Outcome: outcome, Entry: &model.WaitingListEntry{ID: 2, BikeID: bikeID}}, nil
	}}
	e := newServer(t, rs, &paymentSvcMock{})

	rec := do(t, e, http.MethodPost, "/v1/rentals", `{"bike_id":7,"days":3}`, true)
	require.Equal(t, http.StatusCreated, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "RENTED", body["result"])

	outcome = model.Waitlisted
	rec = do(t, e, http.MethodPost, "/v1/rentals", `{"bike_id":7,"days":3}`, true)
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Contains(t, rec.Body.String(), `"WAITLISTED"`)
}

func TestRent_RequiresToken(t *testing.T) {
	e := newServer(t, &rentalSvcMock{}, &paymentSvcMock{})
	rec := do(t, e, http.MethodPost, "/v1/rentals", `{"bike_id":7,"days":3}`, false)
	require.Contains(t, []int{http.StatusBadRequest, http.StatusUnauthorized}, rec.Code)

	forged, err := jwt.Issue("other-secret", customer, "customer", time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/v1/rentals", strings.NewReader(`{"bike_id":7,"days":3}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+forged)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRent_ValidationError(t *testing.T) {
	e := newServer(t, &rentalSvcMock{}, &paymentSvcMock{})
	rec := do(t, e, http.MethodPost, "/v1/rentals", `{"bike_id":7,"days":400}`, true)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.JSONEq(t, `{"message":"validation error","errors":{"days":"must be at most 365"}}`, rec.Body.String())

	rec = do(t, e, http.MethodPost, "/v1/rentals", `{not json`, true)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{apperr.New(apperr.NotFound, "rental 9 not found"), http.StatusNotFound},
		{apperr.New(apperr.Validation, "bad"), http.StatusBadRequest},
		{apperr.New(apperr.InvalidState, "rental is not active"), http.StatusConflict},
		{apperr.New(apperr.Conflict, "try again"), http.StatusConflict},
		{apperr.New(apperr.Gateway, "gateway down"), http.StatusBadGateway},
		{context.DeadlineExceeded, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rs := &rentalSvcMock{returnFn: func(ctx context.Context, rentalID int64, authorID, comment, condition string) (*rentalsvc.ReturnResult, error) {
			return nil, tc.err
		}}
		e := newServer(t, rs, &paymentSvcMock{})
		rec := do(t, e, http.MethodPost, "/v1/rentals/9/return", `{"comment":"ok","condition":"good"}`, true)
		require.Equal(t, tc.status, rec.Code, tc.err.Error())
		if tc.status == http.StatusInternalServerError {
			require.Contains(t, rec.Body.String(), "internal error")
		}
	}
}

func TestReturn_PassesAuthorAndNote(t *testing.T) {
	rs := &rentalSvcMock{returnFn: func(ctx context.Context, rentalID int64, authorID, comment, condition string) (*rentalsvc.ReturnResult, error) {
		require.Equal(t, int64(12), rentalID)
		require.Equal(t, customer, authorID)
		require.Equal(t, "brakes squeak", comment)
		require.Equal(t, "fair", condition)
		return &rentalsvc.ReturnResult{Closed: &model.Rental{ID: rentalID, Status: model.RentalClosed}}, nil
	}}
	e := newServer(t, rs, &paymentSvcMock{})
	rec := do(t, e, http.MethodPost, "/v1/rentals/12/return", `{"comment":"brakes squeak","condition":"fair"}`, true)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, e, http.MethodPost, "/v1/rentals/abc/return", `{"condition":"fair"}`, true)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListings(t *testing.T) {
	rs := &rentalSvcMock{
		myRentalsFn: func(ctx context.Context, customerID string) ([]model.Rental, error) {
			return []model.Rental{{ID: 2}, {ID: 1}}, nil
		},
		myNotificationsFn: func(ctx context.Context, customerID string) ([]model.Notification, error) {
			return []model.Notification{{ID: 1, Message: "Bike 1 is now available. A rental has been created for you."}}, nil
		},
		myWaitlistFn: func(ctx context.Context, customerID string) ([]model.WaitingListEntry, error) {
			return nil, nil
		},
		cancelFn: func(ctx context.Context, entryID int64, customerID string) error {
			if entryID == 5 {
				return nil
			}
			return apperr.New(apperr.NotFound, "entry %d not found", entryID)
		},
	}
	e := newServer(t, rs, &paymentSvcMock{})

	rec := do(t, e, http.MethodGet, "/v1/rentals/my", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[2,1]`, idsOf(t, rec.Body.Bytes()))

	rec = do(t, e, http.MethodGet, "/v1/notifications/my", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "is now available")

	rec = do(t, e, http.MethodGet, "/v1/waitlist/my", "", true)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, e, http.MethodDelete, "/v1/waitlist/5", "", true)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, e, http.MethodDelete, "/v1/waitlist/6", "", true)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPay(t *testing.T) {
	ps := &paymentSvcMock{
		payFn: func(ctx context.Context, rentalID int64, amount decimal.Decimal, currency, paymentMethod string) (*model.RentalPayment, error) {
			require.Equal(t, int64(3), rentalID)
			require.True(t, amount.Equal(decimal.NewFromInt(100)))
			require.Equal(t, "USD", currency)
			require.Equal(t, "pm_card_visa", paymentMethod)
			return &model.RentalPayment{ID: 1, RentalID: rentalID, Status: model.PaymentPaid, AmountEur: decimal.NewNullDecimal(decimal.RequireFromString("92.00"))}, nil
		},
		listFn: func(ctx context.Context, rentalID int64) ([]model.RentalPayment, error) {
			return []model.RentalPayment{{ID: 1, RentalID: rentalID}}, nil
		},
	}
	e := newServer(t, &rentalSvcMock{}, ps)

	rec := do(t, e, http.MethodPost, "/v1/rentals/3/payments", `{"amount":"100","currency":"USD","payment_method_id":"pm_card_visa"}`, true)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Contains(t, rec.Body.String(), `"PAID"`)

	rec = do(t, e, http.MethodPost, "/v1/rentals/3/payments", `{"amount":"100","currency":"US","payment_method_id":"pm"}`, true)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, e, http.MethodGet, "/v1/rentals/3/payments", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"fx_rate_to_eur":null`)
}

func TestHealthAndMetrics(t *testing.T) {
	e := newServer(t, &rentalSvcMock{}, &paymentSvcMock{})
	rec := do(t, e, http.MethodGet, "/health", "", false)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, e, http.MethodGet, "/metrics", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestSwaggerDocs(t *testing.T) {
	e := newServer(t, &rentalSvcMock{}, &paymentSvcMock{})
	rec := do(t, e, http.MethodGet, "/swagger/index.html", "", false)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, e, http.MethodGet, "/swagger/doc.json", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	var doc struct {
		Info  struct{ Title string } `json:"info"`
		Paths map[string]any         `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	require.Equal(t, "Bike Rental API", doc.Info.Title)
	require.Contains(t, doc.Paths, "/v1/rentals")
	require.Contains(t, doc.Paths, "/v1/rentals/{id}/payments")
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func idsOf(t *testing.T, raw []byte) string {
	t.Helper()
	var body struct {
		Data []struct {
			ID int64 `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	ids := make([]int64, 0, len(body.Data))
	for _, d := range body.Data {
		ids = append(ids, d.ID)
	}
	out, err := json.Marshal(ids)
	require.NoError(t, err)
	return string(out)
}
