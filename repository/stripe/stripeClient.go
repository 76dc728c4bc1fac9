package striperepo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"

	"bikerental/util/httpx"
)

const DefaultBaseURL = "https://api.stripe.com"

type clientRepo struct {
	api *client.API
}

// NewClient talks to the PaymentIntents API at baseURL. Retries are left to
// the caller, which owns the payment row.
func NewClient(apiKey, baseURL string, hc *http.Client) Repo {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if hc == nil {
		hc = httpx.Client()
	}
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(strings.TrimRight(baseURL, "/")),
		HTTPClient:        hc,
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})
	return &clientRepo{api: client.New(apiKey, &stripe.Backends{API: backend, Connect: backend, Uploads: backend})}
}

func (r *clientRepo) Authorize(ctx context.Context, req AuthorizeReq) (*AuthorizeResp, error) {
	minor, err := ToMinorUnits(req.Currency, req.Amount)
	if err != nil {
		return nil, fmt.Errorf("stripe authorize: %w", err)
	}

	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(minor),
		Currency:      stripe.String(strings.ToLower(req.Currency)),
		PaymentMethod: stripe.String(req.PaymentMethod),
		CaptureMethod: stripe.String(string(stripe.PaymentIntentCaptureMethodManual)),
		Confirm:       stripe.Bool(true),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}
	params.Context = ctx
	params.AddMetadata("reference", req.Reference)

	pi, err := r.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe authorize: %w", describe(err))
	}
	if pi.ID == "" {
		return nil, errors.New("stripe authorize: empty payment intent id")
	}
	return &AuthorizeResp{AuthorizationID: pi.ID, Status: string(pi.Status)}, nil
}

func (r *clientRepo) Capture(ctx context.Context, authorizationID string) (*CaptureResp, error) {
	params := &stripe.PaymentIntentCaptureParams{}
	params.Context = ctx
	pi, err := r.api.PaymentIntents.Capture(authorizationID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe capture: %w", describe(err))
	}
	return &CaptureResp{PaymentID: pi.ID, Status: string(pi.Status)}, nil
}

// describe keeps the processor's message and drops the raw body.
func describe(err error) error {
	var se *stripe.Error
	if errors.As(err, &se) && se.Msg != "" {
		return fmt.Errorf("%d %s: %s", se.HTTPStatusCode, se.Code, se.Msg)
	}
	return err
}
