package fxrate

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"bikerental/util/httpx"
)

const DefaultBaseURL = "https://v6.exchangerate-api.com/v6"

type httpSource struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPSource reads exchangerate-api style "latest" tables from
// {baseURL}/{apiKey}/latest/{base}.
func NewHTTPSource(baseURL, apiKey string, client *http.Client) Source {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = httpx.Client()
	}
	return &httpSource{baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey, client: client}
}

type latestResp struct {
	Result          string                     `json:"result"`
	ErrorType       string                     `json:"error-type"`
	BaseCode        string                     `json:"base_code"`
	ConversionRates map[string]decimal.Decimal `json:"conversion_rates"`
}

func (s *httpSource) Latest(ctx context.Context, base string) (*Table, error) {
	url := fmt.Sprintf("%s/%s/latest/%s", s.baseURL, s.apiKey, base)
	var out latestResp
	if err := httpx.GetJSON(ctx, s.client, url, &out); err != nil {
		return nil, fmt.Errorf("fx latest %s: %w", base, err)
	}
	if out.Result != "success" {
		return nil, fmt.Errorf("fx latest %s: result=%q error=%q", base, out.Result, out.ErrorType)
	}
	if len(out.ConversionRates) == 0 {
		return nil, fmt.Errorf("fx latest %s: empty conversion table", base)
	}
	code := out.BaseCode
	if code == "" {
		code = base
	}
	return &Table{Base: strings.ToUpper(code), Rates: out.ConversionRates}, nil
}
