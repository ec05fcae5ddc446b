// Package coingecko fetches daily asset prices from the CoinGecko market
// chart endpoint.
package coingecko

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"TrendPull/internal/domain/models"
	drepo "TrendPull/internal/domain/repository"
	xhttp "TrendPull/pkg/http"
	"TrendPull/pkg/util"
)

const pricePrecision = 2

// Client implements repository.PriceSource.
type Client struct {
	http       *xhttp.Client
	baseURL    string
	coinID     string
	vsCurrency string
	apiKey     string
}

var _ drepo.PriceSource = (*Client)(nil)

// Option configures Client.
type Option func(*Client)

// WithAPIKey sends the demo API key header.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithCoin selects the coin id and quote currency.
func WithCoin(id, vsCurrency string) Option {
	return func(c *Client) {
		c.coinID = id
		c.vsCurrency = vsCurrency
	}
}

// New creates a CoinGecko price source.
func New(httpClient *xhttp.Client, baseURL string, opts ...Option) *Client {
	c := &Client{
		http:       httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		coinID:     "bitcoin",
		vsCurrency: "usd",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type marketChart struct {
	Prices [][]float64 `json:"prices"`
}

// Fetch returns one price per day in [from, to], rounded to cents. When the
// feed carries several samples for one day the latest one wins.
func (c *Client) Fetch(ctx context.Context, from, to models.Date) (models.Series, error) {
	days := from.DaysTo(to)
	if days < 1 {
		days = 1
	}

	req := &xhttp.RequestOptions{
		URL: c.baseURL + "/coins/" + url.PathEscape(c.coinID) + "/market_chart",
		QueryParams: map[string][]string{
			"vs_currency": {c.vsCurrency},
			"days":        {strconv.Itoa(days)},
			"interval":    {"daily"},
		},
	}
	if c.apiKey != "" {
		req.Headers = map[string]string{"x-cg-demo-api-key": c.apiKey}
	}

	var chart marketChart
	if err := c.http.GetJSON(ctx, req, &chart); err != nil {
		return models.Series{}, fmt.Errorf("%w: coingecko market_chart: %v", models.ErrSourceUnavailable, err)
	}

	byDay := make(map[models.Date]float64, len(chart.Prices))
	for _, row := range chart.Prices {
		if len(row) < 2 {
			continue
		}
		d := models.DateOf(util.UnixMillis(row[0]))
		byDay[d] = decimal.NewFromFloat(row[1]).Round(pricePrecision).InexactFloat64()
	}
	if len(byDay) == 0 {
		return models.Series{}, fmt.Errorf("%w: coingecko returned no prices", models.ErrSourceUnavailable)
	}

	return models.NewSeries(byDay).Between(from, to), nil
}
