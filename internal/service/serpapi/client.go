// Package serpapi fetches Google Trends interest-over-time through SerpAPI.
package serpapi

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"TrendPull/internal/domain/models"
	drepo "TrendPull/internal/domain/repository"
	"TrendPull/pkg/cache"
	xhttp "TrendPull/pkg/http"
	applogger "TrendPull/pkg/logger"
	"TrendPull/pkg/util"
)

// Client implements repository.TrendSource.
type Client struct {
	http     *xhttp.Client
	baseURL  string
	apiKey   string
	geo      string
	cache    cache.Service
	cacheTTL time.Duration
	log      *applogger.Logger
}

var _ drepo.TrendSource = (*Client)(nil)

// Option configures Client.
type Option func(*Client)

// WithGeo restricts results to a region code such as "US".
func WithGeo(geo string) Option {
	return func(c *Client) { c.geo = geo }
}

// WithCache stores raw results for ttl, keyed by keyword, window and region.
func WithCache(svc cache.Service, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = svc
		c.cacheTTL = ttl
	}
}

// WithLogger sets the logger used for cache diagnostics.
func WithLogger(l *applogger.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New creates a SerpAPI trend source.
func New(httpClient *xhttp.Client, baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		http:    httpClient,
		baseURL: baseURL,
		apiKey:  apiKey,
		cache:   cache.Nop{},
		log:     applogger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type trendsResponse struct {
	Error            string `json:"error"`
	InterestOverTime struct {
		TimelineData []timelinePoint `json:"timeline_data"`
	} `json:"interest_over_time"`
}

type timelinePoint struct {
	Date      string          `json:"date"`
	Timestamp string          `json:"timestamp"`
	Values    []timelineValue `json:"values"`
}

type timelineValue struct {
	Query          string   `json:"query"`
	Value          string   `json:"value"`
	ExtractedValue *float64 `json:"extracted_value"`
}

// Fetch returns the raw timeline for one keyword. A point whose unix
// timestamp is present is reported as an ISO date; otherwise the provider's
// display text is passed through for the normalizer.
func (c *Client) Fetch(ctx context.Context, keyword string, from, to models.Date) ([]models.RawTrendPoint, error) {
	window := from.String() + " " + to.String()
	key := cache.Key("serpapi", keyword, window, c.geo)

	var cached []models.RawTrendPoint
	err := c.cache.Get(ctx, key, &cached)
	if err == nil {
		c.log.Debug("serpapi cache hit", applogger.String("keyword", keyword))
		return cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		c.log.Warn("serpapi cache read failed", applogger.String("keyword", keyword), applogger.Error(err))
	}

	params := map[string][]string{
		"engine":    {"google_trends"},
		"q":         {keyword},
		"data_type": {"TIMESERIES"},
		"date":      {window},
		"api_key":   {c.apiKey},
	}
	if c.geo != "" {
		params["geo"] = []string{c.geo}
	}

	var resp trendsResponse
	if err := c.http.GetJSON(ctx, &xhttp.RequestOptions{URL: c.baseURL, QueryParams: params}, &resp); err != nil {
		return nil, fmt.Errorf("%w: serpapi %q: %v", models.ErrSourceUnavailable, keyword, err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("%w: serpapi %q: %s", models.ErrSourceUnavailable, keyword, resp.Error)
	}

	points := convert(resp.InterestOverTime.TimelineData)

	if len(points) > 0 {
		if err := c.cache.Set(ctx, key, points, c.cacheTTL); err != nil {
			c.log.Warn("serpapi cache write failed", applogger.String("keyword", keyword), applogger.Error(err))
		}
	}
	return points, nil
}

func convert(timeline []timelinePoint) []models.RawTrendPoint {
	points := make([]models.RawTrendPoint, 0, len(timeline))
	for _, tp := range timeline {
		if len(tp.Values) == 0 {
			continue
		}

		dateText := tp.Date
		if ts, ok := util.ParseTime(tp.Timestamp); ok {
			dateText = models.DateOf(ts).String()
		}

		v := tp.Values[0]
		value := v.Value
		if value == "" && v.ExtractedValue != nil {
			value = strconv.FormatFloat(*v.ExtractedValue, 'f', -1, 64)
		}

		points = append(points, models.RawTrendPoint{DateText: dateText, Value: value})
	}
	return points
}
