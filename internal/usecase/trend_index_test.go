package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrendPull/internal/domain/models"
	"TrendPull/internal/services/alignment"
	applogger "TrendPull/pkg/logger"
)

var runAt = time.Date(2024, time.January, 10, 12, 0, 0, 0, time.UTC)

func day(s string) models.Date {
	d, err := models.ParseISODate(s)
	if err != nil {
		panic(err)
	}
	return d
}

type fakePrices struct {
	series models.Series
	err    error
	calls  []models.Date
	mu     sync.Mutex
}

func (f *fakePrices) Fetch(_ context.Context, from, to models.Date) (models.Series, error) {
	f.mu.Lock()
	f.calls = append(f.calls, from, to)
	f.mu.Unlock()
	if f.err != nil {
		return models.Series{}, f.err
	}
	return f.series.Between(from, to), nil
}

type fakeTrends struct {
	points map[string][]models.RawTrendPoint
	errs   map[string]error
}

func (f *fakeTrends) Fetch(_ context.Context, keyword string, _, _ models.Date) ([]models.RawTrendPoint, error) {
	if err := f.errs[keyword]; err != nil {
		return nil, err
	}
	return f.points[keyword], nil
}

type fakeCSV struct {
	table models.TrendTable
	err   error
	path  string
}

func (f *fakeCSV) Read(_ context.Context, path string) (models.TrendTable, error) {
	f.path = path
	return f.table, f.err
}

type fakeWriter struct {
	written []*models.Artifact
	err     error
}

func (f *fakeWriter) Write(_ context.Context, a *models.Artifact) error {
	if f.err != nil {
		return f.err
	}
	f.written = append(f.written, a)
	return nil
}

type fakeStore struct {
	runs []models.HorizonRun
	err  error
}

func (f *fakeStore) Init(context.Context) error { return nil }
func (f *fakeStore) Close() error               { return nil }
func (f *fakeStore) StoreRun(_ context.Context, run models.HorizonRun) error {
	if f.err != nil {
		return f.err
	}
	f.runs = append(f.runs, run)
	return nil
}

type fakePublisher struct {
	published int
	err       error
}

func (f *fakePublisher) Publish(context.Context, *models.Artifact) error {
	if f.err != nil {
		return f.err
	}
	f.published++
	return nil
}
func (f *fakePublisher) Close() error { return nil }

type fakeMetrics struct {
	mu         sync.Mutex
	dropped    []string
	sinkErrors []string
	runs       int
	runErr     error
}

func (m *fakeMetrics) RecordFetch(string, error) {}
func (m *fakeMetrics) RecordSkipped(string, int) {}
func (m *fakeMetrics) RecordAlignment(string, int, int, float64, float64) {}
func (m *fakeMetrics) RecordKeywordDropped(k string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropped = append(m.dropped, k)
}
func (m *fakeMetrics) RecordSinkError(s string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sinkErrors = append(m.sinkErrors, s)
}
func (m *fakeMetrics) RecordRun(_ time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs++
	m.runErr = err
}

func btc() *fakePrices {
	return &fakePrices{series: models.NewSeries(map[models.Date]float64{
		day("2023-06-01"): 27000,
		day("2024-01-01"): 100,
		day("2024-01-08"): 110,
	})}
}

func baseConfig() PipelineConfig {
	return PipelineConfig{
		Keywords:    []string{"Bitcoin", "Crypto"},
		TrendMode:   TrendModeAPI,
		Concurrency: 2,
		Join:        alignment.JoinOptions{ToleranceDays: 7, Policy: alignment.IncludeWith(50)},
		Primary:     Horizon{Name: "6m", Days: 9},
	}
}

func TestRunAlignsAndWrites(t *testing.T) {
	trends := &fakeTrends{
		points: map[string][]models.RawTrendPoint{
			"Bitcoin": {{DateText: "2024-01-02", Value: "40"}, {DateText: "bogus", Value: "1"}},
		},
		errs: map[string]error{"Crypto": models.ErrSourceUnavailable},
	}
	writer, store, pub, metrics := &fakeWriter{}, &fakeStore{}, &fakePublisher{}, &fakeMetrics{}

	p := NewTrendIndexPipeline(baseConfig(), btc(), writer, metrics, applogger.Nop(),
		WithTrendSource(trends),
		WithPointStore(store),
		WithPublisher(pub),
		WithClock(func() time.Time { return runAt }),
	)

	a, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"2024-01-01", "2024-01-08"}, a.Dates)
	assert.Equal(t, []float64{100, 110}, a.Prices)
	assert.Equal(t, []float64{40, 40}, a.TrendIndex)
	assert.Equal(t, []string{"Bitcoin", "Crypto"}, a.Keywords)
	assert.Equal(t, "2024-01-10T12:00:00Z", a.LastUpdated)
	assert.False(t, a.HasExtended())

	require.Len(t, writer.written, 1)
	assert.Same(t, a, p.Latest())
	require.Len(t, store.runs, 1)
	assert.Equal(t, "6m", store.runs[0].Horizon)
	assert.Equal(t, 1, pub.published)
	assert.Equal(t, []string{"Crypto"}, metrics.dropped)
	assert.Equal(t, 1, metrics.runs)
	assert.NoError(t, metrics.runErr)
}

func TestRunWithoutTrendSourceUsesDefault(t *testing.T) {
	writer := &fakeWriter{}
	p := NewTrendIndexPipeline(baseConfig(), btc(), writer, &fakeMetrics{}, applogger.Nop(),
		WithClock(func() time.Time { return runAt }))

	a, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []float64{50, 50}, a.TrendIndex)
}

func TestRunEmptyKeywordIsDropped(t *testing.T) {
	trends := &fakeTrends{points: map[string][]models.RawTrendPoint{
		"Bitcoin": {{DateText: "2024-01-01", Value: "10"}},
		"Crypto":  {{DateText: "nonsense", Value: "90"}},
	}}
	metrics := &fakeMetrics{}
	p := NewTrendIndexPipeline(baseConfig(), btc(), &fakeWriter{}, metrics, applogger.Nop(),
		WithTrendSource(trends), WithClock(func() time.Time { return runAt }))

	a, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 10}, a.TrendIndex)
	assert.Equal(t, []string{"Crypto"}, metrics.dropped)
}

func TestRunPriceFailureAborts(t *testing.T) {
	writer, metrics := &fakeWriter{}, &fakeMetrics{}
	prices := &fakePrices{err: models.ErrSourceUnavailable}
	p := NewTrendIndexPipeline(baseConfig(), prices, writer, metrics, applogger.Nop(),
		WithClock(func() time.Time { return runAt }))

	_, err := p.Run(context.Background())
	assert.ErrorIs(t, err, models.ErrSourceUnavailable)
	assert.Empty(t, writer.written)
	assert.Nil(t, p.Latest())
	assert.Error(t, metrics.runErr)
}

func TestRunEmptyResult(t *testing.T) {
	cfg := baseConfig()
	cfg.Join.Policy = alignment.Exclude()
	writer := &fakeWriter{}
	p := NewTrendIndexPipeline(cfg, btc(), writer, &fakeMetrics{}, applogger.Nop(),
		WithClock(func() time.Time { return runAt }))

	_, err := p.Run(context.Background())
	assert.True(t, IsEmptyResult(err))
	assert.Empty(t, writer.written)
}

func TestRunExtendedHorizonIsIndependent(t *testing.T) {
	cfg := baseConfig()
	cfg.Extended = &Horizon{Name: "12m", Days: 365}
	trends := &fakeTrends{points: map[string][]models.RawTrendPoint{
		"Bitcoin": {{DateText: "2024-01-02", Value: "40"}, {DateText: "2023-06-02", Value: "80"}},
		"Crypto":  {{DateText: "2024-01-02", Value: "20"}},
	}}
	store := &fakeStore{}
	p := NewTrendIndexPipeline(cfg, btc(), &fakeWriter{}, &fakeMetrics{}, applogger.Nop(),
		WithTrendSource(trends), WithPointStore(store), WithClock(func() time.Time { return runAt }))

	a, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"2024-01-01", "2024-01-08"}, a.Dates)
	assert.Equal(t, []float64{30, 30}, a.TrendIndex)

	require.True(t, a.HasExtended())
	assert.Equal(t, []string{"2023-06-01", "2024-01-01", "2024-01-08"}, a.Dates12m)
	assert.Equal(t, []float64{27000, 100, 110}, a.Prices12m)
	assert.Equal(t, []float64{80, 30, 30}, a.TrendIndex12m)
	assert.Len(t, store.runs, 2)
}

func TestRunCSVMode(t *testing.T) {
	cfg := baseConfig()
	cfg.TrendMode = TrendModeCSV
	cfg.Primary.CSVPath = "trends.csv"
	reader := &fakeCSV{table: models.TrendTable{
		Columns: []string{"Week", "Bitcoin", "Crypto"},
		Rows: []models.TrendRow{
			{DateText: "12/31/2023", Values: []string{"10", "21"}},
			{DateText: "2024-01-07", Values: []string{"<1", "3"}},
		},
	}}
	p := NewTrendIndexPipeline(cfg, btc(), &fakeWriter{}, &fakeMetrics{}, applogger.Nop(),
		WithCSVSource(reader), WithClock(func() time.Time { return runAt }))

	a, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "trends.csv", reader.path)
	assert.Equal(t, []float64{15.5, 1.5}, a.TrendIndex)
}

func TestRunCSVFailureAborts(t *testing.T) {
	cfg := baseConfig()
	cfg.TrendMode = TrendModeCSV
	reader := &fakeCSV{err: models.ErrSourceUnavailable}
	p := NewTrendIndexPipeline(cfg, btc(), &fakeWriter{}, &fakeMetrics{}, applogger.Nop(),
		WithCSVSource(reader), WithClock(func() time.Time { return runAt }))

	_, err := p.Run(context.Background())
	assert.ErrorIs(t, err, models.ErrSourceUnavailable)
}

func TestRunSinkFailuresAreBestEffort(t *testing.T) {
	metrics := &fakeMetrics{}
	writer := &fakeWriter{}
	p := NewTrendIndexPipeline(baseConfig(), btc(), writer, metrics, applogger.Nop(),
		WithPointStore(&fakeStore{err: errors.New("ch down")}),
		WithPublisher(&fakePublisher{err: errors.New("kafka down")}),
		WithClock(func() time.Time { return runAt }))

	_, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, writer.written, 1)
	assert.ElementsMatch(t, []string{"clickhouse", "kafka"}, metrics.sinkErrors)
}

func TestRunWriterFailureFails(t *testing.T) {
	p := NewTrendIndexPipeline(baseConfig(), btc(), &fakeWriter{err: errors.New("disk full")}, &fakeMetrics{}, applogger.Nop(),
		WithClock(func() time.Time { return runAt }))

	_, err := p.Run(context.Background())
	assert.Error(t, err)
	assert.Nil(t, p.Latest())
}
