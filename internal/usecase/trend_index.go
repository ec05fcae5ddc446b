package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"TrendPull/internal/domain/models"
	drepo "TrendPull/internal/domain/repository"
	"TrendPull/internal/services/alignment"
	applogger "TrendPull/pkg/logger"
	"TrendPull/pkg/util"
)

// Trend source modes.
const (
	TrendModeAPI = "serpapi"
	TrendModeCSV = "csv"
)

// Horizon is one independently fetched and aligned lookback window.
type Horizon struct {
	Name    string
	Days    int
	CSVPath string
}

// PipelineConfig holds everything a run needs besides its collaborators.
type PipelineConfig struct {
	Keywords    []string
	TrendMode   string
	Concurrency int
	Formats     []alignment.DateFormat
	Join        alignment.JoinOptions
	Primary     Horizon
	Extended    *Horizon
}

// TrendIndexPipeline fetches prices and keyword interest, aggregates and
// aligns them per horizon, and writes one artifact per run.
type TrendIndexPipeline struct {
	cfg       PipelineConfig
	prices    drepo.PriceSource
	trends    drepo.TrendSource
	csv       drepo.CSVTrendSource
	writer    drepo.ArtifactWriter
	store     drepo.PointStore
	publisher drepo.ArtifactPublisher
	metrics   drepo.Metrics
	log       *applogger.Logger
	now       func() time.Time

	mu   sync.Mutex
	last *models.Artifact
}

// PipelineOption configures TrendIndexPipeline.
type PipelineOption func(*TrendIndexPipeline)

// WithTrendSource sets the API keyword source. Without one, and outside CSV
// mode, every run aligns against an empty score series.
func WithTrendSource(src drepo.TrendSource) PipelineOption {
	return func(p *TrendIndexPipeline) { p.trends = src }
}

// WithCSVSource sets the reader used in CSV mode.
func WithCSVSource(src drepo.CSVTrendSource) PipelineOption {
	return func(p *TrendIndexPipeline) { p.csv = src }
}

// WithPointStore records every aligned point after a successful write.
func WithPointStore(store drepo.PointStore) PipelineOption {
	return func(p *TrendIndexPipeline) { p.store = store }
}

// WithPublisher announces each artifact after a successful write.
func WithPublisher(pub drepo.ArtifactPublisher) PipelineOption {
	return func(p *TrendIndexPipeline) { p.publisher = pub }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) PipelineOption {
	return func(p *TrendIndexPipeline) { p.now = now }
}

// NewTrendIndexPipeline creates the pipeline.
func NewTrendIndexPipeline(
	cfg PipelineConfig,
	prices drepo.PriceSource,
	writer drepo.ArtifactWriter,
	metrics drepo.Metrics,
	log *applogger.Logger,
	opts ...PipelineOption,
) *TrendIndexPipeline {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	p := &TrendIndexPipeline{
		cfg:     cfg,
		prices:  prices,
		writer:  writer,
		metrics: metrics,
		log:     log,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Latest returns the artifact of the last successful run, or nil.
func (p *TrendIndexPipeline) Latest() *models.Artifact {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// Run executes one full pass. The returned error wraps
// models.ErrEmptyResult when a horizon had no surviving dates.
func (p *TrendIndexPipeline) Run(ctx context.Context) (artifact *models.Artifact, err error) {
	runAt := p.now().UTC()
	defer func() {
		p.metrics.RecordRun(p.now().Sub(runAt), err)
	}()

	horizons := []Horizon{p.cfg.Primary}
	if p.cfg.Extended != nil {
		horizons = append(horizons, *p.cfg.Extended)
	}

	results := make([]models.AlignmentResult, len(horizons))
	g, gctx := errgroup.WithContext(ctx)
	for i, h := range horizons {
		g.Go(func() error {
			res, err := p.runHorizon(gctx, h, runAt)
			if err != nil {
				return fmt.Errorf("horizon %s: %w", h.Name, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	primary := alignment.Assemble(results[0])
	var extended *models.Columns
	if len(results) > 1 {
		cols := alignment.Assemble(results[1])
		extended = &cols
	}
	artifact = alignment.BuildArtifact(primary, extended, p.cfg.Keywords, runAt)

	if err := p.writer.Write(ctx, artifact); err != nil {
		return nil, fmt.Errorf("write artifact: %w", err)
	}

	p.mu.Lock()
	p.last = artifact
	p.mu.Unlock()

	p.storeRuns(ctx, horizons, results, runAt)
	p.publish(ctx, artifact)
	p.logSummary(artifact, results[0])

	return artifact, nil
}

func (p *TrendIndexPipeline) runHorizon(ctx context.Context, h Horizon, runAt time.Time) (models.AlignmentResult, error) {
	fromT, toT := util.LookbackWindow(runAt, h.Days)
	from, to := models.DateOf(fromT), models.DateOf(toT)
	log := p.log.With(applogger.String("horizon", h.Name))

	prices, err := p.prices.Fetch(ctx, from, to)
	p.metrics.RecordFetch("price", err)
	if err != nil {
		return models.AlignmentResult{}, fmt.Errorf("fetch prices: %w", err)
	}
	log.Info("prices fetched", applogger.Int("points", prices.Len()))

	normalizer := alignment.NewNormalizer(p.cfg.Formats, models.DateOf(runAt))

	var scores models.Series
	if p.cfg.TrendMode == TrendModeCSV {
		scores, err = p.csvScores(ctx, h, normalizer)
		if err != nil {
			return models.AlignmentResult{}, err
		}
	} else {
		scores = p.keywordScores(ctx, log, from, to, normalizer)
	}
	log.Info("trend index built", applogger.Int("points", scores.Len()))

	result, err := alignment.Align(prices, scores, p.cfg.Join)
	if err != nil {
		return models.AlignmentResult{}, err
	}

	last := result.Points[result.Len()-1]
	p.metrics.RecordAlignment(h.Name, result.Len(), result.Defaulted(), last.Price, last.Score)
	log.Info("series aligned",
		applogger.Int("points", result.Len()),
		applogger.Int("defaulted", result.Defaulted()),
		applogger.Int("tolerance_days", p.cfg.Join.ToleranceDays),
		applogger.String("policy", p.cfg.Join.Policy.Mode.String()),
	)
	return result, nil
}

func (p *TrendIndexPipeline) csvScores(ctx context.Context, h Horizon, n *alignment.Normalizer) (models.Series, error) {
	if p.csv == nil {
		return models.Series{}, fmt.Errorf("%w: no csv reader configured", models.ErrSourceUnavailable)
	}
	table, err := p.csv.Read(ctx, h.CSVPath)
	p.metrics.RecordFetch("csv", err)
	if err != nil {
		return models.Series{}, fmt.Errorf("read trends: %w", err)
	}

	series, skipped := alignment.KeywordSeriesFromTable(table, n)
	p.metrics.RecordSkipped("csv", skipped)
	if skipped > 0 {
		p.log.Debug("csv records skipped", applogger.String("path", h.CSVPath), applogger.Int("skipped", skipped))
	}
	return alignment.Aggregate(series), nil
}

// keywordScores fetches every keyword concurrently. A keyword that fails or
// yields no usable points is dropped and the rest are still aggregated.
func (p *TrendIndexPipeline) keywordScores(ctx context.Context, log *applogger.Logger, from, to models.Date, n *alignment.Normalizer) models.Series {
	if p.trends == nil {
		log.Warn("no trend source configured, every point takes the default score")
		return models.Series{}
	}

	collected := make([]models.KeywordSeries, len(p.cfg.Keywords))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Concurrency)

	for i, kw := range p.cfg.Keywords {
		g.Go(func() error {
			raw, err := p.trends.Fetch(gctx, kw, from, to)
			p.metrics.RecordFetch("trend", err)
			if err != nil {
				p.metrics.RecordKeywordDropped(kw)
				log.Warn("keyword dropped", applogger.String("keyword", kw), applogger.Error(err))
				return nil
			}

			ks, skipped := alignment.BuildKeywordSeries(kw, raw, n)
			p.metrics.RecordSkipped("trend", skipped)
			if skipped > 0 {
				log.Debug("trend records skipped", applogger.String("keyword", kw), applogger.Int("skipped", skipped))
			}
			if ks.Series.IsEmpty() {
				p.metrics.RecordKeywordDropped(kw)
				log.Warn("keyword dropped", applogger.String("keyword", kw), applogger.String("reason", "no usable points"))
				return nil
			}

			log.Debug("keyword fetched", applogger.String("keyword", kw), applogger.Int("points", ks.Series.Len()))
			collected[i] = ks
			return nil
		})
	}
	_ = g.Wait()

	kept := make([]models.KeywordSeries, 0, len(collected))
	for _, ks := range collected {
		if !ks.Series.IsEmpty() {
			kept = append(kept, ks)
		}
	}
	if len(kept) == 0 && len(p.cfg.Keywords) > 0 {
		log.Warn("all keywords dropped, every point takes the default score")
	}
	return alignment.Aggregate(kept)
}

func (p *TrendIndexPipeline) storeRuns(ctx context.Context, horizons []Horizon, results []models.AlignmentResult, runAt time.Time) {
	if p.store == nil {
		return
	}
	for i, h := range horizons {
		run := models.HorizonRun{
			Horizon:  h.Name,
			RunAt:    runAt,
			Keywords: p.cfg.Keywords,
			Result:   results[i],
		}
		if err := p.store.StoreRun(ctx, run); err != nil {
			p.metrics.RecordSinkError("clickhouse")
			p.log.Warn("point store write failed", applogger.String("horizon", h.Name), applogger.Error(err))
		}
	}
}

func (p *TrendIndexPipeline) publish(ctx context.Context, a *models.Artifact) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.Publish(ctx, a); err != nil {
		p.metrics.RecordSinkError("kafka")
		p.log.Warn("artifact publish failed", applogger.Error(err))
	}
}

func (p *TrendIndexPipeline) logSummary(a *models.Artifact, primary models.AlignmentResult) {
	first, last := primary.Points[0], primary.Points[primary.Len()-1]
	p.log.Info("run complete",
		applogger.String("from", first.Date.String()),
		applogger.String("to", last.Date.String()),
		applogger.Int("points", primary.Len()),
		applogger.Float64("latest_price", last.Price),
		applogger.Float64("latest_index", last.Score),
		applogger.Bool("extended", a.HasExtended()),
	)
}

// IsEmptyResult reports whether err means no dates survived alignment.
func IsEmptyResult(err error) bool {
	return errors.Is(err, models.ErrEmptyResult)
}
