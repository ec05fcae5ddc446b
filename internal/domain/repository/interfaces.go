package repository

import (
	"context"
	"time"

	"TrendPull/internal/domain/models"
)

// PriceSource supplies the daily price series the output is indexed by.
type PriceSource interface {
	Fetch(ctx context.Context, from, to models.Date) (models.Series, error)
}

// TrendSource supplies raw interest records for one keyword.
type TrendSource interface {
	Fetch(ctx context.Context, keyword string, from, to models.Date) ([]models.RawTrendPoint, error)
}

// CSVTrendSource reads a trend export from disk.
type CSVTrendSource interface {
	Read(ctx context.Context, path string) (models.TrendTable, error)
}

// ArtifactWriter persists the final document.
type ArtifactWriter interface {
	Write(ctx context.Context, a *models.Artifact) error
}

// PointStore keeps a history of aligned points per run.
type PointStore interface {
	Init(ctx context.Context) error
	StoreRun(ctx context.Context, run models.HorizonRun) error
	Close() error
}

// ArtifactPublisher announces a fresh artifact to downstream consumers.
type ArtifactPublisher interface {
	Publish(ctx context.Context, a *models.Artifact) error
	Close() error
}

type Metrics interface {
	RecordFetch(source string, err error)
	RecordSkipped(source string, n int)
	RecordKeywordDropped(keyword string)
	RecordAlignment(horizon string, points, defaulted int, lastPrice, lastIndex float64)
	RecordSinkError(sink string)
	RecordRun(d time.Duration, err error)
}
