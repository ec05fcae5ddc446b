package alignment

import (
	"time"

	"TrendPull/internal/domain/models"
)

// Assemble flattens an AlignmentResult into equal-length parallel arrays.
func Assemble(result models.AlignmentResult) models.Columns {
	cols := models.Columns{
		Dates:  make([]string, 0, result.Len()),
		Prices: make([]float64, 0, result.Len()),
		Scores: make([]float64, 0, result.Len()),
	}
	for _, p := range result.Points {
		cols.Dates = append(cols.Dates, p.Date.String())
		cols.Prices = append(cols.Prices, p.Price)
		cols.Scores = append(cols.Scores, p.Score)
	}
	return cols
}

// BuildArtifact lays out the persisted document. extended is optional and
// fills the *_12m triple; the two column sets are copied independently.
func BuildArtifact(primary models.Columns, extended *models.Columns, keywords []string, now time.Time) *models.Artifact {
	a := &models.Artifact{
		Dates:       append([]string{}, primary.Dates...),
		Prices:      append([]float64{}, primary.Prices...),
		TrendIndex:  append([]float64{}, primary.Scores...),
		LastUpdated: now.UTC().Format(time.RFC3339),
		Keywords:    append([]string{}, keywords...),
	}
	if extended != nil {
		a.Dates12m = append([]string{}, extended.Dates...)
		a.Prices12m = append([]float64{}, extended.Prices...)
		a.TrendIndex12m = append([]float64{}, extended.Scores...)
	}
	return a
}
