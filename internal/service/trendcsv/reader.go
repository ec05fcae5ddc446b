// Package trendcsv reads Google Trends style CSV exports.
package trendcsv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"TrendPull/internal/domain/models"
	drepo "TrendPull/internal/domain/repository"
)

// Reader implements repository.CSVTrendSource.
//
// An export may open with a short preamble ("Category: All categories" and
// a blank line). The header is the first record with at least two fields
// after skipRows records have been discarded.
type Reader struct {
	skipRows int
}

var _ drepo.CSVTrendSource = (*Reader)(nil)

// NewReader creates a CSV trend reader.
func NewReader(skipRows int) *Reader {
	return &Reader{skipRows: skipRows}
}

// Read loads the table at path.
func (r *Reader) Read(ctx context.Context, path string) (models.TrendTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.TrendTable{}, fmt.Errorf("%w: open %s: %v", models.ErrSourceUnavailable, path, err)
	}
	defer f.Close()

	table, err := r.Parse(ctx, f)
	if err != nil {
		return models.TrendTable{}, fmt.Errorf("%s: %w", path, err)
	}
	return table, nil
}

// Parse reads a table from any reader.
func (r *Reader) Parse(ctx context.Context, src io.Reader) (models.TrendTable, error) {
	cr := csv.NewReader(src)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	var table models.TrendTable
	skipped := 0
	for {
		if err := ctx.Err(); err != nil {
			return models.TrendTable{}, err
		}

		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return models.TrendTable{}, fmt.Errorf("%w: csv: %v", models.ErrSourceUnavailable, err)
		}

		if skipped < r.skipRows {
			skipped++
			continue
		}

		if table.Columns == nil {
			if len(rec) < 2 {
				continue
			}
			table.Columns = headerNames(rec)
			continue
		}

		dateText := strings.TrimSpace(rec[0])
		if dateText == "" {
			continue
		}
		values := make([]string, len(table.Columns)-1)
		for i := range values {
			if i+1 < len(rec) {
				values[i] = strings.TrimSpace(rec[i+1])
			}
		}
		table.Rows = append(table.Rows, models.TrendRow{DateText: dateText, Values: values})
	}

	if table.Columns == nil {
		return models.TrendTable{}, fmt.Errorf("%w: csv has no header row", models.ErrSourceUnavailable)
	}
	return table, nil
}

// headerNames trims the region suffix Google appends, "Bitcoin: (Worldwide)".
func headerNames(rec []string) []string {
	out := make([]string, len(rec))
	for i, h := range rec {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if idx := strings.Index(h, ": ("); idx > 0 {
			h = h[:idx]
		}
		out[i] = h
	}
	return out
}
