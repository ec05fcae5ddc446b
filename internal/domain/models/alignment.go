package models

import (
	"math"
	"time"
)

// UnmatchedDistance is the distance reported for points that carry the
// default score because no secondary date was within tolerance.
const UnmatchedDistance = math.MaxInt32

// AlignedPoint is one row of the joined output.
type AlignedPoint struct {
	Date     Date
	Price    float64
	Score    float64
	Distance int  // days between Date and the matched score date
	Matched  bool // false when Score is the missing-policy default
}

// AlignmentResult is the ordered, duplicate-free output of the joiner.
type AlignmentResult struct {
	Points []AlignedPoint
}

// Len returns the number of aligned points.
func (r AlignmentResult) Len() int { return len(r.Points) }

// Defaulted counts the points that took the missing-policy default.
func (r AlignmentResult) Defaulted() int {
	n := 0
	for _, p := range r.Points {
		if !p.Matched {
			n++
		}
	}
	return n
}

// Columns is an AlignmentResult flattened into parallel arrays.
type Columns struct {
	Dates  []string
	Prices []float64
	Scores []float64
}

// Artifact is the persisted JSON document.
type Artifact struct {
	Dates       []string  `json:"dates"`
	Prices      []float64 `json:"btc_prices"`
	TrendIndex  []float64 `json:"trend_index"`
	LastUpdated string    `json:"last_updated"`
	Keywords    []string  `json:"keywords"`

	Dates12m      []string  `json:"dates_12m,omitempty"`
	Prices12m     []float64 `json:"btc_prices_12m,omitempty"`
	TrendIndex12m []float64 `json:"trend_index_12m,omitempty"`
}

// HasExtended reports whether the artifact carries the extended horizon.
func (a *Artifact) HasExtended() bool { return len(a.Dates12m) > 0 }

// RawTrendPoint is one unparsed record from a trend provider.
type RawTrendPoint struct {
	DateText string
	Value    string
}

// TrendTable is an unparsed CSV export: one date column followed by one
// value column per keyword.
type TrendTable struct {
	Columns []string
	Rows    []TrendRow
}

// TrendRow is one data row of a TrendTable.
type TrendRow struct {
	DateText string
	Values   []string
}

// HorizonRun describes a finished pipeline run for one horizon.
type HorizonRun struct {
	Horizon  string
	RunAt    time.Time
	Keywords []string
	Result   AlignmentResult
}
