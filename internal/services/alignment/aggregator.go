package alignment

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"TrendPull/internal/domain/models"
)

// ScorePrecision is the number of decimals kept by Aggregate.
const ScorePrecision = 1

// ParseScore reads a raw trend value. Placeholders such as "<1" mean a
// negligible score and read as 0; the bound after "<" must still be a number.
func ParseScore(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("%w: empty score", models.ErrParse)
	}
	bound, below := strings.CutPrefix(s, "<")
	d, err := decimal.NewFromString(strings.TrimSpace(bound))
	if err != nil {
		return 0, fmt.Errorf("%w: score %q", models.ErrParse, raw)
	}
	if below {
		return 0, nil
	}
	return d.InexactFloat64(), nil
}

// BuildKeywordSeries normalizes raw provider records into a KeywordSeries.
// Records with an unparseable date or value are skipped and counted. If a
// date repeats, the first record for it wins.
func BuildKeywordSeries(keyword string, raw []models.RawTrendPoint, n *Normalizer) (models.KeywordSeries, int) {
	points := make([]models.Point, 0, len(raw))
	skipped := 0
	seen := make(map[models.Date]struct{}, len(raw))

	for _, r := range raw {
		d, err := n.Normalize(r.DateText)
		if err != nil {
			skipped++
			continue
		}
		v, err := ParseScore(r.Value)
		if err != nil {
			skipped++
			continue
		}
		if _, dup := seen[d]; dup {
			skipped++
			continue
		}
		seen[d] = struct{}{}
		points = append(points, models.Point{Date: d, Value: v})
	}
	return models.KeywordSeries{Keyword: keyword, Series: models.SeriesFromPoints(points)}, skipped
}

// KeywordSeriesFromTable splits a CSV trend table into one KeywordSeries per
// value column. A two-column table yields a single, already averaged series.
func KeywordSeriesFromTable(table models.TrendTable, n *Normalizer) ([]models.KeywordSeries, int) {
	cols := len(table.Columns) - 1
	if cols < 1 {
		cols = 0
		for _, row := range table.Rows {
			if len(row.Values) > cols {
				cols = len(row.Values)
			}
		}
	}

	raw := make([][]models.RawTrendPoint, cols)
	for _, row := range table.Rows {
		for c := 0; c < cols; c++ {
			if c >= len(row.Values) {
				continue
			}
			raw[c] = append(raw[c], models.RawTrendPoint{DateText: row.DateText, Value: row.Values[c]})
		}
	}

	out := make([]models.KeywordSeries, 0, cols)
	skipped := 0
	for c := 0; c < cols; c++ {
		name := fmt.Sprintf("column_%d", c+1)
		if c+1 < len(table.Columns) && strings.TrimSpace(table.Columns[c+1]) != "" {
			name = strings.TrimSpace(table.Columns[c+1])
		}
		ks, s := BuildKeywordSeries(name, raw[c], n)
		skipped += s
		if ks.Series.IsEmpty() {
			continue
		}
		out = append(out, ks)
	}
	return out, skipped
}

// Aggregate averages keyword series per date. Every date present in at least
// one input appears in the output; its value is the mean of the values
// present for it, rounded half away from zero to ScorePrecision decimals.
// Sums are exact decimals, so input order never changes the result.
func Aggregate(series []models.KeywordSeries) models.Series {
	sums := make(map[models.Date]decimal.Decimal)
	counts := make(map[models.Date]int64)

	for _, ks := range series {
		for i := 0; i < ks.Series.Len(); i++ {
			p := ks.Series.At(i)
			sums[p.Date] = sums[p.Date].Add(decimal.NewFromFloat(p.Value))
			counts[p.Date]++
		}
	}

	out := make(map[models.Date]float64, len(sums))
	for d, sum := range sums {
		mean := sum.Div(decimal.NewFromInt(counts[d])).Round(ScorePrecision)
		out[d] = mean.InexactFloat64()
	}
	return models.NewSeries(out)
}
