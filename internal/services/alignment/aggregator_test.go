package alignment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrendPull/internal/domain/models"
)

func day(s string) models.Date {
	d, err := models.ParseISODate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func kw(name string, values map[string]float64) models.KeywordSeries {
	m := make(map[models.Date]float64, len(values))
	for k, v := range values {
		m[day(k)] = v
	}
	return models.KeywordSeries{Keyword: name, Series: models.NewSeries(m)}
}

func TestAggregateRounding(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"exact mean", []float64{10, 20, 15}, 15.0},
		{"half", []float64{10, 21}, 15.5},
		{"rounds half up", []float64{10, 10.5}, 10.3},
		{"repeating", []float64{1, 1, 2}, 1.3},
		{"single", []float64{42}, 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := make([]models.KeywordSeries, 0, len(tt.values))
			for i, v := range tt.values {
				input = append(input, kw(string(rune('a'+i)), map[string]float64{"2024-01-01": v}))
			}
			got := Aggregate(input)
			require.Equal(t, 1, got.Len())
			assert.Equal(t, tt.want, got.At(0).Value)
		})
	}
}

func TestAggregatePartialCoverage(t *testing.T) {
	a := kw("Bitcoin", map[string]float64{"2024-01-01": 10, "2024-01-08": 30})
	b := kw("Crypto", map[string]float64{"2024-01-01": 20})

	got := Aggregate([]models.KeywordSeries{a, b})

	require.Equal(t, 2, got.Len())
	v, ok := got.Value(day("2024-01-01"))
	require.True(t, ok)
	assert.Equal(t, 15.0, v)
	v, ok = got.Value(day("2024-01-08"))
	require.True(t, ok)
	assert.Equal(t, 30.0, v)
}

func TestAggregateOrderIndependent(t *testing.T) {
	a := kw("a", map[string]float64{"2024-01-01": 0.1, "2024-01-02": 33})
	b := kw("b", map[string]float64{"2024-01-01": 0.2, "2024-01-03": 7})
	c := kw("c", map[string]float64{"2024-01-01": 0.3, "2024-01-02": 34})

	want := Aggregate([]models.KeywordSeries{a, b, c})
	for _, perm := range [][]models.KeywordSeries{{c, b, a}, {b, a, c}, {a, c, b}, {c, a, b}} {
		assert.Equal(t, want, Aggregate(perm))
	}
}

func TestAggregateEmpty(t *testing.T) {
	assert.True(t, Aggregate(nil).IsEmpty())
	assert.True(t, Aggregate([]models.KeywordSeries{{Keyword: "x"}}).IsEmpty())
}

func TestParseScore(t *testing.T) {
	v, err := ParseScore("<1")
	require.NoError(t, err)
	assert.Equal(t, 0.0, v)

	v, err = ParseScore(" 73 ")
	require.NoError(t, err)
	assert.Equal(t, 73.0, v)

	v, err = ParseScore("12.5")
	require.NoError(t, err)
	assert.Equal(t, 12.5, v)

	_, err = ParseScore("")
	assert.ErrorIs(t, err, models.ErrParse)
	_, err = ParseScore("n/a")
	assert.ErrorIs(t, err, models.ErrParse)

	v, err = ParseScore("< 0.5")
	require.NoError(t, err)
	assert.Equal(t, 0.0, v)

	for _, in := range []string{"<", "<garbage", "< ", "<<1"} {
		_, err = ParseScore(in)
		assert.ErrorIsf(t, err, models.ErrParse, "input %q", in)
	}
}

func TestBuildKeywordSeriesSkipsBadRecords(t *testing.T) {
	n := NewNormalizer(nil, models.NewDate(2025, time.January, 1))
	raw := []models.RawTrendPoint{
		{DateText: "Jan 5 – 11, 2025", Value: "40"},
		{DateText: "Jan 12 – 18, 2025", Value: "<1"},
		{DateText: "garbage", Value: "10"},
		{DateText: "Jan 19 – 25, 2025", Value: ""},
		{DateText: "2025-01-05", Value: "99"},
	}

	ks, skipped := BuildKeywordSeries("Bitcoin", raw, n)

	assert.Equal(t, "Bitcoin", ks.Keyword)
	assert.Equal(t, 3, skipped)
	require.Equal(t, 2, ks.Series.Len())
	assert.Equal(t, models.Point{Date: day("2025-01-05"), Value: 40}, ks.Series.At(0))
	assert.Equal(t, models.Point{Date: day("2025-01-12"), Value: 0}, ks.Series.At(1))
}

func TestKeywordSeriesFromTable(t *testing.T) {
	n := NewNormalizer(nil, models.NewDate(2025, time.January, 1))

	t.Run("multi column", func(t *testing.T) {
		table := models.TrendTable{
			Columns: []string{"Week", "Bitcoin", "Crypto"},
			Rows: []models.TrendRow{
				{DateText: "2024-01-07", Values: []string{"10", "21"}},
				{DateText: "2024-01-14", Values: []string{"<1", ""}},
			},
		}
		series, skipped := KeywordSeriesFromTable(table, n)
		require.Len(t, series, 2)
		assert.Equal(t, "Bitcoin", series[0].Keyword)
		assert.Equal(t, 1, skipped)

		agg := Aggregate(series)
		v, _ := agg.Value(day("2024-01-07"))
		assert.Equal(t, 15.5, v)
		v, _ = agg.Value(day("2024-01-14"))
		assert.Equal(t, 0.0, v)
	})

	t.Run("pre averaged two column", func(t *testing.T) {
		table := models.TrendTable{
			Columns: []string{"date", "index"},
			Rows: []models.TrendRow{
				{DateText: "1/7/2024", Values: []string{"44.5"}},
			},
		}
		series, skipped := KeywordSeriesFromTable(table, n)
		require.Len(t, series, 1)
		assert.Zero(t, skipped)
		assert.Equal(t, 44.5, Aggregate(series).At(0).Value)
	})
}
