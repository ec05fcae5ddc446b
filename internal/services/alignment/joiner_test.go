package alignment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrendPull/internal/domain/models"
)

func series(values map[string]float64) models.Series {
	m := make(map[models.Date]float64, len(values))
	for k, v := range values {
		m[day(k)] = v
	}
	return models.NewSeries(m)
}

func TestAlignScenario(t *testing.T) {
	primary := series(map[string]float64{"2024-01-01": 100, "2024-01-08": 110})
	secondary := series(map[string]float64{"2024-01-02": 40})

	t.Run("tolerance 7 is boundary inclusive", func(t *testing.T) {
		got, err := Align(primary, secondary, JoinOptions{ToleranceDays: 7, Policy: IncludeWith(50)})
		require.NoError(t, err)
		assert.Equal(t, []models.AlignedPoint{
			{Date: day("2024-01-01"), Price: 100, Score: 40, Distance: 1, Matched: true},
			{Date: day("2024-01-08"), Price: 110, Score: 40, Distance: 6, Matched: true},
		}, got.Points)
	})

	t.Run("tolerance 3 include with default", func(t *testing.T) {
		got, err := Align(primary, secondary, JoinOptions{ToleranceDays: 3, Policy: IncludeWith(50)})
		require.NoError(t, err)
		assert.Equal(t, []models.AlignedPoint{
			{Date: day("2024-01-01"), Price: 100, Score: 40, Distance: 1, Matched: true},
			{Date: day("2024-01-08"), Price: 110, Score: 50, Distance: models.UnmatchedDistance},
		}, got.Points)
		assert.Equal(t, 1, got.Defaulted())
	})

	t.Run("tolerance 3 exclude", func(t *testing.T) {
		got, err := Align(primary, secondary, JoinOptions{ToleranceDays: 3, Policy: Exclude()})
		require.NoError(t, err)
		assert.Equal(t, []models.AlignedPoint{
			{Date: day("2024-01-01"), Price: 100, Score: 40, Distance: 1, Matched: true},
		}, got.Points)
	})
}

func TestAlignToleranceBoundary(t *testing.T) {
	primary := series(map[string]float64{"2024-01-01": 100, "2024-01-09": 110})
	secondary := series(map[string]float64{"2024-01-02": 40})

	got, err := Align(primary, secondary, JoinOptions{ToleranceDays: 7, Policy: Exclude()})
	require.NoError(t, err)
	require.Equal(t, 2, got.Len())
	assert.Equal(t, 7, got.Points[1].Distance)

	got, err = Align(primary, secondary, JoinOptions{ToleranceDays: 6, Policy: Exclude()})
	require.NoError(t, err)
	assert.Equal(t, 1, got.Len())
}

func TestAlignExactness(t *testing.T) {
	primary := series(map[string]float64{"2024-03-01": 1, "2024-03-02": 2, "2024-03-03": 3})
	secondary := series(map[string]float64{"2024-03-01": 11.5, "2024-03-02": 0, "2024-03-03": 99})

	got, err := Align(primary, secondary, DefaultJoinOptions())
	require.NoError(t, err)
	for _, p := range got.Points {
		want, _ := secondary.Value(p.Date)
		assert.Equal(t, 0, p.Distance)
		assert.Equal(t, want, p.Score)
		assert.True(t, p.Matched)
	}
}

func TestAlignTieBreakPrefersEarlier(t *testing.T) {
	primary := series(map[string]float64{"2024-01-05": 100})
	secondary := series(map[string]float64{"2024-01-03": 10, "2024-01-07": 70})

	for i := 0; i < 10; i++ {
		got, err := Align(primary, secondary, DefaultJoinOptions())
		require.NoError(t, err)
		require.Equal(t, 1, got.Len())
		assert.Equal(t, 10.0, got.Points[0].Score)
		assert.Equal(t, 2, got.Points[0].Distance)
	}
}

func TestAlignMinimality(t *testing.T) {
	primary := series(map[string]float64{
		"2024-01-01": 1, "2024-01-04": 2, "2024-01-10": 3, "2024-01-20": 4, "2024-02-15": 5,
	})
	secondary := series(map[string]float64{"2024-01-02": 10, "2024-01-09": 20, "2024-01-16": 30, "2024-02-13": 40})

	got, err := Align(primary, secondary, JoinOptions{ToleranceDays: 30, Policy: Exclude()})
	require.NoError(t, err)
	require.Equal(t, primary.Len(), got.Len())

	for _, p := range got.Points {
		for _, cand := range secondary.Points() {
			assert.LessOrEqual(t, p.Distance, p.Date.DaysTo(cand.Date))
		}
	}
}

func TestAlignCompletenessAndExclusion(t *testing.T) {
	primary := series(map[string]float64{
		"2024-01-01": 1, "2024-01-15": 2, "2024-02-01": 3, "2024-03-01": 4,
	})
	secondary := series(map[string]float64{"2024-01-03": 10, "2024-02-28": 20})

	for _, tol := range []int{0, 1, 3, 7, 14} {
		inc, err := Align(primary, secondary, JoinOptions{ToleranceDays: tol, Policy: IncludeWith(50)})
		require.NoError(t, err)
		assert.Equal(t, primary.Len(), inc.Len())

		exc, err := Align(primary, secondary, JoinOptions{ToleranceDays: tol, Policy: Exclude()})
		if err != nil {
			assert.ErrorIs(t, err, models.ErrEmptyResult)
			continue
		}
		for _, p := range exc.Points {
			assert.LessOrEqual(t, p.Distance, tol)
		}
	}
}

func TestAlignOrderedUnique(t *testing.T) {
	primary := series(map[string]float64{"2024-01-03": 3, "2024-01-01": 1, "2024-01-02": 2})
	got, err := Align(primary, models.Series{}, DefaultJoinOptions())
	require.NoError(t, err)
	require.Equal(t, 3, got.Len())
	for i := 1; i < got.Len(); i++ {
		assert.Less(t, got.Points[i-1].Date, got.Points[i].Date)
	}
	assert.Equal(t, 3, got.Defaulted())
}

func TestAlignEmptyResult(t *testing.T) {
	_, err := Align(models.Series{}, series(map[string]float64{"2024-01-01": 1}), DefaultJoinOptions())
	assert.ErrorIs(t, err, models.ErrEmptyResult)

	_, err = Align(series(map[string]float64{"2024-01-01": 1}), models.Series{}, JoinOptions{Policy: Exclude()})
	assert.ErrorIs(t, err, models.ErrEmptyResult)
}

func TestAlignDoesNotMutateInputs(t *testing.T) {
	primary := series(map[string]float64{"2024-01-01": 100})
	secondary := series(map[string]float64{"2024-01-02": 40})
	before := secondary.Points()

	_, err := Align(primary, secondary, DefaultJoinOptions())
	require.NoError(t, err)
	assert.Equal(t, before, secondary.Points())
}

func TestParsePolicyMode(t *testing.T) {
	m, err := ParsePolicyMode("exclude_unmatched")
	require.NoError(t, err)
	assert.Equal(t, ExcludeUnmatched, m)

	m, err = ParsePolicyMode("")
	require.NoError(t, err)
	assert.Equal(t, IncludeWithDefault, m)

	_, err = ParsePolicyMode("sometimes")
	assert.Error(t, err)
}
