package alignment

import (
	"fmt"
	"strings"

	"TrendPull/internal/domain/models"
)

// PolicyMode selects what happens to a primary date with no score in range.
type PolicyMode int

const (
	// IncludeWithDefault keeps the date and uses MissingPolicy.Default.
	IncludeWithDefault PolicyMode = iota
	// ExcludeUnmatched drops the date.
	ExcludeUnmatched
)

// DefaultMissingScore is the score used for unmatched dates unless configured.
const DefaultMissingScore = 50.0

// DefaultToleranceDays bounds the nearest-neighbour search unless configured.
const DefaultToleranceDays = 7

// MissingPolicy decides the fate of unmatched primary dates.
type MissingPolicy struct {
	Mode    PolicyMode
	Default float64
}

// IncludeWith returns an IncludeWithDefault policy.
func IncludeWith(def float64) MissingPolicy {
	return MissingPolicy{Mode: IncludeWithDefault, Default: def}
}

// Exclude returns an ExcludeUnmatched policy.
func Exclude() MissingPolicy {
	return MissingPolicy{Mode: ExcludeUnmatched}
}

// ParsePolicyMode maps the configuration spelling to a PolicyMode.
func ParsePolicyMode(s string) (PolicyMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "include", "include_with_default":
		return IncludeWithDefault, nil
	case "exclude", "exclude_unmatched":
		return ExcludeUnmatched, nil
	default:
		return 0, fmt.Errorf("unknown missing policy %q", s)
	}
}

func (m PolicyMode) String() string {
	if m == ExcludeUnmatched {
		return "exclude_unmatched"
	}
	return "include_with_default"
}

// JoinOptions parameterizes Align.
type JoinOptions struct {
	ToleranceDays int
	Policy        MissingPolicy
}

// DefaultJoinOptions is a 7-day window with a 50.0 default score.
func DefaultJoinOptions() JoinOptions {
	return JoinOptions{ToleranceDays: DefaultToleranceDays, Policy: IncludeWith(DefaultMissingScore)}
}

// Align joins every primary date with a secondary score. An exact date
// match wins; otherwise the nearest secondary date is used when it lies
// within ToleranceDays (inclusive), preferring the earlier date on ties.
// Dates with no qualifying score follow opts.Policy. ErrEmptyResult is
// returned when nothing survives.
func Align(primary, secondary models.Series, opts JoinOptions) (models.AlignmentResult, error) {
	tolerance := opts.ToleranceDays
	if tolerance < 0 {
		tolerance = 0
	}

	points := make([]models.AlignedPoint, 0, primary.Len())
	for i := 0; i < primary.Len(); i++ {
		p := primary.At(i)

		if v, ok := secondary.Value(p.Date); ok {
			points = append(points, models.AlignedPoint{Date: p.Date, Price: p.Value, Score: v, Matched: true})
			continue
		}

		if near, dist, ok := secondary.Nearest(p.Date); ok && dist <= tolerance {
			points = append(points, models.AlignedPoint{
				Date:     p.Date,
				Price:    p.Value,
				Score:    near.Value,
				Distance: dist,
				Matched:  true,
			})
			continue
		}

		if opts.Policy.Mode == IncludeWithDefault {
			points = append(points, models.AlignedPoint{
				Date:     p.Date,
				Price:    p.Value,
				Score:    opts.Policy.Default,
				Distance: models.UnmatchedDistance,
			})
		}
	}

	result := models.AlignmentResult{Points: points}
	if len(points) == 0 {
		return result, models.ErrEmptyResult
	}
	return result, nil
}
