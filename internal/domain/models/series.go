package models

import "sort"

// Point is one (date, value) entry of a Series.
type Point struct {
	Date  Date
	Value float64
}

// Series is an immutable date-indexed sequence of values, kept sorted
// ascending by date with unique keys. Used for both price series and
// score series.
type Series struct {
	points []Point
}

// NewSeries builds a Series from a date->value map.
func NewSeries(values map[Date]float64) Series {
	points := make([]Point, 0, len(values))
	for d, v := range values {
		points = append(points, Point{Date: d, Value: v})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })
	return Series{points: points}
}

// SeriesFromPoints builds a Series from points in any order. When a date
// repeats, the first occurrence is kept.
func SeriesFromPoints(points []Point) Series {
	cp := make([]Point, len(points))
	copy(cp, points)
	sort.SliceStable(cp, func(i, j int) bool { return cp[i].Date < cp[j].Date })

	out := cp[:0]
	for i, p := range cp {
		if i > 0 && p.Date == cp[i-1].Date {
			continue
		}
		out = append(out, p)
	}
	return Series{points: out}
}

// Len returns the number of points.
func (s Series) Len() int { return len(s.points) }

// IsEmpty reports whether the series has no points.
func (s Series) IsEmpty() bool { return len(s.points) == 0 }

// Points returns a copy of the points in ascending date order.
func (s Series) Points() []Point {
	cp := make([]Point, len(s.points))
	copy(cp, s.points)
	return cp
}

// At returns the i-th point in ascending order.
func (s Series) At(i int) Point { return s.points[i] }

// First and Last return the boundary points; callers check IsEmpty first.
func (s Series) First() Point { return s.points[0] }

func (s Series) Last() Point { return s.points[len(s.points)-1] }

// Value looks up the value at exactly d.
func (s Series) Value(d Date) (float64, bool) {
	i := s.search(d)
	if i < len(s.points) && s.points[i].Date == d {
		return s.points[i].Value, true
	}
	return 0, false
}

// Nearest returns the point closest to d and its distance in days. When two
// points are equally distant the earlier one wins. ok is false for an
// empty series.
func (s Series) Nearest(d Date) (p Point, distance int, ok bool) {
	if len(s.points) == 0 {
		return Point{}, 0, false
	}

	i := s.search(d)
	switch {
	case i == 0:
		p = s.points[0]
	case i == len(s.points):
		p = s.points[i-1]
	default:
		before, after := s.points[i-1], s.points[i]
		if d.DaysTo(after.Date) < d.DaysTo(before.Date) {
			p = after
		} else {
			p = before
		}
	}
	return p, d.DaysTo(p.Date), true
}

// Between returns the sub-series with from <= date <= to.
func (s Series) Between(from, to Date) Series {
	lo := s.search(from)
	hi := s.search(to + 1)
	if lo >= hi {
		return Series{}
	}
	out := make([]Point, hi-lo)
	copy(out, s.points[lo:hi])
	return Series{points: out}
}

// search returns the index of the first point with Date >= d.
func (s Series) search(d Date) int {
	return sort.Search(len(s.points), func(i int) bool { return s.points[i].Date >= d })
}

// KeywordSeries is the score series of a single search term.
type KeywordSeries struct {
	Keyword string
	Series  Series
}
