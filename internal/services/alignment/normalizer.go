// Package alignment holds the date normalization, keyword aggregation,
// temporal join and output assembly stages. Every function here is pure:
// inputs are never mutated and no clock or I/O is touched.
package alignment

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"TrendPull/internal/domain/models"
)

// DateFormat is one candidate layout for the normalizer.
type DateFormat struct {
	Name    string
	Layout  string
	HasYear bool
}

// DefaultFormats is the resolution order for ambiguous input. It is part of
// the output contract: "01/02/03" always reads as 2003-01-02.
var DefaultFormats = []DateFormat{
	{Name: "iso", Layout: "2006-01-02", HasYear: true},
	{Name: "us", Layout: "1/2/2006", HasYear: true},
	{Name: "us_short", Layout: "1/2/06", HasYear: true},
	{Name: "year_month", Layout: "2006-01", HasYear: true},
	{Name: "month_abbr_day_year", Layout: "Jan 2, 2006", HasYear: true},
	{Name: "month_full_day_year", Layout: "January 2, 2006", HasYear: true},
	{Name: "month_abbr_day", Layout: "Jan 2", HasYear: false},
	{Name: "month_full_day", Layout: "January 2", HasYear: false},
}

// FormatsByName resolves configured format names against DefaultFormats,
// keeping the configured order. An empty list yields DefaultFormats.
func FormatsByName(names []string) ([]DateFormat, error) {
	if len(names) == 0 {
		return DefaultFormats, nil
	}
	known := make(map[string]DateFormat, len(DefaultFormats))
	for _, f := range DefaultFormats {
		known[f.Name] = f
	}
	out := make([]DateFormat, 0, len(names))
	for _, n := range names {
		f, ok := known[n]
		if !ok {
			return nil, fmt.Errorf("unknown date format %q", n)
		}
		out = append(out, f)
	}
	return out, nil
}

// rangeSeps are tried in order; the first that matches splits a range.
// Spaced hyphens win over bare ones so "2024-01-07 - 2024-01-13" splits
// between the dates, not inside the first one.
var rangeSeps = []*regexp.Regexp{
	regexp.MustCompile(`[\x{2013}\x{2014}]`),
	regexp.MustCompile(`\s-\s`),
	regexp.MustCompile(`\s-|-\s`),
	regexp.MustCompile(`-`),
}

var trailingYear = regexp.MustCompile(`(\d{4})\s*$`)

// Normalizer turns heterogeneous date text into models.Date.
type Normalizer struct {
	formats   []DateFormat
	reference models.Date
}

// NewNormalizer creates a normalizer. reference supplies the year for
// inputs that carry none.
func NewNormalizer(formats []DateFormat, reference models.Date) *Normalizer {
	if len(formats) == 0 {
		formats = DefaultFormats
	}
	return &Normalizer{formats: formats, reference: reference}
}

// Normalize parses raw using the first format that accepts it. Text that
// no format accepts as a whole is read as a range such as "Jan 5 – 11, 2025"
// or "Jan 5-11, 2025": only the part before the separator is parsed, and a
// trailing year on the discarded part still serves as the year hint.
func (n *Normalizer) Normalize(raw string) (models.Date, error) {
	text := cleanSpaces(raw)
	if text == "" {
		return 0, fmt.Errorf("%w: empty date", models.ErrParse)
	}

	d, err := n.parse(text, n.reference.Year())
	if err == nil {
		return d, nil
	}

	for _, sep := range rangeSeps {
		loc := sep.FindStringIndex(text)
		if loc == nil {
			continue
		}
		year := n.reference.Year()
		if m := trailingYear.FindStringSubmatch(text[loc[1]:]); m != nil {
			year, _ = strconv.Atoi(m[1])
		}
		head := strings.TrimSpace(text[:loc[0]])
		if d, err := n.parse(head, year); err == nil {
			return d, nil
		}
		break
	}
	return 0, fmt.Errorf("%w: unrecognized date %q", models.ErrParse, raw)
}

// parse tries every format against text. year fills in formats without one;
// a day that does not exist in that year is rejected.
func (n *Normalizer) parse(text string, year int) (models.Date, error) {
	for _, f := range n.formats {
		t, err := time.Parse(f.Layout, text)
		if err != nil {
			continue
		}
		if !f.HasYear {
			month, day := t.Month(), t.Day()
			t = time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
			if t.Month() != month || t.Day() != day {
				return 0, fmt.Errorf("%w: %s %d does not exist in %d", models.ErrParse, month, day, year)
			}
		}
		return models.DateOf(t), nil
	}
	return 0, fmt.Errorf("%w: unrecognized date %q", models.ErrParse, text)
}

// cleanSpaces folds unicode spaces (thin, no-break) to single ASCII spaces.
func cleanSpaces(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return ' '
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}
