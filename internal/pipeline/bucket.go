package pipeline

import (
	"fmt"
	"time"

	"github.com/budgetlens/budgetlens/internal/model"
)

// Granularity is the calendar unit of a bucket.
type Granularity int

const (
	Day Granularity = iota
	Month
)

const monthKeyLayout = "2006-01"

func (g Granularity) String() string {
	if g == Month {
		return "month"
	}
	return "day"
}

// Span is an inclusive calendar range cut into day or month buckets.
// Start and End are truncated to their containing unit.
type Span struct {
	Start       time.Time
	End         time.Time
	Granularity Granularity
}

// NewSpan builds a span from two dates, truncating both to the granularity.
func NewSpan(start, end time.Time, g Granularity) (Span, error) {
	s := Span{Start: truncate(start, g), End: truncate(end, g), Granularity: g}
	if s.End.Before(s.Start) {
		return Span{}, fmt.Errorf("%s span end %s before start %s", g, s.End.Format(model.DateLayout), s.Start.Format(model.DateLayout))
	}
	return s, nil
}

// MonthSpan covers every day of the month containing t.
func MonthSpan(t time.Time) Span {
	first := truncate(t, Month)
	return Span{Start: first, End: first.AddDate(0, 1, -1), Granularity: Day}
}

// TrailingMonths covers the month n months before now through the month of now.
func TrailingMonths(now time.Time, n int) Span {
	cur := truncate(now, Month)
	return Span{Start: cur.AddDate(0, -n, 0), End: cur, Granularity: Month}
}

// Keys returns one key per calendar unit in the span, in order, with no gaps.
func (s Span) Keys() []string {
	keys := make([]string, 0, s.Len())
	for u := s.Start; !u.After(s.End); u = s.next(u) {
		keys = append(keys, s.format(u))
	}
	return keys
}

// Len is the number of calendar units in the span.
func (s Span) Len() int {
	if s.End.Before(s.Start) {
		return 0
	}
	if s.Granularity == Month {
		return (s.End.Year()-s.Start.Year())*12 + int(s.End.Month()-s.Start.Month()) + 1
	}
	return int(s.End.Sub(s.Start).Hours()/24) + 1
}

// KeyOf returns the bucket key of t and whether t falls inside the span.
func (s Span) KeyOf(t time.Time) (string, bool) {
	u := truncate(t, s.Granularity)
	if u.Before(s.Start) || u.After(s.End) {
		return "", false
	}
	return s.format(u), true
}

// KeyOfDate is KeyOf for an upstream date string.
func (s Span) KeyOfDate(date string) (string, bool) {
	t, err := model.ParseDate(date)
	if err != nil {
		return "", false
	}
	return s.KeyOf(t)
}

// Contains reports whether the date string falls inside the span.
func (s Span) Contains(date string) bool {
	_, ok := s.KeyOfDate(date)
	return ok
}

// Units returns the first instant of every bucket in the span.
func (s Span) Units() []time.Time {
	units := make([]time.Time, 0, s.Len())
	for u := s.Start; !u.After(s.End); u = s.next(u) {
		units = append(units, u)
	}
	return units
}

func (s Span) next(u time.Time) time.Time {
	if s.Granularity == Month {
		return u.AddDate(0, 1, 0)
	}
	return u.AddDate(0, 0, 1)
}

func (s Span) format(u time.Time) string {
	if s.Granularity == Month {
		return u.Format(monthKeyLayout)
	}
	return u.Format(model.DateLayout)
}

// truncate maps t to midnight UTC of its calendar day or month.
func truncate(t time.Time, g Granularity) time.Time {
	y, m, d := t.Date()
	if g == Month {
		d = 1
	}
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
