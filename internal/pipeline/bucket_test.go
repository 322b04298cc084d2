package pipeline

import (
	"strings"
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSpanLenMatchesKeys(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		g     Granularity
		want  int
	}{
		{"single day", day(2024, 4, 1), day(2024, 4, 1), Day, 1},
		{"april", day(2024, 4, 1), day(2024, 4, 30), Day, 30},
		{"leap february", day(2024, 2, 1), day(2024, 2, 29), Day, 29},
		{"across year", day(2023, 12, 30), day(2024, 1, 2), Day, 4},
		{"one month", day(2024, 4, 3), day(2024, 4, 17), Month, 1},
		{"fourteen months", day(2023, 3, 1), day(2024, 4, 30), Month, 14},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSpan(tt.start, tt.end, tt.g)
			if err != nil {
				t.Fatalf("NewSpan: %v", err)
			}
			if got := s.Len(); got != tt.want {
				t.Fatalf("Len() = %d, want %d", got, tt.want)
			}
			if got := len(s.Keys()); got != tt.want {
				t.Fatalf("len(Keys()) = %d, want %d", got, tt.want)
			}
			if got := len(s.Units()); got != tt.want {
				t.Fatalf("len(Units()) = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNewSpanRejectsReversedRange(t *testing.T) {
	_, err := NewSpan(day(2024, 4, 2), day(2024, 4, 1), Day)
	if err == nil {
		t.Fatal("expected error for end before start")
	}
	if !strings.HasPrefix(err.Error(), "day span") {
		t.Fatalf("error = %q, want it to name the granularity", err)
	}
}

func TestMonthSpanKeys(t *testing.T) {
	s := MonthSpan(time.Date(2024, 4, 17, 15, 4, 5, 0, time.UTC))
	keys := s.Keys()
	if len(keys) != 30 {
		t.Fatalf("len(keys) = %d, want 30", len(keys))
	}
	if keys[0] != "2024-04-01" || keys[29] != "2024-04-30" {
		t.Fatalf("keys span %s..%s, want 2024-04-01..2024-04-30", keys[0], keys[29])
	}
	for i := 1; i < len(keys); i++ {
		if keys[i] <= keys[i-1] {
			t.Fatalf("keys not strictly increasing at %d: %s after %s", i, keys[i], keys[i-1])
		}
	}
}

func TestTrailingMonthsKeys(t *testing.T) {
	s := TrailingMonths(day(2024, 2, 10), 3)
	got := s.Keys()
	want := []string{"2023-11", "2023-12", "2024-01", "2024-02"}
	if len(got) != len(want) {
		t.Fatalf("keys = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("keys[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestSpanKeyOfDate(t *testing.T) {
	s := MonthSpan(day(2024, 4, 1))

	if key, ok := s.KeyOfDate("2024-04-15"); !ok || key != "2024-04-15" {
		t.Fatalf("KeyOfDate(2024-04-15) = %q, %v", key, ok)
	}
	for _, d := range []string{"2024-03-31", "2024-05-01", "", "15/04/2024"} {
		if s.Contains(d) {
			t.Fatalf("Contains(%q) = true, want false", d)
		}
	}

	months := TrailingMonths(day(2024, 4, 1), 1)
	if key, ok := months.KeyOfDate("2024-03-31"); !ok || key != "2024-03" {
		t.Fatalf("month KeyOfDate = %q, %v, want 2024-03", key, ok)
	}
}
