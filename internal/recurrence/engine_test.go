package recurrence

import (
	"context"
	"testing"

	"bilancio/internal/core"
)

func dates(ss ...string) []core.Date {
	out := make([]core.Date, len(ss))
	for i, s := range ss {
		out[i] = core.MustDate(s)
	}
	return out
}

func equalDates(a, b []core.Date) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Compare(b[i]) != 0 {
			return false
		}
	}
	return true
}

func TestNormalize(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		in   core.Rule
		want core.Rule
	}{
		{
			name: "valid rule untouched",
			in:   core.Rule{Every: core.Monthly, Interval: 2, TimesPerPeriod: 1},
			want: core.Rule{Every: core.Monthly, Interval: 2, TimesPerPeriod: 1},
		},
		{
			name: "zero interval coerced to one",
			in:   core.Rule{Every: core.Weekly, Interval: 0},
			want: core.Rule{Every: core.Weekly, Interval: 1},
		},
		{
			name: "negative interval coerced to one",
			in:   core.Rule{Every: core.Yearly, Interval: -3},
			want: core.Rule{Every: core.Yearly, Interval: 1},
		},
		{
			name: "times per period coerced to one",
			in:   core.Rule{Every: core.Monthly, Interval: 1, TimesPerPeriod: 4},
			want: core.Rule{Every: core.Monthly, Interval: 1, TimesPerPeriod: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(ctx, tt.in); got != tt.want {
				t.Errorf("Normalize(%+v) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNextOccurrence(t *testing.T) {
	tests := []struct {
		name   string
		anchor string
		rule   core.Rule
		from   string
		want   string
	}{
		{
			name:   "from before anchor returns anchor",
			anchor: "2025-06-15",
			rule:   core.Rule{Every: core.Monthly, Interval: 1},
			from:   "2025-01-01",
			want:   "2025-06-15",
		},
		{
			name:   "from equal to anchor returns anchor",
			anchor: "2025-06-15",
			rule:   core.Rule{Every: core.Weekly, Interval: 1},
			from:   "2025-06-15",
			want:   "2025-06-15",
		},
		{
			name:   "weekly jumps whole periods",
			anchor: "2025-01-06",
			rule:   core.Rule{Every: core.Weekly, Interval: 1},
			from:   "2025-01-20",
			want:   "2025-01-20",
		},
		{
			name:   "weekly lands after from",
			anchor: "2025-01-06",
			rule:   core.Rule{Every: core.Weekly, Interval: 2},
			from:   "2025-01-21",
			want:   "2025-02-03",
		},
		{
			name:   "monthly keeps day of month",
			anchor: "2025-01-15",
			rule:   core.Rule{Every: core.Monthly, Interval: 1},
			from:   "2025-03-16",
			want:   "2025-04-15",
		},
		{
			name:   "monthly clamps 31st into february",
			anchor: "2025-01-31",
			rule:   core.Rule{Every: core.Monthly, Interval: 1},
			from:   "2025-02-01",
			want:   "2025-02-28",
		},
		{
			name:   "monthly recovers 31st after february",
			anchor: "2025-01-31",
			rule:   core.Rule{Every: core.Monthly, Interval: 1},
			from:   "2025-03-01",
			want:   "2025-03-31",
		},
		{
			name:   "monthly multi-interval",
			anchor: "2025-01-10",
			rule:   core.Rule{Every: core.Monthly, Interval: 3},
			from:   "2025-02-01",
			want:   "2025-04-10",
		},
		{
			name:   "yearly plain",
			anchor: "2023-05-20",
			rule:   core.Rule{Every: core.Yearly, Interval: 1},
			from:   "2025-05-21",
			want:   "2026-05-20",
		},
		{
			name:   "yearly leap anchor clamps then recovers",
			anchor: "2024-02-29",
			rule:   core.Rule{Every: core.Yearly, Interval: 1},
			from:   "2025-01-01",
			want:   "2025-02-28",
		},
		{
			name:   "zero interval treated as one",
			anchor: "2025-01-01",
			rule:   core.Rule{Every: core.Weekly, Interval: 0},
			from:   "2025-01-02",
			want:   "2025-01-08",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextOccurrence(core.MustDate(tt.anchor), tt.rule, core.MustDate(tt.from))
			if got.String() != tt.want {
				t.Errorf("NextOccurrence(%s, %+v, %s) = %s, want %s",
					tt.anchor, tt.rule, tt.from, got, tt.want)
			}
		})
	}
}

func TestOccurrencesInRange(t *testing.T) {
	monthly := &core.Rule{Every: core.Monthly, Interval: 1}

	tests := []struct {
		name     string
		entry    core.LedgerEntry
		from, to string
		want     []core.Date
	}{
		{
			name: "clamped monthly recurrence",
			entry: core.LedgerEntry{
				StartDate: core.MustDate("2025-01-31"),
				Rule:      monthly,
				Active:    true,
			},
			from: "2025-02-01",
			to:   "2025-03-31",
			want: dates("2025-02-28", "2025-03-31"),
		},
		{
			name: "one-shot inside range",
			entry: core.LedgerEntry{
				StartDate: core.MustDate("2025-06-15"),
				Active:    true,
			},
			from: "2025-06-01",
			to:   "2025-06-30",
			want: dates("2025-06-15"),
		},
		{
			name: "one-shot outside range",
			entry: core.LedgerEntry{
				StartDate: core.MustDate("2025-06-15"),
				Active:    true,
			},
			from: "2025-07-01",
			to:   "2025-07-31",
			want: nil,
		},
		{
			name: "inactive entry yields nothing",
			entry: core.LedgerEntry{
				StartDate: core.MustDate("2025-01-31"),
				Rule:      monthly,
				Active:    false,
			},
			from: "2025-01-01",
			to:   "2025-12-31",
			want: nil,
		},
		{
			name: "one-shot flag wins over rule",
			entry: core.LedgerEntry{
				StartDate: core.MustDate("2025-03-10"),
				Rule:      monthly,
				OneShot:   true,
				Active:    true,
			},
			from: "2025-01-01",
			to:   "2025-12-31",
			want: dates("2025-03-10"),
		},
		{
			name: "range starting before anchor begins at anchor",
			entry: core.LedgerEntry{
				StartDate: core.MustDate("2025-05-10"),
				Rule:      &core.Rule{Every: core.Weekly, Interval: 2},
				Active:    true,
			},
			from: "2025-01-01",
			to:   "2025-06-10",
			want: dates("2025-05-10", "2025-05-24", "2025-06-07"),
		},
		{
			name: "inverted range yields nothing",
			entry: core.LedgerEntry{
				StartDate: core.MustDate("2025-01-01"),
				Rule:      monthly,
				Active:    true,
			},
			from: "2025-03-01",
			to:   "2025-02-01",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := OccurrencesInRange(tt.entry, core.MustDate(tt.from), core.MustDate(tt.to))
			if !equalDates(got, tt.want) {
				t.Errorf("OccurrencesInRange() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOccurrencesInRangeIterationCap(t *testing.T) {
	entry := core.LedgerEntry{
		StartDate: core.MustDate("2000-01-01"),
		Rule:      &core.Rule{Every: core.Weekly, Interval: 1},
		Active:    true,
	}
	// A 20-year window holds more than maxIterations weekly occurrences.
	got := OccurrencesInRange(entry, core.MustDate("2000-01-01"), core.MustDate("2020-01-01"))
	if len(got) != maxIterations {
		t.Fatalf("expected enumeration capped at %d, got %d", maxIterations, len(got))
	}
}

func TestUpcomingDates(t *testing.T) {
	from := core.MustDate("2025-06-01")

	t.Run("recurring entry yields limit dates", func(t *testing.T) {
		entry := core.LedgerEntry{
			StartDate: core.MustDate("2025-01-31"),
			Rule:      &core.Rule{Every: core.Monthly, Interval: 1},
			Active:    true,
		}
		got := UpcomingDates(entry, from, 3)
		want := dates("2025-06-30", "2025-07-31", "2025-08-31")
		if !equalDates(got, want) {
			t.Errorf("UpcomingDates() = %v, want %v", got, want)
		}
	})

	t.Run("past one-shot yields nothing", func(t *testing.T) {
		entry := core.LedgerEntry{StartDate: core.MustDate("2025-05-01"), Active: true}
		if got := UpcomingDates(entry, from, 5); got != nil {
			t.Errorf("UpcomingDates() = %v, want nil", got)
		}
	})

	t.Run("future one-shot yields its date once", func(t *testing.T) {
		entry := core.LedgerEntry{StartDate: core.MustDate("2025-08-01"), Active: true}
		got := UpcomingDates(entry, from, 5)
		if !equalDates(got, dates("2025-08-01")) {
			t.Errorf("UpcomingDates() = %v, want [2025-08-01]", got)
		}
	})

	t.Run("zero limit yields nothing", func(t *testing.T) {
		entry := core.LedgerEntry{
			StartDate: core.MustDate("2025-01-01"),
			Rule:      &core.Rule{Every: core.Weekly, Interval: 1},
			Active:    true,
		}
		if got := UpcomingDates(entry, from, 0); got != nil {
			t.Errorf("UpcomingDates() = %v, want nil", got)
		}
	})

	t.Run("limit above the cap is bounded", func(t *testing.T) {
		entry := core.LedgerEntry{
			StartDate: core.MustDate("2025-01-01"),
			Rule:      &core.Rule{Every: core.Weekly, Interval: 1},
			Active:    true,
		}
		got := UpcomingDates(entry, from, 10000)
		if len(got) != maxIterations {
			t.Errorf("expected %d dates, got %d", maxIterations, len(got))
		}
	})
}
