// Package recurrence turns a recurrence rule plus an anchor date into
// concrete occurrence dates under calendar-clamping rules.
package recurrence

import (
	"context"
	"log/slog"

	"bilancio/internal/core"
)

// maxIterations caps every enumeration loop. A malformed rule can at worst
// produce a truncated list, never an unbounded loop.
const maxIterations = 500

// Normalize coerces a rule into the supported shape: a non-positive interval
// becomes 1, and more than one occurrence per period collapses to one. Both
// coercions are logged, not rejected.
func Normalize(ctx context.Context, r core.Rule) core.Rule {
	if r.Interval <= 0 {
		slog.WarnContext(ctx, "Coercing non-positive rule interval",
			"frequency", r.Every,
			"interval", r.Interval)
		r.Interval = 1
	}
	if r.TimesPerPeriod > 1 {
		slog.WarnContext(ctx, "Multiple occurrences per period not supported, coercing to one",
			"frequency", r.Every,
			"times_per_period", r.TimesPerPeriod)
		r.TimesPerPeriod = 1
	}
	return r
}

// occurrenceAt returns the k-th occurrence (0 = the anchor itself). Monthly
// and yearly steps are always computed from the anchor, clamping against the
// anchor's original day of month, so a rule anchored on the 31st keeps
// targeting "the 31st, clamped" instead of collapsing to the 28th after the
// first February it crosses.
func occurrenceAt(anchor core.Date, r core.Rule, k int) core.Date {
	switch r.Every {
	case core.Weekly:
		return anchor.AddDays(7 * r.Interval * k)
	case core.Yearly:
		return anchor.AddYearsClamped(r.Interval * k)
	default: // monthly
		return anchor.AddMonthsClamped(r.Interval*k, anchor.Day())
	}
}

// nextIndex returns the smallest k such that occurrenceAt(anchor, r, k) is on
// or after from. Weekly rules have a closed form; monthly and yearly rules
// bulk-jump to a candidate at or below the target and then advance linearly,
// because clamping can land the candidate a few days short of from.
func nextIndex(anchor core.Date, r core.Rule, from core.Date) int {
	if from.Compare(anchor) <= 0 {
		return 0
	}

	var k int
	switch r.Every {
	case core.Weekly:
		periodDays := 7 * r.Interval
		days := core.DaysBetween(anchor, from)
		return (days + periodDays - 1) / periodDays
	case core.Yearly:
		k = (from.Year() - anchor.Year()) / r.Interval
	default:
		k = (from.MonthKey() - anchor.MonthKey()) / r.Interval
	}
	if k < 0 {
		k = 0
	}
	for i := 0; occurrenceAt(anchor, r, k).Compare(from) < 0 && i < maxIterations; i++ {
		k++
	}
	return k
}

// NextOccurrence returns the first occurrence of the rule anchored at anchor
// that falls on or after from. When from is not past the anchor the anchor
// itself is returned: an entry never starts before its start date.
func NextOccurrence(anchor core.Date, r core.Rule, from core.Date) core.Date {
	r = Normalize(context.Background(), r)
	return occurrenceAt(anchor, r, nextIndex(anchor, r, from))
}

// OccurrencesInRange lists every occurrence of entry within [from, to],
// inclusive on both ends. Non-recurring entries contribute their start date
// when it falls inside the range. Inactive entries contribute nothing. The
// result is capped at maxIterations entries; when the cap is hit the
// collected prefix is returned as is.
func OccurrencesInRange(entry core.LedgerEntry, from, to core.Date) []core.Date {
	if !entry.Active || to.Compare(from) < 0 {
		return nil
	}

	if !entry.Recurring() {
		d := entry.StartDate
		if d.Compare(from) >= 0 && d.Compare(to) <= 0 {
			return []core.Date{d}
		}
		return nil
	}

	r := Normalize(context.Background(), *entry.Rule)
	var dates []core.Date
	k := nextIndex(entry.StartDate, r, from)
	for i := 0; i < maxIterations; i++ {
		d := occurrenceAt(entry.StartDate, r, k+i)
		if d.Compare(to) > 0 {
			break
		}
		dates = append(dates, d)
	}
	return dates
}

// UpcomingDates lists the next limit occurrences of entry on or after from.
// The internal iteration cap applies regardless of limit, so an absurd limit
// cannot force an unbounded enumeration. Non-recurring entries yield their
// start date only when it has not already passed.
func UpcomingDates(entry core.LedgerEntry, from core.Date, limit int) []core.Date {
	if !entry.Active || limit <= 0 {
		return nil
	}

	if !entry.Recurring() {
		if entry.StartDate.Compare(from) >= 0 {
			return []core.Date{entry.StartDate}
		}
		return nil
	}

	r := Normalize(context.Background(), *entry.Rule)
	n := limit
	if n > maxIterations {
		n = maxIterations
	}
	dates := make([]core.Date, 0, n)
	k := nextIndex(entry.StartDate, r, from)
	for i := 0; i < n; i++ {
		dates = append(dates, occurrenceAt(entry.StartDate, r, k+i))
	}
	return dates
}
