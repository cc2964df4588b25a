// Package projection converts ledger entries into dated cash-flow
// occurrences for the dashboard's upcoming list and monthly totals.
package projection

import (
	"sort"

	"bilancio/internal/core"
	"bilancio/internal/recurrence"
)

type (
	// Occurrence is one concrete dated instance of a ledger entry. Derived
	// on demand, never persisted.
	Occurrence struct {
		Date    core.Date      `json:"date"`
		Kind    core.EntryKind `json:"kind"`
		Amount  float64        `json:"amount"`
		Name    string         `json:"name"`
		Note    string         `json:"note,omitempty"`
		EntryID string         `json:"entryId"`
	}

	// CashFlowTotals sums projected flows over one window.
	CashFlowTotals struct {
		Income  float64 `json:"income"`
		Expense float64 `json:"expense"`
		Net     float64 `json:"net"`
	}
)

func occurrenceFor(e core.LedgerEntry, d core.Date) Occurrence {
	return Occurrence{
		Date:    d,
		Kind:    e.Kind,
		Amount:  e.Amount,
		Name:    e.Name,
		Note:    e.Note,
		EntryID: e.ID,
	}
}

// Upcoming merges the next occurrences of all active income and expense
// entries from the given date, sorted ascending by date. Ties keep the input
// order: incomes in their given order first, then expenses. The result is
// truncated to count.
func Upcoming(incomes, expenses []core.LedgerEntry, count int, from core.Date) []Occurrence {
	if count <= 0 {
		return nil
	}

	var merged []Occurrence
	for _, e := range incomes {
		for _, d := range recurrence.UpcomingDates(e, from, count) {
			merged = append(merged, occurrenceFor(e, d))
		}
	}
	for _, e := range expenses {
		for _, d := range recurrence.UpcomingDates(e, from, count) {
			merged = append(merged, occurrenceFor(e, d))
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Date.Compare(merged[j].Date) < 0
	})

	if len(merged) > count {
		merged = merged[:count]
	}
	return merged
}

// InRange lists every occurrence of the given entries within [from, to],
// sorted ascending by date, ties in input order.
func InRange(entries []core.LedgerEntry, from, to core.Date) []Occurrence {
	var out []Occurrence
	for _, e := range entries {
		for _, d := range recurrence.OccurrencesInRange(e, from, to) {
			out = append(out, occurrenceFor(e, d))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Compare(out[j].Date) < 0
	})
	return out
}

// MonthTotals sums the projected income and expense flow inside one calendar
// month.
func MonthTotals(incomes, expenses []core.LedgerEntry, year, month int) CashFlowTotals {
	from := core.NewDate(year, month, 1)
	to := core.NewDate(year, month, core.DaysInMonth(year, month))

	var t CashFlowTotals
	for _, e := range incomes {
		for range recurrence.OccurrencesInRange(e, from, to) {
			t.Income += e.Amount
		}
	}
	for _, e := range expenses {
		for range recurrence.OccurrencesInRange(e, from, to) {
			t.Expense += e.Amount
		}
	}
	t.Net = t.Income - t.Expense
	return t
}
