package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/projection"
)

// OccurrenceSource projects cash-flow events for the digest window.
type OccurrenceSource interface {
	OccurrencesInRange(ctx context.Context, from, to core.Date) ([]projection.Occurrence, error)
}

// RecapWorker periodically writes a cash-flow digest to the log: every
// projected income and expense inside the horizon, plus the running totals.
// It is read-only; the worker never touches storage directly.
type RecapWorker struct {
	source      OccurrenceSource
	horizonDays int
}

func NewRecapWorker(source OccurrenceSource, horizonDays int) *RecapWorker {
	if horizonDays <= 0 {
		horizonDays = 14
	}
	return &RecapWorker{
		source:      source,
		horizonDays: horizonDays,
	}
}

// Run builds and logs one digest as of now.
func (w *RecapWorker) Run(ctx context.Context) error {
	now := core.DateOf(time.Now().UTC())
	from := now
	to := now.AddDays(w.horizonDays)

	occurrences, err := w.source.OccurrencesInRange(ctx, from, to)
	if err != nil {
		return fmt.Errorf("project recap window: %w", err)
	}

	var income, expense float64
	for _, o := range occurrences {
		switch o.Kind {
		case core.EntryIncome:
			income += o.Amount
		case core.EntryExpense:
			expense += o.Amount
		}
		slog.InfoContext(ctx, "Upcoming cash flow",
			"date", o.Date.String(),
			"kind", o.Kind,
			"name", o.Name,
			"amount", o.Amount)
	}

	slog.InfoContext(ctx, "Recap digest",
		"from", from.String(),
		"to", to.String(),
		"events", len(occurrences),
		"income", income,
		"expense", expense,
		"net", income-expense)

	return nil
}
