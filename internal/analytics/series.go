package analytics

import (
	"bilancio/internal/core"
)

// PortfolioPoint is one month of the portfolio series, dated at the first of
// the month.
type PortfolioPoint struct {
	Date        core.Date `json:"date"`
	Total       float64   `json:"total"`
	Liquidity   float64   `json:"liquidity"`
	Investments float64   `json:"investments"`
}

// BuildMonthlySeries builds the portfolio series over the most recent limit
// calendar months, ending at the month of now. limit is clamped to [1, 12].
//
// Each month is represented by its most recent snapshot; snapshots must be
// sorted newest-first, the order the storage layer returns them in. A month
// with no snapshot is dropped from the series, except the current month,
// which falls back to the caller's latest known lines as a live stand-in.
// The result is ordered ascending by date.
func BuildMonthlySeries(
	snapshots []core.Snapshot,
	linesBySnapshot map[string][]core.BalanceLine,
	latestLines []core.BalanceLine,
	limit int,
	now core.Date,
) []PortfolioPoint {
	if limit < 1 {
		limit = 1
	} else if limit > 12 {
		limit = 12
	}

	points := make([]PortfolioPoint, 0, limit)
	currentMonth := now.StartOfMonth()

	// Walk months newest-first, then reverse.
	for i := 0; i < limit; i++ {
		month := currentMonth.AddMonthsClamped(-i, 1)

		var lines []core.BalanceLine
		found := false
		for _, s := range snapshots {
			if s.Date.SameMonth(month) {
				lines = linesBySnapshot[s.ID]
				found = true
				break
			}
		}
		if !found {
			if i == 0 && len(latestLines) > 0 {
				lines = latestLines
			} else {
				continue
			}
		}

		t := TotalsByType(lines)
		points = append(points, PortfolioPoint{
			Date:        month,
			Total:       t.NetWorth,
			Liquidity:   t.Liquidity,
			Investments: t.Investments,
		})
	}

	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}
	return points
}

// MonthlyPoints reduces the whole snapshot history into one point per
// represented calendar month, each month valued by its most recent snapshot.
// No trailing window and no live stand-in: this is the recorded history the
// KPI engine compares against. snapshots must be sorted newest-first; the
// result is ascending by month.
func MonthlyPoints(snapshots []core.Snapshot, linesBySnapshot map[string][]core.BalanceLine) []PortfolioPoint {
	var points []PortfolioPoint
	seen := make(map[int]bool)

	// Newest-first input: the first snapshot of each month wins.
	for _, s := range snapshots {
		key := s.Date.MonthKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		t := TotalsByType(linesBySnapshot[s.ID])
		points = append(points, PortfolioPoint{
			Date:        s.Date.StartOfMonth(),
			Total:       t.NetWorth,
			Liquidity:   t.Liquidity,
			Investments: t.Investments,
		})
	}

	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}
	return points
}
