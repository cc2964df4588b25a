package analytics

import (
	"fmt"

	"bilancio/internal/core"
)

// Range selects the comparison window for KPI deltas.
type Range string

const (
	Range1D  Range = "1d"
	Range7D  Range = "7d"
	Range28D Range = "28d"
	Range3M  Range = "3m"
	Range6M  Range = "6m"
	Range12M Range = "12m"
)

// ParseRange validates a range identifier from the API surface.
func ParseRange(s string) (Range, error) {
	switch Range(s) {
	case Range1D, Range7D, Range28D, Range3M, Range6M, Range12M:
		return Range(s), nil
	}
	return "", fmt.Errorf("unknown range %q", s)
}

const (
	StatusOK     Status = "ok"
	StatusNoData Status = "no_data"
)

type (
	Status string

	// Delta is the change of one metric between baseline and latest.
	// Pct is defined as zero when the baseline value is zero, whatever
	// the sign or size of Abs; consumers rendering Pct must not read a
	// zero as "unchanged" without checking Abs.
	Delta struct {
		Abs float64 `json:"deltaAbs"`
		Pct float64 `json:"deltaPct"`
	}

	DeltaSet struct {
		Liquidity   Delta `json:"liquidity"`
		Investments Delta `json:"investments"`
		Total       Delta `json:"total"`
	}

	// DeltaMeta identifies the two compared points: snapshot dates for the
	// day ranges, month-start dates for the month ranges.
	DeltaMeta struct {
		StartDate core.Date `json:"startDate"`
		EndDate   core.Date `json:"endDate"`
	}

	DeltaResult struct {
		Status Status     `json:"status"`
		Deltas DeltaSet   `json:"deltas"`
		Meta   *DeltaMeta `json:"meta,omitempty"`
	}
)

func noData() DeltaResult {
	return DeltaResult{Status: StatusNoData}
}

func deltaOf(start, end float64) Delta {
	d := Delta{Abs: end - start}
	if start != 0 {
		d.Pct = (end - start) / start
	}
	return d
}

func deltasBetween(start, end TypeTotals) DeltaSet {
	return DeltaSet{
		Liquidity:   deltaOf(start.Liquidity, end.Liquidity),
		Investments: deltaOf(start.Investments, end.Investments),
		Total:       deltaOf(start.NetWorth, end.NetWorth),
	}
}

// ComputeDeltas compares the latest balance reading against a range-specific
// baseline. The day ranges (1d/7d/28d) compare snapshot against snapshot;
// the month ranges (3m/6m/12m) compare points of the monthly series.
// snapshots must be sorted newest-first; series ascending, as
// BuildMonthlySeries returns it. When no baseline exists the result carries
// StatusNoData, zero deltas and no meta.
func ComputeDeltas(
	rng Range,
	snapshots []core.Snapshot,
	linesBySnapshot map[string][]core.BalanceLine,
	series []PortfolioPoint,
) DeltaResult {
	switch rng {
	case Range1D, Range7D, Range28D:
		return snapshotDeltas(rng, snapshots, linesBySnapshot)
	default:
		return seriesDeltas(rng, series)
	}
}

func snapshotDeltas(rng Range, snapshots []core.Snapshot, linesBySnapshot map[string][]core.BalanceLine) DeltaResult {
	if len(snapshots) < 2 {
		return noData()
	}
	latest := snapshots[0]

	// 1d wants the nearest strictly-earlier snapshot; 7d and 28d the
	// nearest snapshot on or before the shifted date.
	cutoff := latest.Date
	strict := true
	switch rng {
	case Range7D:
		cutoff = latest.Date.AddDays(-7)
		strict = false
	case Range28D:
		cutoff = latest.Date.AddDays(-28)
		strict = false
	}

	var baseline *core.Snapshot
	for i := 1; i < len(snapshots); i++ {
		c := snapshots[i].Date.Compare(cutoff)
		if c < 0 || (!strict && c == 0) {
			baseline = &snapshots[i]
			break
		}
	}
	if baseline == nil {
		return noData()
	}

	start := TotalsByType(linesBySnapshot[baseline.ID])
	end := TotalsByType(linesBySnapshot[latest.ID])
	return DeltaResult{
		Status: StatusOK,
		Deltas: deltasBetween(start, end),
		Meta:   &DeltaMeta{StartDate: baseline.Date, EndDate: latest.Date},
	}
}

func monthsBack(rng Range) int {
	switch rng {
	case Range3M:
		return 3
	case Range6M:
		return 6
	default:
		return 12
	}
}

func seriesDeltas(rng Range, series []PortfolioPoint) DeltaResult {
	if len(series) < 2 {
		return noData()
	}
	latest := series[len(series)-1]
	targetKey := latest.Date.MonthKey() - monthsBack(rng)

	var baseline *PortfolioPoint
	for i := len(series) - 2; i >= 0; i-- {
		if series[i].Date.MonthKey() <= targetKey {
			baseline = &series[i]
			break
		}
	}
	if baseline == nil {
		return noData()
	}

	start := TypeTotals{Liquidity: baseline.Liquidity, Investments: baseline.Investments, NetWorth: baseline.Total}
	end := TypeTotals{Liquidity: latest.Liquidity, Investments: latest.Investments, NetWorth: latest.Total}
	return DeltaResult{
		Status: StatusOK,
		Deltas: deltasBetween(start, end),
		Meta:   &DeltaMeta{StartDate: baseline.Date, EndDate: latest.Date},
	}
}
