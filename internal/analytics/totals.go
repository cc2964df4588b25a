// Package analytics reduces snapshot balance lines into typed totals,
// breakdowns, monthly portfolio series and KPI deltas. Every function here is
// a pure transform over caller-supplied rows; nothing reaches back into
// storage and nothing is cached between calls.
package analytics

import (
	"bilancio/internal/core"
)

// TypeTotals are the balances of one snapshot partitioned by wallet type.
// NetWorth is always the sum of the other two.
type TypeTotals struct {
	Liquidity   float64 `json:"liquidity"`
	Investments float64 `json:"investments"`
	NetWorth    float64 `json:"netWorth"`
}

// TotalsByType sums line amounts per wallet type.
func TotalsByType(lines []core.BalanceLine) TypeTotals {
	var t TypeTotals
	for _, l := range lines {
		switch l.WalletType {
		case core.WalletInvestment:
			t.Investments += l.Amount
		default:
			t.Liquidity += l.Amount
		}
	}
	t.NetWorth = t.Liquidity + t.Investments
	return t
}
