package analytics

import (
	"bilancio/internal/core"
)

// Placeholder labels for lines missing a wallet name or tag.
const (
	unnamedWalletLabel = "Wallet"
	otherTagLabel      = "Other"
)

// Slice is one labeled value of a breakdown.
type Slice struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// BreakdownByWallet groups line amounts by wallet display name, in
// first-seen order. Lines without a name fall into a shared placeholder
// bucket.
func BreakdownByWallet(lines []core.BalanceLine) []Slice {
	return groupBy(lines, func(l core.BalanceLine) (string, bool) {
		label := l.WalletName
		if label == "" {
			label = unnamedWalletLabel
		}
		return label, true
	})
}

// BreakdownByTag groups investment line amounts by tag, in first-seen order.
// Untagged investment lines share an "Other" bucket; non-investment lines are
// skipped.
func BreakdownByTag(lines []core.BalanceLine) []Slice {
	return groupBy(lines, func(l core.BalanceLine) (string, bool) {
		if l.WalletType != core.WalletInvestment {
			return "", false
		}
		label := l.Tag
		if label == "" {
			label = otherTagLabel
		}
		return label, true
	})
}

func groupBy(lines []core.BalanceLine, key func(core.BalanceLine) (string, bool)) []Slice {
	var out []Slice
	index := make(map[string]int)
	for _, l := range lines {
		label, ok := key(l)
		if !ok {
			continue
		}
		if i, seen := index[label]; seen {
			out[i].Value += l.Amount
			continue
		}
		index[label] = len(out)
		out = append(out, Slice{Label: label, Value: l.Amount})
	}
	return out
}
