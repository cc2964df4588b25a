package core

import (
	"errors"
	"strings"
)

const (
	WalletLiquidity  WalletType = "liquidity"
	WalletInvestment WalletType = "investment"
)

const (
	EntryIncome  EntryKind = "income"
	EntryExpense EntryKind = "expense"
)

const (
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

type (
	WalletType string

	EntryKind string

	Frequency string

	// Wallet is an account holding money, either liquid or invested.
	Wallet struct {
		ID   string
		Name string
		Type WalletType
		Tag  string // optional grouping label for investment wallets
	}

	// Snapshot is one complete balance reading across wallets at a single
	// calendar date. At most one snapshot exists per date.
	Snapshot struct {
		ID   string
		Date Date
	}

	// BalanceLine is one wallet's balance inside a snapshot. Wallet name,
	// type and tag are denormalized onto the line so the aggregation layer
	// never has to re-enter storage.
	BalanceLine struct {
		SnapshotID string
		WalletID   string
		WalletName string
		WalletType WalletType
		Tag        string
		Amount     float64
	}

	// Rule describes how a ledger entry repeats. TimesPerPeriod greater
	// than one is carried for forward compatibility but not honored; the
	// recurrence engine coerces it to one.
	Rule struct {
		Every          Frequency
		Interval       int
		TimesPerPeriod int
	}

	// LedgerEntry is a recorded income or expense. A nil Rule or a set
	// OneShot flag means the entry happens once, on StartDate. Inactive
	// entries produce no occurrences at all.
	LedgerEntry struct {
		ID        string
		Kind      EntryKind
		Name      string
		Amount    float64
		StartDate Date
		Rule      *Rule
		OneShot   bool
		Active    bool
		Note      string
		Category  string
	}
)

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyName        = errors.New("empty name")
	ErrInvalidWallet    = errors.New("invalid wallet type")
	ErrInvalidKind      = errors.New("invalid entry kind")
	ErrInvalidFrequency = errors.New("invalid frequency")
)

// Recurring reports whether the entry generates more than one occurrence.
func (e LedgerEntry) Recurring() bool {
	return e.Rule != nil && !e.OneShot
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (w Wallet) Validate() error {
	if len(strings.TrimSpace(w.Name)) == 0 {
		return ErrEmptyName
	}
	if len(w.Name) > 100 {
		return errors.New("wallet name too long (max 100 characters)")
	}
	switch w.Type {
	case WalletLiquidity, WalletInvestment:
	default:
		return ErrInvalidWallet
	}
	return nil
}

func (r Rule) Validate() error {
	switch r.Every {
	case Weekly, Monthly, Yearly:
	default:
		return ErrInvalidFrequency
	}
	return nil
}

func (e LedgerEntry) Validate() error {
	if err := e.StartDate.Validate(); err != nil {
		return errors.New("invalid start date: " + err.Error())
	}
	switch e.Kind {
	case EntryIncome, EntryExpense:
	default:
		return ErrInvalidKind
	}
	if len(strings.TrimSpace(e.Name)) == 0 {
		return ErrEmptyName
	}
	if len(e.Name) > 200 {
		return errors.New("name too long (max 200 characters)")
	}
	if e.Amount <= 0 {
		return ErrInvalidAmount
	}
	if e.Rule != nil {
		if err := e.Rule.Validate(); err != nil {
			return err
		}
	}
	return nil
}
