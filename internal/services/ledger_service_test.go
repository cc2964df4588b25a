package services

import (
	"context"
	"testing"

	"bilancio/internal/core"
)

// fakeWriter records writes in memory.
type fakeWriter struct {
	wallets     []core.Wallet
	snapshots   map[string][]core.BalanceLine // keyed by date
	entries     []core.LedgerEntry
	deactivated []string
}

func newFakeWriter() *fakeWriter {
	return &fakeWriter{snapshots: make(map[string][]core.BalanceLine)}
}

func (f *fakeWriter) CreateWallet(ctx context.Context, w core.Wallet) (string, error) {
	f.wallets = append(f.wallets, w)
	return "w1", nil
}

func (f *fakeWriter) SaveSnapshot(ctx context.Context, date core.Date, lines []core.BalanceLine) (string, error) {
	f.snapshots[date.String()] = lines
	return "s1", nil
}

func (f *fakeWriter) CreateEntry(ctx context.Context, e core.LedgerEntry) (string, error) {
	f.entries = append(f.entries, e)
	return "e1", nil
}

func (f *fakeWriter) DeactivateEntry(ctx context.Context, id string) error {
	f.deactivated = append(f.deactivated, id)
	return nil
}

func TestCreateWalletValidates(t *testing.T) {
	repo := newFakeWriter()
	svc := NewLedgerService(repo)
	ctx := context.Background()

	if _, err := svc.CreateWallet(ctx, core.Wallet{Name: "", Type: core.WalletLiquidity}); err == nil {
		t.Error("expected validation error for empty name")
	}
	if len(repo.wallets) != 0 {
		t.Error("invalid wallet reached storage")
	}

	id, err := svc.CreateWallet(ctx, core.Wallet{Name: "Checking", Type: core.WalletLiquidity})
	if err != nil {
		t.Fatalf("CreateWallet() error: %v", err)
	}
	if id != "w1" || len(repo.wallets) != 1 {
		t.Errorf("wallet not stored: id=%s wallets=%d", id, len(repo.wallets))
	}
}

func TestRecordSnapshotReplacesSameDate(t *testing.T) {
	repo := newFakeWriter()
	svc := NewLedgerService(repo)
	ctx := context.Background()
	date := core.MustDate("2025-06-10")

	first := []core.BalanceLine{{WalletID: "w1", Amount: 100}}
	second := []core.BalanceLine{{WalletID: "w1", Amount: 150}}

	if _, err := svc.RecordSnapshot(ctx, date, first); err != nil {
		t.Fatalf("RecordSnapshot() error: %v", err)
	}
	if _, err := svc.RecordSnapshot(ctx, date, second); err != nil {
		t.Fatalf("RecordSnapshot() error: %v", err)
	}

	if got := repo.snapshots[date.String()]; len(got) != 1 || got[0].Amount != 150 {
		t.Errorf("snapshot not replaced, lines = %+v", got)
	}

	if _, err := svc.RecordSnapshot(ctx, core.Date{}, first); err == nil {
		t.Error("expected error for zero date")
	}
}

func TestCreateEntryNormalizesRule(t *testing.T) {
	repo := newFakeWriter()
	svc := NewLedgerService(repo)
	ctx := context.Background()

	entry := core.LedgerEntry{
		Kind:      core.EntryExpense,
		Name:      "subscription",
		Amount:    9.99,
		StartDate: core.MustDate("2025-01-05"),
		Rule:      &core.Rule{Every: core.Monthly, Interval: -2, TimesPerPeriod: 3},
	}

	if _, err := svc.CreateEntry(ctx, entry); err != nil {
		t.Fatalf("CreateEntry() error: %v", err)
	}

	stored := repo.entries[0]
	if stored.Rule.Interval != 1 {
		t.Errorf("interval = %d, want 1 after normalization", stored.Rule.Interval)
	}
	if stored.Rule.TimesPerPeriod > 1 {
		t.Errorf("times per period = %d, want coerced to 1", stored.Rule.TimesPerPeriod)
	}
	if !stored.Active {
		t.Error("new entries must be active")
	}
}

func TestDeactivateEntry(t *testing.T) {
	repo := newFakeWriter()
	svc := NewLedgerService(repo)

	if err := svc.DeactivateEntry(context.Background(), "e9"); err != nil {
		t.Fatalf("DeactivateEntry() error: %v", err)
	}
	if len(repo.deactivated) != 1 || repo.deactivated[0] != "e9" {
		t.Errorf("deactivated = %v, want [e9]", repo.deactivated)
	}
}
