package services

import (
	"context"
	"fmt"
	"log/slog"

	"bilancio/internal/core"
	"bilancio/internal/recurrence"
)

// LedgerWriter is the storage surface the write paths need.
type LedgerWriter interface {
	WalletWriter
	SnapshotWriter
	EntryWriter
}

// LedgerService validates and persists wallets, snapshots and ledger
// entries.
type LedgerService struct {
	repo LedgerWriter
}

func NewLedgerService(repo LedgerWriter) *LedgerService {
	return &LedgerService{repo: repo}
}

// CreateWallet validates and stores a wallet, returning its id.
func (s *LedgerService) CreateWallet(ctx context.Context, w core.Wallet) (string, error) {
	if err := w.Validate(); err != nil {
		return "", err
	}
	id, err := s.repo.CreateWallet(ctx, w)
	if err != nil {
		return "", fmt.Errorf("create wallet: %w", err)
	}
	slog.InfoContext(ctx, "Wallet created", "id", id, "name", w.Name, "type", w.Type)
	return id, nil
}

// RecordSnapshot stores a balance reading for one date. Recording a second
// snapshot on the same date replaces the first: one snapshot per calendar
// date.
func (s *LedgerService) RecordSnapshot(ctx context.Context, date core.Date, lines []core.BalanceLine) (string, error) {
	if err := date.Validate(); err != nil {
		return "", err
	}
	id, err := s.repo.SaveSnapshot(ctx, date, lines)
	if err != nil {
		return "", fmt.Errorf("save snapshot: %w", err)
	}
	slog.InfoContext(ctx, "Snapshot recorded", "id", id, "date", date.String(), "lines", len(lines))
	return id, nil
}

// CreateEntry validates, normalizes and stores a ledger entry. Rule
// coercions (non-positive interval, more than one occurrence per period)
// happen here, before the entry is persisted.
func (s *LedgerService) CreateEntry(ctx context.Context, e core.LedgerEntry) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	if e.Rule != nil {
		normalized := recurrence.Normalize(ctx, *e.Rule)
		e.Rule = &normalized
	}
	e.Active = true

	id, err := s.repo.CreateEntry(ctx, e)
	if err != nil {
		return "", fmt.Errorf("create entry: %w", err)
	}
	slog.InfoContext(ctx, "Ledger entry created",
		"id", id,
		"kind", e.Kind,
		"name", e.Name,
		"amount", e.Amount,
		"recurring", e.Recurring())
	return id, nil
}

// DeactivateEntry soft-deletes an entry: it stops producing occurrences but
// stays in storage.
func (s *LedgerService) DeactivateEntry(ctx context.Context, id string) error {
	if err := s.repo.DeactivateEntry(ctx, id); err != nil {
		return fmt.Errorf("deactivate entry: %w", err)
	}
	slog.InfoContext(ctx, "Ledger entry deactivated", "id", id)
	return nil
}
