package services

import (
	"context"

	"bilancio/internal/core"
)

// Ports toward the persistence collaborator. The aggregation layer never
// re-enters storage: services fetch every row they need up front and hand
// plain values to the pure core packages.
type (
	SnapshotReader interface {
		// ListSnapshots returns all snapshots sorted newest-first.
		ListSnapshots(ctx context.Context) ([]core.Snapshot, error)
		// ListBalanceLines returns every snapshot's lines keyed by
		// snapshot id, wallet identity denormalized onto each line.
		ListBalanceLines(ctx context.Context) (map[string][]core.BalanceLine, error)
	}

	EntryReader interface {
		// ListEntries returns all ledger entries of one kind, active and
		// inactive.
		ListEntries(ctx context.Context, kind core.EntryKind) ([]core.LedgerEntry, error)
	}

	WalletWriter interface {
		CreateWallet(ctx context.Context, w core.Wallet) (string, error)
	}

	SnapshotWriter interface {
		// SaveSnapshot stores a snapshot and its lines, replacing any
		// snapshot already recorded for the same date.
		SaveSnapshot(ctx context.Context, date core.Date, lines []core.BalanceLine) (string, error)
	}

	EntryWriter interface {
		CreateEntry(ctx context.Context, e core.LedgerEntry) (string, error)
		DeactivateEntry(ctx context.Context, id string) error
	}
)
