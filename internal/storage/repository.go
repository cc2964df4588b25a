package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"bilancio/internal/core"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a write targets a row that does not exist.
var ErrNotFound = errors.New("not found")

// SQLiteRepository is the single persistence collaborator behind the
// service ports. All readers return fully denormalized rows so the
// aggregation layer never issues follow-up queries.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ListSnapshots implements services.SnapshotReader
func (r *SQLiteRepository) ListSnapshots(ctx context.Context) ([]core.Snapshot, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, date FROM snapshots ORDER BY date DESC`)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []core.Snapshot
	for rows.Next() {
		var s core.Snapshot
		var rawDate string
		if err := rows.Scan(&s.ID, &rawDate); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		s.Date, err = core.ParseDate(rawDate)
		if err != nil {
			return nil, fmt.Errorf("parse snapshot date %q: %w", rawDate, err)
		}
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}

	return snapshots, nil
}

// ListBalanceLines implements services.SnapshotReader
func (r *SQLiteRepository) ListBalanceLines(ctx context.Context) (map[string][]core.BalanceLine, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT l.snapshot_id, l.wallet_id, w.name, w.type, w.tag, l.amount
		 FROM snapshot_lines l
		 JOIN wallets w ON w.id = l.wallet_id
		 ORDER BY l.snapshot_id, w.name`)
	if err != nil {
		return nil, fmt.Errorf("list balance lines: %w", err)
	}
	defer rows.Close()

	lines := make(map[string][]core.BalanceLine)
	for rows.Next() {
		var l core.BalanceLine
		if err := rows.Scan(&l.SnapshotID, &l.WalletID, &l.WalletName, &l.WalletType, &l.Tag, &l.Amount); err != nil {
			return nil, fmt.Errorf("scan balance line: %w", err)
		}
		lines[l.SnapshotID] = append(lines[l.SnapshotID], l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate balance lines: %w", err)
	}

	return lines, nil
}

// ListEntries implements services.EntryReader
func (r *SQLiteRepository) ListEntries(ctx context.Context, kind core.EntryKind) ([]core.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, kind, name, amount, start_date, frequency, interval_n, times_per_period, one_shot, active, note, category
		 FROM ledger_entries
		 WHERE kind = ?
		 ORDER BY start_date, name`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []core.LedgerEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger entries: %w", err)
	}

	return entries, nil
}

// ListWallets returns every wallet ordered by name.
func (r *SQLiteRepository) ListWallets(ctx context.Context) ([]core.Wallet, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, type, tag FROM wallets ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	defer rows.Close()

	var wallets []core.Wallet
	for rows.Next() {
		var w core.Wallet
		if err := rows.Scan(&w.ID, &w.Name, &w.Type, &w.Tag); err != nil {
			return nil, fmt.Errorf("scan wallet: %w", err)
		}
		wallets = append(wallets, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wallets: %w", err)
	}

	return wallets, nil
}

// CreateWallet implements services.WalletWriter
func (r *SQLiteRepository) CreateWallet(ctx context.Context, w core.Wallet) (string, error) {
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO wallets (id, name, type, tag) VALUES (?, ?, ?, ?)`,
		id, w.Name, string(w.Type), w.Tag)
	if err != nil {
		return "", fmt.Errorf("insert wallet: %w", err)
	}

	slog.InfoContext(ctx, "Wallet saved",
		"id", id,
		"name", w.Name,
		"type", w.Type)

	return id, nil
}

// SaveSnapshot implements services.SnapshotWriter. A snapshot already
// recorded for the same date is replaced wholesale, lines included.
func (r *SQLiteRepository) SaveSnapshot(ctx context.Context, date core.Date, lines []core.BalanceLine) (string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM snapshots WHERE date = ?`, date.String()); err != nil {
		return "", fmt.Errorf("delete previous snapshot: %w", err)
	}

	id := uuid.NewString()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots (id, date) VALUES (?, ?)`, id, date.String()); err != nil {
		return "", fmt.Errorf("insert snapshot: %w", err)
	}

	for _, l := range lines {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO snapshot_lines (snapshot_id, wallet_id, amount) VALUES (?, ?, ?)`,
			id, l.WalletID, l.Amount); err != nil {
			return "", fmt.Errorf("insert snapshot line for wallet %s: %w", l.WalletID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit snapshot: %w", err)
	}

	slog.InfoContext(ctx, "Snapshot saved",
		"id", id,
		"date", date.String(),
		"lines", len(lines))

	return id, nil
}

// CreateEntry implements services.EntryWriter
func (r *SQLiteRepository) CreateEntry(ctx context.Context, e core.LedgerEntry) (string, error) {
	id := uuid.NewString()

	var frequency sql.NullString
	intervalN, timesPerPeriod := 1, 1
	if e.Rule != nil {
		frequency = sql.NullString{String: string(e.Rule.Every), Valid: true}
		intervalN = e.Rule.Interval
		timesPerPeriod = e.Rule.TimesPerPeriod
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO ledger_entries
		 (id, kind, name, amount, start_date, frequency, interval_n, times_per_period, one_shot, active, note, category)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, string(e.Kind), e.Name, e.Amount, e.StartDate.String(),
		frequency, intervalN, timesPerPeriod, e.OneShot, e.Active, e.Note, e.Category)
	if err != nil {
		return "", fmt.Errorf("insert ledger entry: %w", err)
	}

	slog.InfoContext(ctx, "Ledger entry saved",
		"id", id,
		"kind", e.Kind,
		"name", e.Name,
		"amount", e.Amount,
		"recurring", e.Recurring())

	return id, nil
}

// DeactivateEntry implements services.EntryWriter
func (r *SQLiteRepository) DeactivateEntry(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE ledger_entries SET active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deactivate ledger entry: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	slog.InfoContext(ctx, "Ledger entry deactivated", "id", id)
	return nil
}

func scanEntry(rows *sql.Rows) (core.LedgerEntry, error) {
	var (
		e              core.LedgerEntry
		rawDate        string
		frequency      sql.NullString
		intervalN      int
		timesPerPeriod int
	)
	if err := rows.Scan(&e.ID, &e.Kind, &e.Name, &e.Amount, &rawDate,
		&frequency, &intervalN, &timesPerPeriod, &e.OneShot, &e.Active, &e.Note, &e.Category); err != nil {
		return core.LedgerEntry{}, fmt.Errorf("scan ledger entry: %w", err)
	}

	var err error
	e.StartDate, err = core.ParseDate(rawDate)
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("parse entry start date %q: %w", rawDate, err)
	}

	if frequency.Valid {
		e.Rule = &core.Rule{
			Every:          core.Frequency(frequency.String),
			Interval:       intervalN,
			TimesPerPeriod: timesPerPeriod,
		}
	}

	return e, nil
}
