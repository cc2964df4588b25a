package services

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"bilancio/internal/analytics"
	"bilancio/internal/core"
	"bilancio/internal/projection"
)

// DashboardReader is the storage surface the dashboard needs.
type DashboardReader interface {
	SnapshotReader
	EntryReader
}

// Dashboard is the view-model handed to the presentation layer: plain data,
// no behavior.
type Dashboard struct {
	Range     analytics.Range            `json:"range"`
	Totals    analytics.TypeTotals       `json:"totals"`
	Deltas    analytics.DeltaResult      `json:"deltas"`
	ByWallet  []analytics.Slice          `json:"byWallet"`
	ByTag     []analytics.Slice          `json:"byTag"`
	Series    []analytics.PortfolioPoint `json:"series"`
	Upcoming  []projection.Occurrence    `json:"upcoming"`
	MonthFlow projection.CashFlowTotals  `json:"monthFlow"`
}

// DashboardService assembles dashboard view-models from stored rows and the
// pure aggregation layer.
type DashboardService struct {
	repo          DashboardReader
	seriesMonths  int
	upcomingCount int
}

func NewDashboardService(repo DashboardReader, seriesMonths, upcomingCount int) *DashboardService {
	return &DashboardService{
		repo:          repo,
		seriesMonths:  seriesMonths,
		upcomingCount: upcomingCount,
	}
}

// data is one dashboard build's worth of rows, fetched up front.
type data struct {
	snapshots       []core.Snapshot
	linesBySnapshot map[string][]core.BalanceLine
	incomes         []core.LedgerEntry
	expenses        []core.LedgerEntry
}

func (s *DashboardService) fetch(ctx context.Context) (*data, error) {
	var d data
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.snapshots, err = s.repo.ListSnapshots(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.linesBySnapshot, err = s.repo.ListBalanceLines(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.incomes, err = s.repo.ListEntries(gctx, core.EntryIncome)
		return err
	})
	g.Go(func() (err error) {
		d.expenses, err = s.repo.ListEntries(gctx, core.EntryExpense)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load dashboard rows: %w", err)
	}
	return &d, nil
}

// latestLines returns the line set of the most recent snapshot, or nil when
// nothing has been recorded yet.
func (d *data) latestLines() []core.BalanceLine {
	if len(d.snapshots) == 0 {
		return nil
	}
	return d.linesBySnapshot[d.snapshots[0].ID]
}

// Build assembles the full dashboard for the given comparison range as of
// now. The lines-by-snapshot map is fetched once and shared by every
// computation of this call; it is never retained across calls.
func (s *DashboardService) Build(ctx context.Context, rng analytics.Range, now core.Date) (*Dashboard, error) {
	d, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}

	latest := d.latestLines()
	dash := &Dashboard{
		Range:    rng,
		Totals:   analytics.TotalsByType(latest),
		ByWallet: analytics.BreakdownByWallet(latest),
		ByTag:    analytics.BreakdownByTag(latest),
		Series:   analytics.BuildMonthlySeries(d.snapshots, d.linesBySnapshot, latest, s.seriesMonths, now),
		Deltas: analytics.ComputeDeltas(rng, d.snapshots, d.linesBySnapshot,
			analytics.MonthlyPoints(d.snapshots, d.linesBySnapshot)),
		Upcoming:  projection.Upcoming(d.incomes, d.expenses, s.upcomingCount, now),
		MonthFlow: projection.MonthTotals(d.incomes, d.expenses, now.Year(), now.Month()),
	}

	slog.DebugContext(ctx, "Dashboard assembled",
		"range", rng,
		"snapshots", len(d.snapshots),
		"series_points", len(dash.Series),
		"upcoming", len(dash.Upcoming))
	return dash, nil
}

// Series returns the monthly portfolio series alone, for the chart endpoint.
func (s *DashboardService) Series(ctx context.Context, months int, now core.Date) ([]analytics.PortfolioPoint, error) {
	d, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}
	return analytics.BuildMonthlySeries(d.snapshots, d.linesBySnapshot, d.latestLines(), months, now), nil
}

// UpcomingOccurrences projects the next count cash-flow events from now.
func (s *DashboardService) UpcomingOccurrences(ctx context.Context, count int, now core.Date) ([]projection.Occurrence, error) {
	incomes, expenses, err := s.loadEntries(ctx)
	if err != nil {
		return nil, err
	}
	return projection.Upcoming(incomes, expenses, count, now), nil
}

// OccurrencesInRange projects every cash-flow event within [from, to].
func (s *DashboardService) OccurrencesInRange(ctx context.Context, from, to core.Date) ([]projection.Occurrence, error) {
	incomes, expenses, err := s.loadEntries(ctx)
	if err != nil {
		return nil, err
	}
	return projection.InRange(append(incomes, expenses...), from, to), nil
}

func (s *DashboardService) loadEntries(ctx context.Context) (incomes, expenses []core.LedgerEntry, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		incomes, err = s.repo.ListEntries(gctx, core.EntryIncome)
		return err
	})
	g.Go(func() (err error) {
		expenses, err = s.repo.ListEntries(gctx, core.EntryExpense)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("load ledger entries: %w", err)
	}
	return incomes, expenses, nil
}
