package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"bilancio/internal/analytics"
	"bilancio/internal/cache"
	"bilancio/internal/core"
	"bilancio/internal/log"
	"bilancio/internal/projection"
	"bilancio/internal/services"
)

// DashboardProvider is the read surface the API exposes.
type DashboardProvider interface {
	Build(ctx context.Context, rng analytics.Range, now core.Date) (*services.Dashboard, error)
	Series(ctx context.Context, months int, now core.Date) ([]analytics.PortfolioPoint, error)
	OccurrencesInRange(ctx context.Context, from, to core.Date) ([]projection.Occurrence, error)
}

// LedgerRecorder is the write surface the API exposes.
type LedgerRecorder interface {
	CreateWallet(ctx context.Context, w core.Wallet) (string, error)
	RecordSnapshot(ctx context.Context, date core.Date, lines []core.BalanceLine) (string, error)
	CreateEntry(ctx context.Context, e core.LedgerEntry) (string, error)
	DeactivateEntry(ctx context.Context, id string) error
}

// WalletLister feeds the wallet picker used when recording snapshots.
type WalletLister interface {
	ListWallets(ctx context.Context) ([]core.Wallet, error)
}

// Options tune server-side defaults applied when the client omits query
// parameters.
type Options struct {
	SeriesMonths  int
	UpcomingCount int
	CacheTTL      time.Duration
	CacheSize     int
}

type Server struct {
	http.Server
	dashboards DashboardProvider
	ledger     LedgerRecorder
	wallets    WalletLister
	opts       Options

	rateLimiter *rateLimiter
	metrics     *securityMetrics

	// Read-model caches, purged wholesale on every write.
	dashCache   *cache.LRUCache[*services.Dashboard]
	seriesCache *cache.LRUCache[[]analytics.PortfolioPoint]
	cacheMgr    *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, dp DashboardProvider, lr LedgerRecorder, wl WalletLister, opts Options) *Server {
	if opts.SeriesMonths <= 0 {
		opts.SeriesMonths = 12
	}
	if opts.UpcomingCount <= 0 {
		opts.UpcomingCount = 5
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 30 * time.Second
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 128
	}

	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		dashboards:  dp,
		ledger:      lr,
		wallets:     wl,
		opts:        opts,
		rateLimiter: newRateLimiter(),
		metrics:     &securityMetrics{},
		dashCache:   cache.NewLRUCache[*services.Dashboard](opts.CacheSize, opts.CacheTTL),
		seriesCache: cache.NewLRUCache[[]analytics.PortfolioPoint](opts.CacheSize, opts.CacheTTL),
		cacheMgr:    cache.NewManager(),
	}

	s.cacheMgr.Register(s.dashCache)
	s.cacheMgr.Register(s.seriesCache)
	s.cacheMgr.StartCleanup(10 * time.Minute)

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("/api/dashboard", s.withMiddleware(s.handleDashboard))
	mux.HandleFunc("/api/series", s.withMiddleware(s.handleSeries))
	mux.HandleFunc("/api/occurrences", s.withMiddleware(s.handleOccurrences))
	mux.HandleFunc("/api/wallets", s.withMiddleware(s.handleWallets))
	mux.HandleFunc("/api/snapshots", s.withMiddleware(s.handleCreateSnapshot))
	mux.HandleFunc("/api/entries", s.withMiddleware(s.handleCreateEntry))
	mux.HandleFunc("/api/entries/{id}", s.withMiddleware(s.handleDeleteEntry))

	return s
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheMgr.Stop()
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withMiddleware adds security headers, rate limiting and request logging.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		logger := log.FromContext(r.Context()).With(log.FieldRequestID, requestID)
		ctx := context.WithValue(r.Context(), log.LoggerContextKey, logger)
		r = r.WithContext(ctx)

		// Writes are rate limited per client, reads are not.
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP, s.metrics) {
			logger.WarnContext(ctx, "Rate limit exceeded",
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		log.LogHTTPEnd(ctx, logger, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// invalidateReadModels drops every cached read model. Called after each
// successful write; snapshots and entries feed all derived views at once,
// so per-key invalidation buys nothing.
func (s *Server) invalidateReadModels() {
	s.dashCache.Purge()
	s.seriesCache.Purge()
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
