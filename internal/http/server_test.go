package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bilancio/internal/analytics"
	"bilancio/internal/core"
	"bilancio/internal/projection"
	"bilancio/internal/services"
	"bilancio/internal/storage"
)

type fakeDashboards struct {
	builds int
}

func (f *fakeDashboards) Build(ctx context.Context, rng analytics.Range, now core.Date) (*services.Dashboard, error) {
	f.builds++
	return &services.Dashboard{Range: rng}, nil
}

func (f *fakeDashboards) Series(ctx context.Context, months int, now core.Date) ([]analytics.PortfolioPoint, error) {
	return []analytics.PortfolioPoint{{Date: core.MustDate("2025-06-01"), Total: 100}}, nil
}

func (f *fakeDashboards) OccurrencesInRange(ctx context.Context, from, to core.Date) ([]projection.Occurrence, error) {
	return []projection.Occurrence{{Date: from, Kind: core.EntryExpense, Amount: 10, Name: "rent"}}, nil
}

type fakeLedger struct {
	deactivated []string
}

func (f *fakeLedger) CreateWallet(ctx context.Context, w core.Wallet) (string, error) {
	if err := w.Validate(); err != nil {
		return "", err
	}
	return "w1", nil
}

func (f *fakeLedger) RecordSnapshot(ctx context.Context, date core.Date, lines []core.BalanceLine) (string, error) {
	if err := date.Validate(); err != nil {
		return "", err
	}
	return "s1", nil
}

func (f *fakeLedger) CreateEntry(ctx context.Context, e core.LedgerEntry) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	return "e1", nil
}

func (f *fakeLedger) DeactivateEntry(ctx context.Context, id string) error {
	if id == "missing" {
		return storage.ErrNotFound
	}
	f.deactivated = append(f.deactivated, id)
	return nil
}

func (f *fakeLedger) ListWallets(ctx context.Context) ([]core.Wallet, error) {
	return []core.Wallet{{ID: "w1", Name: "Bank", Type: core.WalletLiquidity}}, nil
}

func newTestServer() (*Server, *fakeDashboards, *fakeLedger) {
	dp := &fakeDashboards{}
	lr := &fakeLedger{}
	srv := NewServer(":0", dp, lr, lr, Options{})
	return srv, dp, lr
}

func do(srv *Server, method, target, body string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func TestHealthEndpoints(t *testing.T) {
	srv, _, _ := newTestServer()
	defer srv.Shutdown(context.Background())

	for _, path := range []string{"/healthz", "/readyz"} {
		if rr := do(srv, http.MethodGet, path, ""); rr.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, rr.Code)
		}
	}
}

func TestDashboardHandler(t *testing.T) {
	srv, dp, _ := newTestServer()
	defer srv.Shutdown(context.Background())

	rr := do(srv, http.MethodGet, "/api/dashboard?range=7d", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rr.Code, rr.Body.String())
	}
	var dash services.Dashboard
	if err := json.Unmarshal(rr.Body.Bytes(), &dash); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dash.Range != analytics.Range7D {
		t.Errorf("range = %v, want 7d", dash.Range)
	}

	// Second identical request is served from cache.
	do(srv, http.MethodGet, "/api/dashboard?range=7d", "")
	if dp.builds != 1 {
		t.Errorf("builds = %d, want 1 (cache hit expected)", dp.builds)
	}

	if rr := do(srv, http.MethodGet, "/api/dashboard?range=bogus", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("bogus range status = %d, want 400", rr.Code)
	}

	if rr := do(srv, http.MethodPost, "/api/dashboard", "{}"); rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST status = %d, want 405", rr.Code)
	}
}

func TestWritesInvalidateDashboardCache(t *testing.T) {
	srv, dp, _ := newTestServer()
	defer srv.Shutdown(context.Background())

	do(srv, http.MethodGet, "/api/dashboard", "")
	do(srv, http.MethodGet, "/api/dashboard", "")
	if dp.builds != 1 {
		t.Fatalf("builds = %d, want 1 before write", dp.builds)
	}

	rr := do(srv, http.MethodPost, "/api/snapshots",
		`{"date":"2025-06-10","lines":[{"walletId":"w1","amount":1200}]}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("snapshot status = %d, want 201, body: %s", rr.Code, rr.Body.String())
	}

	do(srv, http.MethodGet, "/api/dashboard", "")
	if dp.builds != 2 {
		t.Errorf("builds = %d, want 2 after write invalidation", dp.builds)
	}
}

func TestWalletHandlers(t *testing.T) {
	srv, _, _ := newTestServer()
	defer srv.Shutdown(context.Background())

	rr := do(srv, http.MethodGet, "/api/wallets", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("list status = %d, want 200", rr.Code)
	}
	var wallets []core.Wallet
	if err := json.Unmarshal(rr.Body.Bytes(), &wallets); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(wallets) != 1 || wallets[0].Name != "Bank" {
		t.Errorf("wallets = %+v, want one named Bank", wallets)
	}

	rr = do(srv, http.MethodPost, "/api/wallets", `{"name":"Broker","type":"investment","tag":"ETF"}`)
	if rr.Code != http.StatusCreated {
		t.Errorf("create status = %d, want 201, body: %s", rr.Code, rr.Body.String())
	}

	rr = do(srv, http.MethodPost, "/api/wallets", `{"name":"Bad","type":"pockets"}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("invalid type status = %d, want 422", rr.Code)
	}

	rr = do(srv, http.MethodPost, "/api/wallets", `not json`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("bad body status = %d, want 400", rr.Code)
	}
}

func TestSnapshotHandlerValidation(t *testing.T) {
	srv, _, _ := newTestServer()
	defer srv.Shutdown(context.Background())

	rr := do(srv, http.MethodPost, "/api/snapshots", `{"date":"10/06/2025","lines":[{"walletId":"w1","amount":1}]}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("bad date status = %d, want 422", rr.Code)
	}

	rr = do(srv, http.MethodPost, "/api/snapshots", `{"date":"2025-06-10","lines":[]}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("empty lines status = %d, want 422", rr.Code)
	}

	rr = do(srv, http.MethodPost, "/api/snapshots", `{"date":"2025-06-10","lines":[{"amount":1}]}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("missing wallet id status = %d, want 422", rr.Code)
	}
}

func TestEntryHandlers(t *testing.T) {
	srv, _, lr := newTestServer()
	defer srv.Shutdown(context.Background())

	rr := do(srv, http.MethodPost, "/api/entries",
		`{"kind":"income","name":"Salary","amount":2500,"startDate":"2025-01-27","rule":{"frequency":"monthly","interval":1}}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201, body: %s", rr.Code, rr.Body.String())
	}
	var created createdResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.ID != "e1" {
		t.Errorf("id = %q, want e1", created.ID)
	}

	rr = do(srv, http.MethodPost, "/api/entries",
		`{"kind":"income","name":"Salary","amount":-5,"startDate":"2025-01-27"}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("negative amount status = %d, want 422", rr.Code)
	}

	rr = do(srv, http.MethodDelete, "/api/entries/e1", "")
	if rr.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", rr.Code)
	}
	if len(lr.deactivated) != 1 || lr.deactivated[0] != "e1" {
		t.Errorf("deactivated = %v, want [e1]", lr.deactivated)
	}

	rr = do(srv, http.MethodDelete, "/api/entries/missing", "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("missing entry status = %d, want 404", rr.Code)
	}
}

func TestOccurrencesHandler(t *testing.T) {
	srv, _, _ := newTestServer()
	defer srv.Shutdown(context.Background())

	rr := do(srv, http.MethodGet, "/api/occurrences?from=2025-06-01&to=2025-06-30", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var occ []projection.Occurrence
	if err := json.Unmarshal(rr.Body.Bytes(), &occ); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(occ) != 1 || occ[0].Name != "rent" {
		t.Errorf("occurrences = %+v, want one named rent", occ)
	}

	if rr := do(srv, http.MethodGet, "/api/occurrences?from=junk", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("bad from status = %d, want 400", rr.Code)
	}

	if rr := do(srv, http.MethodGet, "/api/occurrences?from=2025-06-30&to=2025-06-01", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("inverted bounds status = %d, want 400", rr.Code)
	}
}
