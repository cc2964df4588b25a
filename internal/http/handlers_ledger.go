package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"bilancio/internal/core"
	"bilancio/internal/log"
	"bilancio/internal/storage"
)

type walletRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Tag  string `json:"tag"`
}

type snapshotLineRequest struct {
	WalletID string  `json:"walletId"`
	Amount   float64 `json:"amount"`
}

type snapshotRequest struct {
	Date  string                `json:"date"`
	Lines []snapshotLineRequest `json:"lines"`
}

type ruleRequest struct {
	Frequency      string `json:"frequency"`
	Interval       int    `json:"interval"`
	TimesPerPeriod int    `json:"timesPerPeriod"`
}

type entryRequest struct {
	Kind      string       `json:"kind"`
	Name      string       `json:"name"`
	Amount    float64      `json:"amount"`
	StartDate string       `json:"startDate"`
	Rule      *ruleRequest `json:"rule"`
	OneShot   bool         `json:"oneShot"`
	Note      string       `json:"note"`
	Category  string       `json:"category"`
}

// handleWallets lists wallets on GET and creates one on POST.
func (s *Server) handleWallets(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		wallets, err := s.wallets.ListWallets(r.Context())
		if err != nil {
			log.FromContext(r.Context()).ErrorContext(r.Context(), "List wallets failed", log.FieldError, err.Error())
			writeError(w, http.StatusInternalServerError, "failed to list wallets")
			return
		}
		writeJSON(w, http.StatusOK, wallets)

	case http.MethodPost:
		var req walletRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		wallet := core.Wallet{
			Name: sanitizeInput(req.Name),
			Type: core.WalletType(req.Type),
			Tag:  sanitizeInput(req.Tag),
		}

		id, err := s.ledger.CreateWallet(r.Context(), wallet)
		if err != nil {
			s.writeLedgerError(w, r, "Create wallet failed", err)
			return
		}

		s.invalidateReadModels()
		writeJSON(w, http.StatusCreated, createdResponse{ID: id})

	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleCreateSnapshot records a complete balance reading for one date.
func (s *Server) handleCreateSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req snapshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	date, err := core.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid date, want YYYY-MM-DD")
		return
	}
	if len(req.Lines) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "snapshot needs at least one line")
		return
	}

	lines := make([]core.BalanceLine, len(req.Lines))
	for i, l := range req.Lines {
		if l.WalletID == "" {
			writeError(w, http.StatusUnprocessableEntity, "snapshot line missing wallet id")
			return
		}
		lines[i] = core.BalanceLine{WalletID: l.WalletID, Amount: l.Amount}
	}

	id, err := s.ledger.RecordSnapshot(r.Context(), date, lines)
	if err != nil {
		s.writeLedgerError(w, r, "Record snapshot failed", err)
		return
	}

	s.invalidateReadModels()
	writeJSON(w, http.StatusCreated, createdResponse{ID: id})
}

// handleCreateEntry records an income or expense, one-shot or recurring.
func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req entryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	startDate, err := core.ParseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid start date, want YYYY-MM-DD")
		return
	}

	entry := core.LedgerEntry{
		Kind:      core.EntryKind(req.Kind),
		Name:      sanitizeInput(req.Name),
		Amount:    req.Amount,
		StartDate: startDate,
		OneShot:   req.OneShot,
		Note:      sanitizeInput(req.Note),
		Category:  sanitizeInput(req.Category),
	}
	if req.Rule != nil {
		entry.Rule = &core.Rule{
			Every:          core.Frequency(req.Rule.Frequency),
			Interval:       req.Rule.Interval,
			TimesPerPeriod: req.Rule.TimesPerPeriod,
		}
	}

	id, err := s.ledger.CreateEntry(r.Context(), entry)
	if err != nil {
		s.writeLedgerError(w, r, "Create entry failed", err)
		return
	}

	s.invalidateReadModels()
	writeJSON(w, http.StatusCreated, createdResponse{ID: id})
}

// handleDeleteEntry deactivates an entry. The row is kept, it just stops
// producing occurrences.
func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		w.Header().Set("Allow", "DELETE")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing entry id")
		return
	}

	if err := s.ledger.DeactivateEntry(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "entry not found")
			return
		}
		s.writeLedgerError(w, r, "Deactivate entry failed", err)
		return
	}

	s.invalidateReadModels()
	w.WriteHeader(http.StatusNoContent)
}

// writeLedgerError maps domain validation failures to 422 and everything
// else to 500.
func (s *Server) writeLedgerError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	switch {
	case errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrInvalidWallet),
		errors.Is(err, core.ErrInvalidKind),
		errors.Is(err, core.ErrInvalidFrequency):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		log.FromContext(r.Context()).ErrorContext(r.Context(), msg, log.FieldError, err.Error())
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
