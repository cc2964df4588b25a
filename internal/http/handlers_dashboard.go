package http

import (
	"net/http"
	"strconv"
	"strings"

	"bilancio/internal/analytics"
	"bilancio/internal/log"
)

// handleDashboard serves the aggregated dashboard view-model. Responses are
// cached per comparison range until the next write.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	rng := analytics.Range28D
	if v := strings.TrimSpace(r.URL.Query().Get("range")); v != "" {
		parsed, err := analytics.ParseRange(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		rng = parsed
	}

	key := string(rng)
	if dash, found := s.dashCache.Get(key); found {
		log.FromContext(r.Context()).DebugContext(r.Context(), "Dashboard cache hit", log.FieldRange, rng)
		writeJSON(w, http.StatusOK, dash)
		return
	}

	dash, err := s.dashboards.Build(r.Context(), rng, today())
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Dashboard build failed",
			log.FieldError, err.Error(), log.FieldRange, rng)
		writeError(w, http.StatusInternalServerError, "failed to build dashboard")
		return
	}

	s.dashCache.Set(key, dash)
	writeJSON(w, http.StatusOK, dash)
}

// handleSeries serves the monthly net-worth series for the chart.
func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	months := queryInt(r, "months", s.opts.SeriesMonths)

	key := strconv.Itoa(months)
	if series, found := s.seriesCache.Get(key); found {
		writeJSON(w, http.StatusOK, series)
		return
	}

	series, err := s.dashboards.Series(r.Context(), months, today())
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Series build failed",
			log.FieldError, err.Error(), "months", months)
		writeError(w, http.StatusInternalServerError, "failed to build series")
		return
	}

	s.seriesCache.Set(key, series)
	writeJSON(w, http.StatusOK, series)
}

// handleOccurrences projects cash-flow events inside [from, to]. Bounds
// default to the next 30 days when omitted.
func (s *Server) handleOccurrences(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	now := today()
	from, err := queryDate(r, "from", now)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := queryDate(r, "to", now.AddDays(30))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if to.Compare(from) < 0 {
		writeError(w, http.StatusBadRequest, "to must not be before from")
		return
	}

	occurrences, err := s.dashboards.OccurrencesInRange(r.Context(), from, to)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Occurrence projection failed",
			log.FieldError, err.Error(),
			"from", from.String(),
			"to", to.String())
		writeError(w, http.StatusInternalServerError, "failed to project occurrences")
		return
	}

	writeJSON(w, http.StatusOK, occurrences)
}
