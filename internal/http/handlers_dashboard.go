package http

import (
	"log/slog"
	"net/http"
	"time"

	"carteira/internal/core"
)

// handleDashboard assembles the dashboard metrics for the calling user:
// full ledger plus profile plus aggregated invoices, all reduced by the
// pure calculation code against today's date.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	user := userID(r)

	cacheKey := user + ":dashboard"
	if cached, ok := s.dashboardCache.Get(cacheKey); ok {
		writeJSON(w, http.StatusOK, toDashboardResponse(cached))
		return
	}

	transactions, err := s.storage.ListTransactions(r.Context(), user)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list transactions", "error", err)
		writeError(w, http.StatusInternalServerError, "could not build dashboard")
		return
	}
	profile, err := s.storage.GetProfile(r.Context(), user)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to load profile", "error", err)
		writeError(w, http.StatusInternalServerError, "could not build dashboard")
		return
	}
	cards, err := s.storage.ListCards(r.Context(), user)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list cards", "error", err)
		writeError(w, http.StatusInternalServerError, "could not build dashboard")
		return
	}

	today := core.DateOf(time.Now())
	invoices := core.AggregateInvoices(cards, transactions, today)
	metrics := core.ComputeMetrics(transactions, profile, invoices, today)

	s.dashboardCache.Set(cacheKey, metrics)
	writeJSON(w, http.StatusOK, toDashboardResponse(metrics))
}
