package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"carteira/internal/core"
	"carteira/internal/storage"
)

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	user := userID(r)

	card, ok := s.decodeCard(w, r)
	if !ok {
		return
	}
	card.ID = uuid.NewString()

	if err := s.storage.CreateCard(r.Context(), user, card); err != nil {
		slog.ErrorContext(r.Context(), "Failed to create card", "error", err)
		writeError(w, http.StatusInternalServerError, "could not save card")
		return
	}

	s.invalidateUserCaches(user)
	writeJSON(w, http.StatusCreated, toCardResponse(card))
}

func (s *Server) handleUpdateCard(w http.ResponseWriter, r *http.Request) {
	user := userID(r)

	card, ok := s.decodeCard(w, r)
	if !ok {
		return
	}
	card.ID = r.PathValue("id")

	if err := s.storage.UpdateCard(r.Context(), user, card); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "card not found")
			return
		}
		slog.ErrorContext(r.Context(), "Failed to update card", "error", err)
		writeError(w, http.StatusInternalServerError, "could not update card")
		return
	}

	s.invalidateUserCaches(user)
	writeJSON(w, http.StatusOK, toCardResponse(card))
}

func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	user := userID(r)

	if err := s.storage.DeleteCard(r.Context(), user, r.PathValue("id")); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "card not found")
			return
		}
		slog.ErrorContext(r.Context(), "Failed to delete card", "error", err)
		writeError(w, http.StatusInternalServerError, "could not delete card")
		return
	}

	s.invalidateUserCaches(user)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	cards, err := s.storage.ListCards(r.Context(), userID(r))
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list cards", "error", err)
		writeError(w, http.StatusInternalServerError, "could not list cards")
		return
	}

	out := make([]cardResponse, 0, len(cards))
	for _, c := range cards {
		out = append(out, toCardResponse(c))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleListInvoices returns every card with its billing cycles
// aggregated as of today.
func (s *Server) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	user := userID(r)

	cacheKey := user + ":invoices"
	if cached, ok := s.invoicesCache.Get(cacheKey); ok {
		writeInvoices(w, cached)
		return
	}

	cards, err := s.storage.ListCards(r.Context(), user)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list cards", "error", err)
		writeError(w, http.StatusInternalServerError, "could not list cards")
		return
	}
	transactions, err := s.storage.ListTransactions(r.Context(), user)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list transactions", "error", err)
		writeError(w, http.StatusInternalServerError, "could not list transactions")
		return
	}

	invoices := core.AggregateInvoices(cards, transactions, core.DateOf(time.Now()))
	s.invoicesCache.Set(cacheKey, invoices)
	writeInvoices(w, invoices)
}

func writeInvoices(w http.ResponseWriter, invoices []core.CardInvoices) {
	out := make([]cardInvoicesResponse, 0, len(invoices))
	for _, ci := range invoices {
		out = append(out, toCardInvoicesResponse(ci))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) decodeCard(w http.ResponseWriter, r *http.Request) (core.Card, bool) {
	var req cardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return core.Card{}, false
	}

	limit, err := core.ParseDecimalToCents(req.Limit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return core.Card{}, false
	}

	card := core.Card{
		Name:       sanitizeInput(req.Name),
		Limit:      core.Money{Cents: limit},
		ClosingDay: req.ClosingDay,
		DueDay:     req.DueDay,
		Color:      sanitizeInput(req.Color),
	}
	if err := card.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return core.Card{}, false
	}
	return card, true
}
