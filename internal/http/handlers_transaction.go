package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"carteira/internal/core"
	"carteira/internal/storage"
)

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	user := userID(r)

	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	t, err := transactionFromRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	saved, err := s.ledger.CreateTransaction(r.Context(), user, t)
	if err != nil {
		if isValidationError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "Failed to create transaction", "error", err)
		writeError(w, http.StatusInternalServerError, "could not save transaction")
		return
	}

	s.invalidateUserCaches(user)
	writeJSON(w, http.StatusCreated, toTransactionResponse(saved))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	user := userID(r)

	var (
		transactions []core.Transaction
		err          error
	)
	yearStr := strings.TrimSpace(r.URL.Query().Get("year"))
	monthStr := strings.TrimSpace(r.URL.Query().Get("month"))
	if yearStr != "" && monthStr != "" {
		year, yerr := strconv.Atoi(yearStr)
		month, merr := strconv.Atoi(monthStr)
		if yerr != nil || merr != nil || month < 1 || month > 12 {
			writeError(w, http.StatusBadRequest, "invalid year or month")
			return
		}
		transactions, err = s.storage.ListTransactionsByMonth(r.Context(), user, year, month)
	} else {
		transactions, err = s.storage.ListTransactions(r.Context(), user)
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list transactions", "error", err)
		writeError(w, http.StatusInternalServerError, "could not list transactions")
		return
	}

	out := make([]transactionResponse, 0, len(transactions))
	for _, t := range transactions {
		out = append(out, toTransactionResponse(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	id := r.PathValue("id")

	if err := s.ledger.DeleteTransaction(r.Context(), user, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "transaction not found")
			return
		}
		slog.ErrorContext(r.Context(), "Failed to delete transaction", "error", err)
		writeError(w, http.StatusInternalServerError, "could not delete transaction")
		return
	}

	s.invalidateUserCaches(user)
	w.WriteHeader(http.StatusNoContent)
}

func transactionFromRequest(req transactionRequest) (core.Transaction, error) {
	value, err := core.ParseDecimalToCents(req.Value)
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return core.Transaction{}, errors.New("invalid date, expected YYYY-MM-DD")
	}

	t := core.Transaction{
		Type:        core.TransactionType(strings.TrimSpace(req.Type)),
		Value:       core.Money{Cents: value},
		Date:        date,
		Category:    sanitizeInput(req.Category),
		Subcategory: sanitizeInput(req.Subcategory),
		Description: sanitizeInput(req.Description),
		Method:      core.PaymentMethod(strings.TrimSpace(req.Method)),
		CardID:      strings.TrimSpace(req.CardID),
		IsFixed:     req.IsFixed,
		IsConfirmed: req.IsConfirmed,
	}

	if req.InvoiceKey != "" {
		key, err := core.ParseCycleKey(req.InvoiceKey)
		if err != nil {
			return core.Transaction{}, err
		}
		t.InvoiceKey = &key
	}

	return t, nil
}

// isValidationError tells client mistakes apart from infrastructure
// failures for status code selection.
func isValidationError(err error) bool {
	for _, sentinel := range []error{
		core.ErrInvalidType,
		core.ErrInvalidMethod,
		core.ErrInvalidAmount,
		core.ErrEmptyDescription,
		core.ErrEmptyCategory,
		core.ErrMissingCard,
		core.ErrInvalidClosingDay,
		core.ErrInvalidDueDay,
		core.ErrEmptyName,
		core.ErrInvalidDateRange,
		core.ErrInvalidFocus,
		core.ErrInvalidPayDay,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
