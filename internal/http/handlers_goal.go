package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"carteira/internal/core"
	"carteira/internal/storage"
)

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	user := userID(r)

	var req goalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	value, err := core.ParseDecimalToCents(req.Value)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start_date, expected YYYY-MM-DD")
		return
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end_date, expected YYYY-MM-DD")
		return
	}

	goal := core.Goal{
		ID:        uuid.NewString(),
		Category:  sanitizeInput(req.Category),
		GoalValue: core.Money{Cents: value},
		StartDate: start,
		EndDate:   end,
	}
	if err := goal.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Seed the running total from history so the goal starts correct;
	// later changes arrive incrementally through ledger events.
	transactions, err := s.storage.ListTransactions(r.Context(), user)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list transactions", "error", err)
		writeError(w, http.StatusInternalServerError, "could not save goal")
		return
	}
	for _, t := range transactions {
		goal = core.ApplyTransactionDelta(goal, t, core.DeltaAdd)
	}

	if err := s.storage.CreateGoal(r.Context(), user, goal); err != nil {
		slog.ErrorContext(r.Context(), "Failed to create goal", "error", err)
		writeError(w, http.StatusInternalServerError, "could not save goal")
		return
	}

	writeJSON(w, http.StatusCreated, toGoalResponse(goal))
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.storage.ListGoals(r.Context(), userID(r))
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list goals", "error", err)
		writeError(w, http.StatusInternalServerError, "could not list goals")
		return
	}

	out := make([]goalResponse, 0, len(goals))
	for _, g := range goals {
		out = append(out, toGoalResponse(g))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := s.storage.DeleteGoal(r.Context(), userID(r), r.PathValue("id")); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "goal not found")
			return
		}
		slog.ErrorContext(r.Context(), "Failed to delete goal", "error", err)
		writeError(w, http.StatusInternalServerError, "could not delete goal")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
