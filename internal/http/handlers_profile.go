package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"carteira/internal/core"
)

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.storage.GetProfile(r.Context(), userID(r))
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to load profile", "error", err)
		writeError(w, http.StatusInternalServerError, "could not load profile")
		return
	}

	writeJSON(w, http.StatusOK, profileResponse{
		PayDay:    profile.PayDay,
		PayDay2:   profile.PayDay2,
		WorkModel: profile.WorkModel,
		Focus:     string(profile.Focus),
	})
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	user := userID(r)

	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	profile := core.Profile{
		UserID:    user,
		PayDay:    req.PayDay,
		PayDay2:   req.PayDay2,
		WorkModel: sanitizeInput(req.WorkModel),
		Focus:     core.FinancialFocus(req.Focus),
	}
	if err := profile.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.storage.UpsertProfile(r.Context(), profile); err != nil {
		slog.ErrorContext(r.Context(), "Failed to save profile", "error", err)
		writeError(w, http.StatusInternalServerError, "could not save profile")
		return
	}

	// Payday and focus feed the dashboard, drop the cached view.
	s.invalidateUserCaches(user)

	writeJSON(w, http.StatusOK, profileResponse{
		PayDay:    profile.PayDay,
		PayDay2:   profile.PayDay2,
		WorkModel: profile.WorkModel,
		Focus:     string(profile.Focus),
	})
}
