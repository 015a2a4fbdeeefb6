package http

import (
	"net/http"

	"finura/internal/core"
)

type setDailyLimitRequest struct {
	DailyLimit core.Money `json:"dailyLimit"`
}

func (s *Server) handleGetDailyLimit(w http.ResponseWriter, r *http.Request, userID string) {
	settings, err := s.settings.Get(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, settings)
}

func (s *Server) handleSetDailyLimit(w http.ResponseWriter, r *http.Request, userID string) {
	var req setDailyLimitRequest
	if err := decodeBody(r, &req); err != nil {
		respondBadRequest(w, err.Error())
		return
	}

	settings, err := s.settings.SetDailyLimit(r.Context(), userID, req.DailyLimit)
	if err != nil {
		respondError(w, err)
		return
	}

	// The daily summary embeds the limit, so cached copies are stale now.
	s.invalidateSummaries(userID)
	respondJSON(w, http.StatusOK, settings)
}
