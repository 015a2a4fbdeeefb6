package http

import (
	"net/http"

	"finura/internal/core"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request, userID string) {
	filter, err := typeFilterParam(r)
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}
	sortKey, err := sortParam(r)
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}
	search := r.URL.Query().Get("search")
	from, to, ranged, err := rangeParams(r)
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}

	var txs []core.Transaction
	if ranged {
		txs, err = s.transactions.ListRange(r.Context(), userID, from, to, filter, search, sortKey)
	} else {
		txs, err = s.transactions.List(r.Context(), userID, filter, search, sortKey)
	}
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, txs)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request, userID string) {
	tx, err := decodeCreateTransaction(r, userID)
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}

	saved, err := s.transactions.Create(r.Context(), tx)
	if err != nil {
		respondError(w, err)
		return
	}

	s.invalidateSummaries(userID)
	respondJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request, userID string) {
	id := r.PathValue("id")
	upd, err := decodeUpdateTransaction(r)
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}

	updated, err := s.transactions.Update(r.Context(), userID, id, upd)
	if err != nil {
		respondError(w, err)
		return
	}

	s.invalidateSummaries(userID)
	respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request, userID string) {
	id := r.PathValue("id")
	if err := s.transactions.Delete(r.Context(), userID, id); err != nil {
		respondError(w, err)
		return
	}

	s.invalidateSummaries(userID)
	w.WriteHeader(http.StatusNoContent)
}
