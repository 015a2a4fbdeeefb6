package http

import (
	"net/http"
	"time"

	"finura/internal/core"
	"finura/internal/export"
)

// handleExportCSV streams the user's transactions as a CSV download, newest
// first, honoring the same filter and search parameters as the list route.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request, userID string) {
	filter, err := typeFilterParam(r)
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}
	search := r.URL.Query().Get("search")

	txs, err := s.transactions.List(r.Context(), userID, filter, search, core.SortByDate)
	if err != nil {
		respondError(w, err)
		return
	}

	body := export.CSV(txs)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(time.Now().UTC())+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
