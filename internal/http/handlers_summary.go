package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"finura/internal/core"
)

// Summary responses are cached per user; mutations invalidate all of a
// user's entries, so the TTL only matters for idle users.
func (s *Server) cachedSummary(w http.ResponseWriter, key string, compute func() (any, error)) {
	if body, ok := s.summaryCache.Get(key); ok {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("X-Cache", "hit")
		w.WriteHeader(http.StatusOK)
		w.Write(body)
		return
	}

	payload, err := compute()
	if err != nil {
		respondError(w, err)
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		respondError(w, err)
		return
	}
	s.summaryCache.Set(key, body)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func (s *Server) handleDailySummary(w http.ResponseWriter, r *http.Request, userID string) {
	day, err := dayParam(r, time.Now().UTC())
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}

	key := s.summaryKey(userID, "daily", core.DayKey(day))
	s.cachedSummary(w, key, func() (any, error) {
		return s.transactions.DailySummary(r.Context(), userID, day)
	})
}

func (s *Server) handleMonthlySummary(w http.ResponseWriter, r *http.Request, userID string) {
	month, err := monthParam(r, time.Now().UTC())
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}

	key := s.summaryKey(userID, "monthly", core.MonthKey(month))
	s.cachedSummary(w, key, func() (any, error) {
		return s.transactions.MonthlySummary(r.Context(), userID, month)
	})
}

func (s *Server) handleCategorySummary(w http.ResponseWriter, r *http.Request, userID string) {
	month, err := monthParam(r, time.Now().UTC())
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}

	txType := core.Expense
	if raw := strings.ToLower(r.URL.Query().Get("type")); raw != "" {
		txType = core.TxType(raw)
		if !txType.IsValid() {
			respondBadRequest(w, "invalid type "+strconv.Quote(raw))
			return
		}
	}

	key := s.summaryKey(userID, "categories", core.MonthKey(month), string(txType))
	s.cachedSummary(w, key, func() (any, error) {
		return s.transactions.CategorySummary(r.Context(), userID, month, txType)
	})
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request, userID string) {
	unit := core.UnitDay
	fallback := 7
	if strings.ToLower(r.URL.Query().Get("unit")) == "month" {
		unit = core.UnitMonth
		fallback = 6
	}

	count, err := countParam(r, fallback, 366)
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}

	key := s.summaryKey(userID, "series", string(unit), strconv.Itoa(count), core.DayKey(time.Now().UTC()))
	s.cachedSummary(w, key, func() (any, error) {
		return s.transactions.Series(r.Context(), userID, unit, count)
	})
}
