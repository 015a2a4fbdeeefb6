package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"finura/internal/core"
)

const maxBodySize = 64 << 10

// createTransactionRequest accepts both wire shapes for date and amount:
// date as an ISO string or epoch milliseconds, amount as a number or a
// decimal string with dot or comma separator.
type createTransactionRequest struct {
	Type        string     `json:"type"`
	Amount      core.Money `json:"amount"`
	Category    string     `json:"category"`
	Description string     `json:"description"`
	Note        string     `json:"note"`
	Date        any        `json:"date"`
}

func decodeCreateTransaction(r *http.Request, userID string) (core.Transaction, error) {
	var req createTransactionRequest
	if err := decodeBody(r, &req); err != nil {
		return core.Transaction{}, err
	}

	tx := core.Transaction{
		UserID:      userID,
		Type:        core.TxType(strings.ToLower(strings.TrimSpace(req.Type))),
		Amount:      req.Amount,
		Category:    strings.TrimSpace(req.Category),
		Description: strings.TrimSpace(req.Description),
		Note:        req.Note,
	}
	if req.Date != nil {
		date, err := core.ParseWhen(req.Date)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("invalid date: %w", err)
		}
		tx.Date = date
	}
	return tx, nil
}

type updateTransactionRequest struct {
	Amount   *core.Money `json:"amount"`
	Category *string     `json:"category"`
	Note     *string     `json:"note"`
	Date     any         `json:"date"`
}

func decodeUpdateTransaction(r *http.Request) (core.TransactionUpdate, error) {
	var req updateTransactionRequest
	if err := decodeBody(r, &req); err != nil {
		return core.TransactionUpdate{}, err
	}

	upd := core.TransactionUpdate{
		Amount:   req.Amount,
		Category: req.Category,
		Note:     req.Note,
	}
	if req.Date != nil {
		date, err := core.ParseWhen(req.Date)
		if err != nil {
			return core.TransactionUpdate{}, fmt.Errorf("invalid date: %w", err)
		}
		upd.Date = &date
	}
	return upd, nil
}

func decodeBody(r *http.Request, dst any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodySize))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// monthParam reads ?month=YYYY-MM, defaulting to the current month.
func monthParam(r *http.Request, now time.Time) (time.Time, error) {
	raw := r.URL.Query().Get("month")
	if raw == "" {
		return now, nil
	}
	t, err := time.Parse("2006-01", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q: want YYYY-MM", raw)
	}
	return t, nil
}

// dayParam reads ?date=YYYY-MM-DD, defaulting to today.
func dayParam(r *http.Request, now time.Time) (time.Time, error) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return now, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", raw)
	}
	return t, nil
}

// rangeParams reads ?from=YYYY-MM-DD&to=YYYY-MM-DD. Both or neither must be
// present; ok reports whether a range was requested. The to side covers its
// whole day.
func rangeParams(r *http.Request) (from, to time.Time, ok bool, err error) {
	rawFrom := r.URL.Query().Get("from")
	rawTo := r.URL.Query().Get("to")
	if rawFrom == "" && rawTo == "" {
		return time.Time{}, time.Time{}, false, nil
	}
	if rawFrom == "" || rawTo == "" {
		return time.Time{}, time.Time{}, false, fmt.Errorf("from and to must be given together")
	}
	from, err = time.Parse("2006-01-02", rawFrom)
	if err != nil {
		return time.Time{}, time.Time{}, false, fmt.Errorf("invalid from %q: want YYYY-MM-DD", rawFrom)
	}
	to, err = time.Parse("2006-01-02", rawTo)
	if err != nil {
		return time.Time{}, time.Time{}, false, fmt.Errorf("invalid to %q: want YYYY-MM-DD", rawTo)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, false, fmt.Errorf("from is after to")
	}
	to = to.Add(24*time.Hour - time.Nanosecond)
	return from, to, true, nil
}

func typeFilterParam(r *http.Request) (core.TypeFilter, error) {
	raw := strings.ToLower(r.URL.Query().Get("type"))
	switch raw {
	case "", "all":
		return core.FilterAll, nil
	case "income":
		return core.FilterIncome, nil
	case "expense":
		return core.FilterExpense, nil
	default:
		return "", fmt.Errorf("invalid type filter %q", raw)
	}
}

func sortParam(r *http.Request) (core.SortKey, error) {
	raw := strings.ToLower(r.URL.Query().Get("sort"))
	switch raw {
	case "", "date":
		return core.SortByDate, nil
	case "amount":
		return core.SortByAmount, nil
	case "category":
		return core.SortByCategory, nil
	default:
		return "", fmt.Errorf("invalid sort key %q", raw)
	}
}

func countParam(r *http.Request, fallback, max int) (int, error) {
	raw := r.URL.Query().Get("count")
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid count %q", raw)
	}
	if n > max {
		n = max
	}
	return n, nil
}
