package core

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Aggregates are pure functions of (snapshot, reference time, limit): they
// never mutate their input and are recomputed on read, not on render.

const (
	UnitDay   BucketUnit = "day"
	UnitMonth BucketUnit = "month"

	SortByDate     SortKey = "date"
	SortByAmount   SortKey = "amount"
	SortByCategory SortKey = "category"

	FilterAll     TypeFilter = "all"
	FilterIncome  TypeFilter = "income"
	FilterExpense TypeFilter = "expense"
)

type (
	BucketUnit string
	SortKey    string
	TypeFilter string

	DayTotals struct {
		Income  Money `json:"income"`
		Expense Money `json:"expense"`
	}

	MonthTotals struct {
		Income         Money   `json:"income"`
		Expense        Money   `json:"expense"`
		Savings        Money   `json:"savings"`
		SavingsPercent float64 `json:"savingsPercent"`
	}

	CategoryTotal struct {
		Category string `json:"category"`
		Total    Money  `json:"total"`
	}

	// SeriesPoint is one bucket of a trend series. Buckets with no matching
	// transactions are present with zero totals, never omitted.
	SeriesPoint struct {
		Bucket  string `json:"bucket"`
		Income  Money  `json:"income"`
		Expense Money  `json:"expense"`
		Savings Money  `json:"savings"`
	}
)

var categoryCollator = collate.New(language.English, collate.Loose)

// TotalByType sums amounts over transactions of the given type.
func TotalByType(txs []Transaction, t TxType) Money {
	var total Money
	for _, tx := range txs {
		if tx.Type == t {
			total.Cents += tx.Amount.Cents
		}
	}
	return total
}

// DailyTotals sums income and expense restricted to the calendar day of day.
func DailyTotals(txs []Transaction, day time.Time) DayTotals {
	var out DayTotals
	for _, tx := range txs {
		if !SameDay(tx.Date, day) {
			continue
		}
		switch tx.Type {
		case Income:
			out.Income.Cents += tx.Amount.Cents
		case Expense:
			out.Expense.Cents += tx.Amount.Cents
		}
	}
	return out
}

// RemainingBudget is the display value of what is left of the daily limit,
// clamped at zero. Use BudgetBalance for the signed value: over-budget is a
// valid state, not an error.
func RemainingBudget(limit, spentToday Money) Money {
	r := BudgetBalance(limit, spentToday)
	if r.Cents < 0 {
		return Money{}
	}
	return r
}

// BudgetBalance is the signed difference limit - spentToday.
func BudgetBalance(limit, spentToday Money) Money {
	return limit.Sub(spentToday)
}

// MonthlyTotals aggregates the calendar month of month. Savings is
// income - expense; the savings percentage is 0 when income is 0.
func MonthlyTotals(txs []Transaction, month time.Time) MonthTotals {
	var out MonthTotals
	for _, tx := range txs {
		if !SameMonth(tx.Date, month) {
			continue
		}
		switch tx.Type {
		case Income:
			out.Income.Cents += tx.Amount.Cents
		case Expense:
			out.Expense.Cents += tx.Amount.Cents
		}
	}
	out.Savings = out.Income.Sub(out.Expense)
	if out.Income.Cents > 0 {
		out.SavingsPercent = float64(out.Savings.Cents) / float64(out.Income.Cents) * 100
	}
	return out
}

// CategoryBreakdown groups transactions of the given type within the given
// month by exact category label, preserving first-seen order.
func CategoryBreakdown(txs []Transaction, month time.Time, t TxType) []CategoryTotal {
	byCat := map[string]int64{}
	order := make([]string, 0)
	for _, tx := range txs {
		if tx.Type != t || !SameMonth(tx.Date, month) {
			continue
		}
		if _, seen := byCat[tx.Category]; !seen {
			order = append(order, tx.Category)
		}
		byCat[tx.Category] += tx.Amount.Cents
	}
	out := make([]CategoryTotal, 0, len(order))
	for _, name := range order {
		out = append(out, CategoryTotal{Category: name, Total: Money{Cents: byCat[name]}})
	}
	return out
}

// TimeSeries builds exactly count consecutive buckets of the given unit
// ending at now, oldest first. Day buckets are labelled YYYY-MM-DD, month
// buckets YYYY-MM.
func TimeSeries(txs []Transaction, unit BucketUnit, count int, now time.Time) []SeriesPoint {
	if count <= 0 {
		return []SeriesPoint{}
	}
	// Buckets live on the UTC calendar, matching DayKey and MonthKey.
	now = now.UTC()
	// Anchor month buckets to the first of the month so stepping back from
	// a month-end day cannot skip or duplicate a bucket.
	base := now
	if unit == UnitMonth {
		base = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	}

	points := make([]SeriesPoint, count)
	index := make(map[string]int, count)
	for i := 0; i < count; i++ {
		offset := count - 1 - i
		var label string
		switch unit {
		case UnitMonth:
			label = MonthKey(base.AddDate(0, -offset, 0))
		default:
			label = DayKey(base.AddDate(0, 0, -offset))
		}
		points[i] = SeriesPoint{Bucket: label}
		index[label] = i
	}
	for _, tx := range txs {
		var label string
		switch unit {
		case UnitMonth:
			label = MonthKey(tx.Date)
		default:
			label = DayKey(tx.Date)
		}
		i, ok := index[label]
		if !ok {
			continue
		}
		switch tx.Type {
		case Income:
			points[i].Income.Cents += tx.Amount.Cents
		case Expense:
			points[i].Expense.Cents += tx.Amount.Cents
		}
	}
	for i := range points {
		points[i].Savings = points[i].Income.Sub(points[i].Expense)
	}
	return points
}

// SortTransactions returns a sorted copy; the input slice is never reordered.
// Date sorts newest first, amount highest first, category ascending with
// locale-aware comparison. All sorts are stable.
func SortTransactions(txs []Transaction, key SortKey) []Transaction {
	out := make([]Transaction, len(txs))
	copy(out, txs)
	switch key {
	case SortByAmount:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Amount.Cents > out[j].Amount.Cents
		})
	case SortByCategory:
		sort.SliceStable(out, func(i, j int) bool {
			return categoryCollator.CompareString(out[i].Category, out[j].Category) < 0
		})
	default:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Date.After(out[j].Date)
		})
	}
	return out
}

// FilterTransactions keeps transactions matching the type filter and, when
// search is non-empty, a case-insensitive substring of description, category
// or note. The input slice is not modified.
func FilterTransactions(txs []Transaction, filter TypeFilter, search string) []Transaction {
	search = strings.ToLower(strings.TrimSpace(search))
	out := make([]Transaction, 0, len(txs))
	for _, tx := range txs {
		if filter != FilterAll && filter != "" && string(tx.Type) != string(filter) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(tx.Description), search) &&
			!strings.Contains(strings.ToLower(tx.Category), search) &&
			!strings.Contains(strings.ToLower(tx.Note), search) {
			continue
		}
		out = append(out, tx)
	}
	return out
}
