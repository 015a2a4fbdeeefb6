// Package services orchestrates domain operations across the store, the
// realtime hub and the AMQP event stream. Stores stay dumb; all cross-cutting
// behavior (daily limit enforcement, change notification) lives here.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"finura/internal/amqp"
	"finura/internal/core"
	"finura/internal/realtime"
	"finura/internal/store"
)

// ChangePublisher is the event side of the AMQP client. Nil-safe usage is
// handled inside the service: events are best effort and never fail a write.
type ChangePublisher interface {
	PublishTransactionChanged(ctx context.Context, userID, txID, op string) error
}

type TransactionService struct {
	store     store.Store
	hub       *realtime.Hub
	publisher ChangePublisher
	now       func() time.Time
}

func NewTransactionService(s store.Store, hub *realtime.Hub, publisher ChangePublisher) *TransactionService {
	return &TransactionService{
		store:     s,
		hub:       hub,
		publisher: publisher,
		now:       time.Now,
	}
}

// Create validates and saves a new transaction. Expenses are checked against
// the user's daily limit: the new total may land exactly on the limit but
// must not exceed it. Income is never limited.
func (s *TransactionService) Create(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	if tx.Date.IsZero() {
		tx.Date = s.now().UTC()
	}
	if tx.Description == "" {
		tx.Description = tx.Category
	}

	if tx.Type == core.Expense && core.SameDay(tx.Date, s.now().UTC()) {
		settings, err := s.store.GetSettings(ctx, tx.UserID)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("load settings: %w", err)
		}
		spent, err := s.spentOn(ctx, tx.UserID, tx.Date)
		if err != nil {
			return core.Transaction{}, err
		}
		if !core.WithinDailyLimit(settings.DailyLimit, spent, tx.Amount) {
			return core.Transaction{}, core.ErrOverDailyLimit
		}
	}

	saved, err := s.store.AddTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	s.notifyChange(ctx, saved.UserID, saved.ID, amqp.OpCreated)
	return saved, nil
}

// Update applies a partial update. The daily limit is not re-checked here:
// edits adjust history and must always succeed.
func (s *TransactionService) Update(ctx context.Context, userID, id string, upd core.TransactionUpdate) (core.Transaction, error) {
	updated, err := s.store.UpdateTransaction(ctx, userID, id, upd)
	if err != nil {
		return core.Transaction{}, err
	}

	s.notifyChange(ctx, userID, id, amqp.OpUpdated)
	return updated, nil
}

func (s *TransactionService) Delete(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteTransaction(ctx, userID, id); err != nil {
		return err
	}

	s.notifyChange(ctx, userID, id, amqp.OpDeleted)
	return nil
}

func (s *TransactionService) Get(ctx context.Context, userID, id string) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, userID, id)
}

// List returns the user's transactions newest first, optionally filtered and
// re-sorted.
func (s *TransactionService) List(ctx context.Context, userID string, filter core.TypeFilter, search string, sortKey core.SortKey) ([]core.Transaction, error) {
	txs, err := s.store.ListTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	return shapeList(txs, filter, search, sortKey), nil
}

// ListRange is List restricted to transactions dated within [from, to].
func (s *TransactionService) ListRange(ctx context.Context, userID string, from, to time.Time, filter core.TypeFilter, search string, sortKey core.SortKey) ([]core.Transaction, error) {
	txs, err := s.store.ListTransactionsRange(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list transactions in range: %w", err)
	}
	return shapeList(txs, filter, search, sortKey), nil
}

func shapeList(txs []core.Transaction, filter core.TypeFilter, search string, sortKey core.SortKey) []core.Transaction {
	txs = core.FilterTransactions(txs, filter, search)
	if sortKey != "" && sortKey != core.SortByDate {
		txs = core.SortTransactions(txs, sortKey)
	}
	return txs
}

// DailySummary reports today's totals against the user's limit.
type DailySummary struct {
	Date      string         `json:"date"`
	Totals    core.DayTotals `json:"totals"`
	Limit     core.Money     `json:"limit"`
	Remaining core.Money     `json:"remaining"`
	Balance   core.Money     `json:"balance"`
	OverLimit bool           `json:"overLimit"`
}

func (s *TransactionService) DailySummary(ctx context.Context, userID string, day time.Time) (DailySummary, error) {
	settings, err := s.store.GetSettings(ctx, userID)
	if err != nil {
		return DailySummary{}, fmt.Errorf("load settings: %w", err)
	}
	txs, err := s.store.ListTransactions(ctx, userID)
	if err != nil {
		return DailySummary{}, fmt.Errorf("list transactions: %w", err)
	}

	totals := core.DailyTotals(txs, day)
	balance := core.BudgetBalance(settings.DailyLimit, totals.Expense)
	return DailySummary{
		Date:      core.DayKey(day),
		Totals:    totals,
		Limit:     settings.DailyLimit,
		Remaining: core.RemainingBudget(settings.DailyLimit, totals.Expense),
		Balance:   balance,
		OverLimit: balance.IsNegative(),
	}, nil
}

func (s *TransactionService) MonthlySummary(ctx context.Context, userID string, month time.Time) (core.MonthTotals, error) {
	txs, err := s.store.ListTransactions(ctx, userID)
	if err != nil {
		return core.MonthTotals{}, fmt.Errorf("list transactions: %w", err)
	}
	return core.MonthlyTotals(txs, month), nil
}

func (s *TransactionService) CategorySummary(ctx context.Context, userID string, month time.Time, t core.TxType) ([]core.CategoryTotal, error) {
	txs, err := s.store.ListTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return core.CategoryBreakdown(txs, month, t), nil
}

// SeriesSummary is a trend series plus its per-bucket averages, so clients
// get the quick stats without recomputing them from the points.
type SeriesSummary struct {
	Unit    core.BucketUnit    `json:"unit"`
	Points  []core.SeriesPoint `json:"points"`
	Average SeriesAverages     `json:"average"`
}

type SeriesAverages struct {
	Income  core.Money `json:"income"`
	Expense core.Money `json:"expense"`
	Savings core.Money `json:"savings"`
}

func (s *TransactionService) Series(ctx context.Context, userID string, unit core.BucketUnit, count int) (SeriesSummary, error) {
	txs, err := s.store.ListTransactions(ctx, userID)
	if err != nil {
		return SeriesSummary{}, fmt.Errorf("list transactions: %w", err)
	}

	points := core.TimeSeries(txs, unit, count, s.now().UTC())
	summary := SeriesSummary{Unit: unit, Points: points}
	if n := int64(len(points)); n > 0 {
		var income, expense int64
		for _, p := range points {
			income += p.Income.Cents
			expense += p.Expense.Cents
		}
		summary.Average = SeriesAverages{
			Income:  core.Money{Cents: income / n},
			Expense: core.Money{Cents: expense / n},
			Savings: core.Money{Cents: (income - expense) / n},
		}
	}
	return summary, nil
}

func (s *TransactionService) spentOn(ctx context.Context, userID string, day time.Time) (core.Money, error) {
	txs, err := s.store.ListTransactions(ctx, userID)
	if err != nil {
		return core.Money{}, fmt.Errorf("list transactions: %w", err)
	}
	return core.DailyTotals(txs, day).Expense, nil
}

// notifyChange pushes the new snapshot to live subscribers and publishes the
// change event. Both are best effort: the write already succeeded.
func (s *TransactionService) notifyChange(ctx context.Context, userID, txID, op string) {
	if s.hub != nil {
		s.hub.Notify(ctx, userID)
	}
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishTransactionChanged(ctx, userID, txID, op); err != nil {
		slog.ErrorContext(ctx, "Failed to publish change event",
			"user_id", userID,
			"tx_id", txID,
			"op", op,
			"error", err)
	}
}
