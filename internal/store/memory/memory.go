// Package memory provides an in-memory Store used for local development and
// as the reference implementation in tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"finura/internal/core"
)

type Store struct {
	mu           sync.RWMutex
	transactions map[string][]core.Transaction // keyed by user ID
	todos        map[string][]core.Todo
	settings     map[string]core.Settings
	now          func() time.Time
}

func New() *Store {
	return &Store{
		transactions: make(map[string][]core.Transaction),
		todos:        make(map[string][]core.Todo),
		settings:     make(map[string]core.Settings),
		now:          time.Now,
	}
}

func (s *Store) AddTransaction(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx.ID = uuid.NewString()
	tx.CreatedAt = s.now().UTC()
	if tx.Date.IsZero() {
		tx.Date = tx.CreatedAt
	}
	s.transactions[tx.UserID] = append(s.transactions[tx.UserID], tx)
	return tx, nil
}

func (s *Store) UpdateTransaction(_ context.Context, userID, id string, upd core.TransactionUpdate) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	txs := s.transactions[userID]
	for i := range txs {
		if txs[i].ID != id {
			continue
		}
		if upd.Amount != nil {
			if err := upd.Amount.Validate(); err != nil {
				return core.Transaction{}, err
			}
			txs[i].Amount = *upd.Amount
		}
		if upd.Category != nil {
			txs[i].Category = *upd.Category
		}
		if upd.Note != nil {
			txs[i].Note = *upd.Note
		}
		if upd.Date != nil {
			txs[i].Date = *upd.Date
		}
		return txs[i], nil
	}
	return core.Transaction{}, core.ErrNotFound
}

func (s *Store) DeleteTransaction(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	txs := s.transactions[userID]
	for i := range txs {
		if txs[i].ID == id {
			s.transactions[userID] = append(txs[:i:i], txs[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

func (s *Store) GetTransaction(_ context.Context, userID, id string) (core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, tx := range s.transactions[userID] {
		if tx.ID == id {
			return tx, nil
		}
	}
	return core.Transaction{}, core.ErrNotFound
}

func (s *Store) ListTransactions(_ context.Context, userID string) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedCopy(s.transactions[userID]), nil
}

func (s *Store) ListTransactionsRange(_ context.Context, userID string, from, to time.Time) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.Transaction, 0)
	for _, tx := range s.transactions[userID] {
		if tx.Date.Before(from) || tx.Date.After(to) {
			continue
		}
		out = append(out, tx)
	}
	return sortedCopy(out), nil
}

// sortedCopy returns the transactions date descending with created-at and ID
// as tie-breaks, so snapshot order is deterministic.
func sortedCopy(txs []core.Transaction) []core.Transaction {
	out := make([]core.Transaction, len(txs))
	copy(out, txs)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Store) AddTodo(_ context.Context, todo core.Todo) (core.Todo, error) {
	if err := todo.Validate(); err != nil {
		return core.Todo{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	todo.ID = uuid.NewString()
	todo.CreatedAt = s.now().UTC()
	s.todos[todo.UserID] = append(s.todos[todo.UserID], todo)
	return todo, nil
}

func (s *Store) SetTodoCompleted(_ context.Context, userID, id string, completed bool) (core.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	todos := s.todos[userID]
	for i := range todos {
		if todos[i].ID == id {
			todos[i].Completed = completed
			return todos[i], nil
		}
	}
	return core.Todo{}, core.ErrNotFound
}

func (s *Store) DeleteTodo(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	todos := s.todos[userID]
	for i := range todos {
		if todos[i].ID == id {
			s.todos[userID] = append(todos[:i:i], todos[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

func (s *Store) ListTodos(_ context.Context, userID string) ([]core.Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	todos := s.todos[userID]
	out := make([]core.Todo, len(todos))
	copy(out, todos)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) GetSettings(_ context.Context, userID string) (core.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if st, ok := s.settings[userID]; ok {
		return st, nil
	}
	return core.Settings{DailyLimit: core.DefaultDailyLimit}, nil
}

func (s *Store) SetDailyLimit(_ context.Context, userID string, limit core.Money) (core.Settings, error) {
	if err := limit.Validate(); err != nil {
		return core.Settings{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	st := core.Settings{DailyLimit: limit}
	s.settings[userID] = st
	return st, nil
}
