// Package store defines the persistence interfaces the services and the
// realtime hub are written against. Implementations live in the memory
// subpackage and in internal/storage (SQLite).
package store

import (
	"context"
	"time"

	"finura/internal/core"
)

// TransactionStore persists transactions per user. List returns a fresh
// slice ordered by date descending, newest first; callers may reorder their
// copy freely.
type TransactionStore interface {
	AddTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
	UpdateTransaction(ctx context.Context, userID, id string, upd core.TransactionUpdate) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, id string) error
	GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error)
	ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error)
	ListTransactionsRange(ctx context.Context, userID string, from, to time.Time) ([]core.Transaction, error)
}

type TodoStore interface {
	AddTodo(ctx context.Context, todo core.Todo) (core.Todo, error)
	SetTodoCompleted(ctx context.Context, userID, id string, completed bool) (core.Todo, error)
	DeleteTodo(ctx context.Context, userID, id string) error
	ListTodos(ctx context.Context, userID string) ([]core.Todo, error)
}

// SettingsStore holds per-user settings. GetSettings returns the defaults
// for a user that has never written any.
type SettingsStore interface {
	GetSettings(ctx context.Context, userID string) (core.Settings, error)
	SetDailyLimit(ctx context.Context, userID string, limit core.Money) (core.Settings, error)
}

// Store is the full persistence surface a backend must provide.
type Store interface {
	TransactionStore
	TodoStore
	SettingsStore
}
