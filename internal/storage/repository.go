// Package storage is the SQLite persistence backend. It implements
// store.Store plus the pending-backup queue consumed by the backup worker.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"finura/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const txColumns = "id, user_id, type, amount_cents, category, description, note, date_unix_ms, created_at"

func scanTransaction(row interface{ Scan(...any) error }) (core.Transaction, error) {
	var (
		tx        core.Transaction
		dateMs    int64
		createdAt time.Time
	)
	err := row.Scan(&tx.ID, &tx.UserID, &tx.Type, &tx.Amount.Cents, &tx.Category,
		&tx.Description, &tx.Note, &dateMs, &createdAt)
	if err != nil {
		return core.Transaction{}, err
	}
	tx.Date = time.UnixMilli(dateMs).UTC()
	tx.CreatedAt = createdAt.UTC()
	return tx, nil
}

func (r *SQLiteRepository) AddTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	tx.ID = uuid.NewString()
	tx.CreatedAt = time.Now().UTC()
	if tx.Date.IsZero() {
		tx.Date = tx.CreatedAt
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, type, amount_cents, category, description, note, date_unix_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.UserID, tx.Type, tx.Amount.Cents, tx.Category,
		tx.Description, tx.Note, tx.Date.UnixMilli(), tx.CreatedAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", tx.ID,
		"type", tx.Type,
		"amount_cents", tx.Amount.Cents,
		"category", tx.Category)

	return tx, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, userID, id string, upd core.TransactionUpdate) (core.Transaction, error) {
	if upd.Amount != nil {
		if err := upd.Amount.Validate(); err != nil {
			return core.Transaction{}, err
		}
	}

	current, err := r.GetTransaction(ctx, userID, id)
	if err != nil {
		return core.Transaction{}, err
	}

	if upd.Amount != nil {
		current.Amount = *upd.Amount
	}
	if upd.Category != nil {
		current.Category = *upd.Category
	}
	if upd.Note != nil {
		current.Note = *upd.Note
	}
	if upd.Date != nil {
		current.Date = *upd.Date
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET amount_cents = ?, category = ?, note = ?, date_unix_ms = ?, backup_status = 'pending'
		WHERE id = ? AND user_id = ?`,
		current.Amount.Cents, current.Category, current.Note, current.Date.UnixMilli(), id, userID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Transaction{}, core.ErrNotFound
	}

	return current, nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+txColumns+` FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return tx, nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+txColumns+` FROM transactions
		WHERE user_id = ?
		ORDER BY date_unix_ms DESC, created_at DESC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func (r *SQLiteRepository) ListTransactionsRange(ctx context.Context, userID string, from, to time.Time) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+txColumns+` FROM transactions
		WHERE user_id = ? AND date_unix_ms >= ? AND date_unix_ms <= ?
		ORDER BY date_unix_ms DESC, created_at DESC, id ASC`,
		userID, from.UnixMilli(), to.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("list transactions in range: %w", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func collectTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	out := make([]core.Transaction, 0)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) AddTodo(ctx context.Context, todo core.Todo) (core.Todo, error) {
	if err := todo.Validate(); err != nil {
		return core.Todo{}, err
	}

	todo.ID = uuid.NewString()
	todo.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO todos (id, user_id, text, completed, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		todo.ID, todo.UserID, todo.Text, todo.Completed, todo.CreatedAt)
	if err != nil {
		return core.Todo{}, fmt.Errorf("insert todo: %w", err)
	}

	return todo, nil
}

func (r *SQLiteRepository) SetTodoCompleted(ctx context.Context, userID, id string, completed bool) (core.Todo, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE todos SET completed = ? WHERE id = ? AND user_id = ?`,
		completed, id, userID)
	if err != nil {
		return core.Todo{}, fmt.Errorf("update todo: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Todo{}, core.ErrNotFound
	}

	var (
		todo      core.Todo
		createdAt time.Time
	)
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, text, completed, created_at FROM todos WHERE id = ?`, id)
	if err := row.Scan(&todo.ID, &todo.UserID, &todo.Text, &todo.Completed, &createdAt); err != nil {
		return core.Todo{}, fmt.Errorf("get todo: %w", err)
	}
	todo.CreatedAt = createdAt.UTC()
	return todo, nil
}

func (r *SQLiteRepository) DeleteTodo(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM todos WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) ListTodos(ctx context.Context, userID string) ([]core.Todo, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, text, completed, created_at FROM todos
		WHERE user_id = ?
		ORDER BY created_at DESC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	defer rows.Close()

	out := make([]core.Todo, 0)
	for rows.Next() {
		var (
			todo      core.Todo
			createdAt time.Time
		)
		if err := rows.Scan(&todo.ID, &todo.UserID, &todo.Text, &todo.Completed, &createdAt); err != nil {
			return nil, fmt.Errorf("scan todo: %w", err)
		}
		todo.CreatedAt = createdAt.UTC()
		out = append(out, todo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate todos: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) GetSettings(ctx context.Context, userID string) (core.Settings, error) {
	var cents int64
	row := r.db.QueryRowContext(ctx,
		`SELECT daily_limit_cents FROM user_settings WHERE user_id = ?`, userID)
	err := row.Scan(&cents)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Settings{DailyLimit: core.DefaultDailyLimit}, nil
	}
	if err != nil {
		return core.Settings{}, fmt.Errorf("get settings: %w", err)
	}
	return core.Settings{DailyLimit: core.Money{Cents: cents}}, nil
}

func (r *SQLiteRepository) SetDailyLimit(ctx context.Context, userID string, limit core.Money) (core.Settings, error) {
	if err := limit.Validate(); err != nil {
		return core.Settings{}, err
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_settings (user_id, daily_limit_cents, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (user_id) DO UPDATE SET daily_limit_cents = excluded.daily_limit_cents, updated_at = CURRENT_TIMESTAMP`,
		userID, limit.Cents)
	if err != nil {
		return core.Settings{}, fmt.Errorf("set daily limit: %w", err)
	}

	return core.Settings{DailyLimit: limit}, nil
}

// GetPendingBackup returns up to limit transactions that have not been copied
// to the backup spreadsheet yet, oldest first.
func (r *SQLiteRepository) GetPendingBackup(ctx context.Context, limit int) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+txColumns+` FROM transactions
		WHERE backup_status = 'pending'
		ORDER BY created_at ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending backup: %w", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func (r *SQLiteRepository) MarkBackedUp(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET backup_status = 'done', backup_error = NULL, backed_up_at = CURRENT_TIMESTAMP
		WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark backed up: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) MarkBackupError(ctx context.Context, id string, backupErr error) error {
	msg := ""
	if backupErr != nil {
		msg = backupErr.Error()
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET backup_status = 'error', backup_error = ?
		WHERE id = ?`, msg, id)
	if err != nil {
		return fmt.Errorf("mark backup error: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}
