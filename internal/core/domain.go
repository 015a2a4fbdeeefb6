package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TxType = "income"
	Expense TxType = "expense"
)

// DefaultDailyLimit is applied when a user has never set a limit.
var DefaultDailyLimit = Money{Cents: 100000} // 1000.00 units

type (
	TxType string

	Money struct {
		Cents int64
	}

	// Transaction is a single income or expense record. ID and CreatedAt are
	// assigned by the store; Date carries calendar-day semantics and is
	// normalized to a time.Time at the store boundary.
	Transaction struct {
		ID          string    `json:"id"`
		UserID      string    `json:"-"`
		Type        TxType    `json:"type"`
		Amount      Money     `json:"amount"`
		Category    string    `json:"category"`
		Description string    `json:"description,omitempty"`
		Note        string    `json:"note,omitempty"`
		Date        time.Time `json:"date"`
		CreatedAt   time.Time `json:"createdAt"`
	}

	// TransactionUpdate carries the mutable fields of a transaction; nil
	// fields are left untouched.
	TransactionUpdate struct {
		Amount   *Money
		Category *string
		Note     *string
		Date     *time.Time
	}

	Todo struct {
		ID        string    `json:"id"`
		UserID    string    `json:"-"`
		Text      string    `json:"text"`
		Completed bool      `json:"completed"`
		CreatedAt time.Time `json:"createdAt"`
	}

	// Settings is the per-user settings document.
	Settings struct {
		DailyLimit Money `json:"dailyLimit"`
	}
)

var (
	ErrMissingAmount   = errors.New("missing or invalid amount")
	ErrMissingCategory = errors.New("missing category")
	ErrInvalidType     = errors.New("invalid transaction type")
	ErrEmptyTodoText   = errors.New("empty todo text")
	ErrOverDailyLimit  = errors.New("transaction exceeds daily limit")
	ErrNotFound        = errors.New("not found")
)

func (t TxType) IsValid() bool {
	return t == Income || t == Expense
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrMissingAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if !t.Type.IsValid() {
		return ErrInvalidType
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrMissingCategory
	}
	return nil
}

func (td Todo) Validate() error {
	if strings.TrimSpace(td.Text) == "" {
		return ErrEmptyTodoText
	}
	return nil
}

// WithinDailyLimit reports whether adding amount to what was already spent
// today stays within the limit. A total landing exactly on the limit is
// allowed; only strictly exceeding it is rejected.
func WithinDailyLimit(limit, spentToday, amount Money) bool {
	return !limit.LessThan(spentToday.Add(amount))
}
