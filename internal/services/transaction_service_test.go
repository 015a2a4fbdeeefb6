package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"finura/internal/amqp"
	"finura/internal/core"
	"finura/internal/realtime"
	"finura/internal/store/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
	fail   bool
}

func (p *recordingPublisher) PublishTransactionChanged(_ context.Context, userID, txID, op string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("broker down")
	}
	p.events = append(p.events, op)
	return nil
}

func (p *recordingPublisher) ops() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

func newService(pub ChangePublisher) (*TransactionService, *memory.Store) {
	s := memory.New()
	hub := realtime.NewHub(s, nil)
	return NewTransactionService(s, hub, pub), s
}

func TestCreateTransaction(t *testing.T) {
	pub := &recordingPublisher{}
	svc, _ := newService(pub)

	got, err := svc.Create(context.Background(), core.Transaction{
		UserID: "u1", Type: core.Expense, Amount: core.Money{Cents: 1500},
		Category: "Food", Date: time.Now(),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got.ID == "" {
		t.Error("expected assigned ID")
	}
	if ops := pub.ops(); len(ops) != 1 || ops[0] != amqp.OpCreated {
		t.Errorf("published ops = %v, want [created]", ops)
	}
}

func TestCreateRejectsInvalid(t *testing.T) {
	svc, _ := newService(nil)

	tests := []struct {
		name    string
		tx      core.Transaction
		wantErr error
	}{
		{
			name:    "missing amount",
			tx:      core.Transaction{UserID: "u1", Type: core.Expense, Category: "Food"},
			wantErr: core.ErrMissingAmount,
		},
		{
			name:    "missing category",
			tx:      core.Transaction{UserID: "u1", Type: core.Expense, Amount: core.Money{Cents: 100}},
			wantErr: core.ErrMissingCategory,
		},
		{
			name:    "bad type",
			tx:      core.Transaction{UserID: "u1", Type: "transfer", Amount: core.Money{Cents: 100}, Category: "Food"},
			wantErr: core.ErrInvalidType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(context.Background(), tt.tx); !errors.Is(err, tt.wantErr) {
				t.Errorf("Create() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateEnforcesDailyLimit(t *testing.T) {
	svc, s := newService(nil)
	ctx := context.Background()
	today := time.Now().UTC()

	if _, err := s.SetDailyLimit(ctx, "u1", core.Money{Cents: 10000}); err != nil {
		t.Fatalf("SetDailyLimit: %v", err)
	}

	// 90 spent, limit 100.
	if _, err := svc.Create(ctx, core.Transaction{
		UserID: "u1", Type: core.Expense, Amount: core.Money{Cents: 9000},
		Category: "Food", Date: today,
	}); err != nil {
		t.Fatalf("first expense: %v", err)
	}

	// 90 + 20 > 100: rejected.
	if _, err := svc.Create(ctx, core.Transaction{
		UserID: "u1", Type: core.Expense, Amount: core.Money{Cents: 2000},
		Category: "Food", Date: today,
	}); !errors.Is(err, core.ErrOverDailyLimit) {
		t.Errorf("over limit: got %v, want ErrOverDailyLimit", err)
	}

	// 90 + 10 == 100: allowed.
	if _, err := svc.Create(ctx, core.Transaction{
		UserID: "u1", Type: core.Expense, Amount: core.Money{Cents: 1000},
		Category: "Food", Date: today,
	}); err != nil {
		t.Errorf("exactly on limit: %v", err)
	}

	// Income is never limited.
	if _, err := svc.Create(ctx, core.Transaction{
		UserID: "u1", Type: core.Income, Amount: core.Money{Cents: 999999},
		Category: "Salary", Date: today,
	}); err != nil {
		t.Errorf("income: %v", err)
	}
}

func TestDailyLimitUsesUTCCalendar(t *testing.T) {
	svc, s := newService(nil)
	ctx := context.Background()

	// A clock far east of UTC: its local calendar day is already past the
	// UTC day the transactions are stored on.
	east := time.FixedZone("UTC+13", 13*60*60)
	now := time.Date(2024, 3, 4, 23, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now.In(east) }

	if _, err := s.SetDailyLimit(ctx, "u1", core.Money{Cents: 100}); err != nil {
		t.Fatalf("SetDailyLimit: %v", err)
	}

	if _, err := svc.Create(ctx, core.Transaction{
		UserID: "u1", Type: core.Expense, Amount: core.Money{Cents: 90},
		Category: "Food",
	}); err != nil {
		t.Fatalf("first expense: %v", err)
	}

	// Both writes fall on the same UTC day; the limit must apply no matter
	// what zone the server clock reports.
	if _, err := svc.Create(ctx, core.Transaction{
		UserID: "u1", Type: core.Expense, Amount: core.Money{Cents: 20},
		Category: "Food",
	}); !errors.Is(err, core.ErrOverDailyLimit) {
		t.Errorf("over limit: got %v, want ErrOverDailyLimit", err)
	}
}

func TestCreateBackdatedSkipsLimit(t *testing.T) {
	svc, s := newService(nil)
	ctx := context.Background()

	if _, err := s.SetDailyLimit(ctx, "u1", core.Money{Cents: 100}); err != nil {
		t.Fatalf("SetDailyLimit: %v", err)
	}

	// Historical entries are not subject to today's limit.
	if _, err := svc.Create(ctx, core.Transaction{
		UserID: "u1", Type: core.Expense, Amount: core.Money{Cents: 50000},
		Category: "Rent", Date: time.Now().AddDate(0, 0, -5),
	}); err != nil {
		t.Errorf("backdated expense: %v", err)
	}
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	pub := &recordingPublisher{fail: true}
	svc, _ := newService(pub)

	if _, err := svc.Create(context.Background(), core.Transaction{
		UserID: "u1", Type: core.Expense, Amount: core.Money{Cents: 100},
		Category: "Food", Date: time.Now(),
	}); err != nil {
		t.Errorf("Create with failing publisher: %v", err)
	}
}

func TestUpdateAndDeletePublish(t *testing.T) {
	pub := &recordingPublisher{}
	svc, _ := newService(pub)
	ctx := context.Background()

	tx, err := svc.Create(ctx, core.Transaction{
		UserID: "u1", Type: core.Expense, Amount: core.Money{Cents: 100},
		Category: "Food", Date: time.Now(),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	note := "coffee"
	if _, err := svc.Update(ctx, "u1", tx.ID, core.TransactionUpdate{Note: &note}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := svc.Delete(ctx, "u1", tx.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	want := []string{amqp.OpCreated, amqp.OpUpdated, amqp.OpDeleted}
	got := pub.ops()
	if len(got) != len(want) {
		t.Fatalf("ops = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ops[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestListFilterAndSort(t *testing.T) {
	svc, _ := newService(nil)
	ctx := context.Background()

	seed := []core.Transaction{
		{UserID: "u1", Type: core.Expense, Amount: core.Money{Cents: 1000}, Category: "Food", Description: "groceries", Date: time.Now()},
		{UserID: "u1", Type: core.Expense, Amount: core.Money{Cents: 3000}, Category: "Bills", Date: time.Now()},
		{UserID: "u1", Type: core.Income, Amount: core.Money{Cents: 5000}, Category: "Salary", Date: time.Now()},
	}
	for _, tx := range seed {
		if _, err := svc.Create(ctx, tx); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	expenses, err := svc.List(ctx, "u1", core.FilterExpense, "", "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(expenses) != 2 {
		t.Errorf("expenses = %d, want 2", len(expenses))
	}

	byAmount, err := svc.List(ctx, "u1", core.FilterAll, "", core.SortByAmount)
	if err != nil {
		t.Fatalf("List sorted: %v", err)
	}
	if byAmount[0].Amount.Cents != 5000 {
		t.Errorf("largest first = %d, want 5000", byAmount[0].Amount.Cents)
	}

	matched, err := svc.List(ctx, "u1", core.FilterAll, "foo", "")
	if err != nil {
		t.Fatalf("List search: %v", err)
	}
	if len(matched) != 1 || matched[0].Category != "Food" {
		t.Errorf("search foo = %v, want single Food entry", matched)
	}
}

func TestDailySummary(t *testing.T) {
	svc, s := newService(nil)
	ctx := context.Background()
	today := time.Now().UTC()

	if _, err := s.SetDailyLimit(ctx, "u1", core.Money{Cents: 10000}); err != nil {
		t.Fatalf("SetDailyLimit: %v", err)
	}
	if _, err := svc.Create(ctx, core.Transaction{
		UserID: "u1", Type: core.Expense, Amount: core.Money{Cents: 4000},
		Category: "Food", Date: today,
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	sum, err := svc.DailySummary(ctx, "u1", today)
	if err != nil {
		t.Fatalf("DailySummary: %v", err)
	}
	if sum.Totals.Expense.Cents != 4000 {
		t.Errorf("spent = %d, want 4000", sum.Totals.Expense.Cents)
	}
	if sum.Remaining.Cents != 6000 {
		t.Errorf("remaining = %d, want 6000", sum.Remaining.Cents)
	}
	if sum.OverLimit {
		t.Error("not over limit")
	}
	if sum.Date != core.DayKey(today) {
		t.Errorf("date = %s, want %s", sum.Date, core.DayKey(today))
	}
}

func TestTodoService(t *testing.T) {
	s := memory.New()
	svc := NewTodoService(s)
	ctx := context.Background()

	todo, err := svc.Add(ctx, "u1", "buy milk")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := svc.Add(ctx, "u1", " "); !errors.Is(err, core.ErrEmptyTodoText) {
		t.Errorf("blank text: got %v, want ErrEmptyTodoText", err)
	}

	done, err := svc.SetCompleted(ctx, "u1", todo.ID, true)
	if err != nil {
		t.Fatalf("SetCompleted: %v", err)
	}
	if !done.Completed {
		t.Error("todo not completed")
	}

	if err := svc.Delete(ctx, "u1", todo.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	list, _ := svc.List(ctx, "u1")
	if len(list) != 0 {
		t.Errorf("list = %d, want 0", len(list))
	}
}

func TestSettingsService(t *testing.T) {
	s := memory.New()
	svc := NewSettingsService(s)
	ctx := context.Background()

	got, err := svc.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.DailyLimit != core.DefaultDailyLimit {
		t.Errorf("default = %v, want %v", got.DailyLimit, core.DefaultDailyLimit)
	}

	if _, err := svc.SetDailyLimit(ctx, "u1", core.Money{Cents: 0}); !errors.Is(err, core.ErrMissingAmount) {
		t.Errorf("zero limit: got %v, want ErrMissingAmount", err)
	}

	updated, err := svc.SetDailyLimit(ctx, "u1", core.Money{Cents: 25000})
	if err != nil {
		t.Fatalf("SetDailyLimit: %v", err)
	}
	if updated.DailyLimit.Cents != 25000 {
		t.Errorf("limit = %d, want 25000", updated.DailyLimit.Cents)
	}
}

func TestCreateDefaultsDescriptionToCategory(t *testing.T) {
	svc, _ := newService(nil)

	got, err := svc.Create(context.Background(), core.Transaction{
		UserID: "u1", Type: core.Expense, Amount: core.Money{Cents: 500},
		Category: "Transport", Date: time.Now(),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got.Description != "Transport" {
		t.Errorf("description = %q, want %q", got.Description, "Transport")
	}

	got, err = svc.Create(context.Background(), core.Transaction{
		UserID: "u1", Type: core.Expense, Amount: core.Money{Cents: 500},
		Category: "Transport", Description: "bus ticket", Date: time.Now(),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got.Description != "bus ticket" {
		t.Errorf("description = %q, want %q", got.Description, "bus ticket")
	}
}

func TestListRange(t *testing.T) {
	svc, _ := newService(nil)
	ctx := context.Background()

	days := []time.Time{
		time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 20, 10, 0, 0, 0, time.UTC),
	}
	for i, day := range days {
		_, err := svc.Create(ctx, core.Transaction{
			UserID: "u1", Type: core.Expense,
			Amount:   core.Money{Cents: int64(100 * (i + 1))},
			Category: "Food", Date: day,
		})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC).Add(24*time.Hour - time.Nanosecond)
	got, err := svc.ListRange(ctx, "u1", from, to, core.FilterAll, "", "")
	if err != nil {
		t.Fatalf("ListRange: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Amount.Cents != 200 || got[1].Amount.Cents != 100 {
		t.Errorf("order = %d,%d, want 200,100 (newest first)", got[0].Amount.Cents, got[1].Amount.Cents)
	}
}

func TestSeriesAverages(t *testing.T) {
	svc, _ := newService(nil)
	ctx := context.Background()

	now := time.Now().UTC()
	svc.now = func() time.Time { return now }

	seed := []core.Transaction{
		{UserID: "u1", Type: core.Expense, Amount: core.Money{Cents: 700}, Category: "Food", Date: now},
		{UserID: "u1", Type: core.Income, Amount: core.Money{Cents: 1400}, Category: "Salary", Date: now.AddDate(0, 0, -2)},
	}
	for _, tx := range seed {
		if _, err := svc.Create(ctx, tx); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	got, err := svc.Series(ctx, "u1", core.UnitDay, 7)
	if err != nil {
		t.Fatalf("Series: %v", err)
	}
	if len(got.Points) != 7 {
		t.Fatalf("points = %d, want 7", len(got.Points))
	}
	if got.Average.Expense.Cents != 100 {
		t.Errorf("avg expense = %d, want 100", got.Average.Expense.Cents)
	}
	if got.Average.Income.Cents != 200 {
		t.Errorf("avg income = %d, want 200", got.Average.Income.Cents)
	}
	if got.Average.Savings.Cents != 100 {
		t.Errorf("avg savings = %d, want 100", got.Average.Savings.Cents)
	}
}
