package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"finura/internal/amqp"
	"finura/internal/core"
)

type fakeStorage struct {
	txs     map[string]core.Transaction
	pending []core.Transaction
	done    []string
	failed  []string
}

func (f *fakeStorage) GetTransaction(_ context.Context, userID, id string) (core.Transaction, error) {
	tx, ok := f.txs[id]
	if !ok || tx.UserID != userID {
		return core.Transaction{}, core.ErrNotFound
	}
	return tx, nil
}

func (f *fakeStorage) GetPendingBackup(_ context.Context, limit int) ([]core.Transaction, error) {
	if len(f.pending) > limit {
		return f.pending[:limit], nil
	}
	return f.pending, nil
}

func (f *fakeStorage) MarkBackedUp(_ context.Context, id string) error {
	f.done = append(f.done, id)
	return nil
}

func (f *fakeStorage) MarkBackupError(_ context.Context, id string, _ error) error {
	f.failed = append(f.failed, id)
	return nil
}

type fakeTarget struct {
	appended []string
	fail     bool
}

func (t *fakeTarget) Append(_ context.Context, tx core.Transaction) error {
	if t.fail {
		return errors.New("sheets unavailable")
	}
	t.appended = append(t.appended, tx.ID)
	return nil
}

func sampleTx(id, userID string) core.Transaction {
	return core.Transaction{
		ID: id, UserID: userID, Type: core.Expense,
		Amount: core.Money{Cents: 1000}, Category: "Food",
		Date: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
	}
}

func TestHandleChangeMessage(t *testing.T) {
	storage := &fakeStorage{txs: map[string]core.Transaction{"t1": sampleTx("t1", "u1")}}
	target := &fakeTarget{}
	w := NewBackupWorker(storage, target, 10, time.Minute)

	msg := amqp.NewTransactionChangedMessage("u1", "t1", amqp.OpCreated)
	if err := w.HandleChangeMessage(context.Background(), msg); err != nil {
		t.Fatalf("HandleChangeMessage: %v", err)
	}
	if len(target.appended) != 1 || target.appended[0] != "t1" {
		t.Errorf("appended = %v, want [t1]", target.appended)
	}
	if len(storage.done) != 1 || storage.done[0] != "t1" {
		t.Errorf("marked done = %v, want [t1]", storage.done)
	}
}

func TestHandleChangeMessageSkipsDeletes(t *testing.T) {
	storage := &fakeStorage{txs: map[string]core.Transaction{"t1": sampleTx("t1", "u1")}}
	target := &fakeTarget{}
	w := NewBackupWorker(storage, target, 10, time.Minute)

	msg := amqp.NewTransactionChangedMessage("u1", "t1", amqp.OpDeleted)
	if err := w.HandleChangeMessage(context.Background(), msg); err != nil {
		t.Fatalf("HandleChangeMessage: %v", err)
	}
	if len(target.appended) != 0 {
		t.Errorf("delete event triggered backup: %v", target.appended)
	}
}

func TestHandleChangeMessageVanishedTransaction(t *testing.T) {
	storage := &fakeStorage{txs: map[string]core.Transaction{}}
	w := NewBackupWorker(storage, &fakeTarget{}, 10, time.Minute)

	msg := amqp.NewTransactionChangedMessage("u1", "gone", amqp.OpCreated)
	if err := w.HandleChangeMessage(context.Background(), msg); err != nil {
		t.Errorf("vanished transaction should not error: %v", err)
	}
}

func TestSweepOnce(t *testing.T) {
	storage := &fakeStorage{
		pending: []core.Transaction{sampleTx("t1", "u1"), sampleTx("t2", "u1")},
	}
	target := &fakeTarget{}
	w := NewBackupWorker(storage, target, 10, time.Minute)

	if err := w.SweepOnce(context.Background()); err != nil {
		t.Fatalf("SweepOnce: %v", err)
	}
	if len(target.appended) != 2 {
		t.Errorf("appended = %v, want 2 entries", target.appended)
	}
	if len(storage.done) != 2 {
		t.Errorf("marked done = %v, want 2 entries", storage.done)
	}
}

func TestSweepOnceRecordsFailures(t *testing.T) {
	storage := &fakeStorage{pending: []core.Transaction{sampleTx("t1", "u1")}}
	target := &fakeTarget{fail: true}
	w := NewBackupWorker(storage, target, 10, time.Minute)

	if err := w.SweepOnce(context.Background()); err == nil {
		t.Fatal("expected error when target fails")
	}
	if len(storage.failed) != 1 || storage.failed[0] != "t1" {
		t.Errorf("marked failed = %v, want [t1]", storage.failed)
	}
	if len(storage.done) != 0 {
		t.Errorf("marked done = %v, want none", storage.done)
	}
}

func TestSweepOnceRespectsBatchSize(t *testing.T) {
	storage := &fakeStorage{
		pending: []core.Transaction{sampleTx("t1", "u1"), sampleTx("t2", "u1"), sampleTx("t3", "u1")},
	}
	target := &fakeTarget{}
	w := NewBackupWorker(storage, target, 2, time.Minute)

	if err := w.SweepOnce(context.Background()); err != nil {
		t.Fatalf("SweepOnce: %v", err)
	}
	if len(target.appended) != 2 {
		t.Errorf("appended = %v, want 2 entries", target.appended)
	}
}
