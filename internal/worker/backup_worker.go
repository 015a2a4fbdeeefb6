// Package worker runs the backup pipeline: it reacts to transaction change
// events from AMQP and periodically sweeps the pending queue so transactions
// created while the broker was down still reach the spreadsheet.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"finura/internal/amqp"
	"finura/internal/core"
)

// PendingSource is the storage surface the worker needs: the pending queue
// plus status updates.
type PendingSource interface {
	GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error)
	GetPendingBackup(ctx context.Context, limit int) ([]core.Transaction, error)
	MarkBackedUp(ctx context.Context, id string) error
	MarkBackupError(ctx context.Context, id string, backupErr error) error
}

// Target receives transactions to back up.
type Target interface {
	Append(ctx context.Context, tx core.Transaction) error
}

type BackupWorker struct {
	storage   PendingSource
	target    Target
	batchSize int
	interval  time.Duration
}

func NewBackupWorker(storage PendingSource, target Target, batchSize int, interval time.Duration) *BackupWorker {
	if batchSize <= 0 {
		batchSize = 50
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &BackupWorker{
		storage:   storage,
		target:    target,
		batchSize: batchSize,
		interval:  interval,
	}
}

// HandleChangeMessage backs up the transaction named by a change event.
// Deletions are ignored: the backup is append only and keeps history.
func (w *BackupWorker) HandleChangeMessage(ctx context.Context, msg *amqp.TransactionChangedMessage) error {
	if msg.Op == amqp.OpDeleted {
		slog.InfoContext(ctx, "Skipping delete event, backup keeps history",
			"tx_id", msg.TxID)
		return nil
	}

	tx, err := w.storage.GetTransaction(ctx, msg.UserID, msg.TxID)
	if errors.Is(err, core.ErrNotFound) {
		// Deleted between the event and now. Nothing to back up.
		slog.WarnContext(ctx, "Transaction vanished before backup", "tx_id", msg.TxID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction: %w", err)
	}

	return w.backupOne(ctx, tx)
}

// RunPendingSweep processes pending transactions in batches until ctx is
// done. It is the safety net behind the event-driven path.
func (w *BackupWorker) RunPendingSweep(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "Backup sweep started",
		"batch_size", w.batchSize,
		"interval", w.interval)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Backup sweep stopping", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			if err := w.SweepOnce(ctx); err != nil {
				slog.ErrorContext(ctx, "Backup sweep failed", "error", err)
			}
		}
	}
}

// SweepOnce backs up one batch of pending transactions.
func (w *BackupWorker) SweepOnce(ctx context.Context) error {
	pending, err := w.storage.GetPendingBackup(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list pending backup: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Backing up pending transactions", "count", len(pending))

	var failed int
	for _, tx := range pending {
		if err := w.backupOne(ctx, tx); err != nil {
			failed++
			slog.ErrorContext(ctx, "Failed to back up transaction",
				"tx_id", tx.ID,
				"error", err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d transactions failed to back up", failed, len(pending))
	}
	return nil
}

func (w *BackupWorker) backupOne(ctx context.Context, tx core.Transaction) error {
	if err := w.target.Append(ctx, tx); err != nil {
		if markErr := w.storage.MarkBackupError(ctx, tx.ID, err); markErr != nil {
			slog.ErrorContext(ctx, "Failed to record backup error",
				"tx_id", tx.ID,
				"error", markErr)
		}
		return fmt.Errorf("append to target: %w", err)
	}

	if err := w.storage.MarkBackedUp(ctx, tx.ID); err != nil {
		return fmt.Errorf("mark backed up: %w", err)
	}
	return nil
}
