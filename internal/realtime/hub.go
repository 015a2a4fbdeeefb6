// Package realtime pushes full transaction snapshots to subscribers whenever
// a user's data changes. A user has at most one live subscription at a time:
// subscribing again replaces the previous one, which mirrors how a client
// re-attaches after switching accounts.
package realtime

import (
	"context"
	"log/slog"
	"sync"

	"finura/internal/core"
)

// SnapshotSource lists the current transactions for a user, newest first.
type SnapshotSource interface {
	ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error)
}

// Snapshot is what a subscriber receives: the complete current list, never a
// diff.
type Snapshot struct {
	UserID       string
	Transactions []core.Transaction
}

type subscriber struct {
	ch     chan Snapshot
	cancel context.CancelFunc
}

type Hub struct {
	source SnapshotSource
	logger *slog.Logger

	mu   sync.Mutex
	subs map[string]*subscriber // one per user
}

func NewHub(source SnapshotSource, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		source: source,
		logger: logger,
		subs:   make(map[string]*subscriber),
	}
}

// Subscribe attaches a listener for userID and immediately delivers the
// current snapshot. Any existing subscription for the same user is cancelled
// first. The returned channel closes when ctx is done, when Unsubscribe is
// called, or when a newer subscription replaces this one.
func (h *Hub) Subscribe(ctx context.Context, userID string) (<-chan Snapshot, func(), error) {
	subCtx, cancel := context.WithCancel(ctx)
	sub := &subscriber{
		// Buffered so Notify never blocks on a slow consumer; a stale
		// snapshot is dropped in favor of the newer one.
		ch:     make(chan Snapshot, 1),
		cancel: cancel,
	}

	h.mu.Lock()
	if prev, ok := h.subs[userID]; ok {
		prev.cancel()
		close(prev.ch)
		h.logger.Debug("replaced existing subscription", "user_id", userID)
	}
	h.subs[userID] = sub
	h.mu.Unlock()

	unsubscribe := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if h.subs[userID] == sub {
			delete(h.subs, userID)
			sub.cancel()
			close(sub.ch)
		}
	}

	go func() {
		<-subCtx.Done()
		unsubscribe()
	}()

	// Register before reading so a write that commits during the read
	// triggers a Notify that either queues behind this snapshot or
	// supersedes it; reading first would let that Notify find no
	// subscriber and drop the change.
	snapshot, err := h.source.ListTransactions(ctx, userID)
	if err != nil {
		unsubscribe()
		return nil, nil, err
	}

	h.mu.Lock()
	if h.subs[userID] == sub {
		select {
		case queued := <-sub.ch:
			// A concurrent Notify already delivered a snapshot that
			// includes its write; keep it over the initial read.
			sub.ch <- queued
		default:
			sub.ch <- Snapshot{UserID: userID, Transactions: snapshot}
		}
	}
	h.mu.Unlock()

	return sub.ch, unsubscribe, nil
}

// Notify recomputes the snapshot for userID and delivers it to the user's
// subscriber, if any. Safe to call for users with no listener.
func (h *Hub) Notify(ctx context.Context, userID string) {
	h.mu.Lock()
	sub, ok := h.subs[userID]
	h.mu.Unlock()
	if !ok {
		return
	}

	txs, err := h.source.ListTransactions(ctx, userID)
	if err != nil {
		h.logger.Error("failed to build snapshot", "user_id", userID, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[userID] != sub {
		return
	}
	// Drop the unread stale snapshot, if any, then deliver the fresh one.
	select {
	case <-sub.ch:
	default:
	}
	sub.ch <- Snapshot{UserID: userID, Transactions: txs}
}

// ActiveSubscribers reports how many users currently hold a subscription.
func (h *Hub) ActiveSubscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// HasSubscriber reports whether userID currently holds a subscription.
func (h *Hub) HasSubscriber(userID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.subs[userID]
	return ok
}
