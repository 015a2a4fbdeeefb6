package realtime

import (
	"context"
	"sync"
)

// Session tracks which user a single client connection is attached to and
// swaps the underlying subscription when the user changes. Switching users
// always tears down the previous listener before the new one attaches.
type Session struct {
	hub *Hub

	mu          sync.Mutex
	userID      string
	unsubscribe func()
}

func NewSession(hub *Hub) *Session {
	return &Session{hub: hub}
}

// Attach subscribes the session to userID, replacing any previous
// attachment. Attaching to the empty user just detaches.
func (s *Session) Attach(ctx context.Context, userID string) (<-chan Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
		s.userID = ""
	}
	if userID == "" {
		return nil, nil
	}

	ch, unsub, err := s.hub.Subscribe(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.userID = userID
	s.unsubscribe = unsub
	return ch, nil
}

// Detach drops the current subscription, if any.
func (s *Session) Detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
		s.userID = ""
	}
}

// UserID returns the currently attached user, or "" when detached.
func (s *Session) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}
