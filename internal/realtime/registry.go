// Package realtime tracks live websocket connections and pushes notifications to them.
package realtime

import (
	"context"
	"sync"
)

// Registry maps a user to the one live connection currently attached for them.
// Attach is last-write-wins. Detach only clears a user's entry while it still
// points at the detached connection, so a late disconnect of an old connection
// never hides a newer one.
type Registry interface {
	Attach(ctx context.Context, userID, connID string) error
	Detach(ctx context.Context, connID string) error
	Resolve(ctx context.Context, userID string) (connID string, ok bool, err error)
}

// MemoryRegistry is a process-local Registry.
type MemoryRegistry struct {
	mu     sync.RWMutex
	byUser map[string]string
	byConn map[string]string
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		byUser: make(map[string]string),
		byConn: make(map[string]string),
	}
}

func (r *MemoryRegistry) Attach(_ context.Context, userID, connID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prevUser, ok := r.byConn[connID]; ok && prevUser != userID && r.byUser[prevUser] == connID {
		delete(r.byUser, prevUser)
	}
	if prevConn, ok := r.byUser[userID]; ok && prevConn != connID {
		delete(r.byConn, prevConn)
	}
	r.byUser[userID] = connID
	r.byConn[connID] = userID
	return nil
}

func (r *MemoryRegistry) Detach(_ context.Context, connID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.byConn[connID]
	if !ok {
		return nil
	}
	delete(r.byConn, connID)
	if r.byUser[userID] == connID {
		delete(r.byUser, userID)
	}
	return nil
}

func (r *MemoryRegistry) Resolve(_ context.Context, userID string) (string, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	connID, ok := r.byUser[userID]
	return connID, ok, nil
}
