// Package presence tracks which users currently hold a live push-capable
// connection. Entries are process-local and last-writer-wins: a second
// connection for the same user evicts the first.
package presence

import (
	"sort"
	"sync"
)

// Conn is the transport handle the registry hands out. Enqueue must not
// block; it reports whether the payload was accepted.
type Conn interface {
	Enqueue(payload []byte) bool
}

type Registry struct {
	mu    sync.RWMutex
	conns map[int64]Conn
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[int64]Conn)}
}

// Register records conn as the single live connection for userID and returns
// the evicted prior connection, if any.
func (r *Registry) Register(userID int64, conn Conn) Conn {
	r.mu.Lock()
	defer r.mu.Unlock()

	prior := r.conns[userID]
	r.conns[userID] = conn
	return prior
}

// Unregister removes the entry for userID only while conn is still current,
// so the disconnect of an evicted connection cannot drop its replacement.
// It reports whether the entry was removed.
func (r *Registry) Unregister(userID int64, conn Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.conns[userID]
	if !ok || current != conn {
		return false
	}
	delete(r.conns, userID)
	return true
}

func (r *Registry) Lookup(userID int64) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.conns[userID]
	return conn, ok
}

// Snapshot returns the sorted set of currently connected user ids.
func (r *Registry) Snapshot() []int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	userIDs := make([]int64, 0, len(r.conns))
	for userID := range r.conns {
		userIDs = append(userIDs, userID)
	}
	sort.Slice(userIDs, func(i, j int) bool { return userIDs[i] < userIDs[j] })
	return userIDs
}
