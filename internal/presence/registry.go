// Package presence tracks which users currently hold a live realtime
// channel. State is process memory only; it dies with the connection.
package presence

import (
	"sync"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
)

// Channel is a live delivery handle for one connection.
type Channel interface {
	Push(event string, payload any) error
}

// Registry is a bidirectional user ↔ channel map safe for concurrent
// use. A reconnect replaces the previous channel for that user.
type Registry struct {
	mu       sync.RWMutex
	byUser   map[snowflake.ID]Channel
	byHandle map[Channel]snowflake.ID
}

func NewRegistry() *Registry {
	return &Registry{
		byUser:   make(map[snowflake.ID]Channel),
		byHandle: make(map[Channel]snowflake.ID),
	}
}

func (r *Registry) Add(userID snowflake.ID, ch Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.byUser[userID]; ok {
		delete(r.byHandle, prev)
	}
	r.byUser[userID] = ch
	r.byHandle[ch] = userID
}

func (r *Registry) Remove(userID snowflake.ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ch, ok := r.byUser[userID]; ok {
		delete(r.byHandle, ch)
		delete(r.byUser, userID)
	}
}

// RemoveChannel unregisters by handle, for disconnects where the user
// lookup already failed. It is a no-op if the channel was replaced by a
// newer connection for the same user.
func (r *Registry) RemoveChannel(ch Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if userID, ok := r.byHandle[ch]; ok {
		delete(r.byHandle, ch)
		if current, ok := r.byUser[userID]; ok && current == ch {
			delete(r.byUser, userID)
		}
	}
}

func (r *Registry) Lookup(userID snowflake.ID) (Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch, ok := r.byUser[userID]
	return ch, ok
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}

var Module = fx.Module("presence",
	fx.Provide(NewRegistry),
)
