package app

import (
	"context"
	"sync"

	"github.com/dkeye/Board/internal/core"
	"github.com/dkeye/Board/internal/domain"
	"github.com/rs/zerolog/log"
)

// Binding is what a live connection is bound to.
type Binding struct {
	Identity domain.ParticipantID
	Room     domain.RoomCode
	Sub      core.Subscriber
	cancel   context.CancelFunc
}

// Registry tracks live transport connections. A connection carries one
// identity and is bound to at most one room.
type Registry struct {
	mu    sync.RWMutex
	conns map[core.SessionID]*Binding
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[core.SessionID]*Binding)}
}

func (r *Registry) Bind(sid core.SessionID, identity domain.ParticipantID, sub core.Subscriber, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[sid] = &Binding{Identity: identity, Sub: sub, cancel: cancel}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("identity", string(identity)).Msg("bound connection")
}

func (r *Registry) Get(sid core.SessionID) (Binding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.conns[sid]
	if !ok {
		return Binding{}, false
	}
	return *b, true
}

// SetRoom returns the room the connection was bound to before.
func (r *Registry) SetRoom(sid core.SessionID, code domain.RoomCode) (domain.RoomCode, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.conns[sid]
	if !ok {
		return "", false
	}
	prev := b.Room
	b.Room = code
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("room", string(code)).Msg("updated room")
	return prev, true
}

// ClearRoom unbinds the room only if the connection is still in code.
func (r *Registry) ClearRoom(sid core.SessionID, code domain.RoomCode) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.conns[sid]
	if !ok || b.Room != code {
		return false
	}
	b.Room = ""
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("room", string(code)).Msg("removed room association")
	return true
}

// Unbind forgets the connection and cancels its context.
func (r *Registry) Unbind(sid core.SessionID) (Binding, bool) {
	r.mu.Lock()
	b, ok := r.conns[sid]
	if ok {
		delete(r.conns, sid)
	}
	r.mu.Unlock()
	if !ok {
		return Binding{}, false
	}
	if b.cancel != nil {
		b.cancel()
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("unbound connection")
	return *b, true
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Peer returns another live connection of identity bound to code.
func (r *Registry) Peer(identity domain.ParticipantID, code domain.RoomCode) (Binding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, b := range r.conns {
		if b.Identity == identity && b.Room == code {
			return *b, true
		}
	}
	return Binding{}, false
}
