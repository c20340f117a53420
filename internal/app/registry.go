package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/AaronDB2/zoom-clone-backend/internal/core"
	"github.com/AaronDB2/zoom-clone-backend/internal/domain"
)

type connEntry struct {
	Sender core.Sender
	User   *domain.User
}

// Registry tracks every open connection: its outbound sender and, once a
// create/join succeeds, the user bound to it.
type Registry struct {
	mu    sync.RWMutex
	conns map[domain.SocketID]*connEntry
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[domain.SocketID]*connEntry)}
}

func (r *Registry) Register(sid domain.SocketID, s core.Sender) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[sid] = &connEntry{Sender: s}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("registered connection")
}

// Resolve returns the sender for sid. A miss means the peer is gone and the
// caller should drop the message.
func (r *Registry) Resolve(sid domain.SocketID) (core.Sender, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[sid]
	if !ok {
		return nil, false
	}
	return e.Sender, true
}

// BindUser associates a user with an already registered connection.
// Returns false if the connection is unknown (raced with a disconnect).
func (r *Registry) BindUser(sid domain.SocketID, u *domain.User) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[sid]
	if !ok {
		return false
	}
	e.User = u
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("user", string(u.ID)).Str("room", string(u.RoomID)).Msg("bound user")
	return true
}

// User returns the user bound to sid, if any.
func (r *Registry) User(sid domain.SocketID) (*domain.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[sid]
	if !ok || e.User == nil {
		return nil, false
	}
	return e.User, true
}

// Unregister drops the connection and returns the user that was bound to
// it (nil if none) so the caller can cascade room cleanup.
func (r *Registry) Unregister(sid domain.SocketID) *domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[sid]
	if !ok {
		return nil
	}
	delete(r.conns, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("unregistered connection")
	return e.User
}
