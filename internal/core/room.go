package core

import (
	"sync"

	"github.com/AaronDB2/zoom-clone-backend/internal/domain"
)

// Room is a threadsafe in-memory room. Members are kept in join order;
// the order is part of the room-update contract, so a slice, not a map.
// It never closes adapter-owned resources.
type Room struct {
	id      domain.RoomID
	mu      sync.RWMutex
	members []*domain.User
}

func NewRoom(id domain.RoomID) *Room {
	return &Room{id: id}
}

func (r *Room) ID() domain.RoomID { return r.id }

func (r *Room) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

// Full reports whether the room is at capacity.
func (r *Room) Full() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members) >= domain.RoomCapacity
}

// Add appends a member, preserving join order. Rejects once the room holds
// RoomCapacity members.
func (r *Room) Add(u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.members) >= domain.RoomCapacity {
		return domain.ErrRoomFull
	}
	r.members = append(r.members, u)
	return nil
}

// RemoveBySocket removes the member owned by sid, keeping the order of the
// rest. Returns the removed user (nil if absent) and the remaining count.
func (r *Room) RemoveBySocket(sid domain.SocketID) (*domain.User, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, u := range r.members {
		if u.SocketID == sid {
			r.members = append(r.members[:i], r.members[i+1:]...)
			return u, len(r.members)
		}
	}
	return nil, len(r.members)
}

// Members returns a snapshot of the member list in join order.
func (r *Room) Members() []domain.User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.User, 0, len(r.members))
	for _, u := range r.members {
		out = append(out, *u)
	}
	return out
}

// Sockets returns the socket ids of all members in join order.
func (r *Room) Sockets() []domain.SocketID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.SocketID, 0, len(r.members))
	for _, u := range r.members {
		out = append(out, u.SocketID)
	}
	return out
}
