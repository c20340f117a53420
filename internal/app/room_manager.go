package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/AaronDB2/zoom-clone-backend/internal/core"
	"github.com/AaronDB2/zoom-clone-backend/internal/domain"
)

// RoomManager is the room directory: identifier to room state. It enforces
// identifier uniqueness only; membership rules live in the Orchestrator.
type RoomManager struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*core.Room
}

func NewRoomManager() *RoomManager {
	return &RoomManager{rooms: make(map[domain.RoomID]*core.Room)}
}

func (m *RoomManager) Create(room *core.Room) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[room.ID()] = room
	log.Info().Str("module", "app.rooms").Str("room", string(room.ID())).Msg("room created")
}

func (m *RoomManager) Get(id domain.RoomID) (*core.Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	room, ok := m.rooms[id]
	return room, ok
}

func (m *RoomManager) Delete(id domain.RoomID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, id)
	log.Info().Str("module", "app.rooms").Str("room", string(id)).Msg("room deleted")
}

// RoomStatus is the advisory answer for the room-exists query.
type RoomStatus struct {
	Exists bool
	Full   bool
}

// Status is the read-only lookup behind the room-exists endpoint. It does
// not reserve a slot; the authoritative capacity check happens at join.
func (m *RoomManager) Status(id domain.RoomID) RoomStatus {
	m.mu.RLock()
	room, ok := m.rooms[id]
	m.mu.RUnlock()
	if !ok {
		return RoomStatus{}
	}
	return RoomStatus{Exists: true, Full: room.Full()}
}

type RoomInfo struct {
	ID          domain.RoomID `json:"id"`
	MemberCount int           `json:"memberCount"`
}

func (m *RoomManager) List() []RoomInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]RoomInfo, 0, len(m.rooms))
	for id, r := range m.rooms {
		out = append(out, RoomInfo{ID: id, MemberCount: r.MemberCount()})
	}
	return out
}
