package app

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/AaronDB2/zoom-clone-backend/internal/core"
	"github.com/AaronDB2/zoom-clone-backend/internal/domain"
)

// Orchestrator implements the membership transitions and the signaling
// relay. It is the only component that mutates rooms and user bindings.
// mu serializes the membership transitions: directory and membership must
// change together, or a join could land in a room a concurrent disconnect
// is deleting. Relays take no lock; they only read the registry.
type Orchestrator struct {
	Registry *Registry
	Rooms    *RoomManager

	mu sync.Mutex
}

// CreateRoom makes a fresh room holding only the caller, then reports the
// new room id and member list back to the caller.
func (o *Orchestrator) CreateRoom(sid domain.SocketID, identity string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, bound := o.Registry.User(sid); bound {
		return domain.ErrAlreadyInRoom
	}

	roomID := domain.NewRoomID()
	user := domain.NewUser(identity, sid, roomID)

	room := core.NewRoom(roomID)
	_ = room.Add(user) // fresh room, cannot be full
	o.Rooms.Create(room)
	o.Registry.BindUser(sid, user)

	log.Info().Str("module", "app.orchestrator").Str("sid", string(sid)).Str("room", string(roomID)).Msg("room created by host")

	o.send(sid, core.EventRoomID, core.RoomIDPayload{RoomID: roomID})
	o.send(sid, core.EventRoomUpdate, core.RoomUpdatePayload{ConnectedUsers: room.Members()})
	return nil
}

// JoinRoom adds the caller to an existing room. Every member already in the
// room gets a conn-prepare naming the joiner's socket so it can start its
// own handshake, then everyone (joiner included) gets the updated list.
func (o *Orchestrator) JoinRoom(sid domain.SocketID, identity string, roomID domain.RoomID) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, bound := o.Registry.User(sid); bound {
		return domain.ErrAlreadyInRoom
	}
	room, ok := o.Rooms.Get(roomID)
	if !ok {
		return domain.ErrRoomNotFound
	}

	user := domain.NewUser(identity, sid, roomID)
	if err := room.Add(user); err != nil {
		return err
	}
	o.Registry.BindUser(sid, user)

	log.Info().Str("module", "app.orchestrator").Str("sid", string(sid)).Str("room", string(roomID)).Msg("user joined room")

	for _, member := range room.Sockets() {
		if member == sid {
			continue
		}
		o.send(member, core.EventConnPrepare, core.ConnPreparePayload{ConnUserSocketID: sid})
	}
	o.broadcast(room, core.EventRoomUpdate, core.RoomUpdatePayload{ConnectedUsers: room.Members()})
	return nil
}

// Disconnect tears down whatever the connection owned: its registry entry
// and, if it had joined a room, its membership. The last member leaving
// deletes the room; empty rooms never stay in the directory.
func (o *Orchestrator) Disconnect(sid domain.SocketID) {
	o.mu.Lock()
	defer o.mu.Unlock()

	user := o.Registry.Unregister(sid)
	if user == nil {
		return
	}

	room, ok := o.Rooms.Get(user.RoomID)
	if !ok {
		return
	}
	_, remaining := room.RemoveBySocket(sid)

	if remaining == 0 {
		o.Rooms.Delete(room.ID())
		return
	}

	log.Info().Str("module", "app.orchestrator").Str("sid", string(sid)).Str("room", string(room.ID())).Int("remaining", remaining).Msg("user left room")
	o.broadcast(room, core.EventUserDisconnected, core.UserDisconnectedPayload{SocketID: sid})
	o.broadcast(room, core.EventRoomUpdate, core.RoomUpdatePayload{ConnectedUsers: room.Members()})
}

// RelaySignal forwards an opaque handshake blob to the addressed
// connection, stamping the sender's socket id. Fire and forget: a vanished
// target just drops the message.
func (o *Orchestrator) RelaySignal(from, to domain.SocketID, signal json.RawMessage) {
	o.send(to, core.EventConnSignal, core.SignalPayload{Signal: signal, ConnUserSocketID: from})
}

// RelayInit tells the addressed peer to begin the handshake toward the
// sender, so exactly one side takes the initiator role.
func (o *Orchestrator) RelayInit(from, to domain.SocketID) {
	o.send(to, core.EventConnInit, core.InitPayload{ConnUserSocketID: from})
}

func (o *Orchestrator) send(sid domain.SocketID, eventType string, payload any) {
	sender, ok := o.Registry.Resolve(sid)
	if !ok {
		log.Debug().Str("module", "app.orchestrator").Str("sid", string(sid)).Str("event", eventType).Msg("target gone, dropping")
		return
	}
	frame, err := core.Encode(eventType, payload)
	if err != nil {
		log.Error().Str("module", "app.orchestrator").Str("event", eventType).Err(err).Msg("encode failed")
		return
	}
	if err := sender.TrySend(frame); err != nil {
		log.Debug().Str("module", "app.orchestrator").Str("sid", string(sid)).Str("event", eventType).Err(err).Msg("send dropped")
	}
}

func (o *Orchestrator) broadcast(room *core.Room, eventType string, payload any) {
	for _, sid := range room.Sockets() {
		o.send(sid, eventType, payload)
	}
}
