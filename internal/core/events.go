package core

import (
	"encoding/json"

	"github.com/AaronDB2/zoom-clone-backend/internal/domain"
)

// Client -> server event types.
const (
	EventCreateRoom = "create-new-room"
	EventJoinRoom   = "join-room"
	EventConnSignal = "conn-signal"
	EventConnInit   = "conn-init"
)

// Server -> client event types.
const (
	EventRoomID           = "room-id"
	EventRoomUpdate       = "room-update"
	EventConnPrepare      = "conn-prepare"
	EventUserDisconnected = "user-disconnected"
	EventError            = "error"
)

// Envelope wraps every message in both directions.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type CreateRoomRequest struct {
	Identity string `json:"identity"`
}

type JoinRoomRequest struct {
	Identity string        `json:"identity"`
	RoomID   domain.RoomID `json:"roomId"`
}

// SignalRequest carries an opaque SDP/ICE blob addressed to another
// connection. The server never inspects Signal.
type SignalRequest struct {
	ConnUserSocketID domain.SocketID `json:"connUserSocketId"`
	Signal           json.RawMessage `json:"signal"`
}

type InitRequest struct {
	ConnUserSocketID domain.SocketID `json:"connUserSocketId"`
}

type RoomIDPayload struct {
	RoomID domain.RoomID `json:"roomId"`
}

type RoomUpdatePayload struct {
	ConnectedUsers []domain.User `json:"connectedUsers"`
}

type ConnPreparePayload struct {
	ConnUserSocketID domain.SocketID `json:"connUserSocketId"`
}

type UserDisconnectedPayload struct {
	SocketID domain.SocketID `json:"socketId"`
}

type SignalPayload struct {
	Signal           json.RawMessage `json:"signal"`
	ConnUserSocketID domain.SocketID `json:"connUserSocketId"`
}

type InitPayload struct {
	ConnUserSocketID domain.SocketID `json:"connUserSocketId"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// Encode marshals an event payload into a wire frame.
func Encode(eventType string, payload any) (Frame, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(Envelope{Type: eventType, Data: data})
	if err != nil {
		return nil, err
	}
	return Frame(b), nil
}
