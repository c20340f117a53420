// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"

	"github.com/google/uuid"
)

var (
	ErrRoomNotFound  = errors.New("room not found")
	ErrRoomFull      = errors.New("room is full")
	ErrAlreadyInRoom = errors.New("connection already belongs to a room")
)

type (
	UserID   string
	SocketID string
)

// User is a participant inside a room. Identity is caller-supplied display
// data and intentionally not validated.
type User struct {
	ID       UserID   `json:"id"`
	Identity string   `json:"identity"`
	SocketID SocketID `json:"socketId"`
	RoomID   RoomID   `json:"roomId"`
}

// NewUser is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewUser(identity string, sid SocketID, roomID RoomID) *User {
	return &User{
		ID:       UserID(uuid.NewString()),
		Identity: identity,
		SocketID: sid,
		RoomID:   roomID,
	}
}
