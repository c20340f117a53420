package domain

import "github.com/google/uuid"

type RoomID string

// RoomCapacity is the maximum number of members a room admits. The query
// endpoint reports full once this many members are present, and joins
// beyond it are rejected.
const RoomCapacity = 4

func NewRoomID() RoomID {
	return RoomID(uuid.NewString())
}
