package domain

import (
	"strings"
	"time"
)

// RoomCode is the short, human-typable room identifier.
type RoomCode string

// ParseRoomCode normalizes user input: codes are case-insensitive on input.
func ParseRoomCode(raw string) RoomCode {
	return RoomCode(strings.ToUpper(strings.TrimSpace(raw)))
}

type Room struct {
	Code        RoomCode
	Coordinator ParticipantID
	CreatedAt   time.Time
}

func NewRoom(code RoomCode, coordinator ParticipantID) *Room {
	return &Room{Code: code, Coordinator: coordinator, CreatedAt: time.Now()}
}
