package core

import (
	"github.com/dkeye/Board/internal/domain"
)

// JoinResult is valid even when Join also returns a *DeliveryError.
type JoinResult struct {
	DisplayName string          `json:"displayName"`
	Renamed     bool            `json:"renamed"`
	Roster      []domain.Member `json:"roster"`
}

// LeaveOutcome is what a ReapRule decides on.
type LeaveOutcome struct {
	Departed    domain.ParticipantID
	Coordinator domain.ParticipantID
	WasMember   bool
	Remaining   int
	// Closed is true when the room is closed after the call.
	Closed bool
	// Reaped is true only for the call that closed it.
	Reaped bool
}

// RoomService is the core-facing API of a room.
// It owns the roster and the subscriptions but never touches transport resources.
type RoomService interface {
	Room() *domain.Room
	MemberCount() int
	SubscriberCount() int
	Roster() []domain.Member
	IsMember(id domain.ParticipantID) bool
	Closed() bool

	Attach(id domain.ParticipantID, sub Subscriber)
	// Detach removes id's subscription if it is still sub (nil matches any).
	Detach(id domain.ParticipantID, sub Subscriber) bool

	Join(id domain.ParticipantID, displayName string, sub Subscriber) (JoinResult, error)
	Leave(id domain.ParticipantID, rule ReapRule) (LeaveOutcome, error)

	Publish(ev Event, origin domain.ParticipantID) (PublishResult, error)
	SendTo(id domain.ParticipantID, ev Event) error

	// StoreSnapshot reports false when id is not a member of an open room.
	StoreSnapshot(id domain.ParticipantID, raster string) bool
	LatestSnapshot(id domain.ParticipantID) (domain.SurfaceSnapshot, bool)
}

type RoomInfo struct {
	Code            domain.RoomCode      `json:"code"`
	Coordinator     domain.ParticipantID `json:"coordinator"`
	MemberCount     int                  `json:"memberCount"`
	SubscriberCount int                  `json:"subscriberCount"`
}

// RoomRegistry maps active room codes to rooms.
type RoomRegistry interface {
	CreateRoom(coordinator domain.ParticipantID) (RoomService, error)
	GetRoom(code domain.RoomCode) (RoomService, error)
	RemoveRoom(code domain.RoomCode)
	List() []RoomInfo
}
