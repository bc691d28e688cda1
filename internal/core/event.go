package core

import "github.com/dkeye/Board/internal/domain"

type EventType string

const (
	EventRoomCreated    EventType = "room-created"
	EventJoined         EventType = "participant-joined"
	EventLeft           EventType = "participant-left"
	EventRoomClosed     EventType = "room-closed"
	EventDraw           EventType = "draw"
	EventSnapshot       EventType = "snapshot"
	EventStateRequested EventType = "state-requested"
)

// Membership events reach every subscriber, the one who caused them included.
func (t EventType) Membership() bool {
	switch t {
	case EventRoomCreated, EventJoined, EventLeft, EventRoomClosed:
		return true
	}
	return false
}

// Event is what subscribers receive. Renderers must accept a draw event
// with a stroke and no raster, a raster and no stroke, or both.
type Event struct {
	Type          EventType            `json:"type"`
	Room          domain.RoomCode      `json:"room"`
	Participant   domain.ParticipantID `json:"participantId,omitempty"`
	DisplayName   string               `json:"displayName,omitempty"`
	Stroke        *domain.DrawEvent    `json:"stroke,omitempty"`
	Raster        string               `json:"raster,omitempty"`
	RasterDropped bool                 `json:"rasterDropped,omitempty"`
	Requester     domain.ParticipantID `json:"requester,omitempty"`
	// absent means empty on membership events
	Roster []domain.Member `json:"roster,omitempty"`
}
