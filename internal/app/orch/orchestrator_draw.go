package orch

import (
	"context"
	"fmt"

	"github.com/dkeye/Board/internal/core"
	"github.com/dkeye/Board/internal/domain"
	"github.com/rs/zerolog/log"
)

// DrawSubmission carries an incremental stroke, a full surface raster, or both.
type DrawSubmission struct {
	Event  *domain.DrawEvent `json:"stroke,omitempty"`
	Raster string            `json:"raster,omitempty"`
}

func (o *Orchestrator) SubmitDrawEvent(ctx context.Context, code domain.RoomCode, id domain.ParticipantID, sub DrawSubmission) error {
	if sub.Event == nil && sub.Raster == "" {
		return fmt.Errorf("%w: empty submission", domain.ErrInvalidDraw)
	}
	if sub.Event != nil {
		if err := sub.Event.Validate(); err != nil {
			return err
		}
	}
	room, err := o.Rooms.GetRoom(code)
	if err != nil {
		return err
	}
	if !room.IsMember(id) {
		return core.ErrNotMember
	}
	if sub.Raster != "" && !room.StoreSnapshot(id, sub.Raster) {
		return core.ErrNotMember
	}

	ev := core.Event{
		Type:        core.EventDraw,
		Room:        room.Room().Code,
		Participant: id,
		Stroke:      sub.Event,
		Raster:      sub.Raster,
	}
	if sub.Event == nil {
		ev.Type = core.EventSnapshot
	}
	shaped, dropped := o.Payload.Shape(ev)
	if dropped {
		log.Debug().Str("module", "orch").Str("room", string(ev.Room)).Str("participant", string(id)).Int("raster_bytes", len(sub.Raster)).Msg("raster dropped from broadcast")
	}

	if _, err := room.Publish(shaped, id); err != nil {
		o.applyPolicy(room, err)
		return err
	}
	if sub.Raster != "" {
		if snap, ok := room.LatestSnapshot(id); ok {
			o.archive(ctx, snap)
		}
	}
	return nil
}

// RequestState answers from the cached snapshot when it fits the payload
// bound, otherwise it asks the target to submit a fresh one.
func (o *Orchestrator) RequestState(code domain.RoomCode, requester, target domain.ParticipantID) error {
	room, err := o.Rooms.GetRoom(code)
	if err != nil {
		return err
	}
	if !room.IsMember(requester) {
		return core.ErrNotMember
	}
	if !room.IsMember(target) {
		return fmt.Errorf("target %s: %w", target, core.ErrNotMember)
	}

	if snap, ok := room.LatestSnapshot(target); ok {
		ev, dropped := o.Payload.Shape(core.Event{
			Type:        core.EventSnapshot,
			Room:        room.Room().Code,
			Participant: target,
			Raster:      snap.Raster,
			Requester:   requester,
		})
		if !dropped {
			err = room.SendTo(requester, ev)
			o.applyPolicy(room, err)
			return err
		}
	}

	err = room.SendTo(target, core.Event{
		Type:        core.EventStateRequested,
		Room:        room.Room().Code,
		Participant: target,
		Requester:   requester,
	})
	o.applyPolicy(room, err)
	return err
}
