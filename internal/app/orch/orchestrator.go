package orch

import (
	"context"
	"errors"
	"time"

	"github.com/dkeye/Board/internal/app"
	"github.com/dkeye/Board/internal/core"
	"github.com/dkeye/Board/internal/domain"
	"github.com/dkeye/Board/internal/persist"
	"github.com/rs/zerolog/log"
)

// Orchestrator exposes the room operations to every transport. Errors
// matching core.ErrTransportDelivery mean the operation took effect but some
// subscribers were not notified.
type Orchestrator struct {
	Rooms   core.RoomRegistry
	Reaper  *app.Reaper
	Payload core.PayloadPolicy
	Policy  app.Policy
	Archive persist.Archiver
	// ArchiveTimeout bounds one archive write.
	ArchiveTimeout time.Duration
}

func (o *Orchestrator) Roster(code domain.RoomCode) ([]domain.Member, error) {
	room, err := o.Rooms.GetRoom(code)
	if err != nil {
		return nil, err
	}
	return room.Roster(), nil
}

func (o *Orchestrator) List() []core.RoomInfo {
	return o.Rooms.List()
}

// Attach re-binds a transport to a participant that is already in the room.
func (o *Orchestrator) Attach(code domain.RoomCode, id domain.ParticipantID, sub core.Subscriber) error {
	room, err := o.Rooms.GetRoom(code)
	if err != nil {
		return err
	}
	if !room.IsMember(id) {
		return core.ErrNotMember
	}
	room.Attach(id, sub)
	return nil
}

// Detach drops a subscription without leaving the room.
func (o *Orchestrator) Detach(code domain.RoomCode, id domain.ParticipantID, sub core.Subscriber) {
	room, err := o.Rooms.GetRoom(code)
	if err != nil {
		return
	}
	room.Detach(id, sub)
}

// applyPolicy hands every failed subscriber in err to the back-pressure policy.
func (o *Orchestrator) applyPolicy(room core.RoomService, err error) {
	if err == nil || o.Policy == nil || !errors.Is(err, core.ErrTransportDelivery) {
		return
	}
	for _, f := range core.Failures(err) {
		switch o.Policy.OnDeliveryFailure(room, f) {
		case app.DetachSubscriber:
			if f.Sub != nil && room.Detach(f.ID, f.Sub) {
				log.Warn().
					Str("module", "orch").
					Str("room", string(room.Room().Code)).
					Str("participant", string(f.ID)).
					Err(f.Err).
					Msg("detached unreachable subscriber")
			}
		case app.NoAction:
		}
	}
}

func (o *Orchestrator) archive(ctx context.Context, snap domain.SurfaceSnapshot) {
	if o.Archive == nil {
		return
	}
	timeout := o.ArchiveTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := o.Archive.Archive(ctx, snap); err != nil {
		log.Warn().
			Str("module", "orch").
			Str("room", string(snap.Room)).
			Str("participant", string(snap.Participant)).
			Err(err).
			Msg("snapshot archive failed")
	}
}
