package orch

import (
	"context"
	"errors"
	"fmt"

	"github.com/dkeye/Board/internal/core"
	"github.com/dkeye/Board/internal/domain"
	"github.com/rs/zerolog/log"
)

// CreateRoom registers a room under a fresh code. sub, when given, becomes
// the coordinator's subscription and receives room-created.
func (o *Orchestrator) CreateRoom(coordinator domain.ParticipantID, sub core.Subscriber) (domain.RoomCode, error) {
	room, err := o.Rooms.CreateRoom(coordinator)
	if err != nil {
		return "", err
	}
	code := room.Room().Code
	if sub == nil {
		return code, nil
	}
	room.Attach(coordinator, sub)
	err = room.SendTo(coordinator, core.Event{
		Type:        core.EventRoomCreated,
		Room:        code,
		Participant: coordinator,
	})
	o.applyPolicy(room, err)
	return code, err
}

func (o *Orchestrator) Join(code domain.RoomCode, id domain.ParticipantID, name string, sub core.Subscriber) (core.JoinResult, error) {
	room, err := o.Rooms.GetRoom(code)
	if err != nil {
		return core.JoinResult{}, err
	}
	name, err = domain.NormalizeDisplayName(name)
	if err != nil {
		return core.JoinResult{}, err
	}
	res, err := room.Join(id, name, sub)
	if errors.Is(err, core.ErrRoomNotFound) {
		// lost a race with the reaper
		return core.JoinResult{}, err
	}
	o.applyPolicy(room, err)
	if res.Renamed {
		log.Info().Str("module", "orch").Str("room", string(room.Room().Code)).Str("requested", name).Str("assigned", res.DisplayName).Msg("display name resolved")
	}
	return res, err
}

// Leave is idempotent: an unknown room or an absent participant is not an error.
func (o *Orchestrator) Leave(ctx context.Context, code domain.RoomCode, id domain.ParticipantID) error {
	room, err := o.Rooms.GetRoom(code)
	if errors.Is(err, core.ErrRoomNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if o.Reaper == nil {
		return fmt.Errorf("leave %s: no reaper configured", code)
	}
	_, err = o.Reaper.Leave(ctx, room, id)
	o.applyPolicy(room, err)
	return err
}
