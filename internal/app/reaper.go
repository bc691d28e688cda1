package app

import (
	"context"
	"time"

	"github.com/dkeye/Board/internal/core"
	"github.com/dkeye/Board/internal/domain"
	"github.com/dkeye/Board/internal/persist"
	"github.com/rs/zerolog/log"
)

// Reaper runs the leave path of a room and destroys the room when its rule fires.
type Reaper struct {
	Rooms   core.RoomRegistry
	Rule    core.ReapRule
	Archive persist.Archiver
	// Timeout bounds the archive cleanup.
	Timeout time.Duration
}

func NewReaper(rooms core.RoomRegistry, rule core.ReapRule, archive persist.Archiver) *Reaper {
	if rule == nil {
		rule = core.ReapWhenEmptyAfterCoordinator
	}
	if archive == nil {
		archive = persist.Nop{}
	}
	return &Reaper{Rooms: rooms, Rule: rule, Archive: archive, Timeout: 2 * time.Second}
}

// Leave removes id from room. The returned error only reports delivery
// failures; the departure itself always takes effect.
func (r *Reaper) Leave(ctx context.Context, room core.RoomService, id domain.ParticipantID) (core.LeaveOutcome, error) {
	out, err := room.Leave(id, r.Rule)
	if out.Reaped {
		r.reap(ctx, room.Room().Code, id, out.Remaining)
	}
	return out, err
}

func (r *Reaper) reap(ctx context.Context, code domain.RoomCode, by domain.ParticipantID, remaining int) {
	r.Rooms.RemoveRoom(code)
	log.Info().
		Str("module", "app.reaper").
		Str("room", string(code)).
		Str("by", string(by)).
		Int("remaining", remaining).
		Msg("room reaped")

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.Timeout)
	defer cancel()
	if err := r.Archive.Forget(ctx, code); err != nil {
		log.Warn().Str("module", "app.reaper").Str("room", string(code)).Err(err).Msg("archive cleanup failed")
	}
}
