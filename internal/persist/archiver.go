package persist

import (
	"context"
	"errors"

	"github.com/dkeye/Board/internal/domain"
)

var ErrSnapshotNotFound = errors.New("snapshot not found")

// Archiver keeps the latest surface snapshot of each participant outside the
// process. It is written after a broadcast and never read to serve a join.
type Archiver interface {
	Archive(ctx context.Context, snap domain.SurfaceSnapshot) error
	Forget(ctx context.Context, code domain.RoomCode) error
}

// SnapshotReader serves archived snapshots back to a room's coordinator.
type SnapshotReader interface {
	Latest(ctx context.Context, code domain.RoomCode, id domain.ParticipantID) (domain.SurfaceSnapshot, error)
	Room(ctx context.Context, code domain.RoomCode) ([]domain.SurfaceSnapshot, error)
}

// Nop discards everything.
type Nop struct{}

func (Nop) Archive(context.Context, domain.SurfaceSnapshot) error { return nil }
func (Nop) Forget(context.Context, domain.RoomCode) error          { return nil }
