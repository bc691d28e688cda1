package persist

import (
	"encoding/json"
	"fmt"

	"github.com/dkeye/Board/internal/domain"
	"github.com/hibiken/asynq"
)

const (
	TypeSnapshotArchive = "snapshot:archive"
	TypeRoomForget      = "room:forget"
)

type ArchivePayload struct {
	Snapshot domain.SurfaceSnapshot `json:"snapshot"`
}

type ForgetPayload struct {
	Room domain.RoomCode `json:"room"`
}

func NewArchiveTask(snap domain.SurfaceSnapshot) (*asynq.Task, error) {
	payload, err := json.Marshal(ArchivePayload{Snapshot: snap})
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", TypeSnapshotArchive, err)
	}
	return asynq.NewTask(TypeSnapshotArchive, payload), nil
}

func NewForgetTask(code domain.RoomCode) (*asynq.Task, error) {
	payload, err := json.Marshal(ForgetPayload{Room: code})
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", TypeRoomForget, err)
	}
	return asynq.NewTask(TypeRoomForget, payload), nil
}
