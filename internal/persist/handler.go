package persist

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Handler applies queued archive tasks to a store.
type Handler struct {
	store Archiver
}

func NewHandler(store Archiver) *Handler {
	return &Handler{store: store}
}

// Register wires both task types into mux.
func (h *Handler) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeSnapshotArchive, h.ProcessArchive)
	mux.HandleFunc(TypeRoomForget, h.ProcessForget)
}

func (h *Handler) ProcessArchive(ctx context.Context, t *asynq.Task) error {
	logger := taskLogger(ctx, t)
	var payload ArchivePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		logger.Error().Err(err).Msg("failed to unmarshal task payload")
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	if err := h.store.Archive(ctx, payload.Snapshot); err != nil {
		logger.Error().Err(err).Str("room", string(payload.Snapshot.Room)).Msg("archive failed")
		return fmt.Errorf("archive %s/%s: %w", payload.Snapshot.Room, payload.Snapshot.Participant, err)
	}
	logger.Debug().Str("room", string(payload.Snapshot.Room)).Str("participant", string(payload.Snapshot.Participant)).Msg("snapshot task processed")
	return nil
}

func (h *Handler) ProcessForget(ctx context.Context, t *asynq.Task) error {
	logger := taskLogger(ctx, t)
	var payload ForgetPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		logger.Error().Err(err).Msg("failed to unmarshal task payload")
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.Room == "" {
		return fmt.Errorf("forget task without room: %w", asynq.SkipRetry)
	}
	if err := h.store.Forget(ctx, payload.Room); err != nil {
		return fmt.Errorf("forget %s: %w", payload.Room, err)
	}
	logger.Debug().Str("room", string(payload.Room)).Msg("forget task processed")
	return nil
}

func taskLogger(ctx context.Context, t *asynq.Task) zerolog.Logger {
	lc := log.With().Str("module", "persist").Str("task_type", t.Type())
	if id, ok := asynq.GetTaskID(ctx); ok {
		lc = lc.Str("task_id", id)
	}
	if retry, ok := asynq.GetRetryCount(ctx); ok {
		lc = lc.Int("retry", retry)
	}
	return lc.Logger()
}
