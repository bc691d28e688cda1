package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dkeye/Board/internal/app"
	"github.com/dkeye/Board/internal/core"
	"github.com/dkeye/Board/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingArchive struct {
	mu       sync.Mutex
	archived []domain.SurfaceSnapshot
	forgot   []domain.RoomCode
	err      error
}

func (a *recordingArchive) Archive(_ context.Context, s domain.SurfaceSnapshot) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.archived = append(a.archived, s)
	return a.err
}

func (a *recordingArchive) Forget(_ context.Context, code domain.RoomCode) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.forgot = append(a.forgot, code)
	return a.err
}

func TestReaperStrictRule(t *testing.T) {
	m := app.NewRoomManager(app.RoomManagerOptions{Codes: sequence("AB12CD")})
	archive := &recordingArchive{}
	reaper := app.NewReaper(m, core.ReapWhenEmptyAfterCoordinator, archive)
	ctx := context.Background()

	room, err := m.CreateRoom("T")
	require.NoError(t, err)
	_, err = room.Join("S1", "Fox", nil)
	require.NoError(t, err)

	out, err := reaper.Leave(ctx, room, "T")
	require.NoError(t, err)
	assert.False(t, out.Closed)

	out, err = reaper.Leave(ctx, room, "S1")
	require.NoError(t, err)
	assert.False(t, out.Closed)
	_, err = m.GetRoom("AB12CD")
	require.NoError(t, err, "a participant leaving never removes the room")

	out, err = reaper.Leave(ctx, room, "T")
	require.NoError(t, err)
	assert.True(t, out.Reaped)
	_, err = m.GetRoom("AB12CD")
	assert.ErrorIs(t, err, core.ErrRoomNotFound)
	assert.Equal(t, []domain.RoomCode{"AB12CD"}, archive.forgot)
}

func TestReaperCoordinatorLeaveRule(t *testing.T) {
	m := app.NewRoomManager(app.RoomManagerOptions{Codes: sequence("AB12CD")})
	reaper := app.NewReaper(m, core.ReapOnCoordinatorLeave, nil)
	ctx := context.Background()

	room, err := m.CreateRoom("T")
	require.NoError(t, err)
	_, err = room.Join("S1", "Fox", nil)
	require.NoError(t, err)

	out, err := reaper.Leave(ctx, room, "T")
	require.NoError(t, err)
	assert.True(t, out.Reaped)
	assert.Empty(t, m.List())

	// a late leave on the stale handle changes nothing
	out, err = reaper.Leave(ctx, room, "S1")
	require.NoError(t, err)
	assert.False(t, out.Reaped)
}

func TestReaperArchiveFailureDoesNotBlockReap(t *testing.T) {
	m := app.NewRoomManager(app.RoomManagerOptions{Codes: sequence("AB12CD")})
	reaper := app.NewReaper(m, nil, &recordingArchive{err: errors.New("redis down")})

	room, err := m.CreateRoom("T")
	require.NoError(t, err)
	out, err := reaper.Leave(context.Background(), room, "T")
	require.NoError(t, err)
	assert.True(t, out.Reaped)
	assert.Empty(t, m.List())
}
