package persist_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dkeye/Board/internal/domain"
	"github.com/dkeye/Board/internal/persist"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*persist.RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return persist.NewRedisStore(client, "test:", time.Hour), mr
}

func snapshot(room domain.RoomCode, id domain.ParticipantID, raster string) domain.SurfaceSnapshot {
	return domain.SurfaceSnapshot{
		Room:        room,
		Participant: id,
		Raster:      raster,
		TakenAt:     time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestRedisStoreKeepsLatestPerParticipant(t *testing.T) {
	store, mr := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.Archive(ctx, snapshot("AB12CD", "S1", "first")))
	require.NoError(t, store.Archive(ctx, snapshot("AB12CD", "S1", "second")))
	require.NoError(t, store.Archive(ctx, snapshot("AB12CD", "S2", "other")))

	got, err := store.Latest(ctx, "AB12CD", "S1")
	require.NoError(t, err)
	assert.Equal(t, "second", got.Raster)
	assert.True(t, got.TakenAt.Equal(snapshot("", "", "").TakenAt))

	all, err := store.Room(ctx, "AB12CD")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	assert.True(t, mr.Exists("test:room:AB12CD:snapshots"))
	assert.Equal(t, time.Hour, mr.TTL("test:room:AB12CD:snapshots"))
}

func TestRedisStoreLatestMissing(t *testing.T) {
	store, _ := newStore(t)
	_, err := store.Latest(context.Background(), "AB12CD", "S1")
	assert.ErrorIs(t, err, persist.ErrSnapshotNotFound)
}

func TestRedisStoreForget(t *testing.T) {
	store, mr := newStore(t)
	ctx := context.Background()
	require.NoError(t, store.Archive(ctx, snapshot("AB12CD", "S1", "x")))
	require.NoError(t, store.Archive(ctx, snapshot("ZZ99ZZ", "S1", "y")))

	require.NoError(t, store.Forget(ctx, "AB12CD"))
	require.NoError(t, store.Forget(ctx, "AB12CD"))

	assert.False(t, mr.Exists("test:room:AB12CD:snapshots"))
	assert.True(t, mr.Exists("test:room:ZZ99ZZ:snapshots"))
}

func TestRedisStoreExpires(t *testing.T) {
	store, mr := newStore(t)
	ctx := context.Background()
	require.NoError(t, store.Archive(ctx, snapshot("AB12CD", "S1", "x")))

	mr.FastForward(2 * time.Hour)
	_, err := store.Latest(ctx, "AB12CD", "S1")
	assert.ErrorIs(t, err, persist.ErrSnapshotNotFound)
}
