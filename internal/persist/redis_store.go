package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/Board/internal/domain"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
)

const (
	DefaultKeyPrefix   = "board:"
	DefaultSnapshotTTL = 24 * time.Hour
)

// RedisStore keeps one hash per room, keyed by participant id.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

func NewRedisStore(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}
	return &RedisStore{client: client, keyPrefix: keyPrefix, ttl: ttl}
}

func (s *RedisStore) snapshotsKey(code domain.RoomCode) string {
	return fmt.Sprintf("%sroom:%s:snapshots", s.keyPrefix, code)
}

func (s *RedisStore) Archive(ctx context.Context, snap domain.SurfaceSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("redis: encode snapshot for %s/%s: %w", snap.Room, snap.Participant, err)
	}
	key := s.snapshotsKey(snap.Room)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, string(snap.Participant), data)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: archive snapshot to %s: %w", key, err)
	}
	log.Debug().
		Str("module", "persist").
		Str("room", string(snap.Room)).
		Str("participant", string(snap.Participant)).
		Int("bytes", len(data)).
		Msg("snapshot archived")
	return nil
}

func (s *RedisStore) Latest(ctx context.Context, code domain.RoomCode, id domain.ParticipantID) (domain.SurfaceSnapshot, error) {
	key := s.snapshotsKey(code)
	raw, err := s.client.HGet(ctx, key, string(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.SurfaceSnapshot{}, ErrSnapshotNotFound
		}
		return domain.SurfaceSnapshot{}, fmt.Errorf("redis: get snapshot %s from %s: %w", id, key, err)
	}
	var snap domain.SurfaceSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return domain.SurfaceSnapshot{}, fmt.Errorf("redis: decode snapshot %s from %s: %w", id, key, err)
	}
	return snap, nil
}

// Room returns every archived snapshot of a room.
func (s *RedisStore) Room(ctx context.Context, code domain.RoomCode) ([]domain.SurfaceSnapshot, error) {
	key := s.snapshotsKey(code)
	all, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: get snapshots from %s: %w", key, err)
	}
	out := make([]domain.SurfaceSnapshot, 0, len(all))
	for id, raw := range all {
		var snap domain.SurfaceSnapshot
		if err := json.Unmarshal([]byte(raw), &snap); err != nil {
			log.Warn().Str("module", "persist").Str("key", key).Str("participant", id).Err(err).Msg("skipping undecodable snapshot")
			continue
		}
		out = append(out, snap)
	}
	return out, nil
}

func (s *RedisStore) Forget(ctx context.Context, code domain.RoomCode) error {
	key := s.snapshotsKey(code)
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis: forget %s: %w", key, err)
	}
	log.Debug().Str("module", "persist").Str("room", string(code)).Msg("room snapshots forgotten")
	return nil
}
