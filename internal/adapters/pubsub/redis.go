package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dkeye/Board/internal/core"
	"github.com/dkeye/Board/internal/domain"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
)

// Publisher turns Redis channels into room subscriptions, one channel per
// participant: <prefix>classroom-<code>:<id>.
type Publisher struct {
	client    *redis.Client
	keyPrefix string
	timeout   time.Duration
}

func NewPublisher(client *redis.Client, keyPrefix string) *Publisher {
	return &Publisher{client: client, keyPrefix: keyPrefix, timeout: time.Second}
}

func (p *Publisher) Channel(code domain.RoomCode, id domain.ParticipantID) string {
	return fmt.Sprintf("%sclassroom-%s:%s", p.keyPrefix, code, id)
}

func (p *Publisher) SubscriberFor(code domain.RoomCode, id domain.ParticipantID) core.Subscriber {
	return &channelSubscriber{p: p, channel: p.Channel(code, id)}
}

type channelSubscriber struct {
	p       *Publisher
	channel string
}

func (s *channelSubscriber) Notify(ev core.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("pubsub: encode %s: %w", ev.Type, err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.p.timeout)
	defer cancel()
	receivers, err := s.p.client.Publish(ctx, s.channel, data).Result()
	if err != nil {
		return fmt.Errorf("pubsub: publish to %s: %w", s.channel, err)
	}
	log.Debug().Str("module", "pubsub").Str("channel", s.channel).Str("type", string(ev.Type)).Int64("receivers", receivers).Msg("published")
	return nil
}
