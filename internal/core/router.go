package core

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/dkeye/Board/internal/domain"
	"github.com/sourcegraph/conc/pool"
)

const defaultFanOut = 16

// Target is one subscription of a room.
type Target struct {
	ID  domain.ParticipantID
	Sub Subscriber
}

// PublishResult reports delivery stats to the caller.
type PublishResult struct {
	SendTo int
	Failed []Failure
}

// Router fans one room-scoped event out to the room's subscribers.
type Router struct {
	Room        domain.RoomCode
	Coordinator domain.ParticipantID
	MaxParallel int
}

// Recipients applies echo suppression: the origin does not get its own
// drawing back unless it is the coordinator, who sees everything.
func (r Router) Recipients(targets []Target, ev Event, origin domain.ParticipantID) []Target {
	out := make([]Target, 0, len(targets))
	for _, t := range targets {
		if !ev.Type.Membership() && t.ID == origin && t.ID != r.Coordinator {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Deliver notifies every recipient once. It never retries; failures are
// returned as a *DeliveryError.
func (r Router) Deliver(targets []Target, ev Event, origin domain.ParticipantID) (PublishResult, error) {
	recipients := r.Recipients(targets, ev, origin)
	if len(recipients) == 0 {
		return PublishResult{}, nil
	}
	limit := r.MaxParallel
	if limit <= 0 {
		limit = defaultFanOut
	}

	var (
		mu  sync.Mutex
		res PublishResult
	)
	p := pool.New().WithErrors().WithMaxGoroutines(limit)
	for _, t := range recipients {
		p.Go(func() error {
			err := t.Sub.Notify(ev)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Failed = append(res.Failed, Failure{ID: t.ID, Sub: t.Sub, Err: err})
				return fmt.Errorf("notify %s: %w", t.ID, err)
			}
			res.SendTo++
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		slices.SortFunc(res.Failed, func(a, b Failure) int { return strings.Compare(string(a.ID), string(b.ID)) })
		return res, &DeliveryError{Room: r.Room, Failed: res.Failed}
	}
	return res, nil
}
