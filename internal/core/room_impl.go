package core

import (
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dkeye/Board/internal/domain"
	"github.com/rs/zerolog/log"
)

type RoomOptions struct {
	UniqueNames bool
	MaxParallel int
}

// roomImpl is a threadsafe in-memory room. Every roster change and the
// membership broadcast that follows it happen under one lock, so the roster
// carried by an event is one that actually existed.
// It never closes adapter-owned resources.
type roomImpl struct {
	room   *domain.Room
	router Router

	mu     sync.RWMutex
	roster *Roster
	subs   map[domain.ParticipantID]Subscriber
	closed bool

	snapMu    sync.Mutex
	snapshots map[domain.ParticipantID]domain.SurfaceSnapshot
}

func NewRoomService(room *domain.Room, opts RoomOptions) RoomService {
	return &roomImpl{
		room: room,
		router: Router{
			Room:        room.Code,
			Coordinator: room.Coordinator,
			MaxParallel: opts.MaxParallel,
		},
		roster:    NewRoster(opts.UniqueNames),
		subs:      make(map[domain.ParticipantID]Subscriber),
		snapshots: make(map[domain.ParticipantID]domain.SurfaceSnapshot),
	}
}

func (r *roomImpl) Room() *domain.Room { return r.room }

func (r *roomImpl) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.roster.Len()
}

func (r *roomImpl) SubscriberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

func (r *roomImpl) Roster() []domain.Member {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.roster.List()
}

func (r *roomImpl) IsMember(id domain.ParticipantID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.isMemberLocked(id)
}

func (r *roomImpl) Closed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.closed
}

func (r *roomImpl) Attach(id domain.ParticipantID, sub Subscriber) {
	if sub == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.subs[id] = sub
	log.Debug().Str("module", "core.room").Str("room", string(r.room.Code)).Str("participant", string(id)).Msg("subscriber attached")
}

func (r *roomImpl) Detach(id domain.ParticipantID, sub Subscriber) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.subs[id]
	if !ok || (sub != nil && cur != sub) {
		return false
	}
	delete(r.subs, id)
	log.Debug().Str("module", "core.room").Str("room", string(r.room.Code)).Str("participant", string(id)).Msg("subscriber detached")
	return true
}

func (r *roomImpl) Join(id domain.ParticipantID, displayName string, sub Subscriber) (JoinResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return JoinResult{}, ErrRoomNotFound
	}
	if sub != nil {
		r.subs[id] = sub
	}

	// The coordinator watches; it is never listed.
	if id == r.room.Coordinator {
		return JoinResult{DisplayName: displayName, Roster: r.roster.List()}, nil
	}

	name, renamed := r.roster.Join(id, displayName)
	res := JoinResult{DisplayName: name, Renamed: renamed, Roster: r.roster.List()}
	log.Info().
		Str("module", "core.room").
		Str("room", string(r.room.Code)).
		Str("participant", string(id)).
		Str("name", name).
		Bool("renamed", renamed).
		Msg("member joined")

	_, err := r.router.Deliver(r.targetsLocked(), Event{
		Type:        EventJoined,
		Room:        r.room.Code,
		Participant: id,
		DisplayName: name,
		Roster:      res.Roster,
	}, id)
	return res, err
}

func (r *roomImpl) Leave(id domain.ParticipantID, rule ReapRule) (LeaveOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := LeaveOutcome{Departed: id, Coordinator: r.room.Coordinator}
	if r.closed {
		out.Closed = true
		return out, nil
	}

	out.WasMember = r.roster.Leave(id)
	delete(r.subs, id)
	out.Remaining = r.roster.Len()
	r.snapMu.Lock()
	delete(r.snapshots, id)
	r.snapMu.Unlock()

	var errs []error
	if out.WasMember {
		log.Info().Str("module", "core.room").Str("room", string(r.room.Code)).Str("participant", string(id)).Msg("member left")
		_, err := r.router.Deliver(r.targetsLocked(), Event{
			Type:        EventLeft,
			Room:        r.room.Code,
			Participant: id,
			Roster:      r.roster.List(),
		}, id)
		errs = append(errs, err)
	}

	if rule != nil && (out.WasMember || id == r.room.Coordinator) && rule(out) {
		r.closed = true
		out.Closed = true
		out.Reaped = true
		_, err := r.router.Deliver(r.targetsLocked(), Event{Type: EventRoomClosed, Room: r.room.Code}, id)
		errs = append(errs, err)
		clear(r.subs)
		log.Info().Str("module", "core.room").Str("room", string(r.room.Code)).Str("by", string(id)).Msg("room closed")
	}
	return out, errors.Join(errs...)
}

func (r *roomImpl) Publish(ev Event, origin domain.ParticipantID) (PublishResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return PublishResult{}, ErrRoomNotFound
	}
	if !r.isMemberLocked(origin) {
		return PublishResult{}, ErrNotMember
	}
	res, err := r.router.Deliver(r.targetsLocked(), ev, origin)
	log.Debug().
		Str("module", "core.room").
		Str("room", string(r.room.Code)).
		Str("from", string(origin)).
		Str("type", string(ev.Type)).
		Int("sent_to", res.SendTo).
		Int("failed", len(res.Failed)).
		Msg("broadcast result")
	return res, err
}

func (r *roomImpl) SendTo(id domain.ParticipantID, ev Event) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return ErrRoomNotFound
	}
	sub, ok := r.subs[id]
	if !ok {
		return &DeliveryError{Room: r.room.Code, Failed: []Failure{{ID: id, Err: ErrNoSubscriber}}}
	}
	// direct messages are never echo-filtered
	_, err := r.router.Deliver([]Target{{ID: id, Sub: sub}}, ev, "")
	return err
}

// StoreSnapshot holds the room read lock so a concurrent Leave cannot
// leave a snapshot behind for a departed participant.
func (r *roomImpl) StoreSnapshot(id domain.ParticipantID, raster string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed || !r.isMemberLocked(id) {
		return false
	}
	r.snapMu.Lock()
	defer r.snapMu.Unlock()
	r.snapshots[id] = domain.SurfaceSnapshot{
		Room:        r.room.Code,
		Participant: id,
		Raster:      raster,
		TakenAt:     time.Now(),
	}
	return true
}

func (r *roomImpl) LatestSnapshot(id domain.ParticipantID) (domain.SurfaceSnapshot, bool) {
	r.snapMu.Lock()
	defer r.snapMu.Unlock()
	s, ok := r.snapshots[id]
	return s, ok
}

func (r *roomImpl) isMemberLocked(id domain.ParticipantID) bool {
	return id == r.room.Coordinator || r.roster.Contains(id)
}

func (r *roomImpl) targetsLocked() []Target {
	out := make([]Target, 0, len(r.subs))
	for id, sub := range r.subs {
		out = append(out, Target{ID: id, Sub: sub})
	}
	slices.SortFunc(out, func(a, b Target) int { return strings.Compare(string(a.ID), string(b.ID)) })
	return out
}
