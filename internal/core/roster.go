package core

import (
	"slices"
	"strconv"

	"github.com/dkeye/Board/internal/domain"
)

// Roster maps identities to display names. Not safe for concurrent use;
// the owning room serializes access.
type Roster struct {
	uniqueNames bool
	seq         uint64
	members     map[domain.ParticipantID]*rosterSlot
	names       map[string]domain.ParticipantID
}

type rosterSlot struct {
	name string
	seq  uint64
}

func NewRoster(uniqueNames bool) *Roster {
	return &Roster{
		uniqueNames: uniqueNames,
		members:     make(map[domain.ParticipantID]*rosterSlot),
		names:       make(map[string]domain.ParticipantID),
	}
}

// Join inserts id or, if it is already present, replaces its display name.
// renamed reports that a numeric suffix was added to keep labels unique;
// the identity key is never touched by that.
func (r *Roster) Join(id domain.ParticipantID, requested string) (name string, renamed bool) {
	slot, rejoin := r.members[id]
	if rejoin {
		r.releaseName(id, slot.name)
	}

	name = requested
	if r.uniqueNames {
		name = r.freeName(requested)
		r.names[name] = id
	}

	if rejoin {
		slot.name = name
	} else {
		r.seq++
		r.members[id] = &rosterSlot{name: name, seq: r.seq}
	}
	return name, name != requested
}

func (r *Roster) Leave(id domain.ParticipantID) bool {
	slot, ok := r.members[id]
	if !ok {
		return false
	}
	r.releaseName(id, slot.name)
	delete(r.members, id)
	return true
}

func (r *Roster) Contains(id domain.ParticipantID) bool {
	_, ok := r.members[id]
	return ok
}

func (r *Roster) Name(id domain.ParticipantID) (string, bool) {
	slot, ok := r.members[id]
	if !ok {
		return "", false
	}
	return slot.name, true
}

func (r *Roster) Len() int { return len(r.members) }

// List returns members in first-join order.
func (r *Roster) List() []domain.Member {
	type row struct {
		m   domain.Member
		seq uint64
	}
	rows := make([]row, 0, len(r.members))
	for id, slot := range r.members {
		rows = append(rows, row{m: domain.Member{ID: id, DisplayName: slot.name}, seq: slot.seq})
	}
	slices.SortFunc(rows, func(a, b row) int {
		switch {
		case a.seq < b.seq:
			return -1
		case a.seq > b.seq:
			return 1
		}
		return 0
	})
	out := make([]domain.Member, len(rows))
	for i, rw := range rows {
		out[i] = rw.m
	}
	return out
}

func (r *Roster) freeName(requested string) string {
	if _, taken := r.names[requested]; !taken {
		return requested
	}
	for n := 1; ; n++ {
		candidate := requested + strconv.Itoa(n)
		if _, taken := r.names[candidate]; !taken {
			return candidate
		}
	}
}

func (r *Roster) releaseName(id domain.ParticipantID, name string) {
	if owner, ok := r.names[name]; ok && owner == id {
		delete(r.names, name)
	}
}
