package core_test

import (
	"sync"

	"github.com/dkeye/Board/internal/core"
)

// sink records everything it is notified with.
type sink struct {
	mu     sync.Mutex
	events []core.Event
	err    error
}

func (s *sink) Notify(ev core.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, ev)
	return nil
}

func (s *sink) Events() []core.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Event(nil), s.events...)
}

func (s *sink) Types() []core.EventType {
	evs := s.Events()
	out := make([]core.EventType, len(evs))
	for i, ev := range evs {
		out[i] = ev.Type
	}
	return out
}
