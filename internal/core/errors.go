package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dkeye/Board/internal/domain"
)

var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrNotMember          = errors.New("participant is not a member of the room")
	ErrCodeSpaceExhausted = errors.New("no free room code found")
	ErrTransportDelivery  = errors.New("transport delivery failure")
)

// Failure is one subscriber that could not be notified.
type Failure struct {
	ID  domain.ParticipantID
	Sub Subscriber
	Err error
}

// DeliveryError reports a broadcast that reached only part of the room.
// The state change that triggered it has already been applied.
type DeliveryError struct {
	Room   domain.RoomCode
	Failed []Failure
}

func (e *DeliveryError) Error() string {
	ids := make([]string, 0, len(e.Failed))
	for _, f := range e.Failed {
		ids = append(ids, string(f.ID))
	}
	return fmt.Sprintf("%s: room %s: %s", ErrTransportDelivery, e.Room, strings.Join(ids, ", "))
}

func (e *DeliveryError) Unwrap() []error {
	out := make([]error, 0, len(e.Failed)+1)
	out = append(out, ErrTransportDelivery)
	for _, f := range e.Failed {
		out = append(out, f.Err)
	}
	return out
}

// Failures collects every Failure carried by err, including errors joined
// with errors.Join.
func Failures(err error) []Failure {
	if err == nil {
		return nil
	}
	if de, ok := err.(*DeliveryError); ok {
		return de.Failed
	}
	switch u := err.(type) {
	case interface{ Unwrap() []error }:
		var out []Failure
		for _, e := range u.Unwrap() {
			out = append(out, Failures(e)...)
		}
		return out
	case interface{ Unwrap() error }:
		return Failures(u.Unwrap())
	}
	return nil
}
