package app

import (
	"errors"

	"github.com/dkeye/Board/internal/core"
)

type DeliveryAction int

const (
	NoAction DeliveryAction = iota
	DetachSubscriber
)

// Policy decides what happens to a subscriber a broadcast could not reach.
type Policy interface {
	OnDeliveryFailure(room core.RoomService, failure core.Failure) DeliveryAction
}

// DetachClosed drops subscriptions whose transport is gone and tolerates
// transient back-pressure. It never touches the roster.
type DetachClosed struct{}

func (DetachClosed) OnDeliveryFailure(_ core.RoomService, f core.Failure) DeliveryAction {
	if errors.Is(f.Err, core.ErrSubscriberClosed) {
		return DetachSubscriber
	}
	return NoAction
}
