package core

import "errors"

var (
	ErrSubscriberClosed = errors.New("subscriber closed")
	ErrBackpressure     = errors.New("backpressure")
	ErrNoSubscriber     = errors.New("participant has no subscription")
)

// SessionID identifies one transport connection, not a participant.
type SessionID string

// Frame is a raw encoded message on its way to a transport.
type Frame []byte

//go:generate mockgen -destination=mocks/mock_subscriber.go -package=mocks github.com/dkeye/Board/internal/core Subscriber

// Subscriber is the only thing the core knows about a transport.
// Owned by the adapter; Notify must not block on the network.
type Subscriber interface {
	Notify(Event) error
}
