// Package domain holds the board's entities and their input rules.
package domain

import (
	"errors"
	"strings"
)

const (
	MaxParticipantIDLen = 64
	MaxDisplayNameLen   = 36
)

var (
	ErrDisplayNameTooLong = errors.New("display name too long")
	ErrParticipantIDEmpty = errors.New("participant id empty")
	ErrParticipantIDLong  = errors.New("participant id too long")
)

// ParticipantID is opaque; transports decide what it is (client token, socket id).
type ParticipantID string

func ParseParticipantID(raw string) (ParticipantID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrParticipantIDEmpty
	}
	if len(raw) > MaxParticipantIDLen {
		return "", ErrParticipantIDLong
	}
	return ParticipantID(raw), nil
}

// NormalizeDisplayName trims the requested name. An empty name is replaced
// with a generated two-word one.
func NormalizeDisplayName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return RandomDisplayName(), nil
	}
	if len(name) > MaxDisplayNameLen {
		return "", ErrDisplayNameTooLong
	}
	return name, nil
}
