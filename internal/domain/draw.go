package domain

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var ErrInvalidDraw = errors.New("invalid draw event")

type DrawKind string

const (
	DrawStroke DrawKind = "stroke"
	DrawClear  DrawKind = "clear"
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Style struct {
	Color string  `json:"color"`
	Width float64 `json:"width"`
	Erase bool    `json:"erase,omitempty"`
}

// DrawEvent is an incremental change to one participant's surface.
type DrawEvent struct {
	Kind   DrawKind `json:"kind"`
	Points []Point  `json:"points,omitempty"`
	Style  Style    `json:"style"`
}

func (e *DrawEvent) Validate() error {
	switch e.Kind {
	case DrawStroke:
		if len(e.Points) == 0 {
			return fmt.Errorf("%w: stroke without points", ErrInvalidDraw)
		}
		for i, p := range e.Points {
			if !finite(p.X) || !finite(p.Y) {
				return fmt.Errorf("%w: point %d is not finite", ErrInvalidDraw, i)
			}
		}
		if !finite(e.Style.Width) || e.Style.Width <= 0 {
			return fmt.Errorf("%w: stroke width must be positive", ErrInvalidDraw)
		}
	case DrawClear:
		if len(e.Points) != 0 {
			return fmt.Errorf("%w: clear carries no points", ErrInvalidDraw)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidDraw, e.Kind)
	}
	return nil
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

// SurfaceSnapshot is the full encoded raster of one participant's surface.
type SurfaceSnapshot struct {
	Room        RoomCode      `json:"room"`
	Participant ParticipantID `json:"participantId"`
	Raster      string        `json:"raster"`
	TakenAt     time.Time     `json:"takenAt"`
}
