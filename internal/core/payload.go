package core

import "encoding/json"

// DefaultMaxPayloadBytes keeps messages under common pub/sub size ceilings.
const DefaultMaxPayloadBytes = 9 * 1024

// PayloadPolicy strips the raster from events whose encoded size would
// exceed MaxBytes. Geometry and identity are always preserved.
type PayloadPolicy struct {
	MaxBytes int
}

// Shape reports whether the raster was dropped.
func (p PayloadPolicy) Shape(ev Event) (Event, bool) {
	if ev.Raster == "" {
		return ev, false
	}
	limit := p.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxPayloadBytes
	}
	if b, err := json.Marshal(ev); err == nil && len(b) <= limit {
		return ev, false
	}
	ev.Raster = ""
	ev.RasterDropped = true
	return ev, true
}
