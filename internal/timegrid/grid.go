// Package timegrid maps wall-clock instants onto the zero-based integer slot
// grid both schedulers work in.
package timegrid

import (
	"math"
	"time"
)

// Grid converts between instants and discrete slots of Granularity minutes,
// numbered from Base.
type Grid struct {
	Base        time.Time
	Granularity int // minutes per slot, > 0
}

// Slot returns the slot containing t (floor division).
func (g Grid) Slot(t time.Time) int {
	minutes := t.Sub(g.Base).Minutes()
	return int(math.Floor(minutes / float64(g.Granularity)))
}

// SlotCeil returns the first slot boundary at or after t.
func (g Grid) SlotCeil(t time.Time) int {
	minutes := t.Sub(g.Base).Minutes()
	return int(math.Ceil(minutes / float64(g.Granularity)))
}

// Time returns the instant at which slot begins.
func (g Grid) Time(slot int) time.Time {
	return g.Base.Add(time.Duration(slot*g.Granularity) * time.Minute)
}

// DurationSlots converts a duration in minutes to a slot count, never below 1.
func (g Grid) DurationSlots(minutes int) int {
	slots := int(math.Ceil(float64(minutes) / float64(g.Granularity)))
	if slots < 1 {
		return 1
	}
	return slots
}

// BaseFor derives the grid origin for a run: the earliest of the given
// instants, truncated to whole minutes and pulled back onto a granularity
// boundary.
func BaseFor(times []time.Time, granularity int) time.Time {
	base := times[0]
	for _, t := range times[1:] {
		if t.Before(base) {
			base = t
		}
	}
	base = base.Truncate(time.Minute)
	if offset := base.Minute() % granularity; offset != 0 {
		base = base.Add(-time.Duration(offset) * time.Minute)
	}
	return base
}

// Horizon returns the slot count covering everything up to latest, plus a
// fixed slack of 10 slots, never below 10.
func (g Grid) Horizon(latest time.Time) int {
	h := g.SlotCeil(latest) + 10
	if h < 10 {
		return 10
	}
	return h
}
