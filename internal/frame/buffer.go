// Package frame holds the latest renderable state per watched antenna.
package frame

import (
	"fmt"
	"time"

	"spectui/internal/source"
	"spectui/internal/spectra"
)

// Status describes what a slot's plot should show.
type Status int

const (
	// StatusWaiting means no fetch has succeeded yet.
	StatusWaiting Status = iota
	// StatusFresh means the held spectrum is within the staleness window.
	StatusFresh
	// StatusStale means the held spectrum has outlived the staleness
	// window, whatever the most recent fetch did.
	StatusStale
	// StatusFailed means the most recent fetch errored; the held spectrum,
	// if any, is kept for display context.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusFresh:
		return "fresh"
	case StatusStale:
		return "stale"
	case StatusFailed:
		return "failed"
	default:
		return "waiting"
	}
}

// Slot is the per-antenna view state: the last good spectrum plus how much
// to trust it.
type Slot struct {
	Antenna  string
	Spectrum *spectra.Spectrum
	Status   Status
	// Age is the time since the held spectrum's capture, updated by
	// AgeTick.
	Age time.Duration
	// Reason describes the most recent failure while Status is
	// StatusFailed.
	Reason  string
	Visible bool
}

// HasData reports whether the slot holds anything plottable.
func (s Slot) HasData() bool {
	return s.Spectrum != nil
}

// Buffer pairs the ordered watch list with one slot per antenna. It is owned
// by the UI event loop: every mutation happens on that single goroutine, so
// the buffer carries no lock. Fetch results reach it as loop events, never
// directly from fetch goroutines.
type Buffer struct {
	order      []string
	slots      map[string]*Slot
	staleAfter time.Duration
}

// New builds an empty buffer. Slots turn stale when their spectrum's age
// exceeds staleAfter.
func New(staleAfter time.Duration) *Buffer {
	return &Buffer{slots: make(map[string]*Slot), staleAfter: staleAfter}
}

// SetStaleAfter adjusts the staleness window, e.g. after a delay change.
func (b *Buffer) SetStaleAfter(d time.Duration) {
	b.staleAfter = d
}

// Add registers an antenna at the end of the display order. Adding a watched
// antenna again is a no-op.
func (b *Buffer) Add(antenna string) bool {
	if _, ok := b.slots[antenna]; ok {
		return false
	}
	b.order = append(b.order, antenna)
	b.slots[antenna] = &Slot{Antenna: antenna, Status: StatusWaiting, Visible: true}
	return true
}

// Remove drops an antenna and its slot together, keeping the watch list and
// the slot set in lockstep.
func (b *Buffer) Remove(antenna string) bool {
	if _, ok := b.slots[antenna]; !ok {
		return false
	}
	delete(b.slots, antenna)
	for i, name := range b.order {
		if name == antenna {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	return true
}

// Watched returns the display-ordered watch list.
func (b *Buffer) Watched() []string {
	out := make([]string, len(b.order))
	copy(out, b.order)
	return out
}

// Len reports the number of watched antennas.
func (b *Buffer) Len() int {
	return len(b.order)
}

// ToggleVisible flips whether the antenna's panel is drawn.
func (b *Buffer) ToggleVisible(antenna string) {
	if slot, ok := b.slots[antenna]; ok {
		slot.Visible = !slot.Visible
	}
}

// Apply records one fetch outcome. A failure only marks the slot failed; it
// never discards the last good spectrum. A success replaces the held
// spectrum only when strictly newer by capture timestamp, so late results
// from a slow earlier cycle cannot clobber fresher data.
func (b *Buffer) Apply(antenna string, spec *spectra.Spectrum, err error) {
	slot, ok := b.slots[antenna]
	if !ok {
		// Antenna was removed while the fetch was in flight.
		return
	}

	if err != nil {
		slot.Status = StatusFailed
		slot.Reason = source.Reason(err)
		return
	}

	if slot.Spectrum != nil && !spec.Captured.After(slot.Spectrum.Captured) {
		// Superseded: a newer capture already landed.
		return
	}
	slot.Spectrum = spec
	slot.Status = StatusFresh
	slot.Age = 0
	slot.Reason = ""
}

// AgeTick recomputes ages and the Fresh/Stale split against now. Failed and
// waiting slots keep their status; staleness is purely a property of how old
// the last good capture is.
func (b *Buffer) AgeTick(now time.Time) {
	for _, slot := range b.slots {
		if slot.Spectrum == nil {
			continue
		}
		slot.Age = now.Sub(slot.Spectrum.Captured)
		if slot.Status == StatusFailed {
			continue
		}
		if slot.Age > b.staleAfter {
			slot.Status = StatusStale
		} else {
			slot.Status = StatusFresh
		}
	}
}

// Snapshot is an immutable copy handed to the renderer.
type Snapshot struct {
	Slots []Slot
}

// Snapshot copies the slots in display order. Spectra are shared by pointer;
// they are immutable once built.
func (b *Buffer) Snapshot() Snapshot {
	out := Snapshot{Slots: make([]Slot, 0, len(b.order))}
	for _, name := range b.order {
		out.Slots = append(out.Slots, *b.slots[name])
	}
	return out
}

// Slot returns a copy of one antenna's slot.
func (b *Buffer) Slot(antenna string) (Slot, error) {
	slot, ok := b.slots[antenna]
	if !ok {
		return Slot{}, fmt.Errorf("antenna %q is not watched", antenna)
	}
	return *slot, nil
}
