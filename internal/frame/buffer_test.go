package frame

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"spectui/internal/source"
	"spectui/internal/spectra"
)

func mustSpectrum(t *testing.T, antenna string, captured time.Time) *spectra.Spectrum {
	t.Helper()
	spec, err := spectra.New(antenna, []float64{1, 2, 3}, []float64{10, 20, 30}, captured)
	require.NoError(t, err)
	return spec
}

func TestAddRemoveKeepsOrderAndSlotsInLockstep(t *testing.T) {
	b := New(time.Minute)

	require.True(t, b.Add("LWA-124"))
	require.True(t, b.Add("LWA-250"))
	require.False(t, b.Add("LWA-124"), "re-adding a watched antenna must be a no-op")
	require.Equal(t, []string{"LWA-124", "LWA-250"}, b.Watched())

	require.True(t, b.Remove("LWA-124"))
	require.False(t, b.Remove("LWA-124"))
	require.Equal(t, []string{"LWA-250"}, b.Watched())
	_, err := b.Slot("LWA-124")
	require.Error(t, err)

	// Round trip: removing and re-adding yields a clean waiting slot.
	require.True(t, b.Add("LWA-124"))
	slot, err := b.Slot("LWA-124")
	require.NoError(t, err)
	require.Equal(t, StatusWaiting, slot.Status)
	require.False(t, slot.HasData())
	require.True(t, slot.Visible)
}

func TestSlotNeverFreshBeforeFirstSuccess(t *testing.T) {
	b := New(time.Minute)
	b.Add("LWA-124")

	b.Apply("LWA-124", nil, errors.New("connection refused"))
	slot, _ := b.Slot("LWA-124")
	require.Equal(t, StatusFailed, slot.Status)
	require.False(t, slot.HasData())
	require.Equal(t, "connection refused", slot.Reason)

	b.AgeTick(time.Now())
	slot, _ = b.Slot("LWA-124")
	require.Equal(t, StatusFailed, slot.Status, "aging must not invent data")
}

func TestFailureKeepsLastGoodSpectrum(t *testing.T) {
	b := New(time.Minute)
	b.Add("LWA-124")

	captured := time.Now()
	b.Apply("LWA-124", mustSpectrum(t, "LWA-124", captured), nil)
	b.Apply("LWA-124", nil, source.ErrTimeout)

	slot, _ := b.Slot("LWA-124")
	require.Equal(t, StatusFailed, slot.Status)
	require.True(t, slot.HasData(), "a failure must never discard the last good spectrum")
	require.Equal(t, captured, slot.Spectrum.Captured)
	require.Equal(t, "timed out", slot.Reason)

	// The next success clears the failure.
	b.Apply("LWA-124", mustSpectrum(t, "LWA-124", captured.Add(time.Second)), nil)
	slot, _ = b.Slot("LWA-124")
	require.Equal(t, StatusFresh, slot.Status)
	require.Empty(t, slot.Reason)
}

func TestOutOfOrderCompletionsNewerCaptureWins(t *testing.T) {
	b := New(time.Minute)
	b.Add("LWA-124")

	early := time.Now()
	late := early.Add(30 * time.Second)

	// The later capture lands first; the slow earlier fetch must not
	// clobber it.
	b.Apply("LWA-124", mustSpectrum(t, "LWA-124", late), nil)
	b.Apply("LWA-124", mustSpectrum(t, "LWA-124", early), nil)

	slot, _ := b.Slot("LWA-124")
	require.Equal(t, late, slot.Spectrum.Captured)

	// Equal timestamps do not replace either.
	b.Apply("LWA-124", mustSpectrum(t, "LWA-124", late), nil)
	slot, _ = b.Slot("LWA-124")
	require.Equal(t, late, slot.Spectrum.Captured)
}

func TestApplyForRemovedAntennaIsIgnored(t *testing.T) {
	b := New(time.Minute)
	b.Add("LWA-124")
	b.Remove("LWA-124")

	b.Apply("LWA-124", mustSpectrum(t, "LWA-124", time.Now()), nil)
	require.Zero(t, b.Len())
}

func TestAgeTickFreshToStaleAndBack(t *testing.T) {
	b := New(time.Minute)
	b.Add("LWA-124")

	captured := time.Now()
	b.Apply("LWA-124", mustSpectrum(t, "LWA-124", captured), nil)

	b.AgeTick(captured.Add(30 * time.Second))
	slot, _ := b.Slot("LWA-124")
	require.Equal(t, StatusFresh, slot.Status)
	require.Equal(t, 30*time.Second, slot.Age)

	b.AgeTick(captured.Add(2 * time.Minute))
	slot, _ = b.Slot("LWA-124")
	require.Equal(t, StatusStale, slot.Status)

	// A new capture inside the window brings the slot back to fresh.
	b.Apply("LWA-124", mustSpectrum(t, "LWA-124", captured.Add(2*time.Minute)), nil)
	b.AgeTick(captured.Add(2*time.Minute + time.Second))
	slot, _ = b.Slot("LWA-124")
	require.Equal(t, StatusFresh, slot.Status)
}

func TestSetStaleAfterWidensTheWindow(t *testing.T) {
	b := New(time.Minute)
	b.Add("LWA-124")

	captured := time.Now()
	b.Apply("LWA-124", mustSpectrum(t, "LWA-124", captured), nil)

	b.AgeTick(captured.Add(90 * time.Second))
	slot, _ := b.Slot("LWA-124")
	require.Equal(t, StatusStale, slot.Status)

	b.SetStaleAfter(3 * time.Minute)
	b.AgeTick(captured.Add(90 * time.Second))
	slot, _ = b.Slot("LWA-124")
	require.Equal(t, StatusFresh, slot.Status)
}

func TestSnapshotIsOrderedAndDetached(t *testing.T) {
	b := New(time.Minute)
	b.Add("LWA-001")
	b.Add("LWA-002")
	b.Apply("LWA-002", mustSpectrum(t, "LWA-002", time.Now()), nil)

	snap := b.Snapshot()
	require.Len(t, snap.Slots, 2)
	require.Equal(t, "LWA-001", snap.Slots[0].Antenna)
	require.Equal(t, "LWA-002", snap.Slots[1].Antenna)

	// Mutating the buffer afterwards must not change the copy.
	b.Apply("LWA-001", nil, errors.New("boom"))
	require.Equal(t, StatusWaiting, snap.Slots[0].Status)
}

func TestToggleVisible(t *testing.T) {
	b := New(time.Minute)
	b.Add("LWA-124")

	b.ToggleVisible("LWA-124")
	slot, _ := b.Slot("LWA-124")
	require.False(t, slot.Visible)

	b.ToggleVisible("LWA-124")
	slot, _ = b.Slot("LWA-124")
	require.True(t, slot.Visible)
}
