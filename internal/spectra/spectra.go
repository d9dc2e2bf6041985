// Package spectra defines the autospectrum data model shared by every
// backend and by the UI.
package spectra

import (
	"fmt"
	"math"
	"time"
)

// Spectrum is one antenna autospectrum: parallel frequency (MHz) and linear
// power arrays captured at a single instant. A Spectrum is never mutated
// after construction; newer captures replace it wholesale.
type Spectrum struct {
	Antenna  string
	Freqs    []float64
	Power    []float64
	Captured time.Time
}

// New builds a Spectrum after checking the axes line up.
func New(antenna string, freqs, power []float64, captured time.Time) (*Spectrum, error) {
	if len(freqs) != len(power) {
		return nil, fmt.Errorf("spectrum for %s: %d frequency bins but %d power samples", antenna, len(freqs), len(power))
	}
	if len(freqs) == 0 {
		return nil, fmt.Errorf("spectrum for %s: empty", antenna)
	}
	return &Spectrum{Antenna: antenna, Freqs: freqs, Power: power, Captured: captured}, nil
}

// FreqBounds returns the first and last frequency of the spectrum.
func (s *Spectrum) FreqBounds() (min, max float64) {
	return s.Freqs[0], s.Freqs[len(s.Freqs)-1]
}

// Values returns the plottable samples, in dB (10*log10) when log is set.
// Non-finite results collapse to the smallest finite sample so a single dead
// channel does not blow up the autoscale.
func (s *Spectrum) Values(log bool) []float64 {
	if !log {
		out := make([]float64, len(s.Power))
		copy(out, s.Power)
		return out
	}
	out := make([]float64, len(s.Power))
	floor := math.Inf(1)
	for i, p := range s.Power {
		v := 10 * math.Log10(p)
		out[i] = v
		if !math.IsInf(v, 0) && !math.IsNaN(v) && v < floor {
			floor = v
		}
	}
	if math.IsInf(floor, 1) {
		floor = 0
	}
	for i, v := range out {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			out[i] = floor
		}
	}
	return out
}

// Bounds returns the min and max of the plottable samples.
func (s *Spectrum) Bounds(log bool) (min, max float64) {
	vals := s.Values(log)
	min, max = vals[0], vals[0]
	for _, v := range vals[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

// Linspace fills count evenly spaced values over [start, stop], endpoints
// included. The correlator reports 4096 channels across 0-98.3 MHz.
func Linspace(start, stop float64, count int) []float64 {
	if count == 1 {
		return []float64{start}
	}
	out := make([]float64, count)
	step := (stop - start) / float64(count-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	out[count-1] = stop
	return out
}
