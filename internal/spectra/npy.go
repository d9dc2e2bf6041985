package spectra

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"
)

// monitorFreqMaxMHz is the top of the band covered by RFIMonitor dumps. The
// dump stores no frequency axis, only power rows, so the axis is synthesized.
const monitorFreqMaxMHz = 98.3

// LoadMonitorDump reads an RFIMonitor .npy save file and returns up to
// 2*nspectra spectra, one per polarization, named "0A", "0B", "1A", ...
// Rows that are entirely NaN or non-positive are dropped; the monitor pads
// its output array with them.
func LoadMonitorDump(path string, nspectra int) ([]*Spectrum, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var m mat.Dense
	if err := npyio.Read(f, &m); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	rows, cols := m.Dims()
	if cols == 0 {
		return nil, fmt.Errorf("decode %s: empty array", path)
	}

	freqs := Linspace(0, monitorFreqMaxMHz, cols)
	captured := time.Now()
	if st, err := f.Stat(); err == nil {
		captured = st.ModTime()
	}

	want := 2 * nspectra
	out := make([]*Spectrum, 0, want)
	for i := 0; i < rows && len(out) < want; i++ {
		row := mat.Row(nil, i, &m)
		if deadRow(row) {
			continue
		}
		name := fmt.Sprintf("%d%s", len(out)/2, polSuffix(len(out)))
		spec, err := New(name, freqs, row, captured)
		if err != nil {
			return nil, err
		}
		out = append(out, spec)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: no usable spectra in %d rows", path, rows)
	}
	return out, nil
}

func polSuffix(idx int) string {
	if idx%2 == 0 {
		return "A"
	}
	return "B"
}

func deadRow(row []float64) bool {
	for _, v := range row {
		if !math.IsNaN(v) && v > 0 {
			return false
		}
	}
	return true
}
