package spectra

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"
)

func writeDump(t *testing.T, m *mat.Dense) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rfi.npy")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create dump: %v", err)
	}
	defer f.Close()
	if err := npyio.Write(f, m); err != nil {
		t.Fatalf("write dump: %v", err)
	}
	return path
}

func TestLoadMonitorDump(t *testing.T) {
	// Four live rows over 8 channels.
	m := mat.NewDense(4, 8, nil)
	for r := 0; r < 4; r++ {
		for c := 0; c < 8; c++ {
			m.Set(r, c, float64(r+1)*10+float64(c))
		}
	}
	path := writeDump(t, m)

	specs, err := LoadMonitorDump(path, 2)
	if err != nil {
		t.Fatalf("LoadMonitorDump: %v", err)
	}
	if len(specs) != 4 {
		t.Fatalf("got %d spectra, want 4", len(specs))
	}

	wantNames := []string{"0A", "0B", "1A", "1B"}
	for i, spec := range specs {
		if spec.Antenna != wantNames[i] {
			t.Errorf("spec %d named %q, want %q", i, spec.Antenna, wantNames[i])
		}
		if len(spec.Freqs) != 8 || spec.Freqs[0] != 0 || spec.Freqs[7] != 98.3 {
			t.Errorf("spec %d axis = [%v..%v] x%d", i, spec.Freqs[0], spec.Freqs[len(spec.Freqs)-1], len(spec.Freqs))
		}
	}
	if specs[2].Power[3] != 33 {
		t.Errorf("power[3] of row 2 = %v, want 33", specs[2].Power[3])
	}
}

func TestLoadMonitorDumpSkipsDeadRows(t *testing.T) {
	m := mat.NewDense(4, 4, nil)
	// Row 0: all NaN. Row 1: all zero. Rows 2 and 3 live.
	for c := 0; c < 4; c++ {
		m.Set(0, c, math.NaN())
		m.Set(2, c, 5)
		m.Set(3, c, 7)
	}
	path := writeDump(t, m)

	specs, err := LoadMonitorDump(path, 4)
	if err != nil {
		t.Fatalf("LoadMonitorDump: %v", err)
	}
	if len(specs) != 2 {
		t.Fatalf("got %d spectra, want 2 live rows", len(specs))
	}
	// Live rows are renumbered contiguously.
	if specs[0].Antenna != "0A" || specs[1].Antenna != "0B" {
		t.Errorf("names = %q, %q", specs[0].Antenna, specs[1].Antenna)
	}
}

func TestLoadMonitorDumpHonorsNSpectra(t *testing.T) {
	m := mat.NewDense(10, 4, nil)
	for r := 0; r < 10; r++ {
		for c := 0; c < 4; c++ {
			m.Set(r, c, 1)
		}
	}
	path := writeDump(t, m)

	specs, err := LoadMonitorDump(path, 2)
	if err != nil {
		t.Fatalf("LoadMonitorDump: %v", err)
	}
	if len(specs) != 4 {
		t.Errorf("got %d spectra, want 2 stands x 2 pols", len(specs))
	}
}

func TestLoadMonitorDumpErrors(t *testing.T) {
	if _, err := LoadMonitorDump(filepath.Join(t.TempDir(), "missing.npy"), 1); err == nil {
		t.Error("missing file accepted")
	}

	m := mat.NewDense(2, 3, nil) // all zeros, every row dead
	path := writeDump(t, m)
	if _, err := LoadMonitorDump(path, 1); err == nil {
		t.Error("dump with no usable rows accepted")
	}

	bad := filepath.Join(t.TempDir(), "bad.npy")
	if err := os.WriteFile(bad, []byte("not numpy"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadMonitorDump(bad, 1); err == nil {
		t.Error("garbage file accepted")
	}
}
