package ui

import (
	"strings"
	"testing"

	"spectui/internal/spectra"
)

func TestRenderChartDimensions(t *testing.T) {
	freqs := spectra.Linspace(0, 98.3, 256)
	vals := make([]float64, 256)
	for i := range vals {
		vals[i] = float64(i % 40)
	}

	const width, height = 60, 12
	out := renderChart(freqs, vals, width, height, 0, 40)

	lines := strings.Split(out, "\n")
	if len(lines) != height {
		t.Fatalf("got %d lines, want %d", len(lines), height)
	}
	for i, line := range lines {
		if n := len([]rune(line)); n > width {
			t.Errorf("line %d is %d cells wide, max %d", i, n, width)
		}
	}
}

func TestRenderChartIsDeterministic(t *testing.T) {
	freqs := spectra.Linspace(0, 98.3, 128)
	vals := make([]float64, 128)
	for i := range vals {
		vals[i] = float64(i) * 0.5
	}

	a := renderChart(freqs, vals, 50, 10, 0, 64)
	b := renderChart(freqs, vals, 50, 10, 0, 64)
	if a != b {
		t.Error("equal inputs rendered different frames")
	}
}

func TestRenderChartAxisLabels(t *testing.T) {
	freqs := spectra.Linspace(0, 98.3, 64)
	vals := make([]float64, 64)
	for i := range vals {
		vals[i] = 20
	}

	out := renderChart(freqs, vals, 60, 10, -10, 30)
	lines := strings.Split(out, "\n")

	if !strings.Contains(lines[0], "30.0") {
		t.Errorf("top line missing y max: %q", lines[0])
	}
	if !strings.Contains(lines[len(lines)-2], "-10.0") {
		t.Errorf("bottom plot line missing y min: %q", lines[len(lines)-2])
	}
	axis := lines[len(lines)-1]
	if !strings.Contains(axis, "0.00") || !strings.Contains(axis, "98.3") {
		t.Errorf("x axis missing frequency bounds: %q", axis)
	}
}

func TestRenderChartDrawsSomething(t *testing.T) {
	freqs := spectra.Linspace(0, 98.3, 32)
	vals := make([]float64, 32)
	for i := range vals {
		vals[i] = float64(i)
	}

	out := renderChart(freqs, vals, 50, 10, 0, 31)
	dots := 0
	for _, r := range out {
		if r > brailleBase && r <= brailleBase+0xFF {
			dots++
		}
	}
	if dots == 0 {
		t.Error("no braille cells set")
	}
}

func TestRenderChartTooSmall(t *testing.T) {
	out := renderChart([]float64{1}, []float64{1}, 10, 2, 0, 1)
	if !strings.Contains(out, "too small") {
		t.Errorf("got %q", out)
	}
}

func TestRenderChartDegenerateRange(t *testing.T) {
	freqs := spectra.Linspace(0, 1, 16)
	vals := make([]float64, 16)

	// yMax == yMin must not divide by zero.
	out := renderChart(freqs, vals, 40, 8, 5, 5)
	if out == "" {
		t.Error("empty render")
	}
}
