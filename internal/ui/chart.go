package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Braille cells pack 2x4 dots, giving the plot twice the horizontal and four
// times the vertical resolution of the character grid.
const (
	brailleBase  = 0x2800
	dotsPerCol   = 2
	dotsPerRow   = 4
	yLabelWidth  = 9
	xAxisHeight  = 1
	minPlotCells = 4
)

// brailleDot[x][y] is the bit for dot (x, y) inside one cell.
var brailleDot = [dotsPerCol][dotsPerRow]rune{
	{0x01, 0x02, 0x04, 0x40},
	{0x08, 0x10, 0x20, 0x80},
}

// renderChart draws one spectrum trace as a braille line plot with a left
// y-axis and a bottom x-axis, fitting exactly width x height terminal cells.
// The mapping is deterministic: equal inputs render equal frames.
func renderChart(freqs, vals []float64, width, height int, yMin, yMax float64) string {
	plotW := width - yLabelWidth
	plotH := height - xAxisHeight
	if plotW < minPlotCells || plotH < 1 || len(vals) == 0 {
		return truncatePad("(too small)", width)
	}

	if yMax <= yMin {
		yMax = yMin + 1
	}

	canvas := plotBraille(vals, plotW, plotH, yMin, yMax)

	var b strings.Builder
	for row := 0; row < plotH; row++ {
		label := ""
		switch row {
		case 0:
			label = axisLabel(yMax)
		case plotH - 1:
			label = axisLabel(yMin)
		case plotH / 2:
			label = axisLabel((yMin + yMax) / 2)
		}
		fmt.Fprintf(&b, "%*s┤", yLabelWidth-1, label)
		b.WriteString(string(canvas[row]))
		b.WriteByte('\n')
	}

	b.WriteString(xAxis(freqs, plotW))
	return b.String()
}

// plotBraille rasterizes the trace onto a cells grid. Consecutive samples
// are joined vertically so steep slopes stay connected.
func plotBraille(vals []float64, cells, rows int, yMin, yMax float64) [][]rune {
	canvas := make([][]rune, rows)
	for i := range canvas {
		canvas[i] = make([]rune, cells)
		for j := range canvas[i] {
			canvas[i][j] = brailleBase
		}
	}

	subW := cells * dotsPerCol
	subH := rows * dotsPerRow

	toSubY := func(v float64) int {
		frac := (v - yMin) / (yMax - yMin)
		if math.IsNaN(frac) {
			frac = 0
		}
		frac = math.Min(1, math.Max(0, frac))
		y := int(math.Round(frac * float64(subH-1)))
		return subH - 1 - y
	}

	prevY := -1
	for sx := 0; sx < subW; sx++ {
		idx := sx * (len(vals) - 1) / max(subW-1, 1)
		y := toSubY(vals[idx])

		lo, hi := y, y
		if prevY >= 0 {
			// Bridge the vertical gap to the previous column.
			if prevY < y {
				lo = prevY + 1
			} else if prevY > y {
				hi = prevY - 1
			}
		}
		for yy := lo; yy <= hi; yy++ {
			setDot(canvas, sx, yy)
		}
		prevY = y
	}
	return canvas
}

func setDot(canvas [][]rune, sx, sy int) {
	row := sy / dotsPerRow
	col := sx / dotsPerCol
	if row < 0 || row >= len(canvas) || col < 0 || col >= len(canvas[row]) {
		return
	}
	canvas[row][col] |= brailleDot[sx%dotsPerCol][sy%dotsPerRow]
}

// xAxis renders the frequency scale under the plot.
func xAxis(freqs []float64, plotW int) string {
	lo := axisLabel(freqs[0])
	hi := axisLabel(freqs[len(freqs)-1])
	mid := axisLabel(freqs[len(freqs)/2])

	line := strings.Repeat(" ", yLabelWidth-1) + "└"
	gap := plotW - len(lo) - len(mid) - len(hi)
	if gap < 2 {
		return truncatePad(line+lo, yLabelWidth+plotW)
	}
	left := gap / 2
	return line + lo + strings.Repeat("─", left) + mid + strings.Repeat("─", gap-left) + hi
}

func axisLabel(v float64) string {
	switch {
	case math.Abs(v) >= 1000:
		return fmt.Sprintf("%.0f", v)
	case math.Abs(v) >= 10:
		return fmt.Sprintf("%.1f", v)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}

// truncatePad fits s to width terminal cells. Width is measured in display
// columns, not bytes or runes, so styled strings keep their escape sequences
// intact and are cut on the visible text only.
func truncatePad(s string, width int) string {
	w := ansi.StringWidth(s)
	if w > width {
		return ansi.Truncate(s, width, "")
	}
	return s + strings.Repeat(" ", width-w)
}
