package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"spectui/internal/frame"
)

const (
	headerHeight = 2
	footerHeight = 1
	// Panels below this height drop to a status line only.
	minPanelHeight = 6
)

// View implements tea.Model. It is a pure function of the frame buffer
// snapshot and the transient view state; all terminal writes funnel through
// the string it returns.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	switch m.mode {
	case ModeHelp:
		return m.renderHelpModal()
	case ModeAddAntenna:
		return m.renderModal("Enter antenna name", m.nameInput.View(), "enter: add · esc: cancel")
	case ModeRemoveAntenna:
		return m.renderRemoveModal()
	case ModeYLimits:
		return m.renderLimitsModal()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderPanels())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderHeader() string {
	title := m.styles.Title.Render("Spectrum TUI")
	if m.title != "" {
		title += m.styles.Muted.Render(" · " + m.title)
	}

	var status []string
	if m.static {
		status = append(status, "static view")
	} else {
		status = append(status, fmt.Sprintf("delay %s", m.delay))
		if m.paused {
			status = append(status, m.styles.WarnText.Render("PAUSED"))
		}
	}
	if m.logScale {
		status = append(status, "dB")
	} else {
		status = append(status, "linear")
	}
	status = append(status, fmt.Sprintf("%d antennas", m.buffer.Len()))

	line := title + "  " + m.styles.Status.Render(strings.Join(status, " · "))
	return truncatePad(line, m.width)
}

func (m Model) renderFooter() string {
	var parts []string
	for _, b := range m.keys.helpEntries() {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return m.styles.Help.Render(truncatePad(strings.Join(parts, "  "), m.width))
}

// renderPanels lays the visible antennas out in an adaptive grid: one
// column for a few antennas, more as the watch list grows, without overlap.
func (m Model) renderPanels() string {
	bodyH := m.height - headerHeight - footerHeight
	snap := m.buffer.Snapshot()

	if len(snap.Slots) == 0 {
		empty := m.styles.Muted.Render("No antennas watched. Press n to add one.")
		return lipgloss.Place(m.width, bodyH, lipgloss.Center, lipgloss.Center, empty)
	}

	if m.zoomed {
		if ant, ok := m.selectedAntenna(); ok {
			if slot, err := m.buffer.Slot(ant); err == nil {
				return m.renderPanel(slot, m.width, bodyH, true)
			}
		}
	}

	shown := make([]frame.Slot, 0, len(snap.Slots))
	hidden := 0
	for _, slot := range snap.Slots {
		if slot.Visible {
			shown = append(shown, slot)
		} else {
			hidden++
		}
	}
	if len(shown) == 0 {
		msg := m.styles.Muted.Render(fmt.Sprintf("All %d antennas hidden. Press v to unhide.", hidden))
		return lipgloss.Place(m.width, bodyH, lipgloss.Center, lipgloss.Center, msg)
	}

	cols := gridColumns(len(shown), bodyH)
	rows := (len(shown) + cols - 1) / cols
	panelW := m.width / cols
	panelH := bodyH / rows

	selected, _ := m.selectedAntenna()

	var rendered []string
	for r := 0; r < rows; r++ {
		var rowPanels []string
		for c := 0; c < cols; c++ {
			idx := r*cols + c
			if idx >= len(shown) {
				break
			}
			slot := shown[idx]
			rowPanels = append(rowPanels, m.renderPanel(slot, panelW, panelH, slot.Antenna == selected))
		}
		rendered = append(rendered, lipgloss.JoinHorizontal(lipgloss.Top, rowPanels...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rendered...)
}

// gridColumns balances panel count against vertical room.
func gridColumns(n, bodyH int) int {
	cols := 1
	for cols < 3 && bodyH/((n+cols-1)/cols) < minPanelHeight+2 {
		cols++
	}
	return cols
}

// renderPanel draws one antenna tile: plot, placeholder, or failure notice.
func (m Model) renderPanel(slot frame.Slot, width, height int, focused bool) string {
	style := m.styles.Panel
	if focused {
		style = m.styles.PanelFocus
	}
	style = style.BorderForeground(lipgloss.Color(m.theme.statusColor(slot.Status.String())))

	innerW := width - 2
	innerH := height - 2
	if innerW < 8 || innerH < 1 {
		return ""
	}

	title := m.panelTitle(slot, innerW)
	body := m.panelBody(slot, innerW, innerH-1)

	return style.Width(innerW).Height(innerH).Render(title + "\n" + body)
}

func (m Model) panelTitle(slot frame.Slot, width int) string {
	icon := "○"
	switch slot.Status {
	case frame.StatusFresh:
		icon = m.styles.OkText.Render("●")
	case frame.StatusStale:
		icon = m.styles.WarnText.Render("◐")
	case frame.StatusFailed:
		icon = m.styles.ErrText.Render("✗")
	}
	name := m.styles.PanelTitle.Render(slot.Antenna)
	age := ""
	if slot.HasData() && slot.Age > 0 {
		age = m.styles.Muted.Render(fmt.Sprintf(" %s ago", slot.Age.Round(ageEvery)))
	}
	return truncatePad(fmt.Sprintf("%s %s%s", icon, name, age), width)
}

func (m Model) panelBody(slot frame.Slot, width, height int) string {
	if slot.Status == frame.StatusFailed && !slot.HasData() {
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
			m.styles.ErrText.Render("✗ fetch failed: "+slot.Reason))
	}
	if !slot.HasData() {
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
			m.styles.Muted.Render("awaiting first spectrum…"))
	}

	chartH := height
	var failLine string
	if slot.Status == frame.StatusFailed {
		// Keep plotting the last good data under the failure notice.
		failLine = truncatePad(m.styles.ErrText.Render("last fetch failed: "+slot.Reason), width) + "\n"
		chartH--
	}

	vals := slot.Spectrum.Values(m.logScale)
	yMin, yMax := m.chartBounds(vals)
	chart := renderChart(slot.Spectrum.Freqs, vals, width, chartH, yMin, yMax)
	return failLine + m.styles.Trace.Render(chart)
}

// chartBounds applies the user's y-limit overrides on top of autoscaling.
func (m Model) chartBounds(vals []float64) (float64, float64) {
	yMin, yMax := vals[0], vals[0]
	for _, v := range vals[1:] {
		if v < yMin {
			yMin = v
		}
		if v > yMax {
			yMax = v
		}
	}
	if m.yMin != nil {
		yMin = m.displayLimit(*m.yMin)
	}
	if m.yMax != nil {
		yMax = m.displayLimit(*m.yMax)
	}
	return yMin, yMax
}

func (m Model) renderModal(title, body, hint string) string {
	content := m.styles.ModalTitle.Render(title) + "\n\n" + body + "\n\n" + m.styles.Help.Render(hint)
	modal := m.styles.Modal.Render(content)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
}

func (m Model) renderRemoveModal() string {
	var b strings.Builder
	for i, name := range m.buffer.Watched() {
		cursor := "  "
		style := m.styles.ListItem
		if i == m.removeIdx {
			cursor = "> "
			style = m.styles.ListFocused
		}
		b.WriteString(cursor + style.Render(name) + "\n")
	}
	return m.renderModal("Select antenna to remove", strings.TrimRight(b.String(), "\n"),
		"j/k move · enter: remove · esc: cancel")
}

func (m Model) renderLimitsModal() string {
	unit := "linear"
	if m.logScale {
		unit = "dB"
	}
	body := fmt.Sprintf("Ymin: %s\nYmax: %s", m.limInputs[0].View(), m.limInputs[1].View())
	return m.renderModal(fmt.Sprintf("Set y-limits (%s)", unit), body,
		"tab: switch · enter: apply · esc: cancel · \"auto\" clears")
}

func (m Model) renderHelpModal() string {
	var b strings.Builder
	for _, bind := range []struct{ k, desc string }{
		{"space", "pause/resume polling"},
		{"+ / -", "slower/faster polling"},
		{"n / d", "add/remove antenna"},
		{"↑/↓ j/k", "select antenna"},
		{"v", "hide/show selected"},
		{"enter", "zoom selected"},
		{"l", "toggle dB/linear"},
		{"y", "set y-limits"},
		{"q / esc", "quit"},
	} {
		fmt.Fprintf(&b, "%-10s %s\n", bind.k, bind.desc)
	}
	return m.renderModal("Keys", strings.TrimRight(b.String(), "\n"), "any key to close")
}
