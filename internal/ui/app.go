// Package ui drives the terminal viewer. The Bubble Tea runtime supplies the
// single ordered event stream the viewer needs: poll timer ticks, fetch
// completions, and key/resize events all arrive as messages consumed by one
// Update loop, so no component ever blocks on a single antenna's fetch.
package ui

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"

	"spectui/internal/frame"
	"spectui/internal/poll"
)

// Mode is the input mode the key router is in.
type Mode int

const (
	ModeNormal Mode = iota
	ModeAddAntenna
	ModeRemoveAntenna
	ModeYLimits
	ModeHelp
)

const (
	delayStep = 5 * time.Second
	minDelay  = 5 * time.Second
	ageEvery  = time.Second
)

// Options configures the viewer.
type Options struct {
	Context context.Context
	// Scheduler is nil in static (file) mode.
	Scheduler *poll.Scheduler
	Buffer    *frame.Buffer
	Title     string
	Delay     time.Duration
	// StaleFactor scales Delay into the staleness window.
	StaleFactor int
	Theme       Theme
	Static      bool
}

// Model is the root application state machine.
type Model struct {
	ctx    context.Context
	sched  *poll.Scheduler
	buffer *frame.Buffer

	keys   keyMap
	theme  Theme
	styles Styles
	title  string

	delay       time.Duration
	staleFactor int
	paused      bool
	static      bool
	// tickGen invalidates armed poll timers after pause/resume or a delay
	// change; a tick from an older generation is ignored.
	tickGen int

	mode     Mode
	selected int
	zoomed   bool
	logScale bool
	// Y limits are stored in linear power units and converted for
	// display, so toggling the scale keeps the same physical window.
	yMin, yMax *float64

	nameInput textinput.Model
	limInputs [2]textinput.Model
	limFocus  int
	removeIdx int

	width, height int
	ready         bool
}

// New builds the model around an already-seeded frame buffer.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	theme := opts.Theme
	if theme.Name == "" {
		theme = DefaultTheme()
	}
	staleFactor := opts.StaleFactor
	if staleFactor <= 0 {
		staleFactor = 3
	}

	name := textinput.New()
	name.Placeholder = "LWA-250"
	name.CharLimit = 32
	name.Width = 24

	var lims [2]textinput.Model
	for i := range lims {
		lims[i] = textinput.New()
		lims[i].Placeholder = "auto"
		lims[i].CharLimit = 12
		lims[i].Width = 10
	}

	return Model{
		ctx:         ctx,
		sched:       opts.Scheduler,
		buffer:      opts.Buffer,
		keys:        defaultKeyMap(),
		theme:       theme,
		styles:      theme.Styles(),
		title:       opts.Title,
		delay:       opts.Delay,
		staleFactor: staleFactor,
		static:      opts.Static,
		logScale:    true,
		nameInput:   name,
		limInputs:   lims,
	}
}

// Messages.

type pollTickMsg struct{ gen int }

type ageTickMsg time.Time

type resultMsg poll.Result

// Commands.

func pollTickCmd(d time.Duration, gen int) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return pollTickMsg{gen: gen}
	})
}

func pollNowCmd(gen int) tea.Cmd {
	return func() tea.Msg {
		return pollTickMsg{gen: gen}
	}
}

func ageTickCmd() tea.Cmd {
	return tea.Tick(ageEvery, func(t time.Time) tea.Msg {
		return ageTickMsg(t)
	})
}

// waitForResult blocks (on the command goroutine, never the loop) until the
// scheduler delivers a completion, then feeds it into the event stream.
func waitForResult(ch <-chan poll.Result) tea.Cmd {
	return func() tea.Msg {
		return resultMsg(<-ch)
	}
}

// Init implements tea.Model: arm the age timer and, in live mode, fire the
// first poll immediately.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{ageTickCmd()}
	if !m.static {
		cmds = append(cmds, pollNowCmd(m.tickGen), waitForResult(m.sched.Results()))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		return m, nil

	case pollTickMsg:
		return m.handlePollTick(msg)

	case resultMsg:
		m.buffer.Apply(msg.Antenna, msg.Spectrum, msg.Err)
		// Keep draining the scheduler.
		return m, waitForResult(m.sched.Results())

	case ageTickMsg:
		m.buffer.AgeTick(time.Time(msg))
		return m, ageTickCmd()
	}

	return m, nil
}

// handlePollTick issues one round of fetches and re-arms the timer. Ticks
// from a cancelled timer generation and ticks while paused are dropped.
func (m Model) handlePollTick(msg pollTickMsg) (tea.Model, tea.Cmd) {
	if m.static || msg.gen != m.tickGen || m.paused {
		return m, nil
	}
	launched := m.sched.Tick(m.ctx, m.buffer.Watched())
	log.WithField("launched", launched).Trace("poll tick")
	return m, pollTickCmd(m.delay, m.tickGen)
}

// staleAfter is the configured staleness window.
func (m Model) staleAfter() time.Duration {
	return time.Duration(m.staleFactor) * m.delay
}

// handleKey routes input by mode. Unrecognized keys are ignored.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case ModeAddAntenna:
		return m.handleAddKey(msg)
	case ModeRemoveAntenna:
		return m.handleRemoveKey(msg)
	case ModeYLimits:
		return m.handleLimitsKey(msg)
	case ModeHelp:
		m.mode = ModeNormal
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit), key.Matches(msg, m.keys.Escape):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Pause):
		if m.static {
			return m, nil
		}
		m.tickGen++
		m.paused = !m.paused
		if m.paused {
			log.Info("polling paused")
			return m, nil
		}
		log.Info("polling resumed")
		return m, pollNowCmd(m.tickGen)

	case key.Matches(msg, m.keys.SlowerPoll):
		return m.changeDelay(delayStep)

	case key.Matches(msg, m.keys.FasterPoll):
		return m.changeDelay(-delayStep)

	case key.Matches(msg, m.keys.AddAntenna):
		if m.static {
			return m, nil
		}
		m.mode = ModeAddAntenna
		m.nameInput.SetValue("")
		return m, m.nameInput.Focus()

	case key.Matches(msg, m.keys.RemoveAntenna):
		if m.static || m.buffer.Len() == 0 {
			return m, nil
		}
		m.mode = ModeRemoveAntenna
		m.removeIdx = 0
		return m, nil

	case key.Matches(msg, m.keys.YLimits):
		m.mode = ModeYLimits
		m.limFocus = 0
		m.seedLimitInputs()
		return m, m.limInputs[0].Focus()

	case key.Matches(msg, m.keys.ToggleLog):
		m.logScale = !m.logScale
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.moveSelection(-1)
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.moveSelection(1)
		return m, nil

	case key.Matches(msg, m.keys.ToggleHide):
		if ant, ok := m.selectedAntenna(); ok {
			m.buffer.ToggleVisible(ant)
		}
		return m, nil

	case key.Matches(msg, m.keys.Zoom):
		if m.buffer.Len() > 0 {
			m.zoomed = !m.zoomed
		}
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.mode = ModeHelp
		return m, nil
	}

	return m, nil
}

func (m Model) changeDelay(delta time.Duration) (tea.Model, tea.Cmd) {
	if m.static {
		return m, nil
	}
	next := m.delay + delta
	if next < minDelay {
		next = minDelay
	}
	if next == m.delay {
		return m, nil
	}
	m.delay = next
	m.buffer.SetStaleAfter(m.staleAfter())
	m.tickGen++
	log.WithField("delay", m.delay).Info("poll delay changed")
	if m.paused {
		return m, nil
	}
	return m, pollTickCmd(m.delay, m.tickGen)
}

func (m Model) handleAddKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = ModeNormal
		return m, nil
	case "enter":
		name := strings.TrimSpace(m.nameInput.Value())
		m.mode = ModeNormal
		if name == "" {
			return m, nil
		}
		// Names are exact-match keys; no case folding.
		if !m.buffer.Add(name) {
			return m, nil
		}
		log.WithField("antenna", name).Info("antenna added")
		if !m.paused && !m.static {
			m.tickGen++
			return m, pollNowCmd(m.tickGen)
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.nameInput, cmd = m.nameInput.Update(msg)
	return m, cmd
}

func (m Model) handleRemoveKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	watched := m.buffer.Watched()
	switch msg.String() {
	case "esc":
		m.mode = ModeNormal
	case "up", "k":
		if m.removeIdx > 0 {
			m.removeIdx--
		}
	case "down", "j":
		if m.removeIdx < len(watched)-1 {
			m.removeIdx++
		}
	case "enter":
		if m.removeIdx < len(watched) {
			name := watched[m.removeIdx]
			m.buffer.Remove(name)
			log.WithField("antenna", name).Info("antenna removed")
			m.moveSelection(0)
		}
		m.mode = ModeNormal
	}
	return m, nil
}

func (m Model) handleLimitsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = ModeNormal
		m.limInputs[m.limFocus].Blur()
		return m, nil
	case "tab":
		m.limInputs[m.limFocus].Blur()
		m.limFocus = (m.limFocus + 1) % 2
		return m, m.limInputs[m.limFocus].Focus()
	case "enter":
		m.applyLimits()
		m.mode = ModeNormal
		m.limInputs[m.limFocus].Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.limInputs[m.limFocus], cmd = m.limInputs[m.limFocus].Update(msg)
	return m, cmd
}

// seedLimitInputs shows the current override, if any, in display units.
func (m *Model) seedLimitInputs() {
	for i, lim := range []*float64{m.yMin, m.yMax} {
		m.limInputs[i].SetValue("")
		if lim != nil {
			m.limInputs[i].SetValue(axisLabel(m.displayLimit(*lim)))
		}
	}
}

// applyLimits parses the popup fields. "auto" or an empty or unparsable
// field clears that bound. Values are entered in the current display scale
// and stored linear.
func (m *Model) applyLimits() {
	parse := func(raw string) *float64 {
		raw = strings.TrimSpace(strings.ToLower(raw))
		if raw == "" || raw == "auto" {
			return nil
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil
		}
		if m.logScale {
			v = math.Pow(10, v/10)
		}
		return &v
	}
	m.yMin = parse(m.limInputs[0].Value())
	m.yMax = parse(m.limInputs[1].Value())
	if m.yMin != nil && m.yMax != nil && *m.yMin > *m.yMax {
		log.Info("y-min above y-max, swapping")
		m.yMin, m.yMax = m.yMax, m.yMin
	}
}

// displayLimit converts a stored linear limit into the current scale.
func (m Model) displayLimit(v float64) float64 {
	if m.logScale {
		return 10 * math.Log10(v)
	}
	return v
}

func (m *Model) moveSelection(delta int) {
	n := m.buffer.Len()
	if n == 0 {
		m.selected = 0
		m.zoomed = false
		return
	}
	m.selected += delta
	if m.selected < 0 {
		m.selected = 0
	}
	if m.selected >= n {
		m.selected = n - 1
	}
}

func (m Model) selectedAntenna() (string, bool) {
	watched := m.buffer.Watched()
	if m.selected >= len(watched) {
		return "", false
	}
	return watched[m.selected], true
}

// Run starts the viewer and blocks until quit.
func Run(opts Options) error {
	p := tea.NewProgram(New(opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
