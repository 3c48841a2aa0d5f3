package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/loopkit/internal/autotune"
	"github.com/san-kum/loopkit/internal/control"
	"github.com/san-kum/loopkit/internal/loop"
	"github.com/san-kum/loopkit/internal/metrics"
)

const (
	historyLen  = 240
	maxSpeed    = 64
	gainStep    = 1.1
	framePeriod = 33 * time.Millisecond
)

type Options struct {
	Title string
	// PID, when set, exposes its gains to the p/i/d keys.
	PID *control.PID
	// Calculator, when set, shows the relay estimate and the gains Rule
	// would give.
	Calculator *autotune.Calculator
	Rule       autotune.Rule
	// StepsPerFrame is how many loop ticks run per redraw.
	StepsPerFrame int
}

// Model steps a loop session live and plots setpoint against measurement.
type Model struct {
	opts    Options
	session *loop.Session

	speed  int
	paused bool
	done   bool
	err    error

	last      metrics.Sample
	setpoints []float64
	measured  []float64
	outputs   []float64

	width, height int
}

func New(s *loop.Session, opts Options) Model {
	if opts.StepsPerFrame < 1 {
		opts.StepsPerFrame = 1
	}
	if opts.Title == "" {
		opts.Title = "loopkit"
	}
	return Model{
		opts:    opts,
		session: s,
		speed:   opts.StepsPerFrame,
		width:   80,
		height:  24,
	}
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(framePeriod, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		if m.done {
			return m, nil
		}
		if !m.paused {
			m.advance(m.speed)
		}
		if m.done {
			return m, nil
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) advance(steps int) {
	for i := 0; i < steps && !m.done; i++ {
		s, err := m.session.Step()
		if err != nil {
			m.err = err
			m.done = true
			return
		}
		m.record(s)
		if m.session.Done() {
			m.done = true
		}
	}
}

func (m *Model) record(s metrics.Sample) {
	m.last = s
	m.setpoints = pushBounded(m.setpoints, s.Setpoint)
	m.measured = pushBounded(m.measured, s.Measurement)
	m.outputs = pushBounded(m.outputs, s.Output)
}

func pushBounded(xs []float64, v float64) []float64 {
	xs = append(xs, v)
	if len(xs) > historyLen {
		xs = xs[len(xs)-historyLen:]
	}
	return xs
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case " ":
		m.paused = !m.paused
	case "n":
		if m.paused {
			m.advance(1)
		}
	case "+", "=":
		if m.speed < maxSpeed {
			m.speed *= 2
		}
	case "-", "_":
		if m.speed > 1 {
			m.speed /= 2
		}
	case "p", "P", "i", "I", "d", "D":
		m.nudgeGain(msg.String())
	}
	return m, nil
}

func (m Model) nudgeGain(key string) {
	if m.opts.PID == nil {
		return
	}
	factor := gainStep
	if strings.ToLower(key) == key {
		factor = 1 / gainStep
	}
	kp, ki, kd := m.opts.PID.Gains()
	switch strings.ToLower(key) {
	case "p":
		kp *= factor
	case "i":
		ki *= factor
	case "d":
		kd *= factor
	}
	m.opts.PID.SetGains(kp, ki, kd)
}

// Done reports whether the session has finished or failed.
func (m Model) Done() bool { return m.done }

func (m Model) Err() error { return m.err }

func (m Model) View() string {
	var b strings.Builder

	status := green.Render("running")
	switch {
	case m.err != nil:
		status = red.Render("failed")
	case m.done:
		status = cyan.Render("finished")
	case m.paused:
		status = yellow.Render("paused")
	}
	b.WriteString(cyan.Bold(true).Render(m.opts.Title))
	b.WriteString("  " + status)
	b.WriteString(dim.Render(fmt.Sprintf("  t=%.2fs  x%d", m.last.T, m.speed)))
	b.WriteString("\n\n")

	if len(m.measured) > 1 {
		w := m.width - 12
		if w < 20 {
			w = 20
		}
		h := m.height - 14
		if h < 5 {
			h = 5
		}
		graph := asciigraph.PlotMany([][]float64{m.setpoints, m.measured},
			asciigraph.Height(h),
			asciigraph.Width(w),
			asciigraph.SeriesColors(asciigraph.Yellow, asciigraph.Green),
			asciigraph.Caption("setpoint (yellow) / measurement (green)"),
		)
		b.WriteString(graph)
		b.WriteString("\n\n")
	}

	stats := []string{
		label("setpoint", m.last.Setpoint),
		label("measured", m.last.Measurement),
		label("error", m.last.Error()),
		label("output", m.last.Output),
	}
	b.WriteString(panel.Render(strings.Join(stats, "   ")))
	b.WriteString("\n")

	if m.opts.PID != nil {
		kp, ki, kd := m.opts.PID.Gains()
		terms := m.opts.PID.Terms()
		b.WriteString(magenta.Render(fmt.Sprintf("  kp=%.4g ki=%.4g kd=%.4g", kp, ki, kd)))
		b.WriteString(dim.Render(fmt.Sprintf("   P=%+.3f I=%+.3f D=%+.3f", terms.P, terms.I, terms.D)))
		b.WriteString("\n")
	}
	if c := m.opts.Calculator; c != nil {
		if c.Ready() {
			g := c.Gains(m.opts.Rule)
			b.WriteString(magenta.Render(fmt.Sprintf("  Ku=%.4g Tu=%.4gs cycles=%d", c.K(), c.T(), c.Cycles())))
			b.WriteString(dim.Render(fmt.Sprintf("   %s: kp=%.4g ki=%.4g kd=%.4g", m.opts.Rule.Name, g.Kp, g.Ki, g.Kd)))
		} else {
			b.WriteString(dim.Render(fmt.Sprintf("  waiting for oscillation (cycles=%d)", c.Cycles())))
		}
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString(red.Render("  " + m.err.Error()))
		b.WriteString("\n")
	}

	help := "space pause  n step  +/- speed  q quit"
	if m.opts.PID != nil {
		help += "  p/P i/I d/D gains"
	}
	b.WriteString("\n" + dim.Render("  "+help))
	return b.String()
}

func label(name string, v float64) string {
	return dim.Render(name+" ") + white.Render(fmt.Sprintf("%+.4f", v))
}

// Run shows the model full screen until the user quits.
func Run(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
