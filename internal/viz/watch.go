package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/murphybed/internal/mechanism"
	"github.com/san-kum/murphybed/internal/search"
)

const (
	canvasWidth  = 60
	canvasHeight = 20
)

// ProgressMsg carries one finished iteration and the committed sweep at
// that point. The snapshots are frozen, so the search may carry on while
// the view draws them.
type ProgressMsg struct {
	Iteration search.Iteration
	Sweep     []mechanism.Snapshot
	Metrics   map[string]float64
}

// DoneMsg ends the watch.
type DoneMsg struct {
	Summary search.Summary
	Err     error
}

// Watch is a Bubble Tea model that follows a search fed through a channel.
type Watch struct {
	name    string
	total   int
	events  <-chan tea.Msg
	stop    func()
	history []search.Iteration
	sweep   []mechanism.Snapshot
	metrics map[string]float64
	pose    int
	done    *DoneMsg
	canvas  *Canvas
	width   int
}

// NewWatch follows events until a DoneMsg arrives. stop is called when the
// user quits early.
func NewWatch(name string, total int, initial []mechanism.Snapshot, events <-chan tea.Msg, stop func()) Watch {
	return Watch{
		name:   name,
		total:  total,
		events: events,
		stop:   stop,
		sweep:  initial,
		canvas: NewCanvas(canvasWidth, canvasHeight),
		width:  100,
	}
}

func (w Watch) wait() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-w.events
		if !ok {
			return DoneMsg{}
		}
		return msg
	}
}

func (w Watch) Init() tea.Cmd { return w.wait() }

func (w Watch) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if w.done == nil && w.stop != nil {
				w.stop()
			}
			return w, tea.Quit
		case "left", "h":
			if w.pose > 0 {
				w.pose--
			}
		case "right", "l":
			if w.pose < len(w.sweep)-1 {
				w.pose++
			}
		case "t":
			NextTheme()
		}
	case tea.WindowSizeMsg:
		w.width = msg.Width
	case ProgressMsg:
		w.history = append(w.history, msg.Iteration)
		if msg.Sweep != nil {
			w.sweep = msg.Sweep
		}
		w.metrics = msg.Metrics
		w.pose = min(w.pose, max(len(w.sweep)-1, 0))
		return w, w.wait()
	case DoneMsg:
		w.done = &msg
		return w, nil
	}
	return w, nil
}

func (w Watch) View() string {
	w.canvas.Clear()
	if len(w.sweep) > 0 {
		w.canvas.Frame(Extent(w.sweep))
		w.canvas.DrawSnapshot(w.sweep[w.pose])
	}
	poseTitle := "no poses"
	if len(w.sweep) > 0 {
		poseTitle = fmt.Sprintf("pose %.1f°", w.sweep[w.pose].Angle())
	}
	canvasView := panel().Render(title().Render(poseTitle) + "\n" + w.canvas.String())

	var s strings.Builder
	s.WriteString(header().Render(strings.ToUpper(w.name)) + "\n")
	s.WriteString(w.status() + "\n\n")
	s.WriteString(ProgressBar(len(w.history), w.total, 30) + "\n")
	s.WriteString(label().Render(fmt.Sprintf("%d / %d iterations", len(w.history), w.total)) + "\n\n")

	penalties := Penalties(w.history)
	if len(penalties) > 0 {
		s.WriteString(label().Render("penalty  ") + value().Render(fmt.Sprintf("%.4g", penalties[len(penalties)-1])) + "\n")
		s.WriteString(Sparkline(penalties, 30) + "\n\n")
	}
	if n := len(w.history); n > 0 {
		last := w.history[n-1]
		verdict := bad().Render("rejected")
		if last.Accepted {
			verdict = good().Render("accepted")
		}
		s.WriteString(label().Render("last     ") + value().Render(last.Param) + " " + verdict + "\n")
	}
	for _, name := range []string{"acceptance_rate", "step_effort", "failure_rate"} {
		if v, ok := w.metrics[name]; ok {
			s.WriteString(label().Render(fmt.Sprintf("%-16s", name)) + value().Render(fmt.Sprintf("%.3g", v)) + "\n")
		}
	}
	s.WriteString(hint().Render("\n←/→ pose  T theme  Q quit"))

	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, " ", panel().Render(s.String()))
}

func (w Watch) status() string {
	switch {
	case w.done == nil:
		return warn().Render("SEARCHING")
	case w.done.Err != nil:
		return bad().Render("STOPPED: " + w.done.Err.Error())
	}
	return good().Render(fmt.Sprintf("DONE (%s)", w.done.Summary.Stopped))
}
