package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/apreader/client/pkg/compositor"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	downStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	logStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238"))

	focusedPaneStyle = paneStyle.BorderForeground(lipgloss.Color("205"))
)

// logPaneHeight is how many client log lines stay visible under the panes.
const logPaneHeight = 4

// ClientInterface defines the methods required from a client for TUI interaction
type ClientInterface interface {
	GetUsername() string
	GetAddress() string
	Close() error
}

type pane struct {
	title    string
	viewport viewport.Model
	lines    []string
}

// TUI shows incoming and outgoing notifications side by side.
type TUI struct {
	client   ClientInterface
	maxLines int

	panes [2]pane
	focus int
	logs  []string

	status    string
	connected bool

	ready  bool
	width  int
	height int
}

// New creates a TUI keeping at most maxLines per pane; 0 keeps everything.
func New(client ClientInterface, maxLines int) *TUI {
	return &TUI{
		client:   client,
		maxLines: maxLines,
		panes: [2]pane{
			{title: "Incoming"},
			{title: "Outgoing"},
		},
		status: "Connecting...",
	}
}

func paneIndex(b compositor.Bucket) int {
	if b == compositor.Outgoing {
		return 1
	}
	return 0
}

// Init initializes the TUI
func (t *TUI) Init() tea.Cmd {
	return nil
}

// Update handles TUI updates
func (t *TUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			return t, tea.Batch(t.closeClient, tea.Quit)
		case "tab":
			t.focus = 1 - t.focus
			return t, nil
		}

	case tea.WindowSizeMsg:
		t.width = msg.Width
		t.height = msg.Height
		t.resize()
		return t, nil

	case NotifyMsg:
		t.addLine(paneIndex(msg.Bucket), msg.Text)
		return t, nil

	case StatusMsg:
		t.status = msg.Label
		t.connected = msg.OK
		return t, nil

	case LogMsg:
		t.AddLog(string(msg))
		return t, nil
	}

	// scroll the focused pane
	if !t.ready {
		return t, nil
	}
	var cmd tea.Cmd
	p := &t.panes[t.focus]
	p.viewport, cmd = p.viewport.Update(msg)
	return t, cmd
}

// closeClient runs off the event loop: Close reports to the display, which
// posts back into this program.
func (t *TUI) closeClient() tea.Msg {
	_ = t.client.Close()
	return nil
}

func (t *TUI) resize() {
	w := t.width/2 - 2
	// title, help, log pane, pane border and pane header
	h := t.height - 2 - logPaneHeight - 2 - 1
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	for i := range t.panes {
		p := &t.panes[i]
		if !t.ready {
			p.viewport = viewport.New(w, h)
		} else {
			p.viewport.Width = w
			p.viewport.Height = h
		}
		p.viewport.SetContent(strings.Join(p.lines, "\n"))
		p.viewport.GotoBottom()
	}
	t.ready = true
}

func (t *TUI) addLine(i int, line string) {
	p := &t.panes[i]
	p.lines = append(p.lines, line)

	// trim history
	if t.maxLines > 0 && len(p.lines) > t.maxLines {
		p.lines = p.lines[len(p.lines)-t.maxLines:]
	}

	if t.ready {
		// do not scroll if not at bottom, to prevent flickering
		wasAtBottom := p.viewport.AtBottom()
		p.viewport.SetContent(strings.Join(p.lines, "\n"))
		if wasAtBottom {
			p.viewport.GotoBottom()
		}
	}
}

// AddLog adds a client log line to the log pane
func (t *TUI) AddLog(msg string) {
	t.logs = append(t.logs, msg)
	if len(t.logs) > logPaneHeight {
		t.logs = t.logs[len(t.logs)-logPaneHeight:]
	}
}

// Lines returns the retained lines of one bucket.
func (t *TUI) Lines(b compositor.Bucket) []string {
	return append([]string(nil), t.panes[paneIndex(b)].lines...)
}

// View renders the TUI
func (t *TUI) View() string {
	if !t.ready {
		return "Initializing..."
	}

	status := downStyle.Render(t.status)
	if t.connected {
		status = okStyle.Render(t.status)
	}
	title := titleStyle.Render(fmt.Sprintf("Archipelago Reader - %s@%s", t.client.GetUsername(), t.client.GetAddress())) +
		"  " + status

	var views []string
	for i, p := range t.panes {
		style := paneStyle
		if i == t.focus {
			style = focusedPaneStyle
		}
		header := titleStyle.Render(fmt.Sprintf("%s (%d)", p.title, len(p.lines)))
		views = append(views, style.Render(header+"\n"+p.viewport.View()))
	}

	logs := make([]string, logPaneHeight)
	copy(logs[logPaneHeight-len(t.logs):], t.logs)

	return fmt.Sprintf(
		"%s\n%s\n%s\n%s",
		title,
		lipgloss.JoinHorizontal(lipgloss.Top, views...),
		logStyle.Render(strings.Join(logs, "\n")),
		helpStyle.Render("Tab: switch pane • ↑/↓: scroll • q/Esc/Ctrl+C: quit"),
	)
}

// LogMsg is a message type for logging
type LogMsg string

// NotifyMsg carries one notification line into a pane.
type NotifyMsg struct {
	Bucket compositor.Bucket
	Text   string
}

// StatusMsg updates the connection label in the title bar.
type StatusMsg struct {
	Label string
	OK    bool
}

// Writer is an io.Writer that sends output to the TUI
type Writer struct {
	program *tea.Program
}

// NewWriter creates a new TUI Writer
func NewWriter(program *tea.Program) *Writer {
	return &Writer{program: program}
}

// Write implements io.Writer
func (w *Writer) Write(p []byte) (n int, err error) {
	msg := strings.TrimSuffix(string(p), "\n")
	if msg != "" {
		w.program.Send(LogMsg(msg))
	}
	return len(p), nil
}

// Display posts client notifications and connection reports into the
// program's message queue; safe to call from any goroutine.
type Display struct {
	program *tea.Program
}

func NewDisplay(program *tea.Program) *Display {
	return &Display{program: program}
}

func (d *Display) Notify(bucket compositor.Bucket, text string) {
	d.program.Send(NotifyMsg{Bucket: bucket, Text: text})
}

func (d *Display) SetConnectionState(label string, ok bool) {
	d.program.Send(StatusMsg{Label: label, OK: ok})
}

// Start creates a new TUI program, returning the program, a writer for
// logging and the display to hand to the client.
func Start(client ClientInterface, maxLines int) (*tea.Program, io.Writer, *Display) {
	t := New(client, maxLines)
	p := tea.NewProgram(t, tea.WithAltScreen(), tea.WithMouseCellMotion())
	return p, NewWriter(p), NewDisplay(p)
}
