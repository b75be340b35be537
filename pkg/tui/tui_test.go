package tui

import (
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/apreader/client/pkg/compositor"
)

type fakeClient struct {
	closed int
}

func (f *fakeClient) GetUsername() string { return "Alice" }
func (f *fakeClient) GetAddress() string  { return "ws://localhost:38281" }
func (f *fakeClient) Close() error        { f.closed++; return nil }

func newSized(maxLines int) (*TUI, *fakeClient) {
	fc := &fakeClient{}
	t := New(fc, maxLines)
	t.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return t, fc
}

func TestNotifyRoutesToPane(t *testing.T) {
	ui, _ := newSized(10)
	ui.Update(NotifyMsg{Bucket: compositor.Incoming, Text: "📢 Bob sent Hookshot to Alice"})
	ui.Update(NotifyMsg{Bucket: compositor.Outgoing, Text: "📢 Alice sent Lamp to Bob"})
	ui.Update(NotifyMsg{Bucket: compositor.Outgoing, Text: "📢 Alice found Bow"})

	if got := ui.Lines(compositor.Incoming); len(got) != 1 {
		t.Errorf("incoming = %q", got)
	}
	if got := ui.Lines(compositor.Outgoing); len(got) != 2 || got[1] != "📢 Alice found Bow" {
		t.Errorf("outgoing = %q", got)
	}
	if !strings.Contains(ui.View(), "Alice found Bow") {
		t.Error("view does not show the latest outgoing line")
	}
}

func TestPaneHistoryIsCapped(t *testing.T) {
	ui, _ := newSized(3)
	for i := 0; i < 5; i++ {
		ui.Update(NotifyMsg{Bucket: compositor.Incoming, Text: fmt.Sprintf("line %d", i)})
	}
	got := ui.Lines(compositor.Incoming)
	if len(got) != 3 || got[0] != "line 2" || got[2] != "line 4" {
		t.Errorf("lines = %q, want the newest three", got)
	}
}

func TestUnboundedHistory(t *testing.T) {
	ui, _ := newSized(0)
	for i := 0; i < 50; i++ {
		ui.Update(NotifyMsg{Bucket: compositor.Outgoing, Text: fmt.Sprintf("line %d", i)})
	}
	if got := ui.Lines(compositor.Outgoing); len(got) != 50 {
		t.Errorf("kept %d lines, want 50", len(got))
	}
}

func TestNotifyBeforeResize(t *testing.T) {
	ui := New(&fakeClient{}, 10)
	ui.Update(NotifyMsg{Bucket: compositor.Incoming, Text: "early"})
	if ui.View() != "Initializing..." {
		t.Errorf("unexpected view before first resize: %q", ui.View())
	}
	ui.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	if !strings.Contains(ui.View(), "early") {
		t.Error("line received before resize was lost")
	}
}

func TestStatusShownInTitle(t *testing.T) {
	ui, _ := newSized(10)
	ui.Update(StatusMsg{Label: "Connection Refused: InvalidSlot", OK: false})
	if !strings.Contains(ui.View(), "Connection Refused: InvalidSlot") {
		t.Error("status label missing from view")
	}
}

func TestLogPaneKeepsRecentLines(t *testing.T) {
	ui, _ := newSized(10)
	for i := 0; i < logPaneHeight+3; i++ {
		ui.Update(LogMsg(fmt.Sprintf("log %d", i)))
	}
	if len(ui.logs) != logPaneHeight {
		t.Fatalf("kept %d log lines, want %d", len(ui.logs), logPaneHeight)
	}
	if ui.logs[0] != "log 3" {
		t.Errorf("oldest kept = %q", ui.logs[0])
	}
}

func TestKeys(t *testing.T) {
	ui, fc := newSized(10)

	ui.Update(tea.KeyMsg{Type: tea.KeyTab})
	if ui.focus != 1 {
		t.Errorf("focus after tab = %d", ui.focus)
	}
	ui.Update(tea.KeyMsg{Type: tea.KeyTab})
	if ui.focus != 0 {
		t.Errorf("focus after second tab = %d", ui.focus)
	}

	for _, key := range []tea.KeyMsg{
		{Type: tea.KeyCtrlC},
		{Type: tea.KeyEsc},
		{Type: tea.KeyRunes, Runes: []rune("q")},
	} {
		_, cmd := ui.Update(key)
		if cmd == nil {
			t.Fatalf("%s: expected quit command", key)
		}
		batch, ok := cmd().(tea.BatchMsg)
		if !ok {
			t.Fatalf("%s: expected a batch", key)
		}
		quit := false
		for _, c := range batch {
			if c == nil {
				continue
			}
			if _, ok := c().(tea.QuitMsg); ok {
				quit = true
			}
		}
		if !quit {
			t.Errorf("%s: batch does not quit", key)
		}
	}
	if fc.closed != 3 {
		t.Errorf("Close called %d times, want 3", fc.closed)
	}
}
