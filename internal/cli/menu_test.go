package cli

import (
	"context"
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/netlistdb/pkg/errors"
	"github.com/matzehuels/netlistdb/pkg/netlist"
	"github.com/matzehuels/netlistdb/pkg/netlist/parser"
	"github.com/matzehuels/netlistdb/pkg/pipeline"
)

type fakeOps struct {
	loads  []string
	writes []string
	graph  *netlist.Graph
}

func (f *fakeOps) ops() menuOps {
	return menuOps{
		load: func(ctx context.Context, path string) (*netlist.Graph, pipeline.LoadInfo, error) {
			f.loads = append(f.loads, path)
			if path == "missing.v" {
				return nil, pipeline.LoadInfo{}, errors.New(errors.ErrCodeFileNotFound, "netlist not found: %s", path)
			}
			return f.graph, pipeline.LoadInfo{CacheHit: len(f.loads) > 1}, nil
		},
		write: func(ctx context.Context, g *netlist.Graph, path string) error {
			if g == nil {
				return fmt.Errorf("nil graph")
			}
			f.writes = append(f.writes, path)
			return nil
		},
	}
}

func newTestMenu(t *testing.T) (menuModel, *fakeOps) {
	t.Helper()
	g, err := parser.Parse(context.Background(), "adder.v", adder, parser.Options{LibraryCells: []string{"AND2", "OR2", "XOR2"}})
	if err != nil {
		t.Fatal(err)
	}
	f := &fakeOps{graph: g}
	return newMenuModel(context.Background(), f.ops()), f
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// send feeds msgs through Update, running any returned command that is not
// tea.Quit and feeding its message back in.
func send(t *testing.T, m menuModel, msgs ...tea.Msg) (menuModel, bool) {
	t.Helper()
	for _, msg := range msgs {
		next, cmd := m.Update(msg)
		m = next.(menuModel)
		for cmd != nil {
			out := cmd()
			if _, ok := out.(tea.QuitMsg); ok {
				return m, true
			}
			next, cmd = m.Update(out)
			m = next.(menuModel)
		}
	}
	return m, false
}

func TestMenu_ReadThenWrite(t *testing.T) {
	m, f := newTestMenu(t)

	m, _ = send(t, m, key("enter"))
	if !m.open || m.prompting != actionRead {
		t.Fatalf("READ should open the path prompt: %+v", m)
	}
	m, _ = send(t, m, key("adder.v"), key("enter"))
	if m.graph == nil || m.path != "adder.v" || m.failed {
		t.Fatalf("after READ: path %q, status %q", m.path, m.status)
	}
	if !strings.Contains(m.status, "2 modules") {
		t.Errorf("status = %q", m.status)
	}

	m, _ = send(t, m, key("down"), key("enter"), key("out.v"), key("enter"))
	if len(f.writes) != 1 || f.writes[0] != "out.v" {
		t.Fatalf("writes = %v", f.writes)
	}
	if m.status != "wrote out.v" {
		t.Errorf("status = %q", m.status)
	}
}

func TestMenu_InitialPath(t *testing.T) {
	m, f := newTestMenu(t)
	m.path = "adder.v"

	cmd := m.Init()
	if cmd == nil {
		t.Fatal("Init() should load the initial netlist")
	}
	m, _ = send(t, m, cmd())
	if m.graph == nil || len(f.loads) != 1 {
		t.Errorf("initial load did not happen: loads %v", f.loads)
	}

	m, _ = send(t, m, key("enter"))
	if m.input != "adder.v" {
		t.Errorf("READ prompt should be prefilled, got %q", m.input)
	}
	m, _ = send(t, m, key("enter"))
	if !strings.Contains(m.status, "(cached)") {
		t.Errorf("second read status = %q", m.status)
	}
}

func TestMenu_Errors(t *testing.T) {
	m, f := newTestMenu(t)

	m, _ = send(t, m, key("down"), key("enter"))
	if !m.failed || m.status != "read a netlist first" {
		t.Errorf("WRITE without graph: status %q", m.status)
	}

	m, _ = send(t, m, key("down"), key("enter"))
	if !m.failed || m.status != "query is not available" {
		t.Errorf("QUERY: status %q", m.status)
	}

	m, _ = send(t, m, key("up"), key("up"), key("enter"), key("missing.v"), key("enter"))
	if !m.failed || !strings.Contains(m.status, "FILE_NOT_FOUND") || m.graph != nil {
		t.Errorf("failed READ: status %q", m.status)
	}
	if len(f.writes) != 0 {
		t.Errorf("unexpected writes %v", f.writes)
	}
}

func TestMenu_PromptEditing(t *testing.T) {
	m, _ := newTestMenu(t)

	m, _ = send(t, m, key("enter"), key("ab"), key("backspace"), key("c"))
	if m.input != "ac" {
		t.Errorf("input = %q, want ac", m.input)
	}
	m, _ = send(t, m, key("esc"))
	if m.open {
		t.Error("esc should close the prompt")
	}
	if _, quit := send(t, m, key("q")); !quit {
		t.Error("q should quit outside the prompt")
	}
}

func TestMenu_Quit(t *testing.T) {
	m, _ := newTestMenu(t)

	m, _ = send(t, m, key("up"))
	if menuItems[m.cursor].action != actionQuit {
		t.Fatalf("cursor should wrap to QUIT, got %s", menuItems[m.cursor].label)
	}
	if _, quit := send(t, m, key("enter")); !quit {
		t.Error("QUIT should end the program")
	}
}

func TestMenu_View(t *testing.T) {
	m, _ := newTestMenu(t)

	view := m.View()
	for _, want := range []string{"READ", "WRITE", "QUERY", "QUIT", "no netlist loaded"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}

	m, _ = send(t, m, key("enter"))
	if !strings.Contains(m.View(), "netlist file:") {
		t.Error("prompt not shown")
	}
}
