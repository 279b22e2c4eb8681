package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/netlistdb/pkg/netlist"
	"github.com/matzehuels/netlistdb/pkg/pipeline"
)

// menuCommand creates the interactive read/write menu.
func (c *CLI) menuCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "menu [netlist.v]",
		Short: "Interactive menu to read and write netlists",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner, err := c.newRunner(ctx)
			if err != nil {
				return err
			}
			defer runner.Close()

			// The TUI owns the terminal; keep log lines out of it.
			logger := loggerFromContext(ctx)
			level := logger.GetLevel()
			logger.SetLevel(LogError)
			defer logger.SetLevel(level)

			m := newMenuModel(ctx, menuOps{
				load: func(ctx context.Context, path string) (*netlist.Graph, pipeline.LoadInfo, error) {
					return runner.Load(ctx, path)
				},
				write: func(ctx context.Context, g *netlist.Graph, path string) error {
					opts := c.Config.WriterOptions(bannerText())
					return writeFile(path, func(w io.Writer) error { return runner.Write(ctx, w, g, opts) })
				},
			})
			if len(args) == 1 {
				m.path = args[0]
			}

			p := tea.NewProgram(m,
				tea.WithContext(ctx),
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(cmd.OutOrStdout()),
			)
			_, err = p.Run()
			return err
		},
	}
}

// =============================================================================
// Menu Model
// =============================================================================

type menuAction int

const (
	actionRead menuAction = iota
	actionWrite
	actionQuery
	actionQuit
)

type menuItem struct {
	label     string
	desc      string
	action    menuAction
	available bool
}

var menuItems = []menuItem{
	{"READ", "parse a netlist file", actionRead, true},
	{"WRITE", "write the loaded netlist as Verilog", actionWrite, true},
	{"QUERY", "not available", actionQuery, false},
	{"QUIT", "leave the menu", actionQuit, true},
}

// menuOps are the operations behind the menu entries.
type menuOps struct {
	load  func(ctx context.Context, path string) (*netlist.Graph, pipeline.LoadInfo, error)
	write func(ctx context.Context, g *netlist.Graph, path string) error
}

type loadedMsg struct {
	path  string
	graph *netlist.Graph
	info  pipeline.LoadInfo
	err   error
}

type writtenMsg struct {
	path string
	err  error
}

type menuModel struct {
	ctx context.Context
	ops menuOps

	cursor    int
	prompting menuAction // actionRead or actionWrite while the path prompt is open
	input     string
	open      bool

	path   string
	graph  *netlist.Graph
	status string
	failed bool
	busy   bool
}

func newMenuModel(ctx context.Context, ops menuOps) menuModel {
	return menuModel{ctx: ctx, ops: ops}
}

func (m menuModel) Init() tea.Cmd {
	if m.path != "" {
		return m.loadCmd(m.path)
	}
	return nil
}

func (m menuModel) loadCmd(path string) tea.Cmd {
	return func() tea.Msg {
		g, info, err := m.ops.load(m.ctx, path)
		return loadedMsg{path: path, graph: g, info: info, err: err}
	}
}

func (m menuModel) writeCmd(path string) tea.Cmd {
	g := m.graph
	return func() tea.Msg {
		return writtenMsg{path: path, err: m.ops.write(m.ctx, g, path)}
	}
}

func (m menuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		m.busy = false
		if msg.err != nil {
			m.setStatus(true, "%s", firstLine(FormatError(msg.err)))
			return m, nil
		}
		m.path, m.graph = msg.path, msg.graph
		source := iconFresh
		if msg.info.CacheHit {
			source = iconCached
		}
		m.setStatus(false, "read %s: %s (%s)", msg.path, plural(msg.graph.Len(), "module"), source)
		return m, nil

	case writtenMsg:
		m.busy = false
		if msg.err != nil {
			m.setStatus(true, "%s", firstLine(FormatError(msg.err)))
			return m, nil
		}
		m.setStatus(false, "wrote %s", msg.path)
		return m, nil

	case tea.KeyMsg:
		if m.open {
			return m.updatePrompt(msg)
		}
		return m.updateMenu(msg)
	}
	return m, nil
}

func (m menuModel) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q", "esc":
		return m, tea.Quit
	case "up", "k":
		m.cursor = (m.cursor - 1 + len(menuItems)) % len(menuItems)
	case "down", "j", "tab":
		m.cursor = (m.cursor + 1) % len(menuItems)
	case "enter", " ":
		if m.busy {
			return m, nil
		}
		return m.choose(menuItems[m.cursor])
	}
	return m, nil
}

func (m menuModel) choose(item menuItem) (tea.Model, tea.Cmd) {
	switch {
	case !item.available:
		m.setStatus(true, "%s is not available", strings.ToLower(item.label))
	case item.action == actionQuit:
		return m, tea.Quit
	case item.action == actionWrite && m.graph == nil:
		m.setStatus(true, "read a netlist first")
	default:
		m.open, m.prompting = true, item.action
		m.input = ""
		if item.action == actionRead {
			m.input = m.path
		}
	}
	return m, nil
}

func (m menuModel) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		m.open = false
	case tea.KeyBackspace:
		if r := []rune(m.input); len(r) > 0 {
			m.input = string(r[:len(r)-1])
		}
	case tea.KeyRunes, tea.KeySpace:
		m.input += string(msg.Runes)
	case tea.KeyEnter:
		path := strings.TrimSpace(m.input)
		if path == "" {
			return m, nil
		}
		m.open, m.busy = false, true
		if m.prompting == actionWrite {
			m.setStatus(false, "writing %s...", path)
			return m, m.writeCmd(path)
		}
		m.setStatus(false, "reading %s...", path)
		return m, m.loadCmd(path)
	}
	return m, nil
}

func (m *menuModel) setStatus(failed bool, format string, args ...any) {
	m.failed = failed
	m.status = fmt.Sprintf(format, args...)
}

// =============================================================================
// View
// =============================================================================

var (
	styleMenuCursor   = lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
	styleMenuItem     = lipgloss.NewStyle().Foreground(colorWhite)
	styleMenuDisabled = lipgloss.NewStyle().Foreground(colorDim).Strikethrough(true)
	styleMenuBox      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim).Padding(0, 1)
)

func (m menuModel) View() string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render(appName) + "  ")
	if m.graph != nil {
		b.WriteString(StyleDim.Render(m.path + " · " + plural(m.graph.Len(), "module")))
	} else {
		b.WriteString(StyleDim.Render("no netlist loaded"))
	}
	b.WriteString("\n\n")

	var items strings.Builder
	for i, item := range menuItems {
		cursor := "  "
		label := styleMenuItem.Render(fmt.Sprintf("%-6s", item.label))
		if !item.available {
			label = styleMenuDisabled.Render(fmt.Sprintf("%-6s", item.label))
		}
		if i == m.cursor {
			cursor = styleMenuCursor.Render(iconInfo + " ")
		}
		fmt.Fprintf(&items, "%s%s %s", cursor, label, StyleDim.Render(item.desc))
		if i < len(menuItems)-1 {
			items.WriteString("\n")
		}
	}
	b.WriteString(styleMenuBox.Render(items.String()))
	b.WriteString("\n\n")

	if m.open {
		prompt := "netlist file"
		if m.prompting == actionWrite {
			prompt = "output file"
		}
		b.WriteString(StyleHighlight.Render(prompt+": ") + m.input + StyleDim.Render("▏"))
		b.WriteString("\n" + StyleDim.Render("enter to confirm · esc to cancel"))
	} else {
		if m.status != "" {
			icon := styleIconSuccess.Render(iconSuccess)
			if m.failed {
				icon = styleIconError.Render(iconError)
			}
			b.WriteString(icon + " " + m.status + "\n")
		}
		b.WriteString(StyleDim.Render("↑/↓ select · enter run · q quit"))
	}
	b.WriteString("\n")
	return b.String()
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
