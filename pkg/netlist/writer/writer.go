// Package writer emits a resolved [netlist.Graph] as structural netlist text
// that the parser reads back into an equal graph.
//
// Output is canonical: one module block per module in a fixed [Order], an
// ANSI header with the ports in declared order, then internal nets, then
// instances with the binding style they were parsed with. Source comments
// and formatting are not preserved.
package writer

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/matzehuels/netlistdb/pkg/errors"
	"github.com/matzehuels/netlistdb/pkg/netlist"
)

// DefaultIndent is the indent width used when Options.Indent is not positive.
const DefaultIndent = 4

// Order selects the module order of the output.
type Order int

const (
	// OrderSource emits modules in graph insertion order.
	OrderSource Order = iota
	// OrderName emits modules sorted by name.
	OrderName
)

// ParseOrder maps "source" or "name" to an Order. Empty means source.
func ParseOrder(s string) (Order, error) {
	switch s {
	case "", "source":
		return OrderSource, nil
	case "name":
		return OrderName, nil
	}
	return OrderSource, errors.New(errors.ErrCodeInvalidInput, "unknown module order %q (want source or name)", s)
}

func (o Order) String() string {
	if o == OrderName {
		return "name"
	}
	return "source"
}

// Options configures the writer.
type Options struct {
	Indent int
	Order  Order
	// Banner is written as line comments before the first module.
	Banner string
}

// Write emits g to w. An unresolved graph fails with UNRESOLVED_GRAPH
// before anything is written.
func Write(w io.Writer, g *netlist.Graph, opts Options) error {
	if !g.IsResolved() {
		return errors.New(errors.ErrCodeUnresolvedGraph, "graph must be resolved before it is written")
	}
	indent := opts.Indent
	if indent <= 0 {
		indent = DefaultIndent
	}
	e := emitter{w: bufio.NewWriter(w), pad: strings.Repeat(" ", indent)}

	if opts.Banner != "" {
		for line := range strings.Lines(opts.Banner) {
			e.printf("// %s\n", strings.TrimRight(line, "\r\n"))
		}
		e.printf("\n")
	}

	mods := g.Modules()
	if opts.Order == OrderName {
		slices.SortFunc(mods, func(a, b *netlist.Module) int { return strings.Compare(a.Name, b.Name) })
	}
	for i, m := range mods {
		if i > 0 {
			e.printf("\n")
		}
		e.module(m)
	}

	if e.err != nil {
		return fmt.Errorf("write netlist: %w", e.err)
	}
	if err := e.w.Flush(); err != nil {
		return fmt.Errorf("write netlist: %w", err)
	}
	return nil
}

// Bytes returns the text Write would produce.
func Bytes(g *netlist.Graph, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, g, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type emitter struct {
	w   *bufio.Writer
	pad string
	err error
}

func (e *emitter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}

func (e *emitter) module(m *netlist.Module) {
	if len(m.Ports) == 0 {
		e.printf("module %s;\n", ident(m.Name))
	} else {
		e.printf("module %s (\n", ident(m.Name))
		for i, p := range m.Ports {
			sep := ","
			if i == len(m.Ports)-1 {
				sep = ""
			}
			e.printf("%s%s%s\n", e.pad, declaration(p), sep)
		}
		e.printf(");\n")
	}

	for _, s := range m.Signals {
		e.printf("%s%s;\n", e.pad, declaration(s))
	}
	for _, inst := range m.Instances {
		e.printf("%s%s %s (%s);\n", e.pad, ident(inst.Target), ident(inst.Name), connections(inst))
	}
	e.printf("endmodule\n")
}

// declaration renders the qualifiers and name of a port or net.
func declaration(s netlist.Signal) string {
	var parts []string
	if s.IsPort() {
		parts = append(parts, s.Direction.String())
	}
	switch {
	case s.NetType != "":
		parts = append(parts, s.NetType)
	case !s.IsPort():
		parts = append(parts, "wire")
	}
	if s.Width != nil {
		parts = append(parts, s.Width.String())
	}
	parts = append(parts, ident(s.Name))
	return strings.Join(parts, " ")
}

func connections(inst netlist.Instance) string {
	parts := make([]string, len(inst.Connections))
	for i, c := range inst.Connections {
		if inst.Binding == netlist.Named {
			parts[i] = "." + ident(c.Port) + "(" + c.Expr.Text + ")"
		} else {
			parts[i] = c.Expr.Text
		}
	}
	return strings.Join(parts, ", ")
}

// ident terminates escaped identifiers with the space they require.
func ident(name string) string {
	if strings.HasPrefix(name, `\`) {
		return name + " "
	}
	return name
}
