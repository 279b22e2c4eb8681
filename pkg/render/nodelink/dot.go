package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/netlistdb/pkg/netlist"
)

// Options configures hierarchy diagram rendering.
type Options struct {
	// Detailed adds port, signal and instance counts to module labels and
	// lists instance names on edges.
	Detailed bool

	// Leaves includes library cells as nodes. When false, only modules
	// defined in the netlist are drawn.
	Leaves bool
}

// ToDOT converts the module hierarchy of g to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG].
//
// Every defined module becomes a node; the top module is drawn bold. An edge
// A -> B exists when A instantiates B, labelled with the instance count when
// it is greater than one. Output order follows module insertion order and
// instance order, so equal graphs produce identical DOT text.
func ToDOT(g *netlist.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=24, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	top, _ := g.Top()
	for _, m := range g.Modules() {
		attrs := []string{fmt.Sprintf("label=%q", moduleLabel(m, opts.Detailed))}
		if m == top {
			attrs = append(attrs, "penwidth=3", "fontname=\"bold\"")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", m.Name, strings.Join(attrs, ", "))
	}

	var cells []string
	for _, m := range g.Modules() {
		for _, inst := range m.Instances {
			if g.IsLibraryCell(inst.Target) && !slices.Contains(cells, inst.Target) {
				if _, defined := g.Module(inst.Target); !defined {
					cells = append(cells, inst.Target)
				}
			}
		}
	}
	if opts.Leaves {
		for _, c := range cells {
			fmt.Fprintf(&buf, "  %q [label=%q, shape=component, style=\"filled,dashed\", fillcolor=lightgrey];\n", c, c)
		}
	}

	buf.WriteString("\n")
	for _, m := range g.Modules() {
		for _, e := range edges(m) {
			if !opts.Leaves && slices.Contains(cells, e.to) {
				continue
			}
			var attrs []string
			switch {
			case opts.Detailed:
				attrs = append(attrs, fmt.Sprintf("label=%q", strings.Join(e.instances, "\n")))
			case len(e.instances) > 1:
				attrs = append(attrs, fmt.Sprintf("label=\"x%d\"", len(e.instances)))
			}
			if len(attrs) == 0 {
				fmt.Fprintf(&buf, "  %q -> %q;\n", m.Name, e.to)
			} else {
				fmt.Fprintf(&buf, "  %q -> %q [%s];\n", m.Name, e.to, strings.Join(attrs, ", "))
			}
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

type edge struct {
	to        string
	instances []string
}

// edges groups the instances of m by target, in first-use order.
func edges(m *netlist.Module) []edge {
	var out []edge
	for _, inst := range m.Instances {
		i := slices.IndexFunc(out, func(e edge) bool { return e.to == inst.Target })
		if i < 0 {
			out = append(out, edge{to: inst.Target})
			i = len(out) - 1
		}
		out[i].instances = append(out[i].instances, inst.Name)
	}
	return out
}

func moduleLabel(m *netlist.Module, detailed bool) string {
	if !detailed {
		return m.Name
	}
	return fmt.Sprintf("%s\nports: %d\nsignals: %d\ninstances: %d",
		m.Name, len(m.Ports), len(m.Signals), len(m.Instances))
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces the svg element so the drawing starts at the
// origin and carries explicit pixel dimensions.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
