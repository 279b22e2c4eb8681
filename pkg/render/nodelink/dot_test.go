package nodelink

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/netlistdb/pkg/netlist"
	"github.com/matzehuels/netlistdb/pkg/netlist/parser"
)

const design = `module top(input a, b, output y);
  wire n0, n1;
  half h0 (.a(a), .b(b), .s(n0));
  half h1 (.a(n0), .b(b), .s(n1));
  INV i0 (n1, y);
endmodule
module half(input a, b, output s);
  XOR2 x (a, b, s);
endmodule`

func parse(t *testing.T) *netlist.Graph {
	t.Helper()
	g, err := parser.Parse(context.Background(), "top.v", design, parser.Options{LibraryCells: []string{"INV", "XOR2"}})
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(parse(t), Options{})

	for _, want := range []string{
		`"top" [label="top", penwidth=3`,
		`"half" [label="half"];`,
		`"top" -> "half" [label="x2"];`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %s\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "INV") || strings.Contains(dot, "XOR2") {
		t.Errorf("library cells drawn without Leaves:\n%s", dot)
	}
}

func TestToDOT_Options(t *testing.T) {
	g := parse(t)

	leaves := ToDOT(g, Options{Leaves: true})
	for _, want := range []string{
		`"INV" [label="INV", shape=component`,
		`"top" -> "INV";`,
		`"half" -> "XOR2";`,
	} {
		if !strings.Contains(leaves, want) {
			t.Errorf("Leaves DOT missing %s", want)
		}
	}

	detailed := ToDOT(g, Options{Detailed: true})
	for _, want := range []string{
		`label="top\nports: 3\nsignals: 2\ninstances: 3"`,
		`"top" -> "half" [label="h0\nh1"];`,
	} {
		if !strings.Contains(detailed, want) {
			t.Errorf("Detailed DOT missing %s", want)
		}
	}
}

func TestToDOT_Deterministic(t *testing.T) {
	g := parse(t)
	first := ToDOT(g, Options{Leaves: true, Detailed: true})
	for range 5 {
		if ToDOT(g, Options{Leaves: true, Detailed: true}) != first {
			t.Fatal("ToDOT output changed between calls")
		}
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="x"><g/></svg>`)
	got := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.00 50.00" width="100" height="50"><g/></svg>`
	if got != want {
		t.Errorf("normalizeViewBox() = %s", got)
	}

	noBox := []byte(`<svg><g/></svg>`)
	if string(normalizeViewBox(noBox)) != string(noBox) {
		t.Error("svg without viewBox should be unchanged")
	}
}

func TestRenderSVG(t *testing.T) {
	if testing.Short() {
		t.Skip("graphviz rendering in short mode")
	}
	svg, err := RenderSVG(context.Background(), ToDOT(parse(t), Options{Leaves: true}))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(svg), "<svg") || !strings.Contains(string(svg), "half") {
		t.Errorf("unexpected SVG output: %.200s", svg)
	}
}
