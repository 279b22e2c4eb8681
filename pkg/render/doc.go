// Package render groups the netlist visualizations.
//
// The [nodelink] subpackage draws the module hierarchy as a node-link
// diagram: one node per module, one edge per instantiated module. It emits
// Graphviz DOT text and renders it to SVG with the embedded Graphviz of
// github.com/goccy/go-graphviz, so no external dot binary is needed.
//
//	dot := nodelink.ToDOT(g, nodelink.Options{Leaves: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// [nodelink]: https://pkg.go.dev/github.com/matzehuels/netlistdb/pkg/render/nodelink
package render
