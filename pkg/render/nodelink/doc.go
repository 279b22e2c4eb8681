// Package nodelink renders the module hierarchy of a netlist as a node-link
// diagram.
//
// # Overview
//
// Modules appear as boxes and instantiation as arrows from parent to child,
// laid out top to bottom by Graphviz. Library cells are optional leaf nodes.
//
// # Usage
//
// Convert a graph to DOT format, then render to SVG:
//
//	dot := nodelink.ToDOT(g, nodelink.Options{Leaves: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # Options
//
//   - Detailed: module labels include port, signal and instance counts, and
//     edge labels list the instance names
//   - Leaves: library cells are drawn as grey component nodes
//
// # DOT Format
//
// The [ToDOT] function produces Graphviz DOT source that can be:
//
//   - Rendered directly via [RenderSVG]
//   - Saved and processed with external Graphviz tools
//   - Served as text (netlistdb serve exposes it on /hierarchy.dot)
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering; no Graphviz installation is needed.
package nodelink
