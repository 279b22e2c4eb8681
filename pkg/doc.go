// Package pkg provides the netlistdb libraries for reading, caching and
// writing gate-level structural Verilog netlists.
//
// # Overview
//
// netlistdb turns a structural Verilog file into a resolved module hierarchy:
// modules with ordered ports, internal signals and instances, where every
// instance refers either to another module of the design or to a known
// library cell. The hierarchy can be written back as canonical Verilog,
// stored as a versioned JSON artifact, or drawn as a diagram.
//
// # Architecture
//
//	netlist source (.v)
//	       ↓
//	  [netlist/lexer]   tokens with positions
//	       ↓
//	  [netlist/parser]  modules (parsed in parallel), then one resolve pass
//	       ↓
//	  [netlist]         resolved Graph: lookups, children, parents, fanout
//	       ↓
//	  [netlist/writer]  canonical Verilog    [io]  graph artifact (JSON)
//	                                         [render/nodelink]  DOT / SVG
//
// [pipeline] ties these together behind a content-addressed [cache]: a
// netlist whose bytes and parse options are unchanged is served from the
// stored artifact without parsing.
//
// # Quick Start
//
//	g, err := parser.ParseFile(ctx, "adder.v", parser.Options{
//	    LibraryCells: []string{"AND2", "OR2", "XOR2"},
//	})
//	if err != nil {
//	    fmt.Fprintln(os.Stderr, errors.Format(err))
//	    return
//	}
//	err = writer.Write(os.Stdout, g, writer.Options{Order: writer.OrderName})
//
// # Main Packages
//
// [netlist] - Domain model and the resolved module graph.
//
// [errors] - Coded errors with source positions; problems found in one pass
// are returned together as a List.
//
// [cache] - File, Redis and MongoDB backends behind one Cache interface.
//
// [config] - TOML configuration with a file search order.
//
// [observability] - Hook interfaces for parse, cache and HTTP events.
//
// [netlist]: https://pkg.go.dev/github.com/matzehuels/netlistdb/pkg/netlist
// [netlist/lexer]: https://pkg.go.dev/github.com/matzehuels/netlistdb/pkg/netlist/lexer
// [netlist/parser]: https://pkg.go.dev/github.com/matzehuels/netlistdb/pkg/netlist/parser
// [netlist/writer]: https://pkg.go.dev/github.com/matzehuels/netlistdb/pkg/netlist/writer
// [io]: https://pkg.go.dev/github.com/matzehuels/netlistdb/pkg/io
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/netlistdb/pkg/render/nodelink
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/netlistdb/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/netlistdb/pkg/cache
// [errors]: https://pkg.go.dev/github.com/matzehuels/netlistdb/pkg/errors
// [config]: https://pkg.go.dev/github.com/matzehuels/netlistdb/pkg/config
// [observability]: https://pkg.go.dev/github.com/matzehuels/netlistdb/pkg/observability
package pkg
