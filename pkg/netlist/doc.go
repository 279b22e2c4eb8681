// Package netlist provides the in-memory object graph of a structural
// netlist: module definitions with their ports, internal signals and
// instances.
//
// # Overview
//
// A [Graph] is an arena keyed by module name. It owns every [Module];
// an [Instance] refers to the module (or library cell) it instantiates by
// name only. This lets a module be instantiated before its definition
// appears in the source, and lets mutual instantiation be detected and
// rejected explicitly instead of producing ownership cycles.
//
// # Building a Graph
//
// Graphs are built by the parser or by the artifact decoder in pkg/io. Both
// add modules with [Graph.AddModule] and then call [Graph.Resolve] once:
//
//	g := netlist.New([]string{"AND2", "INV"})
//	_ = g.AddModule(&netlist.Module{Name: "top", Instances: []netlist.Instance{
//	    {Name: "u0", Target: "half_adder", Binding: netlist.Named},
//	}})
//	_ = g.AddModule(&netlist.Module{Name: "half_adder"})
//	if err := g.Resolve(""); err != nil {
//	    // errors.List of UNRESOLVED_REFERENCE, UNKNOWN_PORT, CYCLIC_INSTANTIATION
//	}
//
// Resolve aggregates every problem it finds so a caller sees them all at
// once. After a successful Resolve the graph is read-only.
//
// # Library Cells
//
// Names passed to [New] are leaf cells: instances of them resolve without a
// module definition and are marked [Instance.Leaf]. Their ports are unknown,
// so their connections are not checked. A module definition with the same
// name as a library cell takes precedence.
//
// # Queries
//
// The read-only query surface covers the questions a design browser asks:
// [Graph.Children] and [Graph.Parents] walk the hierarchy,
// [Graph.InstancesOf] finds where a module or cell is used, [Graph.Fanout]
// lists the pins a net reaches within a module, [Graph.Leaves] lists the
// library cells in use and [Graph.Stats] summarizes the design.
package netlist
