package netlist

import (
	"maps"
	"slices"

	"github.com/matzehuels/netlistdb/pkg/errors"
)

// Graph owns every module definition of a design. Instances refer to their
// targets by name only, so forward references and instantiation cycles never
// form ownership cycles; [Graph.Resolve] checks the references once all
// modules are present.
//
// The zero value is not usable - use New to create a Graph.
// A Graph is not safe for concurrent mutation; after Resolve it is read-only
// and may be shared freely.
type Graph struct {
	modules  map[string]*Module
	order    []string
	cells    map[string]bool
	top      string
	resolved bool
}

// New creates an empty graph. libraryCells names leaf cells (gates, pads)
// that may be instantiated without a module definition.
func New(libraryCells []string) *Graph {
	g := &Graph{
		modules: make(map[string]*Module),
		cells:   make(map[string]bool, len(libraryCells)),
	}
	for _, c := range libraryCells {
		g.cells[c] = true
	}
	return g
}

// AddModule adds a module definition to the graph, which takes ownership
// of m.
//
// A module whose name is already defined is rejected with DUPLICATE_MODULE;
// the first definition wins and both positions are reported. Within m,
// repeated instance names are reported as DUPLICATE_INSTANCE and the later
// instances dropped, and repeated signal names are reported as
// INVALID_INPUT. The module is still added in those cases. Several problems
// are returned together as an [errors.List].
//
// AddModule puts m in the form the parser produces: an instance without
// connections is Positional and an internal signal without a net type is a
// wire.
func (g *Graph) AddModule(m *Module) error {
	if g.resolved {
		return errors.New(errors.ErrCodeInternal, "graph is resolved; module %s cannot be added", m.Name)
	}
	if m.Name == "" {
		return errors.At(errors.ErrCodeInvalidInput, m.Pos, "module name must not be empty")
	}
	if prev, exists := g.modules[m.Name]; exists {
		err := errors.At(errors.ErrCodeDuplicateModule, m.Pos, "module %s is already defined at %s", m.Name, prev.Pos)
		err.Related = []errors.Position{prev.Pos}
		err.Names = []string{m.Name}
		return err
	}

	canonicalize(m)
	var errs errors.List
	errs.Extend(dedupeInstances(m))
	errs.Extend(checkSignals(m))

	g.modules[m.Name] = m
	g.order = append(g.order, m.Name)
	return errs.Err()
}

func canonicalize(m *Module) {
	for i := range m.Signals {
		if m.Signals[i].NetType == "" {
			m.Signals[i].NetType = "wire"
		}
	}
	for i := range m.Instances {
		if len(m.Instances[i].Connections) == 0 {
			m.Instances[i].Binding = Positional
		}
	}
}

func dedupeInstances(m *Module) errors.List {
	var errs errors.List
	first := make(map[string]errors.Position, len(m.Instances))
	kept := m.Instances[:0]
	for _, inst := range m.Instances {
		if pos, dup := first[inst.Name]; dup {
			err := errors.At(errors.ErrCodeDuplicateInstance, inst.Pos,
				"instance %s is already declared in module %s at %s", inst.Name, m.Name, pos)
			err.Related = []errors.Position{pos}
			err.Names = []string{m.Name, inst.Name}
			errs.Add(err)
			continue
		}
		first[inst.Name] = inst.Pos
		kept = append(kept, inst)
	}
	clear(m.Instances[len(kept):])
	m.Instances = kept
	return errs
}

func checkSignals(m *Module) errors.List {
	var errs errors.List
	seen := make(map[string]bool, len(m.Ports)+len(m.Signals))
	for _, s := range slices.Concat(m.Ports, m.Signals) {
		if seen[s.Name] {
			errs.Add(errors.At(errors.ErrCodeInvalidInput, s.Pos, "signal %s is declared twice in module %s", s.Name, m.Name))
			continue
		}
		seen[s.Name] = true
	}
	return errs
}

// Len returns the number of modules.
func (g *Graph) Len() int { return len(g.order) }

// Modules returns the modules in insertion order. The pointers refer to the
// graph's own modules and must be treated as read-only.
func (g *Graph) Modules() []*Module {
	mods := make([]*Module, len(g.order))
	for i, name := range g.order {
		mods[i] = g.modules[name]
	}
	return mods
}

// ModuleNames returns the module names in insertion order.
func (g *Graph) ModuleNames() []string { return slices.Clone(g.order) }

// Module returns the named module and true, or nil and false if not found.
func (g *Graph) Module(name string) (*Module, bool) {
	m, ok := g.modules[name]
	return m, ok
}

// Top returns the top-level module chosen by Resolve, if any.
func (g *Graph) Top() (*Module, bool) {
	if g.top == "" {
		return nil, false
	}
	return g.Module(g.top)
}

// IsResolved reports whether Resolve has completed successfully.
func (g *Graph) IsResolved() bool { return g.resolved }

// LibraryCells returns the declared library cell names, sorted.
func (g *Graph) LibraryCells() []string { return slices.Sorted(maps.Keys(g.cells)) }

// IsLibraryCell reports whether name was declared as a library cell.
func (g *Graph) IsLibraryCell(name string) bool { return g.cells[name] }

// Children returns the distinct targets instantiated by the named module,
// in order of first instantiation. Library cells are included.
func (g *Graph) Children(name string) []string {
	m, ok := g.modules[name]
	if !ok {
		return nil
	}
	var out []string
	for _, inst := range m.Instances {
		if !slices.Contains(out, inst.Target) {
			out = append(out, inst.Target)
		}
	}
	return out
}

// Parents returns the modules that instantiate name, in insertion order.
func (g *Graph) Parents(name string) []string {
	var out []string
	for _, parent := range g.order {
		for _, inst := range g.modules[parent].Instances {
			if inst.Target == name {
				out = append(out, parent)
				break
			}
		}
	}
	return out
}

// InstanceRef locates an instance by its owning module.
type InstanceRef struct {
	Module   string
	Instance *Instance
}

// InstancesOf returns every instance whose target is name (a module or a
// library cell), in module then declaration order.
func (g *Graph) InstancesOf(name string) []InstanceRef {
	var out []InstanceRef
	for _, parent := range g.order {
		m := g.modules[parent]
		for i := range m.Instances {
			if m.Instances[i].Target == name {
				out = append(out, InstanceRef{Module: parent, Instance: &m.Instances[i]})
			}
		}
	}
	return out
}

// Pin is one instance pin attached to a net. Port is empty for positional
// connections whose target ports are unknown (library cells).
type Pin struct {
	Instance string
	Target   string
	Port     string
	Index    int
}

// Fanout returns the instance pins of module that reference net, in
// declaration order. For positional connections to module targets the port
// name is filled in from the target definition.
func (g *Graph) Fanout(module, net string) []Pin {
	m, ok := g.modules[module]
	if !ok {
		return nil
	}
	var pins []Pin
	for _, inst := range m.Instances {
		for _, c := range inst.Connections {
			if !c.Expr.References(net) {
				continue
			}
			pin := Pin{Instance: inst.Name, Target: inst.Target, Port: c.Port, Index: c.Index}
			if pin.Port == "" {
				if target, ok := g.modules[inst.Target]; ok && c.Index < len(target.Ports) {
					pin.Port = target.Ports[c.Index].Name
				}
			}
			pins = append(pins, pin)
		}
	}
	return pins
}

// Leaves returns the distinct library cells instantiated anywhere in the
// graph, sorted. It is only meaningful after Resolve.
func (g *Graph) Leaves() []string {
	set := make(map[string]bool)
	for _, m := range g.modules {
		for _, inst := range m.Instances {
			if inst.Leaf {
				set[inst.Target] = true
			}
		}
	}
	return slices.Sorted(maps.Keys(set))
}

// Stats summarizes the size of a graph.
type Stats struct {
	Modules       int
	Ports         int
	Signals       int
	Instances     int
	LeafInstances int
	LeafCells     int
	// Depth is the longest module instantiation chain, counting the
	// starting module. It is zero for unresolved graphs.
	Depth int
}

// Stats computes summary counts over the graph.
func (g *Graph) Stats() Stats {
	st := Stats{Modules: len(g.order), LeafCells: len(g.Leaves())}
	for _, m := range g.modules {
		st.Ports += len(m.Ports)
		st.Signals += len(m.Signals)
		st.Instances += len(m.Instances)
		for _, inst := range m.Instances {
			if inst.Leaf {
				st.LeafInstances++
			}
		}
	}
	if g.resolved {
		st.Depth = g.depth()
	}
	return st
}

// depth requires an acyclic graph.
func (g *Graph) depth() int {
	memo := make(map[string]int, len(g.modules))
	var visit func(name string) int
	visit = func(name string) int {
		if d, ok := memo[name]; ok {
			return d
		}
		best := 0
		for _, child := range g.Children(name) {
			if _, ok := g.modules[child]; ok {
				best = max(best, visit(child))
			}
		}
		memo[name] = best + 1
		return best + 1
	}
	deepest := 0
	for _, name := range g.order {
		deepest = max(deepest, visit(name))
	}
	return deepest
}
