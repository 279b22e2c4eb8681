package netlist

import (
	"slices"
	"strings"

	"github.com/matzehuels/netlistdb/pkg/errors"
)

// Resolve checks every instance reference of the graph and freezes it.
//
// It runs in a single serial pass over the complete module table:
//
//  1. Each instance target is looked up. Defined modules win over library
//     cells of the same name; library cell instances are marked Leaf; any
//     other target is UNRESOLVED_REFERENCE.
//  2. Connections of module instances are checked against the target's
//     ports: named pins must exist and positional connections must not
//     outnumber the ports (UNKNOWN_PORT). Library cell pins are not checked.
//  3. The instantiation graph is searched for cycles with a depth-first
//     traversal; every back edge is reported as CYCLIC_INSTANTIATION naming
//     the module chain.
//  4. The top module is chosen: top when non-empty (it must be defined),
//     otherwise the single module no other module instantiates, otherwise
//     none.
//
// All problems are collected and returned together as an [errors.List]
// sorted by position. On error the graph stays unresolved and must be
// discarded. Calling Resolve on a resolved graph is a no-op.
func (g *Graph) Resolve(top string) error {
	if g.resolved {
		return nil
	}

	var errs errors.List
	for _, name := range g.order {
		m := g.modules[name]
		for i := range m.Instances {
			errs.Extend(g.resolveInstance(m, &m.Instances[i]))
		}
	}
	errs.Extend(g.detectCycles())

	if top != "" {
		if _, ok := g.modules[top]; !ok {
			err := errors.New(errors.ErrCodeUnresolvedReference, "top module %s is not defined", top)
			err.Names = []string{top}
			errs.Add(err)
		}
	} else {
		top = g.inferTop()
	}

	if errs.Len() > 0 {
		errs.Sort()
		return errs.Err()
	}
	g.top = top
	g.resolved = true
	return nil
}

func (g *Graph) resolveInstance(m *Module, inst *Instance) errors.List {
	var errs errors.List
	target, ok := g.modules[inst.Target]
	switch {
	case ok:
		inst.Leaf = false
	case g.cells[inst.Target]:
		inst.Leaf = true
		return nil
	default:
		err := errors.At(errors.ErrCodeUnresolvedReference, inst.Pos,
			"instance %s in module %s references undefined module %s", inst.Name, m.Name, inst.Target)
		err.Names = []string{inst.Target}
		errs.Add(err)
		return errs
	}

	if inst.Binding == Positional {
		if n := len(inst.Connections); n > len(target.Ports) {
			err := errors.At(errors.ErrCodeUnknownPort, inst.Pos,
				"instance %s connects %d ports but module %s declares %d", inst.Name, n, target.Name, len(target.Ports))
			err.Names = []string{target.Name, inst.Name}
			errs.Add(err)
		}
		return errs
	}
	for _, c := range inst.Connections {
		if target.PortIndex(c.Port) < 0 {
			err := errors.At(errors.ErrCodeUnknownPort, c.Pos,
				"module %s has no port %s (instance %s in module %s)", target.Name, c.Port, inst.Name, m.Name)
			err.Names = []string{target.Name, c.Port}
			errs.Add(err)
		}
	}
	return errs
}

func (g *Graph) detectCycles() errors.List {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(g.modules))
	var stack []string
	var errs errors.List

	var dfs func(name string)
	dfs = func(name string) {
		color[name] = gray
		stack = append(stack, name)
		for _, child := range g.Children(name) {
			if _, ok := g.modules[child]; !ok {
				continue
			}
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				errs.Add(g.cycleError(name, child, stack))
			}
		}
		stack = stack[:len(stack)-1]
		color[name] = black
	}

	for _, name := range g.order {
		if color[name] == white {
			dfs(name)
		}
	}
	return errs
}

// cycleError describes the back edge from -> to, where to is on stack.
func (g *Graph) cycleError(from, to string, stack []string) *errors.Error {
	chain := slices.Clone(stack[slices.Index(stack, to):])
	chain = append(chain, to)

	m := g.modules[from]
	pos := m.Pos
	if i := slices.IndexFunc(m.Instances, func(inst Instance) bool { return inst.Target == to }); i >= 0 {
		pos = m.Instances[i].Pos
	}

	err := errors.At(errors.ErrCodeCyclicInstantiation, pos, "cyclic instantiation: %s", strings.Join(chain, " -> "))
	err.Names = chain
	for _, name := range chain[:len(chain)-1] {
		err.Related = append(err.Related, g.modules[name].Pos)
	}
	return err
}

func (g *Graph) inferTop() string {
	var roots []string
	for _, name := range g.order {
		instantiated := false
		for _, parent := range g.Parents(name) {
			if parent != name {
				instantiated = true
				break
			}
		}
		if !instantiated {
			roots = append(roots, name)
		}
	}
	if len(roots) == 1 {
		return roots[0]
	}
	return ""
}
