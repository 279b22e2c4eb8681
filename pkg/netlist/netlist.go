package netlist

import (
	"fmt"
	"slices"

	"github.com/matzehuels/netlistdb/pkg/errors"
)

// Direction is the declared direction of a signal. Signals that are not
// ports are Internal.
type Direction int

const (
	// Internal marks a signal declared in the module body only.
	Internal Direction = iota
	// Input marks an input port.
	Input
	// Output marks an output port.
	Output
	// Inout marks a bidirectional port.
	Inout
)

var directionKeywords = map[Direction]string{
	Input:  "input",
	Output: "output",
	Inout:  "inout",
}

// String returns the declaration keyword of the direction, or "" for Internal.
func (d Direction) String() string { return directionKeywords[d] }

// ParseDirection maps a declaration keyword to its Direction.
func ParseDirection(keyword string) (Direction, bool) {
	for d, kw := range directionKeywords {
		if kw == keyword {
			return d, true
		}
	}
	return Internal, false
}

// NetTypes lists the net declaration keywords a signal may carry.
var NetTypes = []string{"wire", "tri", "supply0", "supply1"}

// IsNetType reports whether keyword declares a net.
func IsNetType(keyword string) bool { return slices.Contains(NetTypes, keyword) }

// Range is a declared bus range [MSB:LSB]. MSB may be smaller than LSB for
// ascending buses.
type Range struct {
	MSB int `json:"msb"`
	LSB int `json:"lsb"`
}

// Width returns the number of bits covered by the range.
func (r Range) Width() int {
	if r.MSB >= r.LSB {
		return r.MSB - r.LSB + 1
	}
	return r.LSB - r.MSB + 1
}

// String formats the range as it appears in a declaration.
func (r Range) String() string { return fmt.Sprintf("[%d:%d]", r.MSB, r.LSB) }

// Signal is a named net of a module. A port is a Signal stored in
// [Module.Ports]; its index there is its positional binding slot.
//
// Width is nil for scalar signals. NetType is the declared net keyword
// ("wire", "tri", "supply0", "supply1") or empty when the declaration named
// none.
type Signal struct {
	Name      string
	Width     *Range
	Direction Direction
	NetType   string
	Pos       errors.Position
}

// IsPort reports whether the signal has a port direction.
func (s Signal) IsPort() bool { return s.Direction != Internal }

// Binding is the connection style of an instance.
type Binding int

const (
	// Positional connects ports by declaration order.
	Positional Binding = iota
	// Named connects ports with .port(expr) pairs.
	Named
)

// String returns "positional" or "named".
func (b Binding) String() string {
	if b == Named {
		return "named"
	}
	return "positional"
}

// Expr is a connection expression in canonical text form together with the
// names of the nets it references. An empty Text is an unconnected named
// pin, written as .port().
type Expr struct {
	Text string
	Nets []string
}

// IsEmpty reports whether the expression leaves the pin unconnected.
func (e Expr) IsEmpty() bool { return e.Text == "" }

// References reports whether the expression reads or drives net.
func (e Expr) References(net string) bool { return slices.Contains(e.Nets, net) }

// Connection binds one pin of an instance. Named bindings set Port;
// positional bindings leave it empty. Index is always the ordinal of the
// connection within the instance, which for positional bindings is the
// target port slot.
type Connection struct {
	Port  string
	Index int
	Expr  Expr
	Pos   errors.Position
}

// Instance is an instantiation of a module or library cell inside a module.
// Target is a name only; it is looked up in the owning [Graph] during
// [Graph.Resolve], which also sets Leaf for library cell targets.
type Instance struct {
	Name        string
	Target      string
	Binding     Binding
	Connections []Connection
	Leaf        bool
	Pos         errors.Position
}

// Module is a module definition: ordered ports, internal signals in
// declaration order, and instances in declaration order.
type Module struct {
	Name      string
	Ports     []Signal
	Signals   []Signal
	Instances []Instance
	Pos       errors.Position
}

// PortIndex returns the positional slot of the named port, or -1.
func (m *Module) PortIndex(name string) int {
	return slices.IndexFunc(m.Ports, func(s Signal) bool { return s.Name == name })
}

// Port returns the named port.
func (m *Module) Port(name string) (Signal, bool) {
	if i := m.PortIndex(name); i >= 0 {
		return m.Ports[i], true
	}
	return Signal{}, false
}

// Signal looks a name up among ports first, then internal signals.
func (m *Module) Signal(name string) (Signal, bool) {
	if s, ok := m.Port(name); ok {
		return s, true
	}
	i := slices.IndexFunc(m.Signals, func(s Signal) bool { return s.Name == name })
	if i < 0 {
		return Signal{}, false
	}
	return m.Signals[i], true
}

// Instance returns the named instance.
func (m *Module) Instance(name string) (*Instance, bool) {
	for i := range m.Instances {
		if m.Instances[i].Name == name {
			return &m.Instances[i], true
		}
	}
	return nil, false
}
