package parser

import (
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/netlistdb/pkg/errors"
	"github.com/matzehuels/netlistdb/pkg/netlist"
	"github.com/matzehuels/netlistdb/pkg/netlist/lexer"
)

// moduleParser is a recursive-descent parser over the tokens of a single
// module declaration. It stops at the first error.
type moduleParser struct {
	toks []lexer.Token
	eof  lexer.Token
	i    int

	mod *netlist.Module
	// ansi is set when the header declares directions inline.
	ansi bool
	// names maps every declared signal name to its slot: >= 0 is a port
	// index, -1 an internal signal.
	names map[string]int
}

func newModuleParser(toks []lexer.Token, end errors.Position) *moduleParser {
	return &moduleParser{
		toks:  toks,
		eof:   lexer.Token{Kind: lexer.EOF, Pos: end},
		names: make(map[string]int),
	}
}

func (p *moduleParser) peek() lexer.Token {
	if p.i < len(p.toks) {
		return p.toks[p.i]
	}
	return p.eof
}

func (p *moduleParser) next() lexer.Token {
	t := p.peek()
	if p.i < len(p.toks) {
		p.i++
	}
	return t
}

func (p *moduleParser) accept(text string) bool {
	if t := p.peek(); t.Kind == lexer.Punct && t.Text == text {
		p.i++
		return true
	}
	return false
}

func (p *moduleParser) expect(text string) (lexer.Token, *errors.Error) {
	t := p.peek()
	if t.Kind != lexer.Punct || t.Text != text {
		return t, p.unexpected("'" + text + "'")
	}
	p.i++
	return t, nil
}

func (p *moduleParser) ident(what string) (lexer.Token, *errors.Error) {
	t := p.peek()
	if t.Kind != lexer.Identifier {
		return t, p.unexpected(what)
	}
	p.i++
	return t, nil
}

func (p *moduleParser) unexpected(want string) *errors.Error {
	t := p.peek()
	if t.Kind == lexer.Keyword && lexer.IsUnsupported(t.Text) {
		return errors.At(errors.ErrCodeParse, t.Pos, "unsupported construct %q", t.Text)
	}
	return errors.At(errors.ErrCodeParse, t.Pos, "expected %s, found %s", want, t.Describe())
}

func (p *moduleParser) parse() (*netlist.Module, *errors.Error) {
	kw := p.next()
	name, err := p.ident("module name")
	if err != nil {
		return nil, err
	}
	p.mod = &netlist.Module{Name: name.Text, Pos: kw.Pos}

	if t := p.peek(); t.Is(lexer.Punct, "#") {
		return nil, errors.At(errors.ErrCodeParse, t.Pos, "parameter declarations are not supported")
	}
	if p.accept("(") && !p.accept(")") {
		if err := p.header(); err != nil {
			return nil, err
		}
		if _, err := p.expect(")"); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(";"); err != nil {
		return nil, err
	}

	for {
		t := p.peek()
		switch {
		case t.Is(lexer.Keyword, "endmodule"):
			p.next()
			return p.mod, p.checkPortDirections()
		case t.Kind == lexer.EOF || t.Is(lexer.Keyword, "module"):
			return nil, errors.At(errors.ErrCodeParse, t.Pos, "missing endmodule for module %s", p.mod.Name)
		}
		if err := p.item(); err != nil {
			return nil, err
		}
	}
}

func (p *moduleParser) checkPortDirections() *errors.Error {
	for _, port := range p.mod.Ports {
		if port.Direction == netlist.Internal {
			return errors.At(errors.ErrCodeParse, port.Pos, "port %s of module %s has no direction declaration", port.Name, p.mod.Name)
		}
	}
	return nil
}

// decl holds the qualifiers of a declaration.
type decl struct {
	dir     netlist.Direction
	netType string
	width   *netlist.Range
}

func (p *moduleParser) qualifiers(d *decl) *errors.Error {
	if t := p.peek(); t.Kind == lexer.Keyword && netlist.IsNetType(t.Text) {
		d.netType = p.next().Text
	}
	if p.peek().Is(lexer.Punct, "[") {
		r, err := p.rangeDecl()
		if err != nil {
			return err
		}
		d.width = r
	}
	return nil
}

func (p *moduleParser) header() *errors.Error {
	if _, ok := netlist.ParseDirection(p.peek().Text); ok && p.peek().Kind == lexer.Keyword {
		p.ansi = true
		var d decl
		for {
			if t := p.peek(); t.Kind == lexer.Keyword {
				dir, ok := netlist.ParseDirection(t.Text)
				if !ok {
					return p.unexpected("port direction or name")
				}
				p.next()
				d = decl{dir: dir}
				if err := p.qualifiers(&d); err != nil {
					return err
				}
			}
			name, err := p.ident("port name")
			if err != nil {
				return err
			}
			if err := p.declare(name, d, true); err != nil {
				return err
			}
			if !p.accept(",") {
				return nil
			}
		}
	}

	for {
		name, err := p.ident("port name")
		if err != nil {
			return err
		}
		if err := p.declare(name, decl{}, true); err != nil {
			return err
		}
		if !p.accept(",") {
			return nil
		}
	}
}

// declare records a new port or internal signal.
func (p *moduleParser) declare(name lexer.Token, d decl, port bool) *errors.Error {
	if _, dup := p.names[name.Text]; dup {
		return errors.At(errors.ErrCodeParse, name.Pos, "signal %s is already declared in module %s", name.Text, p.mod.Name)
	}
	s := netlist.Signal{Name: name.Text, Width: d.width, Direction: d.dir, NetType: d.netType, Pos: name.Pos}
	if port {
		p.names[name.Text] = len(p.mod.Ports)
		p.mod.Ports = append(p.mod.Ports, s)
	} else {
		p.names[name.Text] = -1
		p.mod.Signals = append(p.mod.Signals, s)
	}
	return nil
}

func (p *moduleParser) item() *errors.Error {
	t := p.peek()
	switch {
	case t.Kind == lexer.Keyword:
		if dir, ok := netlist.ParseDirection(t.Text); ok {
			p.next()
			return p.portDecl(t, dir)
		}
		if netlist.IsNetType(t.Text) {
			return p.netDecl()
		}
		return p.unexpected("declaration or instance")
	case t.Kind == lexer.Identifier:
		return p.instances()
	}
	return p.unexpected("declaration or instance")
}

// portDecl completes a body direction declaration of a non-ANSI header.
func (p *moduleParser) portDecl(kw lexer.Token, dir netlist.Direction) *errors.Error {
	if p.ansi {
		return errors.At(errors.ErrCodeParse, kw.Pos, "port declarations in the body of module %s require a non-ANSI header", p.mod.Name)
	}
	d := decl{dir: dir}
	if err := p.qualifiers(&d); err != nil {
		return err
	}
	return p.nameList(func(name lexer.Token) *errors.Error {
		slot, ok := p.names[name.Text]
		if !ok || slot < 0 {
			return errors.At(errors.ErrCodeParse, name.Pos, "%s is not in the port list of module %s", name.Text, p.mod.Name)
		}
		port := &p.mod.Ports[slot]
		if port.Direction != netlist.Internal {
			return errors.At(errors.ErrCodeParse, name.Pos, "port %s is already declared in module %s", name.Text, p.mod.Name)
		}
		port.Direction = dir
		return mergeQualifiers(port, d, name)
	})
}

// netDecl declares internal nets, or gives a net type to a non-ANSI port.
func (p *moduleParser) netDecl() *errors.Error {
	var d decl
	if err := p.qualifiers(&d); err != nil {
		return err
	}
	return p.nameList(func(name lexer.Token) *errors.Error {
		if slot, ok := p.names[name.Text]; ok && slot >= 0 && !p.ansi && p.mod.Ports[slot].NetType == "" {
			return mergeQualifiers(&p.mod.Ports[slot], d, name)
		}
		return p.declare(name, d, false)
	})
}

func mergeQualifiers(port *netlist.Signal, d decl, name lexer.Token) *errors.Error {
	if d.netType != "" {
		port.NetType = d.netType
	}
	if d.width != nil {
		if port.Width != nil && *port.Width != *d.width {
			return errors.At(errors.ErrCodeParse, name.Pos, "port %s is redeclared with range %s, was %s", name.Text, d.width, port.Width)
		}
		port.Width = d.width
	}
	return nil
}

func (p *moduleParser) nameList(each func(lexer.Token) *errors.Error) *errors.Error {
	for {
		name, err := p.ident("signal name")
		if err != nil {
			return err
		}
		if err := each(name); err != nil {
			return err
		}
		if p.accept(",") {
			continue
		}
		_, err = p.expect(";")
		return err
	}
}

func (p *moduleParser) rangeDecl() (*netlist.Range, *errors.Error) {
	if _, err := p.expect("["); err != nil {
		return nil, err
	}
	msb, err := p.index()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(":"); err != nil {
		return nil, err
	}
	lsb, err := p.index()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect("]"); err != nil {
		return nil, err
	}
	return &netlist.Range{MSB: msb, LSB: lsb}, nil
}

// index reads a plain decimal number.
func (p *moduleParser) index() (int, *errors.Error) {
	t := p.peek()
	if t.Kind != lexer.Number {
		return 0, p.unexpected("index")
	}
	n, err := strconv.Atoi(strings.ReplaceAll(t.Text, "_", ""))
	if err != nil {
		return 0, errors.At(errors.ErrCodeParse, t.Pos, "index %s must be a decimal number", t.Text)
	}
	p.i++
	return n, nil
}

func (p *moduleParser) instances() *errors.Error {
	target := p.next()
	if t := p.peek(); t.Is(lexer.Punct, "#") {
		return errors.At(errors.ErrCodeParse, t.Pos, "parameter overrides are not supported (instance of %s)", target.Text)
	}
	for {
		inst, err := p.instance(target.Text)
		if err != nil {
			return err
		}
		p.mod.Instances = append(p.mod.Instances, inst)
		if p.accept(",") {
			continue
		}
		_, err = p.expect(";")
		return err
	}
}

func (p *moduleParser) instance(target string) (netlist.Instance, *errors.Error) {
	name, err := p.ident("instance name")
	if err != nil {
		return netlist.Instance{}, err
	}
	inst := netlist.Instance{Name: name.Text, Target: target, Pos: name.Pos}
	if _, err := p.expect("("); err != nil {
		return inst, err
	}
	if p.accept(")") {
		return inst, nil
	}
	if p.peek().Is(lexer.Punct, ".") {
		inst.Binding = netlist.Named
	}

	for idx := 0; ; idx++ {
		c, err := p.connection(inst.Binding, idx)
		if err != nil {
			return inst, err
		}
		if c.Port != "" && slices.ContainsFunc(inst.Connections, func(o netlist.Connection) bool { return o.Port == c.Port }) {
			return inst, errors.At(errors.ErrCodeParse, c.Pos, "port %s of instance %s is connected twice", c.Port, inst.Name)
		}
		inst.Connections = append(inst.Connections, c)
		if !p.accept(",") {
			break
		}
	}
	_, err = p.expect(")")
	return inst, err
}

func (p *moduleParser) connection(binding netlist.Binding, idx int) (netlist.Connection, *errors.Error) {
	t := p.peek()
	c := netlist.Connection{Index: idx, Pos: t.Pos}
	named := t.Is(lexer.Punct, ".")
	if named != (binding == netlist.Named) {
		return c, errors.At(errors.ErrCodeParse, t.Pos, "named and positional connections cannot be mixed")
	}
	if !named {
		e, err := p.expr()
		c.Expr = e
		return c, err
	}

	p.next()
	port, err := p.ident("port name")
	if err != nil {
		return c, err
	}
	c.Port = port.Text
	if _, err := p.expect("("); err != nil {
		return c, err
	}
	if p.accept(")") {
		return c, nil
	}
	if c.Expr, err = p.expr(); err != nil {
		return c, err
	}
	_, err = p.expect(")")
	return c, err
}

// expr parses a connection expression into canonical text. Escaped
// identifiers keep their terminating space so the text re-lexes unchanged.
func (p *moduleParser) expr() (netlist.Expr, *errors.Error) {
	t := p.peek()
	switch {
	case t.Is(lexer.Punct, "{"):
		p.next()
		var parts []string
		var nets []string
		for {
			e, err := p.expr()
			if err != nil {
				return netlist.Expr{}, err
			}
			parts = append(parts, e.Text)
			for _, n := range e.Nets {
				if !slices.Contains(nets, n) {
					nets = append(nets, n)
				}
			}
			if !p.accept(",") {
				break
			}
		}
		if _, err := p.expect("}"); err != nil {
			return netlist.Expr{}, err
		}
		return netlist.Expr{Text: "{" + strings.Join(parts, ", ") + "}", Nets: nets}, nil

	case t.Kind == lexer.Number:
		p.next()
		return netlist.Expr{Text: t.Text}, nil

	case t.Kind == lexer.Identifier:
		p.next()
		text := t.Text
		if t.IsEscaped() {
			text += " "
		}
		if p.accept("[") {
			hi, err := p.index()
			if err != nil {
				return netlist.Expr{}, err
			}
			sel := strconv.Itoa(hi)
			if p.accept(":") {
				lo, err := p.index()
				if err != nil {
					return netlist.Expr{}, err
				}
				sel += ":" + strconv.Itoa(lo)
			}
			if _, err := p.expect("]"); err != nil {
				return netlist.Expr{}, err
			}
			text += "[" + sel + "]"
		}
		return netlist.Expr{Text: text, Nets: []string{t.Text}}, nil
	}
	return netlist.Expr{}, p.unexpected("expression")
}
