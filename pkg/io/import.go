package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/netlistdb/pkg/errors"
	"github.com/matzehuels/netlistdb/pkg/netlist"
)

var bindingFromString = map[string]netlist.Binding{
	"positional": netlist.Positional,
	"named":      netlist.Named,
}

// ReadArtifact decodes an artifact from r and rebuilds its graph.
//
// The graph is rebuilt with [netlist.Graph.AddModule] and resolved with the
// recorded top module and library cells, so an artifact is only accepted
// if it is structurally intact. ReadArtifact returns CACHE_CORRUPT if:
//   - The JSON is malformed or has unknown fields
//   - The format or version does not match
//   - A direction or binding value is unknown
//   - A positional connection is empty or a named connection has no port
//   - A module is defined twice or an instance or signal repeats in a module
//   - An instance references an undefined module or port
//   - The instantiation graph has a cycle
//
// The underlying problem is kept as the cause. ReadArtifact does not close r.
func ReadArtifact(r io.Reader) (*netlist.Graph, Meta, error) {
	g, meta, err := readArtifact(r)
	if err != nil {
		return nil, Meta{}, errors.Wrap(errors.ErrCodeCacheCorrupt, err, "invalid graph artifact")
	}
	return g, meta, nil
}

// DecodeArtifact is [ReadArtifact] over a byte slice.
func DecodeArtifact(data []byte) (*netlist.Graph, Meta, error) {
	return ReadArtifact(bytes.NewReader(data))
}

// ImportArtifact reads the artifact file at path.
//
// A missing file is FILE_NOT_FOUND; decoding problems are reported as by
// [ReadArtifact].
func ImportArtifact(path string) (*netlist.Graph, Meta, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, Meta{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "artifact %s not found", path)
		}
		return nil, Meta{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadArtifact(f)
}

func readArtifact(r io.Reader) (*netlist.Graph, Meta, error) {
	var data artifact
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&data); err != nil {
		return nil, Meta{}, fmt.Errorf("decode: %w", err)
	}
	if data.Format != Format {
		return nil, Meta{}, fmt.Errorf("format %q is not %q", data.Format, Format)
	}
	if data.Version != Version {
		return nil, Meta{}, fmt.Errorf("unsupported artifact version %d", data.Version)
	}

	g := netlist.New(data.Cells)
	for _, jm := range data.Modules {
		m, err := importModule(jm)
		if err != nil {
			return nil, Meta{}, fmt.Errorf("module %s: %w", jm.Name, err)
		}
		if err := g.AddModule(m); err != nil {
			return nil, Meta{}, fmt.Errorf("module %s: %w", jm.Name, err)
		}
	}
	if err := g.Resolve(data.Top); err != nil {
		return nil, Meta{}, err
	}

	meta := Meta{
		ID:            data.ID,
		CreatedAt:     data.CreatedAt,
		Source:        data.Source,
		OptionsDigest: data.OptionsDigest,
	}
	return g, meta, nil
}

func importModule(jm module) (*netlist.Module, error) {
	m := &netlist.Module{Name: jm.Name, Pos: jm.Pos}
	for _, js := range jm.Ports {
		s, err := importSignal(js)
		if err != nil {
			return nil, err
		}
		if !s.IsPort() {
			return nil, fmt.Errorf("port %s has no direction", s.Name)
		}
		m.Ports = append(m.Ports, s)
	}
	for _, js := range jm.Signals {
		s, err := importSignal(js)
		if err != nil {
			return nil, err
		}
		if s.IsPort() {
			return nil, fmt.Errorf("internal signal %s has direction %s", s.Name, s.Direction)
		}
		m.Signals = append(m.Signals, s)
	}
	for _, ji := range jm.Instances {
		binding, ok := bindingFromString[ji.Binding]
		if !ok {
			return nil, fmt.Errorf("instance %s: unknown binding %q", ji.Name, ji.Binding)
		}
		inst := netlist.Instance{Name: ji.Name, Target: ji.Target, Binding: binding, Pos: ji.Pos}
		for _, jc := range ji.Connections {
			switch {
			case binding == netlist.Named && jc.Port == "":
				return nil, fmt.Errorf("instance %s: named connection %d has no port", ji.Name, jc.Index)
			case binding == netlist.Positional && jc.Port != "":
				return nil, fmt.Errorf("instance %s: positional connection %d names port %s", ji.Name, jc.Index, jc.Port)
			case binding == netlist.Positional && jc.Expr == "":
				return nil, fmt.Errorf("instance %s: positional connection %d is empty", ji.Name, jc.Index)
			}
			inst.Connections = append(inst.Connections, netlist.Connection{
				Port:  jc.Port,
				Index: jc.Index,
				Expr:  netlist.Expr{Text: jc.Expr, Nets: jc.Nets},
				Pos:   jc.Pos,
			})
		}
		m.Instances = append(m.Instances, inst)
	}
	return m, nil
}

func importSignal(js signal) (netlist.Signal, error) {
	s := netlist.Signal{Name: js.Name, NetType: js.NetType, Width: js.Width, Pos: js.Pos}
	if js.Direction != "" {
		dir, ok := netlist.ParseDirection(js.Direction)
		if !ok {
			return s, fmt.Errorf("signal %s: unknown direction %q", js.Name, js.Direction)
		}
		s.Direction = dir
	}
	if js.NetType != "" && !netlist.IsNetType(js.NetType) {
		return s, fmt.Errorf("signal %s: unknown net type %q", js.Name, js.NetType)
	}
	return s, nil
}
