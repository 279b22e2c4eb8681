package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/netlistdb/pkg/errors"
	"github.com/matzehuels/netlistdb/pkg/netlist"
)

const (
	// Format identifies netlistdb graph artifacts.
	Format = "netlistdb.graph"
	// Version is the artifact schema version written by this package.
	Version = 1
)

// Source fingerprints the netlist an artifact was derived from.
type Source struct {
	Path   string `json:"path"`
	SHA256 string `json:"sha256"`
	Size   int64  `json:"size"`
}

// Meta describes an artifact apart from its graph.
type Meta struct {
	ID            string
	CreatedAt     time.Time
	Source        Source
	OptionsDigest string
}

// Fresh reports whether the artifact was derived from the given source
// content with the given parse options digest. Paths are not compared.
func (m Meta) Fresh(src Source, optionsDigest string) bool {
	return m.Source.SHA256 == src.SHA256 && m.Source.Size == src.Size && m.OptionsDigest == optionsDigest
}

type artifact struct {
	Format        string    `json:"format"`
	Version       int       `json:"version"`
	ID            string    `json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	Source        Source    `json:"source"`
	OptionsDigest string    `json:"options_digest"`
	Top           string    `json:"top,omitempty"`
	Cells         []string  `json:"cells,omitempty"`
	Modules       []module  `json:"modules"`
}

type module struct {
	Name      string          `json:"name"`
	Pos       errors.Position `json:"pos"`
	Ports     []signal        `json:"ports,omitempty"`
	Signals   []signal        `json:"signals,omitempty"`
	Instances []instance      `json:"instances,omitempty"`
}

type signal struct {
	Name      string          `json:"name"`
	Direction string          `json:"direction,omitempty"`
	NetType   string          `json:"net_type,omitempty"`
	Width     *netlist.Range  `json:"width,omitempty"`
	Pos       errors.Position `json:"pos"`
}

type instance struct {
	Name        string          `json:"name"`
	Target      string          `json:"target"`
	Binding     string          `json:"binding"`
	Connections []connection    `json:"connections,omitempty"`
	Pos         errors.Position `json:"pos"`
}

type connection struct {
	Port  string          `json:"port,omitempty"`
	Index int             `json:"index"`
	Expr  string          `json:"expr"`
	Nets  []string        `json:"nets,omitempty"`
	Pos   errors.Position `json:"pos"`
}

// WriteArtifact encodes a resolved graph and its metadata as a versioned
// JSON artifact. A missing ID is generated and a zero CreatedAt is set to
// the current time. Instance Leaf flags are not stored; they are recomputed
// from the recorded library cells on decode.
func WriteArtifact(w io.Writer, g *netlist.Graph, meta Meta) error {
	if !g.IsResolved() {
		return errors.New(errors.ErrCodeUnresolvedGraph, "only resolved graphs can be stored")
	}
	if meta.ID == "" {
		meta.ID = uuid.NewString()
	}
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = time.Now().UTC()
	}

	out := artifact{
		Format:        Format,
		Version:       Version,
		ID:            meta.ID,
		CreatedAt:     meta.CreatedAt,
		Source:        meta.Source,
		OptionsDigest: meta.OptionsDigest,
		Cells:         g.LibraryCells(),
		Modules:       make([]module, 0, g.Len()),
	}
	if top, ok := g.Top(); ok {
		out.Top = top.Name
	}
	for _, m := range g.Modules() {
		out.Modules = append(out.Modules, exportModule(m))
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// EncodeArtifact is [WriteArtifact] into a byte slice.
func EncodeArtifact(g *netlist.Graph, meta Meta) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteArtifact(&buf, g, meta); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportArtifact writes an artifact file at path.
// This is a convenience wrapper around [WriteArtifact] for file-based output.
func ExportArtifact(g *netlist.Graph, meta Meta, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteArtifact(f, g, meta)
}

func exportModule(m *netlist.Module) module {
	out := module{Name: m.Name, Pos: m.Pos}
	for _, s := range m.Ports {
		out.Ports = append(out.Ports, exportSignal(s))
	}
	for _, s := range m.Signals {
		out.Signals = append(out.Signals, exportSignal(s))
	}
	for _, inst := range m.Instances {
		ji := instance{Name: inst.Name, Target: inst.Target, Binding: inst.Binding.String(), Pos: inst.Pos}
		for _, c := range inst.Connections {
			ji.Connections = append(ji.Connections, connection{
				Port:  c.Port,
				Index: c.Index,
				Expr:  c.Expr.Text,
				Nets:  c.Expr.Nets,
				Pos:   c.Pos,
			})
		}
		out.Instances = append(out.Instances, ji)
	}
	return out
}

func exportSignal(s netlist.Signal) signal {
	return signal{
		Name:      s.Name,
		Direction: s.Direction.String(),
		NetType:   s.NetType,
		Width:     s.Width,
		Pos:       s.Pos,
	}
}
