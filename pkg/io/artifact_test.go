package io

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"

	"github.com/matzehuels/netlistdb/pkg/errors"
	"github.com/matzehuels/netlistdb/pkg/netlist"
	"github.com/matzehuels/netlistdb/pkg/netlist/parser"
)

const design = `module top(input [1:0] a, output y);
  wire n;
  mid m0 (.i(a[0]), .o(n));
  INV i0 (n, y);
endmodule
module mid(input i, output o);
  BUF b (.A(i), .Y(o));
endmodule`

func parseDesign(t *testing.T) *netlist.Graph {
	t.Helper()
	g, err := parser.Parse(context.Background(), "d.v", design, parser.Options{LibraryCells: []string{"INV", "BUF"}})
	if err != nil {
		t.Fatal(err)
	}
	return g
}

var src = Source{Path: "/work/d.v", SHA256: "abc123", Size: 200}

func TestArtifact_RoundTrip(t *testing.T) {
	g := parseDesign(t)
	data, err := EncodeArtifact(g, Meta{Source: src, OptionsDigest: "opts"})
	if err != nil {
		t.Fatal(err)
	}

	back, meta, err := DecodeArtifact(data)
	if err != nil {
		t.Fatalf("DecodeArtifact() error: %v", err)
	}
	if diff := cmp.Diff(g.Modules(), back.Modules(), cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("modules differ (-want +got):\n%s", diff)
	}
	if top, _ := back.Top(); top == nil || top.Name != "top" {
		t.Errorf("Top() = %v", top)
	}
	if !back.IsResolved() {
		t.Error("decoded graph must be resolved")
	}
	if _, err := uuid.Parse(meta.ID); err != nil {
		t.Errorf("ID %q is not a UUID: %v", meta.ID, err)
	}
	if meta.CreatedAt.IsZero() || meta.Source != src || meta.OptionsDigest != "opts" {
		t.Errorf("meta = %+v", meta)
	}
}

func TestArtifact_KeepsGivenMeta(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	data, err := EncodeArtifact(parseDesign(t), Meta{ID: "fixed", CreatedAt: created})
	if err != nil {
		t.Fatal(err)
	}
	_, meta, err := DecodeArtifact(data)
	if err != nil {
		t.Fatal(err)
	}
	if meta.ID != "fixed" || !meta.CreatedAt.Equal(created) {
		t.Errorf("meta = %+v", meta)
	}
}

func TestArtifact_UnresolvedGraph(t *testing.T) {
	g := netlist.New(nil)
	_ = g.AddModule(&netlist.Module{Name: "m"})
	if _, err := EncodeArtifact(g, Meta{}); !errors.Is(err, errors.ErrCodeUnresolvedGraph) {
		t.Errorf("EncodeArtifact() error = %v, want UNRESOLVED_GRAPH", err)
	}
}

func TestArtifact_Corrupt(t *testing.T) {
	valid, err := EncodeArtifact(parseDesign(t), Meta{Source: src})
	if err != nil {
		t.Fatal(err)
	}

	mutate := func(f func(a map[string]any)) []byte {
		var a map[string]any
		if err := json.Unmarshal(valid, &a); err != nil {
			t.Fatal(err)
		}
		f(a)
		out, _ := json.Marshal(a)
		return out
	}
	modules := func(a map[string]any) []any { return a["modules"].([]any) }

	tests := []struct {
		name string
		data []byte
	}{
		{"not json", []byte("{not json")},
		{"truncated", valid[:len(valid)/2]},
		{"empty", nil},
		{"wrong format", mutate(func(a map[string]any) { a["format"] = "other" })},
		{"future version", mutate(func(a map[string]any) { a["version"] = 99 })},
		{"unknown field", mutate(func(a map[string]any) { a["extra"] = true })},
		{"dangling reference", mutate(func(a map[string]any) { a["modules"] = modules(a)[:1] })},
		{"duplicate module", mutate(func(a map[string]any) { a["modules"] = append(modules(a), modules(a)[0]) })},
		{"missing top", mutate(func(a map[string]any) { a["top"] = "gone" })},
		{"dropped cells", mutate(func(a map[string]any) { delete(a, "cells") })},
		{"bad direction", mutate(func(a map[string]any) {
			port := modules(a)[0].(map[string]any)["ports"].([]any)[0].(map[string]any)
			port["direction"] = "sideways"
		})},
		{"bad binding", mutate(func(a map[string]any) {
			inst := modules(a)[0].(map[string]any)["instances"].([]any)[0].(map[string]any)
			inst["binding"] = "telepathic"
		})},
		{"empty positional expression", mutate(func(a map[string]any) {
			inv := modules(a)[0].(map[string]any)["instances"].([]any)[1].(map[string]any)
			inv["connections"].([]any)[0].(map[string]any)["expr"] = ""
		})},
		{"named leaf pin without port", mutate(func(a map[string]any) {
			buf := modules(a)[1].(map[string]any)["instances"].([]any)[0].(map[string]any)
			delete(buf["connections"].([]any)[0].(map[string]any), "port")
		})},
		{"cycle", mutate(func(a map[string]any) {
			mid := modules(a)[1].(map[string]any)
			mid["instances"] = append(mid["instances"].([]any), map[string]any{
				"name": "loop", "target": "top", "binding": "positional",
				"pos": map[string]any{"line": 0, "column": 0, "offset": 0},
			})
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, _, err := DecodeArtifact(tt.data)
			if !errors.Is(err, errors.ErrCodeCacheCorrupt) {
				t.Fatalf("DecodeArtifact() error = %v, want CACHE_CORRUPT", err)
			}
			if g != nil {
				t.Error("corrupt artifact returned a graph")
			}
		})
	}
}

func TestMeta_Fresh(t *testing.T) {
	meta := Meta{Source: src, OptionsDigest: "o1"}
	tests := []struct {
		name   string
		src    Source
		digest string
		want   bool
	}{
		{"same", src, "o1", true},
		{"moved file", Source{Path: "/elsewhere.v", SHA256: src.SHA256, Size: src.Size}, "o1", true},
		{"content changed", Source{SHA256: "other", Size: src.Size}, "o1", false},
		{"size changed", Source{SHA256: src.SHA256, Size: 1}, "o1", false},
		{"options changed", src, "o2", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := meta.Fresh(tt.src, tt.digest); got != tt.want {
				t.Errorf("Fresh() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExportImport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.json")
	if err := ExportArtifact(parseDesign(t), Meta{Source: src}, path); err != nil {
		t.Fatal(err)
	}
	g, _, err := ImportArtifact(path)
	if err != nil {
		t.Fatal(err)
	}
	if g.Len() != 2 {
		t.Errorf("Len() = %d, want 2", g.Len())
	}

	_, _, err = ImportArtifact(filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("ImportArtifact(missing) error = %v", err)
	}
}

func TestWriteArtifact_Format(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteArtifact(&buf, parseDesign(t), Meta{Source: src}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{`"format": "netlistdb.graph"`, `"version": 1`, `"top": "top"`, `"binding": "named"`, `"msb": 1`} {
		if !strings.Contains(out, want) {
			t.Errorf("artifact missing %s", want)
		}
	}
	if strings.Contains(out, "leaf") {
		t.Error("leaf flags should not be stored")
	}
}
