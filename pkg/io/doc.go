// Package io provides the versioned JSON artifact that persists a resolved
// netlist graph together with the fingerprint of the source it came from.
//
// # Overview
//
// Artifacts are what the cache layer stores. They are designed for:
//
//   - Skipping the lexer and parser for unchanged netlists
//   - Detecting staleness from the recorded source fingerprint
//   - Rejecting damaged or foreign data instead of trusting it
//   - Inspection by external tools (the graph is plain JSON)
//
// # JSON Format
//
//	{
//	  "format": "netlistdb.graph",
//	  "version": 1,
//	  "id": "5b1c9f0e-...",
//	  "created_at": "2026-10-15T09:12:03Z",
//	  "source": {"path": "/work/adder.v", "sha256": "9f2c...", "size": 412},
//	  "options_digest": "1d0a...",
//	  "top": "full_adder",
//	  "cells": ["AND2", "OR2", "XOR2"],
//	  "modules": [
//	    {
//	      "name": "half_adder",
//	      "pos": {"file": "/work/adder.v", "line": 9, "column": 1, "offset": 301},
//	      "ports": [{"name": "a", "direction": "input", "pos": {...}}],
//	      "instances": [
//	        {"name": "x0", "target": "XOR2", "binding": "positional",
//	         "connections": [{"index": 0, "expr": "a", "nets": ["a"], "pos": {...}}]}
//	      ]
//	    }
//	  ]
//	}
//
// Modules keep graph insertion order, ports and signals keep declaration
// order. Library cell flags on instances are not stored: decoding resolves
// the graph again against the recorded cells.
//
// # Writing
//
// Use [WriteArtifact] for any io.Writer, [EncodeArtifact] for bytes, or
// [ExportArtifact] for a file. Only resolved graphs can be written; others
// fail with UNRESOLVED_GRAPH.
//
// # Reading
//
// [ReadArtifact], [DecodeArtifact] and [ImportArtifact] rebuild the graph
// and run [netlist.Graph.Resolve] over it. Any failure, from malformed JSON
// to a dangling instance reference, is reported as CACHE_CORRUPT with the
// underlying problem as cause, so callers can discard the artifact and
// re-parse the source.
//
// # Staleness
//
// [Meta.Fresh] compares the recorded fingerprint (content hash, size and
// parse options digest) against the current source. Computing the
// fingerprint is the caller's job; see pkg/pipeline.
package io
