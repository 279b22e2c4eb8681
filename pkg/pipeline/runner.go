// Package pipeline ties parsing, persistence and output together.
//
// A [Runner] loads netlists through a two-tier lookup: the cached graph
// artifact for a source file is used when its recorded fingerprint (content
// hash, size, parse options) still matches the file; otherwise the file is
// parsed and the fresh artifact is stored. Rendered hierarchy diagrams are
// cached the same way, keyed by the graph they were drawn from.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	runner.Parse = parser.Options{LibraryCells: []string{"AND2", "INV"}}
//	defer runner.Close()
//
//	g, info, err := runner.Load(ctx, "adder.v")
//	if err != nil {
//	    return err
//	}
//	fmt.Println("cached:", info.CacheHit)
//	err = runner.Write(ctx, os.Stdout, g, writer.Options{})
//
// Cache failures never fail a load: unreadable backends and corrupt entries
// are logged, reported to [observability.CacheHooks], and the source is
// parsed instead.
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/netlistdb/pkg/cache"
	"github.com/matzehuels/netlistdb/pkg/errors"
	netio "github.com/matzehuels/netlistdb/pkg/io"
	"github.com/matzehuels/netlistdb/pkg/netlist"
	"github.com/matzehuels/netlistdb/pkg/netlist/parser"
	"github.com/matzehuels/netlistdb/pkg/netlist/writer"
	"github.com/matzehuels/netlistdb/pkg/observability"
	"github.com/matzehuels/netlistdb/pkg/render/nodelink"
)

// Render formats.
const (
	FormatDOT = "dot"
	FormatSVG = "svg"
)

// ValidFormats is the set of supported render formats.
var ValidFormats = map[string]bool{
	FormatDOT: true,
	FormatSVG: true,
}

// ValidateFormat checks that format is a supported render format.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidInput, "unknown render format %q (use dot or svg)", format)
	}
	return nil
}

// Runner encapsulates loading, writing and rendering with caching.
// Both the CLI commands and the HTTP server use it.
//
// The Runner keeps no loaded graphs; it is safe for concurrent use as long
// as its fields are not modified.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// Parse holds the parser settings. Its Logger defaults to the runner's.
	Parse parser.Options
	// Refresh skips cache reads; results are still stored.
	Refresh bool
	// TTL bounds the lifetime of stored graph artifacts. Zero keeps them
	// until the source changes.
	TTL time.Duration
}

// LoadInfo describes how Load obtained a graph.
type LoadInfo struct {
	// CacheHit is true when the graph came from a fresh cached artifact.
	CacheHit bool
	// Stale is true when a cached artifact existed but no longer matched
	// the source.
	Stale bool
	// Corrupt is true when a cached artifact could not be decoded.
	Corrupt bool
	// Key is the cache key of the artifact.
	Key string
	// Source is the fingerprint of the netlist file.
	Source netio.Source
	// GraphHash identifies the graph by source content and parse options.
	GraphHash string
	// Meta is the artifact metadata, set on hits and after a successful store.
	Meta netio.Meta
	// Duration is the wall time of the load.
	Duration time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Load returns the resolved graph for the netlist at path, from the cache
// when the stored artifact is fresh, by parsing otherwise.
func (r *Runner) Load(ctx context.Context, path string) (*netlist.Graph, LoadInfo, error) {
	start := time.Now()
	var info LoadInfo

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, info, fmt.Errorf("resolve %s: %w", path, err)
	}
	src, err := parser.ReadSource(path)
	if err != nil {
		return nil, info, err
	}
	info.Source = fingerprint(abs, src)
	digest := r.optionsDigest()
	info.GraphHash = cache.Hash([]byte(info.Source.SHA256 + ":" + digest))
	info.Key = r.Keyer.GraphKey(abs)

	if !r.Refresh {
		if g, meta, ok := r.lookup(ctx, &info, digest); ok {
			info.CacheHit = true
			info.Meta = meta
			info.Duration = time.Since(start)
			r.Logger.Debug("graph cache hit", "path", path, "modules", g.Len())
			return g, info, nil
		}
	}

	g, err := r.parse(ctx, path, src)
	if err != nil {
		return nil, info, err
	}

	meta := netio.Meta{Source: info.Source, OptionsDigest: digest}
	if meta, err = r.store(ctx, info.Key, g, meta); err != nil {
		r.Logger.Warn("could not cache graph", "path", path, "err", err)
	} else {
		info.Meta = meta
	}
	info.Duration = time.Since(start)
	return g, info, nil
}

// lookup fetches and checks the cached artifact. Backend errors and corrupt
// entries count as misses; corrupt entries are deleted.
func (r *Runner) lookup(ctx context.Context, info *LoadInfo, digest string) (*netlist.Graph, netio.Meta, bool) {
	hooks := observability.Cache()

	data, hit, err := r.Cache.Get(ctx, info.Key)
	if cache.IsCorrupt(err) {
		r.discardCorrupt(ctx, info, errors.Wrap(errors.ErrCodeCacheCorrupt, err, "unreadable cache entry"))
		return nil, netio.Meta{}, false
	}
	if err != nil {
		r.Logger.Warn("cache read failed", "key", info.Key, "err", err)
		hooks.OnCacheMiss(ctx, "graph")
		return nil, netio.Meta{}, false
	}
	if !hit {
		hooks.OnCacheMiss(ctx, "graph")
		return nil, netio.Meta{}, false
	}

	g, meta, err := netio.DecodeArtifact(data)
	if err != nil {
		r.discardCorrupt(ctx, info, err)
		return nil, netio.Meta{}, false
	}
	if !meta.Fresh(info.Source, digest) {
		info.Stale = true
		r.Logger.Debug("cached graph is stale", "key", info.Key)
		hooks.OnCacheMiss(ctx, "graph")
		return nil, netio.Meta{}, false
	}

	hooks.OnCacheHit(ctx, "graph")
	return g, meta, true
}

// discardCorrupt records a graph entry that could not be read back and
// deletes it.
func (r *Runner) discardCorrupt(ctx context.Context, info *LoadInfo, err error) {
	info.Corrupt = true
	r.Logger.Warn("discarding corrupt cache entry", "key", info.Key, "err", err)
	observability.Cache().OnCacheCorrupt(ctx, "graph", err)
	if err := r.Cache.Delete(ctx, info.Key); err != nil {
		r.Logger.Warn("could not delete corrupt cache entry", "key", info.Key, "err", err)
	}
}

func (r *Runner) parse(ctx context.Context, path string, src []byte) (*netlist.Graph, error) {
	hooks := observability.Pipeline()
	opts := r.parseOptions()

	hooks.OnParseStart(ctx, path)
	start := time.Now()
	g, err := parser.Parse(ctx, path, string(src), opts)
	modules := 0
	if g != nil {
		modules = g.Len()
	}
	hooks.OnParseComplete(ctx, path, modules, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	r.Logger.Info("parsed netlist",
		"path", path,
		"modules", modules,
		"duration", time.Since(start))
	return g, nil
}

// Store records g as the artifact for the netlist at path, fingerprinting
// the file's current content. g must be resolved.
func (r *Runner) Store(ctx context.Context, g *netlist.Graph, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	src, err := parser.ReadSource(path)
	if err != nil {
		return err
	}
	meta := netio.Meta{Source: fingerprint(abs, src), OptionsDigest: r.optionsDigest()}
	_, err = r.store(ctx, r.Keyer.GraphKey(abs), g, meta)
	return err
}

func (r *Runner) store(ctx context.Context, key string, g *netlist.Graph, meta netio.Meta) (netio.Meta, error) {
	meta.ID = uuid.NewString()
	meta.CreatedAt = time.Now().UTC()

	var buf bytes.Buffer
	if err := netio.WriteArtifact(&buf, g, meta); err != nil {
		return meta, err
	}
	if err := r.Cache.Set(ctx, key, buf.Bytes(), r.TTL); err != nil {
		return meta, fmt.Errorf("cache set: %w", err)
	}
	observability.Cache().OnCacheSet(ctx, "graph", buf.Len())
	return meta, nil
}

// Write serializes g as a structural netlist to w.
func (r *Runner) Write(ctx context.Context, w io.Writer, g *netlist.Graph, opts writer.Options) error {
	start := time.Now()
	data, err := writer.Bytes(g, opts)
	if err == nil {
		_, err = w.Write(data)
	}
	observability.Pipeline().OnWriteComplete(ctx, len(data), time.Since(start), err)
	return err
}

// RenderOptions selects a hierarchy rendering.
type RenderOptions struct {
	Format   string
	Detailed bool
	Leaves   bool
}

// Render draws the module hierarchy of g. graphHash is the [LoadInfo]
// GraphHash of g; when non-empty, renderings are cached under it.
// The bool result reports a cache hit.
func (r *Runner) Render(ctx context.Context, g *netlist.Graph, graphHash string, opts RenderOptions) ([]byte, bool, error) {
	if err := ValidateFormat(opts.Format); err != nil {
		return nil, false, err
	}
	if !g.IsResolved() {
		return nil, false, errors.New(errors.ErrCodeUnresolvedGraph, "cannot render an unresolved graph")
	}

	var key string
	if graphHash != "" {
		key = r.Keyer.RenderKey(graphHash, cache.RenderKeyOpts{
			Format:   opts.Format,
			Detailed: opts.Detailed,
			Leaves:   opts.Leaves,
		})
		if !r.Refresh {
			if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
				observability.Cache().OnCacheHit(ctx, "render")
				return data, true, nil
			}
			observability.Cache().OnCacheMiss(ctx, "render")
		}
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Format)
	start := time.Now()
	dot := nodelink.ToDOT(g, nodelink.Options{Detailed: opts.Detailed, Leaves: opts.Leaves})
	var data []byte
	var err error
	switch opts.Format {
	case FormatDOT:
		data = []byte(dot)
	case FormatSVG:
		data, err = nodelink.RenderSVG(ctx, dot)
	}
	hooks.OnRenderComplete(ctx, opts.Format, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	if key != "" {
		if err := r.Cache.Set(ctx, key, data, cache.TTLRender); err != nil {
			r.Logger.Warn("could not cache rendering", "format", opts.Format, "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "render", len(data))
		}
	}
	return data, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) parseOptions() parser.Options {
	opts := r.Parse
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	return opts
}

// optionsDigest hashes the parse options that change the resulting graph.
// Worker count and logger do not.
func (r *Runner) optionsDigest() string {
	cells := slices.Clone(r.Parse.LibraryCells)
	slices.Sort(cells)
	cells = slices.Compact(cells)
	data, _ := json.Marshal(struct {
		Cells []string `json:"cells"`
		Top   string   `json:"top"`
	}{cells, r.Parse.Top})
	return cache.Hash(data)
}

func fingerprint(absPath string, src []byte) netio.Source {
	return netio.Source{Path: absPath, SHA256: cache.Hash(src), Size: int64(len(src))}
}
