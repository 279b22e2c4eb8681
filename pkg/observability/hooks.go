// Package observability lets applications observe netlistdb without
// coupling the libraries to a metrics stack.
//
// The pipeline, the cache backends and the HTTP server report what they do
// through three small hook interfaces: [PipelineHooks], [CacheHooks] and
// [HTTPHooks]. Until something is registered every call lands on a no-op
// implementation. Hooks are installed by the binary, for example in
// `netlistdb serve`:
//
//	counters := &observability.Counters{}
//	observability.SetPipelineHooks(counters)
//	observability.SetCacheHooks(counters)
//	observability.SetHTTPHooks(counters)
//
// and emitted by library code:
//
//	observability.Pipeline().OnParseStart(ctx, path)
//	observability.Pipeline().OnParseComplete(ctx, path, g.Len(), time.Since(start), err)
//
// [Counters] keeps atomic totals and is what /stats reports.
package observability

import (
	"context"
	"sync"
	"time"
)

// PipelineHooks receives events from the netlist pipeline.
type PipelineHooks interface {
	// Parse events. file is the source path as given by the caller.
	OnParseStart(ctx context.Context, file string)
	OnParseComplete(ctx context.Context, file string, moduleCount int, duration time.Duration, err error)

	// OnWriteComplete records a netlist serialization.
	OnWriteComplete(ctx context.Context, size int, duration time.Duration, err error)

	// Render events for hierarchy diagrams.
	OnRenderStart(ctx context.Context, format string)
	OnRenderComplete(ctx context.Context, format string, duration time.Duration, err error)
}

// CacheHooks receives events from cache operations. keyType is "graph" or
// "render".
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	// OnCacheMiss also fires for stale entries.
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
	// OnCacheCorrupt fires when a stored entry cannot be decoded.
	OnCacheCorrupt(ctx context.Context, keyType string, err error)
}

// HTTPHooks receives events from the HTTP server.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, path string)
	// OnResponse fires after the handler returns.
	OnResponse(ctx context.Context, method, path string, statusCode int, duration time.Duration)
}

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnParseStart(context.Context, string)                               {}
func (NoopPipelineHooks) OnParseComplete(context.Context, string, int, time.Duration, error) {}
func (NoopPipelineHooks) OnWriteComplete(context.Context, int, time.Duration, error)         {}
func (NoopPipelineHooks) OnRenderStart(context.Context, string)                              {}
func (NoopPipelineHooks) OnRenderComplete(context.Context, string, time.Duration, error)     {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)            {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)           {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int)       {}
func (NoopCacheHooks) OnCacheCorrupt(context.Context, string, error) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// registry holds the installed hooks. Reads vastly outnumber writes, which
// happen once at startup or in tests.
type registry struct {
	mu       sync.RWMutex
	pipeline PipelineHooks
	cache    CacheHooks
	http     HTTPHooks
}

var hooks = newRegistry()

func newRegistry() *registry {
	return &registry{
		pipeline: NoopPipelineHooks{},
		cache:    NoopCacheHooks{},
		http:     NoopHTTPHooks{},
	}
}

func (r *registry) update(fn func(*registry)) {
	r.mu.Lock()
	fn(r)
	r.mu.Unlock()
}

// SetPipelineHooks installs h as the pipeline hooks. A nil h is ignored.
func SetPipelineHooks(h PipelineHooks) {
	if h == nil {
		return
	}
	hooks.update(func(r *registry) { r.pipeline = h })
}

// SetCacheHooks installs h as the cache hooks. A nil h is ignored.
func SetCacheHooks(h CacheHooks) {
	if h == nil {
		return
	}
	hooks.update(func(r *registry) { r.cache = h })
}

// SetHTTPHooks installs h as the HTTP hooks. A nil h is ignored.
func SetHTTPHooks(h HTTPHooks) {
	if h == nil {
		return
	}
	hooks.update(func(r *registry) { r.http = h })
}

// Pipeline returns the installed pipeline hooks.
func Pipeline() PipelineHooks {
	hooks.mu.RLock()
	defer hooks.mu.RUnlock()
	return hooks.pipeline
}

// Cache returns the installed cache hooks.
func Cache() CacheHooks {
	hooks.mu.RLock()
	defer hooks.mu.RUnlock()
	return hooks.cache
}

// HTTP returns the installed HTTP hooks.
func HTTP() HTTPHooks {
	hooks.mu.RLock()
	defer hooks.mu.RUnlock()
	return hooks.http
}

// Reset puts the no-op hooks back. Tests call it in t.Cleanup.
func Reset() {
	hooks.update(func(r *registry) {
		r.pipeline = NoopPipelineHooks{}
		r.cache = NoopCacheHooks{}
		r.http = NoopHTTPHooks{}
	})
}
