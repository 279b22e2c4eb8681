package observability

import (
	"context"
	"sync/atomic"
	"time"
)

// Counters keeps running totals of hook events. The zero value is ready to
// use and safe for concurrent use. It implements every hook interface.
type Counters struct {
	Parses       atomic.Int64
	ParseErrors  atomic.Int64
	Writes       atomic.Int64
	Renders      atomic.Int64
	CacheHits    atomic.Int64
	CacheMisses  atomic.Int64
	CacheSets    atomic.Int64
	CacheCorrupt atomic.Int64
	Requests     atomic.Int64
	ServerErrors atomic.Int64
}

// Snapshot is a point-in-time copy of Counters.
type Snapshot struct {
	Parses       int64 `json:"parses"`
	ParseErrors  int64 `json:"parse_errors"`
	Writes       int64 `json:"writes"`
	Renders      int64 `json:"renders"`
	CacheHits    int64 `json:"cache_hits"`
	CacheMisses  int64 `json:"cache_misses"`
	CacheSets    int64 `json:"cache_sets"`
	CacheCorrupt int64 `json:"cache_corrupt"`
	Requests     int64 `json:"requests"`
	ServerErrors int64 `json:"server_errors"`
}

// Snapshot returns the current totals.
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		Parses:       c.Parses.Load(),
		ParseErrors:  c.ParseErrors.Load(),
		Writes:       c.Writes.Load(),
		Renders:      c.Renders.Load(),
		CacheHits:    c.CacheHits.Load(),
		CacheMisses:  c.CacheMisses.Load(),
		CacheSets:    c.CacheSets.Load(),
		CacheCorrupt: c.CacheCorrupt.Load(),
		Requests:     c.Requests.Load(),
		ServerErrors: c.ServerErrors.Load(),
	}
}

func (c *Counters) OnParseStart(context.Context, string) { c.Parses.Add(1) }

func (c *Counters) OnParseComplete(_ context.Context, _ string, _ int, _ time.Duration, err error) {
	if err != nil {
		c.ParseErrors.Add(1)
	}
}

func (c *Counters) OnWriteComplete(context.Context, int, time.Duration, error)     { c.Writes.Add(1) }
func (c *Counters) OnRenderStart(context.Context, string)                          { c.Renders.Add(1) }
func (c *Counters) OnRenderComplete(context.Context, string, time.Duration, error) {}

func (c *Counters) OnCacheHit(context.Context, string)            { c.CacheHits.Add(1) }
func (c *Counters) OnCacheMiss(context.Context, string)           { c.CacheMisses.Add(1) }
func (c *Counters) OnCacheSet(context.Context, string, int)       { c.CacheSets.Add(1) }
func (c *Counters) OnCacheCorrupt(context.Context, string, error) { c.CacheCorrupt.Add(1) }

func (c *Counters) OnRequest(context.Context, string, string) { c.Requests.Add(1) }

func (c *Counters) OnResponse(_ context.Context, _, _ string, status int, _ time.Duration) {
	if status >= 500 {
		c.ServerErrors.Add(1)
	}
}

var (
	_ PipelineHooks = (*Counters)(nil)
	_ CacheHooks    = (*Counters)(nil)
	_ HTTPHooks     = (*Counters)(nil)
)
