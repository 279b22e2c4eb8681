package cli

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/matzehuels/netlistdb/pkg/errors"
	netio "github.com/matzehuels/netlistdb/pkg/io"
	"github.com/matzehuels/netlistdb/pkg/netlist"
	"github.com/matzehuels/netlistdb/pkg/netlist/writer"
	"github.com/matzehuels/netlistdb/pkg/observability"
	"github.com/matzehuels/netlistdb/pkg/pipeline"
)

const shutdownTimeout = 5 * time.Second

// serveCommand creates the serve command exposing a loaded netlist over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve <netlist.v>",
		Short: "Serve a netlist over HTTP",
		Long: `Serve loads a netlist once and answers requests from memory:

  GET  /healthz         liveness
  GET  /netlist         canonical Verilog
  GET  /graph           graph artifact (JSON)
  GET  /hierarchy.dot   module hierarchy (also /hierarchy.svg)
  GET  /stats           pipeline, cache and request counters
  POST /reload          re-read the netlist (cache first)`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if addr == "" {
				addr = c.Config.Serve.Addr
			}

			runner, err := c.newRunner(ctx)
			if err != nil {
				return err
			}
			defer runner.Close()

			counters := &observability.Counters{}
			observability.SetPipelineHooks(counters)
			observability.SetCacheHooks(counters)
			observability.SetHTTPHooks(counters)

			srv := newServer(runner, args[0], c.Config.WriterOptions(bannerText()), loggerFromContext(ctx))
			srv.counters = counters
			if err := srv.reload(ctx); err != nil {
				return err
			}

			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return err
			}
			printSuccess(cmd.ErrOrStderr(), "Serving %s", args[0])
			printDetail(cmd.ErrOrStderr(), "http://%s", ln.Addr())
			return srv.serve(ctx, ln)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, 127.0.0.1:8080)")
	return cmd
}

// =============================================================================
// Server
// =============================================================================

// server holds the currently loaded graph. Handlers read it under the lock;
// reload swaps it only after a successful load.
type server struct {
	runner    *pipeline.Runner
	path      string
	writeOpts writer.Options
	logger    *log.Logger
	counters  *observability.Counters

	mu    sync.RWMutex
	graph *netlist.Graph
	info  pipeline.LoadInfo
}

func newServer(runner *pipeline.Runner, path string, writeOpts writer.Options, logger *log.Logger) *server {
	return &server{
		runner:    runner,
		path:      path,
		writeOpts: writeOpts,
		logger:    logger,
		counters:  &observability.Counters{},
	}
}

func (s *server) reload(ctx context.Context) error {
	g, info, err := s.runner.Load(ctx, s.path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.graph, s.info = g, info
	s.mu.Unlock()
	s.logger.Info("loaded netlist", "path", s.path, "modules", g.Len(), "cached", info.CacheHit)
	return nil
}

func (s *server) current() (*netlist.Graph, pipeline.LoadInfo) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.graph, s.info
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Get("/netlist", s.handleNetlist)
	r.Get("/graph", s.handleGraph)
	r.Get("/hierarchy.{format}", s.handleHierarchy)
	r.Get("/stats", s.handleStats)
	r.Post("/reload", s.handleReload)
	return r
}

func (s *server) serve(ctx context.Context, ln net.Listener) error {
	httpSrv := &http.Server{
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- httpSrv.Serve(ln) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// =============================================================================
// Middleware
// =============================================================================

func (s *server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		hooks := observability.HTTP()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		hooks.OnResponse(r.Context(), r.Method, r.URL.Path, status, elapsed)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "status", status, "duration", elapsed)
	})
}

// =============================================================================
// Handlers
// =============================================================================

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok\n"))
}

func (s *server) handleNetlist(w http.ResponseWriter, r *http.Request) {
	g, _ := s.current()
	data, err := writer.Bytes(g, s.writeOpts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/x-verilog; charset=utf-8")
	w.Write(data)
}

func (s *server) handleGraph(w http.ResponseWriter, r *http.Request) {
	g, info := s.current()
	data, err := netio.EncodeArtifact(g, info.Meta)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func (s *server) handleHierarchy(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	opts := pipeline.RenderOptions{
		Format:   format,
		Detailed: r.URL.Query().Has("detailed"),
		Leaves:   r.URL.Query().Has("leaves"),
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		http.NotFound(w, r)
		return
	}

	g, info := s.current()
	data, _, err := s.runner.Render(r.Context(), g, info.GraphHash, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	contentType := "text/vnd.graphviz; charset=utf-8"
	if format == pipeline.FormatSVG {
		contentType = "image/svg+xml"
	}
	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

func (s *server) handleStats(w http.ResponseWriter, r *http.Request) {
	g, info := s.current()
	st := g.Stats()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"netlist": map[string]any{
			"path":       info.Source.Path,
			"sha256":     info.Source.SHA256,
			"modules":    st.Modules,
			"instances":  st.Instances,
			"leaf_cells": st.LeafCells,
			"depth":      st.Depth,
			"cached":     info.CacheHit,
		},
		"counters": s.counters.Snapshot(),
	})
}

func (s *server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.reload(r.Context()); err != nil {
		s.logger.Warn("reload failed, keeping previous netlist", "path", s.path, "err", err)
		s.writeError(w, err)
		return
	}
	g, info := s.current()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"modules": g.Len(),
		"cached":  info.CacheHit,
		"hash":    info.GraphHash,
	})
}

// =============================================================================
// Responses
// =============================================================================

type errorResponse struct {
	Code    errors.Code `json:"code,omitempty"`
	Message string      `json:"message"`
}

func (s *server) writeError(w http.ResponseWriter, err error) {
	s.writeJSON(w, statusFor(err), errorResponse{
		Code:    errors.GetCode(err),
		Message: errors.Format(err),
	})
}

func (s *server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("write response", "err", err)
	}
}

// statusFor maps error codes to HTTP status codes.
func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case errors.ErrCodeLex, errors.ErrCodeParse,
		errors.ErrCodeDuplicateModule, errors.ErrCodeDuplicateInstance,
		errors.ErrCodeUnresolvedReference, errors.ErrCodeCyclicInstantiation,
		errors.ErrCodeUnknownPort, errors.ErrCodeUnresolvedGraph:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
