// Package server exposes the runner over HTTP.
//
// Routes:
//
//	POST /chat     stream one run as NDJSON (application/x-ndjson)
//	GET  /healthz  liveness
//	GET  /metrics  Prometheus metrics (when a gatherer is configured)
//	GET  /graph    Mermaid diagram of the agent topology
//	GET  /tools    tool catalog definitions
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/agentloop/logging"
	"github.com/hupe1980/agentloop/runner"
	"github.com/hupe1980/agentloop/tool"
)

// Options configures a Server.
type Options struct {
	Logger logging.Logger
	// RequestTimeout bounds a /chat run; zero means no timeout.
	RequestTimeout time.Duration
	// ShutdownTimeout bounds graceful shutdown in ListenAndServe.
	ShutdownTimeout time.Duration
	// CORSOrigins lists allowed origins; "*" allows all.
	CORSOrigins []string
	// Gatherer backs GET /metrics. Nil disables the route.
	Gatherer prometheus.Gatherer
	// Catalog backs GET /tools. Nil disables the route.
	Catalog runner.CatalogSource
	Debug   bool
}

// WithLogger sets the logger for request and lifecycle events.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

// WithRequestTimeout bounds each /chat run. Zero disables the timeout.
func WithRequestTimeout(d time.Duration) func(o *Options) {
	return func(o *Options) { o.RequestTimeout = d }
}

// WithShutdownTimeout bounds graceful shutdown in ListenAndServe.
func WithShutdownTimeout(d time.Duration) func(o *Options) {
	return func(o *Options) { o.ShutdownTimeout = d }
}

// WithCORSOrigins sets the allowed CORS origins. "*" allows any origin.
func WithCORSOrigins(origins ...string) func(o *Options) {
	return func(o *Options) { o.CORSOrigins = origins }
}

// WithGatherer enables GET /metrics backed by g.
func WithGatherer(g prometheus.Gatherer) func(o *Options) {
	return func(o *Options) { o.Gatherer = g }
}

// WithCatalog enables GET /tools backed by src.
func WithCatalog(src runner.CatalogSource) func(o *Options) {
	return func(o *Options) { o.Catalog = src }
}

// WithDebug keeps gin in debug mode instead of release mode.
func WithDebug(debug bool) func(o *Options) {
	return func(o *Options) { o.Debug = debug }
}

// Server is the HTTP front of a Runner.
type Server struct {
	runner *runner.Runner
	engine *gin.Engine
	log    logging.Logger
	opts   Options
}

// New creates a Server and registers its routes.
func New(r *runner.Runner, optFns ...func(o *Options)) *Server {
	opts := Options{
		ShutdownTimeout: 10 * time.Second,
		CORSOrigins:     []string{"*"},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	log := logging.OrNoOp(opts.Logger)
	if sl, ok := log.(*logging.StructuredLogger); ok {
		log = sl.WithComponent("server")
	}

	if !opts.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(log))
	engine.Use(cors.New(corsConfig(opts.CORSOrigins)))

	s := &Server{runner: r, engine: engine, log: log, opts: opts}
	s.routes()
	return s
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

func (s *Server) routes() {
	s.engine.POST("/chat", s.handleChat)
	s.engine.GET("/healthz", s.handleHealth)
	s.engine.GET("/graph", s.handleGraph)
	if s.opts.Gatherer != nil {
		s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{})))
	}
	if s.opts.Catalog != nil {
		s.engine.GET("/tools", s.handleTools)
	}
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("server.listen", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen %s: %w", addr, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.log.Info("server.shutdown", "timeout", s.opts.ShutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleChat(c *gin.Context) {
	var req runner.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "message is required"})
		return
	}

	ctx := c.Request.Context()
	if s.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.RequestTimeout)
		defer cancel()
	}

	c.Header("Content-Type", runner.ContentTypeNDJSON)
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	if err := runner.WriteNDJSON(c.Writer, s.runner.Stream(ctx, req)); err != nil {
		s.log.Warn("server.chat.write_failed", "error", err)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleGraph(c *gin.Context) {
	diagram, err := s.runner.Mermaid()
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	c.String(http.StatusOK, diagram)
}

func (s *Server) handleTools(c *gin.Context) {
	catalog, err := s.opts.Catalog(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "tool catalog unavailable: " + err.Error()})
		return
	}
	defs := catalog.Definitions()
	if defs == nil {
		defs = []tool.Definition{}
	}
	c.JSON(http.StatusOK, gin.H{"tools": defs})
}

// requestLogger logs one record per request.
func requestLogger(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("http.request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}
