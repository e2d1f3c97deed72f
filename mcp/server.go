package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/agentloop/logging"
	"github.com/hupe1980/agentloop/tool"
)

const (
	ssePath      = "/sse"
	messagesPath = "/messages/"
)

// ServerOptions configures a Server.
type ServerOptions struct {
	// Name and Version are reported as serverInfo.
	Name    string
	Version string
	Logger  logging.Logger
	// KeepAlive is the interval of SSE comment pings; zero disables them.
	KeepAlive time.Duration
	// ShutdownTimeout bounds graceful shutdown in ListenAndServe.
	ShutdownTimeout time.Duration
}

// Server exposes a tool catalog over the MCP HTTP+SSE transport:
//
//	GET  /sse                       open a session; the first event names the message endpoint
//	POST /messages/?session_id=...  send a JSON-RPC message; the reply arrives on the stream
type Server struct {
	catalog *tool.Catalog
	opts    ServerOptions
	log     logging.Logger
	engine  *gin.Engine

	mu       sync.Mutex
	sessions map[string]*session
}

// NewServer creates a server publishing catalog.
func NewServer(catalog *tool.Catalog, optFns ...func(o *ServerOptions)) *Server {
	opts := ServerOptions{
		Name:            "Banking Agent Tools",
		Version:         "1.0.0",
		KeepAlive:       15 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	log := logging.OrNoOp(opts.Logger)
	if sl, ok := log.(*logging.StructuredLogger); ok {
		log = sl.WithComponent("mcp")
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		catalog:  catalog,
		opts:     opts,
		log:      log,
		engine:   engine,
		sessions: make(map[string]*session),
	}
	engine.GET(ssePath, s.handleSSE)
	engine.POST(messagesPath, s.handleMessage)
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Sessions returns the number of open sessions.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// ListenAndServe serves until ctx is canceled, then closes every session and
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("mcp.listen", "addr", addr, "tools", s.catalog.Len())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen %s: %w", addr, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.log.Info("mcp.shutdown", "sessions", s.Sessions())
		s.closeAll()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

var errSessionClosed = errors.New("mcp: session closed")

// session is one SSE stream. Replies to POSTed messages are queued on out.
type session struct {
	id   string
	out  chan []byte
	done chan struct{}
	once sync.Once
}

func (ss *session) close() { ss.once.Do(func() { close(ss.done) }) }

func (ss *session) send(ctx context.Context, msg []byte) error {
	select {
	case ss.out <- msg:
		return nil
	case <-ss.done:
		return errSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) open() *session {
	ss := &session{
		id:   uuid.NewString(),
		out:  make(chan []byte, 16),
		done: make(chan struct{}),
	}
	s.mu.Lock()
	s.sessions[ss.id] = ss
	s.mu.Unlock()
	return ss
}

func (s *Server) lookup(id string) (*session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ss, ok := s.sessions[id]
	return ss, ok
}

func (s *Server) remove(ss *session) {
	ss.close()
	s.mu.Lock()
	delete(s.sessions, ss.id)
	s.mu.Unlock()
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ss := range s.sessions {
		ss.close()
		delete(s.sessions, id)
	}
}

func (s *Server) handleSSE(c *gin.Context) {
	ss := s.open()
	defer s.remove(ss)
	log := s.log
	log.Info("mcp.session.open", "session", ss.id)
	defer log.Info("mcp.session.close", "session", ss.id)

	h := c.Writer.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	c.Status(http.StatusOK)

	c.SSEvent("endpoint", messagesPath+"?session_id="+ss.id)
	c.Writer.Flush()

	var tick <-chan time.Time
	if s.opts.KeepAlive > 0 {
		t := time.NewTicker(s.opts.KeepAlive)
		defer t.Stop()
		tick = t.C
	}

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ss.done:
			return
		case msg := <-ss.out:
			c.SSEvent("message", string(msg))
			c.Writer.Flush()
		case <-tick:
			if _, err := io.WriteString(c.Writer, ": ping\n\n"); err != nil {
				return
			}
			c.Writer.Flush()
		}
	}
}

func (s *Server) handleMessage(c *gin.Context) {
	ss, ok := s.lookup(c.Query("session_id"))
	if !ok {
		c.String(http.StatusNotFound, "Could not find session")
		return
	}

	var req request
	body, err := io.ReadAll(c.Request.Body)
	if err == nil {
		err = json.Unmarshal(body, &req)
	}
	if err != nil || req.JSONRPC != jsonrpcVersion || req.Method == "" {
		c.String(http.StatusBadRequest, "Could not parse message")
		return
	}

	if req.isNotification() {
		s.log.Debug("mcp.notification", "session", ss.id, "method", req.Method)
		c.String(http.StatusAccepted, "Accepted")
		return
	}

	resp := s.dispatch(c.Request.Context(), &req)
	msg, err := json.Marshal(resp)
	if err != nil {
		msg, _ = json.Marshal(newErrorResponse(req.ID, codeInternalError, err.Error()))
	}
	if err := ss.send(c.Request.Context(), msg); err != nil {
		s.log.Warn("mcp.reply.dropped", "session", ss.id, "method", req.Method, "error", err)
		c.String(http.StatusGone, "Session closed")
		return
	}
	c.String(http.StatusAccepted, "Accepted")
}

func (s *Server) dispatch(ctx context.Context, req *request) response {
	s.log.Debug("mcp.request", "method", req.Method)

	var (
		result any
		rpcErr *RPCError
	)
	switch req.Method {
	case "initialize":
		result = InitializeResult{
			ProtocolVersion: ProtocolVersion,
			Capabilities:    ServerCapabilities{Tools: &ToolsCapability{}},
			ServerInfo:      Implementation{Name: s.opts.Name, Version: s.opts.Version},
		}
	case "ping":
		result = struct{}{}
	case "tools/list":
		result = listToolsResult{Tools: s.schemas()}
	case "tools/call":
		var p callToolParams
		if err := json.Unmarshal(req.Params, &p); err != nil || p.Name == "" {
			rpcErr = &RPCError{Code: codeInvalidParams, Message: "Invalid tool call parameters"}
			break
		}
		t, ok := s.catalog.Lookup(p.Name)
		if !ok {
			rpcErr = &RPCError{Code: codeInvalidParams, Message: fmt.Sprintf("Unknown tool: %s", p.Name)}
			break
		}
		result = s.callTool(ctx, t, p.Arguments)
	default:
		rpcErr = &RPCError{Code: codeMethodNotFound, Message: fmt.Sprintf("Method not found: %s", req.Method)}
	}

	if rpcErr != nil {
		return response{JSONRPC: jsonrpcVersion, ID: req.ID, Error: rpcErr}
	}
	resp, err := newResult(req.ID, result)
	if err != nil {
		return newErrorResponse(req.ID, codeInternalError, err.Error())
	}
	return resp
}

func (s *Server) schemas() []ToolSchema {
	defs := s.catalog.Definitions()
	schemas := make([]ToolSchema, 0, len(defs))
	for _, d := range defs {
		params := d.Parameters
		if params == nil {
			params = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		schemas = append(schemas, ToolSchema{Name: d.Name, Description: d.Description, InputSchema: params})
	}
	return schemas
}

// callTool runs t and folds failures, including panics, into an IsError result.
func (s *Server) callTool(ctx context.Context, t tool.Tool, args map[string]any) (res CallToolResult) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("mcp.tool.panic", "tool", t.Name(), "panic", r)
			res = errorResult(fmt.Sprintf("tool %s panicked: %v", t.Name(), r))
		}
	}()

	if args == nil {
		args = map[string]any{}
	}
	contents, err := t.Call(ctx, args)
	s.log.Info("mcp.tool.call", "tool", t.Name(), "duration_ms", time.Since(start).Milliseconds(), "error", err != nil)
	if err != nil {
		msg := err.Error()
		var te *tool.ToolError
		if errors.As(err, &te) {
			msg = te.Message
		}
		return errorResult(msg)
	}
	return CallToolResult{Content: fromContent(contents)}
}

func errorResult(text string) CallToolResult {
	return CallToolResult{Content: []ContentBlock{{Type: "text", Text: text}}, IsError: true}
}
