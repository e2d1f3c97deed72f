package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/agentloop/logging"
)

// maxEventSize bounds one SSE line.
const maxEventSize = 8 << 20

// ErrClosed is returned by calls on a closed client.
var ErrClosed = errors.New("mcp: client closed")

// ClientOptions configures a Client.
type ClientOptions struct {
	// HTTPClient carries the event stream and the posted messages. It must not
	// set a Timeout since the stream lives as long as the session.
	HTTPClient *http.Client
	ClientInfo Implementation
	Logger     logging.Logger
}

// Client is one MCP session over the HTTP+SSE transport. Requests are posted
// to the endpoint announced by the server and answered on the event stream.
// A Client is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	opts       ClientOptions
	log        logging.Logger

	endpoint string
	info     InitializeResult

	nextID  atomic.Int64
	mu      sync.Mutex
	pending map[string]chan response

	cancel  context.CancelFunc
	done    chan struct{}
	closed  atomic.Bool
	errMu   sync.Mutex
	loopErr error
}

// Connect opens the event stream at sseURL and runs the initialize handshake.
// ctx bounds the handshake only; the session lives until Close.
func Connect(ctx context.Context, sseURL string, optFns ...func(o *ClientOptions)) (*Client, error) {
	opts := ClientOptions{
		HTTPClient: &http.Client{},
		ClientInfo: Implementation{Name: "agentloop", Version: "1.0.0"},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	base, err := url.Parse(sseURL)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", sseURL, err)
	}

	streamCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, sseURL, nil)
	if err != nil {
		cancel()
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	resp, err := opts.HTTPClient.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("connect %s: %w", sseURL, err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("connect %s: unexpected status %s", sseURL, resp.Status)
	}

	c := &Client{
		httpClient: opts.HTTPClient,
		opts:       opts,
		log:        logging.OrNoOp(opts.Logger),
		pending:    make(map[string]chan response),
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	endpoint := make(chan string, 1)
	go c.readLoop(resp.Body, endpoint)

	select {
	case ep := <-endpoint:
		u, err := base.Parse(ep)
		if err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("endpoint %q: %w", ep, err)
		}
		c.endpoint = u.String()
	case <-c.done:
		cancel()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("connect %s: %w", sseURL, c.err())
	case <-ctx.Done():
		_ = c.Close()
		return nil, ctx.Err()
	}

	if err := c.initialize(ctx); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("initialize: %w", err)
	}
	c.log.Debug("mcp.client.connected", "endpoint", c.endpoint, "server", c.info.ServerInfo.Name)
	return c, nil
}

// ServerInfo returns the server's initialize result.
func (c *Client) ServerInfo() InitializeResult { return c.info }

// Close ends the session and waits for the event stream to stop. Close is
// idempotent.
func (c *Client) Close() error {
	c.closed.Store(true)
	c.cancel()
	<-c.done
	return nil
}

// Ping checks that the server is responsive.
func (c *Client) Ping(ctx context.Context) error {
	return c.call(ctx, "ping", nil, nil)
}

// ListTools returns every tool of the server, following pagination cursors.
func (c *Client) ListTools(ctx context.Context) ([]ToolSchema, error) {
	var (
		tools  []ToolSchema
		cursor string
	)
	for {
		var params any
		if cursor != "" {
			params = listToolsParams{Cursor: cursor}
		}
		var res listToolsResult
		if err := c.call(ctx, "tools/list", params, &res); err != nil {
			return nil, fmt.Errorf("tools/list: %w", err)
		}
		tools = append(tools, res.Tools...)
		if res.NextCursor == "" || res.NextCursor == cursor {
			return tools, nil
		}
		cursor = res.NextCursor
	}
}

// CallTool invokes a remote tool. A tool level failure is reported through
// CallToolResult.IsError, not as an error.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (*CallToolResult, error) {
	var res CallToolResult
	if err := c.call(ctx, "tools/call", callToolParams{Name: name, Arguments: args}, &res); err != nil {
		return nil, fmt.Errorf("tools/call %s: %w", name, err)
	}
	return &res, nil
}

func (c *Client) initialize(ctx context.Context) error {
	params := initializeParams{
		ProtocolVersion: ProtocolVersion,
		Capabilities:    map[string]any{},
		ClientInfo:      c.opts.ClientInfo,
	}
	if err := c.call(ctx, "initialize", params, &c.info); err != nil {
		return err
	}
	if c.info.ProtocolVersion != ProtocolVersion {
		c.log.Warn("mcp.client.protocol_mismatch", "client", ProtocolVersion, "server", c.info.ProtocolVersion)
	}
	return c.post(ctx, request{JSONRPC: jsonrpcVersion, Method: "notifications/initialized"})
}

func (c *Client) call(ctx context.Context, method string, params, out any) error {
	req := request{
		JSONRPC: jsonrpcVersion,
		ID:      json.RawMessage(strconv.FormatInt(c.nextID.Add(1), 10)),
		Method:  method,
	}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return err
		}
		req.Params = raw
	}

	key := idKey(req.ID)
	ch := make(chan response, 1)
	c.mu.Lock()
	c.pending[key] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, key)
		c.mu.Unlock()
	}()

	if err := c.post(ctx, req); err != nil {
		return err
	}

	select {
	case resp := <-ch:
		if resp.Error != nil {
			return resp.Error
		}
		if out == nil || len(resp.Result) == 0 {
			return nil
		}
		return json.Unmarshal(resp.Result, out)
	case <-c.done:
		return c.err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) post(ctx context.Context, msg request) error {
	select {
	case <-c.done:
		return c.err()
	default:
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", msg.Method, err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("post %s: unexpected status %s", msg.Method, resp.Status)
	}
	return nil
}

// readLoop parses the event stream until it ends. The first endpoint event is
// handed to Connect; message events are routed to their pending call.
func (c *Client) readLoop(body io.ReadCloser, endpoint chan<- string) {
	defer close(c.done)
	defer func() { _ = body.Close() }()

	sc := bufio.NewScanner(body)
	sc.Buffer(make([]byte, 0, 64*1024), maxEventSize)

	var (
		event string
		data  strings.Builder
	)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case line == "":
			if event != "" || data.Len() > 0 {
				c.dispatch(event, data.String(), endpoint)
			}
			event = ""
			data.Reset()
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}

	err := sc.Err()
	if err == nil {
		err = io.EOF
	}
	c.errMu.Lock()
	c.loopErr = fmt.Errorf("event stream ended: %w", err)
	c.errMu.Unlock()
}

func (c *Client) dispatch(event, data string, endpoint chan<- string) {
	switch event {
	case "endpoint":
		select {
		case endpoint <- data:
		default:
		}
	case "message", "":
		var msg struct {
			response
			Method string `json:"method"`
		}
		if err := json.Unmarshal([]byte(data), &msg); err != nil {
			c.log.Warn("mcp.client.bad_message", "error", err)
			return
		}
		if msg.Method != "" || len(msg.ID) == 0 {
			c.log.Debug("mcp.client.server_message", "method", msg.Method)
			return
		}
		c.mu.Lock()
		ch, ok := c.pending[idKey(msg.ID)]
		delete(c.pending, idKey(msg.ID))
		c.mu.Unlock()
		if ok {
			ch <- msg.response
		}
	}
}

// err reports why the session ended.
func (c *Client) err() error {
	if c.closed.Load() {
		return ErrClosed
	}
	c.errMu.Lock()
	defer c.errMu.Unlock()
	if c.loopErr == nil {
		return ErrClosed
	}
	return c.loopErr
}
