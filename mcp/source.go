package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/agentloop/logging"
	"github.com/hupe1980/agentloop/tool"
)

// ErrUnavailable wraps every failure to reach the tool server.
var ErrUnavailable = errors.New("MCP server unavailable")

// SourceOptions configures a Source.
type SourceOptions struct {
	// ConnectTimeout bounds connect, handshake and tool discovery.
	ConnectTimeout time.Duration
	Client         []func(o *ClientOptions)
	Logger         logging.Logger
}

// Source discovers tools from a remote MCP server with a fresh session per
// run. Its Catalog method satisfies runner.CatalogSource.
type Source struct {
	url  string
	opts SourceOptions
	log  logging.Logger
}

// NewSource creates a source for the SSE endpoint at sseURL.
func NewSource(sseURL string, optFns ...func(o *SourceOptions)) *Source {
	opts := SourceOptions{ConnectTimeout: 10 * time.Second}
	for _, fn := range optFns {
		fn(&opts)
	}
	log := logging.OrNoOp(opts.Logger)
	if sl, ok := log.(*logging.StructuredLogger); ok {
		log = sl.WithComponent("mcp")
	}
	return &Source{url: sseURL, opts: opts, log: log}
}

// Catalog opens a session, lists the server's tools and returns them as a
// catalog. The session is closed when ctx is done, so ctx should span the
// run that uses the catalog.
func (s *Source) Catalog(ctx context.Context) (*tool.Catalog, error) {
	connectCtx := ctx
	if s.opts.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		connectCtx, cancel = context.WithTimeout(ctx, s.opts.ConnectTimeout)
		defer cancel()
	}

	s.log.Info("mcp.source.connect", "url", s.url)
	clientFns := append([]func(o *ClientOptions){func(o *ClientOptions) { o.Logger = s.log }}, s.opts.Client...)
	client, err := Connect(connectCtx, s.url, clientFns...)
	if err != nil {
		s.log.Error("mcp.source.unavailable", "url", s.url, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	schemas, err := client.ListTools(connectCtx)
	if err != nil {
		_ = client.Close()
		s.log.Error("mcp.source.unavailable", "url", s.url, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	tools := make([]tool.Tool, 0, len(schemas))
	for _, schema := range schemas {
		tools = append(tools, &remoteTool{client: client, schema: schema})
	}
	catalog, err := tool.NewCatalog(tools...)
	if err != nil {
		_ = client.Close()
		return nil, err
	}

	context.AfterFunc(ctx, func() { _ = client.Close() })
	s.log.Debug("mcp.source.ready", "tools", catalog.Len(), "server", client.ServerInfo().ServerInfo.Name)
	return catalog, nil
}

// remoteTool adapts a server tool to tool.Tool.
type remoteTool struct {
	client *Client
	schema ToolSchema
}

func (t *remoteTool) Name() string        { return t.schema.Name }
func (t *remoteTool) Description() string { return t.schema.Description }

func (t *remoteTool) Parameters() map[string]any {
	if t.schema.InputSchema == nil {
		return map[string]any{"type": "object", "properties": map[string]any{}}
	}
	return t.schema.InputSchema
}

// Call invokes the remote tool. Transport failures and IsError results become
// *tool.ToolError values with CodeExecution.
func (t *remoteTool) Call(ctx context.Context, args map[string]any) ([]tool.Content, error) {
	res, err := t.client.CallTool(ctx, t.schema.Name, args)
	if err != nil {
		return nil, &tool.ToolError{Tool: t.schema.Name, Message: err.Error(), Code: tool.CodeExecution, Details: err}
	}
	contents := toContent(res.Content)
	if res.IsError {
		return nil, tool.NewToolError(t.schema.Name, tool.RenderText(contents), tool.CodeExecution)
	}
	return contents, nil
}
