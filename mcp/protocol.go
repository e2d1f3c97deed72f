package mcp

import (
	"encoding/base64"

	"github.com/hupe1980/agentloop/tool"
)

// ProtocolVersion is the MCP revision spoken over the HTTP+SSE transport.
const ProtocolVersion = "2024-11-05"

// Implementation names a client or server in the initialize handshake.
type Implementation struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type initializeParams struct {
	ProtocolVersion string         `json:"protocolVersion"`
	Capabilities    map[string]any `json:"capabilities"`
	ClientInfo      Implementation `json:"clientInfo"`
}

// ToolsCapability advertises tool support.
type ToolsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

// ServerCapabilities lists what a server supports.
type ServerCapabilities struct {
	Tools *ToolsCapability `json:"tools,omitempty"`
}

// InitializeResult is the server's answer to initialize.
type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      Implementation     `json:"serverInfo"`
}

// ToolSchema describes one remote tool.
type ToolSchema struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"inputSchema"`
}

type listToolsParams struct {
	Cursor string `json:"cursor,omitempty"`
}

type listToolsResult struct {
	Tools      []ToolSchema `json:"tools"`
	NextCursor string       `json:"nextCursor,omitempty"`
}

type callToolParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// CallToolResult is the outcome of tools/call. IsError marks a tool level
// failure whose content describes the error.
type CallToolResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

// ContentBlock is one item of a tool result on the wire.
type ContentBlock struct {
	Type     string            `json:"type"`
	Text     string            `json:"text,omitempty"`
	Data     string            `json:"data,omitempty"`
	MimeType string            `json:"mimeType,omitempty"`
	Resource *ResourceContents `json:"resource,omitempty"`
}

// ResourceContents is an embedded resource.
type ResourceContents struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
}

func fromContent(contents []tool.Content) []ContentBlock {
	blocks := make([]ContentBlock, 0, len(contents))
	for _, c := range contents {
		switch c.Kind {
		case tool.ContentImage:
			blocks = append(blocks, ContentBlock{
				Type:     "image",
				Data:     base64.StdEncoding.EncodeToString(c.Data),
				MimeType: c.MIMEType,
			})
		case tool.ContentResource:
			blocks = append(blocks, ContentBlock{
				Type:     "resource",
				Resource: &ResourceContents{URI: c.URI, MimeType: c.MIMEType, Text: c.Text},
			})
		default:
			blocks = append(blocks, ContentBlock{Type: "text", Text: c.Text})
		}
	}
	return blocks
}

// toContent converts wire blocks into tool content. Undecodable image data is
// kept empty; only the presence of an image reaches the model.
func toContent(blocks []ContentBlock) []tool.Content {
	contents := make([]tool.Content, 0, len(blocks))
	for _, b := range blocks {
		switch b.Type {
		case "text":
			contents = append(contents, tool.TextContent(b.Text))
		case "image":
			data, _ := base64.StdEncoding.DecodeString(b.Data)
			contents = append(contents, tool.ImageContent(data, b.MimeType))
		case "resource":
			c := tool.ResourceContent("")
			if b.Resource != nil {
				c.URI = b.Resource.URI
				c.MIMEType = b.Resource.MimeType
				c.Text = b.Resource.Text
			}
			contents = append(contents, c)
		}
	}
	return contents
}
