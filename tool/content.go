package tool

import "strings"

// ContentKind discriminates the content items a tool may return.
type ContentKind string

const (
	// ContentText is plain text.
	ContentText ContentKind = "text"
	// ContentImage is binary image data; only its presence is surfaced to models.
	ContentImage ContentKind = "image"
	// ContentResource references an external resource by URI.
	ContentResource ContentKind = "resource"
)

// Content is one item of a tool result.
type Content struct {
	Kind     ContentKind `json:"type"`
	Text     string      `json:"text,omitempty"`
	Data     []byte      `json:"data,omitempty"`
	MIMEType string      `json:"mime_type,omitempty"`
	URI      string      `json:"uri,omitempty"`
}

// TextContent creates a text item.
func TextContent(text string) Content { return Content{Kind: ContentText, Text: text} }

// ImageContent creates an image item.
func ImageContent(data []byte, mimeType string) Content {
	return Content{Kind: ContentImage, Data: data, MIMEType: mimeType}
}

// ResourceContent creates a resource reference.
func ResourceContent(uri string) Content { return Content{Kind: ContentResource, URI: uri} }

// RenderText flattens content items into the single text handed to models.
// Items are concatenated without separator; images and resources become
// placeholders.
func RenderText(contents []Content) string {
	var b strings.Builder
	for _, c := range contents {
		switch c.Kind {
		case ContentText:
			b.WriteString(c.Text)
		case ContentImage:
			b.WriteString("[Image Content]")
		case ContentResource:
			b.WriteString("[Resource: ")
			b.WriteString(c.URI)
			b.WriteString("]")
		}
	}
	return b.String()
}
