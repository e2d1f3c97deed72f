package tool

import (
	"context"
	"fmt"
	"sort"
)

// Definition is the model facing description of a tool.
type Definition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Catalog is an ordered, read-only set of tools keyed by name.
type Catalog struct {
	order []string
	tools map[string]Tool
}

// NewCatalog builds a Catalog preserving the registration order of tools.
// Duplicate or empty names are rejected.
func NewCatalog(tools ...Tool) (*Catalog, error) {
	c := &Catalog{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		if t == nil {
			return nil, fmt.Errorf("catalog: nil tool")
		}
		name := t.Name()
		if name == "" {
			return nil, fmt.Errorf("catalog: tool with empty name")
		}
		if _, exists := c.tools[name]; exists {
			return nil, fmt.Errorf("catalog: duplicate tool %q", name)
		}
		c.tools[name] = t
		c.order = append(c.order, name)
	}
	return c, nil
}

// MustCatalog is like NewCatalog but panics on error.
func MustCatalog(tools ...Tool) *Catalog {
	c, err := NewCatalog(tools...)
	if err != nil {
		panic(err)
	}
	return c
}

// Len returns the number of tools.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}

// Names returns tool names in registration order.
func (c *Catalog) Names() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.order...)
}

// SortedNames returns tool names alphabetically.
func (c *Catalog) SortedNames() []string {
	names := c.Names()
	sort.Strings(names)
	return names
}

// Lookup returns the tool registered under name.
func (c *Catalog) Lookup(name string) (Tool, bool) {
	if c == nil {
		return nil, false
	}
	t, ok := c.tools[name]
	return t, ok
}

// Definitions returns the model facing definitions in registration order.
func (c *Catalog) Definitions() []Definition {
	if c == nil {
		return nil
	}
	defs := make([]Definition, 0, len(c.order))
	for _, name := range c.order {
		t := c.tools[name]
		defs = append(defs, Definition{Name: name, Description: t.Description(), Parameters: t.Parameters()})
	}
	return defs
}

// Call looks up and invokes a tool. An unknown name yields a *ToolError with
// CodeNotFound.
func (c *Catalog) Call(ctx context.Context, name string, args map[string]any) ([]Content, error) {
	t, ok := c.Lookup(name)
	if !ok {
		return nil, NewToolError(name, fmt.Sprintf("tool %q not found", name), CodeNotFound)
	}
	return t.Call(ctx, args)
}
