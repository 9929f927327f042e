package tools

import (
	"strings"

	"github.com/FellowTraveler/opengpts/errors"
)

// Catalog is the ordered set of tools offered to the model. Names are unique.
type Catalog struct {
	tools  []Tool
	byName map[string]Tool
}

// NewCatalog builds a catalog, rejecting duplicate or empty names.
func NewCatalog(ts ...Tool) (*Catalog, error) {
	c := &Catalog{byName: make(map[string]Tool, len(ts))}
	for _, t := range ts {
		name := t.Name()
		if name == "" {
			return nil, errors.New("tool with empty name")
		}
		if _, dup := c.byName[name]; dup {
			return nil, errors.New("duplicate tool name '%s'", name)
		}
		c.byName[name] = t
		c.tools = append(c.tools, t)
	}
	return c, nil
}

// Lookup resolves a tool by exact name.
func (c *Catalog) Lookup(name string) (Tool, bool) {
	t, ok := c.byName[name]
	return t, ok
}

// Tools returns the tools in catalog order.
func (c *Catalog) Tools() []Tool {
	out := make([]Tool, len(c.tools))
	copy(out, c.tools)
	return out
}

func (c *Catalog) Len() int { return len(c.tools) }

// Names returns the tool names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.tools))
	for i, t := range c.tools {
		names[i] = t.Name()
	}
	return names
}

// Describe renders one "name: description" line per tool.
func (c *Catalog) Describe() string {
	lines := make([]string, len(c.tools))
	for i, t := range c.tools {
		lines[i] = t.Name() + ": " + t.Description()
	}
	return strings.Join(lines, "\n")
}
