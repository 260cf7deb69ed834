// Package catalog converts discovered MCP tool descriptors into the bounded
// function-calling catalog advertised to an LLM orchestrator, and builds the
// matching dispatch table of invocable wrappers.
package catalog

import (
	"github.com/cockroachdb/errors"
	"github.com/effective-security/mcpbridge/mcp"
	"github.com/effective-security/x/slices"
	"github.com/effective-security/x/values"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// MaxParameters is the orchestrator's hard limit on function arity. Tools
// whose schema declares more parameters are rejected at registration time,
// never truncated.
const MaxParameters = 5

// ParameterDetail describes one parameter of a function definition.
type ParameterDetail struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required"`
}

// FunctionDefinition is a bounded-arity tool descriptor suitable for an LLM
// function-calling catalog.
type FunctionDefinition struct {
	Name        string                     `json:"name"`
	Description string                     `json:"description,omitempty"`
	Parameters  map[string]ParameterDetail `json:"parameters,omitempty"`
}

// Catalog is an insertion-ordered set of function definitions. It is written
// once at capability-source connection time and read-only afterwards.
type Catalog struct {
	defs *orderedmap.OrderedMap[string, *FunctionDefinition]
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		defs: orderedmap.New[string, *FunctionDefinition](),
	}
}

// Add registers a function definition. It fails if the definition exceeds
// MaxParameters or if the name is already registered.
func (c *Catalog) Add(def *FunctionDefinition) error {
	if len(def.Parameters) > MaxParameters {
		return errors.Errorf("tool %q has %d parameters, the catalog allows at most %d",
			def.Name, len(def.Parameters), MaxParameters)
	}
	if _, ok := c.defs.Get(def.Name); ok {
		return errors.Errorf("tool %q is already registered", def.Name)
	}
	c.defs.Set(def.Name, def)
	return nil
}

// Get returns the definition for the given name.
func (c *Catalog) Get(name string) (*FunctionDefinition, bool) {
	return c.defs.Get(name)
}

// Len returns the number of registered definitions.
func (c *Catalog) Len() int {
	return c.defs.Len()
}

// Definitions returns all definitions in registration order.
func (c *Catalog) Definitions() []*FunctionDefinition {
	res := make([]*FunctionDefinition, 0, c.defs.Len())
	for pair := c.defs.Oldest(); pair != nil; pair = pair.Next() {
		res = append(res, pair.Value)
	}
	return res
}

// BuildCatalog converts discovered tools into a catalog. An empty filter
// includes every tool; a non-empty filter restricts inclusion to the named
// ones.
func BuildCatalog(tools []mcp.Tool, filter []string) (*Catalog, error) {
	c := NewCatalog()
	for _, tool := range tools {
		if len(filter) > 0 && !slices.Contains(filter, tool.Name) {
			continue
		}
		def := DefinitionFromTool(&tool)
		if err := c.Add(def); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// DefinitionFromTool converts one discovered tool descriptor into a function
// definition. A parameter with no declared type defaults to "string"; a
// parameter is required iff it appears in the schema's required list.
func DefinitionFromTool(tool *mcp.Tool) *FunctionDefinition {
	def := &FunctionDefinition{
		Name: tool.Name,
	}
	if tool.Description != nil {
		def.Description = *tool.Description
	}

	if len(tool.InputSchema.Properties) > 0 {
		def.Parameters = make(map[string]ParameterDetail, len(tool.InputSchema.Properties))
		for name, prop := range tool.InputSchema.Properties {
			if prop == nil {
				prop = &mcp.SchemaProperty{}
			}
			def.Parameters[name] = ParameterDetail{
				Type:        values.StringsCoalesce(prop.Type, "string"),
				Description: prop.Description,
				Required:    slices.Contains(tool.InputSchema.Required, name),
			}
		}
	}
	return def
}
