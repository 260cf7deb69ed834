package catalog

import (
	"reflect"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/x/slices"
	"github.com/invopop/jsonschema"
)

// DefinitionFromStruct derives a function definition from a Go struct type,
// for registering in-process tools alongside remote ones. Parameter names,
// types and descriptions come from the struct's json and jsonschema tags.
// The MaxParameters bound applies the same as for discovered tools.
func DefinitionFromStruct(name, description string, t reflect.Type) (*FunctionDefinition, error) {
	r := new(jsonschema.Reflector)
	schema := r.ReflectFromType(t)

	root := resolveRoot(schema)
	if root == nil {
		return nil, errors.Errorf("tool %q: unable to resolve schema for %s", name, t.String())
	}

	def := &FunctionDefinition{
		Name:        name,
		Description: description,
	}

	if root.Properties != nil && root.Properties.Len() > 0 {
		def.Parameters = make(map[string]ParameterDetail, root.Properties.Len())
		for pair := root.Properties.Oldest(); pair != nil; pair = pair.Next() {
			prop := pair.Value
			typ := prop.Type
			if typ == "" {
				typ = "string"
			}
			def.Parameters[pair.Key] = ParameterDetail{
				Type:        typ,
				Description: prop.Description,
				Required:    slices.Contains(root.Required, pair.Key),
			}
		}
	}

	if len(def.Parameters) > MaxParameters {
		return nil, errors.Errorf("tool %q has %d parameters, the catalog allows at most %d",
			name, len(def.Parameters), MaxParameters)
	}
	return def, nil
}

// resolveRoot follows the reflector's top-level $ref into $defs.
func resolveRoot(schema *jsonschema.Schema) *jsonschema.Schema {
	if schema.Ref == "" {
		return schema
	}
	name := strings.TrimPrefix(schema.Ref, "#/$defs/")
	if def, ok := schema.Definitions[name]; ok {
		return def
	}
	return nil
}
