package tools

import (
	"bytes"
	"encoding/json"
	"reflect"

	"github.com/cockroachdb/errors"
	"github.com/invopop/jsonschema"
	jsv "github.com/santhosh-tekuri/jsonschema/v6"
)

// JSONSchema returns the parameter schema for the given input type.
func JSONSchema(t reflect.Type) *jsonschema.Schema {
	// Draft-07 for the widest tooling support.
	jsonschema.Version = "http://json-schema.org/draft-07/schema#"

	r := new(jsonschema.Reflector)
	r.ExpandedStruct = true
	r.DoNotReference = true
	r.AllowAdditionalProperties = true

	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return r.ReflectFromType(t)
}

// compileSchema builds a validator from a generated parameter schema.
func compileSchema(schema *jsonschema.Schema) (*jsv.Schema, error) {
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal schema")
	}
	doc, err := jsv.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse schema")
	}
	c := jsv.NewCompiler()
	if err := c.AddResource("tool.json", doc); err != nil {
		return nil, errors.Wrap(err, "failed to add schema resource")
	}
	compiled, err := c.Compile("tool.json")
	if err != nil {
		return nil, errors.Wrap(err, "failed to compile schema")
	}
	return compiled, nil
}
