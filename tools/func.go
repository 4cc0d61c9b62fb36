package tools

import (
	"context"
	"encoding/json"
	"reflect"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	jsv "github.com/santhosh-tekuri/jsonschema/v6"
)

// Func is a Tool built from a typed Go function. The parameter schema is
// generated from the input type; incoming arguments are validated against
// it before the function runs.
type Func[I any, O any] struct {
	name        string
	description string
	parameters  *jsonschema.Schema
	compiled    *jsv.Schema
	validate    *validator.Validate
	fn          func(context.Context, *I) (*O, error)
}

var _ ITool = (*Func[struct{}, struct{}])(nil)

// NewFunc creates a typed tool from the given function.
// It fails if the schema for the input type cannot be generated.
func NewFunc[I any, O any](name, description string, fn func(context.Context, *I) (*O, error)) (*Func[I, O], error) {
	var in I
	schema := JSONSchema(reflect.TypeOf(in))
	compiled, err := compileSchema(schema)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to build schema for tool %s", name)
	}
	return &Func[I, O]{
		name:        name,
		description: description,
		parameters:  schema,
		compiled:    compiled,
		validate:    validator.New(),
		fn:          fn,
	}, nil
}

// MustFunc is like NewFunc but panics on schema generation failure.
// Intended for tools built from static types at startup.
func MustFunc[I any, O any](name, description string, fn func(context.Context, *I) (*O, error)) *Func[I, O] {
	t, err := NewFunc(name, description, fn)
	if err != nil {
		panic(err)
	}
	return t
}

// Name returns the name of the Tool.
func (f *Func[I, O]) Name() string {
	return f.name
}

// Description returns the description of the tool, to be used in the prompt.
func (f *Func[I, O]) Description() string {
	return f.description
}

// Parameters returns the parameters definition of the tool input.
func (f *Func[I, O]) Parameters() any {
	return f.parameters
}

// Run executes the tool with an already-typed input, bypassing argument parsing.
func (f *Func[I, O]) Run(ctx context.Context, req *I) (*O, error) {
	out, err := f.fn(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, errors.Mark(err, ErrExecutionFailed)
	}
	return out, nil
}

// Call executes the tool with the given JSON input and renders the result.
func (f *Func[I, O]) Call(ctx context.Context, input string) (string, error) {
	req, err := f.parseInput(input)
	if err != nil {
		return "", err
	}
	out, err := f.Run(ctx, req)
	if err != nil {
		return "", err
	}
	if out == nil {
		return "", nil
	}
	return ReturnValueAsString(*out), nil
}

// parseInput validates the raw arguments against the generated schema,
// then unmarshals and runs struct-tag validation.
func (f *Func[I, O]) parseInput(input string) (*I, error) {
	doc, err := jsv.UnmarshalJSON(strings.NewReader(input))
	if err != nil {
		return nil, errors.Mark(errors.WithMessagef(err, "tool %s", f.name), ErrInvalidArguments)
	}
	if err := f.compiled.Validate(doc); err != nil {
		return nil, errors.Mark(errors.WithMessagef(err, "tool %s", f.name), ErrInvalidArguments)
	}

	var req I
	if err := json.Unmarshal([]byte(input), &req); err != nil {
		return nil, errors.Mark(errors.WithMessagef(err, "tool %s", f.name), ErrInvalidArguments)
	}
	if reflect.TypeOf(req).Kind() == reflect.Struct {
		if err := f.validate.Struct(&req); err != nil {
			return nil, errors.Mark(errors.WithMessagef(err, "tool %s", f.name), ErrInvalidArguments)
		}
	}
	return &req, nil
}
