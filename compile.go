package kiwi

import (
	"errors"
	"fmt"
	"slices"
)

// defaultMaxDepth bounds document nesting during encode and decode.
// Deep enough for any sane document tree, small enough that a malicious
// stream of nested-message prefixes fails long before the goroutine
// stack does.
const defaultMaxDepth = 1000

// CompileOptions configures schema compilation.
type CompileOptions struct {
	// MaxDepth is the maximum nesting depth of documents this schema
	// will encode or decode. Values < 1 mean the default (1000).
	MaxDepth int
}

// CompileOption mutates CompileOptions.
type CompileOption func(*CompileOptions)

// WithMaxDepth sets the nesting limit for documents handled by the
// compiled schema. Exceeding it fails with [ErrRecursionLimit].
func WithMaxDepth(depth int) CompileOption {
	return func(opts *CompileOptions) {
		opts.MaxDepth = depth
	}
}

func applyCompileOptions(opts []CompileOption) CompileOptions {
	options := CompileOptions{MaxDepth: defaultMaxDepth}

	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	if options.MaxDepth < 1 {
		options.MaxDepth = defaultMaxDepth
	}

	return options
}

// CompiledSchema holds the validated schema and its per-definition
// codecs. It is immutable once built and safe for concurrent use; each
// Encode/Decode call keeps its cursor and depth state on the call stack.
type CompiledSchema struct {
	schema   *Schema
	maxDepth int
	defs     map[string]*compiledDef
}

// compiledDef is the runtime form of one definition: the lookup tables
// and field codecs the framer dispatches through.
type compiledDef struct {
	def    *Definition
	fields []compiledField

	// fieldByID indexes message fields by wire id.
	fieldByID map[uint32]*compiledField

	// enumByName and enumByValue are the two directions of an enum's
	// member table.
	enumByName  map[string]uint32
	enumByValue map[uint32]string
}

// compiledField pairs a field with its encode, decode, and skip
// procedures. The procedures forward nested definition references by
// name through the schema's table at call time, so recursive and
// mutually-referential schemas need no resolution order.
type compiledField struct {
	field *Field
	enc   encodeFunc
	dec   decodeFunc
	skip  skipFunc
}

// Compile parses schema text and compiles it in one step.
func Compile(text string, opts ...CompileOption) (*CompiledSchema, error) {
	schema, err := ParseSchema(text)
	if err != nil {
		return nil, err
	}

	return CompileSchema(schema, opts...)
}

// CompileSchema validates a schema and builds its codecs.
//
// Validation covers naming (duplicate or reserved definition names,
// duplicate field names, unresolved type references), enum members
// (non-negative, unique values), and message ids (positive, unique, no
// larger than the definition's field count, since ids must stay dense).
// Every violation is reported, not just the first; the returned error
// wraps one [ValidationError] per finding via [errors.Join].
//
// The schema is copied, so later mutation of the argument does not
// affect the compiled form.
func CompileSchema(schema *Schema, opts ...CompileOption) (*CompiledSchema, error) {
	if schema == nil {
		return nil, errors.New("kiwi: nil schema")
	}

	options := applyCompileOptions(opts)

	if err := validateSchema(schema); err != nil {
		return nil, err
	}

	cs := &CompiledSchema{
		schema:   cloneSchema(schema),
		maxDepth: options.MaxDepth,
		defs:     make(map[string]*compiledDef, len(schema.Definitions)),
	}

	// Enum tables first so nothing depends on build order.
	for i := range cs.schema.Definitions {
		d := &cs.schema.Definitions[i]
		cd := &compiledDef{def: d}

		if d.Kind == KindEnum {
			cd.enumByName = make(map[string]uint32, len(d.Fields))
			cd.enumByValue = make(map[uint32]string, len(d.Fields))

			for j := range d.Fields {
				f := &d.Fields[j]
				cd.enumByName[f.Name] = uint32(f.Value)
				cd.enumByValue[uint32(f.Value)] = f.Name
			}
		}

		cs.defs[d.Name] = cd
	}

	for _, cd := range cs.defs {
		d := cd.def

		if d.Kind == KindEnum {
			continue
		}

		cd.fields = make([]compiledField, len(d.Fields))

		for j := range d.Fields {
			f := &d.Fields[j]
			cf := &cd.fields[j]
			cf.field = f
			cf.enc, cf.dec, cf.skip = fieldCodec(f)
		}

		if d.Kind == KindMessage {
			cd.fieldByID = make(map[uint32]*compiledField, len(cd.fields))

			for j := range cd.fields {
				cd.fieldByID[uint32(cd.fields[j].field.Value)] = &cd.fields[j]
			}
		}
	}

	return cs, nil
}

// Schema returns the compiled schema's definition list. Treat it as
// read-only; the codecs alias it.
func (cs *CompiledSchema) Schema() *Schema {
	return cs.schema
}

// Definition returns the named definition, or nil. Treat it as
// read-only.
func (cs *CompiledSchema) Definition(name string) *Definition {
	return cs.schema.Definition(name)
}

// MaxDepth returns the nesting limit the schema was compiled with.
func (cs *CompiledSchema) MaxDepth() int {
	return cs.maxDepth
}

func cloneSchema(s *Schema) *Schema {
	out := &Schema{
		Package:     s.Package,
		Definitions: slices.Clone(s.Definitions),
	}

	for i := range out.Definitions {
		out.Definitions[i].Fields = slices.Clone(s.Definitions[i].Fields)
	}

	return out
}

// reservedNames cannot be used as definition names; generated bindings
// claim them.
var reservedNames = []string{"ByteBuffer", "package"}

func validateSchema(schema *Schema) error {
	var errs []error

	verr := func(line, column int, format string, args ...any) {
		errs = append(errs, &ValidationError{
			Line:   line,
			Column: column,
			Msg:    fmt.Sprintf(format, args...),
		})
	}

	defined := make(map[string]bool, len(schema.Definitions))

	for i := range schema.Definitions {
		d := &schema.Definitions[i]

		switch {
		case primitiveIndex(d.Name) >= 0:
			verr(d.Line, d.Column, "type %q shadows a primitive type", d.Name)
		case slices.Contains(reservedNames, d.Name):
			verr(d.Line, d.Column, "%q is a reserved type name", d.Name)
		case defined[d.Name]:
			verr(d.Line, d.Column, "type %q is defined twice", d.Name)
		}

		defined[d.Name] = true
	}

	for i := range schema.Definitions {
		d := &schema.Definitions[i]

		names := make(map[string]bool, len(d.Fields))
		values := make(map[int32]bool, len(d.Fields))

		for j := range d.Fields {
			f := &d.Fields[j]

			if names[f.Name] {
				verr(f.Line, f.Column, "field %q is declared twice in %q", f.Name, d.Name)
			}

			names[f.Name] = true

			if f.IsDeprecated && d.Kind != KindMessage {
				verr(f.Line, f.Column, "only message fields can be deprecated")
			}

			switch d.Kind {
			case KindEnum:
				if f.Type != "" {
					verr(f.Line, f.Column, "enum member %q must not declare a type", f.Name)
				}

				if f.IsArray {
					verr(f.Line, f.Column, "enum member %q cannot be an array", f.Name)
				}

				if f.Value < 0 {
					verr(f.Line, f.Column, "enum member %q has a negative value", f.Name)
				} else if values[f.Value] {
					verr(f.Line, f.Column, "value %d is used twice in enum %q", f.Value, d.Name)
				}

				values[f.Value] = true

			case KindStruct:
				if f.Value != 0 {
					verr(f.Line, f.Column, "struct field %q cannot declare a value", f.Name)
				}

				validateFieldType(f, defined, verr)

			case KindMessage:
				switch {
				case f.Value <= 0:
					verr(f.Line, f.Column, "field %q must have a positive id", f.Name)
				case values[f.Value]:
					verr(f.Line, f.Column, "id %d is used twice in message %q", f.Value, d.Name)
				case int(f.Value) > len(d.Fields):
					// Ids must stay dense: within 1..fieldCount.
					verr(f.Line, f.Column, "id %d for field %q is larger than the field count %d", f.Value, f.Name, len(d.Fields))
				}

				values[f.Value] = true

				validateFieldType(f, defined, verr)
			}
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

func validateFieldType(f *Field, defined map[string]bool, verr func(int, int, string, ...any)) {
	if primitiveIndex(f.Type) >= 0 || defined[f.Type] {
		return
	}

	verr(f.Line, f.Column, "field %q has unknown type %q", f.Name, f.Type)
}
