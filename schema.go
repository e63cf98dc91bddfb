package kiwi

// Kind classifies a schema definition.
type Kind uint8

// Definition kinds. The numeric values are the wire codes used by the
// binary schema format and must not be reordered.
const (
	// KindEnum is a named set of uint constants.
	KindEnum Kind = iota

	// KindStruct has all fields required, encoded positionally in
	// declaration order. Structs can never add or remove fields again.
	KindStruct

	// KindMessage has all fields optional, encoded as id-tagged values
	// behind a zero terminator. Messages may grow new fields over time.
	KindMessage
)

func (k Kind) String() string {
	switch k {
	case KindEnum:
		return "enum"
	case KindStruct:
		return "struct"
	case KindMessage:
		return "message"
	default:
		return "unknown"
	}
}

// Primitive field type names.
const (
	TypeBool   = "bool"
	TypeByte   = "byte"
	TypeInt    = "int"
	TypeUint   = "uint"
	TypeFloat  = "float"
	TypeString = "string"
	TypeInt64  = "int64"
	TypeUint64 = "uint64"
)

// primitiveNames lists the primitives in binary-format order: the wire
// code for primitiveNames[i] is ^i (bool = -1, byte = -2, ...).
var primitiveNames = [...]string{
	TypeBool,
	TypeByte,
	TypeInt,
	TypeUint,
	TypeFloat,
	TypeString,
	TypeInt64,
	TypeUint64,
}

// primitiveIndex maps a primitive type name to its position in
// [primitiveNames], or -1 when name is not a primitive.
func primitiveIndex(name string) int {
	for i, p := range primitiveNames {
		if p == name {
			return i
		}
	}

	return -1
}

// Field is one declaration inside a definition.
//
// For enum members, Type is empty and Value is the member's constant.
// For struct fields, Value is zero. For message fields, Value is the
// field id used on the wire.
type Field struct {
	// Name is the field name, unique within its definition.
	Name string

	// Type is a primitive name or the name of another definition in the
	// same schema. Empty for enum members.
	Type string

	// IsArray marks a []-typed field.
	IsArray bool

	// IsDeprecated marks a message field that is skipped on encode and
	// consumed-then-discarded on decode. Only message fields may carry
	// it.
	IsDeprecated bool

	// Value holds the message field id or the enum member value.
	Value int32

	// Line and Column locate the declaration in the schema text,
	// 1-based. Zero for schemas built programmatically.
	Line   int
	Column int
}

// Definition is one named enum, struct, or message.
type Definition struct {
	Name   string
	Kind   Kind
	Fields []Field

	Line   int
	Column int
}

// Schema is the parsed intermediate form of a schema: an ordered list of
// definitions, as written, before any validation. Compile it with
// [CompileSchema] to obtain working codecs.
type Schema struct {
	// Package is the optional package name from a leading
	// "package Name;" declaration. Informational only; the binary
	// schema format does not carry it.
	Package string

	Definitions []Definition
}

// Definition returns the named definition, or nil.
func (s *Schema) Definition(name string) *Definition {
	for i := range s.Definitions {
		if s.Definitions[i].Name == name {
			return &s.Definitions[i]
		}
	}

	return nil
}
