package kiwi

import (
	"errors"
	"fmt"
	"math"
	"sync"
)

// The binary schema format is the schema language applied to itself: a
// BinarySchema struct holding definitions, each holding fields. Running
// this meta schema through the ordinary struct framer reproduces the
// format byte for byte, so there is no bespoke wire logic to drift out
// of sync.
const metaSchemaText = `
struct BinaryField {
  string name;
  int type;
  byte flags;
  uint value;
}

struct BinaryDefinition {
  string name;
  byte kind;
  BinaryField[] fields;
}

struct BinarySchema {
  BinaryDefinition[] definitions;
}
`

// metaSchema compiles the schema of schemas once, on first use.
var metaSchema = sync.OnceValue(func() *CompiledSchema {
	cs, err := Compile(metaSchemaText)
	if err != nil {
		panic("kiwi: meta schema does not compile: " + err.Error())
	}

	return cs
})

// Field flag bits. Other kiwi readers mask bit 0 only, so carrying the
// deprecated marker in bit 1 stays invisible to them.
const (
	flagArray      = 1 << 0
	flagDeprecated = 1 << 1
)

// EncodeBinarySchema serializes a schema to the compact binary form
// used where schema text would be wasteful, such as embedded in data
// files next to the documents they describe.
//
// The schema is validated first; an invalid schema returns the same
// joined [ValidationError]s as [CompileSchema]. The package name is not
// carried by the binary form.
//
// Field types are encoded as signed codes: ^i for the i-th primitive,
// or the index of the referenced definition. Forward references encode
// naturally since indices cover the whole definition list.
func EncodeBinarySchema(schema *Schema) ([]byte, error) {
	if schema == nil {
		return nil, errors.New("kiwi: nil schema")
	}

	if err := validateSchema(schema); err != nil {
		return nil, err
	}

	defIndex := make(map[string]int32, len(schema.Definitions))
	for i := range schema.Definitions {
		defIndex[schema.Definitions[i].Name] = int32(i)
	}

	defs := make([]any, len(schema.Definitions))

	for i := range schema.Definitions {
		d := &schema.Definitions[i]

		fields := make([]any, len(d.Fields))

		for j := range d.Fields {
			f := &d.Fields[j]

			// Enum members carry no type and write code 0.
			var typeCode int32
			if d.Kind != KindEnum {
				if idx := primitiveIndex(f.Type); idx >= 0 {
					typeCode = int32(^idx)
				} else {
					typeCode = defIndex[f.Type]
				}
			}

			var flags uint8
			if f.IsArray {
				flags |= flagArray
			}

			if f.IsDeprecated {
				flags |= flagDeprecated
			}

			fields[j] = Document{
				"name":  f.Name,
				"type":  typeCode,
				"flags": flags,
				"value": uint32(f.Value),
			}
		}

		defs[i] = Document{
			"name":   d.Name,
			"kind":   uint8(d.Kind),
			"fields": fields,
		}
	}

	return metaSchema().Encode("BinarySchema", Document{"definitions": defs})
}

// DecodeBinarySchema parses the binary schema form back into the
// intermediate representation. Positions are zero since there is no
// source text. The result is not validated beyond structural soundness;
// run it through [CompileSchema] to obtain codecs.
func DecodeBinarySchema(data []byte) (*Schema, error) {
	doc, err := metaSchema().Decode("BinarySchema", data)
	if err != nil {
		return nil, err
	}

	defDocs := doc["definitions"].([]any)

	// Names must be known up front: type codes reference definitions by
	// index, including definitions that appear later.
	names := make([]string, len(defDocs))
	for i, dd := range defDocs {
		names[i] = dd.(Document)["name"].(string)
	}

	schema := &Schema{Definitions: make([]Definition, len(defDocs))}

	for i, dd := range defDocs {
		defDoc := dd.(Document)

		kindByte := defDoc["kind"].(uint8)
		if kindByte > uint8(KindMessage) {
			return nil, &DecodeError{
				Definition: names[i],
				Offset:     -1,
				Err:        fmt.Errorf("kiwi: invalid definition kind %d", kindByte),
			}
		}

		kind := Kind(kindByte)
		fieldDocs := defDoc["fields"].([]any)

		def := Definition{
			Name:   names[i],
			Kind:   kind,
			Fields: make([]Field, len(fieldDocs)),
		}

		for j, fd := range fieldDocs {
			fieldDoc := fd.(Document)

			field := Field{Name: fieldDoc["name"].(string)}

			if kind != KindEnum {
				typeCode := fieldDoc["type"].(int32)

				switch {
				case typeCode < 0:
					idx := ^typeCode
					if int(idx) >= len(primitiveNames) {
						return nil, &DecodeError{
							Definition: def.Name,
							Field:      field.Name,
							Offset:     -1,
							Err:        fmt.Errorf("kiwi: invalid type code %d", typeCode),
						}
					}

					field.Type = primitiveNames[idx]
				case int(typeCode) >= len(names):
					return nil, &DecodeError{
						Definition: def.Name,
						Field:      field.Name,
						Offset:     -1,
						Err:        fmt.Errorf("kiwi: type index %d out of range", typeCode),
					}
				default:
					field.Type = names[typeCode]
				}
			}

			flags := fieldDoc["flags"].(uint8)
			field.IsArray = flags&flagArray != 0
			field.IsDeprecated = kind == KindMessage && flags&flagDeprecated != 0

			value := fieldDoc["value"].(uint32)
			if value > math.MaxInt32 {
				return nil, &DecodeError{
					Definition: def.Name,
					Field:      field.Name,
					Offset:     -1,
					Err:        fmt.Errorf("kiwi: field value %d does not fit in 32 bits", value),
				}
			}

			field.Value = int32(value)
			def.Fields[j] = field
		}

		schema.Definitions[i] = def
	}

	return schema, nil
}
