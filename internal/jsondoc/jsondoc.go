// Package jsondoc converts between JSON text and kiwi documents.
//
// The conversion is directed by a compiled schema rather than guessing
// from the JSON shape: byte[] fields travel as base64 strings, 64-bit
// integer fields survive beyond 2^53 because numbers are read as
// [json.Number], enum members stay strings, and nested definitions
// recurse. Input may be JWCC (JSON with comments and trailing commas);
// it is standardized with hujson first, so schema config files and
// hand-written documents both work unmodified.
package jsondoc

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/tailscale/hujson"

	"github.com/sketchkit/kiwi"
)

var (
	// ErrInvalidJSON indicates input that is not valid JSON or JWCC.
	ErrInvalidJSON = errors.New("jsondoc: invalid JSON")

	// ErrInvalidValue indicates a JSON value that does not fit the
	// schema field it maps to.
	ErrInvalidValue = errors.New("jsondoc: value does not fit field type")

	// ErrNotAnObject indicates JSON whose top level is not an object.
	ErrNotAnObject = errors.New("jsondoc: document must be a JSON object")

	// ErrTooDeep indicates nesting beyond the schema's depth limit.
	ErrTooDeep = errors.New("jsondoc: document nesting exceeds depth limit")
)

// ToDocument parses JSON (or JWCC) text into a document for the named
// struct or message definition.
//
// Object keys the definition does not declare are ignored, and null
// values read as absent. Numbers are converted to the field's canonical
// type; byte[] fields accept either a base64 string or an array of
// numbers.
func ToDocument(cs *kiwi.CompiledSchema, defName string, data []byte) (kiwi.Document, error) {
	std, err := hujson.Standardize(bytes.Clone(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	dec := json.NewDecoder(bytes.NewReader(std))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	c := &converter{cs: cs, maxDepth: cs.MaxDepth()}

	doc, err := c.object(defName, raw)
	if err != nil {
		return nil, err
	}

	return doc, nil
}

// FromDocument renders a decoded document as indented JSON for the
// named definition. Only fields the definition declares are emitted,
// and byte[] fields become base64 strings. Output is deterministic.
func FromDocument(cs *kiwi.CompiledSchema, defName string, doc kiwi.Document) ([]byte, error) {
	c := &converter{cs: cs, maxDepth: cs.MaxDepth()}

	v, err := c.jsonObject(defName, doc)
	if err != nil {
		return nil, err
	}

	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("jsondoc: marshal: %w", err)
	}

	return append(out, '\n'), nil
}

type converter struct {
	cs       *kiwi.CompiledSchema
	depth    int
	maxDepth int
}

func (c *converter) enter() error {
	c.depth++
	if c.depth > c.maxDepth {
		return ErrTooDeep
	}

	return nil
}

func (c *converter) leave() {
	c.depth--
}

// object converts one JSON object into a document for defName.
func (c *converter) object(defName string, raw any) (kiwi.Document, error) {
	def := c.cs.Definition(defName)
	if def == nil {
		return nil, fmt.Errorf("%w: %q", kiwi.ErrUnknownDefinition, defName)
	}

	if def.Kind == kiwi.KindEnum {
		return nil, fmt.Errorf("%w: %q is an enum", ErrNotAnObject, defName)
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: got %s", ErrNotAnObject, jsonKind(raw))
	}

	if err := c.enter(); err != nil {
		return nil, err
	}
	defer c.leave()

	doc := kiwi.Document{}

	for i := range def.Fields {
		f := &def.Fields[i]

		rawValue, present := obj[f.Name]
		if !present || rawValue == nil {
			continue
		}

		v, err := c.fieldValue(f, rawValue)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}

		doc[f.Name] = v
	}

	return doc, nil
}

func (c *converter) fieldValue(f *kiwi.Field, raw any) (any, error) {
	if f.IsArray {
		if f.Type == kiwi.TypeByte {
			return byteArrayValue(raw)
		}

		items, ok := raw.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: expected array, got %s", ErrInvalidValue, jsonKind(raw))
		}

		out := make([]any, 0, len(items))

		for i, item := range items {
			v, err := c.scalarValue(f.Type, item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}

			out = append(out, v)
		}

		return out, nil
	}

	return c.scalarValue(f.Type, raw)
}

func (c *converter) scalarValue(typeName string, raw any) (any, error) {
	switch typeName {
	case kiwi.TypeBool:
		b, ok := raw.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: expected bool, got %s", ErrInvalidValue, jsonKind(raw))
		}

		return b, nil

	case kiwi.TypeByte:
		n, err := intValue(raw, 0, math.MaxUint8)
		if err != nil {
			return nil, err
		}

		return uint8(n), nil

	case kiwi.TypeInt:
		n, err := intValue(raw, math.MinInt32, math.MaxInt32)
		if err != nil {
			return nil, err
		}

		return int32(n), nil

	case kiwi.TypeUint:
		n, err := uintValue(raw, math.MaxUint32)
		if err != nil {
			return nil, err
		}

		return uint32(n), nil

	case kiwi.TypeInt64:
		return intValue(raw, math.MinInt64, math.MaxInt64)

	case kiwi.TypeUint64:
		return uintValue(raw, math.MaxUint64)

	case kiwi.TypeFloat:
		num, ok := raw.(json.Number)
		if !ok {
			return nil, fmt.Errorf("%w: expected number, got %s", ErrInvalidValue, jsonKind(raw))
		}

		f, err := num.Float64()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidValue, err)
		}

		return f, nil

	case kiwi.TypeString:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%w: expected string, got %s", ErrInvalidValue, jsonKind(raw))
		}

		return s, nil
	}

	// Definition reference: enums arrive as member-name strings, the
	// rest as nested objects.
	ref := c.cs.Definition(typeName)
	if ref == nil {
		return nil, fmt.Errorf("%w: %q", kiwi.ErrUnknownDefinition, typeName)
	}

	if ref.Kind == kiwi.KindEnum {
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%w: expected enum name string, got %s", ErrInvalidValue, jsonKind(raw))
		}

		return s, nil
	}

	return c.object(typeName, raw)
}

// jsonObject converts a document back to a JSON-marshalable value.
func (c *converter) jsonObject(defName string, doc kiwi.Document) (map[string]any, error) {
	def := c.cs.Definition(defName)
	if def == nil {
		return nil, fmt.Errorf("%w: %q", kiwi.ErrUnknownDefinition, defName)
	}

	if err := c.enter(); err != nil {
		return nil, err
	}
	defer c.leave()

	out := make(map[string]any, len(def.Fields))

	for i := range def.Fields {
		f := &def.Fields[i]

		v, present := doc[f.Name]
		if !present || v == nil {
			continue
		}

		jv, err := c.jsonFieldValue(f, v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}

		out[f.Name] = jv
	}

	return out, nil
}

func (c *converter) jsonFieldValue(f *kiwi.Field, v any) (any, error) {
	if f.IsArray {
		if f.Type == kiwi.TypeByte {
			b, ok := v.([]byte)
			if !ok {
				return nil, fmt.Errorf("%w: expected []byte", ErrInvalidValue)
			}

			return base64.StdEncoding.EncodeToString(b), nil
		}

		items, ok := v.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: expected []any", ErrInvalidValue)
		}

		out := make([]any, 0, len(items))

		for i, item := range items {
			jv, err := c.jsonScalarValue(f.Type, item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}

			out = append(out, jv)
		}

		return out, nil
	}

	return c.jsonScalarValue(f.Type, v)
}

func (c *converter) jsonScalarValue(typeName string, v any) (any, error) {
	ref := c.cs.Definition(typeName)
	if ref == nil || ref.Kind == kiwi.KindEnum {
		// Primitives and enum names marshal as themselves. int64 and
		// uint64 stay exact: encoding/json writes integers digit for
		// digit.
		return v, nil
	}

	doc, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected nested object for %q", ErrInvalidValue, typeName)
	}

	return c.jsonObject(typeName, doc)
}

// byteArrayValue accepts base64 text or an array of numbers for a
// byte[] field.
func byteArrayValue(raw any) ([]byte, error) {
	switch t := raw.(type) {
	case string:
		b, err := base64.StdEncoding.DecodeString(t)
		if err != nil {
			return nil, fmt.Errorf("%w: bad base64: %v", ErrInvalidValue, err)
		}

		return b, nil

	case []any:
		out := make([]byte, 0, len(t))

		for i, item := range t {
			n, err := intValue(item, 0, math.MaxUint8)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}

			out = append(out, byte(n))
		}

		return out, nil

	default:
		return nil, fmt.Errorf("%w: expected base64 string or number array, got %s", ErrInvalidValue, jsonKind(raw))
	}
}

func intValue(raw any, lo, hi int64) (int64, error) {
	num, ok := raw.(json.Number)
	if !ok {
		return 0, fmt.Errorf("%w: expected number, got %s", ErrInvalidValue, jsonKind(raw))
	}

	n, err := strconv.ParseInt(num.String(), 10, 64)
	if err != nil {
		// "1e3" and friends are legal JSON integers too.
		f, ferr := num.Float64()
		if ferr != nil || f != math.Trunc(f) || f < -9223372036854775808.0 || f >= 9223372036854775808.0 {
			return 0, fmt.Errorf("%w: %q is not an integer", ErrInvalidValue, num.String())
		}

		n = int64(f)
	}

	if n < lo || n > hi {
		return 0, fmt.Errorf("%w: %d out of range [%d, %d]", ErrInvalidValue, n, lo, hi)
	}

	return n, nil
}

func uintValue(raw any, hi uint64) (uint64, error) {
	num, ok := raw.(json.Number)
	if !ok {
		return 0, fmt.Errorf("%w: expected number, got %s", ErrInvalidValue, jsonKind(raw))
	}

	n, err := strconv.ParseUint(num.String(), 10, 64)
	if err != nil {
		f, ferr := num.Float64()
		if ferr != nil || f != math.Trunc(f) || f < 0 || f >= 18446744073709551616.0 {
			return 0, fmt.Errorf("%w: %q is not an unsigned integer", ErrInvalidValue, num.String())
		}

		n = uint64(f)
	}

	if n > hi {
		return 0, fmt.Errorf("%w: %d exceeds %d", ErrInvalidValue, n, hi)
	}

	return n, nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "bool"
	case json.Number:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
