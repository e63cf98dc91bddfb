package kiwi

import "math"

// Document is the dynamic value for one struct or message: field name to
// field value. Nested definitions are Documents themselves.
//
// Decoding produces canonical Go types per field type:
//
//	bool    -> bool
//	byte    -> uint8
//	int     -> int32
//	uint    -> uint32
//	int64   -> int64
//	uint64  -> uint64
//	float   -> float64 (the wire carries float32 precision)
//	string  -> string
//	enum    -> string (the member name)
//	byte[]  -> []byte
//	T[]     -> []any
//	nested  -> Document
//
// Encoding is more lenient: any Go integer kind is accepted for integer
// fields when it fits the field's range, and integral float64 values are
// accepted too (JSON numbers arrive that way). A field whose key is
// missing, or whose value is nil, counts as not present.
//
// Document is an alias, not a defined type, so values unmarshaled from
// JSON as map[string]any are Documents without conversion.
type Document = map[string]any

// presentField reports whether a field participates in encoding. A
// missing key and an explicit nil both mean "not present".
func presentField(doc Document, name string) (any, bool) {
	v, ok := doc[name]
	if !ok || v == nil {
		return nil, false
	}

	return v, true
}

func asDocument(v any) (Document, bool) {
	doc, ok := v.(map[string]any)

	return doc, ok
}

// coerceInt64 converts any Go integer kind, or an integral float, to an
// int64 within [lo, hi].
func coerceInt64(v any, lo, hi int64) (int64, bool) {
	var n int64

	switch t := v.(type) {
	case int:
		n = int64(t)
	case int8:
		n = int64(t)
	case int16:
		n = int64(t)
	case int32:
		n = int64(t)
	case int64:
		n = t
	case uint:
		if uint64(t) > maxInt64 {
			return 0, false
		}

		n = int64(t)
	case uint8:
		n = int64(t)
	case uint16:
		n = int64(t)
	case uint32:
		n = int64(t)
	case uint64:
		if t > maxInt64 {
			return 0, false
		}

		n = int64(t)
	case float32:
		return floatToInt64(float64(t), lo, hi)
	case float64:
		return floatToInt64(t, lo, hi)
	default:
		return 0, false
	}

	if n < lo || n > hi {
		return 0, false
	}

	return n, true
}

// coerceUint64 converts any non-negative Go integer kind, or an
// integral float, to a uint64 no larger than hi.
func coerceUint64(v any, hi uint64) (uint64, bool) {
	var n uint64

	switch t := v.(type) {
	case int:
		if t < 0 {
			return 0, false
		}

		n = uint64(t)
	case int8:
		if t < 0 {
			return 0, false
		}

		n = uint64(t)
	case int16:
		if t < 0 {
			return 0, false
		}

		n = uint64(t)
	case int32:
		if t < 0 {
			return 0, false
		}

		n = uint64(t)
	case int64:
		if t < 0 {
			return 0, false
		}

		n = uint64(t)
	case uint:
		n = uint64(t)
	case uint8:
		n = uint64(t)
	case uint16:
		n = uint64(t)
	case uint32:
		n = uint64(t)
	case uint64:
		n = t
	case float32:
		return floatToUint64(float64(t), hi)
	case float64:
		return floatToUint64(t, hi)
	default:
		return 0, false
	}

	if n > hi {
		return 0, false
	}

	return n, true
}

// coerceFloat64 converts any numeric kind to float64.
func coerceFloat64(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int8:
		return float64(t), true
	case int16:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint8:
		return float64(t), true
	case uint16:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	default:
		return 0, false
	}
}

const (
	maxInt64 = 1<<63 - 1

	// Conversion bounds as floats. 2^63 and 2^64 are exactly
	// representable in float64; the max integer values themselves are
	// not, so the comparisons use the exclusive power-of-two bound.
	twoPow63 = 9223372036854775808.0
	twoPow64 = 18446744073709551616.0
)

func floatToInt64(f float64, lo, hi int64) (int64, bool) {
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, false
	}

	if f < -twoPow63 || f >= twoPow63 {
		return 0, false
	}

	n := int64(f)
	if n < lo || n > hi {
		return 0, false
	}

	return n, true
}

func floatToUint64(f float64, hi uint64) (uint64, bool) {
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, false
	}

	if f < 0 || f >= twoPow64 {
		return 0, false
	}

	n := uint64(f)
	if n > hi {
		return 0, false
	}

	return n, true
}
