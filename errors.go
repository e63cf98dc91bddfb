package kiwi

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors returned by encode and decode operations.
//
// Callers should use [errors.Is] to check error categories:
//
//	if errors.Is(err, kiwi.ErrTruncated) {
//	    // input ended mid-value; fetch more bytes or reject the stream
//	}
//
// Structured context (definition, field, byte offset) travels in
// [EncodeError] and [DecodeError] wrappers, extracted via [errors.As].
var (
	// ErrTruncated indicates the input ended in the middle of a value.
	//
	// Recovery: none, the stream is unusable as-is.
	ErrTruncated = errors.New("kiwi: truncated input")

	// ErrMalformedBool indicates a bool byte other than 0 or 1.
	ErrMalformedBool = errors.New("kiwi: malformed bool")

	// ErrTruncatedVarint indicates a 32-bit varint whose continuation bits
	// never terminate within the 5-byte limit.
	ErrTruncatedVarint = errors.New("kiwi: unterminated varint")

	// ErrUnknownEnumValue indicates a decoded enum integer with no name in
	// the schema.
	//
	// Recovery: decode with the producer's schema version.
	ErrUnknownEnumValue = errors.New("kiwi: unknown enum value")

	// ErrUnknownFieldID indicates a message field id the decoding schema
	// does not know.
	//
	// Recovery: decode with [WithProducerSchema] so unknown fields can be
	// skipped by their producer-side type.
	ErrUnknownFieldID = errors.New("kiwi: unknown field id")

	// ErrRecursionLimit indicates document nesting deeper than the
	// compiled schema allows.
	//
	// Recovery: raise the limit via [WithMaxDepth] if the data is trusted.
	ErrRecursionLimit = errors.New("kiwi: recursion limit exceeded")

	// ErrMissingField indicates a struct field absent from the document.
	//
	// Struct fields are all required. This is a caller error.
	ErrMissingField = errors.New("kiwi: missing struct field")

	// ErrEmbeddedNull indicates a string value containing a NUL byte,
	// which cannot survive the NUL-terminated wire form.
	//
	// This is a caller error.
	ErrEmbeddedNull = errors.New("kiwi: string contains NUL byte")

	// ErrTypeMismatch indicates a document value whose Go type does not
	// fit the schema field type.
	//
	// This is a caller error.
	ErrTypeMismatch = errors.New("kiwi: value does not match field type")

	// ErrUnknownDefinition indicates an encode or decode request for a
	// definition name the schema does not contain.
	//
	// This is a programming error.
	ErrUnknownDefinition = errors.New("kiwi: unknown definition")
)

// ParseError reports one malformed declaration in schema text.
//
// [ParseSchema] keeps going after the first failure, so the error it
// returns may wrap several ParseErrors joined via [errors.Join]. Use
// [errors.As] to extract the first one:
//
//	var perr *kiwi.ParseError
//	if errors.As(err, &perr) {
//	    fmt.Printf("bad schema at %d:%d\n", perr.Line, perr.Column)
//	}
type ParseError struct {
	Line   int // 1-based
	Column int // 1-based, in bytes
	Msg    string
}

// Error formats as "line:column: message".
func (e *ParseError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Msg)
}

// ValidationError reports one semantic rule violation found while
// compiling a parsed schema, such as a duplicate field id or a reference
// to an undefined type. Like [ParseError], multiple violations are
// joined via [errors.Join].
type ValidationError struct {
	Line   int
	Column int
	Msg    string
}

// Error formats as "line:column: message".
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Msg)
}

// EncodeError is the uniform wrapper for failures while encoding a
// document. The underlying cause appears first, followed by schema
// context:
//
//	kiwi: missing struct field (def=Point field=x)
//
// Unwraps to the sentinel cause for [errors.Is].
type EncodeError struct {
	// Definition is the name of the definition being encoded.
	Definition string

	// Field is the field being encoded, empty when the failure is not
	// tied to one field.
	Field string

	// Err is the underlying cause.
	Err error
}

// Error formats as "<cause> (def=X field=Y)".
func (e *EncodeError) Error() string {
	return causeWithContext(e.Err, e.Definition, e.Field, -1)
}

// Unwrap returns the underlying error for use with [errors.Is] and [errors.As].
func (e *EncodeError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.Err
}

// DecodeError is the uniform wrapper for failures while decoding bytes.
// Offset is the read position at the point of failure, usable for
// locating corruption:
//
//	kiwi: truncated input (def=Node field=name offset=132)
//
// Unwraps to the sentinel cause for [errors.Is].
type DecodeError struct {
	Definition string
	Field      string

	// Offset is the byte position in the input at the failure point.
	Offset int

	// Err is the underlying cause.
	Err error
}

// Error formats as "<cause> (def=X field=Y offset=N)".
func (e *DecodeError) Error() string {
	return causeWithContext(e.Err, e.Definition, e.Field, e.Offset)
}

// Unwrap returns the underlying error for use with [errors.Is] and [errors.As].
func (e *DecodeError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.Err
}

// causeWithContext builds "<cause> (def=X field=Y offset=N)", omitting
// empty parts. Offset -1 means no offset.
func causeWithContext(err error, def, field string, offset int) string {
	cause := ""
	if err != nil {
		cause = err.Error()
	}

	var parts []string

	if def != "" {
		parts = append(parts, "def="+def)
	}

	if field != "" {
		parts = append(parts, "field="+field)
	}

	if offset >= 0 {
		parts = append(parts, fmt.Sprintf("offset=%d", offset))
	}

	if len(parts) == 0 {
		return cause
	}

	suffix := "(" + strings.Join(parts, " ") + ")"

	if cause == "" {
		return suffix
	}

	return cause + " " + suffix
}
