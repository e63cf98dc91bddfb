// Package kiwi implements a compact schema-driven binary serialization
// format for design documents: a schema language, a compiler, and a
// deterministic wire codec.
//
// Schemas declare three kinds of definition. Enums name uint constants.
// Structs hold required fields encoded positionally and can never
// change shape again. Messages hold optional id-tagged fields and may
// grow new fields without breaking old readers.
//
// # Basic Usage
//
//	cs, err := kiwi.Compile(`
//	  message Node {
//	    string name = 1;
//	    float opacity = 2;
//	    Node[] children = 3;
//	  }
//	`)
//	if err != nil {
//	    // each malformed declaration is one [ParseError] in err
//	}
//
//	data, err := cs.Encode("Node", kiwi.Document{"name": "root"})
//	doc, err := cs.Decode("Node", data)
//
// Documents are plain map[string]any values; see [Document] for the
// canonical Go type of each field type.
//
// # Wire Format
//
// All values reduce to five primitive forms handled by [ByteBuffer]:
// single bytes, variable-length integers (32- and 64-bit, zigzag for
// signed), rotated float32s where zero costs one byte, NUL-terminated
// UTF-8 strings, and length-prefixed byte arrays. Struct fields follow
// each other positionally; message fields carry a varuint field id and
// end at id 0. Encoding is deterministic: the same schema and document
// always produce the same bytes.
//
// Schemas themselves have a binary form ([EncodeBinarySchema],
// [DecodeBinarySchema]) produced by running a schema-of-schemas through
// the ordinary codec, so data files can embed the schema that describes
// them.
//
// # Compatibility
//
// Old readers skip message fields marked [deprecated] while still
// consuming their bytes. Readers without a field id in their schema can
// pass the producer's schema via [WithProducerSchema] to skip unknown
// fields instead of failing with [ErrUnknownFieldID].
//
// # Concurrency
//
// A [CompiledSchema] is immutable and safe for concurrent use. Encode
// and decode calls keep all mutable state per call.
//
// # Error Handling
//
// Malformed input never panics. Decoding failures wrap sentinel causes
// ([ErrTruncated], [ErrMalformedBool], ...) in [DecodeError] with the
// byte offset; encoding failures wrap caller errors ([ErrMissingField],
// [ErrTypeMismatch], ...) in [EncodeError] naming the definition and
// field.
package kiwi
