package kiwi_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sketchkit/kiwi"
	"github.com/sketchkit/kiwi/internal/testschema"
)

func mustCompile(t *testing.T, text string, opts ...kiwi.CompileOption) *kiwi.CompiledSchema {
	t.Helper()

	cs, err := kiwi.Compile(text, opts...)
	require.NoError(t, err, "schema should compile")

	return cs
}

// vectorSchema exercises one definition per wire shape.
const vectorSchema = `
enum Enum {
  A = 100;
  B = 200;
}

struct EnumStruct {
  Enum x;
  Enum[] y;
}

struct BoolStruct { bool x; }
struct ByteStruct { byte x; }
struct IntStruct { int x; }
struct UintStruct { uint x; }
struct Int64Struct { int64 x; }
struct Uint64Struct { uint64 x; }
struct FloatStruct { float x; }
struct StringStruct { string x; }
struct BytesStruct { byte[] x; }

struct CompoundStruct {
  uint x;
  uint y;
}

struct NestedStruct {
  CompoundStruct a;
  CompoundStruct b;
}

struct BoolArrayStruct { bool[] x; }

message CompoundMessage {
  uint x = 1;
  uint y = 2;
}

message RecursiveMessage {
  RecursiveMessage x = 1;
}
`

func Test_Encode_Produces_Reference_Bytes_When_Documents_Are_Known(t *testing.T) {
	t.Parallel()

	cs := mustCompile(t, vectorSchema)

	tests := []struct {
		name string
		def  string
		doc  kiwi.Document
		want []byte
	}{
		{
			name: "bool false",
			def:  "BoolStruct",
			doc:  kiwi.Document{"x": false},
			want: []byte{0},
		},
		{
			name: "bool true",
			def:  "BoolStruct",
			doc:  kiwi.Document{"x": true},
			want: []byte{1},
		},
		{
			name: "byte",
			def:  "ByteStruct",
			doc:  kiwi.Document{"x": uint8(255)},
			want: []byte{255},
		},
		{
			name: "int negative one byte",
			def:  "IntStruct",
			doc:  kiwi.Document{"x": int32(-64)},
			want: []byte{127},
		},
		{
			name: "uint multi byte",
			def:  "UintStruct",
			doc:  kiwi.Document{"x": uint32(128)},
			want: []byte{128, 1},
		},
		{
			name: "int64 negative",
			def:  "Int64Struct",
			doc:  kiwi.Document{"x": int64(-1)},
			want: []byte{1},
		},
		{
			name: "uint64 ninth byte",
			def:  "Uint64Struct",
			doc:  kiwi.Document{"x": uint64(1) << 56},
			want: []byte{128, 128, 128, 128, 128, 128, 128, 128, 1},
		},
		{
			name: "float one",
			def:  "FloatStruct",
			doc:  kiwi.Document{"x": float64(1.0)},
			want: []byte{127, 0, 0, 0},
		},
		{
			name: "float minus one",
			def:  "FloatStruct",
			doc:  kiwi.Document{"x": float64(-1.0)},
			want: []byte{127, 1, 0, 0},
		},
		{
			name: "float zero shortcut",
			def:  "FloatStruct",
			doc:  kiwi.Document{"x": float64(0)},
			want: []byte{0},
		},
		{
			name: "empty string",
			def:  "StringStruct",
			doc:  kiwi.Document{"x": ""},
			want: []byte{0},
		},
		{
			name: "utf8 string",
			def:  "StringStruct",
			doc:  kiwi.Document{"x": "🍕"},
			want: []byte{0xF0, 0x9F, 0x8D, 0x95, 0},
		},
		{
			name: "byte array",
			def:  "BytesStruct",
			doc:  kiwi.Document{"x": []byte{4, 5, 6}},
			want: []byte{3, 4, 5, 6},
		},
		{
			name: "struct is positional",
			def:  "CompoundStruct",
			doc:  kiwi.Document{"x": uint32(0), "y": uint32(1)},
			want: []byte{0, 1},
		},
		{
			name: "nested structs flatten",
			def:  "NestedStruct",
			doc: kiwi.Document{
				"a": kiwi.Document{"x": uint32(1), "y": uint32(2)},
				"b": kiwi.Document{"x": uint32(3), "y": uint32(4)},
			},
			want: []byte{1, 2, 3, 4},
		},
		{
			name: "empty bool array",
			def:  "BoolArrayStruct",
			doc:  kiwi.Document{"x": []any{}},
			want: []byte{0},
		},
		{
			name: "bool array counts then elements",
			def:  "BoolArrayStruct",
			doc:  kiwi.Document{"x": []any{true, false}},
			want: []byte{2, 1, 0},
		},
		{
			name: "enum value and enum array",
			def:  "EnumStruct",
			doc:  kiwi.Document{"x": "A", "y": []any{"A", "B"}},
			want: []byte{100, 2, 100, 200, 1},
		},
		{
			name: "empty message is just the terminator",
			def:  "CompoundMessage",
			doc:  kiwi.Document{},
			want: []byte{0},
		},
		{
			name: "message with first field",
			def:  "CompoundMessage",
			doc:  kiwi.Document{"x": uint32(123)},
			want: []byte{1, 123, 0},
		},
		{
			name: "message with second field",
			def:  "CompoundMessage",
			doc:  kiwi.Document{"y": uint32(234)},
			want: []byte{2, 234, 1, 0},
		},
		{
			name: "message with both fields",
			def:  "CompoundMessage",
			doc:  kiwi.Document{"x": uint32(123), "y": uint32(234)},
			want: []byte{1, 123, 2, 234, 1, 0},
		},
		{
			name: "recursive message empty",
			def:  "RecursiveMessage",
			doc:  kiwi.Document{},
			want: []byte{0},
		},
		{
			name: "recursive message one level",
			def:  "RecursiveMessage",
			doc:  kiwi.Document{"x": kiwi.Document{}},
			want: []byte{1, 0, 0},
		},
		{
			name: "recursive message two levels",
			def:  "RecursiveMessage",
			doc:  kiwi.Document{"x": kiwi.Document{"x": kiwi.Document{}}},
			want: []byte{1, 1, 0, 0, 0},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			data, err := cs.Encode(tt.def, tt.doc)
			require.NoError(t, err, "encode should succeed")
			assert.Equal(t, tt.want, data, "wire bytes")

			decoded, err := cs.Decode(tt.def, data)
			require.NoError(t, err, "decode of own output should succeed")

			diff := cmp.Diff(tt.doc, decoded)
			assert.Empty(t, diff, "roundtrip mismatch (-encoded +decoded)")
		})
	}
}

func Test_Encode_Returns_No_Bytes_When_Struct_Has_No_Fields(t *testing.T) {
	t.Parallel()

	cs := mustCompile(t, "struct Empty {}")

	data, err := cs.Encode("Empty", kiwi.Document{})
	require.NoError(t, err)
	assert.Empty(t, data)

	doc, err := cs.Decode("Empty", nil)
	require.NoError(t, err)
	assert.Empty(t, doc)
}

func Test_Encode_Is_Deterministic_When_Insertion_Order_Varies(t *testing.T) {
	t.Parallel()

	cs := mustCompile(t, "message M { uint a = 1; uint b = 2; uint c = 3; }")

	first := kiwi.Document{}
	first["c"] = uint32(3)
	first["a"] = uint32(1)
	first["b"] = uint32(2)

	second := kiwi.Document{}
	second["a"] = uint32(1)
	second["b"] = uint32(2)
	second["c"] = uint32(3)

	left, err := cs.Encode("M", first)
	require.NoError(t, err)

	right, err := cs.Encode("M", second)
	require.NoError(t, err)

	assert.Equal(t, left, right, "field order on the wire is declaration order, not map order")
	assert.Equal(t, []byte{1, 1, 2, 2, 3, 3, 0}, left)
}

func Test_Encode_Omits_Field_When_Value_Is_Nil(t *testing.T) {
	t.Parallel()

	cs := mustCompile(t, "message M { uint a = 1; uint b = 2; }")

	data, err := cs.Encode("M", kiwi.Document{"a": nil, "b": uint32(9)})
	require.NoError(t, err)

	assert.Equal(t, []byte{2, 9, 0}, data, "nil reads as absent")
}

func Test_Encode_Skips_Deprecated_Field_When_Document_Carries_It(t *testing.T) {
	t.Parallel()

	cs := mustCompile(t, "message M { int a = 1; int b = 2 [deprecated]; int c = 3; }")

	data, err := cs.Encode("M", kiwi.Document{
		"a": int32(1),
		"b": int32(5),
		"c": int32(3),
	})
	require.NoError(t, err)

	// a: id 1, zigzag(1)=2; c: id 3, zigzag(3)=6. No trace of b.
	assert.Equal(t, []byte{1, 2, 3, 6, 0}, data)
}

func Test_Decode_Discards_Deprecated_Field_When_Bytes_Carry_It(t *testing.T) {
	t.Parallel()

	cs := mustCompile(t, "message M { int a = 1; int b = 2 [deprecated]; int c = 3; }")

	// Bytes written by a revision that still populated b (value 5,
	// zigzag 10).
	doc, err := cs.Decode("M", []byte{1, 2, 2, 10, 3, 6, 0})
	require.NoError(t, err)

	diff := cmp.Diff(kiwi.Document{"a": int32(1), "c": int32(3)}, doc)
	assert.Empty(t, diff, "deprecated field must be consumed but not surfaced")
}

func Test_Decode_Keeps_Last_When_Field_Id_Repeats(t *testing.T) {
	t.Parallel()

	cs := mustCompile(t, vectorSchema)

	doc, err := cs.Decode("CompoundMessage", []byte{1, 5, 1, 7, 0})
	require.NoError(t, err)

	diff := cmp.Diff(kiwi.Document{"x": uint32(7)}, doc)
	assert.Empty(t, diff)
}

func Test_Decode_Ignores_Trailing_Bytes_When_Value_Is_Complete(t *testing.T) {
	t.Parallel()

	cs := mustCompile(t, vectorSchema)

	doc, err := cs.Decode("CompoundMessage", []byte{1, 123, 0, 99, 99})
	require.NoError(t, err)

	diff := cmp.Diff(kiwi.Document{"x": uint32(123)}, doc)
	assert.Empty(t, diff, "bytes past the terminator are not part of the value")
}

func Test_Decode_Fails_When_Field_Id_Is_Unknown(t *testing.T) {
	t.Parallel()

	cs := mustCompile(t, vectorSchema)

	_, err := cs.Decode("CompoundMessage", []byte{3, 1, 0})
	require.ErrorIs(t, err, kiwi.ErrUnknownFieldID)

	var de *kiwi.DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "CompoundMessage", de.Definition)
}

func Test_Decode_Fails_When_Input_Truncates_Mid_Struct(t *testing.T) {
	t.Parallel()

	cs := mustCompile(t, vectorSchema)

	_, err := cs.Decode("CompoundStruct", []byte{5})
	require.ErrorIs(t, err, kiwi.ErrTruncated)

	var de *kiwi.DecodeError
	require.ErrorAs(t, err, &de)

	assert.Equal(t, "CompoundStruct", de.Definition)
	assert.Equal(t, "y", de.Field)
	assert.Equal(t, 1, de.Offset)
	assert.Equal(t, "kiwi: truncated input (def=CompoundStruct field=y offset=1)", de.Error())
}

func Test_Decode_Fails_When_Array_Count_Exceeds_Remaining_Input(t *testing.T) {
	t.Parallel()

	cs := mustCompile(t, vectorSchema)

	// Count 200 with no elements behind it. Must fail before reserving
	// room for 200 items.
	_, err := cs.Decode("BoolArrayStruct", []byte{0xC8, 0x01})
	require.ErrorIs(t, err, kiwi.ErrTruncated)
}

func Test_Decode_Fails_When_Message_Terminator_Missing(t *testing.T) {
	t.Parallel()

	cs := mustCompile(t, vectorSchema)

	_, err := cs.Decode("CompoundMessage", []byte{1, 123})
	require.ErrorIs(t, err, kiwi.ErrTruncated)

	_, err = cs.Decode("CompoundMessage", nil)
	require.ErrorIs(t, err, kiwi.ErrTruncated)
}

func Test_Encode_Fails_When_Struct_Field_Is_Missing(t *testing.T) {
	t.Parallel()

	cs := mustCompile(t, vectorSchema)

	_, err := cs.Encode("CompoundStruct", kiwi.Document{"x": uint32(1)})
	require.ErrorIs(t, err, kiwi.ErrMissingField)

	var ee *kiwi.EncodeError
	require.ErrorAs(t, err, &ee)

	assert.Equal(t, "CompoundStruct", ee.Definition)
	assert.Equal(t, "y", ee.Field)
	assert.Equal(t, "kiwi: missing struct field (def=CompoundStruct field=y)", ee.Error())
}

func Test_Encode_Fails_When_Value_Does_Not_Fit_Field_Type(t *testing.T) {
	t.Parallel()

	cs := mustCompile(t, vectorSchema)

	tests := []struct {
		name string
		def  string
		doc  kiwi.Document
	}{
		{name: "string into int", def: "IntStruct", doc: kiwi.Document{"x": "nope"}},
		{name: "negative into uint", def: "UintStruct", doc: kiwi.Document{"x": -1}},
		{name: "overflow into byte", def: "ByteStruct", doc: kiwi.Document{"x": 256}},
		{name: "bool into float", def: "FloatStruct", doc: kiwi.Document{"x": true}},
		{name: "int into string", def: "StringStruct", doc: kiwi.Document{"x": 7}},
		{name: "int into bool", def: "BoolStruct", doc: kiwi.Document{"x": 1}},
		{name: "scalar into array", def: "BoolArrayStruct", doc: kiwi.Document{"x": true}},
		{name: "nil array element", def: "BoolArrayStruct", doc: kiwi.Document{"x": []any{true, nil}}},
		{name: "int into nested struct", def: "NestedStruct", doc: kiwi.Document{"a": 1, "b": 2}},
		{name: "fractional float into int", def: "IntStruct", doc: kiwi.Document{"x": 1.5}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := cs.Encode(tt.def, tt.doc)
			require.ErrorIs(t, err, kiwi.ErrTypeMismatch)
		})
	}
}

func Test_Encode_Accepts_Loose_Numbers_When_They_Fit(t *testing.T) {
	t.Parallel()

	cs := mustCompile(t, vectorSchema)

	// JSON decoding hands over float64 for every number; integral ones
	// must pass through untouched.
	data, err := cs.Encode("UintStruct", kiwi.Document{"x": float64(128)})
	require.NoError(t, err)
	assert.Equal(t, []byte{128, 1}, data)

	data, err = cs.Encode("IntStruct", kiwi.Document{"x": -64})
	require.NoError(t, err)
	assert.Equal(t, []byte{127}, data)

	data, err = cs.Encode("Int64Struct", kiwi.Document{"x": int(-1)})
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, data)

	data, err = cs.Encode("FloatStruct", kiwi.Document{"x": 1})
	require.NoError(t, err)
	assert.Equal(t, []byte{127, 0, 0, 0}, data)

	data, err = cs.Encode("BytesStruct", kiwi.Document{"x": []any{float64(4), float64(5)}})
	require.NoError(t, err)
	assert.Equal(t, []byte{2, 4, 5}, data)
}

func Test_Encode_Fails_When_String_Contains_NUL(t *testing.T) {
	t.Parallel()

	cs := mustCompile(t, vectorSchema)

	_, err := cs.Encode("StringStruct", kiwi.Document{"x": "a\x00b"})
	require.ErrorIs(t, err, kiwi.ErrEmbeddedNull)

	var ee *kiwi.EncodeError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, "x", ee.Field)
}

func Test_Codec_Fails_When_Definition_Is_Unknown_Or_An_Enum(t *testing.T) {
	t.Parallel()

	cs := mustCompile(t, vectorSchema)

	_, err := cs.Encode("Nope", kiwi.Document{})
	require.ErrorIs(t, err, kiwi.ErrUnknownDefinition)

	_, err = cs.Decode("Nope", []byte{0})
	require.ErrorIs(t, err, kiwi.ErrUnknownDefinition)

	// Enums only exist inside other definitions.
	_, err = cs.Encode("Enum", kiwi.Document{})
	require.Error(t, err)

	_, err = cs.Decode("Enum", []byte{100})
	require.Error(t, err)
}

func Test_Codec_Fails_When_Enum_Member_Is_Unknown(t *testing.T) {
	t.Parallel()

	cs := mustCompile(t, vectorSchema)

	_, err := cs.Encode("EnumStruct", kiwi.Document{"x": "C", "y": []any{}})
	require.ErrorIs(t, err, kiwi.ErrUnknownEnumValue)

	// 99 is not a member value.
	_, err = cs.Decode("EnumStruct", []byte{99, 0})
	require.ErrorIs(t, err, kiwi.ErrUnknownEnumValue)
}

func Test_Codec_Fails_When_Nesting_Exceeds_Depth_Limit(t *testing.T) {
	t.Parallel()

	cs := mustCompile(t, vectorSchema, kiwi.WithMaxDepth(4))

	doc := kiwi.Document{}
	for i := 0; i < 4; i++ {
		doc = kiwi.Document{"x": doc}
	}

	_, err := cs.Encode("RecursiveMessage", doc)
	require.ErrorIs(t, err, kiwi.ErrRecursionLimit)

	// Five nested prefixes on the wire: 1,1,1,1,1 then terminators.
	_, err = cs.Decode("RecursiveMessage", []byte{1, 1, 1, 1, 1, 0, 0, 0, 0, 0, 0})
	require.ErrorIs(t, err, kiwi.ErrRecursionLimit)

	// One level under the limit passes both ways.
	doc = kiwi.Document{}
	for i := 0; i < 3; i++ {
		doc = kiwi.Document{"x": doc}
	}

	data, err := cs.Encode("RecursiveMessage", doc)
	require.NoError(t, err)

	_, err = cs.Decode("RecursiveMessage", data)
	require.NoError(t, err)
}

func Test_Decode_Narrows_Precision_When_Field_Is_Float(t *testing.T) {
	t.Parallel()

	cs := mustCompile(t, vectorSchema)

	data, err := cs.Encode("FloatStruct", kiwi.Document{"x": 0.1})
	require.NoError(t, err)

	doc, err := cs.Decode("FloatStruct", data)
	require.NoError(t, err)

	assert.Equal(t, float64(float32(0.1)), doc["x"], "wire carries float32 precision")
}

func Test_Decode_Produces_Canonical_Types_When_Schema_Mixes_Kinds(t *testing.T) {
	t.Parallel()

	cs := mustCompile(t, `
enum E { ON = 1; }
struct All {
  bool b;
  byte u8;
  int i32;
  uint u32;
  int64 i64;
  uint64 u64;
  float f;
  string s;
  E e;
  byte[] raw;
  int[] ints;
}
`)

	data, err := cs.Encode("All", kiwi.Document{
		"b":    true,
		"u8":   7,
		"i32":  -9,
		"u32":  9,
		"i64":  int64(-10),
		"u64":  uint64(10),
		"f":    2.5,
		"s":    "hi",
		"e":    "ON",
		"raw":  []byte{1, 2},
		"ints": []any{int32(3), int32(-4)},
	})
	require.NoError(t, err)

	doc, err := cs.Decode("All", data)
	require.NoError(t, err)

	expected := kiwi.Document{
		"b":    true,
		"u8":   uint8(7),
		"i32":  int32(-9),
		"u32":  uint32(9),
		"i64":  int64(-10),
		"u64":  uint64(10),
		"f":    float64(2.5),
		"s":    "hi",
		"e":    "ON",
		"raw":  []byte{1, 2},
		"ints": []any{int32(3), int32(-4)},
	}

	diff := cmp.Diff(expected, doc)
	assert.Empty(t, diff, "decoded types must be canonical (-expected +got)")
}

func Test_Codec_Round_Trips_Wide_Message_Schema(t *testing.T) {
	t.Parallel()

	cs := testschema.Compiled()

	nodeChange := cs.Definition("NodeChange")
	require.NotNil(t, nodeChange)
	require.GreaterOrEqual(t, len(nodeChange.Fields), 130, "schema should exercise a wide field-id range")

	doc := testschema.SampleDocument(60)

	encoded, err := cs.Encode(testschema.Root, doc)
	require.NoError(t, err)

	decoded, err := cs.Decode(testschema.Root, encoded)
	require.NoError(t, err)

	again, err := cs.Encode(testschema.Root, decoded)
	require.NoError(t, err)

	assert.Equal(t, encoded, again, "decode then re-encode should reproduce the bytes")
}
