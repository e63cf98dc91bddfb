package kiwi_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sketchkit/kiwi"
)

const nodeV1 = `
message Node {
  string name = 1;
}
`

const nodeV2 = `
struct Child {
  uint id;
  bool visible;
}

message Node {
  string name = 1;
  float opacity = 2;
  Child child = 3;
  Child[] kids = 4;
  byte[] thumb = 5;
}
`

func Test_Decode_Skips_Newer_Fields_When_Producer_Schema_Is_Supplied(t *testing.T) {
	t.Parallel()

	oldSchema := mustCompile(t, nodeV1)
	newSchema := mustCompile(t, nodeV2)

	data, err := newSchema.Encode("Node", kiwi.Document{
		"name":    "frame",
		"opacity": 0.5,
		"child":   kiwi.Document{"id": uint32(7), "visible": true},
		"kids": []any{
			kiwi.Document{"id": uint32(1), "visible": false},
			kiwi.Document{"id": uint32(2), "visible": true},
		},
		"thumb": []byte{9, 9, 9},
	})
	require.NoError(t, err)

	doc, err := oldSchema.Decode("Node", data, kiwi.WithProducerSchema(newSchema))
	require.NoError(t, err, "newer bytes should decode once the producer schema supplies skip types")

	diff := cmp.Diff(kiwi.Document{"name": "frame"}, doc)
	assert.Empty(t, diff, "only fields the reader knows should surface")
}

func Test_Decode_Fails_On_Newer_Fields_When_No_Producer_Schema_Is_Given(t *testing.T) {
	t.Parallel()

	oldSchema := mustCompile(t, nodeV1)
	newSchema := mustCompile(t, nodeV2)

	data, err := newSchema.Encode("Node", kiwi.Document{"name": "frame", "opacity": 1.0})
	require.NoError(t, err)

	_, err = oldSchema.Decode("Node", data)
	require.ErrorIs(t, err, kiwi.ErrUnknownFieldID)
}

func Test_Decode_Fails_When_Even_The_Producer_Does_Not_Know_The_Id(t *testing.T) {
	t.Parallel()

	oldSchema := mustCompile(t, nodeV1)
	newSchema := mustCompile(t, nodeV2)

	// Field id 9 exists in neither revision.
	_, err := oldSchema.Decode("Node", []byte{9, 1, 0}, kiwi.WithProducerSchema(newSchema))
	require.ErrorIs(t, err, kiwi.ErrUnknownFieldID)
}

func Test_Decode_Fails_When_Producer_Has_The_Name_As_A_Different_Kind(t *testing.T) {
	t.Parallel()

	consumer := mustCompile(t, "message M { uint a = 1; }")
	producer := mustCompile(t, "struct M { uint a; }")

	_, err := consumer.Decode("M", []byte{2, 1, 0}, kiwi.WithProducerSchema(producer))
	require.ErrorIs(t, err, kiwi.ErrUnknownFieldID)
}

func Test_Decode_Accepts_Older_Bytes_When_Schema_Grew_Fields(t *testing.T) {
	t.Parallel()

	oldSchema := mustCompile(t, nodeV1)
	newSchema := mustCompile(t, nodeV2)

	data, err := oldSchema.Encode("Node", kiwi.Document{"name": "legacy"})
	require.NoError(t, err)

	doc, err := newSchema.Decode("Node", data)
	require.NoError(t, err, "older bytes simply lack the new fields")

	diff := cmp.Diff(kiwi.Document{"name": "legacy"}, doc)
	assert.Empty(t, diff)
}

func Test_Decode_Respects_Depth_Limit_When_Skipping_Producer_Fields(t *testing.T) {
	t.Parallel()

	consumer := mustCompile(t, "message R { uint a = 1; }", kiwi.WithMaxDepth(3))
	producer := mustCompile(t, "message R { uint a = 1; R next = 2; }")

	doc := kiwi.Document{"a": uint32(0)}
	for i := 0; i < 6; i++ {
		doc = kiwi.Document{"a": uint32(i), "next": doc}
	}

	data, err := producer.Encode("R", doc)
	require.NoError(t, err)

	_, err = consumer.Decode("R", data, kiwi.WithProducerSchema(producer))
	require.ErrorIs(t, err, kiwi.ErrRecursionLimit, "skipped bytes still count against nesting")
}

func Test_Decode_Fails_When_Known_Field_Carries_Unknown_Enum_Member(t *testing.T) {
	t.Parallel()

	oldSchema := mustCompile(t, "enum E { A = 1; }\nmessage M { E e = 1; }")
	newSchema := mustCompile(t, "enum E { A = 1; B = 2; }\nmessage M { E e = 1; }")

	data, err := newSchema.Encode("M", kiwi.Document{"e": "B"})
	require.NoError(t, err)

	// The field id is known, so the producer schema does not help; the
	// member itself is missing from the reader's enum.
	_, err = oldSchema.Decode("M", data, kiwi.WithProducerSchema(newSchema))
	require.ErrorIs(t, err, kiwi.ErrUnknownEnumValue)
}

func Test_Decode_Then_Encode_Is_A_Fixed_Point_When_Types_Are_Canonical(t *testing.T) {
	t.Parallel()

	cs := mustCompile(t, nodeV2)

	first, err := cs.Encode("Node", kiwi.Document{
		"name":    "root",
		"opacity": 0.25,
		"child":   kiwi.Document{"id": uint32(3), "visible": false},
		"kids": []any{
			kiwi.Document{"id": uint32(4), "visible": true},
		},
		"thumb": []byte{1, 2, 3, 4},
	})
	require.NoError(t, err)

	doc, err := cs.Decode("Node", first)
	require.NoError(t, err)

	second, err := cs.Encode("Node", doc)
	require.NoError(t, err)

	assert.Equal(t, first, second, "decode then encode must reproduce the bytes")
}
