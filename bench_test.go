package kiwi_test

import (
	"testing"

	"github.com/sketchkit/kiwi"
	"github.com/sketchkit/kiwi/internal/testschema"
)

func benchmarkEncode(b *testing.B, nodes int) {
	cs := testschema.Compiled()
	doc := testschema.SampleDocument(nodes)

	encoded, err := cs.Encode(testschema.Root, doc)
	if err != nil {
		b.Fatal(err)
	}

	b.SetBytes(int64(len(encoded)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := cs.Encode(testschema.Root, doc); err != nil {
			b.Fatal(err)
		}
	}
}

func benchmarkDecode(b *testing.B, nodes int) {
	cs := testschema.Compiled()

	encoded, err := cs.Encode(testschema.Root, testschema.SampleDocument(nodes))
	if err != nil {
		b.Fatal(err)
	}

	b.SetBytes(int64(len(encoded)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := cs.Decode(testschema.Root, encoded); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEncode100Nodes(b *testing.B) { benchmarkEncode(b, 100) }

func BenchmarkEncode1kNodes(b *testing.B) { benchmarkEncode(b, 1000) }

func BenchmarkDecode100Nodes(b *testing.B) { benchmarkDecode(b, 100) }

func BenchmarkDecode1kNodes(b *testing.B) { benchmarkDecode(b, 1000) }

func BenchmarkCompileText(b *testing.B) {
	for i := 0; i < b.N; i++ {
		if _, err := kiwi.Compile(testschema.Text); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDecodeBinarySchema(b *testing.B) {
	encoded, err := kiwi.EncodeBinarySchema(testschema.Compiled().Schema())
	if err != nil {
		b.Fatal(err)
	}

	b.SetBytes(int64(len(encoded)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := kiwi.DecodeBinarySchema(encoded); err != nil {
			b.Fatal(err)
		}
	}
}
