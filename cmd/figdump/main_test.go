package main

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sketchkit/kiwi"
	"github.com/sketchkit/kiwi/internal/cli"
	"github.com/sketchkit/kiwi/internal/jsondoc"
	"github.com/sketchkit/kiwi/internal/testschema"
)

func deflateBytes(t *testing.T, data []byte) []byte {
	t.Helper()

	var buf bytes.Buffer

	w, err := flate.NewWriter(&buf, flate.DefaultCompression)
	require.NoError(t, err)

	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	return buf.Bytes()
}

func zstdBytes(t *testing.T, data []byte) []byte {
	t.Helper()

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
	require.NoError(t, err)

	out := enc.EncodeAll(data, nil)
	require.NoError(t, enc.Close())

	return out
}

func appendChunk(raw, chunk []byte) []byte {
	raw = binary.LittleEndian.AppendUint32(raw, uint32(len(chunk)))

	return append(raw, chunk...)
}

// writeFig assembles a container from the shared test schema and a
// payload encoding doc as root, and writes it into the harness dir.
func writeFig(t *testing.T, h *cli.Harness, root string, doc kiwi.Document, extraChunks ...[]byte) string {
	t.Helper()

	cs := testschema.Compiled()

	schemaBinary, err := kiwi.EncodeBinarySchema(cs.Schema())
	require.NoError(t, err)

	payload, err := cs.Encode(root, doc)
	require.NoError(t, err)

	raw := []byte("fig-kiwi")
	raw = appendChunk(raw, deflateBytes(t, schemaBinary))
	raw = appendChunk(raw, zstdBytes(t, payload))

	for _, chunk := range extraChunks {
		raw = appendChunk(raw, chunk)
	}

	return h.WriteBinary("design.fig", raw)
}

// embeddedSchema returns the schema as it survives the binary
// round-trip inside a container (the package name does not).
func embeddedSchema(t *testing.T) *kiwi.Schema {
	t.Helper()

	encoded, err := kiwi.EncodeBinarySchema(testschema.Compiled().Schema())
	require.NoError(t, err)

	schema, err := kiwi.DecodeBinarySchema(encoded)
	require.NoError(t, err)

	return schema
}

func Test_Info_Summarizes_Container(t *testing.T) {
	t.Parallel()

	h := cli.NewHarness(t, newApp())
	preview := []byte{0x89, 'P', 'N', 'G', 1, 2, 3}
	path := writeFig(t, h, testschema.Root, testschema.SampleDocument(8), preview)

	out := h.MustRun("info", path)

	assert.Contains(t, out, "chunks:      3")
	assert.Contains(t, out, "(schema)")
	assert.Contains(t, out, "(document)")
	assert.Contains(t, out, "[2] 7 bytes")

	defs := len(testschema.Compiled().Schema().Definitions)
	assert.Contains(t, out, fmt.Sprintf("definitions: %d", defs))
	assert.Contains(t, out, "bytes decompressed")
}

func Test_Schema_Prints_Embedded_Schema(t *testing.T) {
	t.Parallel()

	h := cli.NewHarness(t, newApp())
	path := writeFig(t, h, testschema.Root, testschema.SampleDocument(2))

	out, errOut, code := h.Run("schema", path)

	require.Equal(t, 0, code, "stderr: %s", errOut)
	assert.Equal(t, kiwi.PrettyPrintSchema(embeddedSchema(t)), out)
	assert.Contains(t, out, "message NodeChange {")
	assert.NotContains(t, out, "package", "binary schemas carry no package name")
}

func Test_Schema_Out_Flag_Writes_File(t *testing.T) {
	t.Parallel()

	h := cli.NewHarness(t, newApp())
	path := writeFig(t, h, testschema.Root, testschema.SampleDocument(2))

	h.MustRun("schema", "-o", h.Path("schema.kiwi"), path)

	assert.Equal(t, kiwi.PrettyPrintSchema(embeddedSchema(t)), string(h.ReadFile("schema.kiwi")))
}

func Test_JSON_Renders_Document_Payload(t *testing.T) {
	t.Parallel()

	h := cli.NewHarness(t, newApp())
	doc := testschema.SampleDocument(5)
	path := writeFig(t, h, testschema.Root, doc)

	out, errOut, code := h.Run("json", path)

	require.Equal(t, 0, code, "stderr: %s", errOut)

	cs := testschema.Compiled()

	encoded, err := cs.Encode(testschema.Root, doc)
	require.NoError(t, err)

	decoded, err := cs.Decode(testschema.Root, encoded)
	require.NoError(t, err)

	expected, err := jsondoc.FromDocument(cs, testschema.Root, decoded)
	require.NoError(t, err)

	assert.JSONEq(t, string(expected), out)
}

func Test_JSON_Honors_Root_Flag(t *testing.T) {
	t.Parallel()

	h := cli.NewHarness(t, newApp())
	path := writeFig(t, h, "Blob", kiwi.Document{"bytes": []byte{1, 2, 3}})

	out := h.MustRun("json", "--root", "Blob", path)

	assert.JSONEq(t, `{"bytes": "AQID"}`, out)
}

func Test_JSON_Rejects_Unknown_Root(t *testing.T) {
	t.Parallel()

	h := cli.NewHarness(t, newApp())
	path := writeFig(t, h, testschema.Root, testschema.SampleDocument(1))

	errOut := h.MustFail("json", "--root", "Nope", path)

	assert.Contains(t, errOut, "error:")
	assert.Contains(t, errOut, "unknown definition")
}

func Test_Info_Rejects_Missing_File(t *testing.T) {
	t.Parallel()

	h := cli.NewHarness(t, newApp())

	errOut := h.MustFail("info", h.Path("absent.fig"))

	assert.Contains(t, errOut, "error:")
}

func Test_Info_Requires_Exactly_One_Arg(t *testing.T) {
	t.Parallel()

	h := cli.NewHarness(t, newApp())

	errOut := h.MustFail("info")

	assert.Contains(t, errOut, "expected exactly one fig file argument")
}
