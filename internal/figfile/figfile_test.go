package figfile_test

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sketchkit/kiwi"
	"github.com/sketchkit/kiwi/internal/figfile"
	"github.com/sketchkit/kiwi/internal/testschema"
)

// fixture builds a synthetic design file in memory: the shared test
// schema as a DEFLATE-compressed binary schema chunk, plus a sample
// payload chunk.
type fixture struct {
	raw      []byte
	payload  []byte
	expected kiwi.Document
}

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

func buildFig(t *testing.T, nodes int, zstdPayload bool, extraChunks ...[]byte) fixture {
	t.Helper()

	cs := testschema.Compiled()

	schemaBinary, err := kiwi.EncodeBinarySchema(cs.Schema())
	require.NoError(t, err)

	payload, err := cs.Encode(testschema.Root, testschema.SampleDocument(nodes))
	require.NoError(t, err)

	expected, err := cs.Decode(testschema.Root, payload)
	require.NoError(t, err)

	compressedPayload := deflateBytes(t, payload)
	if zstdPayload {
		compressedPayload = zstdBytes(t, payload)
	}

	raw := []byte("fig-kiwi")
	raw = appendChunk(raw, deflateBytes(t, schemaBinary))
	raw = appendChunk(raw, compressedPayload)

	for _, chunk := range extraChunks {
		raw = appendChunk(raw, chunk)
	}

	return fixture{raw: raw, payload: payload, expected: expected}
}

func Test_Parse_Reads_Zstd_Payload_File(t *testing.T) {
	t.Parallel()

	fix := buildFig(t, 20, true)

	f, err := figfile.Parse(fix.raw)
	require.NoError(t, err)

	assert.Len(t, f.Chunks, 2)
	assert.Equal(t, fix.payload, f.Payload, "payload should decompress to the original bytes")

	require.NotNil(t, f.Schema)
	require.NotNil(t, f.Schema.Definition("NodeChange"))

	doc, err := f.Document("")
	require.NoError(t, err)

	diff := cmp.Diff(fix.expected, doc)
	assert.Empty(t, diff, "document should match a direct decode of the payload")
}

func Test_Parse_Falls_Back_To_Deflate_Payload(t *testing.T) {
	t.Parallel()

	fix := buildFig(t, 5, false)

	f, err := figfile.Parse(fix.raw)
	require.NoError(t, err)

	assert.Equal(t, fix.payload, f.Payload)

	doc, err := f.Document(figfile.DefaultRoot)
	require.NoError(t, err)

	diff := cmp.Diff(fix.expected, doc)
	assert.Empty(t, diff)
}

func Test_Parse_Keeps_Trailing_Chunks(t *testing.T) {
	t.Parallel()

	preview := []byte{0x89, 'P', 'N', 'G', 1, 2, 3, 4}
	fix := buildFig(t, 3, true, preview)

	f, err := figfile.Parse(fix.raw)
	require.NoError(t, err)

	require.Len(t, f.Chunks, 3)
	assert.Equal(t, preview, f.Chunks[2])
}

func Test_Parse_Stops_At_Zero_Size_Chunk(t *testing.T) {
	t.Parallel()

	fix := buildFig(t, 3, true)

	// Terminator plus junk that would be a truncated chunk if read.
	raw := binary.LittleEndian.AppendUint32(fix.raw, 0)
	raw = append(raw, 0xFF, 0xFF, 0xFF)

	f, err := figfile.Parse(raw)
	require.NoError(t, err)
	assert.Len(t, f.Chunks, 2)
}

func Test_Parse_Rejects_Non_Fig_Input(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input []byte
	}{
		{name: "empty", input: nil},
		{name: "short", input: []byte("fig")},
		{name: "wrong magic", input: []byte("zip-kiwi\x00\x00\x00\x00")},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := figfile.Parse(tt.input)

			require.Error(t, err)
			assert.ErrorIs(t, err, figfile.ErrBadMagic)
		})
	}
}

func Test_Parse_Rejects_Encrypted_Files(t *testing.T) {
	t.Parallel()

	raw := append([]byte("fig-kiwie"), 1, 2, 3, 4)

	_, err := figfile.Parse(raw)

	require.Error(t, err)
	assert.ErrorIs(t, err, figfile.ErrEncrypted)
}

func Test_Parse_Rejects_Truncated_Chunk(t *testing.T) {
	t.Parallel()

	raw := []byte("fig-kiwi")
	raw = binary.LittleEndian.AppendUint32(raw, 100)
	raw = append(raw, 1, 2, 3)

	_, err := figfile.Parse(raw)

	require.Error(t, err)
	assert.ErrorIs(t, err, figfile.ErrTruncatedChunk)
}

func Test_Parse_Rejects_Missing_Chunks(t *testing.T) {
	t.Parallel()

	headerOnly := []byte("fig-kiwi")

	_, err := figfile.Parse(headerOnly)
	require.Error(t, err)
	assert.ErrorIs(t, err, figfile.ErrMissingChunks)

	oneChunk := appendChunk([]byte("fig-kiwi"), []byte{1, 2, 3})

	_, err = figfile.Parse(oneChunk)
	require.Error(t, err)
	assert.ErrorIs(t, err, figfile.ErrMissingChunks)
}

func Test_Parse_Rejects_Corrupt_Schema_Chunk(t *testing.T) {
	t.Parallel()

	raw := []byte("fig-kiwi")
	raw = appendChunk(raw, []byte{0xDE, 0xAD, 0xBE, 0xEF})
	raw = appendChunk(raw, []byte{0x00})

	_, err := figfile.Parse(raw)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema chunk")
}

func Test_Document_Rejects_Unknown_Root(t *testing.T) {
	t.Parallel()

	fix := buildFig(t, 1, true)

	f, err := figfile.Parse(fix.raw)
	require.NoError(t, err)

	_, err = f.Document("NotADefinition")

	require.Error(t, err)
	assert.ErrorIs(t, err, kiwi.ErrUnknownDefinition)
}

func Test_Open_Reads_File_Through_Mmap(t *testing.T) {
	t.Parallel()

	fix := buildFig(t, 10, true)

	path := filepath.Join(t.TempDir(), "sample.fig")
	require.NoError(t, os.WriteFile(path, fix.raw, 0o600))

	f, err := figfile.Open(path)
	require.NoError(t, err)

	doc, err := f.Document("")
	require.NoError(t, err)

	diff := cmp.Diff(fix.expected, doc)
	assert.Empty(t, diff)

	require.NoError(t, f.Close())
	assert.NoError(t, f.Close(), "Close should be idempotent")
}

func Test_Open_Rejects_Missing_File(t *testing.T) {
	t.Parallel()

	_, err := figfile.Open(filepath.Join(t.TempDir(), "absent.fig"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "open")
}
