// Package figfile reads the design-file container format: a magic
// header followed by length-prefixed chunks, where chunk 0 holds a
// DEFLATE-compressed binary schema and chunk 1 the compressed document
// payload. Newer files compress the payload with zstd, older ones with
// DEFLATE; the payload codec is sniffed from the zstd frame magic.
package figfile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/sys/unix"

	"github.com/sketchkit/kiwi"
)

const (
	magic          = "fig-kiwi"
	magicEncrypted = "fig-kiwie"

	// DefaultRoot is the definition documents decode against when no
	// root is named.
	DefaultRoot = "Message"
)

var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

var (
	// ErrBadMagic indicates input that does not start with a fig-kiwi
	// header.
	ErrBadMagic = errors.New("figfile: not a fig-kiwi file")

	// ErrEncrypted indicates a fig-kiwie file. They carry an encrypted
	// payload this package cannot read.
	ErrEncrypted = errors.New("figfile: encrypted file")

	// ErrTruncatedChunk indicates a chunk length that runs past the end
	// of the input.
	ErrTruncatedChunk = errors.New("figfile: truncated chunk")

	// ErrMissingChunks indicates a file without the schema and payload
	// chunks.
	ErrMissingChunks = errors.New("figfile: schema and payload chunks missing")
)

// File is a parsed design file.
//
// Chunks hold the raw (still compressed) chunk bytes and alias the
// input buffer; for files opened with Open they stay valid only until
// Close.
type File struct {
	// Chunks are the raw chunks in file order.
	Chunks [][]byte

	// Schema is the embedded schema, decoded from chunk 0.
	Schema *kiwi.Schema

	// Payload is the decompressed document payload from chunk 1.
	Payload []byte

	compiled *kiwi.CompiledSchema
	mapped   []byte
}

// Open mmaps path read-only and parses it. Close releases the mapping.
func Open(path string) (*File, error) {
	file, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("figfile: open: %w", err)
	}

	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("figfile: stat: %w", err)
	}

	size := info.Size()
	if size < int64(len(magic)) {
		return nil, ErrBadMagic
	}

	data, err := unix.Mmap(int(file.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("figfile: mmap: %w", err)
	}

	f, err := Parse(data)
	if err != nil {
		_ = unix.Munmap(data)

		return nil, err
	}

	f.mapped = data

	return f, nil
}

// Parse reads a design file from a buffer. The returned File aliases
// data; it does not copy the chunks.
func Parse(data []byte) (*File, error) {
	headerLen, encrypted := sniffMagic(data)
	if headerLen == 0 {
		return nil, ErrBadMagic
	}

	if encrypted {
		return nil, ErrEncrypted
	}

	chunks, err := splitChunks(data[headerLen:])
	if err != nil {
		return nil, err
	}

	if len(chunks) < 2 {
		return nil, ErrMissingChunks
	}

	schemaBytes, err := inflate(chunks[0])
	if err != nil {
		return nil, fmt.Errorf("figfile: schema chunk: %w", err)
	}

	schema, err := kiwi.DecodeBinarySchema(schemaBytes)
	if err != nil {
		return nil, fmt.Errorf("figfile: schema chunk: %w", err)
	}

	compiled, err := kiwi.CompileSchema(schema)
	if err != nil {
		return nil, fmt.Errorf("figfile: embedded schema: %w", err)
	}

	payload, err := decompressPayload(chunks[1])
	if err != nil {
		return nil, fmt.Errorf("figfile: payload chunk: %w", err)
	}

	return &File{
		Chunks:   chunks,
		Schema:   schema,
		Payload:  payload,
		compiled: compiled,
	}, nil
}

// Compiled returns the embedded schema compiled for codec use.
func (f *File) Compiled() *kiwi.CompiledSchema {
	return f.compiled
}

// Document decodes the payload against the embedded schema. An empty
// root decodes against DefaultRoot.
func (f *File) Document(root string) (kiwi.Document, error) {
	if root == "" {
		root = DefaultRoot
	}

	doc, err := f.compiled.Decode(root, f.Payload)
	if err != nil {
		return nil, fmt.Errorf("figfile: payload: %w", err)
	}

	return doc, nil
}

// Close releases the mmap for files opened with Open. It is a no-op
// for parsed buffers.
func (f *File) Close() error {
	if f.mapped == nil {
		return nil
	}

	data := f.mapped
	f.mapped = nil

	return unix.Munmap(data)
}

// sniffMagic returns the header length and encrypted flag, or 0 when
// the magic does not match. The encrypted form extends the plain one,
// so the longer prefix is checked first.
func sniffMagic(data []byte) (int, bool) {
	if bytes.HasPrefix(data, []byte(magicEncrypted)) {
		return len(magicEncrypted), true
	}

	if bytes.HasPrefix(data, []byte(magic)) {
		return len(magic), false
	}

	return 0, false
}

// splitChunks reads u32-LE length-prefixed chunks until a zero length
// or end of input.
func splitChunks(data []byte) ([][]byte, error) {
	var chunks [][]byte

	for len(data) >= 4 {
		size := binary.LittleEndian.Uint32(data[:4])
		if size == 0 {
			break
		}

		data = data[4:]

		if uint64(size) > uint64(len(data)) {
			return nil, fmt.Errorf("%w: chunk %d claims %d bytes, %d remain",
				ErrTruncatedChunk, len(chunks), size, len(data))
		}

		chunks = append(chunks, data[:size])
		data = data[size:]
	}

	return chunks, nil
}

func inflate(data []byte) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(data))
	defer func() { _ = r.Close() }()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("inflate: %w", err)
	}

	return out, nil
}

// decompressPayload sniffs the chunk codec: zstd frames open with a
// fixed magic, everything else is treated as raw DEFLATE from older
// files.
func decompressPayload(data []byte) ([]byte, error) {
	if bytes.HasPrefix(data, zstdMagic) {
		dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		defer dec.Close()

		out, err := dec.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}

		return out, nil
	}

	return inflate(data)
}
