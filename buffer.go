package kiwi

import (
	"bytes"
	"math"
	"strings"
)

// ByteBuffer reads and writes the primitive wire forms: fixed bytes,
// variable-length integers, rotated floats, NUL-terminated strings and
// length-prefixed byte arrays.
//
// A buffer is either a reader over existing bytes or an appender for new
// ones. Reads consume from the front via an internal cursor and never
// panic on malformed input; every Read method reports [ErrTruncated] (or
// a more specific sentinel) instead.
//
// The zero value is an empty writable buffer.
type ByteBuffer struct {
	data  []byte
	index int
}

// NewByteBuffer returns a buffer that reads from data. The buffer does
// not copy data; the caller must not mutate it while reading.
func NewByteBuffer(data []byte) *ByteBuffer {
	return &ByteBuffer{data: data}
}

// Bytes returns the full contents, written or wrapped. The slice aliases
// the buffer's storage.
func (bb *ByteBuffer) Bytes() []byte {
	return bb.data
}

// Len returns the total length in bytes.
func (bb *ByteBuffer) Len() int {
	return len(bb.data)
}

// Offset returns the current read position.
func (bb *ByteBuffer) Offset() int {
	return bb.index
}

// Remaining returns the number of unread bytes.
func (bb *ByteBuffer) Remaining() int {
	return len(bb.data) - bb.index
}

// ReadByte returns the next byte.
func (bb *ByteBuffer) ReadByte() (byte, error) {
	if bb.index >= len(bb.data) {
		return 0, ErrTruncated
	}

	b := bb.data[bb.index]
	bb.index++

	return b, nil
}

// WriteByte appends one byte. The returned error is always nil; the
// signature exists to satisfy [io.ByteWriter].
func (bb *ByteBuffer) WriteByte(v byte) error {
	bb.data = append(bb.data, v)

	return nil
}

// ReadBool reads one byte and requires it to be 0 or 1. Any other value
// is [ErrMalformedBool]; a bool byte never legitimately holds anything
// else, so this catches stream misalignment early.
func (bb *ByteBuffer) ReadBool() (bool, error) {
	b, err := bb.ReadByte()
	if err != nil {
		return false, err
	}

	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, ErrMalformedBool
	}
}

// WriteBool appends 1 for true, 0 for false.
func (bb *ByteBuffer) WriteBool(v bool) {
	if v {
		bb.data = append(bb.data, 1)
	} else {
		bb.data = append(bb.data, 0)
	}
}

// ReadVarUint reads an unsigned 32-bit varint: 7 value bits per byte,
// least significant group first, high bit set on all but the last byte.
// A varint wider than 5 bytes cannot encode a 32-bit value, so a 5th
// byte with the continuation bit still set is [ErrTruncatedVarint].
func (bb *ByteBuffer) ReadVarUint() (uint32, error) {
	var value uint32
	var shift uint

	for {
		b, err := bb.ReadByte()
		if err != nil {
			return 0, err
		}

		value |= uint32(b&127) << shift
		shift += 7

		if b&128 == 0 {
			return value, nil
		}

		if shift >= 35 {
			return 0, ErrTruncatedVarint
		}
	}
}

// WriteVarUint appends v as an unsigned varint, at most 5 bytes.
func (bb *ByteBuffer) WriteVarUint(v uint32) {
	for {
		b := byte(v & 127)
		v >>= 7

		if v == 0 {
			bb.data = append(bb.data, b)

			return
		}

		bb.data = append(bb.data, b|128)
	}
}

// ReadVarInt reads a zigzag-encoded signed 32-bit varint.
func (bb *ByteBuffer) ReadVarInt() (int32, error) {
	u, err := bb.ReadVarUint()
	if err != nil {
		return 0, err
	}

	return int32(u>>1) ^ -int32(u&1), nil
}

// WriteVarInt appends v zigzag-encoded, so small magnitudes of either
// sign stay short.
func (bb *ByteBuffer) WriteVarInt(v int32) {
	bb.WriteVarUint(uint32((v << 1) ^ (v >> 31)))
}

// ReadVarUint64 reads an unsigned 64-bit varint. The first 8 bytes carry
// 7 value bits each behind a continuation flag; a 9th byte, when
// present, carries the top 8 bits raw. The loop is bounded by
// construction, so no width check is needed.
func (bb *ByteBuffer) ReadVarUint64() (uint64, error) {
	var value uint64
	var shift uint

	for {
		b, err := bb.ReadByte()
		if err != nil {
			return 0, err
		}

		if b&128 == 0 || shift == 56 {
			return value | uint64(b)<<shift, nil
		}

		value |= uint64(b&127) << shift
		shift += 7
	}
}

// WriteVarUint64 appends v as a 64-bit varint, at most 9 bytes.
func (bb *ByteBuffer) WriteVarUint64(v uint64) {
	for i := 0; i < 8; i++ {
		b := byte(v & 127)
		v >>= 7

		if v == 0 {
			bb.data = append(bb.data, b)

			return
		}

		bb.data = append(bb.data, b|128)
	}

	// Top 8 bits go in the 9th byte with no continuation flag.
	bb.data = append(bb.data, byte(v))
}

// ReadVarInt64 reads a zigzag-encoded signed 64-bit varint.
func (bb *ByteBuffer) ReadVarInt64() (int64, error) {
	u, err := bb.ReadVarUint64()
	if err != nil {
		return 0, err
	}

	return int64(u>>1) ^ -int64(u&1), nil
}

// WriteVarInt64 appends v zigzag-encoded.
func (bb *ByteBuffer) WriteVarInt64(v int64) {
	bb.WriteVarUint64(uint64((v << 1) ^ (v >> 63)))
}

// ReadVarFloat reads a float32. A leading zero byte is the whole value
// (+0.0); otherwise three more bytes follow and the 32-bit pattern is
// un-rotated to put the exponent back in place.
func (bb *ByteBuffer) ReadVarFloat() (float32, error) {
	first, err := bb.ReadByte()
	if err != nil {
		return 0, err
	}

	// The first byte is the exponent field. Zero exponent is stored as
	// a single byte.
	if first == 0 {
		return 0, nil
	}

	if bb.index+3 > len(bb.data) {
		bb.index = len(bb.data)

		return 0, ErrTruncated
	}

	bits := uint32(first) |
		uint32(bb.data[bb.index])<<8 |
		uint32(bb.data[bb.index+1])<<16 |
		uint32(bb.data[bb.index+2])<<24
	bb.index += 3

	// Move the exponent back into place.
	bits = bits<<23 | bits>>9

	return math.Float32frombits(bits), nil
}

// WriteVarFloat appends v with the exponent rotated into the first byte.
// Values with a zero exponent field (positive and negative zero,
// subnormals) collapse to a single 0x00 byte, which decodes as +0.0.
func (bb *ByteBuffer) WriteVarFloat(v float32) {
	bits := math.Float32bits(v)

	// Rotate the exponent into the low byte.
	bits = bits>>23 | bits<<9

	if bits&255 == 0 {
		bb.data = append(bb.data, 0)

		return
	}

	bb.data = append(bb.data, byte(bits), byte(bits>>8), byte(bits>>16), byte(bits>>24))
}

// ReadString reads UTF-8 bytes up to a NUL terminator. The terminator is
// consumed and excluded from the result. Byte content is not validated;
// Go strings tolerate arbitrary bytes.
func (bb *ByteBuffer) ReadString() (string, error) {
	rest := bb.data[bb.index:]

	end := bytes.IndexByte(rest, 0)
	if end < 0 {
		bb.index = len(bb.data)

		return "", ErrTruncated
	}

	s := string(rest[:end])
	bb.index += end + 1

	return s, nil
}

// WriteString appends the UTF-8 bytes of v followed by a NUL terminator.
// Returns [ErrEmbeddedNull] if v contains a NUL byte, since the
// terminator-based framing cannot represent it.
func (bb *ByteBuffer) WriteString(v string) error {
	if strings.IndexByte(v, 0) >= 0 {
		return ErrEmbeddedNull
	}

	bb.data = append(bb.data, v...)
	bb.data = append(bb.data, 0)

	return nil
}

// ReadByteArray reads a varuint length followed by that many raw bytes.
// The claimed length is checked against the remaining input before
// anything is allocated, so a corrupt length cannot trigger a huge
// allocation. The result is a copy and does not alias the input.
func (bb *ByteBuffer) ReadByteArray() ([]byte, error) {
	n, err := bb.ReadVarUint()
	if err != nil {
		return nil, err
	}

	if uint64(n) > uint64(bb.Remaining()) {
		bb.index = len(bb.data)

		return nil, ErrTruncated
	}

	out := bytes.Clone(bb.data[bb.index : bb.index+int(n)])
	bb.index += int(n)

	return out, nil
}

// WriteByteArray appends a varuint length prefix followed by v verbatim.
func (bb *ByteBuffer) WriteByteArray(v []byte) {
	bb.WriteVarUint(uint32(len(v)))
	bb.data = append(bb.data, v...)
}

// skipBytes advances past n bytes without reading them.
func (bb *ByteBuffer) skipBytes(n uint32) error {
	if uint64(n) > uint64(bb.Remaining()) {
		bb.index = len(bb.data)

		return ErrTruncated
	}

	bb.index += int(n)

	return nil
}

// skipString advances past a NUL-terminated string without building it.
func (bb *ByteBuffer) skipString() error {
	end := bytes.IndexByte(bb.data[bb.index:], 0)
	if end < 0 {
		bb.index = len(bb.data)

		return ErrTruncated
	}

	bb.index += end + 1

	return nil
}
