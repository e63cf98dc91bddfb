package kiwi

import (
	"errors"
	"fmt"
	"math"
)

// DecodeOptions configures one Decode call.
type DecodeOptions struct {
	// Producer, when set, supplies the schema of whoever produced the
	// bytes. Message fields with ids unknown to the decoding schema are
	// then skipped using the producer's field types instead of failing
	// with [ErrUnknownFieldID].
	Producer *CompiledSchema
}

// DecodeOption mutates DecodeOptions.
type DecodeOption func(*DecodeOptions)

// WithProducerSchema enables forward-compatible decoding: bytes written
// by a newer schema revision can be read by an older one, with the new
// fields skipped rather than rejected.
func WithProducerSchema(producer *CompiledSchema) DecodeOption {
	return func(opts *DecodeOptions) {
		opts.Producer = producer
	}
}

func applyDecodeOptions(opts []DecodeOption) DecodeOptions {
	var options DecodeOptions

	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	return options
}

// Encode serializes doc against the named struct or message definition
// and returns the wire bytes.
//
// Output is deterministic: message fields are written in declaration
// order regardless of map iteration order, so equal documents always
// produce equal bytes. Failures return an [*EncodeError].
func (cs *CompiledSchema) Encode(name string, doc Document) ([]byte, error) {
	cd := cs.defs[name]
	if cd == nil {
		return nil, &EncodeError{Definition: name, Err: ErrUnknownDefinition}
	}

	if cd.def.Kind == KindEnum {
		return nil, &EncodeError{Definition: name, Err: errors.New("kiwi: enum definitions have no document form")}
	}

	st := &encodeState{cs: cs, bb: &ByteBuffer{}, maxDepth: cs.maxDepth}

	if err := st.encodeDef(cd, doc); err != nil {
		return nil, err
	}

	return st.bb.Bytes(), nil
}

// Decode parses data against the named struct or message definition.
//
// The input is fully walked up front; malformed bytes produce a
// [*DecodeError] with the failure offset, never a panic or a partial
// document. Bytes past the end of the top-level value are ignored.
func (cs *CompiledSchema) Decode(name string, data []byte, opts ...DecodeOption) (Document, error) {
	options := applyDecodeOptions(opts)

	cd := cs.defs[name]
	if cd == nil {
		return nil, &DecodeError{Definition: name, Err: ErrUnknownDefinition}
	}

	if cd.def.Kind == KindEnum {
		return nil, &DecodeError{Definition: name, Err: errors.New("kiwi: enum definitions have no document form")}
	}

	st := &decodeState{
		cs:       cs,
		producer: options.Producer,
		bb:       NewByteBuffer(data),
		maxDepth: cs.maxDepth,
	}

	v, err := st.decodeDef(cd)
	if err != nil {
		return nil, err
	}

	return v.(Document), nil
}

type (
	encodeFunc func(st *encodeState, v any) error
	decodeFunc func(st *decodeState) (any, error)
	skipFunc   func(st *decodeState) error
)

type encodeState struct {
	cs       *CompiledSchema
	bb       *ByteBuffer
	depth    int
	maxDepth int
}

func (st *encodeState) enter() error {
	st.depth++
	if st.depth > st.maxDepth {
		return ErrRecursionLimit
	}

	return nil
}

func (st *encodeState) leave() {
	st.depth--
}

type decodeState struct {
	cs       *CompiledSchema
	producer *CompiledSchema
	bb       *ByteBuffer
	depth    int
	maxDepth int
}

func (st *decodeState) enter() error {
	st.depth++
	if st.depth > st.maxDepth {
		return ErrRecursionLimit
	}

	return nil
}

func (st *decodeState) leave() {
	st.depth--
}

// encodeDef writes one value of the definition: an enum member name, or
// a document framed per the definition's kind.
func (st *encodeState) encodeDef(cd *compiledDef, v any) error {
	d := cd.def

	if d.Kind == KindEnum {
		s, ok := v.(string)
		if !ok {
			return &EncodeError{Definition: d.Name, Err: ErrTypeMismatch}
		}

		val, ok := cd.enumByName[s]
		if !ok {
			return &EncodeError{Definition: d.Name, Err: fmt.Errorf("%w: %q", ErrUnknownEnumValue, s)}
		}

		st.bb.WriteVarUint(val)

		return nil
	}

	doc, ok := asDocument(v)
	if !ok {
		return &EncodeError{Definition: d.Name, Err: ErrTypeMismatch}
	}

	if err := st.enter(); err != nil {
		return &EncodeError{Definition: d.Name, Err: err}
	}
	defer st.leave()

	if d.Kind == KindStruct {
		for i := range cd.fields {
			cf := &cd.fields[i]

			fv, ok := presentField(doc, cf.field.Name)
			if !ok {
				return &EncodeError{Definition: d.Name, Field: cf.field.Name, Err: ErrMissingField}
			}

			if err := cf.enc(st, fv); err != nil {
				return wrapEncode(err, d.Name, cf.field.Name)
			}
		}

		return nil
	}

	// Message: present fields in declaration order, then the zero
	// terminator. Deprecated fields are never written.
	for i := range cd.fields {
		cf := &cd.fields[i]

		if cf.field.IsDeprecated {
			continue
		}

		fv, ok := presentField(doc, cf.field.Name)
		if !ok {
			continue
		}

		st.bb.WriteVarUint(uint32(cf.field.Value))

		if err := cf.enc(st, fv); err != nil {
			return wrapEncode(err, d.Name, cf.field.Name)
		}
	}

	st.bb.WriteVarUint(0)

	return nil
}

// decodeDef reads one value of the definition.
func (st *decodeState) decodeDef(cd *compiledDef) (any, error) {
	d := cd.def

	if d.Kind == KindEnum {
		u, err := st.bb.ReadVarUint()
		if err != nil {
			return nil, wrapDecode(err, d.Name, "", st.bb.Offset())
		}

		name, ok := cd.enumByValue[u]
		if !ok {
			return nil, wrapDecode(fmt.Errorf("%w: %d", ErrUnknownEnumValue, u), d.Name, "", st.bb.Offset())
		}

		return name, nil
	}

	if err := st.enter(); err != nil {
		return nil, wrapDecode(err, d.Name, "", st.bb.Offset())
	}
	defer st.leave()

	doc := Document{}

	if d.Kind == KindStruct {
		for i := range cd.fields {
			cf := &cd.fields[i]

			v, err := cf.dec(st)
			if err != nil {
				return nil, wrapDecode(err, d.Name, cf.field.Name, st.bb.Offset())
			}

			doc[cf.field.Name] = v
		}

		return doc, nil
	}

	// Message: id-tagged fields until the zero terminator.
	for {
		id, err := st.bb.ReadVarUint()
		if err != nil {
			return nil, wrapDecode(err, d.Name, "", st.bb.Offset())
		}

		if id == 0 {
			return doc, nil
		}

		cf := cd.fieldByID[id]
		if cf == nil {
			if err := st.skipUnknownField(d.Name, id); err != nil {
				return nil, wrapDecode(err, d.Name, "", st.bb.Offset())
			}

			continue
		}

		if cf.field.IsDeprecated {
			if err := cf.skip(st); err != nil {
				return nil, wrapDecode(err, d.Name, cf.field.Name, st.bb.Offset())
			}

			continue
		}

		v, err := cf.dec(st)
		if err != nil {
			return nil, wrapDecode(err, d.Name, cf.field.Name, st.bb.Offset())
		}

		// A repeated id keeps the last occurrence.
		doc[cf.field.Name] = v
	}
}

// skipDef consumes one value of the definition without building it.
func (st *decodeState) skipDef(cd *compiledDef) error {
	d := cd.def

	if d.Kind == KindEnum {
		_, err := st.bb.ReadVarUint()

		return err
	}

	if err := st.enter(); err != nil {
		return err
	}
	defer st.leave()

	if d.Kind == KindStruct {
		for i := range cd.fields {
			if err := cd.fields[i].skip(st); err != nil {
				return err
			}
		}

		return nil
	}

	for {
		id, err := st.bb.ReadVarUint()
		if err != nil {
			return err
		}

		if id == 0 {
			return nil
		}

		cf := cd.fieldByID[id]
		if cf == nil {
			if err := st.skipUnknownField(d.Name, id); err != nil {
				return err
			}

			continue
		}

		if err := cf.skip(st); err != nil {
			return err
		}
	}
}

// skipUnknownField advances past a field id the decoding schema does not
// know, using the producer schema's type for it when one was supplied.
func (st *decodeState) skipUnknownField(defName string, id uint32) error {
	if st.producer == nil {
		return fmt.Errorf("%w: %d", ErrUnknownFieldID, id)
	}

	pd := st.producer.defs[defName]
	if pd == nil || pd.def.Kind != KindMessage {
		return fmt.Errorf("%w: %d", ErrUnknownFieldID, id)
	}

	pf := pd.fieldByID[id]
	if pf == nil {
		return fmt.Errorf("%w: %d", ErrUnknownFieldID, id)
	}

	// The skipped bytes follow the producer's schema, so nested
	// references must resolve in the producer's table.
	sub := decodeState{
		cs:       st.producer,
		producer: st.producer,
		bb:       st.bb,
		depth:    st.depth,
		maxDepth: st.maxDepth,
	}

	return pf.skip(&sub)
}

// wrapEncode attaches definition and field context unless an inner
// frame already did.
func wrapEncode(err error, def, field string) error {
	var ee *EncodeError
	if errors.As(err, &ee) {
		return err
	}

	return &EncodeError{Definition: def, Field: field, Err: err}
}

// wrapDecode attaches definition, field, and offset context unless an
// inner frame already did.
func wrapDecode(err error, def, field string, offset int) error {
	var de *DecodeError
	if errors.As(err, &de) {
		return err
	}

	return &DecodeError{Definition: def, Field: field, Offset: offset, Err: err}
}

// fieldCodec builds the encode/decode/skip triple for one field,
// wrapping the base type codec with array framing when needed.
func fieldCodec(f *Field) (encodeFunc, decodeFunc, skipFunc) {
	if f.IsArray {
		if f.Type == TypeByte {
			return encByteArray, decByteArray, skipByteArray
		}

		return arrayCodec(typeCodec(f.Type))
	}

	return typeCodec(f.Type)
}

// typeCodec returns the codec triple for a type name. Definition
// references resolve by name at call time through the running schema's
// table, so cycles between definitions cost nothing at compile time.
func typeCodec(name string) (encodeFunc, decodeFunc, skipFunc) {
	switch name {
	case TypeBool:
		return encBool, decBool, skipBool
	case TypeByte:
		return encByte, decByte, skipByte
	case TypeInt:
		return encInt, decInt, skipVarint
	case TypeUint:
		return encUint, decUint, skipVarint
	case TypeInt64:
		return encInt64, decInt64, skipVarint64
	case TypeUint64:
		return encUint64, decUint64, skipVarint64
	case TypeFloat:
		return encFloat, decFloat, skipFloat
	case TypeString:
		return encString, decString, skipString
	default:
		return encRef(name), decRef(name), skipRef(name)
	}
}

func encRef(name string) encodeFunc {
	return func(st *encodeState, v any) error {
		cd := st.cs.defs[name]
		if cd == nil {
			return ErrUnknownDefinition
		}

		return st.encodeDef(cd, v)
	}
}

func decRef(name string) decodeFunc {
	return func(st *decodeState) (any, error) {
		cd := st.cs.defs[name]
		if cd == nil {
			return nil, ErrUnknownDefinition
		}

		return st.decodeDef(cd)
	}
}

func skipRef(name string) skipFunc {
	return func(st *decodeState) error {
		cd := st.cs.defs[name]
		if cd == nil {
			return ErrUnknownDefinition
		}

		return st.skipDef(cd)
	}
}

// arrayCodec wraps an element codec with the varuint count prefix.
func arrayCodec(elemEnc encodeFunc, elemDec decodeFunc, elemSkip skipFunc) (encodeFunc, decodeFunc, skipFunc) {
	enc := func(st *encodeState, v any) error {
		items, ok := v.([]any)
		if !ok {
			return ErrTypeMismatch
		}

		st.bb.WriteVarUint(uint32(len(items)))

		for _, item := range items {
			if item == nil {
				return ErrTypeMismatch
			}

			if err := elemEnc(st, item); err != nil {
				return err
			}
		}

		return nil
	}

	dec := func(st *decodeState) (any, error) {
		n, err := st.bb.ReadVarUint()
		if err != nil {
			return nil, err
		}

		// Every element costs at least one byte, so a count beyond the
		// remaining input is corrupt. Checked before allocating.
		if uint64(n) > uint64(st.bb.Remaining()) {
			return nil, ErrTruncated
		}

		items := make([]any, 0, n)

		for i := uint32(0); i < n; i++ {
			item, err := elemDec(st)
			if err != nil {
				return nil, err
			}

			items = append(items, item)
		}

		return items, nil
	}

	skip := func(st *decodeState) error {
		n, err := st.bb.ReadVarUint()
		if err != nil {
			return err
		}

		if uint64(n) > uint64(st.bb.Remaining()) {
			return ErrTruncated
		}

		for i := uint32(0); i < n; i++ {
			if err := elemSkip(st); err != nil {
				return err
			}
		}

		return nil
	}

	return enc, dec, skip
}

// Byte arrays bypass per-element framing: varuint length plus raw
// bytes.

func encByteArray(st *encodeState, v any) error {
	if b, ok := v.([]byte); ok {
		st.bb.WriteByteArray(b)

		return nil
	}

	items, ok := v.([]any)
	if !ok {
		return ErrTypeMismatch
	}

	st.bb.WriteVarUint(uint32(len(items)))

	for _, item := range items {
		if err := encByte(st, item); err != nil {
			return err
		}
	}

	return nil
}

func decByteArray(st *decodeState) (any, error) {
	b, err := st.bb.ReadByteArray()
	if err != nil {
		return nil, err
	}

	return b, nil
}

func skipByteArray(st *decodeState) error {
	n, err := st.bb.ReadVarUint()
	if err != nil {
		return err
	}

	return st.bb.skipBytes(n)
}

// Primitive codecs. Encoders return bare sentinels; the framer loops
// attach definition and field context.

func encBool(st *encodeState, v any) error {
	b, ok := v.(bool)
	if !ok {
		return ErrTypeMismatch
	}

	st.bb.WriteBool(b)

	return nil
}

func decBool(st *decodeState) (any, error) {
	b, err := st.bb.ReadBool()
	if err != nil {
		return nil, err
	}

	return b, nil
}

func skipBool(st *decodeState) error {
	_, err := st.bb.ReadBool()

	return err
}

func encByte(st *encodeState, v any) error {
	n, ok := coerceUint64(v, math.MaxUint8)
	if !ok {
		return ErrTypeMismatch
	}

	_ = st.bb.WriteByte(byte(n))

	return nil
}

func decByte(st *decodeState) (any, error) {
	b, err := st.bb.ReadByte()
	if err != nil {
		return nil, err
	}

	return b, nil
}

func skipByte(st *decodeState) error {
	_, err := st.bb.ReadByte()

	return err
}

func encInt(st *encodeState, v any) error {
	n, ok := coerceInt64(v, math.MinInt32, math.MaxInt32)
	if !ok {
		return ErrTypeMismatch
	}

	st.bb.WriteVarInt(int32(n))

	return nil
}

func decInt(st *decodeState) (any, error) {
	n, err := st.bb.ReadVarInt()
	if err != nil {
		return nil, err
	}

	return n, nil
}

func encUint(st *encodeState, v any) error {
	n, ok := coerceUint64(v, math.MaxUint32)
	if !ok {
		return ErrTypeMismatch
	}

	st.bb.WriteVarUint(uint32(n))

	return nil
}

func decUint(st *decodeState) (any, error) {
	n, err := st.bb.ReadVarUint()
	if err != nil {
		return nil, err
	}

	return n, nil
}

func skipVarint(st *decodeState) error {
	_, err := st.bb.ReadVarUint()

	return err
}

func encInt64(st *encodeState, v any) error {
	n, ok := coerceInt64(v, math.MinInt64, math.MaxInt64)
	if !ok {
		return ErrTypeMismatch
	}

	st.bb.WriteVarInt64(n)

	return nil
}

func decInt64(st *decodeState) (any, error) {
	n, err := st.bb.ReadVarInt64()
	if err != nil {
		return nil, err
	}

	return n, nil
}

func encUint64(st *encodeState, v any) error {
	n, ok := coerceUint64(v, math.MaxUint64)
	if !ok {
		return ErrTypeMismatch
	}

	st.bb.WriteVarUint64(n)

	return nil
}

func decUint64(st *decodeState) (any, error) {
	n, err := st.bb.ReadVarUint64()
	if err != nil {
		return nil, err
	}

	return n, nil
}

func skipVarint64(st *decodeState) error {
	_, err := st.bb.ReadVarUint64()

	return err
}

func encFloat(st *encodeState, v any) error {
	f, ok := coerceFloat64(v)
	if !ok {
		return ErrTypeMismatch
	}

	st.bb.WriteVarFloat(float32(f))

	return nil
}

func decFloat(st *decodeState) (any, error) {
	f, err := st.bb.ReadVarFloat()
	if err != nil {
		return nil, err
	}

	// Documents hold doubles; the wire holds float32 precision.
	return float64(f), nil
}

func skipFloat(st *decodeState) error {
	_, err := st.bb.ReadVarFloat()

	return err
}

func encString(st *encodeState, v any) error {
	s, ok := v.(string)
	if !ok {
		return ErrTypeMismatch
	}

	return st.bb.WriteString(s)
}

func decString(st *decodeState) (any, error) {
	s, err := st.bb.ReadString()
	if err != nil {
		return nil, err
	}

	return s, nil
}

func skipString(st *decodeState) error {
	return st.bb.skipString()
}
