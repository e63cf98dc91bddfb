package kiwi

import (
	"errors"
	"fmt"
	"strconv"
)

// ParseSchema parses schema text into its intermediate form.
//
// The grammar is line-oriented and small: an optional "package Name;"
// header followed by enum/struct/message blocks. Enum members are
// "NAME = value;", struct fields "type name;", message fields
// "type name = id;", with "[]" after the type for arrays and an optional
// "[deprecated]" before the semicolon on message fields. "//" starts a
// line comment.
//
// Parsing does not stop at the first problem. Each malformed declaration
// produces one [ParseError] and parsing resumes at the next ";" or "}",
// so a single run reports every broken declaration. When any error
// occurred the schema is nil and the returned error wraps all
// ParseErrors via [errors.Join].
//
// ParseSchema performs no semantic checks; ids, values, and type
// references are validated by [CompileSchema].
func ParseSchema(text string) (*Schema, error) {
	tokens, errs := scanTokens(text)

	p := &parser{tokens: tokens, errs: errs}
	schema := p.parseSchema()

	if len(p.errs) > 0 {
		return nil, errors.Join(p.errs...)
	}

	return schema, nil
}

type parser struct {
	tokens []token
	index  int
	errs   []error
}

func (p *parser) current() token {
	return p.tokens[p.index]
}

// advance moves past the current token. The final EOF token is never
// consumed, so current() stays valid.
func (p *parser) advance() {
	if p.index < len(p.tokens)-1 {
		p.index++
	}
}

// eat consumes the current token if it has the given kind.
func (p *parser) eat(kind tokenKind) bool {
	if p.current().kind != kind {
		return false
	}

	p.advance()

	return true
}

// expect consumes and returns the current token if it has the given
// kind. Otherwise it records a ParseError naming what (or the kind) and
// leaves the token in place for recovery.
func (p *parser) expect(kind tokenKind, what string) (token, bool) {
	tok := p.current()
	if tok.kind != kind {
		if what == "" {
			what = kind.String()
		}

		p.errorf(tok, "expected %s, found %s", what, describeToken(tok))

		return tok, false
	}

	p.advance()

	return tok, true
}

func (p *parser) errorf(tok token, format string, args ...any) {
	p.errs = append(p.errs, &ParseError{
		Line:   tok.line,
		Column: tok.column,
		Msg:    fmt.Sprintf(format, args...),
	})
}

func describeToken(tok token) string {
	switch tok.kind {
	case tokenIdent, tokenInt:
		return strconv.Quote(tok.text)
	default:
		return tok.kind.String()
	}
}

func (p *parser) parseSchema() *Schema {
	schema := &Schema{}

	// The package header is only recognized before the first definition.
	if cur := p.current(); cur.kind == tokenIdent && cur.text == "package" {
		p.advance()

		if name, ok := p.expect(tokenIdent, "package name"); ok {
			schema.Package = name.text
		}

		p.expect(tokenSemicolon, "")
	}

	for p.current().kind != tokenEOF {
		def, ok := p.parseDefinition()
		if !ok {
			p.syncTopLevel()

			continue
		}

		schema.Definitions = append(schema.Definitions, def)
	}

	return schema
}

func (p *parser) parseDefinition() (Definition, bool) {
	kw := p.current()

	var kind Kind

	switch {
	case kw.kind == tokenIdent && kw.text == "enum":
		kind = KindEnum
	case kw.kind == tokenIdent && kw.text == "struct":
		kind = KindStruct
	case kw.kind == tokenIdent && kw.text == "message":
		kind = KindMessage
	default:
		p.errorf(kw, "expected 'enum', 'struct', or 'message', found %s", describeToken(kw))

		return Definition{}, false
	}

	p.advance()

	name, ok := p.expect(tokenIdent, "definition name")
	if !ok {
		return Definition{}, false
	}

	if _, ok := p.expect(tokenLeftBrace, ""); !ok {
		return Definition{}, false
	}

	def := Definition{
		Name:   name.text,
		Kind:   kind,
		Line:   name.line,
		Column: name.column,
	}

	for !p.eat(tokenRightBrace) {
		if p.current().kind == tokenEOF {
			p.errorf(p.current(), "unterminated %s %q", kind, def.Name)

			return def, true
		}

		field, ok := p.parseField(kind)
		if !ok {
			p.syncField()

			continue
		}

		def.Fields = append(def.Fields, field)
	}

	return def, true
}

func (p *parser) parseField(kind Kind) (Field, bool) {
	var field Field

	// Enum members have no type.
	if kind != KindEnum {
		typ, ok := p.expect(tokenIdent, "type name")
		if !ok {
			return Field{}, false
		}

		field.Type = typ.text
		field.IsArray = p.eat(tokenArray)
	}

	name, ok := p.expect(tokenIdent, "field name")
	if !ok {
		return Field{}, false
	}

	field.Name = name.text
	field.Line = name.line
	field.Column = name.column

	// Struct fields have no explicit value; messages carry a field id,
	// enums a member value.
	if kind != KindStruct {
		if _, ok := p.expect(tokenEquals, ""); !ok {
			return Field{}, false
		}

		value, ok := p.expect(tokenInt, "integer")
		if !ok {
			return Field{}, false
		}

		n, err := strconv.ParseInt(value.text, 10, 32)
		if err != nil {
			p.errorf(value, "integer %s does not fit in 32 bits", value.text)

			return Field{}, false
		}

		field.Value = int32(n)
	}

	if dep := p.current(); p.eat(tokenDeprecated) {
		if kind != KindMessage {
			p.errorf(dep, "only message fields can be deprecated")
		}

		field.IsDeprecated = true
	}

	if _, ok := p.expect(tokenSemicolon, ""); !ok {
		return Field{}, false
	}

	return field, true
}

// syncField recovers after a malformed field: consume through the next
// ";" or stop in front of "}" so the definition loop can close the
// block.
func (p *parser) syncField() {
	for {
		switch p.current().kind {
		case tokenSemicolon:
			p.advance()

			return
		case tokenRightBrace, tokenEOF:
			return
		default:
			p.advance()
		}
	}
}

// syncTopLevel recovers after a malformed definition header: skip ahead
// to the next enum/struct/message keyword. Always makes progress so a
// stuck token cannot loop.
func (p *parser) syncTopLevel() {
	if p.current().kind != tokenEOF {
		p.advance()
	}

	for {
		cur := p.current()

		if cur.kind == tokenEOF {
			return
		}

		if cur.kind == tokenIdent && (cur.text == "enum" || cur.text == "struct" || cur.text == "message") {
			return
		}

		p.advance()
	}
}
