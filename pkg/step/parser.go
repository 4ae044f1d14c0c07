package step

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf16"
)

// ErrSyntax is returned for input that is not valid Part 21
var ErrSyntax = errors.New("step: syntax error")

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokKeyword
	tokInstance // #12 on the left of '='
	tokInt
	tokReal
	tokString
	tokEnum
	tokBinary
	tokDollar
	tokStar
	tokPunct
)

type token struct {
	kind tokenKind
	text string
	line int
}

type lexer struct {
	r    *bufio.Reader
	line int
	peek *token
}

func newLexer(r io.Reader) *lexer {
	return &lexer{r: bufio.NewReader(r), line: 1}
}

func (l *lexer) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", ErrSyntax, l.line, fmt.Sprintf(format, args...))
}

func (l *lexer) read() (byte, bool) {
	c, err := l.r.ReadByte()
	if err != nil {
		return 0, false
	}
	if c == '\n' {
		l.line++
	}
	return c, true
}

func (l *lexer) unread(c byte) {
	l.r.UnreadByte()
	if c == '\n' {
		l.line--
	}
}

func (l *lexer) skipSpace() error {
	for {
		c, ok := l.read()
		if !ok {
			return nil
		}
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			continue
		case c == '/':
			next, ok := l.read()
			if !ok || next != '*' {
				return l.errorf("unexpected '/'")
			}
			if err := l.skipComment(); err != nil {
				return err
			}
		default:
			l.unread(c)
			return nil
		}
	}
}

func (l *lexer) skipComment() error {
	prev := byte(0)
	for {
		c, ok := l.read()
		if !ok {
			return l.errorf("unterminated comment")
		}
		if prev == '*' && c == '/' {
			return nil
		}
		prev = c
	}
}

func (l *lexer) next() (token, error) {
	if l.peek != nil {
		t := *l.peek
		l.peek = nil
		return t, nil
	}
	if err := l.skipSpace(); err != nil {
		return token{}, err
	}
	line := l.line
	c, ok := l.read()
	if !ok {
		return token{kind: tokEOF, line: line}, nil
	}

	switch {
	case c == '\'':
		s, err := l.readString()
		return token{kind: tokString, text: s, line: line}, err
	case c == '"':
		s, err := l.readUntil('"')
		return token{kind: tokBinary, text: s, line: line}, err
	case c == '.':
		s, err := l.readUntil('.')
		if err != nil {
			return token{}, err
		}
		return token{kind: tokEnum, text: strings.ToUpper(s), line: line}, nil
	case c == '#':
		digits := l.readWhile(isDigit)
		if digits == "" {
			return token{}, l.errorf("expected instance number after '#'")
		}
		return token{kind: tokInstance, text: digits, line: line}, nil
	case c == '$':
		return token{kind: tokDollar, text: "$", line: line}, nil
	case c == '*':
		return token{kind: tokStar, text: "*", line: line}, nil
	case c == '(' || c == ')' || c == ',' || c == ';' || c == '=':
		return token{kind: tokPunct, text: string(c), line: line}, nil
	case c == '-' || c == '+' || isDigit(c):
		l.unread(c)
		return l.readNumber(line)
	case isLetter(c) || c == '!':
		l.unread(c)
		word := l.readWhile(func(b byte) bool {
			return isLetter(b) || isDigit(b) || b == '_' || b == '-' || b == '!'
		})
		return token{kind: tokKeyword, text: strings.ToUpper(word), line: line}, nil
	}
	return token{}, l.errorf("unexpected character %q", c)
}

func (l *lexer) unreadToken(t token) {
	l.peek = &t
}

func (l *lexer) readWhile(pred func(byte) bool) string {
	var sb strings.Builder
	for {
		c, ok := l.read()
		if !ok {
			break
		}
		if !pred(c) {
			l.unread(c)
			break
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

func (l *lexer) readUntil(end byte) (string, error) {
	var sb strings.Builder
	for {
		c, ok := l.read()
		if !ok {
			return "", l.errorf("unterminated literal")
		}
		if c == end {
			return sb.String(), nil
		}
		sb.WriteByte(c)
	}
}

func (l *lexer) readNumber(line int) (token, error) {
	text := l.readWhile(func(b byte) bool {
		return isDigit(b) || b == '.' || b == 'E' || b == 'e' || b == '+' || b == '-'
	})
	if strings.ContainsAny(text, ".eE") {
		if _, err := strconv.ParseFloat(text, 64); err != nil {
			// "1.E-07" is valid Part 21 but not valid Go syntax without a digit
			if _, err := strconv.ParseFloat(strings.Replace(text, ".E", ".0E", 1), 64); err != nil {
				return token{}, l.errorf("invalid real %q", text)
			}
		}
		return token{kind: tokReal, text: text, line: line}, nil
	}
	if _, err := strconv.ParseInt(text, 10, 64); err != nil {
		return token{}, l.errorf("invalid integer %q", text)
	}
	return token{kind: tokInt, text: text, line: line}, nil
}

// readString decodes a quoted literal after the opening apostrophe
func (l *lexer) readString() (string, error) {
	var sb strings.Builder
	for {
		c, ok := l.read()
		if !ok {
			return "", l.errorf("unterminated string")
		}
		switch c {
		case '\'':
			next, ok := l.read()
			if ok && next == '\'' {
				sb.WriteByte('\'')
				continue
			}
			if ok {
				l.unread(next)
			}
			return sb.String(), nil
		case '\\':
			if err := l.readEscape(&sb); err != nil {
				return "", err
			}
		case '\n', '\r':
			// line breaks inside literals are not significant
		default:
			sb.WriteByte(c)
		}
	}
}

func (l *lexer) readEscape(sb *strings.Builder) error {
	c, ok := l.read()
	if !ok {
		return l.errorf("unterminated escape")
	}
	switch c {
	case '\\':
		sb.WriteByte('\\')
		return nil
	case 'X':
		return l.readHexEscape(sb)
	case 'S':
		// \S\c maps c into the upper half of ISO 8859-1
		if _, ok := l.read(); !ok {
			return l.errorf("unterminated escape")
		}
		ch, ok := l.read()
		if !ok {
			return l.errorf("unterminated escape")
		}
		sb.WriteRune(rune(ch) + 0x80)
		return nil
	case 'P':
		// code page switch, \PA\ etc: ignored
		if _, err := l.readUntil('\\'); err != nil {
			return err
		}
		return nil
	}
	return l.errorf("unknown escape \\%c", c)
}

func (l *lexer) readHexEscape(sb *strings.Builder) error {
	c, ok := l.read()
	if !ok {
		return l.errorf("unterminated escape")
	}
	switch c {
	case '\\':
		// \X\hh: one 8-bit character
		hex := make([]byte, 2)
		for i := range hex {
			if hex[i], ok = l.read(); !ok {
				return l.errorf("unterminated escape")
			}
		}
		n, err := strconv.ParseUint(string(hex), 16, 8)
		if err != nil {
			return l.errorf("invalid escape \\X\\%s", hex)
		}
		sb.WriteRune(rune(n))
		return nil
	case '2', '4':
		width := 4
		if c == '4' {
			width = 8
		}
		if b, ok := l.read(); !ok || b != '\\' {
			return l.errorf("malformed \\X%c\\ escape", c)
		}
		body, err := l.readUntil('\\')
		if err != nil {
			return err
		}
		if end, _ := l.readUntil('\\'); end != "X0" {
			return l.errorf("expected \\X0\\ after \\X%c\\ escape", c)
		}
		if len(body)%width != 0 {
			return l.errorf("invalid \\X%c\\ escape length", c)
		}
		units := make([]uint16, 0, len(body)/4)
		for i := 0; i < len(body); i += width {
			n, err := strconv.ParseUint(body[i:i+width], 16, 32)
			if err != nil {
				return l.errorf("invalid hex in escape: %q", body[i:i+width])
			}
			if width == 8 {
				sb.WriteRune(rune(n))
				continue
			}
			units = append(units, uint16(n))
		}
		for _, r := range utf16.Decode(units) {
			sb.WriteRune(r)
		}
		return nil
	}
	return l.errorf("unknown escape \\X%c", c)
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') }

// Parse reads a Part 21 exchange structure
func Parse(r io.Reader) (*File, error) {
	p := &parser{lex: newLexer(r)}
	return p.parseFile()
}

// ParseFile reads a Part 21 file from disk
func ParseFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	file, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return file, nil
}

type parser struct {
	lex *lexer
}

func (p *parser) expectKeyword(word string) error {
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	if t.kind != tokKeyword || t.text != word {
		return p.unexpected(t, word)
	}
	return nil
}

func (p *parser) expectPunct(punct string) error {
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	if t.kind != tokPunct || t.text != punct {
		return p.unexpected(t, "'"+punct+"'")
	}
	return nil
}

func (p *parser) unexpected(t token, want string) error {
	got := t.text
	if t.kind == tokEOF {
		got = "end of file"
	}
	return fmt.Errorf("%w: line %d: expected %s, got %q", ErrSyntax, t.line, want, got)
}

func (p *parser) parseFile() (*File, error) {
	if err := p.expectKeyword("ISO-10303-21"); err != nil {
		return nil, err
	}
	if err := p.expectPunct(";"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("HEADER"); err != nil {
		return nil, err
	}
	if err := p.expectPunct(";"); err != nil {
		return nil, err
	}

	file := &File{data: make(map[int]*Entity), nextID: 1}

	for {
		t, err := p.lex.next()
		if err != nil {
			return nil, err
		}
		if t.kind == tokKeyword && t.text == "ENDSEC" {
			if err := p.expectPunct(";"); err != nil {
				return nil, err
			}
			break
		}
		if t.kind != tokKeyword {
			return nil, p.unexpected(t, "header record")
		}
		part, err := p.parseRecordBody(t.text)
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(";"); err != nil {
			return nil, err
		}
		file.Header = append(file.Header, part)
	}

	// Some writers emit several DATA sections; all instances share one
	// id space.
	for {
		t, err := p.lex.next()
		if err != nil {
			return nil, err
		}
		if t.kind == tokKeyword && t.text == "END-ISO-10303-21" {
			if err := p.expectPunct(";"); err != nil {
				return nil, err
			}
			return file, nil
		}
		if t.kind != tokKeyword || t.text != "DATA" {
			return nil, p.unexpected(t, "DATA or END-ISO-10303-21")
		}
		if err := p.parseData(file); err != nil {
			return nil, err
		}
	}
}

func (p *parser) parseData(file *File) error {
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	// DATA may carry a parameter list naming the section
	if t.kind == tokPunct && t.text == "(" {
		p.lex.unreadToken(t)
		if _, err := p.parseValue(); err != nil {
			return err
		}
		t, err = p.lex.next()
		if err != nil {
			return err
		}
	}
	if t.kind != tokPunct || t.text != ";" {
		return p.unexpected(t, "';'")
	}

	for {
		t, err := p.lex.next()
		if err != nil {
			return err
		}
		if t.kind == tokKeyword && t.text == "ENDSEC" {
			return p.expectPunct(";")
		}
		if t.kind != tokInstance {
			return p.unexpected(t, "entity instance")
		}
		id, _ := strconv.Atoi(t.text)
		if err := p.expectPunct("="); err != nil {
			return err
		}
		entity, err := p.parseInstance(id)
		if err != nil {
			return err
		}
		if err := p.expectPunct(";"); err != nil {
			return err
		}
		if err := file.add(entity); err != nil {
			return fmt.Errorf("%w: line %d: %v", ErrSyntax, t.line, err)
		}
	}
}

func (p *parser) parseInstance(id int) (*Entity, error) {
	t, err := p.lex.next()
	if err != nil {
		return nil, err
	}
	if t.kind == tokKeyword {
		part, err := p.parseRecordBody(t.text)
		if err != nil {
			return nil, err
		}
		return &Entity{ID: id, Parts: []Part{part}}, nil
	}
	if t.kind != tokPunct || t.text != "(" {
		return nil, p.unexpected(t, "entity type")
	}

	entity := &Entity{ID: id}
	for {
		t, err := p.lex.next()
		if err != nil {
			return nil, err
		}
		if t.kind == tokPunct && t.text == ")" {
			break
		}
		if t.kind != tokKeyword {
			return nil, p.unexpected(t, "record type")
		}
		part, err := p.parseRecordBody(t.text)
		if err != nil {
			return nil, err
		}
		entity.Parts = append(entity.Parts, part)
	}
	if len(entity.Parts) == 0 {
		return nil, fmt.Errorf("%w: line %d: empty complex instance #%d", ErrSyntax, t.line, id)
	}
	return entity, nil
}

// parseRecordBody parses "(params)" following a type keyword
func (p *parser) parseRecordBody(typ string) (Part, error) {
	list, err := p.parseList()
	if err != nil {
		return Part{}, err
	}
	return Part{Type: typ, Params: list}, nil
}

func (p *parser) parseList() ([]Value, error) {
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	values := []Value{}

	t, err := p.lex.next()
	if err != nil {
		return nil, err
	}
	if t.kind == tokPunct && t.text == ")" {
		return values, nil
	}
	p.lex.unreadToken(t)

	for {
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		values = append(values, v)

		t, err := p.lex.next()
		if err != nil {
			return nil, err
		}
		if t.kind == tokPunct && t.text == ")" {
			return values, nil
		}
		if t.kind != tokPunct || t.text != "," {
			return nil, p.unexpected(t, "',' or ')'")
		}
	}
}

func (p *parser) parseValue() (Value, error) {
	t, err := p.lex.next()
	if err != nil {
		return Value{}, err
	}
	switch t.kind {
	case tokDollar:
		return Unset(), nil
	case tokStar:
		return Derived(), nil
	case tokInt:
		n, _ := strconv.ParseInt(t.text, 10, 64)
		return Int(n), nil
	case tokReal:
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			f, _ = strconv.ParseFloat(strings.Replace(t.text, ".E", ".0E", 1), 64)
		}
		return Real(f), nil
	case tokString:
		return String(t.text), nil
	case tokEnum:
		return Enum(t.text), nil
	case tokBinary:
		return Value{Kind: KindBinary, Str: t.text}, nil
	case tokInstance:
		id, _ := strconv.Atoi(t.text)
		return Ref(id), nil
	case tokKeyword:
		inner, err := p.parseList()
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindTyped, Str: t.text, List: inner}, nil
	case tokPunct:
		if t.text == "(" {
			p.lex.unreadToken(t)
			inner, err := p.parseList()
			if err != nil {
				return Value{}, err
			}
			return List(inner...), nil
		}
	}
	return Value{}, p.unexpected(t, "parameter")
}
