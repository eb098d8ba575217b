package lexer

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"jscore/pkg/errors"
)

// Lexer holds the state of the scanner.
type Lexer struct {
	input        string
	position     int  // current position in input (points to current char's byte offset)
	readPosition int  // current reading position in input (byte offset after current char)
	ch           byte // current char under examination
	line         int  // current 1-based line number
	column       int  // current 1-based column number (rune index of l.position on l.line)
}

// NewLexer creates a new Lexer.
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input, line: 1, column: 0}
	l.readChar() // Initialize l.ch, l.position, l.readPosition
	return l
}

// Reset rewinds the lexer to the start of tok so it can be scanned again
// under different flags (e.g. a '/' that turns out to start a regexp).
func (l *Lexer) Reset(tok Token) {
	l.position = tok.StartPos
	l.readPosition = tok.StartPos + 1
	l.line = tok.Line
	l.column = tok.Column
	if l.position >= len(l.input) {
		l.ch = 0
		l.position = len(l.input)
		l.readPosition = len(l.input) + 1
		return
	}
	l.ch = l.input[l.position]
}

// readChar gives us the next character and advances our position in the input string.
// It also updates the line and column count.
func (l *Lexer) readChar() {
	if l.position >= len(l.input) && l.readPosition > l.position {
		return // already at EOF
	}
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}

	if l.readPosition >= len(l.input) {
		l.ch = 0 // 0 is ASCII for NUL, signifies EOF
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
	// UTF-8 continuation bytes belong to the rune already counted
	if l.ch < 0x80 || l.ch >= 0xC0 {
		l.column++
	}
}

// peekChar looks ahead in the input without consuming the character.
func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

func (l *Lexer) peekCharAt(n int) byte {
	if l.readPosition+n >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition+n]
}

func (l *Lexer) atEOF() bool {
	return l.position >= len(l.input)
}

// skipWhitespace consumes whitespace and comments. It reports whether a
// line terminator was crossed, and returns false in ok for an unterminated
// block comment.
func (l *Lexer) skipWhitespace() (newline, ok bool) {
	for !l.atEOF() {
		switch l.ch {
		case ' ', '\t', '\r', '\v', '\f':
			l.readChar()
		case '\n':
			newline = true
			l.readChar()
		case '/':
			switch l.peekChar() {
			case '/':
				l.skipComment()
			case '*':
				crossed, terminated := l.skipMultilineComment()
				if !terminated {
					return newline, false
				}
				newline = newline || crossed
			default:
				return newline, true
			}
		default:
			if l.ch >= 0x80 {
				r, size := utf8.DecodeRuneInString(l.input[l.position:])
				if r == '\u2028' || r == '\u2029' {
					newline = true
				} else if !unicode.IsSpace(r) && r != '\uFEFF' {
					return newline, true
				}
				for i := 0; i < size; i++ {
					l.readChar()
				}
				continue
			}
			return newline, true
		}
	}
	return newline, true
}

// NextToken scans the input and returns the next token. operand selects
// how a '/' is read: as the start of a regular expression literal when an
// operand is expected, as division otherwise.
func (l *Lexer) NextToken(operand bool) Token {
	newline, ok := l.skipWhitespace()

	// Capture token start position *after* skipping whitespace
	startLine := l.line
	startCol := l.column
	startPos := l.position

	tok := Token{Line: startLine, Column: startCol, StartPos: startPos, NewlineBefore: newline}

	if !ok {
		tok.Type = ERROR
		tok.Err = errors.ErrUnterminatedComment
		return l.finish(tok)
	}

	if l.atEOF() {
		tok.Type = EOF
		return l.finish(tok)
	}

	switch l.ch {
	case ';':
		l.single(&tok, SEMI, OpNop)
	case ',':
		l.single(&tok, COMMA, OpNop)
	case '?':
		l.single(&tok, HOOK, OpNop)
	case ':':
		if l.peekChar() == ':' {
			l.readChar()
			l.single(&tok, DBLCOLON, OpNop)
		} else {
			l.single(&tok, COLON, OpNop)
		}
	case '(':
		l.single(&tok, LP, OpNop)
	case ')':
		l.single(&tok, RP, OpNop)
	case '[':
		l.single(&tok, LB, OpNop)
	case ']':
		l.single(&tok, RB, OpNop)
	case '{':
		l.single(&tok, LC, OpNop)
	case '}':
		l.single(&tok, RC, OpNop)
	case '~':
		l.single(&tok, UNARYOP, OpBitNot)
	case '.':
		if isDigit(l.peekChar()) {
			return l.finishNumber(tok)
		}
		l.single(&tok, DOT, OpNop)
	case '=':
		if l.peekChar() == '=' {
			l.readChar()
			if l.peekChar() == '=' {
				l.readChar()
				l.single(&tok, EQOP, OpStrictEq)
			} else {
				l.single(&tok, EQOP, OpEq)
			}
		} else {
			l.single(&tok, ASSIGN, OpNop)
		}
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			if l.peekChar() == '=' {
				l.readChar()
				l.single(&tok, EQOP, OpStrictNe)
			} else {
				l.single(&tok, EQOP, OpNe)
			}
		} else {
			l.single(&tok, UNARYOP, OpNot)
		}
	case '+':
		switch l.peekChar() {
		case '+':
			l.readChar()
			l.single(&tok, INC, OpNop)
		case '=':
			l.readChar()
			l.single(&tok, ASSIGN, OpAdd)
		default:
			l.single(&tok, PLUS, OpAdd)
		}
	case '-':
		switch l.peekChar() {
		case '-':
			l.readChar()
			l.single(&tok, DEC, OpNop)
		case '=':
			l.readChar()
			l.single(&tok, ASSIGN, OpSub)
		default:
			l.single(&tok, MINUS, OpSub)
		}
	case '*':
		l.withAssign(&tok, STAR, OpMul)
	case '%':
		l.withAssign(&tok, DIVOP, OpMod)
	case '^':
		l.withAssign(&tok, BITXOR, OpBitXor)
	case '/':
		if operand {
			return l.finishRegExp(tok)
		}
		l.withAssign(&tok, DIVOP, OpDiv)
	case '&':
		if l.peekChar() == '&' {
			l.readChar()
			l.single(&tok, AND, OpAnd)
		} else {
			l.withAssign(&tok, BITAND, OpBitAnd)
		}
	case '|':
		if l.peekChar() == '|' {
			l.readChar()
			l.single(&tok, OR, OpOr)
		} else {
			l.withAssign(&tok, BITOR, OpBitOr)
		}
	case '<':
		switch l.peekChar() {
		case '<':
			l.readChar()
			l.withAssign(&tok, SHOP, OpLsh)
		case '=':
			l.readChar()
			l.single(&tok, RELOP, OpLe)
		default:
			l.single(&tok, RELOP, OpLt)
		}
	case '>':
		switch l.peekChar() {
		case '>':
			l.readChar()
			if l.peekChar() == '>' {
				l.readChar()
				l.withAssign(&tok, SHOP, OpUrsh)
			} else {
				l.withAssign(&tok, SHOP, OpRsh)
			}
		case '=':
			l.readChar()
			l.single(&tok, RELOP, OpGe)
		default:
			l.single(&tok, RELOP, OpGt)
		}
	case '"', '\'':
		value, errNum := l.readString(l.ch)
		if errNum != errors.ErrNone {
			tok.Type = ERROR
			tok.Err = errNum
		} else {
			tok.Type = STRING
			tok.Op = OpString
			tok.Value = value
		}
		return l.finish(tok)
	default:
		if isDigit(l.ch) {
			return l.finishNumber(tok)
		}
		if isIdentStart(l) {
			ident := l.readIdentifier()
			tok.Type, tok.Op = LookupIdent(ident)
			tok.Value = ident
			return l.finish(tok)
		}
		// Illegal character
		_, size := utf8.DecodeRuneInString(l.input[l.position:])
		for i := 0; i < size; i++ {
			l.readChar()
		}
		tok.Type = ERROR
		tok.Err = errors.ErrIllegalCharacter
		return l.finish(tok)
	}

	return l.finish(tok)
}

// single consumes the current char as the last char of tok.
func (l *Lexer) single(tok *Token, tt TokenType, op Op) {
	l.readChar()
	tok.Type = tt
	tok.Op = op
}

// withAssign finishes an operator that has a compound assignment form.
func (l *Lexer) withAssign(tok *Token, tt TokenType, op Op) {
	if l.peekChar() == '=' {
		l.readChar()
		l.single(tok, ASSIGN, op)
		return
	}
	l.single(tok, tt, op)
}

func (l *Lexer) finish(tok Token) Token {
	tok.EndPos = l.position
	if tok.EndPos > len(l.input) {
		tok.EndPos = len(l.input)
	}
	tok.EndLine = l.line
	tok.EndColumn = l.column
	tok.Literal = l.input[tok.StartPos:tok.EndPos]
	return tok
}

func (l *Lexer) finishNumber(tok Token) Token {
	value, errNum := l.readNumber()
	if errNum == errors.ErrNone && (isIdentStart(l) || isDigit(l.ch)) {
		errNum = errors.ErrIdentifierAfterNumber
	}
	if errNum != errors.ErrNone {
		tok.Type = ERROR
		tok.Err = errNum
		return l.finish(tok)
	}
	tok.Type = NUMBER
	tok.Op = OpNumber
	tok.Number = value
	return l.finish(tok)
}

// readIdentifier reads an identifier and advances the lexer's position.
// It returns the literal string found.
func (l *Lexer) readIdentifier() string {
	startPos := l.position
	for !l.atEOF() {
		if l.ch < 0x80 {
			if !isLetter(l.ch) && !isDigit(l.ch) {
				break
			}
			l.readChar()
			continue
		}
		r, size := utf8.DecodeRuneInString(l.input[l.position:])
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.Is(unicode.Mn, r) {
			break
		}
		for i := 0; i < size; i++ {
			l.readChar()
		}
	}
	return l.input[startPos:l.position]
}

// readNumber reads a numeric literal: decimal with optional fraction and
// exponent, 0x hex, or a legacy octal (leading 0, all digits below 8).
func (l *Lexer) readNumber() (float64, errors.ErrorNumber) {
	startPos := l.position

	if l.ch == '0' && (l.peekChar() == 'x' || l.peekChar() == 'X') {
		l.readChar() // Consume '0'
		l.readChar() // Consume 'x' or 'X'
		digitsStart := l.position
		for isHexDigit(l.ch) {
			l.readChar()
		}
		if l.position == digitsStart {
			return 0, errors.ErrMissingHexDigits
		}
		return parseRadix(l.input[digitsStart:l.position], 16), errors.ErrNone
	}

	if l.ch == '0' && isDigit(l.peekChar()) {
		octal := true
		for isDigit(l.ch) {
			if l.ch >= '8' {
				octal = false
			}
			l.readChar()
		}
		if octal && l.ch != '.' && l.ch != 'e' && l.ch != 'E' {
			return parseRadix(l.input[startPos+1:l.position], 8), errors.ErrNone
		}
	}

	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		l.readChar()
		if l.ch == '+' || l.ch == '-' {
			l.readChar()
		}
		if !isDigit(l.ch) {
			return 0, errors.ErrMissingExponent
		}
		for isDigit(l.ch) {
			l.readChar()
		}
	}

	text := l.input[startPos:l.position]
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		// ParseFloat reports overflow with ±Inf, which is what we want
		if ne, ok := err.(*strconv.NumError); !ok || ne.Err != strconv.ErrRange {
			return 0, errors.ErrSyntax
		}
	}
	return v, errors.ErrNone
}

func parseRadix(digits string, base int) float64 {
	var v float64
	for i := 0; i < len(digits); i++ {
		v = v*float64(base) + float64(digitValue(digits[i]))
	}
	return v
}

// readString reads a string literal enclosed in the given quote character
// and returns its decoded value. Advances the lexer's position to *after*
// the closing quote.
func (l *Lexer) readString(quote byte) (string, errors.ErrorNumber) {
	var builder strings.Builder
	// Consume the opening quote
	l.readChar()

	for {
		if l.atEOF() || l.ch == '\n' {
			return "", errors.ErrUnterminatedString
		}
		if l.ch == quote {
			l.readChar() // Consume the closing quote
			return builder.String(), errors.ErrNone
		}

		if l.ch != '\\' {
			builder.WriteByte(l.ch)
			l.readChar()
			continue
		}

		l.readChar() // Consume the backslash
		switch l.ch {
		case 'n':
			builder.WriteByte('\n')
		case 't':
			builder.WriteByte('\t')
		case 'r':
			builder.WriteByte('\r')
		case 'b':
			builder.WriteByte('\b')
		case 'f':
			builder.WriteByte('\f')
		case 'v':
			builder.WriteByte('\v')
		case '\r':
			// Line continuation, possibly CRLF
			if l.peekChar() == '\n' {
				l.readChar()
			}
		case '\n':
			// Line continuation
		case 'x':
			if isHexDigit(l.peekChar()) && isHexDigit(l.peekCharAt(1)) {
				l.readChar()
				hi := digitValue(l.ch)
				l.readChar()
				builder.WriteRune(rune(hi<<4 | digitValue(l.ch)))
			} else {
				builder.WriteByte('x')
			}
		case 'u':
			if r, ok := l.readUnicodeEscape(); ok {
				builder.WriteRune(r)
			} else {
				builder.WriteByte('u')
			}
		case 0:
			if l.atEOF() {
				return "", errors.ErrUnterminatedString
			}
			builder.WriteByte(0)
		default:
			if isOctalDigit(l.ch) {
				builder.WriteRune(l.readOctalEscape())
				continue
			}
			// Any other escaped character stands for itself
			start := l.position
			_, size := utf8.DecodeRuneInString(l.input[start:])
			builder.WriteString(l.input[start : start+size])
			for i := 1; i < size; i++ {
				l.readChar()
			}
		}
		l.readChar()
	}
}

// readOctalEscape reads up to three octal digits (value <= 0377). It leaves
// the lexer on the char after the escape.
func (l *Lexer) readOctalEscape() rune {
	v := digitValue(l.ch)
	l.readChar()
	if isOctalDigit(l.ch) {
		v = v*8 + digitValue(l.ch)
		l.readChar()
		if v < 040 && isOctalDigit(l.ch) {
			v = v*8 + digitValue(l.ch)
			l.readChar()
		}
	}
	return rune(v)
}

// readUnicodeEscape is called with l.ch == 'u'. On success the lexer is
// left on the last hex digit. A surrogate pair written as two escapes is
// combined into one rune.
func (l *Lexer) readUnicodeEscape() (rune, bool) {
	hex4 := func(off int) (rune, bool) {
		var v rune
		for i := 0; i < 4; i++ {
			c := l.peekCharAt(off + i)
			if !isHexDigit(c) {
				return 0, false
			}
			v = v<<4 | rune(digitValue(c))
		}
		return v, true
	}
	r, ok := hex4(0)
	if !ok {
		return 0, false
	}
	for i := 0; i < 4; i++ {
		l.readChar()
	}
	if r >= 0xD800 && r < 0xDC00 && l.peekChar() == '\\' && l.peekCharAt(1) == 'u' {
		if lo, ok := hex4(2); ok && lo >= 0xDC00 && lo < 0xE000 {
			for i := 0; i < 6; i++ {
				l.readChar()
			}
			return (r-0xD800)<<10 + (lo - 0xDC00) + 0x10000, true
		}
	}
	return r, true
}

// finishRegExp scans /source/flags. The caller decided the '/' starts an
// operand.
func (l *Lexer) finishRegExp(tok Token) Token {
	l.readChar() // Consume the opening '/'
	var builder strings.Builder
	inClass := false
	for {
		if l.atEOF() || l.ch == '\n' {
			tok.Type = ERROR
			tok.Err = errors.ErrUnterminatedRegExp
			return l.finish(tok)
		}
		if l.ch == '\\' {
			builder.WriteByte(l.ch)
			l.readChar()
			if l.atEOF() || l.ch == '\n' {
				continue
			}
		} else if l.ch == '[' {
			inClass = true
		} else if l.ch == ']' {
			inClass = false
		} else if l.ch == '/' && !inClass {
			l.readChar()
			break
		}
		builder.WriteByte(l.ch)
		l.readChar()
	}

	flagStart := l.position
	for !l.atEOF() && isLetter(l.ch) {
		if !strings.ContainsRune("gimy", rune(l.ch)) {
			tok.Type = ERROR
			tok.Err = errors.ErrBadRegExpFlag
			l.readChar()
			return l.finish(tok)
		}
		l.readChar()
	}
	tok.Type = OBJECT
	tok.Op = OpRegExp
	tok.Value = builder.String()
	tok.Flags = l.input[flagStart:l.position]
	return l.finish(tok)
}

func isIdentStart(l *Lexer) bool {
	if l.atEOF() {
		return false
	}
	if l.ch < 0x80 {
		return isLetter(l.ch)
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.position:])
	return unicode.IsLetter(r)
}

// isLetter checks if the character can start an identifier.
func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_' || ch == '$'
}

// isDigit checks if the character is a digit.
func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

// isHexDigit checks if the character is a hexadecimal digit (0-9, a-f, A-F).
func isHexDigit(ch byte) bool {
	return ('0' <= ch && ch <= '9') || ('a' <= ch && ch <= 'f') || ('A' <= ch && ch <= 'F')
}

// isOctalDigit checks if the character is an octal digit (0-7).
func isOctalDigit(ch byte) bool {
	return '0' <= ch && ch <= '7'
}

func digitValue(ch byte) int {
	switch {
	case '0' <= ch && ch <= '9':
		return int(ch - '0')
	case 'a' <= ch && ch <= 'f':
		return int(ch-'a') + 10
	case 'A' <= ch && ch <= 'F':
		return int(ch-'A') + 10
	}
	return 0
}

// skipComment reads until the end of the line.
func (l *Lexer) skipComment() {
	for l.ch != '\n' && !l.atEOF() {
		l.readChar()
	}
	// Don't skip the newline itself, let skipWhitespace handle it
}

// skipMultilineComment reads until the end of the multiline comment.
// It consumes the opening '/*' and the closing '*/'. It reports whether
// the comment spanned a line break and whether it was terminated.
func (l *Lexer) skipMultilineComment() (newline, terminated bool) {
	l.readChar() // Consume '/'
	l.readChar() // Consume '*'

	for {
		if l.atEOF() {
			return newline, false
		}
		if l.ch == '*' && l.peekChar() == '/' {
			l.readChar() // Consume '*'
			l.readChar() // Consume '/'
			return newline, true
		}
		if l.ch == '\n' {
			newline = true
		}
		l.readChar()
	}
}
