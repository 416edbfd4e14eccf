package dialect

// Lexer tokenizes dialect source.
//
// Unlike a compiler lexer it keeps whitespace, newlines and comments as
// tokens, so the parser can pass unrecognized code through byte for byte.
type Lexer struct {
	source string
	pos    int
	line   int
	column int
	start  int

	startLine   int
	startColumn int

	tokens []Token
}

// NewLexer creates a new lexer for the given source.
func NewLexer(source string) *Lexer {
	// Estimate ~1 token per 3 characters, whitespace included.
	estTokens := len(source) / 3
	if estTokens < 16 {
		estTokens = 16
	}
	return &Lexer{
		source: source,
		line:   1,
		column: 1,
		tokens: make([]Token, 0, estTokens),
	}
}

// Tokenize returns all tokens from the source, terminated by TokenEOF.
// It never fails: bytes that start no other token become TokenPunct.
func (l *Lexer) Tokenize() []Token {
	for !l.isAtEnd() {
		l.start = l.pos
		l.startLine = l.line
		l.startColumn = l.column
		l.scanToken()
	}

	l.tokens = append(l.tokens, Token{
		Kind:   TokenEOF,
		Line:   l.line,
		Column: l.column,
		Offset: l.pos,
	})
	return l.tokens
}

func (l *Lexer) scanToken() {
	c := l.advance()

	switch c {
	case ';':
		l.addToken(TokenSemicolon)
	case '\n':
		l.addToken(TokenNewline)
	case ' ', '\t', '\r', '\f', '\v':
		for isSpace(l.peek()) {
			l.advance()
		}
		l.addToken(TokenSpace)
	case '/':
		switch {
		case l.match('/'):
			for l.peek() != '\n' && !l.isAtEnd() {
				l.advance()
			}
			l.addToken(TokenLineComment)
		case l.match('*'):
			l.blockComment()
			l.addToken(TokenBlockComment)
		default:
			l.addToken(TokenPunct)
		}
	case '"':
		l.str()
	default:
		switch {
		case isDigit(c), c == '.' && isDigit(l.peek()):
			l.number()
		case isAlpha(c) || c == '_':
			l.identifier()
		default:
			l.addToken(TokenPunct)
		}
	}
}

// blockComment consumes up to and including the closing */.
// An unterminated comment runs to the end of the source.
func (l *Lexer) blockComment() {
	for !l.isAtEnd() {
		if l.peek() == '*' && l.peekNext() == '/' {
			l.advance()
			l.advance()
			return
		}
		l.advance()
	}
}

// str consumes a string literal. Strings do not span lines: an unterminated
// literal stops before the newline.
func (l *Lexer) str() {
	for !l.isAtEnd() && l.peek() != '\n' {
		c := l.advance()
		if c == '\\' && !l.isAtEnd() && l.peek() != '\n' {
			l.advance()
			continue
		}
		if c == '"' {
			break
		}
	}
	l.addToken(TokenString)
}

// number consumes a numeric literal loosely: digits, dots, exponents,
// hex digits and type suffixes all belong to the literal.
func (l *Lexer) number() {
	for {
		c := l.peek()
		switch {
		case isAlphaNumeric(c) || c == '.':
			l.advance()
		case (c == '+' || c == '-') && (l.prev() == 'e' || l.prev() == 'E') && !l.isHex():
			l.advance()
		default:
			l.addToken(TokenNumber)
			return
		}
	}
}

func (l *Lexer) isHex() bool {
	lit := l.source[l.start:l.pos]
	return len(lit) > 1 && lit[0] == '0' && (lit[1] == 'x' || lit[1] == 'X')
}

func (l *Lexer) identifier() {
	for isAlphaNumeric(l.peek()) || l.peek() == '_' {
		l.advance()
	}
	l.addToken(TokenIdent)
}

func (l *Lexer) addToken(kind TokenKind) {
	l.tokens = append(l.tokens, Token{
		Kind:   kind,
		Lexeme: l.source[l.start:l.pos],
		Line:   l.startLine,
		Column: l.startColumn,
		Offset: l.start,
	})
}

func (l *Lexer) advance() byte {
	c := l.source[l.pos]
	l.pos++
	if c == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return c
}

func (l *Lexer) match(expected byte) bool {
	if l.isAtEnd() || l.source[l.pos] != expected {
		return false
	}
	l.advance()
	return true
}

func (l *Lexer) peek() byte {
	if l.isAtEnd() {
		return 0
	}
	return l.source[l.pos]
}

func (l *Lexer) peekNext() byte {
	if l.pos+1 >= len(l.source) {
		return 0
	}
	return l.source[l.pos+1]
}

func (l *Lexer) prev() byte {
	if l.pos == 0 {
		return 0
	}
	return l.source[l.pos-1]
}

func (l *Lexer) isAtEnd() bool {
	return l.pos >= len(l.source)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\f' || c == '\v'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// isAlpha treats bytes >= 0x80 as letters so UTF-8 identifiers in comments
// and code stay in one token.
func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isAlphaNumeric(c byte) bool {
	return isAlpha(c) || isDigit(c)
}

// Tokenize is a convenience function that tokenizes source.
func Tokenize(source string) []Token {
	return NewLexer(source).Tokenize()
}
