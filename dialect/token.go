package dialect

// TokenKind represents the type of token.
type TokenKind uint8

const (
	TokenEOF TokenKind = iota

	TokenIdent        // identifiers, keywords and sentinels
	TokenNumber       // 1, 1.5, 0x1F, 2u
	TokenString       // "..."
	TokenSemicolon    // ;
	TokenPunct        // any other single character
	TokenSpace        // spaces, tabs, carriage returns
	TokenNewline      // \n
	TokenLineComment  // // to end of line
	TokenBlockComment // /* ... */, may span lines
)

var tokenKindNames = [...]string{
	TokenEOF:          "EOF",
	TokenIdent:        "Ident",
	TokenNumber:       "Number",
	TokenString:       "String",
	TokenSemicolon:    ";",
	TokenPunct:        "Punct",
	TokenSpace:        "Space",
	TokenNewline:      "Newline",
	TokenLineComment:  "LineComment",
	TokenBlockComment: "BlockComment",
}

// String returns the string representation of the token kind.
func (k TokenKind) String() string {
	if int(k) < len(tokenKindNames) {
		return tokenKindNames[k]
	}
	return "Unknown"
}

// Token represents a lexical token.
//
// Concatenating the lexemes of every token reproduces the input exactly.
type Token struct {
	Kind   TokenKind
	Lexeme string
	Line   int // 1-based line of the first character
	Column int // 1-based column of the first character
	Offset int // byte offset of the first character
}

// IsTrivia reports whether the token carries no code: whitespace or a comment.
func (t Token) IsTrivia() bool {
	switch t.Kind {
	case TokenSpace, TokenLineComment, TokenBlockComment:
		return true
	}
	return false
}
