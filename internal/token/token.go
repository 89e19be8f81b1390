package token

type TokenType string

const (
	ILLEGAL = "ILLEGAL"
	EOF     = "EOF"

	// Identifiers and literals
	IDENT  = "IDENT"
	INT    = "INT"
	DOUBLE = "DOUBLE"
	STRING = "STRING"

	// Operators and delimiters
	ASSIGN    = "="
	SEMICOLON = ";"
	COMMA     = ","
	LPAREN    = "("
	RPAREN    = ")"
	LBRACE    = "{"
	RBRACE    = "}"
	LBRACKET  = "["
	RBRACKET  = "]"

	// Keywords
	IMPORT = "IMPORT"
	TRUE   = "TRUE"
	FALSE  = "FALSE"
	NULL   = "NULL"
)

// Token carries the classified type, the raw source text (Lexeme) and the
// decoded literal value (bool, int64, float64 or string depending on Type).
type Token struct {
	Type    TokenType
	Lexeme  string
	Literal interface{}
	Line    int
	Column  int
}

var keywords = map[string]TokenType{
	"import": IMPORT,
	"true":   TRUE,
	"false":  FALSE,
	"null":   NULL,
}

// LookupIdent returns the keyword token type for ident, or IDENT.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}
