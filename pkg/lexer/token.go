package lexer

import "jscore/pkg/errors"

// TokenType represents the type of a token. Parse nodes reuse the same
// type space, plus a handful of node-only kinds that the scanner never
// produces (ARRAYCOMP, LEXICALSCOPE, SEQ, ...).
type TokenType string

// Token represents a lexical token.
type Token struct {
	Type TokenType
	Op   Op // operator or literal hint for categorical types (ASSIGN, EQOP, PRIMARY, ...)

	Literal string  // Raw text of the token (lexeme)
	Value   string  // Decoded value: identifier text, string contents, regexp source
	Flags   string  // Regular expression flags
	Number  float64 // Value of a NUMBER token

	Line      int // 1-based line number where the token starts
	Column    int // 1-based column number (rune index) where the token starts
	EndLine   int // line where the token ends
	EndColumn int // column just past the last rune of the token
	StartPos  int // 0-based byte offset where the token starts
	EndPos    int // 0-based byte offset after the token ends

	NewlineBefore bool // a line terminator separates this token from the previous one

	Err errors.ErrorNumber // set on ERROR tokens
}

// IsKeyword reports whether the token was scanned from a reserved word.
func (t Token) IsKeyword() bool {
	if t.Type == NAME || t.Value == "" {
		return false
	}
	_, ok := keywords[t.Value]
	return ok
}

// --- Token Types ---
const (
	// Special
	ERROR TokenType = "ERROR" // Scanner error, see Token.Err
	EOF   TokenType = "EOF"   // End Of File
	EOL   TokenType = "EOL"   // Line terminator, only reported by PeekTokenSameLine

	// Punctuators
	SEMI     TokenType = ";"
	COMMA    TokenType = ","
	ASSIGN   TokenType = "=" // Op is Nop for '=', the binary op for compound forms
	HOOK     TokenType = "?"
	COLON    TokenType = ":"
	OR       TokenType = "||"
	AND      TokenType = "&&"
	BITOR    TokenType = "|"
	BITXOR   TokenType = "^"
	BITAND   TokenType = "&"
	EQOP     TokenType = "EQOP"  // == != === !==
	RELOP    TokenType = "RELOP" // < <= > >=
	SHOP     TokenType = "SHOP"  // << >> >>>
	PLUS     TokenType = "+"
	MINUS    TokenType = "-"
	STAR     TokenType = "*"
	DIVOP    TokenType = "DIVOP"   // / %
	UNARYOP  TokenType = "UNARYOP" // ! ~ typeof void, and unary + - in the tree
	INC      TokenType = "++"
	DEC      TokenType = "--"
	DOT      TokenType = "."
	LB       TokenType = "["
	RB       TokenType = "]"
	LC       TokenType = "{"
	RC       TokenType = "}"
	LP       TokenType = "("
	RP       TokenType = ")"
	DBLCOLON TokenType = "::"

	// Identifiers + Literals
	NAME    TokenType = "NAME"
	NUMBER  TokenType = "NUMBER"
	STRING  TokenType = "STRING"
	OBJECT  TokenType = "OBJECT"  // regular expression literal
	PRIMARY TokenType = "PRIMARY" // true false null this

	// Keywords
	FUNCTION   TokenType = "FUNCTION"
	IF         TokenType = "IF"
	ELSE       TokenType = "ELSE"
	SWITCH     TokenType = "SWITCH"
	CASE       TokenType = "CASE"
	DEFAULT    TokenType = "DEFAULT"
	WHILE      TokenType = "WHILE"
	DO         TokenType = "DO"
	FOR        TokenType = "FOR"
	BREAK      TokenType = "BREAK"
	CONTINUE   TokenType = "CONTINUE"
	IN         TokenType = "IN"
	VAR        TokenType = "VAR" // Op is DefVar for var, DefConst for const
	WITH       TokenType = "WITH"
	RETURN     TokenType = "RETURN"
	NEW        TokenType = "NEW"
	DELETE     TokenType = "DELETE"
	TRY        TokenType = "TRY"
	CATCH      TokenType = "CATCH"
	FINALLY    TokenType = "FINALLY"
	THROW      TokenType = "THROW"
	INSTANCEOF TokenType = "INSTANCEOF"
	DEBUGGER   TokenType = "DEBUGGER"
	YIELD      TokenType = "YIELD"
	LET        TokenType = "LET"
	RESERVED   TokenType = "RESERVED"

	// Node-only kinds
	ARRAYCOMP    TokenType = "ARRAYCOMP"    // array comprehension initialiser
	ARRAYPUSH    TokenType = "ARRAYPUSH"    // array comprehension push
	LEXICALSCOPE TokenType = "LEXICALSCOPE" // block with let bindings
	SEQ          TokenType = "SEQ"          // synthesized statement sequence
	FORHEAD      TokenType = "FORHEAD"      // head of a for(;;) loop
	XMLELEM      TokenType = "XMLELEM"
	XMLLIST      TokenType = "XMLLIST"
	XMLSTAGO     TokenType = "XMLSTAGO"
	XMLETAGO     TokenType = "XMLETAGO"
	XMLPTAGC     TokenType = "XMLPTAGC"
	XMLTAGC      TokenType = "XMLTAGC"
	XMLNAME      TokenType = "XMLNAME"
	XMLATTR      TokenType = "XMLATTR"
	XMLSPACE     TokenType = "XMLSPACE"
	XMLTEXT      TokenType = "XMLTEXT"
	XMLCOMMENT   TokenType = "XMLCOMMENT"
	XMLCDATA     TokenType = "XMLCDATA"
	XMLPI        TokenType = "XMLPI"
)

type keyword struct {
	tt TokenType
	op Op
}

var keywords = map[string]keyword{
	"break":      {BREAK, OpNop},
	"case":       {CASE, OpNop},
	"catch":      {CATCH, OpNop},
	"const":      {VAR, OpDefConst},
	"continue":   {CONTINUE, OpNop},
	"debugger":   {DEBUGGER, OpNop},
	"default":    {DEFAULT, OpNop},
	"delete":     {DELETE, OpNop},
	"do":         {DO, OpNop},
	"else":       {ELSE, OpNop},
	"false":      {PRIMARY, OpFalse},
	"finally":    {FINALLY, OpNop},
	"for":        {FOR, OpNop},
	"function":   {FUNCTION, OpNop},
	"if":         {IF, OpNop},
	"in":         {IN, OpIn},
	"instanceof": {INSTANCEOF, OpInstanceof},
	"let":        {LET, OpNop},
	"new":        {NEW, OpNew},
	"null":       {PRIMARY, OpNull},
	"return":     {RETURN, OpNop},
	"switch":     {SWITCH, OpNop},
	"this":       {PRIMARY, OpThis},
	"throw":      {THROW, OpNop},
	"true":       {PRIMARY, OpTrue},
	"try":        {TRY, OpNop},
	"typeof":     {UNARYOP, OpTypeof},
	"var":        {VAR, OpDefVar},
	"void":       {UNARYOP, OpVoid},
	"while":      {WHILE, OpNop},
	"with":       {WITH, OpNop},
	"yield":      {YIELD, OpNop},

	"class":   {RESERVED, OpNop},
	"enum":    {RESERVED, OpNop},
	"export":  {RESERVED, OpNop},
	"extends": {RESERVED, OpNop},
	"import":  {RESERVED, OpNop},
	"super":   {RESERVED, OpNop},
}

// LookupIdent checks the keywords table for an identifier.
func LookupIdent(ident string) (TokenType, Op) {
	if kw, ok := keywords[ident]; ok {
		return kw.tt, kw.op
	}
	return NAME, OpName
}
