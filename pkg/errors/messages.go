package errors

import (
	"fmt"
	"strconv"
	"strings"
)

// ErrorNumber identifies a diagnostic message. Messages take positional
// arguments written as {0}, {1}, ...
type ErrorNumber int

const (
	ErrNone ErrorNumber = iota

	// Scanner
	ErrIllegalCharacter
	ErrUnterminatedString
	ErrUnterminatedComment
	ErrUnterminatedRegExp
	ErrBadRegExpFlag
	ErrMissingHexDigits
	ErrMissingExponent
	ErrIdentifierAfterNumber

	// Parser
	ErrSyntax
	ErrBadLeftsideOfAss
	ErrNoVariableName
	ErrBadDestructDecl
	ErrBadDestructAss
	ErrArrayCompLeftside
	ErrBadObjectInit
	ErrBadGeneratorSyntax
	ErrBadGeneratorReturn
	ErrBadAnonGeneratorReturn
	ErrBadReturnOrYield
	ErrBadForEachLoop
	ErrBadForLeftside
	ErrLabelNotFound
	ErrDuplicateLabel
	ErrToughBreak
	ErrBadContinue
	ErrTooManyDefaults
	ErrCatchAfterGeneral
	ErrCatchOrFinally
	ErrCatchIdentifier
	ErrRedeclaredVar
	ErrBadVarInit
	ErrSemiBeforeStmnt
	ErrParenBeforeCond
	ErrParenAfterCond
	ErrParenInParen
	ErrParenAfterArgs
	ErrParenBeforeFormal
	ErrParenAfterFormal
	ErrParenAfterFor
	ErrParenAfterForCtrl
	ErrParenBeforeSwitch
	ErrParenAfterSwitch
	ErrParenBeforeCatch
	ErrParenAfterCatch
	ErrParenBeforeLet
	ErrParenAfterLet
	ErrParenBeforeWith
	ErrParenAfterWith
	ErrSemiAfterForInit
	ErrSemiAfterForCond
	ErrInAfterForName
	ErrBracketAfterList
	ErrBracketInIndex
	ErrCurlyBeforeBody
	ErrCurlyAfterBody
	ErrCurlyInCompound
	ErrCurlyAfterList
	ErrCurlyBeforeSwitch
	ErrCurlyAfterSwitch
	ErrCurlyBeforeTry
	ErrCurlyAfterTry
	ErrCurlyBeforeCatch
	ErrCurlyAfterCatch
	ErrCurlyBeforeFinally
	ErrCurlyAfterFinally
	ErrCurlyAfterLet
	ErrColonAfterID
	ErrColonInCond
	ErrColonAfterCase
	ErrWhileAfterDo
	ErrNameAfterDot
	ErrMissingFormal
	ErrBadPropID
	ErrBadSwitch
	ErrBadLabel
	ErrLetDeclNotInBlock
	ErrBadDeleteOperand
	ErrBadIncopOperand
	ErrBadGenexpBody
	ErrUnnamedFunctionStmt
	ErrMissingDestructKey
	ErrCatchWithoutTry
	ErrFinallyWithoutTry
	ErrRedeclaredParam

	// Strict warnings
	ErrEqualAsAssign
	ErrNoReturnValue
	ErrAnonNoReturnValue
	ErrTrailingComma
	ErrVarHidesArg
	ErrDuplicateFormal
	ErrUselessExpr
	ErrBadOctal

	// Runtime
	ErrNotDefined
	ErrNotFunction
	ErrNotConstructor
	ErrNoProperties
	ErrReadOnly
	ErrBadInstanceofRHS
	ErrInNotObject
	ErrBadIteratorReturn
	ErrNestingGenerator
	ErrBadGeneratorSend
	ErrBadGeneratorYield
	ErrOverRecursed
	ErrUncaughtException
	ErrIncompatibleProto

	errNumberCount
)

type messageInfo struct {
	name string
	text string
}

var messages = [...]messageInfo{
	ErrNone: {"NONE", "<Error #0 is reserved>"},

	ErrIllegalCharacter:      {"ILLEGAL_CHARACTER", "illegal character"},
	ErrUnterminatedString:    {"UNTERMINATED_STRING", "unterminated string literal"},
	ErrUnterminatedComment:   {"UNTERMINATED_COMMENT", "unterminated comment"},
	ErrUnterminatedRegExp:    {"UNTERMINATED_REGEXP", "unterminated regular expression literal"},
	ErrBadRegExpFlag:         {"BAD_REGEXP_FLAG", "invalid flag after regular expression"},
	ErrMissingHexDigits:      {"MISSING_HEXDIGITS", "missing hexadecimal digits after '0x'"},
	ErrMissingExponent:       {"MISSING_EXPONENT", "missing exponent"},
	ErrIdentifierAfterNumber: {"IDSTART_AFTER_NUMBER", "identifier starts immediately after numeric literal"},

	ErrSyntax:                 {"SYNTAX_ERROR", "syntax error"},
	ErrBadLeftsideOfAss:       {"BAD_LEFTSIDE_OF_ASS", "invalid assignment left-hand side"},
	ErrNoVariableName:         {"NO_VARIABLE_NAME", "missing variable name"},
	ErrBadDestructDecl:        {"BAD_DESTRUCT_DECL", "missing = in destructuring declaration"},
	ErrBadDestructAss:         {"BAD_DESTRUCT_ASS", "invalid destructuring assignment operator"},
	ErrArrayCompLeftside:      {"ARRAY_COMP_LEFTSIDE", "invalid array comprehension left-hand side"},
	ErrBadObjectInit:          {"BAD_OBJECT_INIT", "invalid object initializer"},
	ErrBadGeneratorSyntax:     {"BAD_GENERATOR_SYNTAX", "{0} expression must be parenthesized"},
	ErrBadGeneratorReturn:     {"BAD_GENERATOR_RETURN", "generator function {0} returns a value"},
	ErrBadAnonGeneratorReturn: {"BAD_ANON_GENERATOR_RETURN", "anonymous generator function returns a value"},
	ErrBadReturnOrYield:       {"BAD_RETURN_OR_YIELD", "{0} not in function"},
	ErrBadForEachLoop:         {"BAD_FOR_EACH_LOOP", "invalid for each loop"},
	ErrBadForLeftside:         {"BAD_FOR_LEFTSIDE", "invalid for/in left-hand side"},
	ErrLabelNotFound:          {"LABEL_NOT_FOUND", "label not found"},
	ErrDuplicateLabel:         {"DUPLICATE_LABEL", "duplicate label"},
	ErrToughBreak:             {"TOUGH_BREAK", "invalid break"},
	ErrBadContinue:            {"BAD_CONTINUE", "continue must be inside loop"},
	ErrTooManyDefaults:        {"TOO_MANY_DEFAULTS", "more than one switch default"},
	ErrCatchAfterGeneral:      {"CATCH_AFTER_GENERAL", "catch after unconditional catch"},
	ErrCatchOrFinally:         {"CATCH_OR_FINALLY", "missing catch or finally after try"},
	ErrCatchIdentifier:        {"CATCH_IDENTIFIER", "missing identifier in catch"},
	ErrRedeclaredVar:          {"REDECLARED_VAR", "redeclaration of {0} {1}"},
	ErrBadVarInit:             {"BAD_VAR_INIT", "invalid variable initialization"},
	ErrSemiBeforeStmnt:        {"SEMI_BEFORE_STMNT", "missing ; before statement"},
	ErrParenBeforeCond:        {"PAREN_BEFORE_COND", "missing ( before condition"},
	ErrParenAfterCond:         {"PAREN_AFTER_COND", "missing ) after condition"},
	ErrParenInParen:           {"PAREN_IN_PAREN", "missing ) in parenthetical"},
	ErrParenAfterArgs:         {"PAREN_AFTER_ARGS", "missing ) after argument list"},
	ErrParenBeforeFormal:      {"PAREN_BEFORE_FORMAL", "missing ( before formal parameters"},
	ErrParenAfterFormal:       {"PAREN_AFTER_FORMAL", "missing ) after formal parameters"},
	ErrParenAfterFor:          {"PAREN_AFTER_FOR", "missing ( after for"},
	ErrParenAfterForCtrl:      {"PAREN_AFTER_FOR_CTRL", "missing ) after for-loop control"},
	ErrParenBeforeSwitch:      {"PAREN_BEFORE_SWITCH", "missing ( before switch expression"},
	ErrParenAfterSwitch:       {"PAREN_AFTER_SWITCH", "missing ) after switch expression"},
	ErrParenBeforeCatch:       {"PAREN_BEFORE_CATCH", "missing ( before catch"},
	ErrParenAfterCatch:        {"PAREN_AFTER_CATCH", "missing ) after catch"},
	ErrParenBeforeLet:         {"PAREN_BEFORE_LET", "missing ( before let head"},
	ErrParenAfterLet:          {"PAREN_AFTER_LET", "missing ) after let head"},
	ErrParenBeforeWith:        {"PAREN_BEFORE_WITH", "missing ( before with-statement object"},
	ErrParenAfterWith:         {"PAREN_AFTER_WITH", "missing ) after with-statement object"},
	ErrSemiAfterForInit:       {"SEMI_AFTER_FOR_INIT", "missing ; after for-loop initializer"},
	ErrSemiAfterForCond:       {"SEMI_AFTER_FOR_COND", "missing ; after for-loop condition"},
	ErrInAfterForName:         {"IN_AFTER_FOR_NAME", "missing in after for"},
	ErrBracketAfterList:       {"BRACKET_AFTER_LIST", "missing ] after element list"},
	ErrBracketInIndex:         {"BRACKET_IN_INDEX", "missing ] in index expression"},
	ErrCurlyBeforeBody:        {"CURLY_BEFORE_BODY", "missing { before function body"},
	ErrCurlyAfterBody:         {"CURLY_AFTER_BODY", "missing } after function body"},
	ErrCurlyInCompound:        {"CURLY_IN_COMPOUND", "missing } in compound statement"},
	ErrCurlyAfterList:         {"CURLY_AFTER_LIST", "missing } after property list"},
	ErrCurlyBeforeSwitch:      {"CURLY_BEFORE_SWITCH", "missing { before switch body"},
	ErrCurlyAfterSwitch:       {"CURLY_AFTER_SWITCH", "missing } after switch body"},
	ErrCurlyBeforeTry:         {"CURLY_BEFORE_TRY", "missing { before try block"},
	ErrCurlyAfterTry:          {"CURLY_AFTER_TRY", "missing } after try block"},
	ErrCurlyBeforeCatch:       {"CURLY_BEFORE_CATCH", "missing { before catch block"},
	ErrCurlyAfterCatch:        {"CURLY_AFTER_CATCH", "missing } after catch block"},
	ErrCurlyBeforeFinally:     {"CURLY_BEFORE_FINALLY", "missing { before finally block"},
	ErrCurlyAfterFinally:      {"CURLY_AFTER_FINALLY", "missing } after finally block"},
	ErrCurlyAfterLet:          {"CURLY_AFTER_LET", "missing } after let block"},
	ErrColonAfterID:           {"COLON_AFTER_ID", "missing : after property id"},
	ErrColonInCond:            {"COLON_IN_COND", "missing : in conditional expression"},
	ErrColonAfterCase:         {"COLON_AFTER_CASE", "missing : after case label"},
	ErrWhileAfterDo:           {"WHILE_AFTER_DO", "missing while after do-loop body"},
	ErrNameAfterDot:           {"NAME_AFTER_DOT", "missing name after . operator"},
	ErrMissingFormal:          {"MISSING_FORMAL", "missing formal parameter"},
	ErrBadPropID:              {"BAD_PROP_ID", "invalid property id"},
	ErrBadSwitch:              {"BAD_SWITCH", "invalid switch statement"},
	ErrBadLabel:               {"BAD_LABEL", "invalid label"},
	ErrLetDeclNotInBlock:      {"LET_DECL_NOT_IN_BLOCK", "let declaration not directly within block"},
	ErrBadDeleteOperand:       {"BAD_DELETE_OPERAND", "invalid delete operand"},
	ErrBadIncopOperand:        {"BAD_INCOP_OPERAND", "invalid increment/decrement operand"},
	ErrBadGenexpBody:          {"BAD_GENEXP_BODY", "illegal use of {0} in generator expression"},
	ErrUnnamedFunctionStmt:    {"UNNAMED_FUNCTION_STMT", "function statement requires a name"},
	ErrMissingDestructKey:     {"MISSING_DESTRUCT_KEY", "destructuring target {0} has no matching property in initializer"},
	ErrCatchWithoutTry:        {"CATCH_WITHOUT_TRY", "catch without try"},
	ErrFinallyWithoutTry:      {"FINALLY_WITHOUT_TRY", "finally without try"},
	ErrRedeclaredParam:        {"REDECLARED_PARAM", "redeclaration of formal parameter {0}"},

	ErrEqualAsAssign:     {"EQUAL_AS_ASSIGN", "test for equality (==) mistyped as assignment (=)?{0}"},
	ErrNoReturnValue:     {"NO_RETURN_VALUE", "function {0} does not always return a value"},
	ErrAnonNoReturnValue: {"ANON_NO_RETURN_VALUE", "anonymous function does not always return a value"},
	ErrTrailingComma:     {"TRAILING_COMMA", "trailing comma is not legal in ECMA-262 object initializers"},
	ErrVarHidesArg:       {"VAR_HIDES_ARG", "variable {0} hides argument"},
	ErrDuplicateFormal:   {"DUPLICATE_FORMAL", "duplicate formal argument {0}"},
	ErrUselessExpr:       {"USELESS_EXPR", "useless expression"},
	ErrBadOctal:          {"BAD_OCTAL", "{0} is not a legal ECMA-262 octal constant"},

	ErrNotDefined:        {"NOT_DEFINED", "{0} is not defined"},
	ErrNotFunction:       {"NOT_FUNCTION", "{0} is not a function"},
	ErrNotConstructor:    {"NOT_CONSTRUCTOR", "{0} is not a constructor"},
	ErrNoProperties:      {"NO_PROPERTIES", "{0} has no properties"},
	ErrReadOnly:          {"READ_ONLY", "{0} is read-only"},
	ErrBadInstanceofRHS:  {"BAD_INSTANCEOF_RHS", "invalid 'instanceof' operand {0}"},
	ErrInNotObject:       {"IN_NOT_OBJECT", "invalid 'in' operand {0}"},
	ErrBadIteratorReturn: {"BAD_ITERATOR_RETURN", "{0}.__iterator__() returned a primitive value"},
	ErrNestingGenerator:  {"NESTING_GENERATOR", "already executing generator {0}"},
	ErrBadGeneratorSend:  {"BAD_GENERATOR_SEND", "attempt to send {0} to newborn generator"},
	ErrBadGeneratorYield: {"BAD_GENERATOR_YIELD", "yield from closing generator {0}"},
	ErrOverRecursed:      {"OVER_RECURSED", "too much recursion"},
	ErrUncaughtException: {"UNCAUGHT_EXCEPTION", "uncaught exception: {0}"},
	ErrIncompatibleProto: {"INCOMPATIBLE_PROTO", "{0}.prototype.{1} called on incompatible {2}"},
}

// String returns the symbolic name of the message, e.g. "BAD_DESTRUCT_DECL".
func (n ErrorNumber) String() string {
	if n < 0 || n >= errNumberCount || messages[n].name == "" {
		return fmt.Sprintf("ErrorNumber(%d)", int(n))
	}
	return messages[n].name
}

// Format expands the message template for n with args.
func Format(n ErrorNumber, args ...interface{}) string {
	if n < 0 || n >= errNumberCount {
		return fmt.Sprintf("unknown error %d", int(n))
	}
	text := messages[n].text
	if !strings.Contains(text, "{") {
		return text
	}
	var sb strings.Builder
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == '{' {
			end := strings.IndexByte(text[i:], '}')
			if end > 1 {
				if idx, err := strconv.Atoi(text[i+1 : i+end]); err == nil {
					if idx < len(args) {
						fmt.Fprint(&sb, args[idx])
					}
					i += end
					continue
				}
			}
		}
		sb.WriteByte(c)
	}
	return sb.String()
}
