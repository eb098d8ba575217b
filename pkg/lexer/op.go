package lexer

// Op is the operation hint attached to tokens and parse nodes. For
// categorical token types it selects the concrete operator; on parse nodes
// it tells the evaluator how to treat the node (e.g. SetName vs. Name).
type Op uint8

const (
	OpNop Op = iota

	// Binary arithmetic and bitwise
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpLsh
	OpRsh
	OpUrsh
	OpBitOr
	OpBitXor
	OpBitAnd

	// Comparison
	OpEq
	OpNe
	OpStrictEq
	OpStrictNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpIn
	OpInstanceof

	// Logical
	OpOr
	OpAnd

	// Unary
	OpNot
	OpBitNot
	OpNeg
	OpPos
	OpTypeof
	OpVoid
	OpDelete

	// Increment and decrement
	OpPreInc
	OpPreDec
	OpPostInc
	OpPostDec

	// Literals and primaries
	OpTrue
	OpFalse
	OpNull
	OpThis
	OpNumber
	OpString
	OpRegExp
	OpNewInit

	// Names and property access
	OpName
	OpSetName
	OpSetConst
	OpGetProp
	OpSetProp
	OpGetElem
	OpSetElem

	// Calls
	OpCall
	OpEval
	OpApply
	OpNew
	OpSetCall

	// Declarations and functions
	OpDefVar
	OpDefConst
	OpDefFun
	OpLambda
	OpAnonFunObj
	OpNamedFunObj
	OpGetter
	OpSetter

	// Iteration and generators
	OpIter
	OpArrayPush
	OpYield
	OpLeaveBlock
	OpLeaveBlockExpr

	opCount
)

var opNames = [...]string{
	OpNop:            "nop",
	OpAdd:            "add",
	OpSub:            "sub",
	OpMul:            "mul",
	OpDiv:            "div",
	OpMod:            "mod",
	OpLsh:            "lsh",
	OpRsh:            "rsh",
	OpUrsh:           "ursh",
	OpBitOr:          "bitor",
	OpBitXor:         "bitxor",
	OpBitAnd:         "bitand",
	OpEq:             "eq",
	OpNe:             "ne",
	OpStrictEq:       "stricteq",
	OpStrictNe:       "strictne",
	OpLt:             "lt",
	OpLe:             "le",
	OpGt:             "gt",
	OpGe:             "ge",
	OpIn:             "in",
	OpInstanceof:     "instanceof",
	OpOr:             "or",
	OpAnd:            "and",
	OpNot:            "not",
	OpBitNot:         "bitnot",
	OpNeg:            "neg",
	OpPos:            "pos",
	OpTypeof:         "typeof",
	OpVoid:           "void",
	OpDelete:         "delete",
	OpPreInc:         "preinc",
	OpPreDec:         "predec",
	OpPostInc:        "postinc",
	OpPostDec:        "postdec",
	OpTrue:           "true",
	OpFalse:          "false",
	OpNull:           "null",
	OpThis:           "this",
	OpNumber:         "number",
	OpString:         "string",
	OpRegExp:         "regexp",
	OpNewInit:        "newinit",
	OpName:           "name",
	OpSetName:        "setname",
	OpSetConst:       "setconst",
	OpGetProp:        "getprop",
	OpSetProp:        "setprop",
	OpGetElem:        "getelem",
	OpSetElem:        "setelem",
	OpCall:           "call",
	OpEval:           "eval",
	OpApply:          "apply",
	OpNew:            "new",
	OpSetCall:        "setcall",
	OpDefVar:         "defvar",
	OpDefConst:       "defconst",
	OpDefFun:         "deffun",
	OpLambda:         "lambda",
	OpAnonFunObj:     "anonfunobj",
	OpNamedFunObj:    "namedfunobj",
	OpGetter:         "getter",
	OpSetter:         "setter",
	OpIter:           "iter",
	OpArrayPush:      "arraypush",
	OpYield:          "yield",
	OpLeaveBlock:     "leaveblock",
	OpLeaveBlockExpr: "leaveblockexpr",
}

func (o Op) String() string {
	if int(o) < len(opNames) && opNames[o] != "" {
		return opNames[o]
	}
	return "op?"
}

// Symbol returns the source spelling of an operator op, or "" for hints
// that have none.
func (o Op) Symbol() string {
	switch o {
	case OpAdd, OpPos:
		return "+"
	case OpSub, OpNeg:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpMod:
		return "%"
	case OpLsh:
		return "<<"
	case OpRsh:
		return ">>"
	case OpUrsh:
		return ">>>"
	case OpBitOr:
		return "|"
	case OpBitXor:
		return "^"
	case OpBitAnd:
		return "&"
	case OpEq:
		return "=="
	case OpNe:
		return "!="
	case OpStrictEq:
		return "==="
	case OpStrictNe:
		return "!=="
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	case OpIn:
		return "in"
	case OpInstanceof:
		return "instanceof"
	case OpOr:
		return "||"
	case OpAnd:
		return "&&"
	case OpNot:
		return "!"
	case OpBitNot:
		return "~"
	case OpTypeof:
		return "typeof"
	case OpVoid:
		return "void"
	case OpDelete:
		return "delete"
	}
	return ""
}
