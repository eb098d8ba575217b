package interp

import (
	"math"

	jserrors "jscore/pkg/errors"
	"jscore/pkg/jsnum"
	"jscore/pkg/lexer"
)

var arithOps = map[lexer.Op]jsnum.ArithOp{
	lexer.OpSub:    jsnum.Sub,
	lexer.OpMul:    jsnum.Mul,
	lexer.OpDiv:    jsnum.Div,
	lexer.OpMod:    jsnum.Mod,
	lexer.OpLsh:    jsnum.Lsh,
	lexer.OpRsh:    jsnum.Rsh,
	lexer.OpUrsh:   jsnum.Ursh,
	lexer.OpBitOr:  jsnum.BitOr,
	lexer.OpBitXor: jsnum.BitXor,
	lexer.OpBitAnd: jsnum.BitAnd,
}

// binaryOp applies a non-short-circuit binary operator.
func (in *Interpreter) binaryOp(op lexer.Op, a, b Value) (Value, error) {
	switch op {
	case lexer.OpAdd:
		return in.add(a, b)
	case lexer.OpEq, lexer.OpNe:
		eq, err := in.looseEquals(a, b)
		if err != nil {
			return Undefined, err
		}
		return BooleanValue(eq == (op == lexer.OpEq)), nil
	case lexer.OpStrictEq:
		return BooleanValue(StrictEquals(a, b)), nil
	case lexer.OpStrictNe:
		return BooleanValue(!StrictEquals(a, b)), nil
	case lexer.OpLt:
		return in.compare(a, b, false)
	case lexer.OpGt:
		return in.compare(b, a, false)
	case lexer.OpLe:
		return in.compare(b, a, true)
	case lexer.OpGe:
		return in.compare(a, b, true)
	case lexer.OpIn:
		return in.hasIn(a, b)
	case lexer.OpInstanceof:
		return in.instanceOf(a, b)
	}
	aop, ok := arithOps[op]
	if !ok {
		return Undefined, in.typeError("unsupported operator %s", op)
	}
	x, err := in.toNumber(a)
	if err != nil {
		return Undefined, err
	}
	y, err := in.toNumber(b)
	if err != nil {
		return Undefined, err
	}
	return NumberValue(jsnum.Arith(aop, x, y)), nil
}

func (in *Interpreter) add(a, b Value) (Value, error) {
	pa, err := in.toPrimitive(a, "")
	if err != nil {
		return Undefined, err
	}
	pb, err := in.toPrimitive(b, "")
	if err != nil {
		return Undefined, err
	}
	if pa.IsString() || pb.IsString() {
		return NewString(pa.primitiveString() + pb.primitiveString()), nil
	}
	return NumberValue(pa.primitiveNumber() + pb.primitiveNumber()), nil
}

// compare implements a < b, or a >= b when negate is set. NaN compares
// false either way.
func (in *Interpreter) compare(a, b Value, negate bool) (Value, error) {
	pa, err := in.toPrimitive(a, "number")
	if err != nil {
		return Undefined, err
	}
	pb, err := in.toPrimitive(b, "number")
	if err != nil {
		return Undefined, err
	}
	if pa.IsString() && pb.IsString() {
		lt := pa.str < pb.str
		return BooleanValue(lt != negate), nil
	}
	x, y := pa.primitiveNumber(), pb.primitiveNumber()
	if math.IsNaN(x) || math.IsNaN(y) {
		return False, nil
	}
	return BooleanValue((x < y) != negate), nil
}

// looseEquals is the == operator.
func (in *Interpreter) looseEquals(a, b Value) (bool, error) {
	for {
		if a.typ == b.typ || (a.IsHole() && b.IsUndefined()) || (a.IsUndefined() && b.IsHole()) {
			if a.IsHole() || b.IsHole() {
				return true, nil
			}
			return StrictEquals(a, b), nil
		}
		switch {
		case a.IsNullish() && b.IsNullish():
			return true, nil
		case a.IsNullish() || b.IsNullish():
			return false, nil
		case a.IsNumber() && b.IsString():
			return a.num == b.primitiveNumber(), nil
		case a.IsString() && b.IsNumber():
			return a.primitiveNumber() == b.num, nil
		case a.IsBoolean():
			a = NumberValue(a.num)
		case b.IsBoolean():
			b = NumberValue(b.num)
		case a.IsObject() && !b.IsObject():
			p, err := in.toPrimitive(a, "")
			if err != nil {
				return false, err
			}
			a = p
		case b.IsObject() && !a.IsObject():
			p, err := in.toPrimitive(b, "")
			if err != nil {
				return false, err
			}
			b = p
		default:
			return false, nil
		}
	}
}

// instanceOf walks a's prototype chain looking for the prototype of the
// constructor b. StopIteration answers for its own class.
func (in *Interpreter) instanceOf(a, b Value) (Value, error) {
	if b.IsObject() && b.obj.class == ClassStopIteration {
		return BooleanValue(a.IsObject() && a.obj.class == ClassStopIteration), nil
	}
	if !b.IsCallable() {
		return Undefined, in.throwError("TypeError", jserrors.ErrBadInstanceofRHS, b.primitiveString())
	}
	if !a.IsObject() {
		return False, nil
	}
	pv, err := in.getProperty(b, "prototype")
	if err != nil {
		return Undefined, err
	}
	if !pv.IsObject() {
		return Undefined, in.typeError("'prototype' property of %s is not an object", b.obj.name)
	}
	for o := a.obj.proto; o != nil; o = o.proto {
		if o == pv.obj {
			return True, nil
		}
	}
	return False, nil
}

// hasIn is the in operator.
func (in *Interpreter) hasIn(a, b Value) (Value, error) {
	if !b.IsObject() {
		return Undefined, in.throwError("TypeError", jserrors.ErrInNotObject, b.primitiveString())
	}
	key, err := in.propertyKey(a)
	if err != nil {
		return Undefined, err
	}
	return BooleanValue(b.obj.HasProperty(key)), nil
}

// unaryOp applies one of the UNARYOP operators other than typeof.
func (in *Interpreter) unaryOp(op lexer.Op, v Value) (Value, error) {
	switch op {
	case lexer.OpNot:
		return BooleanValue(!v.IsTruthy()), nil
	case lexer.OpVoid:
		return Undefined, nil
	}
	n, err := in.toNumber(v)
	if err != nil {
		return Undefined, err
	}
	switch op {
	case lexer.OpNeg:
		return NumberValue(-n), nil
	case lexer.OpPos:
		return NumberValue(n), nil
	case lexer.OpBitNot:
		return NumberValue(float64(^jsnum.ToInt32(n))), nil
	}
	return Undefined, in.typeError("unsupported operator %s", op)
}
