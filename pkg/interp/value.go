// Package interp evaluates folded parse trees. It hosts the object model,
// the iterator protocol behind for-in, for each and comprehensions, and
// generators.
package interp

import (
	"math"
	"strconv"
	"strings"

	"jscore/pkg/jsnum"
)

// ValueType is the discriminant of a Value.
type ValueType uint8

const (
	TypeUndefined ValueType = iota
	TypeNull
	TypeBoolean
	TypeNumber
	TypeString
	TypeObject
	TypeHole // Internal marker for array holes
)

func (vt ValueType) String() string {
	switch vt {
	case TypeUndefined:
		return "undefined"
	case TypeNull:
		return "null"
	case TypeBoolean:
		return "boolean"
	case TypeNumber:
		return "number"
	case TypeString:
		return "string"
	case TypeObject:
		return "object"
	case TypeHole:
		return "hole"
	}
	return "unknown"
}

// Value is a script value.
type Value struct {
	typ ValueType
	num float64 // number, or 1/0 for booleans
	str string
	obj *Object
}

var (
	Undefined = Value{typ: TypeUndefined}
	Null      = Value{typ: TypeNull}
	Hole      = Value{typ: TypeHole}
	True      = Value{typ: TypeBoolean, num: 1}
	False     = Value{typ: TypeBoolean}
	NaN       = Value{typ: TypeNumber, num: math.NaN()}
)

func NumberValue(f float64) Value { return Value{typ: TypeNumber, num: f} }

func BooleanValue(b bool) Value {
	if b {
		return True
	}
	return False
}

func NewString(s string) Value { return Value{typ: TypeString, str: s} }

// ObjectValue wraps o; a nil o is null.
func ObjectValue(o *Object) Value {
	if o == nil {
		return Null
	}
	return Value{typ: TypeObject, obj: o}
}

func (v Value) Type() ValueType { return v.typ }

func (v Value) IsUndefined() bool { return v.typ == TypeUndefined }
func (v Value) IsNull() bool      { return v.typ == TypeNull }
func (v Value) IsNullish() bool   { return v.typ == TypeUndefined || v.typ == TypeNull }
func (v Value) IsBoolean() bool   { return v.typ == TypeBoolean }
func (v Value) IsNumber() bool    { return v.typ == TypeNumber }
func (v Value) IsString() bool    { return v.typ == TypeString }
func (v Value) IsObject() bool    { return v.typ == TypeObject }
func (v Value) IsHole() bool      { return v.typ == TypeHole }

// IsPrimitive reports whether v is not an object.
func (v Value) IsPrimitive() bool { return v.typ != TypeObject }

// IsCallable reports whether v is a function object.
func (v Value) IsCallable() bool { return v.typ == TypeObject && v.obj.IsCallable() }

func (v Value) AsFloat() float64 {
	if v.typ != TypeNumber {
		panic("value is not a number")
	}
	return v.num
}

func (v Value) AsString() string {
	if v.typ != TypeString {
		panic("value is not a string")
	}
	return v.str
}

func (v Value) AsBoolean() bool {
	if v.typ != TypeBoolean {
		panic("value is not a boolean")
	}
	return v.num != 0
}

func (v Value) AsObject() *Object {
	if v.typ != TypeObject {
		panic("value is not an object")
	}
	return v.obj
}

// TypeOf returns the result of the typeof operator.
func (v Value) TypeOf() string {
	switch v.typ {
	case TypeUndefined, TypeHole:
		return "undefined"
	case TypeNull:
		return "object"
	case TypeObject:
		if v.obj.IsCallable() {
			return "function"
		}
		return "object"
	}
	return v.typ.String()
}

// IsTruthy is ToBoolean.
func (v Value) IsTruthy() bool {
	switch v.typ {
	case TypeBoolean:
		return v.num != 0
	case TypeNumber:
		return jsnum.Truthy(v.num)
	case TypeString:
		return v.str != ""
	case TypeObject:
		return true
	}
	return false
}

// primitiveString converts a primitive to a string. Objects get their
// default description without calling script code.
func (v Value) primitiveString() string {
	switch v.typ {
	case TypeUndefined, TypeHole:
		return "undefined"
	case TypeNull:
		return "null"
	case TypeBoolean:
		if v.num != 0 {
			return "true"
		}
		return "false"
	case TypeNumber:
		return jsnum.ToString(v.num)
	case TypeString:
		return v.str
	}
	return v.obj.describe()
}

// primitiveNumber converts a primitive to a number.
func (v Value) primitiveNumber() float64 {
	switch v.typ {
	case TypeNull:
		return 0
	case TypeBoolean, TypeNumber:
		return v.num
	case TypeString:
		return jsnum.Parse(v.str)
	}
	return math.NaN()
}

// String renders v for diagnostics and print.
func (v Value) String() string { return v.primitiveString() }

// Inspect renders v the way a shell echoes a result: strings are quoted,
// arrays and plain objects are listed.
func (v Value) Inspect() string {
	var sb strings.Builder
	v.inspect(&sb, 0)
	return sb.String()
}

func (v Value) inspect(sb *strings.Builder, depth int) {
	switch v.typ {
	case TypeString:
		if depth == 0 {
			sb.WriteString(v.str)
		} else {
			sb.WriteString(strconv.Quote(v.str))
		}
		return
	case TypeObject:
	default:
		sb.WriteString(v.primitiveString())
		return
	}

	o := v.obj
	if depth > 2 {
		sb.WriteString(o.describe())
		return
	}
	switch o.class {
	case ClassArray:
		sb.WriteByte('[')
		for i, e := range o.elems {
			if i > 0 {
				sb.WriteString(", ")
			}
			if !e.IsHole() {
				e.inspect(sb, depth+1)
			}
		}
		sb.WriteByte(']')
	case ClassObject:
		sb.WriteByte('{')
		first := true
		for _, k := range o.keys {
			p := o.props[k]
			if !p.enumerable {
				continue
			}
			if !first {
				sb.WriteString(", ")
			}
			first = false
			sb.WriteString(k)
			sb.WriteString(": ")
			if p.isAccessor() {
				sb.WriteString("[accessor]")
			} else {
				p.value.inspect(sb, depth+1)
			}
		}
		sb.WriteByte('}')
	default:
		sb.WriteString(o.describe())
	}
}

// StrictEquals is the === operator.
func StrictEquals(a, b Value) bool {
	if a.typ != b.typ {
		return false
	}
	switch a.typ {
	case TypeUndefined, TypeNull, TypeHole:
		return true
	case TypeBoolean, TypeNumber:
		return a.num == b.num
	case TypeString:
		return a.str == b.str
	}
	return a.obj == b.obj
}

// SameValue compares like StrictEquals, except that NaN equals itself.
// Tests use it to compare results.
func SameValue(a, b Value) bool {
	if a.typ == TypeNumber && b.typ == TypeNumber && math.IsNaN(a.num) && math.IsNaN(b.num) {
		return true
	}
	return StrictEquals(a, b)
}
