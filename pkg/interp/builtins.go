package interp

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	jserrors "jscore/pkg/errors"
)

// initializer installs one group of globals. Lower priorities run first,
// so prototypes exist before the constructors that refer to them.
type initializer struct {
	name     string
	priority int
	init     func(in *Interpreter)
}

const (
	priorityObject = iota
	priorityFunction
	priorityError
	priorityIterator
	priorityArray
	priorityPrimitives
	priorityRegExp
	priorityGlobals
)

var initializers = []initializer{
	{"Object", priorityObject, initObject},
	{"Function", priorityFunction, initFunction},
	{"Error", priorityError, initErrors},
	{"Iterator", priorityIterator, initIterator},
	{"Array", priorityArray, initArray},
	{"String", priorityPrimitives, initString},
	{"Number", priorityPrimitives, initNumber},
	{"Boolean", priorityPrimitives, initBoolean},
	{"RegExp", priorityRegExp, initRegExp},
	{"globals", priorityGlobals, initGlobalFunctions},
}

func (in *Interpreter) initGlobals() {
	in.objectProto = NewObject(nil)
	in.functionProto = &Object{class: ClassFunction, proto: in.objectProto, name: "",
		native: func(*Interpreter, Value, []Value) (Value, error) { return Undefined, nil }}
	in.global = NewObject(in.objectProto)
	in.globalScope = newObjectScope(in.global, nil)

	sorted := append([]initializer(nil), initializers...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].priority < sorted[j].priority })
	for _, b := range sorted {
		b.init(in)
	}
}

// defineCtor creates a constructor whose prototype property is proto and
// installs it as a global.
func (in *Interpreter) defineCtor(name string, arity int, fn, ctor NativeFunc, proto *Object) *Object {
	c := in.newNative(name, arity, fn)
	c.ctor = ctor
	c.SetHidden("prototype", ObjectValue(proto))
	proto.SetHidden("constructor", ObjectValue(c))
	in.global.SetHidden(name, ObjectValue(c))
	return c
}

func initObject(in *Interpreter) {
	p := in.objectProto
	newObj := func(in *Interpreter, _ Value, args []Value) (Value, error) {
		if v := arg(args, 0); !v.IsNullish() {
			o, err := in.toObject(v)
			return ObjectValue(o), err
		}
		return ObjectValue(in.newPlainObject()), nil
	}
	in.defineCtor("Object", 1, newObj, newObj, p)

	in.method(p, "hasOwnProperty", 1, func(in *Interpreter, this Value, args []Value) (Value, error) {
		o, err := in.toObject(this)
		if err != nil {
			return Undefined, err
		}
		key, err := in.propertyKey(arg(args, 0))
		if err != nil {
			return Undefined, err
		}
		return BooleanValue(o.HasOwnProperty(key)), nil
	})
	in.method(p, "toString", 0, func(in *Interpreter, this Value, _ []Value) (Value, error) {
		if this.IsNullish() {
			return NewString("[object Object]"), nil
		}
		o, err := in.toObject(this)
		if err != nil {
			return Undefined, err
		}
		return NewString("[object " + o.class.String() + "]"), nil
	})
	in.method(p, "valueOf", 0, func(in *Interpreter, this Value, _ []Value) (Value, error) {
		o, err := in.toObject(this)
		return ObjectValue(o), err
	})
}

func initFunction(in *Interpreter) {
	p := in.functionProto
	ctor := func(in *Interpreter, _ Value, _ []Value) (Value, error) {
		return Undefined, in.typeError("Function constructor is not supported")
	}
	in.defineCtor("Function", 1, ctor, ctor, p)

	in.method(p, "call", 1, func(in *Interpreter, this Value, args []Value) (Value, error) {
		var rest []Value
		if len(args) > 1 {
			rest = args[1:]
		}
		return in.call(this, arg(args, 0), rest)
	})
	in.method(p, "apply", 2, func(in *Interpreter, this Value, args []Value) (Value, error) {
		var list []Value
		switch a := arg(args, 1); {
		case a.IsNullish():
		case a.IsObject() && (a.obj.class == ClassArray || a.obj.class == ClassArguments):
			n, err := in.getProperty(a, "length")
			if err != nil {
				return Undefined, err
			}
			for i := 0; i < int(n.primitiveNumber()); i++ {
				v, err := in.getProperty(a, strconv.Itoa(i))
				if err != nil {
					return Undefined, err
				}
				list = append(list, v)
			}
		default:
			return Undefined, in.typeError("second argument to Function.prototype.apply must be an array")
		}
		return in.call(this, arg(args, 0), list)
	})
	in.method(p, "toString", 0, func(in *Interpreter, this Value, _ []Value) (Value, error) {
		if !this.IsCallable() {
			return Undefined, in.throwError("TypeError", jserrors.ErrIncompatibleProto, "Function", "toString", this.primitiveString())
		}
		return NewString(this.obj.describe()), nil
	})
}

func initErrors(in *Interpreter) {
	in.errorProto = &Object{class: ClassError, proto: in.objectProto}
	in.errorProto.SetHidden("name", NewString("Error"))
	in.errorProto.SetHidden("message", NewString(""))
	in.method(in.errorProto, "toString", 0, func(in *Interpreter, this Value, _ []Value) (Value, error) {
		if !this.IsObject() {
			return NewString(this.primitiveString()), nil
		}
		name, err := in.getProperty(this, "name")
		if err != nil {
			return Undefined, err
		}
		msg, err := in.getProperty(this, "message")
		if err != nil {
			return Undefined, err
		}
		s := name.primitiveString()
		if m := msg.primitiveString(); !msg.IsUndefined() && m != "" {
			s += ": " + m
		}
		return NewString(s), nil
	})

	for _, name := range []string{"Error", "TypeError", "SyntaxError", "ReferenceError", "RangeError", "InternalError"} {
		proto := in.errorProto
		if name != "Error" {
			proto = &Object{class: ClassError, proto: in.errorProto}
			proto.SetHidden("name", NewString(name))
		}
		ctorName := name
		construct := func(in *Interpreter, _ Value, args []Value) (Value, error) {
			msg := ""
			if m := arg(args, 0); !m.IsUndefined() {
				s, err := in.toString(m)
				if err != nil {
					return Undefined, err
				}
				msg = s
			}
			return ObjectValue(in.newError(ctorName, msg)), nil
		}
		in.errorCtors[name] = in.defineCtor(name, 1, construct, construct, proto)
	}
}

func initIterator(in *Interpreter) {
	in.iteratorProto = NewObject(in.objectProto)
	in.method(in.iteratorProto, "next", 0, iteratorNextMethod)
	in.method(in.iteratorProto, "__iterator__", 1, returnThis)
	in.defineCtor("Iterator", 2, iteratorFunction, iteratorConstruct, in.iteratorProto)

	in.generatorProto = NewObject(in.objectProto)
	in.method(in.generatorProto, "next", 0, generatorMethod("next", MsgNext))
	in.method(in.generatorProto, "send", 1, generatorMethod("send", MsgSend))
	in.method(in.generatorProto, "throw", 1, generatorMethod("throw", MsgThrow))
	in.method(in.generatorProto, "close", 0, generatorClose)
	in.method(in.generatorProto, "__iterator__", 1, returnThis)

	in.stopIteration = &Object{class: ClassStopIteration, proto: in.objectProto}
	in.stopIteration.SetHidden("toString", ObjectValue(in.newNative("toString", 0,
		func(*Interpreter, Value, []Value) (Value, error) { return NewString("[object StopIteration]"), nil })))
	in.global.SetHidden("StopIteration", ObjectValue(in.stopIteration))
}

func thisArray(in *Interpreter, this Value, method string) (*Object, error) {
	if !this.IsObject() || this.obj.class != ClassArray {
		return nil, in.throwError("TypeError", jserrors.ErrIncompatibleProto, "Array", method, this.primitiveString())
	}
	return this.obj, nil
}

func initArray(in *Interpreter) {
	in.arrayProto = newArray(in.objectProto, nil)
	p := in.arrayProto
	ctor := func(in *Interpreter, _ Value, args []Value) (Value, error) {
		if len(args) == 1 && args[0].IsNumber() {
			n := args[0].num
			if n < 0 || n != math.Trunc(n) || n > math.MaxUint32 {
				return Undefined, in.throw(ObjectValue(in.newError("RangeError", "invalid array length")))
			}
			arr := in.NewArray()
			arr.setLength(args[0])
			return ObjectValue(arr), nil
		}
		return ObjectValue(in.NewArray(args...)), nil
	}
	in.defineCtor("Array", 1, ctor, ctor, p)

	in.method(p, "push", 1, func(in *Interpreter, this Value, args []Value) (Value, error) {
		a, err := thisArray(in, this, "push")
		if err != nil {
			return Undefined, err
		}
		a.elems = append(a.elems, args...)
		return NumberValue(float64(len(a.elems))), nil
	})
	in.method(p, "pop", 0, func(in *Interpreter, this Value, _ []Value) (Value, error) {
		a, err := thisArray(in, this, "pop")
		if err != nil || len(a.elems) == 0 {
			return Undefined, err
		}
		v := a.elems[len(a.elems)-1]
		a.elems = a.elems[:len(a.elems)-1]
		if v.IsHole() {
			v = Undefined
		}
		return v, nil
	})
	join := func(in *Interpreter, this Value, args []Value) (Value, error) {
		a, err := thisArray(in, this, "join")
		if err != nil {
			return Undefined, err
		}
		sep := ","
		if s := arg(args, 0); !s.IsUndefined() {
			if sep, err = in.toString(s); err != nil {
				return Undefined, err
			}
		}
		parts := make([]string, len(a.elems))
		for i, e := range a.elems {
			if e.IsNullish() || e.IsHole() {
				continue
			}
			if parts[i], err = in.toString(e); err != nil {
				return Undefined, err
			}
		}
		return NewString(strings.Join(parts, sep)), nil
	}
	in.method(p, "join", 1, join)
	in.method(p, "toString", 0, func(in *Interpreter, this Value, _ []Value) (Value, error) {
		return join(in, this, nil)
	})
	in.method(p, "slice", 2, func(in *Interpreter, this Value, args []Value) (Value, error) {
		a, err := thisArray(in, this, "slice")
		if err != nil {
			return Undefined, err
		}
		n := len(a.elems)
		start, end := 0, n
		if v := arg(args, 0); !v.IsUndefined() {
			f, err := in.toNumber(v)
			if err != nil {
				return Undefined, err
			}
			start = clampIndex(f, n)
		}
		if v := arg(args, 1); !v.IsUndefined() {
			f, err := in.toNumber(v)
			if err != nil {
				return Undefined, err
			}
			end = clampIndex(f, n)
		}
		if end < start {
			end = start
		}
		return ObjectValue(in.NewArray(a.elems[start:end]...)), nil
	})
}

// clampIndex resolves a relative index against length n.
func clampIndex(f float64, n int) int {
	if math.IsNaN(f) {
		return 0
	}
	if f < 0 {
		f += float64(n)
		if f < 0 {
			return 0
		}
	}
	if f > float64(n) {
		return n
	}
	return int(f)
}

func thisPrimitive(in *Interpreter, this Value, class Class, method string) (Value, error) {
	if this.IsObject() && this.obj.class == class {
		return this.obj.prim, nil
	}
	switch {
	case class == ClassString && this.IsString(),
		class == ClassNumber && this.IsNumber(),
		class == ClassBoolean && this.IsBoolean():
		return this, nil
	}
	return Undefined, in.throwError("TypeError", jserrors.ErrIncompatibleProto, class.String(), method, this.primitiveString())
}

func initString(in *Interpreter) {
	in.stringProto = &Object{class: ClassString, proto: in.objectProto, prim: NewString("")}
	p := in.stringProto
	in.defineCtor("String", 1,
		func(in *Interpreter, _ Value, args []Value) (Value, error) {
			if len(args) == 0 {
				return NewString(""), nil
			}
			s, err := in.toString(args[0])
			return NewString(s), err
		},
		func(in *Interpreter, _ Value, args []Value) (Value, error) {
			s := ""
			if len(args) > 0 {
				var err error
				if s, err = in.toString(args[0]); err != nil {
					return Undefined, err
				}
			}
			return ObjectValue(&Object{class: ClassString, proto: in.stringProto, prim: NewString(s)}), nil
		}, p)

	value := func(in *Interpreter, this Value, _ []Value) (Value, error) {
		return thisPrimitive(in, this, ClassString, "toString")
	}
	in.method(p, "toString", 0, value)
	in.method(p, "valueOf", 0, value)
	in.method(p, "charAt", 1, func(in *Interpreter, this Value, args []Value) (Value, error) {
		s, err := in.toString(this)
		if err != nil {
			return Undefined, err
		}
		f, err := in.toNumber(arg(args, 0))
		if err != nil {
			return Undefined, err
		}
		r := []rune(s)
		if math.IsNaN(f) {
			f = 0
		}
		if f < 0 || int(f) >= len(r) {
			return NewString(""), nil
		}
		return NewString(string(r[int(f)])), nil
	})
	in.method(p, "indexOf", 1, func(in *Interpreter, this Value, args []Value) (Value, error) {
		s, err := in.toString(this)
		if err != nil {
			return Undefined, err
		}
		sub, err := in.toString(arg(args, 0))
		if err != nil {
			return Undefined, err
		}
		i := strings.Index(s, sub)
		if i < 0 {
			return NumberValue(-1), nil
		}
		return NumberValue(float64(len([]rune(s[:i])))), nil
	})
}

func initNumber(in *Interpreter) {
	in.numberProto = &Object{class: ClassNumber, proto: in.objectProto, prim: NumberValue(0)}
	p := in.numberProto
	toNumber := func(in *Interpreter, args []Value) (Value, error) {
		if len(args) == 0 {
			return NumberValue(0), nil
		}
		f, err := in.toNumber(args[0])
		return NumberValue(f), err
	}
	in.defineCtor("Number", 1,
		func(in *Interpreter, _ Value, args []Value) (Value, error) { return toNumber(in, args) },
		func(in *Interpreter, _ Value, args []Value) (Value, error) {
			v, err := toNumber(in, args)
			if err != nil {
				return Undefined, err
			}
			return ObjectValue(&Object{class: ClassNumber, proto: in.numberProto, prim: v}), nil
		}, p)
	in.method(p, "valueOf", 0, func(in *Interpreter, this Value, _ []Value) (Value, error) {
		return thisPrimitive(in, this, ClassNumber, "valueOf")
	})
	in.method(p, "toString", 0, func(in *Interpreter, this Value, _ []Value) (Value, error) {
		v, err := thisPrimitive(in, this, ClassNumber, "toString")
		if err != nil {
			return Undefined, err
		}
		return NewString(v.primitiveString()), nil
	})
}

func initBoolean(in *Interpreter) {
	in.booleanProto = &Object{class: ClassBoolean, proto: in.objectProto, prim: False}
	p := in.booleanProto
	in.defineCtor("Boolean", 1,
		func(_ *Interpreter, _ Value, args []Value) (Value, error) {
			return BooleanValue(arg(args, 0).IsTruthy()), nil
		},
		func(in *Interpreter, _ Value, args []Value) (Value, error) {
			return ObjectValue(&Object{class: ClassBoolean, proto: in.booleanProto, prim: BooleanValue(arg(args, 0).IsTruthy())}), nil
		}, p)
	in.method(p, "valueOf", 0, func(in *Interpreter, this Value, _ []Value) (Value, error) {
		return thisPrimitive(in, this, ClassBoolean, "valueOf")
	})
	in.method(p, "toString", 0, func(in *Interpreter, this Value, _ []Value) (Value, error) {
		v, err := thisPrimitive(in, this, ClassBoolean, "toString")
		if err != nil {
			return Undefined, err
		}
		return NewString(v.primitiveString()), nil
	})
}

func initRegExp(in *Interpreter) {
	in.regexpProto = NewObject(in.objectProto)
	p := in.regexpProto
	construct := func(in *Interpreter, _ Value, args []Value) (Value, error) {
		src, flags := "", ""
		if v := arg(args, 0); v.IsObject() && v.obj.re != nil {
			s, _ := v.obj.GetOwnProperty("source")
			src, flags = s.primitiveString(), v.obj.reFl
		} else if !v.IsUndefined() {
			var err error
			if src, err = in.toString(v); err != nil {
				return Undefined, err
			}
		}
		if v := arg(args, 1); !v.IsUndefined() {
			var err error
			if flags, err = in.toString(v); err != nil {
				return Undefined, err
			}
		}
		return in.newRegExp(src, flags)
	}
	in.defineCtor("RegExp", 2, construct, construct, p)
	in.method(p, "test", 1, regexpTest)
	in.method(p, "exec", 1, regexpExec)
	in.method(p, "toString", 0, regexpToString)
}

func initGlobalFunctions(in *Interpreter) {
	g := in.global
	g.SetHidden("NaN", NaN)
	g.SetHidden("Infinity", NumberValue(math.Inf(1)))
	g.SetHidden("undefined", Undefined)
	for _, name := range []string{"NaN", "Infinity", "undefined"} {
		g.props[name].readOnly = true
	}

	in.method(g, "print", 0, func(in *Interpreter, _ Value, args []Value) (Value, error) {
		parts := make([]string, len(args))
		for i, a := range args {
			s, err := in.toString(a)
			if err != nil {
				return Undefined, err
			}
			parts[i] = s
		}
		fmt.Fprintln(in.out, strings.Join(parts, " "))
		return Undefined, nil
	})
	in.method(g, "isNaN", 1, func(in *Interpreter, _ Value, args []Value) (Value, error) {
		f, err := in.toNumber(arg(args, 0))
		return BooleanValue(math.IsNaN(f)), err
	})
}
