package interp

import (
	"strings"

	"github.com/dlclark/regexp2"

	jserrors "jscore/pkg/errors"
)

// newRegExp compiles a regular expression literal. Compile errors are
// thrown as SyntaxError.
func (in *Interpreter) newRegExp(src, flags string) (Value, error) {
	opts := regexp2.RegexOptions(regexp2.ECMAScript)
	if strings.ContainsRune(flags, 'i') {
		opts |= regexp2.IgnoreCase
	}
	if strings.ContainsRune(flags, 'm') {
		opts |= regexp2.Multiline
	}
	re, err := regexp2.Compile(src, opts)
	if err != nil {
		return Undefined, in.throw(ObjectValue(in.newError("SyntaxError", "invalid regular expression: "+err.Error())))
	}

	obj := &Object{class: ClassRegExp, proto: in.regexpProto, re: re, reFl: flags}
	obj.SetHidden("source", NewString(src))
	obj.SetHidden("global", BooleanValue(strings.ContainsRune(flags, 'g')))
	obj.SetHidden("ignoreCase", BooleanValue(strings.ContainsRune(flags, 'i')))
	obj.SetHidden("multiline", BooleanValue(strings.ContainsRune(flags, 'm')))
	obj.SetHidden("lastIndex", NumberValue(0))
	return ObjectValue(obj), nil
}

func thisRegExp(in *Interpreter, this Value, method string) (*Object, error) {
	if !this.IsObject() || this.obj.re == nil {
		return nil, in.throwError("TypeError", jserrors.ErrIncompatibleProto, "RegExp", method, this.primitiveString())
	}
	return this.obj, nil
}

// match runs re against the string argument. Global expressions start at
// and update lastIndex, counted in characters.
func (in *Interpreter) match(obj *Object, args []Value) (*regexp2.Match, string, error) {
	s, err := in.toString(arg(args, 0))
	if err != nil {
		return nil, "", err
	}
	global := strings.ContainsRune(obj.reFl, 'g')
	start := 0
	if global {
		li, _ := obj.GetOwnProperty("lastIndex")
		start = int(li.primitiveNumber())
	}
	runes := []rune(s)
	if start < 0 || start > len(runes) {
		obj.SetHidden("lastIndex", NumberValue(0))
		return nil, s, nil
	}
	m, err := obj.re.FindStringMatchStartingAt(s, len(string(runes[:start])))
	if err != nil {
		return nil, "", in.typeError("regular expression: %v", err)
	}
	if global {
		next := 0
		if m != nil {
			next = m.Index + m.Length
			if m.Length == 0 {
				next++
			}
		}
		obj.SetHidden("lastIndex", NumberValue(float64(next)))
	}
	return m, s, nil
}

func regexpTest(in *Interpreter, this Value, args []Value) (Value, error) {
	obj, err := thisRegExp(in, this, "test")
	if err != nil {
		return Undefined, err
	}
	m, _, err := in.match(obj, args)
	if err != nil {
		return Undefined, err
	}
	return BooleanValue(m != nil), nil
}

// regexpExec returns the match array with its index and input, or null.
func regexpExec(in *Interpreter, this Value, args []Value) (Value, error) {
	obj, err := thisRegExp(in, this, "exec")
	if err != nil {
		return Undefined, err
	}
	m, s, err := in.match(obj, args)
	if err != nil || m == nil {
		return Null, err
	}
	groups := m.Groups()
	elems := make([]Value, len(groups))
	for i, g := range groups {
		if len(g.Captures) == 0 {
			elems[i] = Undefined
			continue
		}
		elems[i] = NewString(g.String())
	}
	arr := in.NewArray(elems...)
	arr.SetOwn("index", NumberValue(float64(m.Index)))
	arr.SetOwn("input", NewString(s))
	return ObjectValue(arr), nil
}

func regexpToString(in *Interpreter, this Value, _ []Value) (Value, error) {
	obj, err := thisRegExp(in, this, "toString")
	if err != nil {
		return Undefined, err
	}
	return NewString(obj.describe()), nil
}
