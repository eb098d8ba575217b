package interp

import (
	"strconv"

	"github.com/dlclark/regexp2"

	"jscore/pkg/ast"
)

// Class tells the kinds of objects apart.
type Class uint8

const (
	ClassObject Class = iota
	ClassArray
	ClassFunction
	ClassArguments
	ClassError
	ClassString
	ClassNumber
	ClassBoolean
	ClassRegExp
	ClassIterator
	ClassGenerator
	ClassStopIteration
)

var classNames = [...]string{
	ClassObject:        "Object",
	ClassArray:         "Array",
	ClassFunction:      "Function",
	ClassArguments:     "Arguments",
	ClassError:         "Error",
	ClassString:        "String",
	ClassNumber:        "Number",
	ClassBoolean:       "Boolean",
	ClassRegExp:        "RegExp",
	ClassIterator:      "Iterator",
	ClassGenerator:     "Generator",
	ClassStopIteration: "StopIteration",
}

func (c Class) String() string { return classNames[c] }

// NativeFunc implements a built-in function.
type NativeFunc func(in *Interpreter, this Value, args []Value) (Value, error)

type property struct {
	value      Value
	getter     *Object
	setter     *Object
	enumerable bool
	readOnly   bool
}

func (p *property) isAccessor() bool { return p.getter != nil || p.setter != nil }

// Object is a script object. Named properties keep insertion order; the
// elements of arrays are kept apart, with Hole for missing ones.
type Object struct {
	class Class
	proto *Object

	keys  []string
	props map[string]*property

	elems []Value

	// Functions
	name    string
	closure *closure
	native  NativeFunc
	ctor    NativeFunc // used by new instead of the generic construction

	prim Value           // wrapped primitive of String, Number and Boolean objects
	iter *nativeIterator // ClassIterator
	gen  *Generator      // ClassGenerator
	re   *regexp2.Regexp // ClassRegExp
	reFl string          // regexp flags
}

// closure is a function defined by script code.
type closure struct {
	node  *ast.Node // FUNCTION
	scope *Scope
}

// NewObject returns an empty object with the given prototype.
func NewObject(proto *Object) *Object {
	return &Object{class: ClassObject, proto: proto}
}

func (o *Object) Class() Class       { return o.class }
func (o *Object) Prototype() *Object { return o.proto }

// IsCallable reports whether o is a function.
func (o *Object) IsCallable() bool { return o.closure != nil || o.native != nil }

// Generator returns the generator behind a generator object, or nil.
func (o *Object) Generator() *Generator { return o.gen }

// arrayIndex parses a canonical array index.
func arrayIndex(name string) (int, bool) {
	if name == "" || len(name) > 10 || (len(name) > 1 && name[0] == '0') {
		return 0, false
	}
	n, err := strconv.ParseUint(name, 10, 32)
	if err != nil || n == 1<<32-1 {
		return 0, false
	}
	return int(n), true
}

// maxDenseGap bounds how far past the end an index store may grow the
// element vector; farther indices become named properties.
const maxDenseGap = 1 << 20

func (o *Object) element(name string) (int, bool) {
	if o.class != ClassArray && o.class != ClassString {
		return 0, false
	}
	i, ok := arrayIndex(name)
	if !ok {
		return 0, false
	}
	if o.class == ClassString {
		return i, i < len([]rune(o.prim.str))
	}
	return i, true
}

// GetOwnProperty returns the own data value of name. Accessors are not
// invoked; ok is false for them.
func (o *Object) GetOwnProperty(name string) (Value, bool) {
	if i, ok := o.element(name); ok {
		if o.class == ClassString {
			return NewString(string([]rune(o.prim.str)[i])), true
		}
		if i < len(o.elems) && !o.elems[i].IsHole() {
			return o.elems[i], true
		}
		return Undefined, false
	}
	if name == "length" {
		switch o.class {
		case ClassArray:
			return NumberValue(float64(len(o.elems))), true
		case ClassString:
			return NumberValue(float64(len([]rune(o.prim.str)))), true
		}
	}
	if p, ok := o.props[name]; ok && !p.isAccessor() {
		return p.value, true
	}
	return Undefined, false
}

// HasOwnProperty reports whether name is an own property of o.
func (o *Object) HasOwnProperty(name string) bool {
	if i, ok := o.element(name); ok {
		return o.class == ClassString || (i < len(o.elems) && !o.elems[i].IsHole())
	}
	if name == "length" && (o.class == ClassArray || o.class == ClassString) {
		return true
	}
	_, ok := o.props[name]
	return ok
}

// Lookup returns the object on o's prototype chain that has name as an
// own property, or nil.
func (o *Object) Lookup(name string) *Object {
	for obj := o; obj != nil; obj = obj.proto {
		if obj.HasOwnProperty(name) {
			return obj
		}
	}
	return nil
}

// HasProperty reports whether name is found on o or its prototypes.
func (o *Object) HasProperty(name string) bool { return o.Lookup(name) != nil }

// SetOwn defines or overwrites an enumerable data property.
func (o *Object) SetOwn(name string, v Value) {
	o.define(name, v, true)
}

// SetHidden defines or overwrites a non-enumerable data property.
func (o *Object) SetHidden(name string, v Value) {
	o.define(name, v, false)
}

func (o *Object) define(name string, v Value, enumerable bool) {
	if o.class == ClassArray {
		if i, ok := arrayIndex(name); ok && i < len(o.elems)+maxDenseGap {
			o.setElement(i, v)
			return
		}
		if name == "length" {
			o.setLength(v)
			return
		}
	}
	if o.props == nil {
		o.props = make(map[string]*property)
	}
	if p, ok := o.props[name]; ok {
		p.value, p.getter, p.setter = v, nil, nil
		p.enumerable = enumerable
		return
	}
	o.props[name] = &property{value: v, enumerable: enumerable}
	o.keys = append(o.keys, name)
}

// defineAccessor installs a getter or setter, keeping the other half.
func (o *Object) defineAccessor(name string, getter, setter *Object) {
	if o.props == nil {
		o.props = make(map[string]*property)
	}
	p, ok := o.props[name]
	if !ok {
		p = &property{enumerable: true}
		o.props[name] = p
		o.keys = append(o.keys, name)
	} else if !p.isAccessor() {
		p.value = Undefined
	}
	if getter != nil {
		p.getter = getter
	}
	if setter != nil {
		p.setter = setter
	}
}

func (o *Object) setElement(i int, v Value) {
	for len(o.elems) <= i {
		o.elems = append(o.elems, Hole)
	}
	o.elems[i] = v
}

func (o *Object) setLength(v Value) {
	n := int(v.primitiveNumber())
	if n < 0 {
		n = 0
	}
	if n <= len(o.elems) {
		o.elems = o.elems[:n]
		return
	}
	for len(o.elems) < n {
		o.elems = append(o.elems, Hole)
	}
}

// Delete removes an own property and reports whether it is gone.
func (o *Object) Delete(name string) bool {
	if i, ok := o.element(name); ok {
		if o.class == ClassString {
			return false
		}
		if i < len(o.elems) {
			o.elems[i] = Hole
		}
		return true
	}
	if name == "length" && (o.class == ClassArray || o.class == ClassString) {
		return false
	}
	p, ok := o.props[name]
	if !ok {
		return true
	}
	if p.readOnly {
		return false
	}
	delete(o.props, name)
	for i, k := range o.keys {
		if k == name {
			o.keys = append(o.keys[:i:i], o.keys[i+1:]...)
			break
		}
	}
	return true
}

// ownIDs returns the ids an enumeration of o's own enumerable properties
// reports, in order: element indices as numbers, then names.
func (o *Object) ownIDs() []Value {
	var ids []Value
	switch o.class {
	case ClassArray:
		for i, e := range o.elems {
			if !e.IsHole() {
				ids = append(ids, NumberValue(float64(i)))
			}
		}
	case ClassString:
		for i := range []rune(o.prim.str) {
			ids = append(ids, NumberValue(float64(i)))
		}
	}
	for _, k := range o.keys {
		if o.props[k].enumerable {
			ids = append(ids, NewString(k))
		}
	}
	return ids
}

// OwnKeys returns the names of o's own enumerable properties.
func (o *Object) OwnKeys() []string {
	ids := o.ownIDs()
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.primitiveString()
	}
	return keys
}

// Elements returns a copy of an array's elements.
func (o *Object) Elements() []Value {
	return append([]Value(nil), o.elems...)
}

// describe is the built-in description of o, used where no script code
// may run.
func (o *Object) describe() string {
	switch o.class {
	case ClassFunction:
		return "function " + o.name + "() {\n    [native code]\n}"
	case ClassError:
		name, _ := o.lookupData("name")
		msg, _ := o.lookupData("message")
		if m := msg.primitiveString(); msg.IsString() && m != "" {
			return name.primitiveString() + ": " + m
		}
		return name.primitiveString()
	case ClassString, ClassNumber, ClassBoolean:
		return o.prim.primitiveString()
	case ClassRegExp:
		src, _ := o.GetOwnProperty("source")
		return "/" + src.primitiveString() + "/" + o.reFl
	case ClassArray:
		s := ""
		for i, e := range o.elems {
			if i > 0 {
				s += ","
			}
			if !e.IsNullish() && !e.IsHole() {
				s += e.primitiveString()
			}
		}
		return s
	}
	return "[object " + o.class.String() + "]"
}

// lookupData reads a data property along the prototype chain without
// running accessors.
func (o *Object) lookupData(name string) (Value, bool) {
	for obj := o; obj != nil; obj = obj.proto {
		if v, ok := obj.GetOwnProperty(name); ok {
			return v, true
		}
	}
	return Undefined, false
}

func newArray(proto *Object, elems []Value) *Object {
	return &Object{class: ClassArray, proto: proto, elems: elems}
}
