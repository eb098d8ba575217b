package interp

import (
	"context"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"

	"jscore/pkg/ast"
	jserrors "jscore/pkg/errors"
	"jscore/pkg/lexer"
)

// DefaultMaxCallDepth bounds nested calls before "too much recursion".
const DefaultMaxCallDepth = 1000

// Options configure an Interpreter.
type Options struct {
	// Out receives the output of print. Defaults to os.Stdout.
	Out io.Writer
	// Logger defaults to a no-op logger.
	Logger       *zap.Logger
	MaxCallDepth int
}

// Interpreter evaluates programs against one global object. It is not safe
// for concurrent use; generators run on goroutines of their own but never
// at the same time as their caller.
type Interpreter struct {
	log      *zap.Logger
	out      io.Writer
	maxDepth int

	global      *Object
	globalScope *Scope

	objectProto    *Object
	functionProto  *Object
	arrayProto     *Object
	stringProto    *Object
	numberProto    *Object
	booleanProto   *Object
	errorProto     *Object
	regexpProto    *Object
	iteratorProto  *Object
	generatorProto *Object
	stopIteration  *Object
	errorCtors     map[string]*Object

	ctx   context.Context
	depth int
	pos   ast.Span

	mu   sync.Mutex
	gens map[*Generator]struct{}
	// collected holds generators whose objects were finalized while
	// suspended; collectedN is its length.
	collected  []*Generator
	collectedN int32 // atomic
	draining   bool
}

// New creates an interpreter with the built-in globals installed.
func New(opts Options) *Interpreter {
	in := &Interpreter{
		log:        opts.Logger,
		out:        opts.Out,
		maxDepth:   opts.MaxCallDepth,
		errorCtors: make(map[string]*Object),
		gens:       make(map[*Generator]struct{}),
		ctx:        context.Background(),
	}
	if in.log == nil {
		in.log = zap.NewNop()
	}
	if in.out == nil {
		in.out = os.Stdout
	}
	if in.maxDepth <= 0 {
		in.maxDepth = DefaultMaxCallDepth
	}
	in.initGlobals()
	return in
}

// Global returns the global object.
func (in *Interpreter) Global() *Object { return in.global }

// Run executes a program, the LC list returned by the parser, and returns
// the value of the last expression statement. A script exception that
// nobody caught is returned as *Exception.
func (in *Interpreter) Run(ctx context.Context, prog *ast.Node) (Value, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	saved := in.ctx
	in.ctx = ctx
	defer func() { in.ctx = saved }()

	in.closeCollected()
	in.hoist(in.globalScope, prog)
	c, err := in.exec(in.globalScope, prog)
	if err != nil {
		if ex := asException(err); ex != nil {
			in.log.Debug("uncaught exception",
				zap.String("value", ex.Value.String()),
				zap.Int("line", ex.Pos.Begin.Line))
		}
		return Undefined, err
	}
	return c.value, nil
}

// Call invokes a function value.
func (in *Interpreter) Call(fn, this Value, args ...Value) (Value, error) {
	return in.call(fn, this, args)
}

// Shutdown closes every generator still suspended, running its pending
// finally blocks. The first error is returned.
func (in *Interpreter) Shutdown() error {
	in.mu.Lock()
	open := make([]*Generator, 0, len(in.gens))
	for g := range in.gens {
		open = append(open, g)
	}
	in.mu.Unlock()

	in.log.Debug("shutdown", zap.Int("openGenerators", len(open)))
	var first error
	for _, g := range open {
		if _, err := g.Resume(Message{Kind: MsgClose}); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// ToDisplayString converts v to a string the way print does, running
// script toString methods.
func (in *Interpreter) ToDisplayString(v Value) (string, error) {
	return in.toString(v)
}

// ErrorPosition converts an exception's span into a diagnostic position.
func ErrorPosition(ex *Exception) jserrors.Position {
	return jserrors.Position{
		Line:      ex.Pos.Begin.Line,
		Column:    ex.Pos.Begin.Column,
		EndLine:   ex.Pos.End.Line,
		EndColumn: ex.Pos.End.Column,
		StartPos:  ex.Pos.Begin.Offset,
		EndPos:    ex.Pos.End.Offset,
	}
}

// checkContext stops long-running loops once the context is done. It is
// also where collected generators get closed.
func (in *Interpreter) checkContext() error {
	in.closeCollected()
	return in.ctx.Err()
}

// --- Conversions ---

// toPrimitive converts objects through valueOf and toString. hint is
// "string" or "number".
func (in *Interpreter) toPrimitive(v Value, hint string) (Value, error) {
	if v.IsPrimitive() {
		return v, nil
	}
	order := [2]string{"valueOf", "toString"}
	if hint == "string" {
		order = [2]string{"toString", "valueOf"}
	}
	for _, name := range order {
		m, err := in.getProperty(v, name)
		if err != nil {
			return Undefined, err
		}
		if !m.IsCallable() {
			continue
		}
		r, err := in.call(m, v, nil)
		if err != nil {
			return Undefined, err
		}
		if r.IsPrimitive() {
			return r, nil
		}
	}
	return Undefined, in.typeError("can't convert %s to primitive type", v.obj.describe())
}

func (in *Interpreter) toString(v Value) (string, error) {
	p, err := in.toPrimitive(v, "string")
	if err != nil {
		return "", err
	}
	return p.primitiveString(), nil
}

func (in *Interpreter) toNumber(v Value) (float64, error) {
	p, err := in.toPrimitive(v, "number")
	if err != nil {
		return 0, err
	}
	return p.primitiveNumber(), nil
}

// toObject wraps primitives. null and undefined have no properties.
func (in *Interpreter) toObject(v Value) (*Object, error) {
	switch v.typ {
	case TypeObject:
		return v.obj, nil
	case TypeString:
		return &Object{class: ClassString, proto: in.stringProto, prim: v}, nil
	case TypeNumber:
		return &Object{class: ClassNumber, proto: in.numberProto, prim: v}, nil
	case TypeBoolean:
		return &Object{class: ClassBoolean, proto: in.booleanProto, prim: v}, nil
	}
	return nil, in.throwError("TypeError", jserrors.ErrNoProperties, v.primitiveString())
}

// propertyKey converts an index value to a property name.
func (in *Interpreter) propertyKey(v Value) (string, error) {
	if v.IsNumber() {
		return v.primitiveString(), nil
	}
	return in.toString(v)
}

// --- Property access ---

// getProperty reads name from v, running getters.
func (in *Interpreter) getProperty(v Value, name string) (Value, error) {
	var obj *Object
	switch v.typ {
	case TypeObject:
		obj = v.obj
	case TypeString:
		if name == "length" {
			return NumberValue(float64(len([]rune(v.str)))), nil
		}
		if i, ok := arrayIndex(name); ok {
			if r := []rune(v.str); i < len(r) {
				return NewString(string(r[i])), nil
			}
			return Undefined, nil
		}
		obj = in.stringProto
	case TypeNumber:
		obj = in.numberProto
	case TypeBoolean:
		obj = in.booleanProto
	default:
		return Undefined, in.throwError("TypeError", jserrors.ErrNoProperties, v.primitiveString())
	}
	return in.getFrom(obj, name, v)
}

// getFrom looks name up from obj with receiver as this for getters.
func (in *Interpreter) getFrom(obj *Object, name string, receiver Value) (Value, error) {
	for o := obj; o != nil; o = o.proto {
		if v, ok := o.GetOwnProperty(name); ok {
			return v, nil
		}
		if p, ok := o.props[name]; ok {
			if p.getter == nil {
				return Undefined, nil
			}
			return in.call(ObjectValue(p.getter), receiver, nil)
		}
	}
	return Undefined, nil
}

// setProperty assigns name on v, running setters found on the chain.
// Stores to primitives are dropped.
func (in *Interpreter) setProperty(v Value, name string, val Value) error {
	if v.IsNullish() {
		return in.throwError("TypeError", jserrors.ErrNoProperties, v.primitiveString())
	}
	if !v.IsObject() {
		return nil
	}
	obj := v.obj
	for o := obj; o != nil; o = o.proto {
		p, ok := o.props[name]
		if !ok {
			continue
		}
		if p.isAccessor() {
			if p.setter == nil {
				return nil
			}
			_, err := in.call(ObjectValue(p.setter), v, []Value{val})
			return err
		}
		if p.readOnly {
			return nil
		}
		break
	}
	if obj.class == ClassString {
		if _, ok := obj.element(name); ok || name == "length" {
			return nil
		}
	}
	obj.SetOwn(name, val)
	return nil
}

// --- Object construction helpers ---

func (in *Interpreter) newPlainObject() *Object { return NewObject(in.objectProto) }

// NewArray creates an array holding elems.
func (in *Interpreter) NewArray(elems ...Value) *Object {
	return newArray(in.arrayProto, append([]Value(nil), elems...))
}

// newNative creates a built-in function object.
func (in *Interpreter) newNative(name string, arity int, fn NativeFunc) *Object {
	o := &Object{class: ClassFunction, proto: in.functionProto, name: name, native: fn}
	o.SetHidden("length", NumberValue(float64(arity)))
	o.SetHidden("name", NewString(name))
	return o
}

// newClosure creates a function object for a FUNCTION node.
func (in *Interpreter) newClosure(pn *ast.Node, scope *Scope) *Object {
	box := pn.Fun()
	o := &Object{
		class:   ClassFunction,
		proto:   in.functionProto,
		name:    box.Name,
		closure: &closure{node: pn, scope: scope},
	}
	o.SetHidden("length", NumberValue(float64(len(box.Params))))
	o.SetHidden("name", NewString(box.Name))
	proto := in.newPlainObject()
	proto.SetHidden("constructor", ObjectValue(o))
	if box.IsGenerator() {
		proto.proto = in.generatorProto
	}
	o.SetHidden("prototype", ObjectValue(proto))
	return o
}

// method installs a built-in method on obj.
func (in *Interpreter) method(obj *Object, name string, arity int, fn NativeFunc) {
	obj.SetHidden(name, ObjectValue(in.newNative(name, arity, fn)))
}

func arg(args []Value, i int) Value {
	if i < len(args) {
		return args[i]
	}
	return Undefined
}

// isFunctionNode reports whether pn is the node of a FUNCTION.
func isFunctionNode(pn *ast.Node) bool {
	return pn.Type == lexer.FUNCTION && pn.Arity == ast.Func
}
