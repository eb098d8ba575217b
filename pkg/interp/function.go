package interp

import (
	"strconv"
	"strings"

	"jscore/pkg/ast"
	jserrors "jscore/pkg/errors"
	"jscore/pkg/lexer"
)

// call invokes fn with this and args.
func (in *Interpreter) call(fn, this Value, args []Value) (Value, error) {
	if !fn.IsCallable() {
		return Undefined, in.throwError("TypeError", jserrors.ErrNotFunction, fn.primitiveString())
	}
	if in.depth >= in.maxDepth {
		return Undefined, in.throwError("InternalError", jserrors.ErrOverRecursed)
	}
	in.depth++
	defer func() { in.depth-- }()

	f := fn.obj
	if f.native != nil {
		pos := in.pos
		v, err := f.native(in, this, args)
		in.pos = pos
		return v, err
	}
	return in.callClosure(f, this, args)
}

// callClosure enters a script function. Calling a generator function
// binds its arguments and returns a generator without running the body.
func (in *Interpreter) callClosure(f *Object, this Value, args []Value) (Value, error) {
	pn := f.closure.node
	box := pn.Fun()
	if this.IsNullish() {
		this = ObjectValue(in.global)
	}

	scope := newScope(f.closure.scope)
	scope.fn = &activation{this: this, callee: f, args: args}
	for i, p := range box.Params {
		scope.bind(p.Atom(), arg(args, i))
	}
	if box.Flags&ast.FunUsesArguments != 0 {
		if _, ok := scope.vars["arguments"]; !ok {
			scope.bind("arguments", ObjectValue(in.newArguments(f, args)))
		}
	}
	body := pn.Body()
	declareFormalPatterns(scope, body)
	in.hoist(scope, body)

	if box.IsGenerator() {
		return ObjectValue(in.newGeneratorObject(f, scope, body)), nil
	}

	saved := in.pos
	c, err := in.exec(scope, body)
	in.pos = saved
	if err != nil {
		return Undefined, err
	}
	if c.kind == compReturn {
		return c.value, nil
	}
	return Undefined, nil
}

// declareFormalPatterns declares the names of destructuring formals, which
// the parser unpacks from hidden %argN parameters in a statement at the
// top of the body.
func declareFormalPatterns(scope *Scope, body *ast.Node) {
	if body == nil || body.Arity != ast.List || body.Head() == nil {
		return
	}
	first := body.Head()
	if first.Type != lexer.SEMI || first.Kid() == nil || first.Kid().Type != lexer.COMMA ||
		first.Kid().Arity != ast.List {
		return
	}
	for k := first.Kid().Head(); k != nil; k = k.Next() {
		if k.Type != lexer.ASSIGN || !k.Right().IsName() || !strings.HasPrefix(k.Right().Atom(), "%arg") {
			return
		}
		for _, name := range patternNames(k.Left()) {
			if _, ok := scope.vars[name]; !ok {
				scope.vars[name] = &binding{value: Undefined}
			}
		}
	}
}

func (in *Interpreter) newArguments(callee *Object, args []Value) *Object {
	obj := &Object{class: ClassArguments, proto: in.objectProto}
	for i, a := range args {
		obj.SetOwn(strconv.Itoa(i), a)
	}
	obj.SetHidden("length", NumberValue(float64(len(args))))
	obj.SetHidden("callee", ObjectValue(callee))
	return obj
}

// construct implements new.
func (in *Interpreter) construct(ctor *Object, args []Value) (Value, error) {
	if ctor.ctor != nil {
		if in.depth >= in.maxDepth {
			return Undefined, in.throwError("InternalError", jserrors.ErrOverRecursed)
		}
		in.depth++
		defer func() { in.depth-- }()
		return ctor.ctor(in, Undefined, args)
	}
	if ctor.closure != nil && ctor.closure.node.Fun().IsGenerator() {
		return Undefined, in.throwError("TypeError", jserrors.ErrNotConstructor, ctor.name)
	}

	proto := in.objectProto
	pv, err := in.getFrom(ctor, "prototype", ObjectValue(ctor))
	if err != nil {
		return Undefined, err
	}
	if pv.IsObject() {
		proto = pv.obj
	}
	obj := NewObject(proto)
	r, err := in.call(ObjectValue(ctor), ObjectValue(obj), args)
	if err != nil {
		return Undefined, err
	}
	if r.IsObject() {
		return r, nil
	}
	return ObjectValue(obj), nil
}
