package interp

import (
	"strings"

	"jscore/pkg/ast"
	jserrors "jscore/pkg/errors"
	"jscore/pkg/jsnum"
	"jscore/pkg/lexer"
)

// eval evaluates an expression.
func (in *Interpreter) eval(s *Scope, pn *ast.Node) (Value, error) {
	switch pn.Type {
	case lexer.NUMBER:
		return NumberValue(pn.Number()), nil

	case lexer.STRING:
		return NewString(pn.Atom()), nil

	case lexer.PRIMARY:
		switch pn.Op {
		case lexer.OpTrue:
			return True, nil
		case lexer.OpFalse:
			return False, nil
		case lexer.OpNull:
			return Null, nil
		case lexer.OpThis:
			return in.thisValue(s), nil
		}

	case lexer.OBJECT:
		return in.newRegExp(pn.Atom(), pn.RegExpFlags())

	case lexer.NAME:
		return in.lookupName(s, pn.Atom())

	case lexer.RP:
		return in.eval(s, pn.Kid())

	case lexer.COMMA:
		if pn.Arity != ast.List {
			return Undefined, nil
		}
		v := Undefined
		for k := pn.Head(); k != nil; k = k.Next() {
			var err error
			if v, err = in.eval(s, k); err != nil {
				return Undefined, err
			}
		}
		return v, nil

	case lexer.ASSIGN:
		return in.evalAssign(s, pn)

	case lexer.HOOK:
		c, err := in.eval(s, pn.Kid1())
		if err != nil {
			return Undefined, err
		}
		if c.IsTruthy() {
			return in.eval(s, pn.Kid2())
		}
		return in.eval(s, pn.Kid3())

	case lexer.OR, lexer.AND:
		return in.evalLogical(s, pn)

	case lexer.BITOR, lexer.BITXOR, lexer.BITAND, lexer.EQOP, lexer.RELOP, lexer.IN,
		lexer.INSTANCEOF, lexer.SHOP, lexer.PLUS, lexer.MINUS, lexer.STAR, lexer.DIVOP:
		return in.evalBinary(s, pn)

	case lexer.UNARYOP:
		if pn.Op == lexer.OpTypeof {
			return in.evalTypeof(s, pn.Kid())
		}
		v, err := in.eval(s, pn.Kid())
		if err != nil {
			return Undefined, err
		}
		return in.unaryOp(pn.Op, v)

	case lexer.INC, lexer.DEC:
		return in.evalIncDec(s, pn)

	case lexer.DELETE:
		return in.evalDelete(s, pn.Kid())

	case lexer.YIELD:
		v := Undefined
		if pn.Kid() != nil {
			var err error
			if v, err = in.eval(s, pn.Kid()); err != nil {
				return Undefined, err
			}
		}
		return in.yield(s, v)

	case lexer.DOT:
		obj, err := in.eval(s, pn.Expr())
		if err != nil {
			return Undefined, err
		}
		return in.getProperty(obj, pn.Atom())

	case lexer.LB:
		if pn.Arity != ast.Binary {
			break
		}
		obj, err := in.eval(s, pn.Left())
		if err != nil {
			return Undefined, err
		}
		idx, err := in.eval(s, pn.Right())
		if err != nil {
			return Undefined, err
		}
		if obj.IsNullish() {
			return Undefined, in.throwError("TypeError", jserrors.ErrNoProperties, obj.primitiveString())
		}
		key, err := in.propertyKey(idx)
		if err != nil {
			return Undefined, err
		}
		return in.getProperty(obj, key)

	case lexer.LP:
		return in.evalCall(s, pn)

	case lexer.NEW:
		ctor, err := in.eval(s, pn.Head())
		if err != nil {
			return Undefined, err
		}
		args, err := in.evalArgs(s, pn.Head().Next())
		if err != nil {
			return Undefined, err
		}
		if !ctor.IsCallable() {
			return Undefined, in.throwError("TypeError", jserrors.ErrNotConstructor, describeNode(pn.Head()))
		}
		return in.construct(ctor.obj, args)

	case lexer.RB:
		return in.evalArrayLiteral(s, pn)

	case lexer.RC:
		return in.evalObjectLiteral(s, pn)

	case lexer.FUNCTION:
		if pn.Arity != ast.Func {
			break
		}
		return ObjectValue(in.functionValue(s, pn)), nil

	case lexer.ARRAYCOMP:
		arr := in.NewArray()
		scope := newScope(s)
		scope.comp = arr
		if _, err := in.exec(scope, pn.Head()); err != nil {
			return Undefined, err
		}
		return ObjectValue(arr), nil

	case lexer.ARRAYPUSH:
		v, err := in.eval(s, pn.Kid())
		if err != nil {
			return Undefined, err
		}
		arr := s.comprehension()
		arr.setElement(len(arr.elems), v)
		return Undefined, nil

	case lexer.LEXICALSCOPE:
		// let (x = e) expr
		inner := newScope(s)
		let := pn.Expr()
		if err := in.bindLetHead(inner, let.Left()); err != nil {
			return Undefined, err
		}
		return in.eval(inner, let.Right())

	case lexer.XMLELEM, lexer.XMLLIST, lexer.XMLNAME, lexer.XMLTEXT, lexer.XMLCDATA,
		lexer.XMLCOMMENT, lexer.XMLPI, lexer.XMLATTR, lexer.XMLSPACE:
		return Undefined, in.typeError("XML values are not supported")
	}
	return Undefined, errBadNode(pn)
}

// thisValue is this in the innermost function, or the global object.
func (in *Interpreter) thisValue(s *Scope) Value {
	if fs := s.function(); fs != nil {
		return fs.fn.this
	}
	return ObjectValue(in.global)
}

// functionValue creates the function object of a function expression. A
// named expression sees its own name.
func (in *Interpreter) functionValue(s *Scope, pn *ast.Node) *Object {
	if pn.Op == lexer.OpNamedFunObj {
		own := newScope(s)
		fn := in.newClosure(pn, own)
		own.bind(pn.Fun().Name, ObjectValue(fn))
		return fn
	}
	return in.newClosure(pn, s)
}

func (in *Interpreter) evalLogical(s *Scope, pn *ast.Node) (Value, error) {
	var operands []*ast.Node
	if pn.Arity == ast.List {
		operands = pn.Elements()
	} else {
		operands = []*ast.Node{pn.Left(), pn.Right()}
	}
	var v Value
	for i, k := range operands {
		var err error
		if v, err = in.eval(s, k); err != nil {
			return Undefined, err
		}
		if i == len(operands)-1 {
			break
		}
		if v.IsTruthy() == (pn.Type == lexer.OR) {
			return v, nil
		}
	}
	return v, nil
}

// evalBinary evaluates a binary operator or a flattened chain of one,
// left to right.
func (in *Interpreter) evalBinary(s *Scope, pn *ast.Node) (Value, error) {
	op := pn.Op
	if pn.Arity != ast.List {
		a, err := in.eval(s, pn.Left())
		if err != nil {
			return Undefined, err
		}
		b, err := in.eval(s, pn.Right())
		if err != nil {
			return Undefined, err
		}
		return in.binaryOp(op, a, b)
	}
	k := pn.Head()
	acc, err := in.eval(s, k)
	if err != nil {
		return Undefined, err
	}
	for k = k.Next(); k != nil; k = k.Next() {
		b, err := in.eval(s, k)
		if err != nil {
			return Undefined, err
		}
		if acc, err = in.binaryOp(op, acc, b); err != nil {
			return Undefined, err
		}
	}
	return acc, nil
}

func (in *Interpreter) evalTypeof(s *Scope, kid *ast.Node) (Value, error) {
	for kid.Type == lexer.RP {
		kid = kid.Kid()
	}
	if kid.IsName() && s.resolve(kid.Atom()) == nil {
		return NewString("undefined"), nil
	}
	v, err := in.eval(s, kid)
	if err != nil {
		return Undefined, err
	}
	return NewString(v.TypeOf()), nil
}

func (in *Interpreter) evalAssign(s *Scope, pn *ast.Node) (Value, error) {
	left := pn.Left()
	if left.Type == lexer.RB || left.Type == lexer.RC {
		v, err := in.eval(s, pn.Right())
		if err != nil {
			return Undefined, err
		}
		return v, in.destructure(s, left, v, in.assignBinder(s))
	}

	ref, err := in.evalRef(s, left)
	if err != nil {
		return Undefined, err
	}
	if pn.Op == lexer.OpNop {
		v, err := in.eval(s, pn.Right())
		if err != nil {
			return Undefined, err
		}
		return v, ref.put(v)
	}
	old, err := ref.get()
	if err != nil {
		return Undefined, err
	}
	r, err := in.eval(s, pn.Right())
	if err != nil {
		return Undefined, err
	}
	v, err := in.binaryOp(pn.Op, old, r)
	if err != nil {
		return Undefined, err
	}
	return v, ref.put(v)
}

func (in *Interpreter) evalIncDec(s *Scope, pn *ast.Node) (Value, error) {
	ref, err := in.evalRef(s, pn.Kid())
	if err != nil {
		return Undefined, err
	}
	old, err := ref.get()
	if err != nil {
		return Undefined, err
	}
	n, err := in.toNumber(old)
	if err != nil {
		return Undefined, err
	}
	next := n + 1
	if pn.Type == lexer.DEC {
		next = n - 1
	}
	if err := ref.put(NumberValue(next)); err != nil {
		return Undefined, err
	}
	if pn.Op == lexer.OpPostInc || pn.Op == lexer.OpPostDec {
		return NumberValue(n), nil
	}
	return NumberValue(next), nil
}

func (in *Interpreter) evalDelete(s *Scope, kid *ast.Node) (Value, error) {
	for kid.Type == lexer.RP {
		kid = kid.Kid()
	}
	switch kid.Type {
	case lexer.NAME:
		sc := s.resolve(kid.Atom())
		switch {
		case sc == nil:
			return True, nil
		case sc.obj != nil:
			return BooleanValue(sc.obj.Delete(kid.Atom())), nil
		}
		return False, nil
	case lexer.DOT, lexer.LB:
		ref, err := in.evalRef(s, kid)
		if err != nil {
			return Undefined, err
		}
		obj, err := in.toObject(ref.base)
		if err != nil {
			return Undefined, err
		}
		return BooleanValue(obj.Delete(ref.name)), nil
	}
	if _, err := in.eval(s, kid); err != nil {
		return Undefined, err
	}
	return True, nil
}

func (in *Interpreter) evalArgs(s *Scope, first *ast.Node) ([]Value, error) {
	var args []Value
	for k := first; k != nil; k = k.Next() {
		v, err := in.eval(s, k)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return args, nil
}

// evalCall evaluates a call. A member callee supplies this; a plain name
// found on a with object supplies that object.
func (in *Interpreter) evalCall(s *Scope, pn *ast.Node) (Value, error) {
	callee := pn.Head()
	for callee.Type == lexer.RP {
		callee = callee.Kid()
	}

	var fn, this Value
	switch callee.Type {
	case lexer.DOT, lexer.LB:
		ref, err := in.evalRef(s, callee)
		if err != nil {
			return Undefined, err
		}
		if fn, err = ref.get(); err != nil {
			return Undefined, err
		}
		this = ref.base
	case lexer.NAME:
		var err error
		if fn, err = in.lookupName(s, callee.Atom()); err != nil {
			return Undefined, err
		}
		if sc := s.resolve(callee.Atom()); sc != nil && sc.obj != nil && sc != in.globalScope {
			this = ObjectValue(sc.obj)
		}
	default:
		var err error
		if fn, err = in.eval(s, callee); err != nil {
			return Undefined, err
		}
	}

	args, err := in.evalArgs(s, pn.Head().Next())
	if err != nil {
		return Undefined, err
	}
	if !fn.IsCallable() {
		in.pos = pn.Pos
		return Undefined, in.throwError("TypeError", jserrors.ErrNotFunction, describeNode(callee))
	}
	return in.call(fn, this, args)
}

func (in *Interpreter) evalArrayLiteral(s *Scope, pn *ast.Node) (Value, error) {
	elems := make([]Value, 0, pn.Count())
	for k := pn.Head(); k != nil; k = k.Next() {
		if k.IsElision() {
			elems = append(elems, Hole)
			continue
		}
		v, err := in.eval(s, k)
		if err != nil {
			return Undefined, err
		}
		elems = append(elems, v)
	}
	return ObjectValue(newArray(in.arrayProto, elems)), nil
}

func (in *Interpreter) evalObjectLiteral(s *Scope, pn *ast.Node) (Value, error) {
	obj := in.newPlainObject()
	for k := pn.Head(); k != nil; k = k.Next() {
		key := literalKey(k.Left())
		switch k.Op {
		case lexer.OpGetter:
			obj.defineAccessor(key, in.functionValue(s, k.Right()), nil)
		case lexer.OpSetter:
			obj.defineAccessor(key, nil, in.functionValue(s, k.Right()))
		default:
			v, err := in.eval(s, k.Right())
			if err != nil {
				return Undefined, err
			}
			obj.SetOwn(key, v)
		}
	}
	return ObjectValue(obj), nil
}

// literalKey is the property name of an object literal or pattern key.
func literalKey(pn *ast.Node) string {
	if pn.Type == lexer.NUMBER {
		return jsnum.ToString(pn.Number())
	}
	return pn.Atom()
}

// describeNode renders a callee for error messages.
func describeNode(pn *ast.Node) string {
	switch pn.Type {
	case lexer.NAME:
		return pn.Atom()
	case lexer.DOT:
		return describeNode(pn.Expr()) + "." + pn.Atom()
	case lexer.LB:
		return describeNode(pn.Left()) + "[...]"
	case lexer.PRIMARY:
		if pn.Op == lexer.OpThis {
			return "this"
		}
	case lexer.RP:
		return describeNode(pn.Kid())
	case lexer.STRING:
		return `"` + strings.ReplaceAll(pn.Atom(), `"`, `\"`) + `"`
	case lexer.NUMBER:
		return jsnum.ToString(pn.Number())
	}
	return "expression"
}

// --- References ---

type refKind uint8

const (
	refName refKind = iota
	refProp
)

// reference is an assignable place.
type reference struct {
	in    *Interpreter
	kind  refKind
	scope *Scope
	name  string
	base  Value
}

func (r *reference) get() (Value, error) {
	if r.kind == refName {
		return r.in.lookupName(r.scope, r.name)
	}
	return r.in.getProperty(r.base, r.name)
}

func (r *reference) put(v Value) error {
	if r.kind == refName {
		return r.in.assignName(r.scope, r.name, v)
	}
	return r.in.setProperty(r.base, r.name, v)
}

// evalRef evaluates the operands of an assignment target.
func (in *Interpreter) evalRef(s *Scope, pn *ast.Node) (*reference, error) {
	for pn.Type == lexer.RP {
		pn = pn.Kid()
	}
	switch pn.Type {
	case lexer.NAME:
		return &reference{in: in, kind: refName, scope: s, name: pn.Atom()}, nil
	case lexer.DOT:
		base, err := in.eval(s, pn.Expr())
		if err != nil {
			return nil, err
		}
		if base.IsNullish() {
			return nil, in.throwError("TypeError", jserrors.ErrNoProperties, base.primitiveString())
		}
		return &reference{in: in, kind: refProp, name: pn.Atom(), base: base}, nil
	case lexer.LB:
		base, err := in.eval(s, pn.Left())
		if err != nil {
			return nil, err
		}
		idx, err := in.eval(s, pn.Right())
		if err != nil {
			return nil, err
		}
		if base.IsNullish() {
			return nil, in.throwError("TypeError", jserrors.ErrNoProperties, base.primitiveString())
		}
		key, err := in.propertyKey(idx)
		if err != nil {
			return nil, err
		}
		return &reference{in: in, kind: refProp, name: key, base: base}, nil
	case lexer.LP:
		// f() = v calls f and then fails.
		if _, err := in.evalCall(s, pn); err != nil {
			return nil, err
		}
	}
	return nil, in.throwError("ReferenceError", jserrors.ErrBadLeftsideOfAss)
}

// lookupName reads a variable.
func (in *Interpreter) lookupName(s *Scope, name string) (Value, error) {
	sc := s.resolve(name)
	if sc == nil {
		return Undefined, in.throwError("ReferenceError", jserrors.ErrNotDefined, name)
	}
	if sc.obj != nil {
		return in.getFrom(sc.obj, name, ObjectValue(sc.obj))
	}
	return sc.vars[name].value, nil
}

// assignName stores to a variable. An undeclared name becomes a property
// of the global object; stores to a const are dropped.
func (in *Interpreter) assignName(s *Scope, name string, v Value) error {
	sc := s.resolve(name)
	if sc == nil {
		in.global.SetOwn(name, v)
		return nil
	}
	if sc.obj != nil {
		return in.setProperty(ObjectValue(sc.obj), name, v)
	}
	b := sc.vars[name]
	if !b.readOnly {
		b.value = v
	}
	return nil
}

// initConst runs the initializer of a const, which is the one store a
// const accepts.
func (in *Interpreter) initConst(s *Scope, name string, v Value) {
	vs := s.varScope()
	if vs.obj != nil {
		if p, ok := vs.obj.props[name]; ok && !p.isAccessor() {
			p.value = v
			return
		}
		vs.obj.SetOwn(name, v)
		vs.obj.props[name].readOnly = true
		return
	}
	b, ok := vs.vars[name]
	if !ok {
		b = &binding{readOnly: true}
		vs.vars[name] = b
	}
	if b.pending || !b.readOnly {
		b.value = v
		b.pending = false
	}
}
