package interp

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"jscore/pkg/ast"
	"jscore/pkg/lexer"
)

type completionKind uint8

const (
	compNormal completionKind = iota
	compBreak
	compContinue
	compReturn
)

// completion is how a statement finished.
type completion struct {
	kind  completionKind
	value Value
	label string
	// valued is set once an expression statement produced value.
	valued bool
}

var normal = completion{}

func (in *Interpreter) exec(s *Scope, pn *ast.Node) (completion, error) {
	return in.execStmt(s, pn, nil)
}

// execStmt runs one statement. labels are the labels directly attached
// to it, so that a loop can tell its own continue from an outer one.
func (in *Interpreter) execStmt(s *Scope, pn *ast.Node, labels []string) (completion, error) {
	if pn == nil {
		return normal, nil
	}
	if pn.Arity != ast.List {
		in.pos = pn.Pos
	}

	switch pn.Type {
	case lexer.LC, lexer.SEQ:
		if pn.Arity != ast.List {
			break
		}
		return in.execList(s, pn)

	case lexer.LEXICALSCOPE:
		inner := newScope(s)
		in.declareLets(inner, pn.Expr())
		return in.execStmt(inner, pn.Expr(), labels)

	case lexer.SEMI:
		if pn.Kid() == nil {
			return normal, nil
		}
		v, err := in.eval(s, pn.Kid())
		if err != nil {
			return normal, err
		}
		return completion{value: v, valued: true}, nil

	case lexer.VAR:
		return normal, in.execVar(s, pn)

	case lexer.LET:
		if pn.Arity == ast.Binary {
			if err := in.bindLetHead(s, pn.Left()); err != nil {
				return normal, err
			}
			return in.exec(s, pn.Right())
		}
		return normal, in.execLet(s, s, pn)

	case lexer.FUNCTION:
		switch pn.Op {
		case lexer.OpDefFun:
			s.varScope().bind(pn.Fun().Name, ObjectValue(in.newClosure(pn, s)))
			return normal, nil
		case lexer.OpNop:
			return normal, nil // hoisted
		}

	case lexer.IF:
		v, err := in.eval(s, pn.Kid1())
		if err != nil {
			return normal, err
		}
		if v.IsTruthy() {
			return in.exec(s, pn.Kid2())
		}
		return in.exec(s, pn.Kid3())

	case lexer.WHILE:
		return in.execWhile(s, pn, labels)

	case lexer.DO:
		return in.execDo(s, pn, labels)

	case lexer.FOR:
		if pn.Left().Type == lexer.IN {
			return in.execForIn(s, pn, labels)
		}
		return in.execFor(s, pn, labels)

	case lexer.SWITCH:
		return in.execSwitch(s, pn)

	case lexer.BREAK:
		return completion{kind: compBreak, label: pn.Atom()}, nil

	case lexer.CONTINUE:
		return completion{kind: compContinue, label: pn.Atom()}, nil

	case lexer.RETURN:
		v := Undefined
		if pn.Kid() != nil {
			var err error
			if v, err = in.eval(s, pn.Kid()); err != nil {
				return normal, err
			}
		}
		return completion{kind: compReturn, value: v, valued: true}, nil

	case lexer.THROW:
		v, err := in.eval(s, pn.Kid())
		if err != nil {
			return normal, err
		}
		in.pos = pn.Pos
		return normal, in.throw(v)

	case lexer.TRY:
		return in.execTry(s, pn)

	case lexer.COLON:
		label := pn.Atom()
		c, err := in.execStmt(s, pn.Expr(), append(labels, label))
		if err != nil {
			return c, err
		}
		if c.kind == compBreak && c.label == label {
			c.kind, c.label = compNormal, ""
		}
		return c, nil

	case lexer.WITH:
		v, err := in.eval(s, pn.Left())
		if err != nil {
			return normal, err
		}
		obj, err := in.toObject(v)
		if err != nil {
			return normal, err
		}
		return in.exec(newObjectScope(obj, s), pn.Right())

	case lexer.DEBUGGER:
		return normal, nil
	}

	// Anything else is an expression in statement position, such as the
	// array push at the bottom of a comprehension.
	v, err := in.eval(s, pn)
	if err != nil {
		return normal, err
	}
	return completion{value: v, valued: true}, nil
}

func (in *Interpreter) execList(s *Scope, pn *ast.Node) (completion, error) {
	var last completion
	for k := pn.Head(); k != nil; k = k.Next() {
		c, err := in.exec(s, k)
		if err != nil {
			return c, err
		}
		if c.valued {
			last.value, last.valued = c.value, true
		}
		if c.kind != compNormal {
			if c.kind != compReturn && !c.valued && last.valued {
				c.value, c.valued = last.value, true
			}
			return c, nil
		}
	}
	return last, nil
}

// loopExit decides what a loop does with the completion of its body. It
// returns stop when the loop must end, with the completion to report.
func loopExit(c completion, labels []string) (stop bool, out completion) {
	switch c.kind {
	case compBreak:
		if c.label == "" || hasLabel(labels, c.label) {
			return true, completion{value: c.value, valued: c.valued}
		}
		return true, c
	case compContinue:
		if c.label == "" || hasLabel(labels, c.label) {
			return false, c
		}
		return true, c
	case compReturn:
		return true, c
	}
	return false, c
}

func hasLabel(labels []string, label string) bool {
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}

func (in *Interpreter) execWhile(s *Scope, pn *ast.Node, labels []string) (completion, error) {
	var result completion
	for {
		if err := in.checkContext(); err != nil {
			return normal, err
		}
		v, err := in.eval(s, pn.Left())
		if err != nil {
			return normal, err
		}
		if !v.IsTruthy() {
			return result, nil
		}
		c, err := in.exec(s, pn.Right())
		if err != nil {
			return normal, err
		}
		if c.valued {
			result.value, result.valued = c.value, true
		}
		if stop, out := loopExit(c, labels); stop {
			return out, nil
		}
	}
}

func (in *Interpreter) execDo(s *Scope, pn *ast.Node, labels []string) (completion, error) {
	var result completion
	for {
		if err := in.checkContext(); err != nil {
			return normal, err
		}
		c, err := in.exec(s, pn.Left())
		if err != nil {
			return normal, err
		}
		if c.valued {
			result.value, result.valued = c.value, true
		}
		if stop, out := loopExit(c, labels); stop {
			return out, nil
		}
		v, err := in.eval(s, pn.Right())
		if err != nil {
			return normal, err
		}
		if !v.IsTruthy() {
			return result, nil
		}
	}
}

func (in *Interpreter) execFor(s *Scope, pn *ast.Node, labels []string) (completion, error) {
	head := pn.Left()
	if init := head.Kid1(); init != nil {
		var err error
		switch init.Type {
		case lexer.VAR, lexer.LET:
			_, err = in.exec(s, init)
		default:
			_, err = in.eval(s, init)
		}
		if err != nil {
			return normal, err
		}
	}

	var result completion
	for {
		if err := in.checkContext(); err != nil {
			return normal, err
		}
		if cond := head.Kid2(); cond != nil {
			v, err := in.eval(s, cond)
			if err != nil {
				return normal, err
			}
			if !v.IsTruthy() {
				return result, nil
			}
		}
		c, err := in.exec(s, pn.Right())
		if err != nil {
			return normal, err
		}
		if c.valued {
			result.value, result.valued = c.value, true
		}
		if stop, out := loopExit(c, labels); stop {
			return out, nil
		}
		if update := head.Kid3(); update != nil {
			if _, err := in.eval(s, update); err != nil {
				return normal, err
			}
		}
	}
}

// execForIn runs for-in and for each loops on top of the iterator
// protocol. The iterator is closed however the loop ends.
func (in *Interpreter) execForIn(s *Scope, pn *ast.Node, labels []string) (result completion, err error) {
	head := pn.Left()
	obj, err := in.eval(s, head.Right())
	if err != nil {
		return normal, err
	}
	iter, err := in.ValueToIterator(obj, pn.IterFlags()|ast.IterEnumerate)
	if err != nil {
		return normal, err
	}
	defer func() {
		if cerr := in.CloseIterator(iter); cerr != nil && err == nil {
			err = cerr
		}
	}()

	target := head.Left()
	for {
		if err := in.checkContext(); err != nil {
			return normal, err
		}
		r, err := in.IteratorNext(iter)
		if err != nil {
			return normal, err
		}
		if r.Done {
			return result, nil
		}
		in.pos = pn.Pos
		if err := in.assignForInTarget(s, target, r.Value); err != nil {
			return normal, err
		}
		c, err := in.exec(s, pn.Right())
		if err != nil {
			return normal, err
		}
		if c.valued {
			result.value, result.valued = c.value, true
		}
		if stop, out := loopExit(c, labels); stop {
			return out, nil
		}
	}
}

func (in *Interpreter) assignForInTarget(s *Scope, target *ast.Node, v Value) error {
	switch target.Type {
	case lexer.VAR:
		decl := target.Head()
		if decl.Type == lexer.NAME {
			return in.assignName(s, decl.Atom(), v)
		}
		return in.destructure(s, decl, v, in.assignBinder(s))
	case lexer.LET:
		decl := target.Head()
		if decl.Type == lexer.NAME {
			s.bind(decl.Atom(), v)
			return nil
		}
		return in.destructure(s, decl, v, letBinder(s))
	case lexer.RB, lexer.RC:
		return in.destructure(s, target, v, in.assignBinder(s))
	}
	ref, err := in.evalRef(s, target)
	if err != nil {
		return err
	}
	return ref.put(v)
}

func (in *Interpreter) execSwitch(s *Scope, pn *ast.Node) (completion, error) {
	disc, err := in.eval(s, pn.Left())
	if err != nil {
		return normal, err
	}
	cases := pn.Right()
	scope := s
	if cases.Type == lexer.LEXICALSCOPE {
		scope = newScope(s)
		in.declareLets(scope, cases.Expr())
		cases = cases.Expr()
	}

	start, dflt := -1, -1
	clauses := cases.Elements()
	for i, c := range clauses {
		if c.Type == lexer.DEFAULT {
			dflt = i
			continue
		}
		v, err := in.eval(scope, c.Left())
		if err != nil {
			return normal, err
		}
		if StrictEquals(disc, v) {
			start = i
			break
		}
	}
	if start < 0 {
		start = dflt
	}
	if start < 0 {
		return normal, nil
	}

	var result completion
	for _, c := range clauses[start:] {
		r, err := in.exec(scope, c.Right())
		if err != nil {
			return normal, err
		}
		if r.valued {
			result.value, result.valued = r.value, true
		}
		switch {
		case r.kind == compBreak && r.label == "":
			return result, nil
		case r.kind != compNormal:
			return r, nil
		}
	}
	return result, nil
}

// execTry runs a try statement. Only script exceptions reach the catch
// clauses; closing a generator and cancellation unwind through finally
// blocks alone.
func (in *Interpreter) execTry(s *Scope, pn *ast.Node) (completion, error) {
	c, err := in.exec(s, pn.Kid1())

	if ex := asException(err); ex != nil && pn.Kid2() != nil {
		c, err = in.execCatches(s, pn.Kid2(), ex)
	}

	if fin := pn.Kid3(); fin != nil {
		fc, ferr := in.exec(s, fin)
		if ferr != nil {
			return fc, ferr
		}
		if fc.kind != compNormal {
			return fc, nil
		}
	}
	return c, err
}

// execCatches tries each catch clause in turn. An exception no guard
// accepts is rethrown.
func (in *Interpreter) execCatches(s *Scope, list *ast.Node, ex *Exception) (completion, error) {
	for k := list.Head(); k != nil; k = k.Next() {
		clause := k.Expr()
		scope := newScope(s)
		in.declareLets(scope, clause.Kid3())

		target := clause.Kid1()
		if target.Type == lexer.NAME {
			scope.bind(target.Atom(), ex.Value)
		} else if err := in.destructure(scope, target, ex.Value, letBinder(scope)); err != nil {
			return normal, err
		}

		if guard := clause.Kid2(); guard != nil {
			v, err := in.eval(scope, guard)
			if err != nil {
				return normal, err
			}
			if !v.IsTruthy() {
				continue
			}
		}
		in.log.Debug("caught exception", zap.String("value", ex.Value.String()))
		return in.exec(scope, clause.Kid3())
	}
	return normal, ex
}

// execVar runs var and const declarations. The names were declared when
// the enclosing function was entered.
func (in *Interpreter) execVar(s *Scope, pn *ast.Node) error {
	for k := pn.Head(); k != nil; k = k.Next() {
		switch k.Type {
		case lexer.NAME:
			if k.Expr() == nil {
				continue
			}
			v, err := in.eval(s, k.Expr())
			if err != nil {
				return err
			}
			if k.Op == lexer.OpSetConst || k.IsConst() {
				in.initConst(s, k.Atom(), v)
				continue
			}
			if err := in.assignName(s, k.Atom(), v); err != nil {
				return err
			}
		case lexer.ASSIGN:
			v, err := in.eval(s, k.Right())
			if err != nil {
				return err
			}
			binder := in.assignBinder(s)
			if pn.Op == lexer.OpDefConst {
				binder = func(name string, v Value) error {
					in.initConst(s, name, v)
					return nil
				}
			}
			if err := in.destructure(s, k.Left(), v, binder); err != nil {
				return err
			}
		}
	}
	return nil
}

// execLet binds the declarations of a let list into scope, evaluating the
// initializers in evalScope.
func (in *Interpreter) execLet(evalScope, scope *Scope, pn *ast.Node) error {
	for k := pn.Head(); k != nil; k = k.Next() {
		switch k.Type {
		case lexer.NAME:
			v := Undefined
			if k.Expr() != nil {
				var err error
				if v, err = in.eval(evalScope, k.Expr()); err != nil {
					return err
				}
			}
			scope.bind(k.Atom(), v)
		case lexer.ASSIGN:
			v, err := in.eval(evalScope, k.Right())
			if err != nil {
				return err
			}
			if err := in.destructure(evalScope, k.Left(), v, letBinder(scope)); err != nil {
				return err
			}
		}
	}
	return nil
}

// bindLetHead binds the head of a let block or let expression. Its
// initializers see the scope around the block.
func (in *Interpreter) bindLetHead(s *Scope, vars *ast.Node) error {
	outer := s.parent
	if outer == nil {
		outer = s
	}
	return in.execLet(outer, s, vars)
}

// --- Declarations ---

// hoist declares the var and const names and the top-level function
// statements of body in the variable scope of s. Nested functions are
// not entered.
func (in *Interpreter) hoist(s *Scope, body *ast.Node) {
	vs := s.varScope()
	var walk func(pn *ast.Node)
	walk = func(pn *ast.Node) {
		if pn == nil {
			return
		}
		switch pn.Type {
		case lexer.FUNCTION:
			if pn.Arity != ast.Func {
				return
			}
			if pn.Op == lexer.OpNop && pn.Fun().Name != "" {
				vs.bind(pn.Fun().Name, ObjectValue(in.newClosure(pn, s)))
			}
			return
		case lexer.VAR:
			if pn.Arity != ast.List {
				return
			}
			readOnly := pn.Op == lexer.OpDefConst
			for k := pn.Head(); k != nil; k = k.Next() {
				target := k
				if k.Type == lexer.ASSIGN {
					target = k.Left()
				}
				for _, name := range patternNames(target) {
					vs.declare(name, Undefined, readOnly)
					if readOnly {
						markPending(vs, name)
					}
				}
				if k.Type == lexer.NAME {
					walk(k.Expr())
				} else if k.Type == lexer.ASSIGN {
					walk(k.Right())
				}
			}
			return
		}
		eachKid(pn, walk)
	}
	walk(body)
}

func isBlockLike(pn *ast.Node) bool {
	return (pn.Type == lexer.LC || pn.Type == lexer.SEQ) && pn.Arity == ast.List
}

func markPending(s *Scope, name string) {
	if s.obj == nil {
		s.vars[name].pending = true
	}
}

// declareLets binds the let names that belong to a block scope: let
// declarations directly in the block, and the variables of a
// comprehension or a for (let ...) head.
func (in *Interpreter) declareLets(scope *Scope, body *ast.Node) {
	declare := func(target *ast.Node) {
		for _, name := range patternNames(target) {
			if _, ok := scope.vars[name]; !ok {
				scope.vars[name] = &binding{value: Undefined}
			}
		}
	}
	var walk func(pn *ast.Node)
	walk = func(pn *ast.Node) {
		if pn == nil {
			return
		}
		switch {
		case pn.Type == lexer.LET && pn.Arity == ast.List:
			for k := pn.Head(); k != nil; k = k.Next() {
				if k.Type == lexer.ASSIGN {
					declare(k.Left())
				} else {
					declare(k)
				}
			}
		case pn.Type == lexer.LET && pn.Arity == ast.Binary:
			walk(pn.Left())
		case isBlockLike(pn):
			for k := pn.Head(); k != nil; k = k.Next() {
				walk(k)
			}
		case pn.Type == lexer.FOR:
			if head := pn.Left(); head.Type == lexer.IN {
				switch t := head.Left(); t.Type {
				case lexer.LET:
					walk(t)
				case lexer.NAME, lexer.RB, lexer.RC:
					// comprehension clause
					if pn.Op == lexer.OpIter && isComprehensionFor(pn) {
						declare(t)
					}
				}
			} else if init := head.Kid1(); init != nil && init.Type == lexer.LET {
				walk(init)
			}
			if body := pn.Right(); body != nil && (body.Type == lexer.FOR || body.Type == lexer.IF) {
				walk(body)
			}
		case pn.Type == lexer.IF && pn.Arity == ast.Ternary:
			walk(pn.Kid2())
		case pn.Type == lexer.CATCH:
			declare(pn.Kid1())
		}
	}
	walk(body)
}

// isComprehensionFor reports whether a FOR node is a comprehension clause:
// its body is another clause, a guard, or the final push or yield.
func isComprehensionFor(pn *ast.Node) bool {
	for {
		body := pn.Right()
		switch {
		case body == nil:
			return false
		case body.Type == lexer.FOR && body.Arity == ast.Binary:
			pn = body
			continue
		case body.Type == lexer.IF && body.Arity == ast.Ternary:
			body = body.Kid2()
		}
		if body == nil {
			return false
		}
		switch body.Type {
		case lexer.ARRAYPUSH:
			return true
		case lexer.SEMI:
			k := body.Kid()
			return k != nil && k.Type == lexer.YIELD && k.Hidden()
		}
		return false
	}
}

// patternNames returns the names a declaration target binds.
func patternNames(pn *ast.Node) []string {
	var names []string
	var walk func(pn *ast.Node)
	walk = func(pn *ast.Node) {
		switch pn.Type {
		case lexer.NAME:
			if pn.Arity == ast.Name {
				names = append(names, pn.Atom())
			}
		case lexer.RB:
			for k := pn.Head(); k != nil; k = k.Next() {
				if !k.IsElision() {
					walk(k)
				}
			}
		case lexer.RC:
			for k := pn.Head(); k != nil; k = k.Next() {
				walk(k.Right())
			}
		case lexer.RP:
			walk(pn.Kid())
		}
	}
	walk(pn)
	return names
}

// eachKid calls fn for each direct child of pn.
func eachKid(pn *ast.Node, fn func(*ast.Node)) {
	visit := func(k *ast.Node) {
		if k != nil {
			fn(k)
		}
	}
	switch pn.Arity {
	case ast.Unary:
		visit(pn.Kid())
	case ast.Binary:
		visit(pn.Left())
		visit(pn.Right())
	case ast.Ternary:
		visit(pn.Kid1())
		visit(pn.Kid2())
		visit(pn.Kid3())
	case ast.List:
		for k := pn.Head(); k != nil; k = k.Next() {
			fn(k)
		}
	case ast.Name:
		visit(pn.Expr())
	}
}

// errBadNode reports a tree shape the evaluator does not know.
func errBadNode(pn *ast.Node) error {
	return errors.Errorf("interp: unexpected %s node of type %s at %d:%d",
		pn.Arity, pn.Type, pn.Pos.Begin.Line, pn.Pos.Begin.Column)
}
