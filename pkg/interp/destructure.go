package interp

import (
	"strconv"

	"jscore/pkg/ast"
	"jscore/pkg/lexer"
)

// binder stores one name bound by a destructuring pattern.
type binder func(name string, v Value) error

// assignBinder stores through the scope chain, as an assignment does.
func (in *Interpreter) assignBinder(s *Scope) binder {
	return func(name string, v Value) error {
		return in.assignName(s, name, v)
	}
}

// letBinder binds names in scope itself.
func letBinder(scope *Scope) binder {
	return func(name string, v Value) error {
		scope.bind(name, v)
		return nil
	}
}

// destructure matches v against an array or object pattern. Names are
// stored through bind; other targets, which only assignment patterns
// have, are evaluated as references in s.
func (in *Interpreter) destructure(s *Scope, pattern *ast.Node, v Value, bind binder) error {
	for pattern.Type == lexer.RP {
		pattern = pattern.Kid()
	}
	switch pattern.Type {
	case lexer.RB:
		if v.IsNullish() {
			return in.getPropertyError(v)
		}
		i := 0
		for k := pattern.Head(); k != nil; k, i = k.Next(), i+1 {
			if k.IsElision() {
				continue
			}
			ev, err := in.getProperty(v, strconv.Itoa(i))
			if err != nil {
				return err
			}
			if err := in.destructureTarget(s, k, ev, bind); err != nil {
				return err
			}
		}
		return nil

	case lexer.RC:
		if v.IsNullish() {
			return in.getPropertyError(v)
		}
		for k := pattern.Head(); k != nil; k = k.Next() {
			ev, err := in.getProperty(v, literalKey(k.Left()))
			if err != nil {
				return err
			}
			if err := in.destructureTarget(s, k.Right(), ev, bind); err != nil {
				return err
			}
		}
		return nil
	}
	return in.destructureTarget(s, pattern, v, bind)
}

func (in *Interpreter) destructureTarget(s *Scope, target *ast.Node, v Value, bind binder) error {
	for target.Type == lexer.RP {
		target = target.Kid()
	}
	switch target.Type {
	case lexer.RB, lexer.RC:
		return in.destructure(s, target, v, bind)
	case lexer.NAME:
		return bind(target.Atom(), v)
	}
	ref, err := in.evalRef(s, target)
	if err != nil {
		return err
	}
	return ref.put(v)
}

// getPropertyError is the error for reading a property of null or
// undefined.
func (in *Interpreter) getPropertyError(v Value) error {
	_, err := in.getProperty(v, "")
	return err
}
