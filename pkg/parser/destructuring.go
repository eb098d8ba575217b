package parser

import (
	"jscore/pkg/ast"
	"jscore/pkg/errors"
	"jscore/pkg/lexer"
)

// propKey identifies an object literal property. Names and strings that
// spell the same property are the same key.
type propKey struct {
	number bool
	n      float64
	s      string
}

func keyOf(pn *ast.Node) propKey {
	if pn.Type == lexer.NUMBER {
		return propKey{number: true, n: pn.Number()}
	}
	return propKey{s: pn.Atom()}
}

// findPropValData is the lookup state for one object pattern matched
// against an object literal.
type findPropValData struct {
	numvars int                   // properties in the pattern
	maxstep int                   // longest scan so far
	table   map[propKey]*ast.Node // replaces scanning once built
}

// findPropertyValue returns the value of the property of the object
// literal pn whose key matches pnid, or nil. When a key appears more than
// once the last one wins, so every scan walks the whole literal. A large
// pattern against a large literal switches to a hash table after a long
// scan.
func (p *Parser) findPropertyValue(pn, pnid *ast.Node, data *findPropValData) *ast.Node {
	key := keyOf(pnid)
	if data.table != nil {
		return data.table[key]
	}
	if pn.Type != lexer.RC {
		return nil
	}

	var hit *ast.Node
	step := 0
	for prop := pn.Head(); prop != nil; prop = prop.Next() {
		if prop.Op != lexer.OpNop {
			continue // getter or setter
		}
		if keyOf(prop.Left()) == key {
			hit = prop
		}
		step++
	}
	if hit == nil {
		return nil
	}

	if step > data.maxstep {
		data.maxstep = step
		if step >= p.opts.StepHashThreshold &&
			data.numvars >= p.opts.BigDestructuring &&
			pn.Count() >= p.opts.BigObjectInit {
			debugPrint("destructuring: hashing %d properties after %d steps", pn.Count(), step)
			data.table = make(map[propKey]*ast.Node, pn.Count())
			for prop := pn.Head(); prop != nil; prop = prop.Next() {
				if prop.Op == lexer.OpNop {
					data.table[keyOf(prop.Left())] = prop.Right()
				}
			}
			p.hashTables++
		}
	}
	return hit.Right()
}

// firstBoundName returns the first name a pattern element would bind.
func firstBoundName(pn *ast.Node) string {
	switch pn.Type {
	case lexer.NAME:
		return pn.Atom()
	case lexer.RB:
		for k := pn.Head(); k != nil; k = k.Next() {
			if !k.IsElision() {
				if name := firstBoundName(k); name != "" {
					return name
				}
			}
		}
	case lexer.RC:
		for k := pn.Head(); k != nil; k = k.Next() {
			if name := firstBoundName(k.Right()); name != "" {
				return name
			}
		}
	}
	return ""
}

func stripParens(pn *ast.Node) *ast.Node {
	for pn.Type == lexer.RP {
		pn = pn.Kid()
	}
	return pn
}

// checkDestructuring validates the pattern left against the optional
// initializer right. With data set, as in declarations, every target must
// be a name and is bound through data's binder. With data nil, as in
// assignments, targets are checked as lvalues.
func (p *Parser) checkDestructuring(data *bindData, left, right *ast.Node) bool {
	if left.Type == lexer.ARRAYCOMP {
		p.fail(left, errors.ErrArrayCompLeftside)
		return false
	}
	if right != nil && right.Arity == ast.List && right.HasExtra(ast.Shorthand) {
		p.fail(right, errors.ErrBadObjectInit)
		return false
	}

	// A declaration initialized from a literal of the same shape must
	// supply every bound name.
	checkPaths := data != nil && p.opts.RequireLiteralKeyPaths &&
		right != nil && right.Type == left.Type

	if left.Type == lexer.RB {
		var rhs *ast.Node
		if right != nil && right.Type == lexer.RB {
			rhs = right.Head()
		}
		for lhs := left.Head(); lhs != nil; lhs = lhs.Next() {
			pn, pn2 := lhs, rhs
			if data == nil {
				pn = stripParens(pn)
				if pn2 != nil {
					pn2 = stripParens(pn2)
				}
			}
			if !pn.IsElision() {
				if checkPaths && (pn2 == nil || pn2.IsElision()) && !p.keyPathFound(pn) {
					return false
				}
				if !p.destructureTarget(data, pn, pn2) {
					return false
				}
			}
			if rhs != nil {
				rhs = rhs.Next()
			}
		}
		return true
	}

	fpvd := &findPropValData{numvars: left.Count()}
	for lhs := left.Head(); lhs != nil; lhs = lhs.Next() {
		pn := lhs.Right()
		if data == nil {
			pn = stripParens(pn)
		}

		var rhs *ast.Node
		if right != nil && (pn.Type == lexer.RB || pn.Type == lexer.RC || checkPaths) {
			rhs = p.findPropertyValue(right, lhs.Left(), fpvd)
			if rhs != nil && data == nil {
				rhs = stripParens(rhs)
			}
			if rhs == nil && checkPaths && !p.keyPathFound(pn) {
				return false
			}
		}
		if !p.destructureTarget(data, pn, rhs) {
			return false
		}
	}
	return true
}

// keyPathFound reports a pattern element that has no counterpart in the
// initializer. Elements that bind nothing are let through.
func (p *Parser) keyPathFound(pn *ast.Node) bool {
	name := firstBoundName(pn)
	if name == "" {
		return true
	}
	p.fail(pn, errors.ErrMissingDestructKey, name)
	return false
}

func (p *Parser) destructureTarget(data *bindData, pn, rhs *ast.Node) bool {
	switch {
	case pn.Type == lexer.RB || pn.Type == lexer.RC:
		return p.checkDestructuring(data, pn, rhs)
	case data != nil:
		if pn.Type != lexer.NAME {
			p.fail(pn, errors.ErrNoVariableName)
			return false
		}
		return p.bindDestructuringVar(data, pn)
	}
	return p.bindDestructuringLHS(pn)
}

// destructuringExpr parses a pattern whose opening bracket or brace is the
// current token and binds its names through data.
func (p *Parser) destructuringExpr(data *bindData, tt lexer.TokenType) *ast.Node {
	pn := p.primaryExpr(tt, false)
	if pn == nil {
		return nil
	}
	if !p.checkDestructuring(data, pn, nil) {
		return nil
	}
	return pn
}
