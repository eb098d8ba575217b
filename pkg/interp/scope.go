package interp

// binding is a declared variable.
type binding struct {
	value    Value
	readOnly bool
	// pending marks a const whose initializer has not run yet.
	pending bool
}

// Scope is one link of the scope chain. A scope either holds declared
// bindings or, for the global scope and with statements, resolves names
// as properties of an object.
type Scope struct {
	vars   map[string]*binding
	obj    *Object
	parent *Scope

	// fn is set on function scopes.
	fn *activation
	// comp is the array an enclosed comprehension pushes to.
	comp *Object
}

// activation is the state of one function call.
type activation struct {
	this   Value
	callee *Object
	args   []Value
	gen    *Generator
}

func newScope(parent *Scope) *Scope {
	return &Scope{vars: make(map[string]*binding), parent: parent}
}

func newObjectScope(obj *Object, parent *Scope) *Scope {
	return &Scope{obj: obj, parent: parent}
}

// function returns the innermost function scope, or nil at top level.
func (s *Scope) function() *Scope {
	for sc := s; sc != nil; sc = sc.parent {
		if sc.fn != nil {
			return sc
		}
	}
	return nil
}

// varScope is where var declarations go: the function scope, or the
// global scope.
func (s *Scope) varScope() *Scope {
	sc := s
	for sc.parent != nil && sc.fn == nil {
		sc = sc.parent
	}
	return sc
}

// declare adds a binding to a declarative scope, or a property to an
// object scope. An existing binding is kept.
func (s *Scope) declare(name string, v Value, readOnly bool) {
	if s.obj != nil {
		if !s.obj.HasOwnProperty(name) {
			s.obj.SetOwn(name, v)
		}
		if readOnly {
			s.obj.props[name].readOnly = true
		}
		return
	}
	if b, ok := s.vars[name]; ok {
		if readOnly {
			b.readOnly = true
		}
		return
	}
	s.vars[name] = &binding{value: v, readOnly: readOnly}
}

// bind sets a binding in this scope, replacing any existing one.
func (s *Scope) bind(name string, v Value) {
	if s.obj != nil {
		s.obj.SetOwn(name, v)
		return
	}
	s.vars[name] = &binding{value: v}
}

// resolve finds the scope defining name.
func (s *Scope) resolve(name string) *Scope {
	for sc := s; sc != nil; sc = sc.parent {
		if sc.obj != nil {
			if sc.obj.HasProperty(name) {
				return sc
			}
			continue
		}
		if _, ok := sc.vars[name]; ok {
			return sc
		}
	}
	return nil
}

// comprehension returns the array of the innermost comprehension.
func (s *Scope) comprehension() *Object {
	for sc := s; sc != nil; sc = sc.parent {
		if sc.comp != nil {
			return sc.comp
		}
	}
	return nil
}
