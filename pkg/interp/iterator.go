package interp

import (
	"jscore/pkg/ast"
	jserrors "jscore/pkg/errors"
)

// IterResult is one step of an iteration.
type IterResult struct {
	Value Value
	Done  bool
}

// nativeIterator enumerates the properties of an object.
//
// In enumerate mode it walks the prototype chain, taking a snapshot of the
// ids of each object when it gets there. An id is produced only while the
// object it came from is still the one a lookup on the original object
// finds, so deleted and shadowed properties are skipped.
//
// Otherwise it walks the own properties of the object only, and reports
// ids as they are, numbers included.
type nativeIterator struct {
	orig  *Object
	cur   *Object
	ids   []Value
	pos   int
	flags ast.IterFlags
	done  bool
}

func newNativeIterator(obj *Object, flags ast.IterFlags) *nativeIterator {
	it := &nativeIterator{orig: obj, cur: obj, flags: flags}
	if obj == nil {
		it.done = true
		return it
	}
	it.ids = obj.ownIDs()
	return it
}

func (it *nativeIterator) next(in *Interpreter) (IterResult, error) {
	for !it.done {
		if it.pos >= len(it.ids) {
			if it.flags&ast.IterEnumerate == 0 || it.cur.proto == nil {
				it.done = true
				break
			}
			it.cur = it.cur.proto
			it.ids = it.cur.ownIDs()
			it.pos = 0
			continue
		}
		id := it.ids[it.pos]
		it.pos++
		key := id.primitiveString()

		if it.flags&ast.IterEnumerate == 0 {
			if !it.orig.HasOwnProperty(key) {
				continue
			}
			if it.flags&ast.IterForEach == 0 {
				return IterResult{Value: id}, nil
			}
			v, err := in.getFrom(it.orig, key, ObjectValue(it.orig))
			if err != nil {
				return IterResult{}, err
			}
			return IterResult{Value: ObjectValue(in.NewArray(id, v))}, nil
		}

		if it.orig.Lookup(key) != it.cur {
			continue
		}
		switch {
		case it.flags&ast.IterKeyValue != 0:
			v, err := in.getFrom(it.orig, key, ObjectValue(it.orig))
			if err != nil {
				return IterResult{}, err
			}
			return IterResult{Value: ObjectValue(in.NewArray(NewString(key), v))}, nil
		case it.flags&ast.IterForEach != 0:
			v, err := in.getFrom(it.orig, key, ObjectValue(it.orig))
			if err != nil {
				return IterResult{}, err
			}
			return IterResult{Value: v}, nil
		}
		return IterResult{Value: NewString(key)}, nil
	}
	return IterResult{Done: true}, nil
}

func (in *Interpreter) newIteratorObject(it *nativeIterator) *Object {
	return &Object{class: ClassIterator, proto: in.iteratorProto, iter: it}
}

// ValueToIterator returns the iterator a for-in loop over v walks. An
// object's __iterator__ hook, when callable, supplies it; null and
// undefined enumerate nothing.
func (in *Interpreter) ValueToIterator(v Value, flags ast.IterFlags) (Value, error) {
	if v.IsNullish() {
		if flags&ast.IterEnumerate != 0 {
			return ObjectValue(in.newIteratorObject(newNativeIterator(nil, flags))), nil
		}
		return Undefined, in.throwError("TypeError", jserrors.ErrNoProperties, v.primitiveString())
	}
	obj, err := in.toObject(v)
	if err != nil {
		return Undefined, err
	}

	hook, err := in.getFrom(obj, "__iterator__", ObjectValue(obj))
	if err != nil {
		return Undefined, err
	}
	if hook.IsCallable() {
		keysOnly := flags&ast.IterForEach == 0
		r, err := in.call(hook, ObjectValue(obj), []Value{BooleanValue(keysOnly)})
		if err != nil {
			return Undefined, err
		}
		if r.IsPrimitive() {
			return Undefined, in.throwError("TypeError", jserrors.ErrBadIteratorReturn, obj.describe())
		}
		return r, nil
	}
	return ObjectValue(in.newIteratorObject(newNativeIterator(obj, flags))), nil
}

// IteratorNext advances iter. Native iterators and generators are stepped
// directly; any other object has its next method called, and a thrown
// StopIteration ends the iteration.
func (in *Interpreter) IteratorNext(iter Value) (IterResult, error) {
	if iter.IsObject() {
		obj := iter.obj
		if obj.class == ClassIterator && obj.iter != nil {
			return obj.iter.next(in)
		}
		if obj.gen != nil {
			r, err := obj.gen.Resume(Message{Kind: MsgNext})
			if err != nil {
				return IterResult{}, err
			}
			if r.Kind == Returned {
				return IterResult{Done: true}, nil
			}
			return IterResult{Value: r.Value}, nil
		}
	}

	next, err := in.getProperty(iter, "next")
	if err != nil {
		return IterResult{}, err
	}
	v, err := in.call(next, iter, nil)
	if err != nil {
		if ex := asException(err); ex != nil && ex.IsStopIteration() {
			return IterResult{Done: true}, nil
		}
		return IterResult{}, err
	}
	return IterResult{Value: v}, nil
}

// CloseIterator finishes iter. A generator is closed, running its pending
// finally blocks. Closing twice is harmless.
func (in *Interpreter) CloseIterator(iter Value) error {
	if !iter.IsObject() {
		return nil
	}
	obj := iter.obj
	switch {
	case obj.iter != nil:
		obj.iter.done = true
	case obj.gen != nil:
		if obj.gen.state == GenClosed {
			return nil
		}
		_, err := obj.gen.Resume(Message{Kind: MsgClose})
		return err
	}
	return nil
}

// iteratorFunction is Iterator(obj, keyonly) called as a function.
func iteratorFunction(in *Interpreter, _ Value, args []Value) (Value, error) {
	var flags ast.IterFlags
	if !arg(args, 1).IsTruthy() {
		flags = ast.IterForEach
	}
	return in.ValueToIterator(arg(args, 0), flags)
}

// iteratorConstruct is new Iterator(obj, keyonly). The hook is not
// consulted.
func iteratorConstruct(in *Interpreter, _ Value, args []Value) (Value, error) {
	obj, err := in.toObject(arg(args, 0))
	if err != nil {
		return Undefined, err
	}
	var flags ast.IterFlags
	if !arg(args, 1).IsTruthy() {
		flags = ast.IterForEach
	}
	return ObjectValue(in.newIteratorObject(newNativeIterator(obj, flags))), nil
}

func iteratorNextMethod(in *Interpreter, this Value, _ []Value) (Value, error) {
	if !this.IsObject() || this.obj.iter == nil {
		return Undefined, in.throwError("TypeError", jserrors.ErrIncompatibleProto, "Iterator", "next", this.primitiveString())
	}
	r, err := this.obj.iter.next(in)
	if err != nil {
		return Undefined, err
	}
	if r.Done {
		return Undefined, in.throwStopIteration()
	}
	return r.Value, nil
}

func returnThis(_ *Interpreter, this Value, _ []Value) (Value, error) {
	return this, nil
}
