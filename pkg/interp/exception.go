package interp

import (
	"fmt"

	"github.com/pkg/errors"

	"jscore/pkg/ast"
	jserrors "jscore/pkg/errors"
)

// Exception is a value thrown by script code, or by the runtime on its
// behalf. It is the only error that catch clauses see.
type Exception struct {
	Value Value
	// Pos is the statement that was executing when the value was thrown.
	Pos ast.Span
	// Number is set for errors raised by the runtime.
	Number jserrors.ErrorNumber
}

func (e *Exception) Error() string {
	return "uncaught exception: " + e.Value.String()
}

// IsStopIteration reports whether the thrown value is StopIteration.
func (e *Exception) IsStopIteration() bool {
	return e.Value.IsObject() && e.Value.obj.class == ClassStopIteration
}

// errGeneratorExit unwinds a generator being closed. It runs finally
// blocks but no catch clause sees it.
var errGeneratorExit = errors.New("generator closing")

// asException returns err as a catchable exception, or nil.
func asException(err error) *Exception {
	if ex, ok := err.(*Exception); ok {
		return ex
	}
	return nil
}

// throw wraps v as an exception raised at the current statement.
func (in *Interpreter) throw(v Value) error {
	return &Exception{Value: v, Pos: in.pos}
}

// throwError raises a new error object of the named constructor with the
// message registered for num.
func (in *Interpreter) throwError(ctor string, num jserrors.ErrorNumber, args ...interface{}) error {
	obj := in.newError(ctor, jserrors.Format(num, args...))
	return &Exception{Value: ObjectValue(obj), Pos: in.pos, Number: num}
}

// typeError raises a TypeError with a free-form message.
func (in *Interpreter) typeError(format string, args ...interface{}) error {
	obj := in.newError("TypeError", fmt.Sprintf(format, args...))
	return &Exception{Value: ObjectValue(obj), Pos: in.pos}
}

// newError builds an error object whose prototype is the prototype of
// the named constructor.
func (in *Interpreter) newError(ctor, msg string) *Object {
	proto := in.errorProto
	if c, ok := in.errorCtors[ctor]; ok {
		if p, ok := c.GetOwnProperty("prototype"); ok && p.IsObject() {
			proto = p.obj
		}
	}
	obj := &Object{class: ClassError, proto: proto}
	obj.SetHidden("message", NewString(msg))
	return obj
}

// throwStopIteration raises the StopIteration singleton.
func (in *Interpreter) throwStopIteration() error {
	return &Exception{Value: ObjectValue(in.stopIteration), Pos: in.pos}
}
