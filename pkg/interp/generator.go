package interp

import (
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"jscore/pkg/ast"
	jserrors "jscore/pkg/errors"
)

// GenState is the lifecycle state of a generator.
type GenState uint8

const (
	// GenNewborn has not started running its body.
	GenNewborn GenState = iota
	// GenOpen is suspended at a yield.
	GenOpen
	// GenRunning is executing its body.
	GenRunning
	// GenClosing is running finally blocks on the way out of close.
	GenClosing
	// GenClosed has finished.
	GenClosed
)

var genStateNames = [...]string{"newborn", "open", "running", "closing", "closed"}

func (s GenState) String() string { return genStateNames[s] }

// MessageKind says how a generator is resumed.
type MessageKind uint8

const (
	MsgNext MessageKind = iota
	MsgSend
	MsgThrow
	MsgClose
)

// Message resumes a generator. Value is the sent or thrown value.
type Message struct {
	Kind  MessageKind
	Value Value
}

// ResumptionKind says how a generator gave control back.
type ResumptionKind uint8

const (
	// Yielded means the body stopped at a yield; the generator is open.
	Yielded ResumptionKind = iota
	// Returned means the body finished or the generator was already
	// closed; the generator is closed.
	Returned
)

// Resumption is the outcome of Resume. Exceptions leaving the body are
// returned as errors instead.
type Resumption struct {
	Kind  ResumptionKind
	Value Value
}

// genEvent crosses from the generator goroutine back to the caller.
type genEvent struct {
	done  bool
	value Value
	err   error
}

// Generator is the state of one call of a generator function. The body
// runs on a goroutine of its own; control passes back and forth over two
// unbuffered channels so that the caller and the body never run at the
// same time.
type Generator struct {
	in    *Interpreter
	fn    *Object
	scope *Scope
	body  *ast.Node
	state GenState

	toGen   chan Message
	fromGen chan genEvent
}

// newGeneratorObject wraps a new, unstarted generator. Its prototype is
// the prototype of the generator function.
func (in *Interpreter) newGeneratorObject(fn *Object, scope *Scope, body *ast.Node) *Object {
	g := &Generator{in: in, fn: fn, scope: scope, body: body}
	scope.fn.gen = g

	proto := in.generatorProto
	if p, ok := fn.GetOwnProperty("prototype"); ok && p.IsObject() {
		proto = p.obj
	}
	obj := &Object{class: ClassGenerator, proto: proto, gen: g}
	// The body goroutine holds g but never obj, so obj becoming
	// unreachable means no script can resume the generator again.
	runtime.SetFinalizer(obj, func(o *Object) { in.collect(o.gen) })
	return obj
}

// collect queues g to be closed at the next safe point. It runs on the
// finalizer goroutine.
func (in *Interpreter) collect(g *Generator) {
	in.mu.Lock()
	in.collected = append(in.collected, g)
	in.mu.Unlock()
	atomic.AddInt32(&in.collectedN, 1)
}

// closeCollected closes the suspended generators whose objects were
// garbage collected, running their finally blocks. Errors leaving those
// blocks have nowhere to go and are logged.
func (in *Interpreter) closeCollected() {
	if in.draining || atomic.LoadInt32(&in.collectedN) == 0 {
		return
	}
	in.mu.Lock()
	pending := in.collected
	in.collected = nil
	atomic.StoreInt32(&in.collectedN, 0)
	in.mu.Unlock()

	in.draining = true
	defer func() { in.draining = false }()
	for _, g := range pending {
		if g.state != GenOpen {
			continue
		}
		if _, err := g.Resume(Message{Kind: MsgClose}); err != nil {
			in.log.Debug("closing collected generator", zap.String("name", g.name()), zap.Error(err))
		}
	}
	in.log.Debug("closed collected generators", zap.Int("count", len(pending)))
}

// State returns the lifecycle state.
func (g *Generator) State() GenState { return g.state }

func (g *Generator) name() string {
	if g.fn.name == "" {
		return "anonymous"
	}
	return g.fn.name
}

// Resume delivers msg to the generator and waits until it yields or
// finishes.
func (g *Generator) Resume(msg Message) (Resumption, error) {
	in := g.in
	switch g.state {
	case GenRunning, GenClosing:
		return Resumption{}, in.throwError("TypeError", jserrors.ErrNestingGenerator, g.name())

	case GenClosed:
		if msg.Kind == MsgThrow {
			return Resumption{}, in.throw(msg.Value)
		}
		return Resumption{Kind: Returned}, nil

	case GenNewborn:
		switch msg.Kind {
		case MsgSend:
			if !msg.Value.IsUndefined() {
				return Resumption{}, in.throwError("TypeError", jserrors.ErrBadGeneratorSend, msg.Value.primitiveString())
			}
		case MsgClose:
			g.state = GenClosed
			in.log.Debug("generator closed before start", zap.String("name", g.name()))
			return Resumption{Kind: Returned}, nil
		case MsgThrow:
			g.state = GenClosed
			return Resumption{}, in.throw(msg.Value)
		}
	}

	if in.depth >= in.maxDepth {
		return Resumption{}, in.throwError("InternalError", jserrors.ErrOverRecursed)
	}
	if g.state == GenNewborn {
		g.start()
	}
	in.depth++
	defer func() { in.depth-- }()

	if msg.Kind == MsgClose {
		g.state = GenClosing
	} else {
		g.state = GenRunning
	}
	pos := in.pos
	g.toGen <- msg
	ev := <-g.fromGen
	in.pos = pos

	if !ev.done {
		g.state = GenOpen
		return Resumption{Kind: Yielded, Value: ev.value}, nil
	}
	g.finish()
	switch {
	case ev.err == nil:
		return Resumption{Kind: Returned, Value: ev.value}, nil
	case ev.err == errGeneratorExit:
		return Resumption{Kind: Returned}, nil
	}
	return Resumption{}, ev.err
}

func (g *Generator) start() {
	g.toGen = make(chan Message)
	g.fromGen = make(chan genEvent)
	g.in.mu.Lock()
	g.in.gens[g] = struct{}{}
	g.in.mu.Unlock()
	g.in.log.Debug("generator started", zap.String("name", g.name()))
	go g.run()
}

func (g *Generator) finish() {
	g.state = GenClosed
	g.in.mu.Lock()
	delete(g.in.gens, g)
	g.in.mu.Unlock()
	g.in.log.Debug("generator finished", zap.String("name", g.name()))
}

// run is the body of the generator goroutine.
func (g *Generator) run() {
	ev := genEvent{}
	defer func() {
		if r := recover(); r != nil {
			ev = genEvent{err: errors.Errorf("generator %s panicked: %v", g.name(), r)}
		}
		ev.done = true
		g.fromGen <- ev
	}()

	<-g.toGen
	c, err := g.in.exec(g.scope, g.body)
	if err != nil {
		ev.err = err
		return
	}
	if c.kind == compReturn {
		ev.value = c.value
	}
}

// yield suspends the generator running in s, handing v to its caller, and
// returns what the caller resumes it with.
func (in *Interpreter) yield(s *Scope, v Value) (Value, error) {
	fs := s.function()
	if fs == nil || fs.fn.gen == nil {
		return Undefined, in.typeError("yield outside of a generator")
	}
	g := fs.fn.gen
	if g.state == GenClosing {
		return Undefined, in.throwError("TypeError", jserrors.ErrBadGeneratorYield, g.name())
	}

	pos := in.pos
	g.fromGen <- genEvent{value: v}
	msg := <-g.toGen
	in.pos = pos

	switch msg.Kind {
	case MsgSend:
		return msg.Value, nil
	case MsgThrow:
		return Undefined, in.throw(msg.Value)
	case MsgClose:
		return Undefined, errGeneratorExit
	}
	return Undefined, nil
}

func thisGenerator(in *Interpreter, this Value, method string) (*Generator, error) {
	if !this.IsObject() || this.obj.gen == nil {
		return nil, in.throwError("TypeError", jserrors.ErrIncompatibleProto, "Generator", method, this.primitiveString())
	}
	return this.obj.gen, nil
}

// generatorMethod implements next, send and throw. A generator that
// finishes throws StopIteration.
func generatorMethod(name string, kind MessageKind) NativeFunc {
	return func(in *Interpreter, this Value, args []Value) (Value, error) {
		g, err := thisGenerator(in, this, name)
		if err != nil {
			return Undefined, err
		}
		r, err := g.Resume(Message{Kind: kind, Value: arg(args, 0)})
		if err != nil {
			return Undefined, err
		}
		if r.Kind == Returned {
			return Undefined, in.throwStopIteration()
		}
		return r.Value, nil
	}
}

func generatorClose(in *Interpreter, this Value, _ []Value) (Value, error) {
	g, err := thisGenerator(in, this, "close")
	if err != nil {
		return Undefined, err
	}
	if _, err := g.Resume(Message{Kind: MsgClose}); err != nil {
		return Undefined, err
	}
	return Undefined, nil
}

func (g *Generator) String() string {
	return fmt.Sprintf("generator %s (%s)", g.name(), g.state)
}
