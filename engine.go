package transit

import (
	"context"
	"fmt"
	"time"

	"github.com/anggasct/transit/pkg/logger"
)

// Result represents the outcome of one event invocation
type Result struct {
	TransitionID string
	Event        string
	From         string
	To           string
	// Value is the persistence result, or the error handler's return value
	// when an error was handled
	Value any
	// Persisted reports whether the destination state was written and kept.
	// After a failure it stays true only when no Transactor rolled the write
	// back and no StateReverter undid it.
	Persisted bool
	Halted    bool
	Halt      *TransitionHalted
	Defused   bool
	Handled   bool
	// Err is the error that was defused or handled instead of returned
	Err error
}

// OK reports whether the invocation was not halted
func (r Result) OK() bool {
	return !r.Halted
}

// execution drives the pipeline of one invocation. It lives on the caller's
// stack and is discarded when the call returns.
type execution[T any] struct {
	m       *Machine[T]
	t       *Transition[T]
	edge    Edge
	defused error
	started time.Time
}

func newExecution[T any](m *Machine[T], t *Transition[T]) *execution[T] {
	return &execution[T]{
		m:       m,
		t:       t,
		edge:    t.Edge(),
		started: time.Now(),
	}
}

func (x *execution[T]) info() TransitionInfo {
	info := x.t.info()
	info.Duration = time.Since(x.started)
	return info
}

func (x *execution[T]) result() Result {
	return Result{
		TransitionID: x.t.id,
		Event:        x.t.event,
		From:         x.t.from.Name,
		To:           x.t.to.Name,
		Value:        x.t.result,
		Persisted:    x.t.persisted,
	}
}

// kept reports whether a written state survives the failure path
func (x *execution[T]) kept() bool {
	return x.t.persisted && x.m.transactor == nil && x.m.reverter == nil
}

func (x *execution[T]) logAttrs(extra ...any) []any {
	attrs := []any{
		logger.Machine(x.m.name),
		logger.Event(x.t.event),
		logger.Edge(x.t.from.Name, x.t.to.Name),
		logger.TransitionID(x.t.id),
	}
	return append(attrs, extra...)
}

// run executes the pipeline and applies the failure policy
func (x *execution[T]) run(ctx context.Context) (Result, error) {
	ctx = withScope(ctx, scope{machine: x.m.name, event: x.t.event, id: x.t.id})
	x.m.observers.NotifyTransitionStart(ctx, x.info())

	err := x.transact(ctx)
	if err == nil {
		if x.defused != nil {
			return x.defuse(ctx)
		}
		return x.succeed(ctx)
	}
	if halt, ok := AsHalted(err); ok {
		return x.halt(ctx, halt)
	}
	return x.fail(ctx, err)
}

// transact runs the inner stages, inside the host's unit of work if it has one
func (x *execution[T]) transact(ctx context.Context) error {
	if x.m.transactor == nil {
		return x.stages(ctx)
	}
	return x.m.transactor.InTransaction(ctx, x.t.target, x.stages)
}

// stages runs before, around and after. A defused error is recorded and
// swallowed here so the unit of work commits what already happened.
func (x *execution[T]) stages(ctx context.Context) error {
	err := x.pipeline(ctx)
	if err == nil {
		return nil
	}
	if x.m.defuse.Defuses(err, x.edge) {
		x.defused = err
		return nil
	}
	return err
}

func (x *execution[T]) pipeline(ctx context.Context) error {
	t := x.t

	t.phase = PhaseBeforeRun
	for i, cb := range x.m.callbacks.Resolve(x.edge, Before) {
		if err := x.guard(fmt.Sprintf("before[%d]", i), func() error { return cb(ctx, t) }); err != nil {
			return err
		}
	}

	if err := x.chain(ctx)(); err != nil {
		return err
	}
	if !t.persisted {
		return t.Halt("around callback did not continue")
	}

	t.phase = PhaseAfterRun
	for i, cb := range x.m.callbacks.Resolve(x.edge, After) {
		if err := x.guard(fmt.Sprintf("after[%d]", i), func() error { return cb(ctx, t) }); err != nil {
			return err
		}
	}
	return nil
}

// chain composes the around callbacks so the first registered is outermost
// and the core step is innermost
func (x *execution[T]) chain(ctx context.Context) func() error {
	next := func() error { return x.core(ctx) }

	arounds := x.m.callbacks.Around(x.edge)
	for i := len(arounds) - 1; i >= 0; i-- {
		cb, inner, name := arounds[i], next, fmt.Sprintf("around[%d]", i)
		next = func() error {
			return x.guard(name, func() error { return cb(ctx, x.t, inner) })
		}
	}
	return next
}

// core runs the body and persists the destination state
func (x *execution[T]) core(ctx context.Context) error {
	t := x.t

	t.phase = PhaseBodyRunning
	if t.body != nil {
		if err := x.guard("body", func() error { return t.body(ctx, t) }); err != nil {
			return err
		}
	}

	t.phase = PhasePersisting
	if t.strict && x.m.strictSetter != nil {
		if err := x.guard("set_state", func() error { return x.m.strictSetter.SetStateStrict(ctx, t.target, t) }); err != nil {
			return err
		}
		t.persisted, t.result = true, true
		return nil
	}

	var ok bool
	err := x.guard("set_state", func() error {
		var err error
		ok, err = x.m.setter.SetState(ctx, t.target, t)
		return err
	})
	if err != nil {
		return err
	}
	if !ok {
		return t.Halt("state was not persisted")
	}
	t.persisted, t.result = true, true
	return nil
}

func (x *execution[T]) succeed(ctx context.Context) (Result, error) {
	t := x.t
	for i, cb := range x.m.callbacks.Resolve(x.edge, Success) {
		if err := x.guard(fmt.Sprintf("success[%d]", i), func() error { return cb(ctx, t) }); err != nil {
			x.m.logger.DebugContext(ctx, "success callback failed", x.logAttrs(logger.Error(err))...)
			x.m.observers.NotifyError(ctx, x.info(), err, false)
			return x.result(), err
		}
	}

	t.phase = PhaseSucceeded
	x.m.observers.NotifyTransition(ctx, x.info())
	return x.result(), nil
}

func (x *execution[T]) defuse(ctx context.Context) (Result, error) {
	t, err := x.t, x.defused

	x.m.logger.DebugContext(ctx, "error defused", x.logAttrs(logger.Error(err))...)
	x.m.observers.NotifyDefuse(ctx, x.info(), err)

	res := x.result()
	res.Defused, res.Err = true, err
	if handler, ok := x.m.errorCallbacks.Resolve(err, x.edge); ok {
		value, herr := x.handle(ctx, handler, err)
		if herr != nil {
			return x.raise(ctx, herr)
		}
		t.result = value
		res.Value, res.Handled = value, true
	}

	t.phase = PhaseSucceeded
	if t.persisted {
		x.m.observers.NotifyTransition(ctx, x.info())
	}
	return res, nil
}

func (x *execution[T]) halt(ctx context.Context, halt *TransitionHalted) (Result, error) {
	t := x.t
	t.phase = PhaseHalted
	x.revert(ctx)

	x.m.logger.DebugContext(ctx, "transition halted", x.logAttrs(logger.Reason(halt.Reason))...)
	x.m.observers.NotifyHalt(ctx, x.info(), halt)

	res := x.result()
	res.Halted, res.Halt, res.Persisted = true, halt, x.kept()
	if t.strict {
		return res, halt
	}
	return res, nil
}

// fail gives a matching error handler the chance to replace err, otherwise
// err is returned unchanged
func (x *execution[T]) fail(ctx context.Context, err error) (Result, error) {
	handler, ok := x.m.errorCallbacks.Resolve(err, x.edge)
	if !ok {
		return x.raise(ctx, err)
	}

	value, herr := x.handle(ctx, handler, err)
	if herr != nil {
		return x.raise(ctx, herr)
	}

	t := x.t
	t.phase = PhaseFailed
	t.result = value
	x.revert(ctx)

	x.m.logger.DebugContext(ctx, "error handled", x.logAttrs(logger.Error(err))...)
	x.m.observers.NotifyError(ctx, x.info(), err, true)

	res := x.result()
	res.Value, res.Handled, res.Err, res.Persisted = value, true, err, x.kept()
	return res, nil
}

func (x *execution[T]) raise(ctx context.Context, err error) (Result, error) {
	if halt, ok := AsHalted(err); ok {
		return x.halt(ctx, halt)
	}

	x.t.phase = PhaseFailed
	x.revert(ctx)

	x.m.logger.DebugContext(ctx, "transition failed", x.logAttrs(logger.Error(err))...)
	x.m.observers.NotifyError(ctx, x.info(), err, false)

	res := x.result()
	res.Persisted = x.kept()
	return res, err
}

func (x *execution[T]) handle(ctx context.Context, handler ErrorCallback[T], err error) (value any, herr error) {
	herr = x.guard("on_error", func() error {
		var e error
		value, e = handler(ctx, x.t, err)
		return e
	})
	return value, herr
}

func (x *execution[T]) revert(ctx context.Context) {
	if x.m.reverter == nil {
		return
	}
	_ = x.guard("revert_state", func() error {
		x.m.reverter.RevertState(ctx, x.t.target, x.t)
		return nil
	})
	x.m.logger.DebugContext(ctx, "state reverted", x.logAttrs()...)
}

// guard executes fn with panic recovery
func (x *execution[T]) guard(name string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &CallbackPanicError{Callback: name, Event: x.t.event, Value: r}
		}
	}()

	err = fn()
	return err
}
