package definition

import (
	"context"
	"errors"
	"fmt"

	"github.com/anggasct/transit"
)

// Funcs maps the names used in a document to Go functions
type Funcs[T any] struct {
	Bodies        map[string]transit.Body[T]
	Callbacks     map[string]transit.Callback[T]
	Arounds       map[string]transit.AroundCallback[T]
	ErrorHandlers map[string]transit.ErrorCallback[T]
	Kinds         map[string]transit.ErrorKind
}

// Option configures how a document is applied
type Option func(*buildOptions)

type buildOptions struct {
	lenient bool
}

// Lenient skips references to names missing from Funcs instead of failing.
// It is meant for tooling that only needs the machine's shape.
func Lenient() Option {
	return func(o *buildOptions) { o.lenient = true }
}

var builtinKinds = map[string]transit.ErrorKind{
	"any":   transit.AnyError,
	"error": transit.AnyError,
	"panic": transit.KindIs(transit.ErrCallbackPanic),
}

type binder[T any] struct {
	funcs Funcs[T]
	opts  buildOptions
	errs  []error
}

// resolve finds name in table, recording an error unless lenient
func resolve[T, V any](b *binder[T], table map[string]V, what, name string) (V, bool) {
	v, ok := table[name]
	if !ok && !b.opts.lenient {
		b.errs = append(b.errs, fmt.Errorf("%w: %s '%s'", ErrUnknownFunc, what, name))
	}
	return v, ok
}

// callbackKind parses a callback kind. Unknown kinds are recorded even when
// lenient.
func (b *binder[T]) callbackKind(kind, call string) (transit.CallbackKind, bool) {
	k, ok := parseKind(kind)
	if !ok {
		b.errs = append(b.errs, fmt.Errorf("%w: callback '%s' has kind '%s'", ErrInvalidDefinition, call, kind))
	}
	return k, ok
}

func (b *binder[T]) kind(name string) (transit.ErrorKind, bool) {
	if k, ok := b.funcs.Kinds[name]; ok {
		return k, true
	}
	if k, ok := builtinKinds[name]; ok {
		return k, true
	}
	if !b.opts.lenient {
		b.errs = append(b.errs, fmt.Errorf("%w: error kind '%s'", ErrUnknownFunc, name))
	}
	return transit.ErrorKind{}, false
}

func (b *binder[T]) kinds(names []string) []transit.ErrorKind {
	var out []transit.ErrorKind
	for _, name := range names {
		if k, ok := b.kind(name); ok {
			out = append(out, k)
		}
	}
	return out
}

// Configure applies doc to mb. States are registered first so wildcard
// selectors in events and callbacks see all of them. The initial state may
// also appear in the state list.
func Configure[T any](doc *Document, mb *transit.MachineBuilder[T], funcs Funcs[T], opts ...Option) error {
	b := &binder[T]{funcs: funcs}
	for _, opt := range opts {
		opt(&b.opts)
	}

	mb.Initial(doc.Initial.Name, transit.WithStateOptions(doc.Initial.Options))
	for _, s := range doc.States {
		if s.Name == doc.Initial.Name {
			continue
		}
		mb.State(s.Name, transit.WithStateOptions(s.Options))
	}

	for _, ev := range doc.Events {
		mb.Event(ev.Name, func(e *transit.EventBuilder[T]) {
			b.event(e, ev)
		})
	}

	for _, cb := range doc.Callbacks {
		b.machineCallback(mb, cb)
	}
	for _, h := range doc.Errors {
		if k, ok := b.kind(h.Kind); ok {
			if fn, ok := resolve(b, funcs.ErrorHandlers, "error handler", h.Call); ok {
				mb.OnError(k, h.From.Spec(), h.To.Spec(), fn)
			}
		}
	}
	for _, df := range doc.Defuse {
		if kinds := b.kinds(df.Kinds); len(kinds) > 0 {
			mb.Defuse(df.From.Spec(), df.To.Spec(), kinds...)
		}
	}

	return errors.Join(b.errs...)
}

func (b *binder[T]) event(e *transit.EventBuilder[T], ev EventDoc) {
	for _, tr := range ev.Transitions {
		if tr.Body == "" {
			e.Transition(tr.From.Spec(), tr.To)
			continue
		}
		if body, ok := resolve(b, b.funcs.Bodies, "body", tr.Body); ok {
			e.Transition(tr.From.Spec(), tr.To, body)
		} else {
			e.Transition(tr.From.Spec(), tr.To)
		}
	}

	for _, cb := range ev.Callbacks {
		kind, ok := b.callbackKind(cb.Kind, cb.Call)
		if !ok {
			continue
		}
		edgeOpts := edgeOptions(cb.From, cb.To)
		if kind == transit.Around {
			if fn, ok := resolve(b, b.funcs.Arounds, "around callback", cb.Call); ok {
				e.Around(fn, edgeOpts...)
			}
			continue
		}
		fn, ok := resolve(b, b.funcs.Callbacks, "callback", cb.Call)
		if !ok {
			continue
		}
		switch kind {
		case transit.Before:
			e.Before(fn, edgeOpts...)
		case transit.After:
			e.After(fn, edgeOpts...)
		case transit.Success:
			e.OnSuccess(fn, edgeOpts...)
		}
	}

	for _, h := range ev.Errors {
		if k, ok := b.kind(h.Kind); ok {
			if fn, ok := resolve(b, b.funcs.ErrorHandlers, "error handler", h.Call); ok {
				e.OnError(k, fn, edgeOptions(h.From, h.To)...)
			}
		}
	}
	for _, df := range ev.Defuse {
		if kinds := b.kinds(df.Kinds); len(kinds) > 0 {
			e.Defuse(kinds, edgeOptions(df.From, df.To)...)
		}
	}
}

func (b *binder[T]) machineCallback(mb *transit.MachineBuilder[T], cb CallbackDoc) {
	kind, ok := b.callbackKind(cb.Kind, cb.Call)
	if !ok {
		return
	}
	if kind == transit.Around {
		if fn, ok := resolve(b, b.funcs.Arounds, "around callback", cb.Call); ok {
			mb.Around(cb.From.Spec(), cb.To.Spec(), fn)
		}
		return
	}
	fn, ok := resolve(b, b.funcs.Callbacks, "callback", cb.Call)
	if !ok {
		return
	}
	switch kind {
	case transit.Before:
		mb.Before(cb.From.Spec(), cb.To.Spec(), fn)
	case transit.After:
		mb.After(cb.From.Spec(), cb.To.Spec(), fn)
	case transit.Success:
		mb.OnSuccess(cb.From.Spec(), cb.To.Spec(), fn)
	}
}

func edgeOptions(from, to Selector) []transit.EdgeOption {
	var opts []transit.EdgeOption
	if from.IsSet() {
		opts = append(opts, transit.WithFrom(from.Spec()))
	}
	if to.IsSet() {
		opts = append(opts, transit.WithTo(to.Spec()))
	}
	return opts
}

// Build creates a machine from doc using strategy for state access
func Build[T any](doc *Document, funcs Funcs[T], strategy transit.Strategy[T], opts ...Option) (*transit.Machine[T], error) {
	mb := transit.NewMachine[T](doc.Name).WithStrategy(strategy)
	if err := Configure(doc, mb, funcs, opts...); err != nil {
		return nil, err
	}
	return mb.Build()
}

// shape is the stand-in target used when only the machine's structure matters
type shape struct{}

var noStorage = struct {
	transit.GetterFunc[shape]
	transit.SetterFunc[shape]
}{
	GetterFunc: func(context.Context, shape) (string, error) { return "", nil },
	SetterFunc: func(context.Context, shape, *transit.Transition[shape]) (bool, error) { return false, nil },
}

// Graph validates doc as a full machine definition and returns its graph.
// Function names are not resolved.
func Graph(doc *Document) (transit.Graph, error) {
	m, err := Build(doc, Funcs[shape]{}, noStorage, Lenient())
	if err != nil {
		return transit.Graph{}, err
	}
	return m.Graph(), nil
}
