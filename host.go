package transit

import (
	"context"
	"fmt"
)

// binding is a machine attached to a host type, with the target resolution
// that maps a host value to the machine's target
type binding[H any] interface {
	machineName() string
	eventNames() []string
	fire(ctx context.Context, host H, event string, strict bool, opts []FireOption) (Result, error)
	can(ctx context.Context, host H, event string) (bool, error)
	current(ctx context.Context, host H) (State, error)
}

type attached[H, T any] struct {
	machine *Machine[T]
	resolve func(H) T
}

func (a *attached[H, T]) machineName() string  { return a.machine.Name() }
func (a *attached[H, T]) eventNames() []string { return a.machine.EventNames() }

func (a *attached[H, T]) fire(ctx context.Context, host H, event string, strict bool, opts []FireOption) (Result, error) {
	return a.machine.fire(ctx, a.resolve(host), event, strict, opts)
}

func (a *attached[H, T]) can(ctx context.Context, host H, event string) (bool, error) {
	return a.machine.Can(ctx, a.resolve(host), event)
}

func (a *attached[H, T]) current(ctx context.Context, host H) (State, error) {
	return a.machine.Current(ctx, a.resolve(host))
}

// Host groups the named machines of one host type. All machines share a
// single event namespace, so an event name dispatches to exactly one machine.
type Host[H any] struct {
	name     string
	machines map[string]binding[H]
	order    []string
	dispatch map[string]binding[H]
}

// NewHost creates an empty host definition
func NewHost[H any](name string) *Host[H] {
	return &Host[H]{
		name:     name,
		machines: make(map[string]binding[H]),
		dispatch: make(map[string]binding[H]),
	}
}

// Attach binds m to the host. resolve maps a host value to the machine's
// target; pass an identity function when the host is the target. Attaching
// fails when the machine name or any of its event names is already taken.
func Attach[H, T any](h *Host[H], m *Machine[T], resolve func(H) T) error {
	if m == nil || resolve == nil {
		return NewConfigurationError(ErrCodeMissingConfiguration, h.name, "machines", "machine and target resolver are required")
	}
	if _, exists := h.machines[m.Name()]; exists {
		return NewConfigurationError(ErrCodeMachineAlreadyAttached, h.name, "machines",
			fmt.Sprintf("machine '%s' is already attached", m.Name()))
	}
	for _, event := range m.EventNames() {
		if owner, exists := h.dispatch[event]; exists {
			return NewConfigurationError(ErrCodeEventAlreadyRegistered, h.name, "events",
				fmt.Sprintf("event '%s' of machine '%s' is already defined by machine '%s'", event, m.Name(), owner.machineName()))
		}
	}

	b := &attached[H, T]{machine: m, resolve: resolve}
	h.machines[m.Name()] = b
	h.order = append(h.order, m.Name())
	for _, event := range m.EventNames() {
		h.dispatch[event] = b
	}
	return nil
}

// Name returns the host name
func (h *Host[H]) Name() string {
	return h.name
}

// Machines returns the attached machine names in attach order
func (h *Host[H]) Machines() []string {
	out := make([]string, len(h.order))
	copy(out, h.order)
	return out
}

// Events returns every event name across all attached machines
func (h *Host[H]) Events() []string {
	var out []string
	for _, name := range h.order {
		out = append(out, h.machines[name].eventNames()...)
	}
	return out
}

// MachineFor returns the name of the machine that owns event
func (h *Host[H]) MachineFor(event string) (string, bool) {
	b, ok := h.dispatch[event]
	if !ok {
		return "", false
	}
	return b.machineName(), true
}

func (h *Host[H]) lookup(event string) (binding[H], error) {
	b, ok := h.dispatch[event]
	if !ok {
		return nil, NewUnknownEventError(h.name, event)
	}
	return b, nil
}

// Fire dispatches event to the machine that owns it. See Machine.Fire.
func (h *Host[H]) Fire(ctx context.Context, host H, event string, opts ...FireOption) (Result, error) {
	b, err := h.lookup(event)
	if err != nil {
		return Result{Event: event}, err
	}
	return b.fire(ctx, host, event, false, opts)
}

// FireStrict dispatches event to the machine that owns it. See Machine.FireStrict.
func (h *Host[H]) FireStrict(ctx context.Context, host H, event string, opts ...FireOption) (Result, error) {
	b, err := h.lookup(event)
	if err != nil {
		return Result{Event: event}, err
	}
	return b.fire(ctx, host, event, true, opts)
}

// Can reports whether event can fire on host
func (h *Host[H]) Can(ctx context.Context, host H, event string) (bool, error) {
	b, err := h.lookup(event)
	if err != nil {
		return false, err
	}
	return b.can(ctx, host, event)
}

// Current returns the current state of host in the named machine
func (h *Host[H]) Current(ctx context.Context, host H, machine string) (State, error) {
	b, ok := h.machines[machine]
	if !ok {
		return State{}, NewConfigurationError(ErrCodeMissingConfiguration, h.name, "machines",
			fmt.Sprintf("machine '%s' is not attached", machine))
	}
	return b.current(ctx, host)
}
