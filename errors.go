package transit

import (
	"errors"
	"fmt"
	"maps"
)

// ErrorCode represents specific error conditions in the state machine
type ErrorCode int

const (
	// No error occurred
	ErrCodeNone ErrorCode = iota
	// A state with the same name was already registered
	ErrCodeStateAlreadyRegistered
	// A second state was flagged as initial
	ErrCodeInitialStateAlreadyDefined
	// An event with the same name was already registered
	ErrCodeEventAlreadyRegistered
	// The (from, to) pair is already used by another transition
	ErrCodeTransitionAlreadyRegistered
	// A transition or callback references an unregistered state
	ErrCodeUnknownState
	// An event finished configuration without any transition
	ErrCodeEventWithoutTransitions
	// A required strategy or setting is missing
	ErrCodeMissingConfiguration
	// The machine was already built and cannot be changed
	ErrCodeMachineSealed
	// No transition is defined for the event from the current state
	ErrCodeTransitionNotDefined
	// The event is not known to the machine or host
	ErrCodeUnknownEvent
	// The transition was halted
	ErrCodeTransitionHalted
	// A callback panicked
	ErrCodeCallbackPanic
	// A machine with the same name is already attached to the host
	ErrCodeMachineAlreadyAttached
)

func (c ErrorCode) String() string {
	switch c {
	case ErrCodeNone:
		return "none"
	case ErrCodeStateAlreadyRegistered:
		return "state_already_registered"
	case ErrCodeInitialStateAlreadyDefined:
		return "initial_state_already_defined"
	case ErrCodeEventAlreadyRegistered:
		return "event_already_registered"
	case ErrCodeTransitionAlreadyRegistered:
		return "transition_already_registered"
	case ErrCodeUnknownState:
		return "unknown_state"
	case ErrCodeEventWithoutTransitions:
		return "event_without_transitions"
	case ErrCodeMissingConfiguration:
		return "missing_configuration"
	case ErrCodeMachineSealed:
		return "machine_sealed"
	case ErrCodeTransitionNotDefined:
		return "transition_not_defined"
	case ErrCodeUnknownEvent:
		return "unknown_event"
	case ErrCodeTransitionHalted:
		return "transition_halted"
	case ErrCodeCallbackPanic:
		return "callback_panic"
	case ErrCodeMachineAlreadyAttached:
		return "machine_already_attached"
	default:
		return fmt.Sprintf("code(%d)", int(c))
	}
}

// Sentinel errors. Every typed error in this package unwraps to one of them,
// so errors.Is works regardless of the concrete type.
var (
	ErrStateAlreadyRegistered      = errors.New("state already registered")
	ErrInitialStateAlreadyDefined  = errors.New("initial state already defined")
	ErrEventAlreadyRegistered      = errors.New("event already registered")
	ErrTransitionAlreadyRegistered = errors.New("transition already registered")
	ErrUnknownState                = errors.New("unknown state")
	ErrEventWithoutTransitions     = errors.New("event without transitions")
	ErrMissingConfiguration        = errors.New("missing configuration")
	ErrMachineSealed               = errors.New("machine already built")
	ErrTransitionNotDefined        = errors.New("transition not defined")
	ErrUnknownEvent                = errors.New("unknown event")
	ErrTransitionHalted            = errors.New("transition halted")
	ErrCallbackPanic               = errors.New("callback panicked")
	ErrMachineAlreadyAttached      = errors.New("machine already attached")
)

var sentinels = map[ErrorCode]error{
	ErrCodeStateAlreadyRegistered:      ErrStateAlreadyRegistered,
	ErrCodeInitialStateAlreadyDefined:  ErrInitialStateAlreadyDefined,
	ErrCodeEventAlreadyRegistered:      ErrEventAlreadyRegistered,
	ErrCodeTransitionAlreadyRegistered: ErrTransitionAlreadyRegistered,
	ErrCodeUnknownState:                ErrUnknownState,
	ErrCodeEventWithoutTransitions:     ErrEventWithoutTransitions,
	ErrCodeMissingConfiguration:        ErrMissingConfiguration,
	ErrCodeMachineSealed:               ErrMachineSealed,
	ErrCodeTransitionNotDefined:        ErrTransitionNotDefined,
	ErrCodeUnknownEvent:                ErrUnknownEvent,
	ErrCodeTransitionHalted:            ErrTransitionHalted,
	ErrCodeCallbackPanic:               ErrCallbackPanic,
	ErrCodeMachineAlreadyAttached:      ErrMachineAlreadyAttached,
}

// ConfigurationError represents a definition error raised while a machine is
// being configured. These are never recoverable at runtime.
type ConfigurationError struct {
	Code      ErrorCode
	Machine   string
	Component string
	Issue     string
}

func (e *ConfigurationError) Error() string {
	if e.Machine == "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Issue)
	}
	return fmt.Sprintf("configuration error in %s of machine '%s': %s", e.Component, e.Machine, e.Issue)
}

func (e *ConfigurationError) Unwrap() error {
	return sentinels[e.Code]
}

// NewConfigurationError creates a new configuration error
func NewConfigurationError(code ErrorCode, machine, component, issue string) *ConfigurationError {
	return &ConfigurationError{
		Code:      code,
		Machine:   machine,
		Component: component,
		Issue:     issue,
	}
}

// NewStateAlreadyRegisteredError creates a duplicate state error
func NewStateAlreadyRegisteredError(machine, state string) *ConfigurationError {
	return NewConfigurationError(ErrCodeStateAlreadyRegistered, machine, "states",
		fmt.Sprintf("a state with the name '%s' was already registered", state))
}

// NewInitialStateAlreadyDefinedError creates an error for a second initial state
func NewInitialStateAlreadyDefinedError(machine, existing, state string) *ConfigurationError {
	return NewConfigurationError(ErrCodeInitialStateAlreadyDefined, machine, "states",
		fmt.Sprintf("cannot mark '%s' as initial: '%s' was already set as the initial state", state, existing))
}

// NewEventAlreadyRegisteredError creates a duplicate event error
func NewEventAlreadyRegisteredError(machine, event string) *ConfigurationError {
	return NewConfigurationError(ErrCodeEventAlreadyRegistered, machine, "events",
		fmt.Sprintf("an event with the name '%s' was already registered", event))
}

// NewTransitionAlreadyRegisteredError creates a duplicate edge error
func NewTransitionAlreadyRegisteredError(machine, from, to string) *ConfigurationError {
	return NewConfigurationError(ErrCodeTransitionAlreadyRegistered, machine, "transitions",
		fmt.Sprintf("a transition from '%s' to '%s' was already registered", from, to))
}

// NewUnknownStateError creates an error for a reference to an unregistered state
func NewUnknownStateError(machine, state string) *ConfigurationError {
	return NewConfigurationError(ErrCodeUnknownState, machine, "states",
		fmt.Sprintf("no state with the name '%s' registered", state))
}

// NewEventWithoutTransitionsError creates an error for an event with no edges
func NewEventWithoutTransitionsError(machine, event string) *ConfigurationError {
	return NewConfigurationError(ErrCodeEventWithoutTransitions, machine, "events",
		fmt.Sprintf("no transitions for event '%s' defined", event))
}

// TransitionError represents a runtime failure to resolve a transition
type TransitionError struct {
	Code    ErrorCode
	Machine string
	Event   string
	From    string
	Reason  string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("transition error [%s on %s]: %s", e.From, e.Event, e.Reason)
}

func (e *TransitionError) Unwrap() error {
	return sentinels[e.Code]
}

// NewTransitionNotDefinedError creates an error for an event that has no edge
// from the current state
func NewTransitionNotDefinedError(machine, event, from string) *TransitionError {
	return &TransitionError{
		Code:    ErrCodeTransitionNotDefined,
		Machine: machine,
		Event:   event,
		From:    from,
		Reason:  fmt.Sprintf("no transition found from state '%s' for event '%s'", from, event),
	}
}

// NewUnknownEventError creates an error for an event that was never registered
func NewUnknownEventError(machine, event string) *TransitionError {
	return &TransitionError{
		Code:    ErrCodeUnknownEvent,
		Machine: machine,
		Event:   event,
		Reason:  fmt.Sprintf("event '%s' is not registered", event),
	}
}

// TransitionHalted is the control-flow signal used to abort an in-flight
// transition. It is not a bug: Fire reports it through Result.Halted while
// FireStrict returns it as an error.
type TransitionHalted struct {
	Event   string
	From    string
	To      string
	Reason  string
	Options map[string]any
}

func (e *TransitionHalted) Error() string {
	msg := "transition halted"
	if e.Event != "" {
		msg = fmt.Sprintf("transition %s->%s on %s halted", e.From, e.To, e.Event)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *TransitionHalted) Unwrap() error {
	return ErrTransitionHalted
}

// Option returns a value from the halt payload
func (e *TransitionHalted) Option(key string) (any, bool) {
	v, ok := e.Options[key]
	return v, ok
}

// Halt returns a halt signal. Return it from a before, around or after
// callback, or from a transition body, to abort the transition.
func Halt(reason string) error {
	return &TransitionHalted{Reason: reason}
}

// HaltWith returns a halt signal carrying a diagnostic payload
func HaltWith(reason string, options map[string]any) error {
	return &TransitionHalted{Reason: reason, Options: maps.Clone(options)}
}

// CallbackPanicError wraps a panic recovered from a user callback
type CallbackPanicError struct {
	Callback string
	Event    string
	Value    any
}

func (e *CallbackPanicError) Error() string {
	return fmt.Sprintf("%s callback panicked during '%s': %v", e.Callback, e.Event, e.Value)
}

func (e *CallbackPanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return errors.Join(ErrCallbackPanic, err)
	}
	return ErrCallbackPanic
}

// IsConfigurationError checks if an error is a ConfigurationError
func IsConfigurationError(err error) bool {
	var e *ConfigurationError
	return errors.As(err, &e)
}

// IsTransitionError checks if an error is a TransitionError
func IsTransitionError(err error) bool {
	var e *TransitionError
	return errors.As(err, &e)
}

// IsTransitionNotDefined checks if no edge existed for the current state
func IsTransitionNotDefined(err error) bool {
	return errors.Is(err, ErrTransitionNotDefined)
}

// IsHalted checks if an error is a halt signal
func IsHalted(err error) bool {
	var e *TransitionHalted
	return errors.As(err, &e)
}

// AsHalted extracts the halt signal from err
func AsHalted(err error) (*TransitionHalted, bool) {
	var e *TransitionHalted
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsCallbackPanic checks if an error was produced by a recovered panic
func IsCallbackPanic(err error) bool {
	var e *CallbackPanicError
	return errors.As(err, &e)
}

// GetErrorCode returns the error code for known error types
func GetErrorCode(err error) ErrorCode {
	var (
		cfg  *ConfigurationError
		tr   *TransitionError
		halt *TransitionHalted
		cbp  *CallbackPanicError
	)
	switch {
	case errors.As(err, &cfg):
		return cfg.Code
	case errors.As(err, &tr):
		return tr.Code
	case errors.As(err, &halt):
		return ErrCodeTransitionHalted
	case errors.As(err, &cbp):
		return ErrCodeCallbackPanic
	default:
		return ErrCodeNone
	}
}
