package transit

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrorKind is a type tag used by error callbacks and defuse rules. A kind
// matches an error when the error "is a" member of the kind: KindOf matches
// through errors.As, so a kind built from an interface type acts as the
// ancestor of every error type implementing it.
type ErrorKind struct {
	name  string
	match func(error) bool
}

// KindOf returns the kind of errors assignable to E anywhere in the chain
func KindOf[E error]() ErrorKind {
	return ErrorKind{
		name: reflect.TypeFor[E]().String(),
		match: func(err error) bool {
			var target E
			return errors.As(err, &target)
		},
	}
}

// KindIs returns the kind of errors for which errors.Is(err, target) holds
func KindIs(target error) ErrorKind {
	return ErrorKind{
		name: fmt.Sprintf("is(%v)", target),
		match: func(err error) bool {
			return errors.Is(err, target)
		},
	}
}

// KindFunc returns a kind backed by an arbitrary predicate
func KindFunc(name string, match func(error) bool) ErrorKind {
	return ErrorKind{name: name, match: match}
}

// AnyError matches every non-nil error
var AnyError = ErrorKind{
	name:  "error",
	match: func(err error) bool { return err != nil },
}

// Matches reports whether err belongs to the kind
func (k ErrorKind) Matches(err error) bool {
	if err == nil || k.match == nil {
		return false
	}
	return k.match(err)
}

// Name returns the kind identifier
func (k ErrorKind) Name() string {
	return k.name
}

func (k ErrorKind) String() string {
	return k.name
}
