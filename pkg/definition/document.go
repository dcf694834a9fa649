package definition

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/anggasct/transit"
)

// Document is the YAML shape of a machine
type Document struct {
	Name      string        `yaml:"name"`
	Initial   StateDoc      `yaml:"initial"`
	States    []StateDoc    `yaml:"states"`
	Events    []EventDoc    `yaml:"events"`
	Callbacks []CallbackDoc `yaml:"callbacks,omitempty"`
	Errors    []ErrorDoc    `yaml:"errors,omitempty"`
	Defuse    []DefuseDoc   `yaml:"defuse,omitempty"`
}

// StateDoc is a state given either as a bare name or as a mapping with options
type StateDoc struct {
	Name    string         `yaml:"name"`
	Options map[string]any `yaml:"options,omitempty"`
}

func (s *StateDoc) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		s.Name = value.Value
		return nil
	}
	type plain StateDoc
	return value.Decode((*plain)(s))
}

// EventDoc declares one event
type EventDoc struct {
	Name        string          `yaml:"name"`
	Transitions []TransitionDoc `yaml:"transitions"`
	Callbacks   []CallbackDoc   `yaml:"callbacks,omitempty"`
	Errors      []ErrorDoc      `yaml:"errors,omitempty"`
	Defuse      []DefuseDoc     `yaml:"defuse,omitempty"`
}

// TransitionDoc declares the edges of an event sharing one destination
type TransitionDoc struct {
	From Selector `yaml:"from"`
	To   string   `yaml:"to"`
	Body string   `yaml:"body,omitempty"`
}

// CallbackDoc wires a named callback to edges. On an event, From and To
// narrow the event's own edges and may be omitted.
type CallbackDoc struct {
	Kind string   `yaml:"kind"`
	From Selector `yaml:"from,omitempty"`
	To   Selector `yaml:"to,omitempty"`
	Call string   `yaml:"call"`
}

// ErrorDoc wires a named error handler for a named error kind
type ErrorDoc struct {
	Kind string   `yaml:"kind"`
	From Selector `yaml:"from,omitempty"`
	To   Selector `yaml:"to,omitempty"`
	Call string   `yaml:"call"`
}

// DefuseDoc lists the named error kinds swallowed on edges
type DefuseDoc struct {
	From  Selector `yaml:"from,omitempty"`
	To    Selector `yaml:"to,omitempty"`
	Kinds []string `yaml:"kinds"`
}

// Selector is the YAML form of a transit.StateSpec
type Selector struct {
	spec transit.StateSpec
}

// Spec returns the selected states
func (s Selector) Spec() transit.StateSpec {
	return s.spec
}

// IsSet reports whether the selector appeared in the document
func (s Selector) IsSet() bool {
	return s.spec.IsSet()
}

func (s *Selector) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Value == "*" {
			s.spec = transit.AnyState()
		} else {
			s.spec = transit.States(value.Value)
		}
		return nil
	case yaml.SequenceNode:
		var names []string
		if err := value.Decode(&names); err != nil {
			return err
		}
		s.spec = transit.States(names...)
		return nil
	case yaml.MappingNode:
		var m struct {
			Except []string `yaml:"except"`
		}
		if err := value.Decode(&m); err != nil {
			return err
		}
		s.spec = transit.AllStatesExcept(m.Except...)
		return nil
	default:
		return fmt.Errorf("line %d: state selector must be a name, a list or {except: [...]}", value.Line)
	}
}

// Parse decodes a YAML document and checks its shape
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Join(ErrFailedToParseYAML, err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Load reads and parses a YAML file
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read definition: %w", err)
	}
	return Parse(data)
}

// Validate checks what the builder cannot: required fields and callback kinds
func (d *Document) Validate() error {
	var errs []error
	if d.Name == "" {
		errs = append(errs, fmt.Errorf("%w: name is required", ErrInvalidDefinition))
	}
	if d.Initial.Name == "" {
		errs = append(errs, fmt.Errorf("%w: initial state is required", ErrInvalidDefinition))
	}
	for _, ev := range d.Events {
		if ev.Name == "" {
			errs = append(errs, fmt.Errorf("%w: event without name", ErrInvalidDefinition))
		}
		for _, tr := range ev.Transitions {
			if !tr.From.IsSet() || tr.To == "" {
				errs = append(errs, fmt.Errorf("%w: event '%s' has a transition without from or to", ErrInvalidDefinition, ev.Name))
			}
		}
		for _, cb := range ev.Callbacks {
			if _, ok := parseKind(cb.Kind); !ok {
				errs = append(errs, fmt.Errorf("%w: event '%s' has callback kind '%s'", ErrInvalidDefinition, ev.Name, cb.Kind))
			}
		}
	}
	for _, cb := range d.Callbacks {
		if _, ok := parseKind(cb.Kind); !ok {
			errs = append(errs, fmt.Errorf("%w: unknown callback kind '%s'", ErrInvalidDefinition, cb.Kind))
		}
		if !cb.From.IsSet() || !cb.To.IsSet() {
			errs = append(errs, fmt.Errorf("%w: machine callback '%s' needs from and to", ErrInvalidDefinition, cb.Call))
		}
	}
	for _, e := range d.Errors {
		if !e.From.IsSet() || !e.To.IsSet() {
			errs = append(errs, fmt.Errorf("%w: machine error handler '%s' needs from and to", ErrInvalidDefinition, e.Call))
		}
	}
	for _, df := range d.Defuse {
		if !df.From.IsSet() || !df.To.IsSet() {
			errs = append(errs, fmt.Errorf("%w: machine defuse rule needs from and to", ErrInvalidDefinition))
		}
	}
	return errors.Join(errs...)
}

func parseKind(kind string) (transit.CallbackKind, bool) {
	switch kind {
	case "before":
		return transit.Before, true
	case "after":
		return transit.After, true
	case "around":
		return transit.Around, true
	case "success", "on_success":
		return transit.Success, true
	default:
		return 0, false
	}
}
