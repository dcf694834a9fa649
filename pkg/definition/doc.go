// Package definition builds transit machines from YAML documents. The
// document declares states, events, transitions and callback wiring by name;
// the Go functions behind those names are supplied through Funcs.
//
//	name: order
//	initial: received
//	states: [processed, accepted, rejected]
//	events:
//	  - name: process
//	    transitions:
//	      - {from: received, to: processed, body: charge}
//	  - name: reject
//	    transitions:
//	      - {from: {except: [accepted, rejected]}, to: rejected}
//	callbacks:
//	  - {kind: before, from: "*", to: "*", call: audit}
//	defuse:
//	  - {from: received, to: processed, kinds: [gateway_timeout]}
//
// A state selector is a single name, a list of names, "*" for every state,
// or a mapping {except: [...]}.
package definition
