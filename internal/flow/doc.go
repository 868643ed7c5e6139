// Package flow sequences the screens of the homeserver setup wizard.
//
// The package is a pure lookup: given the current Screen, a navigation Action
// and the Context of previous answers, Next returns the Screen to display.
// It performs no I/O and keeps no state of its own.
//
// # Screen Flow
//
//	intro → server-name → stats-report → key-export → delegation-options
//	delegation-options ─ local ──────────────────────────────→ tls
//	                   └ dns | well_known → delegation-server-name
//	                                      → delegation-port-selection → tls
//	tls ─ acme | none ──→ port-selection
//	    ├ tls ──────────→ tls-certpath ──→ port-selection
//	    └ reverse_proxy → reverse-proxy ─→ port-selection
//	port-selection ─ reverse proxy ──→ reverse-proxy-template
//	               ├ delegated ──────→ delegation-template
//	               └ otherwise ──────→ database
//
// Back is defined for stats-report, key-export, delegation-options,
// well-known and dns. Everywhere else it leaves the screen unchanged.
//
// # State
//
// Callers that do not want to track the context themselves can use State:
//
//	s := flow.NewState()
//	s = s.Apply(flow.Advance())                                // server-name
//	...
//	s = s.Apply(flow.AdvanceDelegation(flow.DelegationLocal))  // tls
//	s = s.Apply(flow.AdvanceTLS(flow.TLSNone))                 // port-selection
//
// Apply copies the option carried by Advance into the context before routing,
// so later branches (port-selection, reverse-proxy-template) see it.
package flow
