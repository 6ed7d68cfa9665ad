// Package flow is the typed port/node dataflow engine.
//
// A Node owns a fixed set of Input and Output ports. Every Output is defined
// by a Derive: a pure function of the latest values of one or more of the
// node's Inputs (Map, Combine) or an external call whose result is pushed
// later (Async). Connecting an Output to an Input subscribes the Input to the
// Output, so a change anywhere propagates downstream.
//
// # Propagation
//
// All nodes that may be connected share one Runtime. A value entering the
// graph (Input.Next, a connection delivering the current value, an async
// completion) starts a wave: dependent derivations are queued and run in
// ascending node rank until the queue is empty, before the originating call
// returns. A node reached through several paths in one wave recomputes once,
// after every upstream output has settled.
//
// The runtime is single threaded by contract. Callers on more than one
// goroutine go through Runtime.Do, which serializes access to every port of
// every node bound to the runtime. Async completions re-enter the same way.
//
// # Errors
//
// A derivation that fails, panics or produces a value outside its output
// schema publishes a *DerivationError event on that output only; the output
// keeps its last good value and downstream inputs ignore the event. Async
// failures publish an *ExternalServiceError the same way.
package flow
