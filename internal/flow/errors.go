package flow

import (
	"errors"
	"fmt"
)

// IncompatibleTypeError is returned when an output's schema cannot feed an
// input's schema.
type IncompatibleTypeError struct {
	Output     string
	Input      string
	OutputType string
	InputType  string
}

func (e *IncompatibleTypeError) Error() string {
	return fmt.Sprintf("cannot connect %s (%s) to %s (%s): incompatible types", e.Output, e.OutputType, e.Input, e.InputType)
}

// AlreadyConnectedError is returned when an input already has a source.
// Inputs accept at most one incoming edge.
type AlreadyConnectedError struct {
	Input  string
	Source string
}

func (e *AlreadyConnectedError) Error() string {
	return fmt.Sprintf("input %s is already connected to %s", e.Input, e.Source)
}

// CycleError is returned when a connection would make the graph cyclic.
type CycleError struct {
	Output string
	Input  string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("connecting %s to %s would create a cycle", e.Output, e.Input)
}

// DerivationError is published on an output whose derivation failed for the
// current input values.
type DerivationError struct {
	Node   string
	Output string
	Err    error
}

func (e *DerivationError) Error() string {
	return fmt.Sprintf("node %s output %q: derivation failed: %v", e.Node, e.Output, e.Err)
}

func (e *DerivationError) Unwrap() error {
	return e.Err
}

// ExternalServiceError is published on an async output whose external call
// failed. The output keeps its previous value.
type ExternalServiceError struct {
	Node   string
	Output string
	Err    error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("node %s output %q: external service failed: %v", e.Node, e.Output, e.Err)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}

var (
	errNilPort        = errors.New("port is nil")
	errForeignRuntime = errors.New("ports belong to different runtimes")
	errClosedPort     = errors.New("port belongs to a removed node")
)
