package flow

import (
	"context"
	"fmt"

	"github.com/vk/circuitgo/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// Derive describes how one output is computed from the node's inputs. The
// function receives the latest values of the listed inputs, in order.
type Derive struct {
	inputs []string
	fn     func(ctx context.Context, args []cty.Value) (cty.Value, error)
	async  bool
}

// Map derives an output from a single input.
func Map(input string, fn func(cty.Value) (cty.Value, error)) Derive {
	return Derive{
		inputs: []string{input},
		fn: func(_ context.Context, args []cty.Value) (cty.Value, error) {
			return fn(args[0])
		},
	}
}

// Combine derives an output from the latest values of several inputs. Nothing
// is emitted until every listed input holds a value. With no inputs the
// output is computed once, when the node is created.
func Combine(inputs []string, fn func(args []cty.Value) (cty.Value, error)) Derive {
	return Derive{
		inputs: append([]string(nil), inputs...),
		fn: func(_ context.Context, args []cty.Value) (cty.Value, error) {
			return fn(args)
		},
	}
}

// Async derives an output through a call that may block, typically to an
// external service. Each change of the inputs issues a new call on its own
// goroutine and cancels the context of the previous one; only the result of
// the latest call is published. A failed call publishes an
// *ExternalServiceError.
func Async(inputs []string, fn func(ctx context.Context, args []cty.Value) (cty.Value, error)) Derive {
	return Derive{
		inputs: append([]string(nil), inputs...),
		fn:     fn,
		async:  true,
	}
}

// Inputs returns the names of the inputs the derivation reads.
func (d Derive) Inputs() []string {
	return append([]string(nil), d.inputs...)
}

// derivation is a Derive bound to a concrete output and its input ports.
type derivation struct {
	spec Derive
	out  *Output
	args []*Input

	// heap bookkeeping, see queue.
	queued bool
	seq    uint64
	index  int

	// async bookkeeping. issued is the sequence number of the latest call.
	issued uint64
	cancel context.CancelFunc
}

func (d *derivation) rt() *Runtime {
	return d.out.node.rt
}

// run recomputes the output from the current input values. It does nothing
// while any input is unset, except abandon an async call in flight.
func (d *derivation) run() {
	if d.out.closed {
		return
	}
	args := make([]cty.Value, len(d.args))
	for i, in := range d.args {
		v, ok := in.Value()
		if !ok {
			if d.spec.async && d.cancel != nil {
				d.stop()
			}
			return
		}
		args[i] = v
	}
	if d.spec.async {
		d.issue(args)
		return
	}

	v, err := d.call(d.rt().ctx, args)
	if err != nil {
		err = &DerivationError{Node: d.out.node.id, Output: d.out.name, Err: err}
		d.out.fail(err)
	} else {
		err = d.publish(v)
	}
	d.rt().hooks.Recomputed(d.out, err)
}

// call runs the user function, turning a panic into an error.
func (d *derivation) call(ctx context.Context, args []cty.Value) (v cty.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			v = cty.NilVal
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return d.spec.fn(ctx, args)
}

// publish checks v against the output schema and emits it. A mismatch is a
// DerivationError.
func (d *derivation) publish(v cty.Value) error {
	parsed, err := d.out.schema.Parse(v)
	if err != nil {
		err = &DerivationError{Node: d.out.node.id, Output: d.out.name, Err: err}
		d.out.fail(err)
		return err
	}
	d.out.emit(parsed)
	return nil
}

func (d *derivation) issue(args []cty.Value) {
	rt := d.rt()
	if d.cancel != nil {
		d.cancel()
	}
	d.issued++
	seq := d.issued
	ctx, cancel := context.WithCancel(ctxlog.With(rt.ctx, "node", d.out.node.id, "port", d.out.name, "request", seq))
	d.cancel = cancel

	rt.hooks.AsyncIssued(d.out)
	rt.begin()
	go func() {
		defer rt.done()
		defer cancel()

		v, err := d.call(ctx, args)
		rt.Do(func() {
			stale := seq != d.issued || d.out.closed
			if stale {
				ctxlog.FromContext(ctx).Debug("Discarding stale async result.", "latest", d.issued)
				rt.hooks.AsyncSettled(d.out, true, err)
				return
			}
			d.cancel = nil
			if err != nil {
				err = &ExternalServiceError{Node: d.out.node.id, Output: d.out.name, Err: err}
				d.out.fail(err)
			} else {
				err = d.publish(v)
			}
			rt.hooks.AsyncSettled(d.out, false, err)
		})
	}()
}

// stop cancels any call in flight and marks its result stale.
func (d *derivation) stop() {
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.issued++
}
