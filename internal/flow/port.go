package flow

import (
	"github.com/vk/circuitgo/internal/schema"
	"github.com/zclconf/go-cty/cty"
)

// Direction tells inputs and outputs apart in port ids.
type Direction string

const (
	In  Direction = "in"
	Out Direction = "out"
)

type subscriber struct {
	id uint64
	fn Observer
}

// port is the part shared by Input and Output: identity, schema, current
// value and the ordered subscriber list.
type port struct {
	name   string
	dir    Direction
	node   *Node
	schema *schema.Schema
	value  cty.Value

	subs    []subscriber
	nextSub uint64
	closed  bool
}

// ID is unique across the graph: "<node id>/<in|out>/<name>".
func (p *port) ID() string {
	return p.node.id + "/" + string(p.dir) + "/" + p.name
}

// Name is the port name, unique per node and direction.
func (p *port) Name() string {
	return p.name
}

// Node returns the owning node.
func (p *port) Node() *Node {
	return p.node
}

// Schema returns the port's type schema.
func (p *port) Schema() *schema.Schema {
	return p.schema
}

// Value returns the current value and whether one is set.
func (p *port) Value() (cty.Value, bool) {
	return p.value, p.value != cty.NilVal
}

// Subscribe registers fn for every future event on the port. Subscribing to
// a closed port returns an inert subscription.
func (p *port) Subscribe(fn Observer) *Subscription {
	if p.closed || fn == nil {
		return &Subscription{}
	}
	p.nextSub++
	p.subs = append(p.subs, subscriber{id: p.nextSub, fn: fn})
	return &Subscription{port: p, id: p.nextSub}
}

func (p *port) unsubscribe(id uint64) {
	for i, s := range p.subs {
		if s.id == id {
			p.subs = append(p.subs[:i:i], p.subs[i+1:]...)
			return
		}
	}
}

// publish delivers ev to a snapshot of the subscribers, so observers may
// unsubscribe (or subscribe others) while being notified.
func (p *port) publish(ev Event) {
	subs := p.subs
	for _, s := range subs {
		s.fn(ev)
	}
}

func (p *port) close() {
	p.closed = true
	p.subs = nil
}

// Input is a port that consumes values, either from a connected Output or
// from manual edits through Next.
type Input struct {
	*port
	def        cty.Value
	manual     cty.Value
	source     *Output
	sourceSub  *Subscription
	dependents []*derivation
}

// Source returns the connected output, or nil.
func (in *Input) Source() *Output {
	return in.source
}

// Connected reports whether the input is wired to an output. Wired inputs
// ignore Next.
func (in *Input) Connected() bool {
	return in.source != nil
}

// Default returns the declared default value, or cty.NilVal.
func (in *Input) Default() cty.Value {
	return in.def
}

// Manual returns the latest manual value, or cty.NilVal.
func (in *Input) Manual() cty.Value {
	return in.manual
}

// Next parses raw with the input's schema and, when the input has no source,
// makes it the input's value and propagates it. A parse failure returns a
// *schema.ValidationError and changes nothing. On a connected input Next is
// a no-op.
func (in *Input) Next(raw any) error {
	v, err := in.schema.Parse(raw)
	if err != nil {
		return err
	}
	if in.source != nil || in.closed {
		return nil
	}
	in.manual = v
	in.set(v)
	in.node.rt.drain()
	return nil
}

// set stores v, notifies observers and queues every derivation reading the
// input.
func (in *Input) set(v cty.Value) {
	in.value = v
	in.publish(Event{Value: v})
	for _, d := range in.dependents {
		in.node.rt.schedule(d)
	}
}

func (in *Input) reset() {
	if in.value == cty.NilVal {
		return
	}
	in.value = cty.NilVal
	in.publish(Event{})
	for _, d := range in.dependents {
		in.node.rt.schedule(d)
	}
}

// fromSource is the observer an input installs on its source output. Error
// events stay on the output that produced them.
func (in *Input) fromSource(ev Event) {
	if ev.Err != nil || ev.Unset() || in.closed {
		return
	}
	v, err := in.schema.Parse(ev.Value)
	if err != nil {
		return
	}
	in.set(v)
}

// Output is a port whose values are produced by its derivation.
type Output struct {
	*port
	deriv   *derivation
	err     error
	targets map[string]*Input
}

// Err returns the error of the latest failed computation, cleared by the next
// successful emission.
func (out *Output) Err() error {
	return out.err
}

// Targets returns the connected inputs ordered by port id.
func (out *Output) Targets() []*Input {
	targets := make([]*Input, 0, len(out.targets))
	for _, id := range schema.SortedKeys(out.targets) {
		targets = append(targets, out.targets[id])
	}
	return targets
}

// Inputs returns the names of the inputs the output is derived from.
func (out *Output) Inputs() []string {
	return append([]string(nil), out.deriv.spec.inputs...)
}

func (out *Output) emit(v cty.Value) {
	out.value = v
	out.err = nil
	out.publish(Event{Value: v})
}

func (out *Output) fail(err error) {
	out.err = err
	out.publish(Event{Err: err})
}

// Connect wires out into in. It rejects ports of different runtimes,
// incompatible schemas, a second source for in and any edge that would close
// a cycle. On success any manual value is discarded
// and the output's current value, if any, is delivered immediately.
func Connect(out *Output, in *Input) error {
	if out == nil || in == nil {
		return errNilPort
	}
	if out.node.rt != in.node.rt {
		return errForeignRuntime
	}
	if out.closed || in.closed {
		return errClosedPort
	}
	if !out.schema.IsCompatibleWith(in.schema) {
		return &IncompatibleTypeError{
			Output:     out.ID(),
			Input:      in.ID(),
			OutputType: out.schema.Description(),
			InputType:  in.schema.Description(),
		}
	}
	if in.source != nil {
		return &AlreadyConnectedError{Input: in.ID(), Source: in.source.ID()}
	}
	if in.node.reaches(out.node) {
		return &CycleError{Output: out.ID(), Input: in.ID()}
	}

	in.manual = cty.NilVal
	in.source = out
	out.targets[in.ID()] = in
	in.sourceSub = out.Subscribe(in.fromSource)
	in.node.updateRank()

	if v, ok := out.Value(); ok {
		in.fromSource(Event{Value: v})
	} else {
		in.reset()
	}
	in.node.rt.drain()
	return nil
}

// Disconnect unwires in from its source. The input falls back to its
// declared default, or becomes unset until a manual value arrives. It returns
// false when the input was not connected.
func Disconnect(in *Input) bool {
	if in == nil || in.source == nil {
		return false
	}
	in.sourceSub.Unsubscribe()
	delete(in.source.targets, in.ID())
	in.source = nil
	in.sourceSub = nil
	in.node.updateRank()

	if in.closed {
		return true
	}
	if in.def != cty.NilVal {
		in.set(in.def)
	} else {
		in.reset()
	}
	in.node.rt.drain()
	return true
}
