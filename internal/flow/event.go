package flow

import "github.com/zclconf/go-cty/cty"

// Event is one emission observed on a port. Exactly one of three shapes is
// delivered: a value, an error (outputs only), or an unset reset (inputs
// only) where both fields are zero.
type Event struct {
	Value cty.Value
	Err   error
}

// Unset reports whether the event clears the port's value.
func (e Event) Unset() bool {
	return e.Err == nil && e.Value == cty.NilVal
}

// Observer receives port events in emission order.
type Observer func(Event)

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	port *port
	id   uint64
}

// Unsubscribe stops delivery to the observer. It is safe to call more than
// once. It mutates the port, so it must run inside Runtime.Do, for example
// from the observer itself; other goroutines go through Store.Unsubscribe.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.port == nil {
		return
	}
	s.port.unsubscribe(s.id)
	s.port = nil
}
