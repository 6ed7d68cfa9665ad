package schema

import "fmt"

// ValidationError reports a raw value that does not satisfy a schema. It is
// recoverable: the rejected value never reaches the port.
type ValidationError struct {
	Schema string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s value: %s", e.Schema, e.Reason)
}
