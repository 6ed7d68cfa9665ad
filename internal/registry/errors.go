package registry

import "fmt"

// UnknownKindError is returned when a node kind is not in the catalog.
type UnknownKindError struct {
	Kind string
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("unknown node kind %q", e.Kind)
}
