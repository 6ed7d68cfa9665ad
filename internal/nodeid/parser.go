package nodeid

import (
	"fmt"
	"regexp"
	"strings"
)

// segmentRegex matches a single segment of a node id.
var segmentRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// portRegex matches a port name.
var portRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// isValidSegmentName checks for undesirable but technically valid names.
func isValidSegmentName(name string) bool {
	return name != "-"
}

// Validate reports whether id is a well-formed node id.
func Validate(id string) error {
	if id == "" {
		return fmt.Errorf("identifier cannot be empty")
	}
	for _, segment := range strings.Split(id, ".") {
		if segment == "" {
			return fmt.Errorf("identifier %q contains an empty segment", id)
		}
		if !segmentRegex.MatchString(segment) || !isValidSegmentName(segment) {
			return fmt.Errorf("invalid segment %q in identifier %q", segment, id)
		}
	}
	return nil
}

// ValidatePort reports whether name is a well-formed port name.
func ValidatePort(name string) error {
	if !portRegex.MatchString(name) {
		return fmt.Errorf("invalid port name %q", name)
	}
	return nil
}

// ParseEndpoint parses `node.port`.
func ParseEndpoint(raw string) (Endpoint, error) {
	i := strings.LastIndex(raw, ".")
	if i <= 0 || i == len(raw)-1 {
		return Endpoint{}, fmt.Errorf("%q is not of the form node.port", raw)
	}
	ep := Endpoint{Node: raw[:i], Port: raw[i+1:]}
	if err := Validate(ep.Node); err != nil {
		return Endpoint{}, err
	}
	if err := ValidatePort(ep.Port); err != nil {
		return Endpoint{}, err
	}
	return ep, nil
}
