package nodeid

// Endpoint names a port of a node.
type Endpoint struct {
	Node string
	Port string
}
