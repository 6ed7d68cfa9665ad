package nodeid

// String serializes the endpoint into its canonical `node.port` form.
func (e Endpoint) String() string {
	return e.Node + "." + e.Port
}
