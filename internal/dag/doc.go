// Package dag is the topology index behind the graph store. It tracks which
// node feeds which, rejects cycles and yields a deterministic topological
// order used to replay a snapshot's connections.
package dag
