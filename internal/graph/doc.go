// Package graph is the graph store: the set of nodes the user placed on the
// canvas, their positions, and the connections between their ports.
//
// # Why Graph Package Exists
//
// Package flow knows how values move between ports but nothing about the
// canvas. The Store adds what an editor needs on top of it:
//   - **Catalog:** nodes are created by kind through the registry
//   - **Topology:** every connection is mirrored in a dag.Graph, which rejects
//     cycles before flow sees the edge and orders the replay of a snapshot
//   - **Layout:** each node has a canvas position
//   - **Persistence:** Serialize and Load convert to and from snapshot.Snapshot
//
// # Architecture
//
//	┌─────────────────────────────────────┐
//	│            graph.Store              │
//	│  (mutations from the UI bridge,     │
//	│   loading and saving snapshots)     │
//	└──────────┬────────────┬─────────────┘
//	           │            │
//	           ▼            ▼
//	  ┌────────────┐  ┌────────────┐
//	  │ dag.Graph  │  │flow.Runtime│
//	  │ (topology, │  │ (ports and │
//	  │  cycles)   │  │propagation)│
//	  └────────────┘  └────────────┘
//
// # Thread-Safety
//
// Every Store method runs inside flow.Runtime.Do, so the store, the topology
// and all port values are only ever touched by one goroutine at a time.
// Observers registered with Subscribe are called inside that critical
// section and must not call back into the store.
package graph
