package graph

import (
	"context"

	"github.com/vk/circuitgo/internal/flow"
	"github.com/vk/circuitgo/internal/snapshot"
	"github.com/zclconf/go-cty/cty"
)

// Graph is the mutation and query surface consumed by the UI bridge.
// *Store is the only implementation.
type Graph interface {
	Create(ctx context.Context, kind string, pos Position) (*flow.Node, error)
	RemoveNode(ctx context.Context, id string) error
	Move(ctx context.Context, id string, pos Position) error
	Connect(ctx context.Context, e Edge) error
	Disconnect(ctx context.Context, nodeID, input string) error
	Next(ctx context.Context, nodeID, input string, raw any) error
	Subscribe(ctx context.Context, ref PortRef, fn flow.Observer) (*flow.Subscription, error)
	Unsubscribe(sub *flow.Subscription)
	Value(ref PortRef) (cty.Value, error)
	Serialize() *snapshot.Snapshot
}

var _ Graph = (*Store)(nil)
