package bridge

import (
	"encoding/json"
	"fmt"

	"github.com/vk/circuitgo/internal/flow"
	"github.com/vk/circuitgo/internal/graph"
)

// Commands sent by clients.
const (
	CmdCatalog     = "catalog"
	CmdSnapshot    = "snapshot"
	CmdSubscribe   = "subscribe"
	CmdUnsubscribe = "unsubscribe"
	CmdNext        = "next"
	CmdAddNode     = "add_node"
	CmdRemoveNode  = "remove_node"
	CmdMoveNode    = "move_node"
	CmdConnect     = "connect"
	CmdDisconnect  = "disconnect"
)

// Commands lists every command a Session understands.
var Commands = []string{
	CmdCatalog, CmdSnapshot, CmdSubscribe, CmdUnsubscribe, CmdNext,
	CmdAddNode, CmdRemoveNode, CmdMoveNode, CmdConnect, CmdDisconnect,
}

// Events sent by the server.
const (
	EventPortValue    = "port:value"
	EventGraphChanged = "graph:changed"
	EventCatalog      = "catalog"
	EventNodeAdded    = "node:added"
	EventFailure      = "failure"
)

// PortPayload addresses a port. Direction defaults to flow.Out.
type PortPayload struct {
	Node      string         `json:"node"`
	Direction flow.Direction `json:"direction,omitempty"`
	Port      string         `json:"port"`
}

func (p PortPayload) ref() graph.PortRef {
	dir := p.Direction
	if dir == "" {
		dir = flow.Out
	}
	return graph.PortRef{Node: p.Node, Direction: dir, Port: p.Port}
}

// CatalogPayload filters the catalog by display name.
type CatalogPayload struct {
	Query string `json:"query,omitempty"`
}

// NextPayload sets a manual value on an input.
type NextPayload struct {
	Node  string `json:"node"`
	Port  string `json:"port"`
	Value any    `json:"value"`
}

// AddNodePayload creates a node of Kind at Position.
type AddNodePayload struct {
	Kind     string         `json:"kind"`
	Position graph.Position `json:"position"`
}

// NodePayload names a node.
type NodePayload struct {
	Node string `json:"node"`
}

// MoveNodePayload moves a node.
type MoveNodePayload struct {
	Node     string         `json:"node"`
	Position graph.Position `json:"position"`
}

// ConnectPayload wires an edge.
type ConnectPayload struct {
	Edge graph.Edge `json:"edge"`
}

// DisconnectPayload names the input to disconnect.
type DisconnectPayload struct {
	Node string `json:"node"`
	Port string `json:"port"`
}

// PortValue is one port event as seen by clients. Exactly one of Value,
// Error and Unset is set.
type PortValue struct {
	Node      string         `json:"node"`
	Direction flow.Direction `json:"direction"`
	Port      string         `json:"port"`
	Value     any            `json:"value,omitempty"`
	Error     string         `json:"error,omitempty"`
	Unset     bool           `json:"unset,omitempty"`
}

// Failure reports a command that could not be applied.
type Failure struct {
	Op    string `json:"op"`
	Error string `json:"error"`
}

// CatalogGroup is one menu section.
type CatalogGroup struct {
	Category string        `json:"category"`
	Kinds    []CatalogKind `json:"kinds"`
}

// CatalogKind describes a kind and its ports.
type CatalogKind struct {
	Name        string        `json:"name"`
	DisplayName string        `json:"displayName"`
	Inputs      []CatalogPort `json:"inputs"`
	Outputs     []CatalogPort `json:"outputs"`
}

// CatalogPort describes one port of a kind.
type CatalogPort struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Default any    `json:"default,omitempty"`
}

// decode converts a generic JSON payload, as delivered by the transport,
// into dst.
func decode(payload any, dst any) error {
	if payload == nil {
		return nil
	}
	var raw []byte
	switch p := payload.(type) {
	case []byte:
		raw = p
	case string:
		raw = []byte(p)
	default:
		var err error
		if raw, err = json.Marshal(payload); err != nil {
			return fmt.Errorf("invalid payload: %w", err)
		}
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return nil
}
