package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vk/circuitgo/internal/ctxlog"
	"github.com/vk/circuitgo/internal/flow"
	"github.com/vk/circuitgo/internal/graph"
	"github.com/vk/circuitgo/internal/registry"
	"github.com/vk/circuitgo/internal/schema"
	"github.com/zclconf/go-cty/cty"
)

// EmitFunc delivers one server event.
type EmitFunc func(event string, payload any)

// Recorder observes bridge activity. *metrics.Metrics implements it.
type Recorder interface {
	Command(name string, err error)
	ClientConnected()
	ClientDisconnected()
}

type noRecorder struct{}

func (noRecorder) Command(string, error) {}
func (noRecorder) ClientConnected()      {}
func (noRecorder) ClientDisconnected()   {}

// Session serves the commands of one client.
type Session struct {
	id        string
	graph     graph.Graph
	reg       *registry.Registry
	reply     EmitFunc
	broadcast EmitFunc
	recorder  Recorder

	mu     sync.Mutex
	subs   map[graph.PortRef]*flow.Subscription
	closed bool
}

// NewSession creates a session. reply reaches the session's own client,
// broadcast reaches every client. A nil broadcast falls back to reply.
func NewSession(id string, g graph.Graph, reg *registry.Registry, reply, broadcast EmitFunc, rec Recorder) *Session {
	if broadcast == nil {
		broadcast = reply
	}
	if rec == nil {
		rec = noRecorder{}
	}
	return &Session{
		id:        id,
		graph:     g,
		reg:       reg,
		reply:     reply,
		broadcast: broadcast,
		recorder:  rec,
		subs:      make(map[graph.PortRef]*flow.Subscription),
	}
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Handle applies one command. A failed command is also reported to the
// client as a failure event.
func (s *Session) Handle(ctx context.Context, command string, payload any) (err error) {
	logger := ctxlog.FromContext(ctx).With("session", s.id, "command", command)
	logger.Debug("Handling command.")

	defer func() {
		s.recorder.Command(command, err)
		if err != nil {
			logger.Debug("Command failed.", "error", err)
			s.reply(EventFailure, Failure{Op: command, Error: err.Error()})
		}
	}()

	switch command {
	case CmdCatalog:
		var p CatalogPayload
		if err := decode(payload, &p); err != nil {
			return err
		}
		s.reply(EventCatalog, s.catalog(p.Query))
		return nil

	case CmdSnapshot:
		s.reply(EventGraphChanged, s.graph.Serialize())
		return nil

	case CmdSubscribe:
		var p PortPayload
		if err := decode(payload, &p); err != nil {
			return err
		}
		return s.subscribe(ctx, p.ref())

	case CmdUnsubscribe:
		var p PortPayload
		if err := decode(payload, &p); err != nil {
			return err
		}
		s.unsubscribe(p.ref())
		return nil

	case CmdNext:
		var p NextPayload
		if err := decode(payload, &p); err != nil {
			return err
		}
		return s.graph.Next(ctx, p.Node, p.Port, p.Value)

	case CmdAddNode:
		var p AddNodePayload
		if err := decode(payload, &p); err != nil {
			return err
		}
		n, err := s.graph.Create(ctx, p.Kind, p.Position)
		if err != nil {
			return err
		}
		s.reply(EventNodeAdded, NodePayload{Node: n.ID()})
		s.changed()
		return nil

	case CmdRemoveNode:
		var p NodePayload
		if err := decode(payload, &p); err != nil {
			return err
		}
		if err := s.graph.RemoveNode(ctx, p.Node); err != nil {
			return err
		}
		s.dropNode(p.Node)
		s.changed()
		return nil

	case CmdMoveNode:
		var p MoveNodePayload
		if err := decode(payload, &p); err != nil {
			return err
		}
		if err := s.graph.Move(ctx, p.Node, p.Position); err != nil {
			return err
		}
		s.changed()
		return nil

	case CmdConnect:
		var p ConnectPayload
		if err := decode(payload, &p); err != nil {
			return err
		}
		if err := s.graph.Connect(ctx, p.Edge); err != nil {
			return err
		}
		s.changed()
		return nil

	case CmdDisconnect:
		var p DisconnectPayload
		if err := decode(payload, &p); err != nil {
			return err
		}
		if err := s.graph.Disconnect(ctx, p.Node, p.Port); err != nil {
			return err
		}
		s.changed()
		return nil
	}

	return fmt.Errorf("unknown command %q", command)
}

// Close drops every subscription of the session.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ref, sub := range s.subs {
		s.graph.Unsubscribe(sub)
		delete(s.subs, ref)
	}
	s.closed = true
}

func (s *Session) changed() {
	s.broadcast(EventGraphChanged, s.graph.Serialize())
}

// subscribe registers an observer for ref and sends the port's current
// value. Subscribing twice to the same port only resends the value.
func (s *Session) subscribe(ctx context.Context, ref graph.PortRef) error {
	if ref.Direction != flow.In && ref.Direction != flow.Out {
		return fmt.Errorf("invalid direction %q", ref.Direction)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errors.New("session is closed")
	}
	if _, ok := s.subs[ref]; !ok {
		sub, err := s.graph.Subscribe(ctx, ref, func(ev flow.Event) {
			s.reply(EventPortValue, portValue(ref, ev))
		})
		if err != nil {
			s.mu.Unlock()
			return err
		}
		s.subs[ref] = sub
	}
	s.mu.Unlock()

	v, err := s.graph.Value(ref)
	s.reply(EventPortValue, portValue(ref, flow.Event{Value: v, Err: err}))
	return nil
}

func (s *Session) unsubscribe(ref graph.PortRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub, ok := s.subs[ref]; ok {
		s.graph.Unsubscribe(sub)
		delete(s.subs, ref)
	}
}

func (s *Session) dropNode(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ref, sub := range s.subs {
		if ref.Node == id {
			s.graph.Unsubscribe(sub)
			delete(s.subs, ref)
		}
	}
}

func (s *Session) catalog(query string) []CatalogGroup {
	groups := s.reg.Search(query)
	out := make([]CatalogGroup, 0, len(groups))
	for _, g := range groups {
		cg := CatalogGroup{Category: g.Category, Kinds: make([]CatalogKind, 0, len(g.Kinds))}
		for _, k := range g.Kinds {
			spec := k.New()
			ck := CatalogKind{
				Name:        k.Name,
				DisplayName: k.DisplayName,
				Inputs:      make([]CatalogPort, 0, len(spec.Inputs)),
				Outputs:     make([]CatalogPort, 0, len(spec.Outputs)),
			}
			for _, in := range spec.Inputs {
				ck.Inputs = append(ck.Inputs, CatalogPort{Name: in.Name, Type: in.Schema.Description(), Default: in.Default})
			}
			for _, o := range spec.Outputs {
				ck.Outputs = append(ck.Outputs, CatalogPort{Name: o.Name, Type: o.Schema.Description()})
			}
			cg.Kinds = append(cg.Kinds, ck)
		}
		out = append(out, cg)
	}
	return out
}

func portValue(ref graph.PortRef, ev flow.Event) PortValue {
	pv := PortValue{Node: ref.Node, Direction: ref.Direction, Port: ref.Port}
	switch {
	case ev.Err != nil:
		pv.Error = ev.Err.Error()
	case ev.Value == cty.NilVal:
		pv.Unset = true
	default:
		pv.Value = schema.ToNative(ev.Value)
	}
	return pv
}
