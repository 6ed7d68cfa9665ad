package bridge

import (
	"context"
	"net/http"

	"github.com/vk/circuitgo/internal/ctxlog"
	"github.com/vk/circuitgo/internal/graph"
	"github.com/vk/circuitgo/internal/registry"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io/v2/socket"
)

// Path is where Handler expects to be mounted.
const Path = "/socket.io/"

// Server carries sessions over socket.io.
type Server struct {
	ctx      context.Context
	io       *socket.Server
	graph    graph.Graph
	reg      *registry.Registry
	recorder Recorder
}

// NewServer creates a socket.io server for g. ctx carries the logger and
// bounds every command.
func NewServer(ctx context.Context, g graph.Graph, reg *registry.Registry, rec Recorder) *Server {
	if rec == nil {
		rec = noRecorder{}
	}
	opts := socket.DefaultServerOptions()
	opts.SetCors(&types.Cors{Origin: "*", Credentials: true})

	s := &Server{
		ctx:      ctx,
		io:       socket.NewServer(nil, opts),
		graph:    g,
		reg:      reg,
		recorder: rec,
	}
	s.io.On("connection", func(clients ...any) {
		client, ok := clients[0].(*socket.Socket)
		if !ok {
			return
		}
		s.serve(client)
	})
	return s
}

// Handler returns the socket.io endpoint, to be mounted at Path.
func (s *Server) Handler() http.Handler {
	return s.io.ServeHandler(nil)
}

// Close disconnects every client.
func (s *Server) Close() {
	s.io.Close(nil)
}

func (s *Server) serve(client *socket.Socket) {
	id := string(client.Id())
	ctx := ctxlog.With(s.ctx, "session", id)
	logger := ctxlog.FromContext(ctx)

	reply := func(event string, payload any) {
		if err := client.Emit(event, payload); err != nil {
			logger.Warn("Failed to emit event.", "event", event, "error", err)
		}
	}
	broadcast := func(event string, payload any) {
		s.io.Emit(event, payload)
	}
	sess := NewSession(id, s.graph, s.reg, reply, broadcast, s.recorder)

	for _, cmd := range Commands {
		client.On(cmd, func(args ...any) {
			var payload any
			if len(args) > 0 {
				payload = args[0]
			}
			_ = sess.Handle(ctx, cmd, payload)
		})
	}
	client.On("disconnect", func(reason ...any) {
		sess.Close()
		s.recorder.ClientDisconnected()
		logger.Info("Client disconnected.", "reason", reason)
	})

	s.recorder.ClientConnected()
	logger.Info("Client connected.")

	// Fresh clients get the menu and the current graph.
	_ = sess.Handle(ctx, CmdCatalog, nil)
	_ = sess.Handle(ctx, CmdSnapshot, nil)
}
