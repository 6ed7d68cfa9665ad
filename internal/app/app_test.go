package app

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/circuitgo/internal/flow"
	"github.com/vk/circuitgo/internal/graph"
	"github.com/vk/circuitgo/internal/registry"
	"github.com/vk/circuitgo/internal/snapshot"
)

const minimumJSON = `{
  "nodes": [
    {"id": "a", "kind": "value", "position": {"x": 0, "y": 0}, "values": {"x": 3}},
    {"id": "b", "kind": "minimum", "position": {"x": 160, "y": 0}, "values": {"b": 5}}
  ],
  "edges": [
    {"sourceNodeId": "a", "sourcePort": "output", "targetNodeId": "b", "targetPort": "a"}
  ]
}`

const minimumHCL = `
node "value" "a" {
  position = [0, 0]
  values = {
    x = 3
  }
}

node "minimum" "b" {
  position = [160, 0]
  values = {
    b = 5
  }
}

edge {
  from = "a.output"
  to   = "b.a"
}
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNewConfig(t *testing.T) {
	valid := *TestConfig("graph.json")

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"hcl graph with yaml save", func(c *Config) { c.GraphPath = "g.hcl"; c.SavePath = "out.yaml" }, ""},
		{"missing graph", func(c *Config) { c.GraphPath = "" }, "GraphPath is a required configuration field"},
		{"unknown extension", func(c *Config) { c.GraphPath = "graph.txt" }, `invalid GraphPath "graph.txt"`},
		{"bad save extension", func(c *Config) { c.SavePath = "out" }, `invalid SavePath "out"`},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, "must be one of text, json"},
		{"bad log level", func(c *Config) { c.LogLevel = "trace" }, "must be one of debug, info, warn, error"},
		{"negative port", func(c *Config) { c.ListenPort = -1 }, "invalid ListenPort -1"},
		{"zero timeout", func(c *Config) { c.EditTimeout = 0 }, "invalid EditTimeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			got, err := NewConfig(cfg)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, cfg, *got)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestRunHeadless(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	graphPath := writeFile(t, "graph.json", minimumJSON)
	cfg := TestConfig(graphPath)
	cfg.SavePath = filepath.Join(t.TempDir(), "saved.yaml")
	a, out := SetupAppTest(t, cfg)

	require.NoError(t, a.Run(context.Background()))
	assert.Contains(t, out.String(), "a.output = 3\n")
	assert.Contains(t, out.String(), "b.output = 3\n")

	want, err := snapshot.ReadFile(graphPath)
	require.NoError(t, err)
	got, err := snapshot.ReadFile(cfg.SavePath)
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("saved graph mismatch (-want +got):\n%s", diff)
	}
}

func TestRunHCLGraph(t *testing.T) {
	cfg := TestConfig(writeFile(t, "graph.hcl", minimumHCL))
	a, out := SetupAppTest(t, cfg)

	require.NoError(t, a.Run(context.Background()))
	assert.Contains(t, out.String(), "b.output = 3\n")
}

func TestRunReportsUnrestoredElements(t *testing.T) {
	graphPath := writeFile(t, "graph.json", `{
  "nodes": [
    {"id": "a", "kind": "value", "values": {"x": 2}},
    {"id": "t", "kind": "teleporter"}
  ],
  "edges": [
    {"sourceNodeId": "a", "sourcePort": "output", "targetNodeId": "t", "targetPort": "in"}
  ]
}`)
	a, out := SetupAppTest(t, TestConfig(graphPath))

	require.NoError(t, a.Run(context.Background()))
	logs := out.String()
	assert.Contains(t, logs, "a.output = 2\n")
	assert.Equal(t, 2, strings.Count(logs, "Graph element not restored."), logs)
	assert.Contains(t, logs, "teleporter")
}

func TestRunMissingGraph(t *testing.T) {
	a, _ := SetupAppTest(t, TestConfig(filepath.Join(t.TempDir(), "missing.json")))
	err := a.Run(context.Background())
	assert.ErrorContains(t, err, "failed to read graph")
}

func TestHandler(t *testing.T) {
	a, _ := SetupAppTest(t, TestConfig("graph.json"))
	srv := httptest.NewServer(a.handler(nil))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK\n", string(body))

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "circuitgo_flow_async_in_flight")
}

func TestServeStopsOnCancel(t *testing.T) {
	a, out := SetupAppTest(t, TestConfig("graph.json"))
	store := graph.New(context.Background(), a.Registry(), flow.WithHooks(a.Metrics()))
	defer store.Close()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.serveListener(ctx, store, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.Contains(t, out.String(), "Shutting down server")
}

type brokenModule struct{}

func (brokenModule) Register(r *registry.Registry) {
	r.RegisterKind(&registry.Kind{Name: "broken", DisplayName: "Broken", New: func() flow.Spec { return flow.Spec{} }})
}

func TestNewAppPanicsOnInvalidRegistry(t *testing.T) {
	assert.Panics(t, func() {
		NewApp(io.Discard, TestConfig("graph.json"), brokenModule{})
	})
}
