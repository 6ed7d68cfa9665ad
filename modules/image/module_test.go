package image

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/circuitgo/internal/flow"
	"github.com/vk/circuitgo/internal/graph"
	"github.com/vk/circuitgo/internal/imageedit"
	"github.com/vk/circuitgo/internal/registry"
	"github.com/vk/circuitgo/internal/schema"
)

const pixel = "data:image/png;base64,iVBORw0KGgo="

// fakeEditor answers with "edited:<prompt>" once the gate for the prompt is
// released.
type fakeEditor struct {
	mu    sync.Mutex
	gates map[string]chan struct{}
	calls []imageedit.Request
}

func (f *fakeEditor) Edit(ctx context.Context, req imageedit.Request) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	gate := f.gates[req.Prompt]
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if req.Prompt == "fail" {
		return "", errors.New("content policy violation")
	}
	return "edited:" + req.Prompt, nil
}

func newStore(t *testing.T, m *Module) *graph.Store {
	t.Helper()
	r := registry.New()
	m.Register(r)
	require.NoError(t, r.ValidateRegistry(context.Background()))
	s := graph.New(context.Background(), r)
	t.Cleanup(s.Close)
	return s
}

func waitIdle(t *testing.T, s *graph.Store) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Wait(ctx))
}

func editNode(t *testing.T, s *graph.Store) string {
	t.Helper()
	ctx := context.Background()
	n, err := s.Create(ctx, "image_edit", graph.Position{})
	require.NoError(t, err)
	require.NoError(t, s.Next(ctx, n.ID(), "image", pixel))
	require.NoError(t, s.Next(ctx, n.ID(), "mask", pixel))
	return n.ID()
}

func outputURL(t *testing.T, s *graph.Store, id string) (string, error) {
	t.Helper()
	v, err := s.Value(graph.PortRef{Node: id, Direction: flow.Out, Port: "image"})
	if err != nil {
		return "", err
	}
	return v.GetAttr("url").AsString(), nil
}

func TestImageSource(t *testing.T) {
	s := newStore(t, &Module{})
	ctx := context.Background()
	n, err := s.Create(ctx, "image", graph.Position{})
	require.NoError(t, err)
	require.NoError(t, s.Next(ctx, n.ID(), "url", "https://example.com/cat.png"))

	v, err := s.Value(graph.PortRef{Node: n.ID(), Direction: flow.Out, Port: "image"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"url": "https://example.com/cat.png"}, schema.ToNative(v))
}

func TestEditLastRequestWins(t *testing.T) {
	editor := &fakeEditor{gates: map[string]chan struct{}{
		"a cat": make(chan struct{}),
		"a dog": make(chan struct{}),
	}}
	s := newStore(t, &Module{Editor: editor})
	ctx := context.Background()
	id := editNode(t, s)

	require.NoError(t, s.Next(ctx, id, "prompt", "a cat"))
	require.NoError(t, s.Next(ctx, id, "prompt", "a dog"))

	close(editor.gates["a dog"])
	close(editor.gates["a cat"])
	waitIdle(t, s)

	url, err := outputURL(t, s, id)
	require.NoError(t, err)
	assert.Equal(t, "edited:a dog", url)

	editor.mu.Lock()
	defer editor.mu.Unlock()
	require.NotEmpty(t, editor.calls)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, editor.calls[0].Image)
}

func TestEditFailureKeepsPreviousImage(t *testing.T) {
	s := newStore(t, &Module{Editor: &fakeEditor{}})
	ctx := context.Background()
	id := editNode(t, s)

	require.NoError(t, s.Next(ctx, id, "prompt", "a cat"))
	waitIdle(t, s)
	require.NoError(t, s.Next(ctx, id, "prompt", "fail"))
	waitIdle(t, s)

	n, ok := s.Node(id)
	require.True(t, ok)
	s.Runtime().Do(func() {
		out, _ := n.Output("image")
		var extErr *flow.ExternalServiceError
		require.ErrorAs(t, out.Err(), &extErr)
		assert.ErrorContains(t, extErr, "content policy violation")

		v, ok := out.Value()
		require.True(t, ok)
		assert.Equal(t, "edited:a cat", v.GetAttr("url").AsString())
	})
}

func TestEditNotConfigured(t *testing.T) {
	s := newStore(t, &Module{})
	ctx := context.Background()
	id := editNode(t, s)
	require.NoError(t, s.Next(ctx, id, "prompt", "a cat"))
	waitIdle(t, s)

	_, err := outputURL(t, s, id)
	var extErr *flow.ExternalServiceError
	require.ErrorAs(t, err, &extErr)
	assert.ErrorIs(t, err, imageedit.ErrNotConfigured)
}

func TestEditUnreadableImage(t *testing.T) {
	s := newStore(t, &Module{Editor: &fakeEditor{}})
	ctx := context.Background()
	n, err := s.Create(ctx, "image_edit", graph.Position{})
	require.NoError(t, err)
	require.NoError(t, s.Next(ctx, n.ID(), "image", "/does/not/exist.png"))
	require.NoError(t, s.Next(ctx, n.ID(), "mask", pixel))
	require.NoError(t, s.Next(ctx, n.ID(), "prompt", "a cat"))
	waitIdle(t, s)

	_, err = outputURL(t, s, n.ID())
	assert.ErrorContains(t, err, "image:")
}
