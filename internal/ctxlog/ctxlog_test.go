package ctxlog

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromContextFallsBackToDefault(t *testing.T) {
	assert.Same(t, slog.Default(), FromContext(context.Background()))
}

func TestWithAddsAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	ctx := With(WithLogger(context.Background(), logger), "node", "a")

	FromContext(ctx).Info("hello", "port", "output")

	assert.Contains(t, buf.String(), "msg=hello node=a port=output")
}
