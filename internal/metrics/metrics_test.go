package metrics

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/circuitgo/internal/flow"
	"github.com/vk/circuitgo/internal/schema"
	"github.com/zclconf/go-cty/cty"
)

func halfSpec() flow.Spec {
	return flow.Spec{
		Kind:   "half",
		Inputs: []flow.InputSpec{{Name: "x", Schema: schema.Number}},
		Outputs: []flow.OutputSpec{{
			Name:   "output",
			Schema: schema.Number,
			Derive: flow.Map("x", func(v cty.Value) (cty.Value, error) {
				f, _ := schema.AsFloat(v)
				if f < 0 {
					return cty.NilVal, errors.New("negative")
				}
				return cty.NumberFloatVal(f / 2), nil
			}),
		}},
	}
}

func echoSpec(release <-chan struct{}) flow.Spec {
	return flow.Spec{
		Kind:   "echo",
		Inputs: []flow.InputSpec{{Name: "x", Schema: schema.Number}},
		Outputs: []flow.OutputSpec{{
			Name:   "output",
			Schema: schema.Number,
			Derive: flow.Async([]string{"x"}, func(ctx context.Context, args []cty.Value) (cty.Value, error) {
				<-release
				return args[0], nil
			}),
		}},
	}
}

func TestRecomputes(t *testing.T) {
	m := New()
	rt := flow.NewRuntime(context.Background(), flow.WithHooks(m))
	rt.Do(func() {
		n, err := flow.NewNode(rt, "h", halfSpec())
		require.NoError(t, err)
		in, _ := n.Input("x")
		require.NoError(t, in.Next(4))
		require.NoError(t, in.Next(-1))
		require.NoError(t, in.Next(2))
	})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RecomputesTotal.WithLabelValues("half", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RecomputesTotal.WithLabelValues("half", "error")))
}

func TestAsyncCalls(t *testing.T) {
	m := New()
	rt := flow.NewRuntime(context.Background(), flow.WithHooks(m))
	release := make(chan struct{})
	rt.Do(func() {
		n, err := flow.NewNode(rt, "e", echoSpec(release))
		require.NoError(t, err)
		in, _ := n.Input("x")
		require.NoError(t, in.Next(1))
		require.NoError(t, in.Next(2))
	})
	assert.Equal(t, 2.0, testutil.ToFloat64(m.AsyncInFlight))

	close(release)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, rt.Wait(ctx))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.AsyncIssuedTotal.WithLabelValues("echo")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AsyncSettledTotal.WithLabelValues("echo", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AsyncSettledTotal.WithLabelValues("echo", "stale")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.AsyncInFlight))
}

func TestHandler(t *testing.T) {
	m := New()
	m.Command("connect", nil)
	m.Command("connect", errors.New("cycle"))
	m.ClientConnected()
	m.ClientConnected()
	m.ClientDisconnected()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()

	assert.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(body, `circuitgo_bridge_commands_total{command="connect",result="error"} 1`), body)
	assert.True(t, strings.Contains(body, "circuitgo_bridge_clients 1"), body)
	assert.Contains(t, body, "go_goroutines")
}
