package nodeid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	testCases := []struct {
		name      string
		id        string
		expectErr bool
	}{
		{name: "simple", id: "a"},
		{name: "dashes and digits", id: "blur-1"},
		{name: "uuid", id: "0b5e8f0e-3c1a-4d2e-9f6b-2a7c1d9e4f00"},
		{name: "dotted", id: "group.blur"},
		{name: "empty", id: "", expectErr: true},
		{name: "empty segment", id: "a..b", expectErr: true},
		{name: "trailing dot", id: "a.", expectErr: true},
		{name: "space", id: "a b", expectErr: true},
		{name: "lone dash", id: "-", expectErr: true},
		{name: "brackets", id: "a[0]", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.id)
			if tc.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseEndpoint(t *testing.T) {
	testCases := []struct {
		name      string
		raw       string
		expectErr bool
		expected  Endpoint
	}{
		{name: "simple", raw: "a.output", expected: Endpoint{Node: "a", Port: "output"}},
		{name: "dotted node", raw: "group.blur.image", expected: Endpoint{Node: "group.blur", Port: "image"}},
		{name: "no dot", raw: "a", expectErr: true},
		{name: "no port", raw: "a.", expectErr: true},
		{name: "no node", raw: ".output", expectErr: true},
		{name: "bad port", raw: "a.out-put", expectErr: true},
		{name: "bad node", raw: "a b.output", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ep, err := ParseEndpoint(tc.raw)
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, ep)
			assert.Equal(t, tc.raw, ep.String())
		})
	}
}
