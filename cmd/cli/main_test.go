package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRun_Headless(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	// --- Arrange ---
	graph := `
node "value" "a" {
  values = { x = 4 }
}

node "sqrt" "root" {}

node "format_number" "label" {
  values = { precision = 1 }
}

edge {
  from = "a.output"
  to   = "root.input"
}

edge {
  from = "root.output"
  to   = "label.input"
}
`
	dir := t.TempDir()
	graphPath := filepath.Join(dir, "main.hcl")
	savePath := filepath.Join(dir, "saved.json")
	require.NoError(t, os.WriteFile(graphPath, []byte(graph), 0o600))
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(out, []string{"-log-format", "text", "-save", savePath, graphPath})

	// --- Assert ---
	require.NoError(t, err)
	require.Contains(t, out.String(), "root.output = 2\n")
	require.Contains(t, out.String(), `label.output = "2.0"`)
	require.FileExists(t, savePath)
}

func TestRun_InvalidGraph(t *testing.T) {
	// --- Arrange ---
	// A syntax error must surface as a load failure, not a crash.
	invalidHCL := `
		node "value" "a" {
			values = {
		// Missing closing brace here
	`
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "main.hcl")
	require.NoError(t, os.WriteFile(filePath, []byte(invalidHCL), 0o600), "failed to set up test file")
	out := &bytes.Buffer{}

	// --- Act ---
	runErr := run(out, []string{filePath})

	// --- Assert ---
	require.Error(t, runErr)
	require.Contains(t, runErr.Error(), "failed to read graph")
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// The "-h" (help) flag should cause cli.Parse to return `shouldExit=true`.
	args := []string{"-h"}
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(out, args)

	// --- Assert ---
	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// Providing an unknown flag will cause cli.Parse to return an error.
	args := []string{"--this-is-not-a-valid-flag"}
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(out, args)

	// --- Assert ---
	require.Error(t, err, "run() should return an error when argument parsing fails")
	require.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
}
