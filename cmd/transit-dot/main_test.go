package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anggasct/transit/pkg/logger"
)

const turnstile = `
name: turnstile
initial: locked
states: [locked, unlocked]
events:
  - name: coin
    transitions:
      - from: locked
        to: unlocked
  - name: push
    transitions:
      - from: unlocked
        to: locked
`

func writeDefinition(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "turnstile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(turnstile), 0o600))
	return path
}

func TestRun_Stdout(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), logger.Discard(), options{
		in:      writeDefinition(t),
		format:  "dot",
		rankDir: "TB",
	}, &out)
	require.NoError(t, err)

	assert.Contains(t, out.String(), `digraph "turnstile"`)
	assert.Contains(t, out.String(), `"locked" -> "unlocked" [style=solid label="coin"]`)
	assert.Contains(t, out.String(), "rankdir=TB")
}

func TestRun_File(t *testing.T) {
	target := filepath.Join(t.TempDir(), "out.dot")
	err := run(context.Background(), logger.Discard(), options{
		in:      writeDefinition(t),
		out:     target,
		format:  "dot",
		rankDir: "LR",
	}, &bytes.Buffer{})
	require.NoError(t, err)

	content, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"unlocked" -> "locked"`)
}

func TestRun_Errors(t *testing.T) {
	ctx := context.Background()

	err := run(ctx, logger.Discard(), options{format: "dot"}, &bytes.Buffer{})
	assert.EqualError(t, err, "-in is required")

	err = run(ctx, logger.Discard(), options{in: writeDefinition(t), format: "png"}, &bytes.Buffer{})
	assert.EqualError(t, err, "unknown format 'png'")
}
