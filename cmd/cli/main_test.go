package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/gridsweep/internal/cli"
	"github.com/vk/gridsweep/internal/runner"
)

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	args := []string{"-h"}
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(context.Background(), out, &bytes.Buffer{}, args)

	// --- Assert ---
	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	args := []string{"expand", "--this-is-not-a-valid-flag"}
	out := &bytes.Buffer{}

	err := run(context.Background(), out, &bytes.Buffer{}, args)

	require.Error(t, err, "run() should return an error when argument parsing fails")
	require.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
	assert.Equal(t, 2, exitCode(err))
}

func TestRun_InvalidSweep(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// A sweep file with a syntax error.
	invalidHCL := `
		sweep "broken" {
			parameter "a" {
		// Missing closing braces here
	`
	filePath := filepath.Join(t.TempDir(), "sweep.hcl")
	require.NoError(t, os.WriteFile(filePath, []byte(invalidHCL), 0o600))

	// --- Act ---
	err := run(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, []string{"expand", "-log-level", "error", filePath})

	// --- Assert ---
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load sweep")
	assert.Equal(t, 1, exitCode(err))
}

func TestRun_Expand(t *testing.T) {
	t.Parallel()

	filePath := filepath.Join(t.TempDir(), "sweep.hcl")
	require.NoError(t, os.WriteFile(filePath, []byte(`
sweep "small" {
  parameter "x" { values = [1, 2] }
  parameter "y" { values = ["lo", "hi"] }
  joint = [["x", "y"]]
}
`), 0o600))
	out := &bytes.Buffer{}

	err := run(context.Background(), out, &bytes.Buffer{}, []string{"expand", filePath})

	require.NoError(t, err)
	assert.Equal(t, "x=1 y=lo\nx=2 y=hi\n", out.String())
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		err  error
		want int
	}{
		{name: "usage", err: &cli.ExitError{Code: 2, Message: "bad"}, want: 2},
		{name: "child exit status", err: fmt.Errorf("task 3: %w", &runner.ExitCodeError{Code: 42}), want: 42},
		{name: "other", err: errors.New("boom"), want: 1},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, exitCode(tc.err))
		})
	}
}
