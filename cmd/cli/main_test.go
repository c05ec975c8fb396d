package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/jsonform/internal/app"
	"github.com/vk/jsonform/internal/cli"
)

func TestRun_ResolvesForm(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "form.yaml")
	err := os.WriteFile(filePath, []byte("- name: a\n  type: input\n"), 0600)
	require.NoError(t, err, "failed to set up test file")

	out, logs := &bytes.Buffer{}, &bytes.Buffer{}

	// --- Act ---
	runErr := run(out, logs, []string{filePath, "--set", "a=hello"})

	// --- Assert ---
	require.NoError(t, runErr)
	require.Contains(t, out.String(), `"keyPath": "a"`)
	require.Contains(t, out.String(), `"value": "hello"`)
}

func TestRun_LoadError(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// A field tree with a syntax error fails while loading.
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "form.json")
	err := os.WriteFile(filePath, []byte(`[{"name": "a",`), 0600)
	require.NoError(t, err, "failed to set up test file")

	// --- Act ---
	runErr := run(&bytes.Buffer{}, &bytes.Buffer{}, []string{filePath})

	// --- Assert ---
	require.Error(t, runErr)
	require.Contains(t, runErr.Error(), "failed to load fields")
}

func TestRun_ValidationFailure(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "form.json")
	err := os.WriteFile(filePath, []byte(`[{"name": "a", "type": "input", "validators": ["required"]}]`), 0600)
	require.NoError(t, err, "failed to set up test file")
	out := &bytes.Buffer{}

	// --- Act ---
	runErr := run(out, &bytes.Buffer{}, []string{"--validate", filePath})

	// --- Assert ---
	require.ErrorIs(t, runErr, app.ErrValidationFailed)
	require.Contains(t, out.String(), `"error": "this field is required"`, "the tree is printed before failing")
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// The "-h" (help) flag should cause cli.Parse to return `shouldExit=true`.
	args := []string{"-h"}
	out := &bytes.Buffer{}

	// --- Act ---
	// The run function should see `shouldExit=true` and return a nil error.
	err := run(out, &bytes.Buffer{}, args)

	// --- Assert ---
	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// Providing an unknown flag will cause cli.Parse to return an error.
	args := []string{"--this-is-not-a-valid-flag"}

	// --- Act ---
	// The run function should propagate the error from cli.Parse.
	err := run(&bytes.Buffer{}, &bytes.Buffer{}, args)

	// --- Assert ---
	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	require.Equal(t, 2, exitErr.Code)
	require.Contains(t, err.Error(), "unknown flag: --this-is-not-a-valid-flag")
}
