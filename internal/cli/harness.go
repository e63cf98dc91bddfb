package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Harness provides a clean interface for running an App in tests.
// It manages a temp directory for file arguments.
type Harness struct {
	t   *testing.T
	app *App
	Dir string
}

// NewHarness creates a test harness with a temp directory.
func NewHarness(t *testing.T, app *App) *Harness {
	t.Helper()

	return &Harness{
		t:   t,
		app: app,
		Dir: t.TempDir(),
	}
}

// Run executes the app with the given args and returns stdout, stderr,
// and exit code. Args should not include the binary name.
func (h *Harness) Run(args ...string) (string, string, int) {
	var outBuf, errBuf bytes.Buffer

	code := h.app.Main(context.Background(), nil, &outBuf, &errBuf, args)

	return outBuf.String(), errBuf.String(), code
}

// RunWithInput executes the app with stdin and returns stdout, stderr,
// and exit code. stdin must be a string or io.Reader; panics otherwise.
func (h *Harness) RunWithInput(stdin any, args ...string) (string, string, int) {
	var inReader io.Reader

	switch v := stdin.(type) {
	case string:
		inReader = strings.NewReader(v)
	case io.Reader:
		inReader = v
	default:
		panic(fmt.Sprintf("stdin must be string or io.Reader, got %T", stdin))
	}

	var outBuf, errBuf bytes.Buffer

	code := h.app.Main(context.Background(), inReader, &outBuf, &errBuf, args)

	return outBuf.String(), errBuf.String(), code
}

// MustRun executes the app and fails the test if the command returns
// non-zero. Returns trimmed stdout on success.
func (h *Harness) MustRun(args ...string) string {
	h.t.Helper()

	stdout, stderr, code := h.Run(args...)
	if code != 0 {
		h.t.Fatalf("command %v failed with exit code %d\nstderr: %s", args, code, stderr)
	}

	return strings.TrimSpace(stdout)
}

// MustFail executes the app and fails the test if the command succeeds.
// Returns trimmed stderr.
func (h *Harness) MustFail(args ...string) string {
	h.t.Helper()

	stdout, stderr, code := h.Run(args...)
	if code == 0 {
		h.t.Fatalf("command %v should have failed but succeeded\nstdout: %s", args, stdout)
	}

	return strings.TrimSpace(stderr)
}

// WriteFile writes content under the harness directory and returns the
// absolute path.
func (h *Harness) WriteFile(name, content string) string {
	h.t.Helper()

	path := filepath.Join(h.Dir, name)

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		h.t.Fatalf("failed to create directory for %s: %v", name, err)
	}

	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		h.t.Fatalf("failed to write %s: %v", name, err)
	}

	return path
}

// WriteBinary writes raw bytes under the harness directory and returns
// the absolute path.
func (h *Harness) WriteBinary(name string, content []byte) string {
	h.t.Helper()

	path := filepath.Join(h.Dir, name)

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		h.t.Fatalf("failed to create directory for %s: %v", name, err)
	}

	if err := os.WriteFile(path, content, 0o600); err != nil {
		h.t.Fatalf("failed to write %s: %v", name, err)
	}

	return path
}

// ReadFile reads a file under the harness directory.
func (h *Harness) ReadFile(name string) []byte {
	h.t.Helper()

	content, err := os.ReadFile(filepath.Join(h.Dir, name))
	if err != nil {
		h.t.Fatalf("failed to read %s: %v", name, err)
	}

	return content
}

// Path returns the absolute path for a name under the harness
// directory without creating it.
func (h *Harness) Path(name string) string {
	return filepath.Join(h.Dir, name)
}
