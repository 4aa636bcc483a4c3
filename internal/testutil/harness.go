// Package testutil provides the shared harness for inclusion tests: it
// materializes fragment trees in a temporary directory, runs an engine over
// them, and captures the debug log for assertions.
package testutil

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/splithcl/internal/ctxlog"
	"github.com/vk/splithcl/internal/engine"
	"github.com/vk/splithcl/internal/scope"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements io.Writer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements fmt.Stringer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// Result holds the outcome of one harness run.
type Result struct {
	Scope     *scope.Scope
	Engine    *engine.Engine
	Err       error
	LogOutput string
	Dir       string
}

// WriteTree materializes the given relative-path → source mapping under a
// fresh temporary directory and returns its root.
func WriteTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

// RunInclude writes the fragment tree, builds an engine rooted at it, and
// includes root into a fresh scope. Search paths for dotted references point
// at the tree root.
func RunInclude(t *testing.T, files map[string]string, root string) *Result {
	t.Helper()
	return run(t, files, root, false)
}

// RunOptional is RunInclude through the optional entry point.
func RunOptional(t *testing.T, files map[string]string, root string) *Result {
	t.Helper()
	return run(t, files, root, true)
}

func run(t *testing.T, files map[string]string, root string, optional bool) *Result {
	t.Helper()

	dir := WriteTree(t, files)

	logBuf := &SafeBuffer{}
	logger := slog.New(slog.NewTextHandler(logBuf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := ctxlog.WithLogger(context.Background(), logger)

	eng := engine.New(engine.Options{
		BaseDir:     dir,
		SearchPaths: []string{dir},
	})
	sc := scope.New()

	var err error
	if optional {
		err = eng.Optional(ctx, root, sc)
	} else {
		err = eng.Include(ctx, root, sc)
	}

	return &Result{
		Scope:     sc,
		Engine:    eng,
		Err:       err,
		LogOutput: logBuf.String(),
		Dir:       dir,
	}
}
