package testutil

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/specialistvlad/pipegraph/internal/app"
	"github.com/stretchr/testify/require"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// WriteFiles writes files, keyed by slash separated relative path, under a
// fresh temporary directory and returns that directory.
func WriteFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

// HarnessResult holds the outcomes of an application run.
type HarnessResult struct {
	Root      string
	Output    string
	LogOutput string
	Err       error
}

// Operation is one of the App entry points.
type Operation func(a *app.App, ctx context.Context) error

// RunApp writes files to a temporary directory, builds an App from cfg and
// runs op. Relative ManifestPaths and ComponentsPath in cfg are resolved
// against that directory.
func RunApp(t *testing.T, files map[string]string, cfg app.Config, op Operation) *HarnessResult {
	t.Helper()
	root := WriteFiles(t, files)

	for i, p := range cfg.ManifestPaths {
		cfg.ManifestPaths[i] = filepath.Join(root, filepath.FromSlash(p))
	}
	if cfg.ComponentsPath != "" {
		cfg.ComponentsPath = filepath.Join(root, filepath.FromSlash(cfg.ComponentsPath))
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "debug"
	}
	if cfg.WorkerCount == 0 {
		cfg.WorkerCount = 4
	}
	cfg.NoColor = true

	result := &HarnessResult{Root: root}
	config, err := app.NewConfig(cfg)
	if err != nil {
		result.Err = err
		return result
	}

	out, logs := &SafeBuffer{}, &SafeBuffer{}
	a, err := app.NewApp(context.Background(), out, logs, config)
	if err == nil {
		err = op(a, context.Background())
	}

	if os.Getenv("PIPEGRAPH_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
	}

	result.Output = out.String()
	result.LogOutput = logs.String()
	result.Err = err
	return result
}
