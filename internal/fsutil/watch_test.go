package fsutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUntilModified_CancelsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pipeline.yaml")
	writeFile(t, path)

	ctx, cancel, err := UntilModified(context.Background(), path)
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, os.WriteFile(path, []byte("x: 2\n"), 0o644))

	select {
	case <-ctx.Done():
		assert.Contains(t, context.Cause(ctx).Error(), "pipeline.yaml changed")
	case <-time.After(5 * time.Second):
		t.Fatal("context was not cancelled after the file changed")
	}
}

func TestUntilModified_CancelFunc(t *testing.T) {
	ctx, cancel, err := UntilModified(context.Background(), t.TempDir())
	require.NoError(t, err)

	cancel()
	<-ctx.Done()
	assert.ErrorIs(t, context.Cause(ctx), context.Canceled)
}

func TestUntilModified_MissingPath(t *testing.T) {
	ctx, cancel, err := UntilModified(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
	assert.Nil(t, ctx)
	assert.Nil(t, cancel)
}
