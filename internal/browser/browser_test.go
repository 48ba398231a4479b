package browser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClearStaleLock(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"SingletonLock", "SingletonCookie"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	ClearStaleLock(dir)

	_, err := os.Stat(filepath.Join(dir, "SingletonLock"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "SingletonCookie"))
	assert.True(t, os.IsNotExist(err))
}

func TestClearStaleLockMissingDir(t *testing.T) {
	// Must not panic on a profile that was never created
	ClearStaleLock(filepath.Join(t.TempDir(), "no-such-profile"))
}
