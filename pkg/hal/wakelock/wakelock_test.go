// ABOUTME: Tests for wake lock backends
// ABOUTME: Covers sysfs writes against a temp dir and recorder bookkeeping
package wakelock

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSysfs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"wake_lock", "wake_unlock"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}

	s := NewSysfs(dir)
	require.NoError(t, s.Acquire("AudioOutLock"))
	require.NoError(t, s.Release("AudioOutLock"))

	lock, err := os.ReadFile(filepath.Join(dir, "wake_lock"))
	require.NoError(t, err)
	assert.Equal(t, "AudioOutLock", string(lock))

	unlock, err := os.ReadFile(filepath.Join(dir, "wake_unlock"))
	require.NoError(t, err)
	assert.Equal(t, "AudioOutLock", string(unlock))

	assert.Error(t, s.Acquire(""))
}

func TestSysfsMissingFiles(t *testing.T) {
	s := NewSysfs(t.TempDir())
	assert.Error(t, s.Acquire("AudioOutLock"))
}

func TestNewSysfsDefaultDir(t *testing.T) {
	assert.Equal(t, DefaultSysfsDir, NewSysfs("").Dir)
}

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	require.NoError(t, r.Acquire("a"))
	assert.True(t, r.Held("a"))
	require.NoError(t, r.Release("a"))
	assert.False(t, r.Held("a"))
	assert.Equal(t, 1, r.Acquires("a"))
	assert.Equal(t, 1, r.Releases("a"))
	assert.Equal(t, 0, r.Acquires("b"))
}
