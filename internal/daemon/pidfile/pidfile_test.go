package pidfile

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/knivier/kinera/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireAndRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run", "kinerad.pid")

	require.NoError(t, Acquire(path))

	pid, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)

	running, pid, err := IsRunning(path)
	require.NoError(t, err)
	assert.True(t, running)
	assert.Equal(t, os.Getpid(), pid)

	require.NoError(t, Release(path))

	running, _, err = IsRunning(path)
	require.NoError(t, err)
	assert.False(t, running)
}

func TestAcquireRejectsLivePid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kinerad.pid")

	// Our own PID is definitely alive.
	require.NoError(t, os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0644))

	err := Acquire(path)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeDaemonAlreadyRunning, errors.GetCode(err))
}

func TestAcquireCleansStalePid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kinerad.pid")

	// A very large PID that cannot exist.
	require.NoError(t, os.WriteFile(path, []byte("99999999"), 0644))

	require.NoError(t, Acquire(path))

	pid, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)
}
