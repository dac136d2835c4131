package lockfile

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAcquireShared_MultipleReadersOK(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".mcpadre.lock")

	l1, err := AcquireShared(path)
	require.NoError(t, err)
	defer l1.Release()

	l2, err := AcquireShared(path)
	require.NoError(t, err)
	defer l2.Release()
}

func TestAcquireExclusive_CreatesFileAndReleases(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".mcpadre.lock")

	l, err := AcquireExclusive(path)
	require.NoError(t, err)
	require.NoError(t, l.Release())
}
