package filex

import (
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteSecret_CreatesDirAndFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token")

	require.NoError(t, WriteSecret(path, []byte("abc")))

	got, err := ReadSecret(path)
	require.NoError(t, err)
	require.Equal(t, "abc", string(got))

	if runtime.GOOS != "windows" {
		fi, err := os.Stat(path)
		require.NoError(t, err)
		require.Equal(t, fs.FileMode(0o600), fi.Mode().Perm())

		di, err := os.Stat(filepath.Dir(path))
		require.NoError(t, err)
		require.Equal(t, fs.FileMode(0o700), di.Mode().Perm())
	}
}

func TestWriteSecret_Replaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	require.NoError(t, WriteSecret(path, []byte("first")))
	require.NoError(t, WriteSecret(path, []byte("second")))

	got, err := ReadSecret(path)
	require.NoError(t, err)
	require.Equal(t, "second", string(got))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not be left behind")
}

func TestReadSecret_Missing(t *testing.T) {
	_, err := ReadSecret(filepath.Join(t.TempDir(), "none"))
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestRemoveSecret(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	require.NoError(t, WriteSecret(path, []byte("x")))

	removed, err := RemoveSecret(path)
	require.NoError(t, err)
	require.True(t, removed)

	removed, err = RemoveSecret(path)
	require.NoError(t, err)
	require.False(t, removed)
}

func TestWriteSecret_ParentIsFile(t *testing.T) {
	parent := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(parent, nil, 0o600))

	require.Error(t, WriteSecret(filepath.Join(parent, "token"), []byte("x")))
}
