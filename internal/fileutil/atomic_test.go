package fileutil

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "games.json")

	require.NoError(t, WriteFileAtomic(testFile, []byte(`{"games":[]}`), 0644))

	data, err := os.ReadFile(testFile)
	require.NoError(t, err)
	assert.Equal(t, `{"games":[]}`, string(data))

	info, err := os.Stat(testFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())

	assertOnlyFile(t, tmpDir, "games.json")
}

func TestWriteFileAtomicOverwrite(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "games.json")

	require.NoError(t, WriteFileAtomic(testFile, []byte("initial"), 0644))
	require.NoError(t, WriteFileAtomic(testFile, []byte("updated content"), 0644))

	data, err := os.ReadFile(testFile)
	require.NoError(t, err)
	assert.Equal(t, "updated content", string(data))
}

func TestWriteAtomicWriterErrorKeepsOldFile(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "games.jsonl")
	require.NoError(t, WriteFileAtomic(testFile, []byte("old"), 0644))

	boom := errors.New("encoder failed")
	err := WriteAtomic(testFile, 0644, func(w io.Writer) error {
		if _, err := io.WriteString(w, "partial"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	data, err := os.ReadFile(testFile)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))
	assertOnlyFile(t, tmpDir, "games.jsonl")
}

func TestWriteFileAtomicInvalidDir(t *testing.T) {
	t.Parallel()

	err := WriteFileAtomic("/nonexistent/dir/test.txt", []byte("data"), 0644)
	assert.Error(t, err)
}

func assertOnlyFile(t *testing.T, dir, name string) {
	t.Helper()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, entry := range entries {
		assert.Equal(t, name, entry.Name(), "unexpected file in directory")
	}
}
