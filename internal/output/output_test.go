package output

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteRanking(t *testing.T) {
	file := filepath.Join(t.TempDir(), "best.txt")

	require.NoError(t, WriteRanking(file, []string{"data/b.jpg", "data/a.jpg"}))

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "data/b.jpg\ndata/a.jpg\n", string(data))
}

func TestWriteRanking_EmptyTruncates(t *testing.T) {
	file := filepath.Join(t.TempDir(), "best.txt")
	require.NoError(t, os.WriteFile(file, []byte("stale\n"), 0644))

	require.NoError(t, WriteRanking(file, nil))

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestWriteRanking_Unwritable(t *testing.T) {
	file := filepath.Join(t.TempDir(), "missing", "best.txt")

	err := WriteRanking(file, []string{"x"})
	assert.ErrorIs(t, err, ErrIOFailure)
}
