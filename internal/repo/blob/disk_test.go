package blob

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskStoreRoundTrip(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	storedName, size, err := store.Save("holiday photo.jpg", strings.NewReader("not really a jpeg"))
	require.NoError(t, err)
	assert.Equal(t, int64(len("not really a jpeg")), size)
	assert.True(t, strings.HasPrefix(storedName, "holiday-photo-"), "spaces should become hyphens: %s", storedName)
	assert.True(t, strings.HasSuffix(storedName, ".jpg"))

	rc, err := store.Open(storedName)
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "not really a jpeg", string(data))
}

func TestDiskStoreUniqueNames(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	first, _, err := store.Save("a.txt", strings.NewReader("1"))
	require.NoError(t, err)
	second, _, err := store.Save("a.txt", strings.NewReader("2"))
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestDiskStoreRejectsTraversal(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Open("../etc/passwd")
	assert.Error(t, err)
}
