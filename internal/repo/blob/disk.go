package blob

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store holds attachment bytes. The metadata record in Mongo keeps the
// stored name returned by Save.
type Store interface {
	Save(name string, r io.Reader) (storedName string, size int64, err error)
	Open(storedName string) (io.ReadCloser, error)
}

type diskStore struct {
	dir string
}

func NewDiskStore(dir string) (Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob dir: %w", err)
	}
	return &diskStore{dir: dir}, nil
}

func (s *diskStore) Save(name string, r io.Reader) (string, int64, error) {
	storedName := uniqueName(name)

	f, err := os.Create(filepath.Join(s.dir, storedName))
	if err != nil {
		return "", 0, fmt.Errorf("failed to create blob file: %w", err)
	}
	defer f.Close()

	size, err := io.Copy(f, r)
	if err != nil {
		os.Remove(f.Name())
		return "", 0, fmt.Errorf("failed to write blob file: %w", err)
	}
	return storedName, size, nil
}

func (s *diskStore) Open(storedName string) (io.ReadCloser, error) {
	// The stored name is server-generated, but reject traversal anyway.
	if storedName != filepath.Base(storedName) {
		return nil, fmt.Errorf("invalid blob name %q", storedName)
	}
	f, err := os.Open(filepath.Join(s.dir, storedName))
	if err != nil {
		return nil, fmt.Errorf("failed to open blob file: %w", err)
	}
	return f, nil
}

// uniqueName normalizes the original filename and appends a random suffix so
// repeated uploads of the same file never collide.
func uniqueName(name string) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(filepath.Base(name), ext)
	base = strings.Join(strings.Fields(base), "-")
	if base == "" {
		base = "file"
	}
	return fmt.Sprintf("%s-%d-%s%s", base, time.Now().UnixMilli(), uuid.NewString()[:8], ext)
}
