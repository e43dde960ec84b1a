package imaging

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
)

// Loader produces a decoded grayscale image, already scaled to the working
// resolution, for a path.
type Loader interface {
	Load(path string) (*image.Gray, error)
}

// DiskLoader decodes images from the local filesystem and resizes them to a
// square of Size pixels.
type DiskLoader struct {
	Size int
}

// NewDiskLoader creates a loader that resizes to size x size.
func NewDiskLoader(size int) *DiskLoader {
	return &DiskLoader{Size: size}
}

// Load decodes and resizes the image at path
func (l *DiskLoader) Load(path string) (*image.Gray, error) {
	img, err := DecodeGrayscale(path)
	if err != nil {
		return nil, err
	}
	return Resize(img, l.Size, l.Size), nil
}

// ListFiles returns the files in dir in lexical order. Subdirectories and
// hidden files are skipped. A missing directory yields an empty list.
func ListFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if entry.IsDir() {
			continue
		}
		paths = append(paths, filepath.Join(dir, name))
	}

	return paths, nil
}
