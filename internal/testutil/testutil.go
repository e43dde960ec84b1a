// Package testutil provides image fixtures shared by package tests.
package testutil

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// Gradient returns a size x size grayscale image whose intensity depends on
// position and seed, so different seeds give different feature vectors.
func Gradient(size int, seed uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.Pix[y*img.Stride+x] = uint8(x*int(seed+1)+y*3) + seed
		}
	}
	return img
}

// Uniform returns a size x size image filled with v.
func Uniform(size int, v uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, size, size))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

// WritePNG encodes img as PNG into dir/name and returns the full path.
func WritePNG(t testing.TB, dir, name string, img image.Image) string {
	t.Helper()

	path := filepath.Join(dir, name)
	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()

	require.NoError(t, png.Encode(file, img))
	return path
}

// WriteFile writes raw bytes into dir/name and returns the full path.
func WriteFile(t testing.TB, dir, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}
