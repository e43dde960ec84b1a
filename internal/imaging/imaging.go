// Package imaging wraps the image-processing primitives the ranking pipeline
// consumes: grayscale decoding, resizing, intensity histograms and image
// moments.
package imaging

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"os"

	// Registered decoders.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/nfnt/resize"
)

// ErrInvalidImage is returned when an image is missing, corrupt, undecodable
// or empty.
var ErrInvalidImage = errors.New("invalid image")

// DecodeGrayscale reads the image at path and converts it to 8-bit grayscale.
func DecodeGrayscale(path string) (*image.Gray, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode %s: %w", ErrInvalidImage, path, err)
	}

	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("%w: %s image %s has no pixels", ErrInvalidImage, format, path)
	}

	return ToGray(img), nil
}

// ToGray converts img to grayscale. A *image.Gray is returned unchanged.
func ToGray(img image.Image) *image.Gray {
	if gray, ok := img.(*image.Gray); ok {
		return gray
	}

	bounds := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(gray, gray.Bounds(), img, bounds.Min, draw.Src)
	return gray
}

// Resize scales img to width x height using bilinear interpolation.
func Resize(img *image.Gray, width, height int) *image.Gray {
	if img.Bounds().Dx() == width && img.Bounds().Dy() == height {
		return img
	}
	scaled := resize.Resize(uint(width), uint(height), img, resize.Bilinear)
	return ToGray(scaled)
}
