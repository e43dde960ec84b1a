// Package output writes ranking results to disk.
package output

import (
	"bufio"
	"errors"
	"fmt"
	"os"
)

// DefaultPath is the ranking file written when no output is configured.
const DefaultPath = "best_images.txt"

// ErrIOFailure is returned when the ranking file cannot be created or written.
var ErrIOFailure = errors.New("failed to write output")

// WriteRanking writes one path per line, in the given order, to file.
// An existing file is truncated.
func WriteRanking(file string, paths []string) (err error) {
	f, err := os.Create(file)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: %w", ErrIOFailure, cerr)
		}
	}()

	w := bufio.NewWriter(f)
	for _, p := range paths {
		if _, err := fmt.Fprintln(w, p); err != nil {
			return fmt.Errorf("%w: %w", ErrIOFailure, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}

	return nil
}
