package retrieval

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/rs/zerolog"

	"github.com/iishyfishyy/imgrank/internal/features"
	"github.com/iishyfishyy/imgrank/internal/imaging"
	"github.com/iishyfishyy/imgrank/internal/topk"
)

var (
	// ErrInvalidImage marks a query or candidate image that could not be used.
	ErrInvalidImage = imaging.ErrInvalidImage

	// ErrInvalidK is returned when K is not positive.
	ErrInvalidK = errors.New("k must be positive")

	// ErrInvalidWorkers is returned when the worker count is not positive.
	ErrInvalidWorkers = errors.New("workers must be positive")

	// ErrInvalidResolution is returned when the canonical size is not positive.
	ErrInvalidResolution = errors.New("resolution must be positive")
)

// Strategy selects how workers feed the shared top-K selector.
type Strategy string

const (
	// StrategyMerge gives each worker its own bounded list and merges the
	// lists once the worker is done.
	StrategyMerge Strategy = "merge"

	// StrategyShared offers every scored candidate to the shared selector
	// directly, taking its lock once per candidate.
	StrategyShared Strategy = "shared"
)

// ParseStrategy converts a name into a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyMerge, StrategyShared:
		return Strategy(s), nil
	default:
		return "", fmt.Errorf("unknown strategy %q (want %q or %q)", s, StrategyMerge, StrategyShared)
	}
}

// Options configures an Engine.
type Options struct {
	// K is the number of ranked candidates to keep.
	K int

	// Workers is the number of candidates evaluated in parallel.
	Workers int

	// Resolution is the canonical width and height of extracted images. The
	// loader must produce images of this size.
	Resolution int

	Strategy Strategy

	Logger zerolog.Logger
}

// DefaultOptions returns the default engine options.
func DefaultOptions() Options {
	return Options{
		K:          topk.DefaultK,
		Workers:    runtime.NumCPU(),
		Resolution: features.CanonicalSize,
		Strategy:   StrategyMerge,
		Logger:     zerolog.Nop(),
	}
}

func (o Options) validate() error {
	if o.K <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidK, o.K)
	}
	if o.Workers <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, o.Workers)
	}
	if o.Resolution <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidResolution, o.Resolution)
	}
	if _, err := ParseStrategy(string(o.Strategy)); err != nil {
		return err
	}
	return nil
}
