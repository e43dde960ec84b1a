// Package retrieval ranks a directory of candidate images by similarity to a
// query image.
package retrieval

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/iishyfishyy/imgrank/internal/features"
	"github.com/iishyfishyy/imgrank/internal/imaging"
	"github.com/iishyfishyy/imgrank/internal/similarity"
	"github.com/iishyfishyy/imgrank/internal/topk"
)

// Skipped records a candidate excluded from the ranking.
type Skipped struct {
	Path string
	Err  error
}

// Result is the outcome of one ranking run.
type Result struct {
	Query       string
	QueryVector features.Vector

	// Ranked holds at most K candidates, most similar first.
	Ranked []topk.ScoredCandidate

	// Skipped lists candidates that failed to load or extract, by path.
	Skipped []Skipped

	// Evaluated is the number of candidates that were scored.
	Evaluated int

	Elapsed time.Duration
}

// Paths returns the ranked identifiers, most similar first.
func (r *Result) Paths() []string {
	paths := make([]string, len(r.Ranked))
	for i, c := range r.Ranked {
		paths[i] = c.Path
	}
	return paths
}

// Engine compares candidates against a query with a pool of workers.
type Engine struct {
	loader    imaging.Loader
	extractor *features.Extractor
	opts      Options
	log       zerolog.Logger
}

// NewEngine creates an engine that reads images through loader.
func NewEngine(loader imaging.Loader, optFns ...func(o *Options)) (*Engine, error) {
	opts := DefaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	return &Engine{
		loader:    loader,
		extractor: features.NewExtractor(opts.Resolution),
		opts:      opts,
		log:       opts.Logger.With().Str("component", "retrieval").Logger(),
	}, nil
}

// Options returns the engine's effective options.
func (e *Engine) Options() Options {
	return e.opts
}

// Vector loads the image at path and extracts its feature vector.
func (e *Engine) Vector(path string) (features.Vector, error) {
	img, err := e.loader.Load(path)
	if err != nil {
		return features.Vector{}, err
	}
	return e.extractor.Extract(img)
}

// Explain returns the sub-distances between query and the image at path.
func (e *Engine) Explain(query features.Vector, path string) (similarity.Components, error) {
	v, err := e.Vector(path)
	if err != nil {
		return similarity.Components{}, err
	}
	return similarity.Breakdown(query, v), nil
}

// Run scores every candidate against the query image and returns the K most
// similar. A query that cannot be loaded fails the run; candidates that
// cannot be loaded are skipped. An empty candidate list gives an empty
// ranking.
func (e *Engine) Run(ctx context.Context, queryPath string, candidates []string) (*Result, error) {
	start := time.Now()

	query, err := e.Vector(queryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load query image %s: %w", queryPath, err)
	}
	e.log.Debug().Str("query", queryPath).Float64("mean", query.Mean).Msg("query features extracted")

	result := &Result{
		Query:       queryPath,
		QueryVector: query,
		Ranked:      []topk.ScoredCandidate{},
	}
	if len(candidates) == 0 {
		e.log.Info().Msg("no candidates to rank")
		result.Elapsed = time.Since(start)
		return result, nil
	}

	selector := topk.NewSelector(e.opts.K)
	workers := min(e.opts.Workers, len(candidates))

	var (
		evaluated atomic.Int64
		mu        sync.Mutex
		skipped   []Skipped
	)

	paths := make(chan string)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(paths)
		for _, p := range candidates {
			if err := gctx.Err(); err != nil {
				return err
			}
			select {
			case paths <- p:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			var local *topk.List
			if e.opts.Strategy == StrategyMerge {
				local = topk.NewList(e.opts.K)
			}

			for path := range paths {
				v, err := e.Vector(path)
				if err != nil {
					e.log.Warn().Err(err).Str("path", path).Msg("skipping candidate")
					mu.Lock()
					skipped = append(skipped, Skipped{Path: path, Err: err})
					mu.Unlock()
					continue
				}

				c := topk.ScoredCandidate{Path: path, Score: similarity.Distance(query, v)}
				evaluated.Add(1)
				e.log.Debug().Int("worker", w).Str("path", path).Float64("score", c.Score).Msg("candidate scored")

				if local != nil {
					local.Offer(c)
				} else {
					selector.Offer(c)
				}
			}

			if local != nil {
				selector.Merge(local)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(skipped, func(i, j int) bool { return skipped[i].Path < skipped[j].Path })

	result.Ranked = selector.Entries()
	result.Skipped = skipped
	result.Evaluated = int(evaluated.Load())
	result.Elapsed = time.Since(start)

	e.log.Info().
		Int("candidates", len(candidates)).
		Int("evaluated", result.Evaluated).
		Int("skipped", len(skipped)).
		Int("workers", workers).
		Str("strategy", string(e.opts.Strategy)).
		Dur("elapsed", result.Elapsed).
		Msg("ranking complete")

	return result, nil
}
