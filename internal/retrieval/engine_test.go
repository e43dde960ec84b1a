package retrieval

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iishyfishyy/imgrank/internal/imaging"
	"github.com/iishyfishyy/imgrank/internal/testutil"
	"github.com/iishyfishyy/imgrank/internal/topk"
)

const testSize = 16

// dataset writes n distinct candidate images and a query into t.TempDir.
func dataset(t *testing.T, n int) (query string, candidates []string) {
	t.Helper()

	dir := t.TempDir()
	query = testutil.WritePNG(t, dir, "query.png", testutil.Gradient(testSize, 100))

	candDir := filepath.Join(dir, "candidates")
	require.NoError(t, os.Mkdir(candDir, 0755))
	for i := 0; i < n; i++ {
		img := testutil.Gradient(testSize, uint8(i*7))
		candidates = append(candidates, testutil.WritePNG(t, candDir, fmt.Sprintf("%03d.png", i), img))
	}
	return query, candidates
}

func newEngine(t *testing.T, fns ...func(o *Options)) *Engine {
	t.Helper()
	fns = append([]func(o *Options){func(o *Options) {
		o.Resolution = testSize
		o.Workers = 4
	}}, fns...)
	e, err := NewEngine(imaging.NewDiskLoader(testSize), fns...)
	require.NoError(t, err)
	return e
}

func TestRun_IdenticalCandidateRanksFirst(t *testing.T) {
	query, candidates := dataset(t, 12)
	dir := filepath.Dir(candidates[0])
	twin := testutil.WritePNG(t, dir, "twin.png", testutil.Gradient(testSize, 100))
	candidates = append(candidates, twin)

	res, err := newEngine(t).Run(context.Background(), query, candidates)
	require.NoError(t, err)

	require.NotEmpty(t, res.Ranked)
	assert.Equal(t, twin, res.Ranked[0].Path)
	assert.Zero(t, res.Ranked[0].Score)
}

func TestRun_EmptyDataset(t *testing.T) {
	query, _ := dataset(t, 0)

	res, err := newEngine(t).Run(context.Background(), query, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Ranked)
	assert.Empty(t, res.Paths())
	assert.Zero(t, res.Evaluated)
}

func TestRun_SkipsUndecodableCandidate(t *testing.T) {
	query, candidates := dataset(t, 6)
	broken := testutil.WriteFile(t, filepath.Dir(candidates[0]), "broken.png", []byte("garbage"))
	all := append([]string{broken}, candidates...)

	res, err := newEngine(t).Run(context.Background(), query, all)
	require.NoError(t, err)

	assert.Len(t, res.Ranked, 6)
	assert.Equal(t, 6, res.Evaluated)
	assert.NotContains(t, res.Paths(), broken)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, broken, res.Skipped[0].Path)
	assert.ErrorIs(t, res.Skipped[0].Err, ErrInvalidImage)
}

func TestRun_InvalidQueryIsFatal(t *testing.T) {
	_, candidates := dataset(t, 3)

	_, err := newEngine(t).Run(context.Background(), filepath.Join(t.TempDir(), "missing.png"), candidates)
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestRun_BoundedAndSorted(t *testing.T) {
	query, candidates := dataset(t, 30)

	res, err := newEngine(t, func(o *Options) { o.K = 5 }).Run(context.Background(), query, candidates)
	require.NoError(t, err)

	require.Len(t, res.Ranked, 5)
	assert.True(t, sort.SliceIsSorted(res.Ranked, func(i, j int) bool {
		return res.Ranked[i].Score < res.Ranked[j].Score
	}))
	assert.Equal(t, 30, res.Evaluated)
}

func TestRun_StrategiesAgree(t *testing.T) {
	query, candidates := dataset(t, 25)

	scoresFor := func(s Strategy, workers int) []float64 {
		res, err := newEngine(t, func(o *Options) {
			o.K = 8
			o.Strategy = s
			o.Workers = workers
		}).Run(context.Background(), query, candidates)
		require.NoError(t, err)

		out := make([]float64, len(res.Ranked))
		for i, c := range res.Ranked {
			out[i] = c.Score
		}
		return out
	}

	sequential := scoresFor(StrategyShared, 1)
	assert.Equal(t, sequential, scoresFor(StrategyShared, 6))
	assert.Equal(t, sequential, scoresFor(StrategyMerge, 6))
}

// fakeLoader serves in-memory images and fails for unknown paths.
type fakeLoader map[string]*image.Gray

func (f fakeLoader) Load(path string) (*image.Gray, error) {
	img, ok := f[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s not found", imaging.ErrInvalidImage, path)
	}
	return img, nil
}

func TestRun_WrongResolutionCandidateSkipped(t *testing.T) {
	loader := fakeLoader{
		"q":     testutil.Gradient(testSize, 1),
		"good":  testutil.Gradient(testSize, 2),
		"small": testutil.Gradient(testSize/2, 2),
	}
	e, err := NewEngine(loader, func(o *Options) { o.Resolution = testSize })
	require.NoError(t, err)

	res, err := e.Run(context.Background(), "q", []string{"good", "small", "gone"})
	require.NoError(t, err)

	assert.Equal(t, []string{"good"}, res.Paths())
	require.Len(t, res.Skipped, 2)
	assert.Equal(t, "gone", res.Skipped[0].Path)
	assert.Equal(t, "small", res.Skipped[1].Path)
}

func TestRun_Cancelled(t *testing.T) {
	loader := fakeLoader{"q": testutil.Gradient(testSize, 1)}
	candidates := make([]string, 100)
	for i := range candidates {
		candidates[i] = fmt.Sprint(i)
		loader[candidates[i]] = testutil.Gradient(testSize, uint8(i))
	}
	e, err := NewEngine(loader, func(o *Options) {
		o.Resolution = testSize
		o.Workers = 2
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = e.Run(ctx, "q", candidates)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestExplain(t *testing.T) {
	query, candidates := dataset(t, 2)
	e := newEngine(t)

	res, err := e.Run(context.Background(), query, candidates)
	require.NoError(t, err)

	for _, c := range res.Ranked {
		comp, err := e.Explain(res.QueryVector, c.Path)
		require.NoError(t, err)
		assert.InDelta(t, c.Score, comp.Total(), 1e-9)
	}
}

func TestNewEngine_Validation(t *testing.T) {
	loader := fakeLoader{}
	tests := []struct {
		name string
		fn   func(o *Options)
		want error
	}{
		{"ZeroK", func(o *Options) { o.K = 0 }, ErrInvalidK},
		{"NoWorkers", func(o *Options) { o.Workers = 0 }, ErrInvalidWorkers},
		{"NoResolution", func(o *Options) { o.Resolution = -1 }, ErrInvalidResolution},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEngine(loader, tt.fn)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := NewEngine(loader, func(o *Options) { o.Strategy = "random" })
	assert.Error(t, err)
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("shared")
	require.NoError(t, err)
	assert.Equal(t, StrategyShared, s)

	_, err = ParseStrategy("")
	assert.Error(t, err)
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, topk.DefaultK, opts.K)
	assert.Equal(t, 500, opts.Resolution)
	assert.Equal(t, StrategyMerge, opts.Strategy)
	assert.Positive(t, opts.Workers)
}
