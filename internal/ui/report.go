package ui

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/iishyfishyy/imgrank/internal/similarity"
	"github.com/iishyfishyy/imgrank/internal/topk"
)

// RenderRanking prints the ranked candidates, most similar first
func RenderRanking(w io.Writer, ranked []topk.ScoredCandidate) {
	if len(ranked) == 0 {
		color.New(color.FgHiBlack).Fprintln(w, "  (no matches)")
		return
	}

	gray := color.New(color.FgHiBlack)
	green := color.New(color.FgGreen)
	for i, c := range ranked {
		fmt.Fprintf(w, "  %2d. ", i+1)
		if c.Score == 0 {
			green.Fprintf(w, "%14s", "identical")
		} else {
			gray.Fprintf(w, "%14s", formatScore(c.Score))
		}
		fmt.Fprintf(w, "  %s\n", c.Path)
	}
}

// formatScore renders a score with thousands separators, rounded to three decimals
func formatScore(score float64) string {
	return humanize.CommafWithDigits(math.Round(score*1000)/1000, 3)
}

// RenderBreakdown prints the five sub-distances of one candidate
func RenderBreakdown(w io.Writer, c similarity.Components) {
	fmt.Fprintf(w, "      mean=%.3f median=%.3f stddev=%.3f hu=%.6f histogram=%.3f\n",
		c.Mean, c.Median, c.StdDev, c.HuMoments, c.Histogram)
}

// RenderSummary prints counts of a finished run
func RenderSummary(w io.Writer, candidates, evaluated, skipped int) {
	fmt.Fprintf(w, "Compared %s of %s candidates", humanize.Comma(int64(evaluated)), humanize.Comma(int64(candidates)))
	if skipped > 0 {
		color.New(color.FgYellow).Fprintf(w, " (%d skipped)", skipped)
	}
	fmt.Fprintln(w)
}

// RenderTiming prints the wall-clock duration of a run
func RenderTiming(w io.Writer, elapsed time.Duration) {
	fmt.Fprintf(w, "Time taken: %d microseconds\n", elapsed.Microseconds())
}
