package ui

import (
	"bytes"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/iishyfishyy/imgrank/internal/topk"
)

func init() {
	color.NoColor = true
}

func TestRenderRanking(t *testing.T) {
	var buf bytes.Buffer
	RenderRanking(&buf, []topk.ScoredCandidate{
		{Path: "twin.jpg", Score: 0},
		{Path: "near.jpg", Score: 12345.6789},
	})

	out := buf.String()
	assert.Contains(t, out, " 1.")
	assert.Contains(t, out, "identical  twin.jpg")
	assert.Contains(t, out, "12,345.679  near.jpg")
}

func TestRenderRanking_Empty(t *testing.T) {
	var buf bytes.Buffer
	RenderRanking(&buf, nil)
	assert.Contains(t, buf.String(), "no matches")
}

func TestRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	RenderSummary(&buf, 1200, 1199, 1)
	assert.Equal(t, "Compared 1,199 of 1,200 candidates (1 skipped)\n", buf.String())
}

func TestRenderTiming(t *testing.T) {
	var buf bytes.Buffer
	RenderTiming(&buf, 1500*time.Microsecond)
	assert.Equal(t, "Time taken: 1500 microseconds\n", buf.String())
}

func TestFormatScore_Rounds(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{12345.6789, "12,345.679"},
		{0.0004, "0"},
		{1.2, "1.2"},
		{999.9996, "1,000"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatScore(tt.score), "score %v", tt.score)
	}
}
