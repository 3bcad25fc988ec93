package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/navmodel/internal/stats"
)

func sampleSummaries() []stats.Summary {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return []stats.Summary{
		{Start: t0, End: t0.Add(time.Minute), Frames: 1200, Valid: 1190, ModelP50: 4, ModelP95: 6, ModelMax: 9, DSPP50: 3, DSPP95: 5},
		{Start: t0.Add(time.Minute), End: t0.Add(2 * time.Minute), Frames: 1200, Valid: 1200, ModelP50: 4.5, ModelP95: 7, ModelMax: 12, DSPP50: 3.5, DSPP95: 6},
	}
}

func TestPoints(t *testing.T) {
	pts := points(sampleSummaries(), func(s stats.Summary) float64 { return s.ModelP95 })
	require.Len(t, pts, 2)
	assert.Equal(t, 0.0, pts[0].X)
	assert.Equal(t, 1.0, pts[1].X)
	assert.Equal(t, 7.0, pts[1].Y)
}

func TestPlotSummaries(t *testing.T) {
	out := filepath.Join(t.TempDir(), "latency.png")
	require.NoError(t, plotSummaries(sampleSummaries(), out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")), "output is not a PNG")
}

func TestPlotSummaries_Empty(t *testing.T) {
	err := plotSummaries(nil, filepath.Join(t.TempDir(), "x.png"))
	assert.ErrorIs(t, err, errNoSummaries)
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	writeTable(&buf, sampleSummaries())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "model p95")
	assert.Contains(t, lines[1], "12:00:00")
	assert.Contains(t, lines[2], "12.00")
}
