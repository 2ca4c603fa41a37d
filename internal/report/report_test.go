package report

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/mctag/internal/strip"
	"github.com/banshee-data/mctag/internal/tagging"
	"github.com/banshee-data/mctag/internal/timeutil"
)

func detIn(sub strip.Subdetector, n uint32) strip.DetID {
	return strip.DetID(uint32(sub)<<25 | n)
}

// taggedCollection builds a two-module output: TIB with one unmerged
// cluster (width 2) and one merged cluster (width 4), TOB with one
// unmerged cluster (width 3).
func taggedCollection() *strip.DetSetVector {
	v := strip.NewDetSetVector()
	f := v.StartGroup(detIn(strip.SubdetTIB, 1))
	f.Push(strip.Cluster{FirstStrip: 10, Amplitudes: []uint8{10, 20}})
	f.Push(strip.Cluster{FirstStrip: 30, Amplitudes: []uint8{40, 80, 80, 40}, Merged: true})
	f = v.StartGroup(detIn(strip.SubdetTOB, 2))
	f.Push(strip.Cluster{FirstStrip: 5, Amplitudes: []uint8{30, 60, 30}})
	return v
}

func TestCollector_Summary(t *testing.T) {
	c := NewCollector(tagging.ModeDetailed)
	_, err := uuid.Parse(c.RunID())
	require.NoError(t, err, "run id should be a UUID")

	c.Add(taggedCollection(), tagging.Stats{Events: 1, Modules: 2, Clusters: 3, Merged: 1, Unmerged: 2})
	s := c.Summary()

	assert.Equal(t, c.RunID(), s.RunID)
	assert.Equal(t, "detailed", s.Mode)
	assert.Equal(t, 3, s.Stats.Clusters)
	assert.InDelta(t, 1.0/3.0, s.MergedFraction, 1e-12)

	assert.Equal(t, 1, s.Merged.Count)
	assert.Equal(t, 4.0, s.Merged.MeanWidth)
	assert.Equal(t, 0.0, s.Merged.StdWidth, "single sample has zero spread")
	assert.Equal(t, 240.0, s.Merged.MeanCharge)

	assert.Equal(t, 2, s.Unmerged.Count)
	assert.Equal(t, 2.5, s.Unmerged.MeanWidth)
	assert.InDelta(t, math.Sqrt(0.5), s.Unmerged.StdWidth, 1e-12)
	assert.Equal(t, 2.0, s.Unmerged.MedianWidth)
	assert.Equal(t, 75.0, s.Unmerged.MeanCharge)

	assert.Equal(t, []string{"TIB", "TOB"}, s.SubdetectorNames())
	assert.Equal(t, SubdetCounts{Clusters: 2, Merged: 1}, s.BySubdetector["TIB"])
	assert.Equal(t, SubdetCounts{Clusters: 1, Merged: 0}, s.BySubdetector["TOB"])
}

func TestCollector_Timing(t *testing.T) {
	start := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	clock := timeutil.NewMockClock(start)
	c := NewCollectorWithClock(tagging.ModeDetailed, clock)

	for range 4 {
		c.Add(nil, tagging.Stats{Events: 1, MissingInput: 1})
	}
	clock.Advance(2 * time.Second)

	s := c.Summary()
	assert.Equal(t, start, s.StartedAt)
	assert.Equal(t, 2*time.Second, s.Duration)
	assert.Equal(t, 2.0, s.EventsPerSec)
}

func TestCollector_NoTruthEventsExcluded(t *testing.T) {
	c := NewCollector(tagging.ModeSimplified)
	c.Add(taggedCollection(), tagging.Stats{Events: 1, Clusters: 3, NoTruth: 3})
	c.Add(nil, tagging.Stats{Events: 1, MissingInput: 1})

	s := c.Summary()
	assert.Equal(t, 2, s.Stats.Events)
	assert.Equal(t, 3, s.Stats.NoTruth)
	assert.Equal(t, 1, s.Stats.MissingInput)
	assert.Zero(t, s.Merged.Count)
	assert.Zero(t, s.Unmerged.Count)
	assert.Zero(t, s.MergedFraction)
	assert.Empty(t, s.BySubdetector)
}

func TestSummary_Output(t *testing.T) {
	c := NewCollector(tagging.ModeDetailed)
	c.Add(taggedCollection(), tagging.Stats{Events: 1, Modules: 2, Clusters: 3, Merged: 1, Unmerged: 2})
	s := c.Summary()

	var buf bytes.Buffer
	require.NoError(t, s.WriteText(&buf))
	out := buf.String()
	assert.Contains(t, out, s.RunID)
	assert.Contains(t, out, "merged fraction")
	assert.Contains(t, out, "TOB")

	path := filepath.Join(t.TempDir(), "out", "summary.json")
	require.NoError(t, s.WriteJSON(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, s.RunID, decoded["run_id"])
	stats, ok := decoded["stats"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 3, stats["clusters"])
}

func TestCollector_PlotWidths(t *testing.T) {
	c := NewCollector(tagging.ModeDetailed)
	err := c.PlotWidths(filepath.Join(t.TempDir(), "empty.png"))
	assert.ErrorIs(t, err, ErrNoSamples)

	c.Add(taggedCollection(), tagging.Stats{Events: 1, Clusters: 3, Merged: 1, Unmerged: 2})
	path := filepath.Join(t.TempDir(), "widths.png")
	require.NoError(t, c.PlotWidths(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestCollector_WidthsAreCopies(t *testing.T) {
	c := NewCollector(tagging.ModeDetailed)
	c.Add(taggedCollection(), tagging.Stats{})

	merged, unmerged := c.Widths()
	require.Len(t, merged, 1)
	require.Len(t, unmerged, 2)
	merged[0] = 99

	again, _ := c.Widths()
	assert.Equal(t, 4.0, again[0])
}

func TestWidthHistogram(t *testing.T) {
	h := widthHistogram([]float64{1, 3, 3, 7}, 4)
	require.Len(t, h.Bins, 4)

	weights := make([]float64, len(h.Bins))
	for i, b := range h.Bins {
		weights[i] = b.Weight
		assert.Equal(t, float64(i+1)-0.5, b.Min)
		assert.Equal(t, float64(i+1)+0.5, b.Max)
	}
	// Width 7 lies beyond the requested range and is dropped.
	assert.Equal(t, []float64{1, 0, 2, 0}, weights)
}
