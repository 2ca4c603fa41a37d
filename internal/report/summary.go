// Package report summarises tagging runs for cluster-finding evaluation:
// merged fractions, width and charge distributions of merged versus
// unmerged clusters, and per-subdetector breakdowns.
package report

import (
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/mctag/internal/strip"
	"github.com/banshee-data/mctag/internal/tagging"
	"github.com/banshee-data/mctag/internal/timeutil"
)

// Population describes one class of clusters.
type Population struct {
	Count       int     `json:"count"`
	MeanWidth   float64 `json:"mean_width"`
	StdWidth    float64 `json:"std_width"`
	MedianWidth float64 `json:"median_width"`
	MeanCharge  float64 `json:"mean_charge"`
	StdCharge   float64 `json:"std_charge"`
}

// SubdetCounts holds merged/total cluster counts for one partition.
type SubdetCounts struct {
	Clusters int `json:"clusters"`
	Merged   int `json:"merged"`
}

// Summary is the result of one tagging run.
type Summary struct {
	RunID          string                  `json:"run_id"`
	Mode           string                  `json:"mode"`
	StartedAt      time.Time               `json:"started_at"`
	Duration       time.Duration           `json:"duration_ns"`
	EventsPerSec   float64                 `json:"events_per_sec"`
	Stats          tagging.Stats           `json:"stats"`
	MergedFraction float64                 `json:"merged_fraction"`
	Merged         Population              `json:"merged"`
	Unmerged       Population              `json:"unmerged"`
	BySubdetector  map[string]SubdetCounts `json:"by_subdetector"`
}

// Collector accumulates tagged collections over a run.
// It is not safe for concurrent use.
type Collector struct {
	runID   string
	mode    tagging.Mode
	clock   timeutil.Clock
	started time.Time

	stats tagging.Stats

	mergedWidths, mergedCharges     []float64
	unmergedWidths, unmergedCharges []float64
	subdets                         map[strip.Subdetector]SubdetCounts
}

// NewCollector starts a run in the given mode.
func NewCollector(mode tagging.Mode) *Collector {
	return NewCollectorWithClock(mode, timeutil.RealClock{})
}

// NewCollectorWithClock is NewCollector timed by clock.
func NewCollectorWithClock(mode tagging.Mode, clock timeutil.Clock) *Collector {
	return &Collector{
		runID:   uuid.NewString(),
		mode:    mode,
		clock:   clock,
		started: clock.Now(),
		subdets: make(map[strip.Subdetector]SubdetCounts),
	}
}

// RunID returns the identifier assigned to this run.
func (c *Collector) RunID() string { return c.runID }

// Add records one event's tagged output and its producer stats.
// Clusters from events without truth are counted in the stats but kept out
// of the unmerged population.
func (c *Collector) Add(out *strip.DetSetVector, stats tagging.Stats) {
	c.stats.Add(stats)
	if out == nil || stats.NoTruth > 0 {
		return
	}
	for det, clusters := range out.All() {
		sub := det.Subdetector()
		counts := c.subdets[sub]
		for _, cl := range clusters {
			w, q := float64(cl.Width()), float64(cl.Charge())
			counts.Clusters++
			if cl.Merged {
				counts.Merged++
				c.mergedWidths = append(c.mergedWidths, w)
				c.mergedCharges = append(c.mergedCharges, q)
			} else {
				c.unmergedWidths = append(c.unmergedWidths, w)
				c.unmergedCharges = append(c.unmergedCharges, q)
			}
		}
		c.subdets[sub] = counts
	}
}

// Widths returns copies of the merged and unmerged width samples.
func (c *Collector) Widths() (merged, unmerged []float64) {
	return slices.Clone(c.mergedWidths), slices.Clone(c.unmergedWidths)
}

// Summary computes the run summary at this point.
func (c *Collector) Summary() Summary {
	s := Summary{
		RunID:         c.runID,
		Mode:          c.mode.String(),
		StartedAt:     c.started,
		Duration:      c.clock.Since(c.started),
		Stats:         c.stats,
		Merged:        population(c.mergedWidths, c.mergedCharges),
		Unmerged:      population(c.unmergedWidths, c.unmergedCharges),
		BySubdetector: make(map[string]SubdetCounts, len(c.subdets)),
	}
	if secs := s.Duration.Seconds(); secs > 0 {
		s.EventsPerSec = float64(s.Stats.Events) / secs
	}
	if tagged := s.Merged.Count + s.Unmerged.Count; tagged > 0 {
		s.MergedFraction = float64(s.Merged.Count) / float64(tagged)
	}
	for sub, counts := range c.subdets {
		s.BySubdetector[sub.String()] = counts
	}
	return s
}

// SubdetectorNames returns the partitions present in s, sorted.
func (s Summary) SubdetectorNames() []string {
	names := make([]string, 0, len(s.BySubdetector))
	for n := range s.BySubdetector {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func population(widths, charges []float64) Population {
	p := Population{Count: len(widths)}
	if p.Count == 0 {
		return p
	}
	p.MeanWidth, p.StdWidth = meanStd(widths)
	p.MeanCharge, p.StdCharge = meanStd(charges)

	sorted := slices.Clone(widths)
	slices.Sort(sorted)
	p.MedianWidth = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	return p
}

// meanStd returns the mean and sample standard deviation; the deviation of
// a single sample is reported as zero.
func meanStd(x []float64) (mean, std float64) {
	if len(x) < 2 {
		return stat.Mean(x, nil), 0
	}
	return stat.MeanStdDev(x, nil)
}
