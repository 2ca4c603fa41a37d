package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/mctag/internal/eventio"
	"github.com/banshee-data/mctag/internal/report"
	"github.com/banshee-data/mctag/internal/tagging"
)

// Module 7 carries two clusters. Cluster A (strips 12-14) is shared by an
// in-time track and an out-of-time one; cluster B (strips 40-43) by two
// in-time tracks. The second event has no truth.
const fixture = `{"run":1,"lumi":1,"event":1,"collections":{"siStripClusters":[{"det":100663303,"clusters":[{"first_strip":12,"amplitudes":[30,55,40]},{"first_strip":40,"amplitudes":[20,60,58,22]}]}]},"truth":{"links":[` +
	`{"det":100663303,"channel":12,"track":1,"event":{"event":0,"bx":0},"fraction":1,"hit":{"collection":"g4SimHitsTrackerHitsTIBLowTof","index":0}},` +
	`{"det":100663303,"channel":13,"track":2,"event":{"event":3,"bx":-1},"fraction":0.5,"hit":{"collection":"g4SimHitsTrackerHitsTIBLowTof","index":1}},` +
	`{"det":100663303,"channel":40,"track":1,"event":{"event":0,"bx":0},"fraction":1,"hit":{"collection":"g4SimHitsTrackerHitsTIBLowTof","index":2}},` +
	`{"det":100663303,"channel":42,"track":5,"event":{"event":0,"bx":0},"fraction":0.4,"hit":{"collection":"g4SimHitsTrackerHitsTIBLowTof","index":3}}` +
	`],"hits":{"g4SimHitsTrackerHitsTIBLowTof":[` +
	`{"track":1,"event":{"event":0,"bx":0},"det":100663303},` +
	`{"track":2,"event":{"event":3,"bx":-1},"det":100663303},` +
	`{"track":1,"event":{"event":0,"bx":0},"det":100663303},` +
	`{"track":5,"event":{"event":0,"bx":0},"det":100663303}]}}}
{"run":1,"lumi":1,"event":2,"collections":{"siStripClusters":[{"det":100663303,"clusters":[{"first_strip":1,"amplitudes":[9]}]}]}}
`

func writeFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.ndjson")
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0o644))
	return path
}

func readSummary(t *testing.T, path string) report.Summary {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var s report.Summary
	require.NoError(t, json.Unmarshal(data, &s))
	return s
}

func TestRun(t *testing.T) {
	tagging.SetLogWriters(nil, nil, nil)

	tests := []struct {
		name       string
		mode       string
		wantMerged int
	}{
		{"detailed", "detailed", 1},
		{"simplified", "simplified", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			opts := Options{
				EventsFile: writeFixture(t),
				Mode:       tt.mode,
				Workers:    2,
				OutputFile: filepath.Join(dir, "tagged.ndjson"),
				OutputJSON: filepath.Join(dir, "summary.json"),
			}

			var stdout bytes.Buffer
			require.NoError(t, run(context.Background(), opts, &stdout))
			assert.Contains(t, stdout.String(), "merged fraction")

			s := readSummary(t, opts.OutputJSON)
			assert.Equal(t, tt.mode, s.Mode)
			assert.Equal(t, 2, s.Stats.Events)
			assert.Equal(t, 3, s.Stats.Clusters)
			assert.Equal(t, tt.wantMerged, s.Stats.Merged)
			assert.Equal(t, 1, s.Stats.NoTruth)
			assert.Equal(t, tt.wantMerged, s.BySubdetector["TIB"].Merged)

			f, err := os.Open(opts.OutputFile)
			require.NoError(t, err)
			defer f.Close()
			ev, err := eventio.NewReader(f).Next()
			require.NoError(t, err)
			tagged, ok := ev.Clusters("taggedClusters")
			require.True(t, ok)
			clusters, ok := tagged.Find(100663303)
			require.True(t, ok)
			require.Len(t, clusters, 2)
			assert.Equal(t, tt.mode == "simplified", clusters[0].Merged)
			assert.True(t, clusters[1].Merged)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "tagger.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("associate_reco_tracks: true\nworkers: 3\noutput_label: refined\n"), 0o644))

	cfg, err := loadConfig(Options{ConfigFile: cfgPath})
	require.NoError(t, err)
	assert.Equal(t, tagging.ModeSimplified, cfg.Mode)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, "refined", cfg.OutputLabel)
	assert.Equal(t, "siStripClusters", cfg.InputLabel)
	assert.True(t, cfg.Associator.AssociateStrip)
	assert.Len(t, cfg.Associator.ROUList, 8)

	cfg, err = loadConfig(Options{ConfigFile: cfgPath, Mode: "detailed", Workers: 8})
	require.NoError(t, err)
	assert.Equal(t, tagging.ModeDetailed, cfg.Mode)
	assert.Equal(t, 8, cfg.Workers)

	_, err = loadConfig(Options{Mode: "hits"})
	assert.ErrorIs(t, err, tagging.ErrInvalidMode)

	_, err = loadConfig(Options{ConfigFile: filepath.Join(dir, "absent.json")})
	assert.Error(t, err)
}

func TestRun_Errors(t *testing.T) {
	tagging.SetLogWriters(nil, nil, nil)

	err := run(context.Background(), Options{EventsFile: filepath.Join(t.TempDir(), "absent.ndjson")}, &bytes.Buffer{})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = run(ctx, Options{EventsFile: writeFixture(t)}, &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)
}
