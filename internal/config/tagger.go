// Package config loads the merged-cluster tagger configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is the path to the canonical tagger defaults file.
const DefaultConfigPath = "config/tagger.defaults.json"

// Defaults mirrored by config/tagger.defaults.json.
const (
	DefaultUntaggedClusterProducer = "siStripClusters"
	DefaultOutputLabel             = "taggedClusters"
	DefaultReserveClusters         = 10000
	DefaultReserveSamples          = 4 * DefaultReserveClusters
)

// DefaultROUList is the set of strip tracker SimHit collections searched for
// hit-level truth.
var DefaultROUList = []string{
	"g4SimHitsTrackerHitsTIBLowTof",
	"g4SimHitsTrackerHitsTIBHighTof",
	"g4SimHitsTrackerHitsTIDLowTof",
	"g4SimHitsTrackerHitsTIDHighTof",
	"g4SimHitsTrackerHitsTOBLowTof",
	"g4SimHitsTrackerHitsTOBHighTof",
	"g4SimHitsTrackerHitsTECLowTof",
	"g4SimHitsTrackerHitsTECHighTof",
}

// TaggerConfig is the merged-cluster tagger configuration. Every field is
// optional; Get* accessors supply the defaults.
type TaggerConfig struct {
	// Input / output collections
	UntaggedClusterProducer *string `json:"untagged_cluster_producer,omitempty" yaml:"untagged_cluster_producer,omitempty"`
	OutputLabel             *string `json:"output_label,omitempty" yaml:"output_label,omitempty"`

	// Association mode. Mode, when set, overrides AssociateRecoTracks.
	AssociateRecoTracks *bool   `json:"associate_reco_tracks,omitempty" yaml:"associate_reco_tracks,omitempty"`
	Mode                *string `json:"mode,omitempty" yaml:"mode,omitempty"` // "detailed" or "simplified"

	// Associator params
	AssociateStrip *bool    `json:"associate_strip,omitempty" yaml:"associate_strip,omitempty"`
	ROUList        []string `json:"rou_list,omitempty" yaml:"rou_list,omitempty"`

	// Output sizing and parallelism
	ReserveClusters *int `json:"reserve_clusters,omitempty" yaml:"reserve_clusters,omitempty"`
	ReserveSamples  *int `json:"reserve_samples,omitempty" yaml:"reserve_samples,omitempty"`
	Workers         *int `json:"workers,omitempty" yaml:"workers,omitempty"`
}

// Helper functions to create pointers
func ptrBool(v bool) *bool       { return &v }
func ptrString(v string) *string { return &v }
func ptrInt(v int) *int          { return &v }

// EmptyTaggerConfig returns a TaggerConfig with all fields unset.
func EmptyTaggerConfig() *TaggerConfig {
	return &TaggerConfig{}
}

// DefaultTaggerConfig returns a TaggerConfig with every field set to its
// default value.
func DefaultTaggerConfig() *TaggerConfig {
	return &TaggerConfig{
		UntaggedClusterProducer: ptrString(DefaultUntaggedClusterProducer),
		OutputLabel:             ptrString(DefaultOutputLabel),
		AssociateRecoTracks:     ptrBool(false),
		AssociateStrip:          ptrBool(true),
		ROUList:                 slices.Clone(DefaultROUList),
		ReserveClusters:         ptrInt(DefaultReserveClusters),
		ReserveSamples:          ptrInt(DefaultReserveSamples),
		Workers:                 ptrInt(1),
	}
}

// LoadTaggerConfig loads a TaggerConfig from a .json, .yaml or .yml file.
// Fields omitted from the file keep their defaults through the Get*
// accessors, so partial configs are safe.
func LoadTaggerConfig(path string) (*TaggerConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTaggerConfig()
	if ext == ".json" {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", ext[1:], err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath,
// searching the current directory and its parents. Panics if the file
// cannot be loaded; intended for test setup.
func MustLoadDefaultConfig() *TaggerConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadTaggerConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TaggerConfig) Validate() error {
	if c.UntaggedClusterProducer != nil && *c.UntaggedClusterProducer == "" {
		return fmt.Errorf("untagged_cluster_producer must not be empty")
	}
	if c.OutputLabel != nil && *c.OutputLabel == "" {
		return fmt.Errorf("output_label must not be empty")
	}
	if c.GetUntaggedClusterProducer() == c.GetOutputLabel() {
		return fmt.Errorf("output_label %q must differ from untagged_cluster_producer", c.GetOutputLabel())
	}

	if c.Mode != nil {
		switch strings.ToLower(strings.TrimSpace(*c.Mode)) {
		case "", "detailed", "simplified":
		default:
			return fmt.Errorf("mode must be \"detailed\" or \"simplified\", got %q", *c.Mode)
		}
	}

	seen := make(map[string]bool, len(c.ROUList))
	for _, name := range c.ROUList {
		if name == "" {
			return fmt.Errorf("rou_list contains an empty collection name")
		}
		if seen[name] {
			return fmt.Errorf("rou_list lists %q more than once", name)
		}
		seen[name] = true
	}

	if c.ReserveClusters != nil && *c.ReserveClusters < 0 {
		return fmt.Errorf("reserve_clusters must be non-negative, got %d", *c.ReserveClusters)
	}
	if c.ReserveSamples != nil && *c.ReserveSamples < 0 {
		return fmt.Errorf("reserve_samples must be non-negative, got %d", *c.ReserveSamples)
	}
	if c.Workers != nil && *c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", *c.Workers)
	}
	return nil
}

// GetUntaggedClusterProducer returns the input collection label or the default.
func (c *TaggerConfig) GetUntaggedClusterProducer() string {
	if c.UntaggedClusterProducer == nil {
		return DefaultUntaggedClusterProducer
	}
	return *c.UntaggedClusterProducer
}

// GetOutputLabel returns the output collection label or the default.
func (c *TaggerConfig) GetOutputLabel() string {
	if c.OutputLabel == nil {
		return DefaultOutputLabel
	}
	return *c.OutputLabel
}

// GetAssociateRecoTracks returns the associate_reco_tracks value or the default.
func (c *TaggerConfig) GetAssociateRecoTracks() bool {
	if c.AssociateRecoTracks == nil {
		return false
	}
	return *c.AssociateRecoTracks
}

// GetMode resolves the association mode name. An explicit mode wins;
// otherwise associate_reco_tracks selects "simplified".
func (c *TaggerConfig) GetMode() string {
	if c.Mode != nil && *c.Mode != "" {
		return strings.ToLower(strings.TrimSpace(*c.Mode))
	}
	if c.GetAssociateRecoTracks() {
		return "simplified"
	}
	return "detailed"
}

// GetAssociateStrip returns the associate_strip value or the default.
func (c *TaggerConfig) GetAssociateStrip() bool {
	if c.AssociateStrip == nil {
		return true
	}
	return *c.AssociateStrip
}

// GetROUList returns a copy of the SimHit collection list or the default.
func (c *TaggerConfig) GetROUList() []string {
	if len(c.ROUList) == 0 {
		return slices.Clone(DefaultROUList)
	}
	return slices.Clone(c.ROUList)
}

// GetReserveClusters returns the reserve_clusters value or the default.
func (c *TaggerConfig) GetReserveClusters() int {
	if c.ReserveClusters == nil {
		return DefaultReserveClusters
	}
	return *c.ReserveClusters
}

// GetReserveSamples returns the reserve_samples value or the default.
func (c *TaggerConfig) GetReserveSamples() int {
	if c.ReserveSamples == nil {
		return DefaultReserveSamples
	}
	return *c.ReserveSamples
}

// GetWorkers returns the workers value or the default.
func (c *TaggerConfig) GetWorkers() int {
	if c.Workers == nil {
		return 1
	}
	return *c.Workers
}
