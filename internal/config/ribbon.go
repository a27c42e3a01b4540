package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/banshee-data/ribbon/internal/fsutil"
	"github.com/banshee-data/ribbon/internal/ribbon"
)

// DefaultConfigPath is the path to the canonical analysis defaults file.
const DefaultConfigPath = "config/ribbon.defaults.json"

const maxConfigFileSize = 1 * 1024 * 1024 // 1MB

// Export defaults.
const (
	DefaultRibbonStep         = 10
	DefaultAmbiguousPointStep = 3
	DefaultMaxLinks           = 300
)

// RibbonConfig is the on-disk analysis and export configuration. Every
// field is optional; the Get* accessors supply defaults for unset fields,
// so partial files are safe.
type RibbonConfig struct {
	// Analysis params
	ScanIndexMin           *int     `json:"scan_index_min,omitempty" yaml:"scan_index_min,omitempty"`
	ScanIndexMax           *int     `json:"scan_index_max,omitempty" yaml:"scan_index_max,omitempty"` // < 0 means last point
	DistanceThresholdM     *float64 `json:"distance_threshold_m,omitempty" yaml:"distance_threshold_m,omitempty"`
	MinIndexGap            *int     `json:"min_index_gap,omitempty" yaml:"min_index_gap,omitempty"`
	PacketGap              *int     `json:"packet_gap,omitempty" yaml:"packet_gap,omitempty"`
	GridCellM              *float64 `json:"grid_cell_m,omitempty" yaml:"grid_cell_m,omitempty"`
	MaxHitsPerPoint        *int     `json:"max_hits_per_point,omitempty" yaml:"max_hits_per_point,omitempty"`
	MaxSampleHitsPerPacket *int     `json:"max_sample_hits_per_packet,omitempty" yaml:"max_sample_hits_per_packet,omitempty"`
	Workers                *int     `json:"workers,omitempty" yaml:"workers,omitempty"`

	// Export params
	RibbonStep          *int  `json:"ribbon_step,omitempty" yaml:"ribbon_step,omitempty"`
	AmbiguousPointStep  *int  `json:"ambiguous_point_step,omitempty" yaml:"ambiguous_point_step,omitempty"`
	DrawFullRibbon      *bool `json:"draw_full_ribbon,omitempty" yaml:"draw_full_ribbon,omitempty"`
	DrawAmbiguousPoints *bool `json:"draw_ambiguous_points,omitempty" yaml:"draw_ambiguous_points,omitempty"`
	MaxLinks            *int  `json:"max_links,omitempty" yaml:"max_links,omitempty"`
}

// EmptyRibbonConfig returns a RibbonConfig with all fields unset.
func EmptyRibbonConfig() *RibbonConfig {
	return &RibbonConfig{}
}

// LoadRibbonConfig loads a RibbonConfig from a .json, .yaml or .yml file
// on fsys no larger than 1MB. The result is validated.
func LoadRibbonConfig(fsys fsutil.FileSystem, path string) (*RibbonConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := fsys.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxConfigFileSize)
	}

	data, err := fsys.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyRibbonConfig()
	if ext == ".json" {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching from the current
// directory up towards the repository root. Panics if the file cannot be
// loaded, intended for test setup.
func MustLoadDefaultConfig() *RibbonConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // from internal/storage/sqlite/
	}
	fsys := fsutil.OSFileSystem{}
	for _, path := range candidates {
		if !fsys.Exists(path) {
			continue
		}
		if cfg, err := LoadRibbonConfig(fsys, path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks the configured values. Analysis bounds are checked by
// building the params, so the same rules apply to files and flags.
func (c *RibbonConfig) Validate() error {
	if err := c.Params().Validate(); err != nil {
		return err
	}
	if c.Workers != nil && *c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", *c.Workers)
	}
	if c.RibbonStep != nil && *c.RibbonStep < 1 {
		return fmt.Errorf("ribbon_step must be >= 1, got %d", *c.RibbonStep)
	}
	if c.AmbiguousPointStep != nil && *c.AmbiguousPointStep < 1 {
		return fmt.Errorf("ambiguous_point_step must be >= 1, got %d", *c.AmbiguousPointStep)
	}
	if c.MaxLinks != nil && *c.MaxLinks < 0 {
		return fmt.Errorf("max_links must be non-negative, got %d", *c.MaxLinks)
	}
	return nil
}

// Override copies every field set in o onto c. Used to layer explicit CLI
// flags over a loaded file.
func (c *RibbonConfig) Override(o *RibbonConfig) {
	if o == nil {
		return
	}
	if o.ScanIndexMin != nil {
		c.ScanIndexMin = o.ScanIndexMin
	}
	if o.ScanIndexMax != nil {
		c.ScanIndexMax = o.ScanIndexMax
	}
	if o.DistanceThresholdM != nil {
		c.DistanceThresholdM = o.DistanceThresholdM
	}
	if o.MinIndexGap != nil {
		c.MinIndexGap = o.MinIndexGap
	}
	if o.PacketGap != nil {
		c.PacketGap = o.PacketGap
	}
	if o.GridCellM != nil {
		c.GridCellM = o.GridCellM
	}
	if o.MaxHitsPerPoint != nil {
		c.MaxHitsPerPoint = o.MaxHitsPerPoint
	}
	if o.MaxSampleHitsPerPacket != nil {
		c.MaxSampleHitsPerPacket = o.MaxSampleHitsPerPacket
	}
	if o.Workers != nil {
		c.Workers = o.Workers
	}
	if o.RibbonStep != nil {
		c.RibbonStep = o.RibbonStep
	}
	if o.AmbiguousPointStep != nil {
		c.AmbiguousPointStep = o.AmbiguousPointStep
	}
	if o.DrawFullRibbon != nil {
		c.DrawFullRibbon = o.DrawFullRibbon
	}
	if o.DrawAmbiguousPoints != nil {
		c.DrawAmbiguousPoints = o.DrawAmbiguousPoints
	}
	if o.MaxLinks != nil {
		c.MaxLinks = o.MaxLinks
	}
}

// Params converts the configuration to the immutable analysis parameters.
func (c *RibbonConfig) Params() ribbon.Params {
	return ribbon.Params{
		IdxMin:                 c.GetScanIndexMin(),
		IdxMax:                 c.GetScanIndexMax(),
		DistanceThresholdM:     c.GetDistanceThresholdM(),
		MinIndexGap:            c.GetMinIndexGap(),
		PacketGap:              c.GetPacketGap(),
		GridCellM:              c.GetGridCellM(),
		MaxHitsPerPoint:        c.GetMaxHitsPerPoint(),
		MaxSampleHitsPerPacket: c.GetMaxSampleHitsPerPacket(),
		Workers:                c.GetWorkers(),
	}
}

// GetScanIndexMin returns the scan_index_min value or the default.
func (c *RibbonConfig) GetScanIndexMin() int {
	if c.ScanIndexMin == nil {
		return 0
	}
	return *c.ScanIndexMin
}

// GetScanIndexMax returns the scan_index_max value or the default.
func (c *RibbonConfig) GetScanIndexMax() int {
	if c.ScanIndexMax == nil {
		return -1 // last point
	}
	return *c.ScanIndexMax
}

// GetDistanceThresholdM returns the distance_threshold_m value or the default.
func (c *RibbonConfig) GetDistanceThresholdM() float64 {
	if c.DistanceThresholdM == nil {
		return ribbon.DefaultDistanceThresholdM
	}
	return *c.DistanceThresholdM
}

// GetMinIndexGap returns the min_index_gap value or the default.
func (c *RibbonConfig) GetMinIndexGap() int {
	if c.MinIndexGap == nil {
		return ribbon.DefaultMinIndexGap
	}
	return *c.MinIndexGap
}

// GetPacketGap returns the packet_gap value or the default.
func (c *RibbonConfig) GetPacketGap() int {
	if c.PacketGap == nil {
		return ribbon.DefaultPacketGap
	}
	return *c.PacketGap
}

// GetGridCellM returns the grid_cell_m value or the default.
func (c *RibbonConfig) GetGridCellM() float64 {
	if c.GridCellM == nil {
		return ribbon.DefaultGridCellM
	}
	return *c.GridCellM
}

// GetMaxHitsPerPoint returns the max_hits_per_point value or the default.
func (c *RibbonConfig) GetMaxHitsPerPoint() int {
	if c.MaxHitsPerPoint == nil {
		return ribbon.DefaultMaxHitsPerPoint
	}
	return *c.MaxHitsPerPoint
}

// GetMaxSampleHitsPerPacket returns the max_sample_hits_per_packet value or the default.
func (c *RibbonConfig) GetMaxSampleHitsPerPacket() int {
	if c.MaxSampleHitsPerPacket == nil {
		return ribbon.DefaultMaxSampleHitsPerPacket
	}
	return *c.MaxSampleHitsPerPacket
}

// GetWorkers returns the workers value or the default.
func (c *RibbonConfig) GetWorkers() int {
	if c.Workers == nil {
		return 1
	}
	return *c.Workers
}

// GetRibbonStep returns the ribbon_step value or the default.
func (c *RibbonConfig) GetRibbonStep() int {
	if c.RibbonStep == nil {
		return DefaultRibbonStep
	}
	return *c.RibbonStep
}

// GetAmbiguousPointStep returns the ambiguous_point_step value or the default.
func (c *RibbonConfig) GetAmbiguousPointStep() int {
	if c.AmbiguousPointStep == nil {
		return DefaultAmbiguousPointStep
	}
	return *c.AmbiguousPointStep
}

// GetDrawFullRibbon returns the draw_full_ribbon value or the default.
func (c *RibbonConfig) GetDrawFullRibbon() bool {
	if c.DrawFullRibbon == nil {
		return true
	}
	return *c.DrawFullRibbon
}

// GetDrawAmbiguousPoints returns the draw_ambiguous_points value or the default.
func (c *RibbonConfig) GetDrawAmbiguousPoints() bool {
	if c.DrawAmbiguousPoints == nil {
		return false
	}
	return *c.DrawAmbiguousPoints
}

// GetMaxLinks returns the max_links value or the default.
func (c *RibbonConfig) GetMaxLinks() int {
	if c.MaxLinks == nil {
		return DefaultMaxLinks
	}
	return *c.MaxLinks
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrInt(v int) *int             { return &v }

// DefaultRibbonConfig returns a config with every field set to its default.
func DefaultRibbonConfig() *RibbonConfig {
	return &RibbonConfig{
		ScanIndexMin:           ptrInt(0),
		ScanIndexMax:           ptrInt(-1),
		DistanceThresholdM:     ptrFloat64(ribbon.DefaultDistanceThresholdM),
		MinIndexGap:            ptrInt(ribbon.DefaultMinIndexGap),
		PacketGap:              ptrInt(ribbon.DefaultPacketGap),
		GridCellM:              ptrFloat64(ribbon.DefaultGridCellM),
		MaxHitsPerPoint:        ptrInt(ribbon.DefaultMaxHitsPerPoint),
		MaxSampleHitsPerPacket: ptrInt(ribbon.DefaultMaxSampleHitsPerPacket),
		Workers:                ptrInt(1),
		RibbonStep:             ptrInt(DefaultRibbonStep),
		AmbiguousPointStep:     ptrInt(DefaultAmbiguousPointStep),
		DrawFullRibbon:         ptrBool(true),
		DrawAmbiguousPoints:    ptrBool(false),
		MaxLinks:               ptrInt(DefaultMaxLinks),
	}
}
