package config

import (
	"flag"

	"github.com/banshee-data/ribbon/internal/fsutil"
	"github.com/banshee-data/ribbon/internal/ribbon"
)

// BindAnalysisFlags registers the analysis overrides on fs. The returned
// func must be called after fs.Parse; it yields a config holding only the
// flags that were set explicitly, ready for Override.
func BindAnalysisFlags(fs *flag.FlagSet) func() *RibbonConfig {
	idxMin := fs.Int("idx-min", 0, "first index to scan (a window left empty after clamping to the points is an error)")
	idxMax := fs.Int("idx-max", -1, "last index to scan (-1 = last point)")
	dist := fs.Float64("dist", ribbon.DefaultDistanceThresholdM, "distance threshold in metres")
	minGap := fs.Int("min-gap", ribbon.DefaultMinIndexGap, "minimum index gap |i-j|")
	packetGap := fs.Int("packet-gap", ribbon.DefaultPacketGap, "max index gap inside one packet")
	gridCell := fs.Float64("grid-cell", ribbon.DefaultGridCellM, "spatial grid cell size in metres")
	maxHits := fs.Int("max-hits", ribbon.DefaultMaxHitsPerPoint, "hits kept per ambiguous point")
	maxSample := fs.Int("max-sample-hits", ribbon.DefaultMaxSampleHitsPerPacket, "sample hits kept per packet")
	workers := fs.Int("workers", 1, "detector goroutines")

	return func() *RibbonConfig {
		over := EmptyRibbonConfig()
		fs.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "idx-min":
				over.ScanIndexMin = idxMin
			case "idx-max":
				over.ScanIndexMax = idxMax
			case "dist":
				over.DistanceThresholdM = dist
			case "min-gap":
				over.MinIndexGap = minGap
			case "packet-gap":
				over.PacketGap = packetGap
			case "grid-cell":
				over.GridCellM = gridCell
			case "max-hits":
				over.MaxHitsPerPoint = maxHits
			case "max-sample-hits":
				over.MaxSampleHitsPerPacket = maxSample
			case "workers":
				over.Workers = workers
			}
		})
		return over
	}
}

// BindExportFlags registers the overlay drawing overrides on fs, with the
// same contract as BindAnalysisFlags.
func BindExportFlags(fs *flag.FlagSet) func() *RibbonConfig {
	ribbonStep := fs.Int("ribbon-step", DefaultRibbonStep, "full ribbon decimation stride")
	ambStep := fs.Int("amb-step", DefaultAmbiguousPointStep, "ambiguous point stride in the overview")
	drawRibbon := fs.Bool("draw-ribbon", true, "draw the full ribbon line in the overview")
	drawAmb := fs.Bool("draw-amb", false, "draw ambiguous point placemarks in the overview")
	maxLinks := fs.Int("max-links", DefaultMaxLinks, "max i-j link lines in a packet detail")

	return func() *RibbonConfig {
		over := EmptyRibbonConfig()
		fs.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "ribbon-step":
				over.RibbonStep = ribbonStep
			case "amb-step":
				over.AmbiguousPointStep = ambStep
			case "draw-ribbon":
				over.DrawFullRibbon = drawRibbon
			case "draw-amb":
				over.DrawAmbiguousPoints = drawAmb
			case "max-links":
				over.MaxLinks = maxLinks
			}
		})
		return over
	}
}

// Resolve loads path from fsys (or starts from the defaults when path is
// empty), applies the overrides and validates the result.
func Resolve(fsys fsutil.FileSystem, path string, overrides *RibbonConfig) (*RibbonConfig, error) {
	cfg := DefaultRibbonConfig()
	if path != "" {
		loaded, err := LoadRibbonConfig(fsys, path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	cfg.Override(overrides)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
