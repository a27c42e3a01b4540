package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"runtime"

	"github.com/banshee-data/ribbon/internal/config"
	"github.com/banshee-data/ribbon/internal/fsutil"
	"github.com/banshee-data/ribbon/internal/ribbon"
	"github.com/banshee-data/ribbon/internal/sweep"
)

type options struct {
	pointsPath string
	outPath    string
	configPath string
	distSpec   string
	gapSpec    string
	parallel   int

	showVersion bool
	overrides   *config.RibbonConfig
}

func parseFlags(args []string) (*options, error) {
	fs := flag.NewFlagSet(toolName, flag.ContinueOnError)
	o := &options{}
	fs.StringVar(&o.pointsPath, "points", "", "ribbon points file (.json, .csv or .gpx)")
	fs.StringVar(&o.outPath, "out", "ribbon_sweep.csv", "CSV output path")
	fs.StringVar(&o.configPath, "config", "", "base config file (.json or .yaml)")
	fs.StringVar(&o.distSpec, "dist-range", "20:60:10", "distance thresholds: min:max:step or comma list")
	fs.StringVar(&o.gapSpec, "gap-range", "25:100:25", "min index gaps: min:max:step or comma list")
	fs.IntVar(&o.parallel, "parallel", runtime.NumCPU(), "combinations evaluated concurrently")
	fs.BoolVar(&o.showVersion, "version", false, "print version and exit")
	overrides := config.BindAnalysisFlags(fs)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	o.overrides = overrides()
	return o, nil
}

func run(ctx context.Context, fsys fsutil.FileSystem, o *options) error {
	if o.pointsPath == "" {
		return errors.New("-points is required")
	}
	thresholds, err := sweep.ParseParamList(o.distSpec)
	if err != nil {
		return fmt.Errorf("-dist-range: %w", err)
	}
	gaps, err := sweep.ParseIntParamList(o.gapSpec)
	if err != nil {
		return fmt.Errorf("-gap-range: %w", err)
	}

	cfg, err := config.Resolve(fsys, o.configPath, o.overrides)
	if err != nil {
		return err
	}
	points, err := ribbon.LoadPoints(fsys, o.pointsPath)
	if err != nil {
		return err
	}

	log.Printf("sweeping %d thresholds x %d gaps over %d points", len(thresholds), len(gaps), len(points))
	results, err := sweep.Run(ctx, points, cfg.Params(), thresholds, gaps, o.parallel)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := sweep.WriteCSV(&buf, results); err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomicAll(fsys, o.outPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", o.outPath, err)
	}
	log.Printf("wrote %d rows to %s", len(results), o.outPath)
	return nil
}
