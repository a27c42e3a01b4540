package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/ribbon/internal/config"
	"github.com/banshee-data/ribbon/internal/fsutil"
	"github.com/banshee-data/ribbon/internal/overlay"
	"github.com/banshee-data/ribbon/internal/ribbon"
	"github.com/banshee-data/ribbon/internal/storage/sqlite"
	"github.com/banshee-data/ribbon/internal/version"
)

const plotSize = 24 * vg.Centimeter

type options struct {
	pointsPath string
	outPath    string
	configPath string
	dbPath     string
	notes      string
	plotPath   string
	chartPath  string

	showVersion bool
	overrides   *config.RibbonConfig
}

func parseFlags(args []string) (*options, error) {
	fs := flag.NewFlagSet(toolName, flag.ContinueOnError)
	o := &options{}
	fs.StringVar(&o.pointsPath, "points", "", "ribbon points file (.json, .csv or .gpx)")
	fs.StringVar(&o.outPath, "out", "ribbon_ambiguities.json", "report output path")
	fs.StringVar(&o.configPath, "config", "", "analysis config file (.json or .yaml)")
	fs.StringVar(&o.dbPath, "db", "", "sqlite database to record the run in")
	fs.StringVar(&o.notes, "notes", "", "free-form notes stored with the run")
	fs.StringVar(&o.plotPath, "plot", "", "optional PNG plan plot output")
	fs.StringVar(&o.chartPath, "chart", "", "optional HTML chart output")
	fs.BoolVar(&o.showVersion, "version", false, "print version and exit")
	overrides := config.BindAnalysisFlags(fs)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	o.overrides = overrides()
	return o, nil
}

// run performs the analysis and writes every requested artifact. Nothing is
// written unless the analysis and all renderings succeed.
func run(ctx context.Context, fsys fsutil.FileSystem, o *options) error {
	if o.pointsPath == "" {
		return errors.New("-points is required")
	}
	if o.outPath == "" {
		return errors.New("-out is required")
	}

	cfg, err := config.Resolve(fsys, o.configPath, o.overrides)
	if err != nil {
		return err
	}
	points, err := ribbon.LoadPoints(fsys, o.pointsPath)
	if err != nil {
		return err
	}

	rep, err := ribbon.Analyse(ctx, points, cfg.Params())
	if err != nil {
		return err
	}
	rep.Meta.Generator = version.String(toolName)

	var buf bytes.Buffer
	if err := ribbon.EncodeReport(&buf, rep); err != nil {
		return err
	}
	outputs := []artifact{{path: o.outPath, data: buf.Bytes()}}

	if o.plotPath != "" || o.chartPath != "" {
		xy, err := ribbon.ProjectPoints(points)
		if err != nil {
			return err
		}
		if o.plotPath != "" {
			png, err := overlay.PlanPlotPNG(xy, rep, plotSize, plotSize)
			if err != nil {
				return fmt.Errorf("render plot: %w", err)
			}
			outputs = append(outputs, artifact{path: o.plotPath, data: png})
		}
		if o.chartPath != "" {
			var html bytes.Buffer
			if err := overlay.RenderChart(&html, xy, rep, cfg.GetRibbonStep()); err != nil {
				return fmt.Errorf("render chart: %w", err)
			}
			outputs = append(outputs, artifact{path: o.chartPath, data: html.Bytes()})
		}
	}

	for _, a := range outputs {
		if err := fsutil.WriteFileAtomicAll(fsys, a.path, a.data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", a.path, err)
		}
		log.Printf("wrote %s (%d bytes)", a.path, len(a.data))
	}

	if o.dbPath != "" {
		if err := recordRun(o.dbPath, rep, o.pointsPath, o.notes); err != nil {
			return err
		}
	}

	log.Printf("%d ambiguous points in %d packets (points=%d, truncated points=%d)",
		len(rep.AmbiguousIdx), len(rep.Packets), rep.Meta.PointsTotal, rep.Meta.Truncation.PointsAtHitCap)
	return nil
}

type artifact struct {
	path string
	data []byte
}

func recordRun(dbPath string, rep *ribbon.Report, source, notes string) error {
	db, err := sqlite.Open(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	r, err := sqlite.NewRunStore(db).InsertRun(rep, source, notes)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	fmt.Fprintf(os.Stdout, "run_id=%s\n", r.RunID)
	return nil
}
