package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"log"

	"github.com/banshee-data/ribbon/internal/config"
	"github.com/banshee-data/ribbon/internal/fsutil"
	"github.com/banshee-data/ribbon/internal/overlay"
	"github.com/banshee-data/ribbon/internal/ribbon"
)

const (
	formatKML     = "kml"
	formatGeoJSON = "geojson"

	defaultOverviewName = "ribbon_ambiguities_overview.kml"
	defaultGeoJSONName  = "ribbon_ambiguities.geojson"
	defaultRibbonName   = "ribbon_track.kml"
)

type options struct {
	pointsPath string
	reportPath string
	outPath    string
	configPath string
	format     string

	packet     int
	rank       int
	detail     bool
	ribbonOnly bool

	showVersion bool
	overrides   *config.RibbonConfig
}

func parseFlags(args []string) (*options, error) {
	fs := flag.NewFlagSet(toolName, flag.ContinueOnError)
	o := &options{}
	fs.StringVar(&o.pointsPath, "points", "", "ribbon points file (.json, .csv or .gpx)")
	fs.StringVar(&o.reportPath, "report", "ribbon_ambiguities.json", "ambiguity report from ribbon-analyse")
	fs.StringVar(&o.outPath, "out", "", "output path (default depends on the mode)")
	fs.StringVar(&o.configPath, "config", "", "config file (.json or .yaml)")
	fs.StringVar(&o.format, "format", formatKML, "output format: kml or geojson")
	fs.IntVar(&o.packet, "packet", 0, "export the detail of this packet (1-based report order)")
	fs.IntVar(&o.rank, "rank", 0, "export the detail of the packet with this density rank (takes precedence over -packet)")
	fs.BoolVar(&o.detail, "detail", false, "export a packet detail (packet 1 unless -packet or -rank is set)")
	fs.BoolVar(&o.ribbonOnly, "ribbon", false, "export the ribbon alone with start, end and northernmost markers")
	fs.BoolVar(&o.showVersion, "version", false, "print version and exit")
	overrides := config.BindExportFlags(fs)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	o.overrides = overrides()
	if o.packet != 0 || o.rank != 0 {
		o.detail = true
	}
	return o, nil
}

// run renders the requested document in memory and writes it atomically,
// so a missing report or a bad selection leaves no output behind.
func run(fsys fsutil.FileSystem, o *options) error {
	if o.pointsPath == "" {
		return errors.New("-points is required")
	}
	if o.format != formatKML && o.format != formatGeoJSON {
		return fmt.Errorf("unknown -format %q", o.format)
	}
	if o.format == formatGeoJSON && (o.detail || o.ribbonOnly) {
		return errors.New("geojson export covers the packet overview only")
	}
	if o.detail && o.ribbonOnly {
		return errors.New("-ribbon cannot be combined with a packet detail")
	}

	cfg, err := config.Resolve(fsys, o.configPath, o.overrides)
	if err != nil {
		return err
	}

	var rep *ribbon.Report
	if !o.ribbonOnly {
		if rep, err = ribbon.ReadReport(fsys, o.reportPath); err != nil {
			return err
		}
	}
	points, err := ribbon.LoadPoints(fsys, o.pointsPath)
	if err != nil {
		return err
	}

	data, defaultName, err := render(points, rep, cfg, o)
	if err != nil {
		return err
	}

	out := o.outPath
	if out == "" {
		out = defaultName
	}
	if err := fsutil.WriteFileAtomicAll(fsys, out, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	log.Printf("wrote %s (%d bytes)", out, len(data))
	return nil
}

func render(points []ribbon.RibbonPoint, rep *ribbon.Report, cfg *config.RibbonConfig, o *options) ([]byte, string, error) {
	var buf bytes.Buffer
	switch {
	case o.ribbonOnly:
		k, err := overlay.BuildRibbonKML(points)
		if err != nil {
			return nil, "", err
		}
		if err := k.Encode(&buf); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), defaultRibbonName, nil

	case o.detail:
		sel, err := overlay.SelectPacket(rep, o.packet, o.rank)
		if err != nil {
			return nil, "", err
		}
		opts := overlay.DefaultDetailOptions()
		opts.MaxLinks = cfg.GetMaxLinks()
		k, err := overlay.BuildPacketDetail(points, sel, opts)
		if err != nil {
			return nil, "", err
		}
		if err := k.Encode(&buf); err != nil {
			return nil, "", err
		}
		log.Printf("packet %s: %d..%d density=%.2f", sel.Label, sel.Packet.Start, sel.Packet.End, sel.Packet.Density())
		return buf.Bytes(), sel.FileName(), nil

	case o.format == formatGeoJSON:
		fc, err := overlay.BuildGeoJSON(points, rep)
		if err != nil {
			return nil, "", err
		}
		data, err := fc.MarshalJSON()
		if err != nil {
			return nil, "", fmt.Errorf("encode geojson: %w", err)
		}
		return data, defaultGeoJSONName, nil

	default:
		k, err := overlay.BuildOverview(points, rep, overlay.OverviewOptions{
			DrawFullRibbon:      cfg.GetDrawFullRibbon(),
			RibbonStep:          cfg.GetRibbonStep(),
			DrawPacketLines:     true,
			DrawAmbiguousPoints: cfg.GetDrawAmbiguousPoints(),
			AmbiguousPointStep:  cfg.GetAmbiguousPointStep(),
		})
		if err != nil {
			return nil, "", err
		}
		if err := k.Encode(&buf); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), defaultOverviewName, nil
	}
}
