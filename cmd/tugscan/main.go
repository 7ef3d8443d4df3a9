// Package main is the tugscan command line tool.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/golang/geo/r3"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap/zapcore"

	"github.com/airside-sim/tugscan/config"
	"github.com/airside-sim/tugscan/lidar"
	"github.com/airside-sim/tugscan/logging"
	"github.com/airside-sim/tugscan/referenceframe"
	"github.com/airside-sim/tugscan/scanplan"
	"github.com/airside-sim/tugscan/scene"
)

const (
	flagConfig  = "config"
	flagDebug   = "debug"
	flagLogFile = "log-file"
	flagGrid    = "grid"
)

var errNoConfig = errors.New("a config file is required, set one with --config")

func main() {
	var (
		logger    logging.Logger
		closeLogs = func() error { return nil }
	)

	app := &cli.App{
		Name:  "tugscan",
		Usage: "plan and simulate LiDAR placements on an aircraft tug",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "load configuration from `FILE`",
			},
			&cli.BoolFlag{
				Name:  flagDebug,
				Usage: "enable debug logging",
			},
			&cli.StringSliceFlag{
				Name:  flagGrid,
				Usage: "override sampling grid settings, e.g. --grid nx=2,margin=0.05",
			},
			&cli.PathFlag{
				Name:  flagLogFile,
				Usage: "also write JSON logs to `FILE`, rotated by size",
			},
		},
		Before: func(c *cli.Context) error {
			level := zapcore.InfoLevel
			if c.Bool(flagDebug) {
				level = zapcore.DebugLevel
			}
			switch {
			case c.Path(flagLogFile) != "":
				logger, closeLogs = logging.NewFileLogger("tugscan", level, c.Path(flagLogFile))
			case level == zapcore.DebugLevel:
				logger = logging.NewDebugLogger("tugscan")
			default:
				logger = logging.NewLogger("tugscan")
			}
			logging.ReplaceGlobal(logger)
			return nil
		},
		After: func(c *cli.Context) error {
			return closeLogs()
		},
		Commands: []*cli.Command{
			{
				Name:  "build",
				Usage: "build the scene from scratch, align the aircraft and save it",
				Action: func(c *cli.Context) error {
					p, err := newPlanner(c, logger, false)
					if err != nil {
						return err
					}
					path, err := p.Build(c.Context)
					if err != nil {
						return err
					}
					color.New(color.FgGreen).Fprintf(c.App.Writer, "scene saved to %s\n", path)
					return nil
				},
			},
			{
				Name:  "run",
				Usage: "prepare the scene, then sample and scan every placement",
				Action: func(c *cli.Context) error {
					return runPlanner(c, logger, true)
				},
			},
			{
				Name:  "sample",
				Usage: "prepare the scene and list the sampled placements without scanning",
				Action: func(c *cli.Context) error {
					return runPlanner(c, logger, false)
				},
			},
			{
				Name:  "poses",
				Usage: "print the world position of every tug and aircraft link",
				Action: func(c *cli.Context) error {
					p, err := newPlanner(c, logger, false)
					if err != nil {
						return err
					}
					if err := p.Prepare(c.Context); err != nil {
						return err
					}
					tug, aircraft, err := p.Poses()
					if err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, posesTable(map[string]referenceframe.Poses{"tug": tug, "aircraft": aircraft}))
					return nil
				},
			},
			{
				Name:  "schema",
				Usage: "print the JSON schema of the configuration file",
				Action: func(c *cli.Context) error {
					out, err := config.SchemaJSON()
					if err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, string(out))
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newPlanner(c *cli.Context, logger logging.Logger, scan bool) (*scanplan.Planner, error) {
	if c.String(flagConfig) == "" {
		return nil, errNoConfig
	}
	cfg, err := config.Read(c.String(flagConfig), logger)
	if err != nil {
		return nil, err
	}
	overrides, err := config.ParseOverrides(c.StringSlice(flagGrid))
	if err != nil {
		return nil, err
	}
	if err := cfg.OverrideGrid(overrides); err != nil {
		return nil, err
	}
	cfg.Scan.Enabled = cfg.Scan.Enabled && scan
	sc := scene.New(logger.Named("scene"))
	var engine lidar.Engine
	if cfg.Scan.Enabled {
		rs, err := lidar.NewRotatingScanner(sc, logger.Named("lidar"))
		if err != nil {
			return nil, err
		}
		engine = rs
	}
	return scanplan.NewPlanner(sc, engine, cfg, logger.Named("planner"))
}

func runPlanner(c *cli.Context, logger logging.Logger, scan bool) error {
	p, err := newPlanner(c, logger, scan)
	if err != nil {
		return err
	}
	if err := p.Prepare(c.Context); err != nil {
		return err
	}
	report, err := p.Run(c.Context)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, placementsTable(report))
	if len(report.Skipped) > 0 {
		color.New(color.FgYellow).Fprintf(c.App.Writer, "skipped surfaces: %v\n", report.Skipped)
	}
	return nil
}

func posesTable(vehicles map[string]referenceframe.Poses) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Vehicle", "Link", "X", "Y", "Z"})
	for _, vehicle := range []string{"tug", "aircraft"} {
		poses := vehicles[vehicle]
		for _, name := range poses.Names() {
			pos, err := poses.LinkPosition(name)
			if err != nil {
				continue
			}
			t.AppendRow(append(table.Row{vehicle, name}, vectorCells(pos)...))
		}
	}
	return t.Render()
}

func placementsTable(report *scanplan.Report) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"#", "Yaw", "Surface", "Name", "X", "Y", "Z", "Hits", "Median range"})
	for _, pl := range report.Placements() {
		hits, median := "-", "-"
		if pl.Scan != nil {
			hits = fmt.Sprintf("%d/%d", len(pl.Scan.Hits), pl.Scan.Rays)
			if ranges, err := pl.Scan.Ranges(); err == nil {
				median = fmt.Sprintf("%.3f", ranges.Median)
			}
		}
		row := table.Row{pl.Index, fmt.Sprintf("%.1f", pl.YawDeg), pl.Surface, pl.Name}
		row = append(row, vectorCells(pl.Position)...)
		t.AppendRow(append(row, hits, median))
	}
	if len(report.Skipped) > 0 {
		t.AppendFooter(table.Row{"", "", "skipped", fmt.Sprint(report.Skipped)})
	}
	return t.Render()
}

func vectorCells(v r3.Vector) []interface{} {
	return []interface{}{fmt.Sprintf("%.3f", v.X), fmt.Sprintf("%.3f", v.Y), fmt.Sprintf("%.3f", v.Z)}
}
