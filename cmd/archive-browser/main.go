// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// archive-browser is a full-screen terminal browser for the TakeONE
// event archive: a filterable carousel or grid of past events beside
// a map of the venues that hosted them.
//
// Configuration comes from --config, else the file named by
// ARCHIVE_CONFIG, else the built-in defaults. The catalog comes from
// --catalog, else catalog.path in the configuration, else the catalog
// compiled into the binary.
//
// With --export-snapshot the browser does not start: the catalog is
// validated, compiled to a compressed snapshot and written out.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"
	"github.com/spf13/pflag"

	"github.com/takeone-collective/archive/lib/archive"
	"github.com/takeone-collective/archive/lib/archiveui"
	"github.com/takeone-collective/archive/lib/broadcast"
	"github.com/takeone-collective/archive/lib/catalog"
	"github.com/takeone-collective/archive/lib/cli"
	"github.com/takeone-collective/archive/lib/clock"
	"github.com/takeone-collective/archive/lib/config"
	"github.com/takeone-collective/archive/lib/mapengine"
	"github.com/takeone-collective/archive/lib/mapview"
	"github.com/takeone-collective/archive/lib/termmap"
	"github.com/takeone-collective/archive/lib/version"
)

func main() {
	os.Exit(cli.Exit(run(), os.Stderr))
}

func run() error {
	var configPath string
	var catalogPath string
	var logOutput string
	var snapshotPath string

	flagSet := pflag.NewFlagSet("archive-browser", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to archive.yaml (default: $"+config.EnvironmentVariable+", then built-in defaults)")
	flagSet.StringVar(&catalogPath, "catalog", "", "catalog file (.jsonc, .json, .yaml, .yml or .arcs); overrides catalog.path")
	flagSet.StringVar(&logOutput, "log-output", "", "write JSON log records to this file (in addition to the status bar)")
	flagSet.StringVar(&snapshotPath, "export-snapshot", "", "compile the catalog to a snapshot at this path and exit")
	flagSet.BoolP("help", "h", false, "show help")

	if len(os.Args) > 1 && os.Args[1] == "--version" {
		version.Print("archive-browser")
		return nil
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet)
			return nil
		}
		return cli.Validation("%w", err)
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}
	if args := flagSet.Args(); len(args) > 0 {
		return cli.Validation("unexpected argument: %s", args[0])
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if catalogPath != "" {
		cfg.Catalog.Path = catalogPath
	}

	archiveCatalog, err := loadCatalog(cfg.Catalog.Path)
	if err != nil {
		return err
	}

	if flagSet.Changed("export-snapshot") {
		level, _ := cfg.LogLevel()
		return exportSnapshot(cli.NewCommandLogger(level), archiveCatalog, snapshotPath, cfg.Catalog.Snapshot)
	}

	return runBrowser(cfg, archiveCatalog, logOutput)
}

func loadConfig(path string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	switch {
	case path != "":
		cfg, err = config.LoadFile(path)
	case os.Getenv(config.EnvironmentVariable) != "":
		cfg, err = config.Load()
	default:
		cfg = config.Default()
	}
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, cli.NotFound("%w", err).
				WithHint("Pass --config with an existing file, or unset " + config.EnvironmentVariable + " to use the defaults.")
		}
		return nil, cli.Validation("%w", err)
	}
	if err := cfg.LoadSecrets(); err != nil {
		return nil, cli.Validation("%w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, cli.Validation("invalid configuration:\n%w", err)
	}
	return cfg, nil
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default(), nil
	}
	archiveCatalog, err := catalog.Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, cli.NotFound("catalog %s does not exist", path).
				WithHint("Omit --catalog and catalog.path to browse the built-in archive.")
		}
		return nil, cli.Validation("cannot load catalog %s: %w", path, err)
	}
	return archiveCatalog, nil
}

func exportSnapshot(logger *slog.Logger, archiveCatalog *catalog.Catalog, path, configured string) error {
	if path == "" {
		path = configured
	}
	if path == "" {
		return cli.Validation("--export-snapshot needs a destination").
			WithHint("Pass a path, e.g. --export-snapshot archive.arcs, or set catalog.snapshot.")
	}
	if err := catalog.WriteSnapshot(path, archiveCatalog); err != nil {
		return cli.Internal("writing snapshot: %w", err)
	}
	stats := archiveCatalog.Stats()
	logger.Info("snapshot written",
		"path", path,
		"events", stats.Events,
		"venues", stats.Venues,
		"digest", archiveCatalog.Digest(),
	)
	return nil
}

// runBrowser runs the full-screen browser until the user quits.
//
// Log records are routed to the status bar through a TUILogHandler,
// since writing to stderr would corrupt the alt-screen display. With
// --log-output every record is also written to a JSON file.
func runBrowser(cfg *config.Config, archiveCatalog *catalog.Catalog, logOutput string) error {
	level, err := cfg.LogLevel()
	if err != nil {
		return cli.Validation("%w", err)
	}
	mode, err := archive.ParseViewMode(cfg.Carousel.Mode)
	if err != nil {
		return cli.Validation("%w", err)
	}

	tuiHandler := archiveui.NewTUILogHandler(max(level, slog.LevelWarn))
	logger := slog.New(tuiHandler)
	if logOutput != "" {
		fileHandler, closeFile, err := cli.OpenFileLogHandler(logOutput)
		if err != nil {
			return cli.Validation("cannot open log file %s: %w", logOutput, err)
		}
		defer closeFile()
		logger = slog.New(cli.FanoutHandler{tuiHandler, fileHandler})
	}

	profile := termenv.EnvColorProfile()
	realClock := clock.Real()
	dispatcher := archiveui.NewDispatcher()

	sections := broadcast.New[string]()
	visibility := broadcast.New[bool]()
	resize := broadcast.New[mapengine.Container]()

	engine := termmap.New(termmap.Options{
		Clock:         realClock,
		Logger:        logger.With("component", "termmap"),
		Profile:       profile,
		StyleAttempts: cfg.Map.StyleAttempts,
		RetryBackoff:  cfg.Map.RetryBackoff,
	})

	browser := archive.NewBrowser(archiveCatalog, archive.Options{
		Clock:             realClock,
		Logger:            logger.With("component", "browser"),
		Dispatch:          dispatcher.Dispatch,
		AutoAdvancePeriod: cfg.Carousel.AutoAdvance,
		Mode:              mode,
		AutoScroll:        cfg.Carousel.AutoScroll,
		Map: mapview.Options{
			Engine: engine,
			Style: mapengine.Style{
				URL:    cfg.Map.StyleURL,
				APIKey: cfg.Secrets.MapAPIKey,
				Center: catalog.Coordinate{Latitude: cfg.Map.Center.Latitude, Longitude: cfg.Map.Center.Longitude},
				Zoom:   cfg.Map.Zoom,
			},
			Resize:        resize,
			GraceDelay:    cfg.Map.GraceDelay,
			FlyToZoom:     cfg.Map.FlyToZoom,
			FlyToDuration: cfg.Map.FlyToDuration,
		},
	})

	signals := archive.Signals{Sections: sections}
	if cfg.Reset.OnBlur {
		signals.Visibility = visibility
	}
	coordinator := archive.NewResetCoordinator(cfg.Reset.Section, browser, logger.With("component", "reset"))
	coordinator.Attach(signals)
	defer coordinator.Close()

	model := archiveui.NewModel(browser, archiveui.Options{
		Profile:        profile,
		ArchiveSection: cfg.Reset.Section,
		Sections:       sections,
		Visibility:     visibility,
		Resize:         resize,
		Logger:         logger.With("component", "ui"),
	})
	program := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
		tea.WithReportFocus(),
	)
	dispatcher.SetProgram(program)
	tuiHandler.SetProgram(program)

	_, err = program.Run()
	browser.Unmount()
	if err != nil {
		return cli.Internal("terminal: %w", err)
	}
	return nil
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `archive-browser: browse past TakeONE events in the terminal.

Events are shown as a carousel (or a grid, press g) beside a map of
the venues. Filter by year, month, performer and venue; select a venue
on the map to list everything it hosted.

Usage:
  archive-browser [flags]

Examples:
  # Browse the built-in archive
  archive-browser

  # Browse a local catalog with a custom configuration
  archive-browser --config archive.yaml --catalog events.jsonc

  # Compile a catalog to a snapshot
  archive-browser --catalog events.yaml --export-snapshot archive.arcs

Flags:
`)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}
