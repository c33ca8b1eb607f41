package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/stacbuilder/internal/catalog"
	"git.home.luguber.info/inful/stacbuilder/internal/config"
	"git.home.luguber.info/inful/stacbuilder/internal/ingest"
	"git.home.luguber.info/inful/stacbuilder/internal/metrics"
	"git.home.luguber.info/inful/stacbuilder/internal/stac"
	"git.home.luguber.info/inful/stacbuilder/internal/validate"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"config.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Build struct {
		Data   string `short:"d" help:"Input data directory (overrides config)"`
		Output string `short:"o" help:"Output directory (overrides config)"`
	} `cmd:"" help:"Build the static catalog tree from the input records"`

	Validate struct {
		Data string `short:"d" help:"Input data directory (overrides config)"`
	} `cmd:"" help:"Check input records without building"`

	Watch struct {
		Data   string `short:"d" help:"Input data directory (overrides config)"`
		Output string `short:"o" help:"Output directory (overrides config)"`
	} `cmd:"" help:"Rebuild the catalog whenever the input records change"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a new configuration file"`
}

func main() {
	ctx := kong.Parse(&CLI)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})))

	switch ctx.Command() {
	case "build":
		cfg := mustLoadConfig()
		applyOverrides(cfg, CLI.Build.Data, CLI.Build.Output)
		if !runBuild(cfg) {
			os.Exit(1)
		}
	case "validate":
		cfg := mustLoadConfig()
		applyOverrides(cfg, CLI.Validate.Data, "")
		if !runValidate(cfg) {
			os.Exit(1)
		}
	case "watch":
		cfg := mustLoadConfig()
		applyOverrides(cfg, CLI.Watch.Data, CLI.Watch.Output)
		if err := runWatch(cfg); err != nil {
			slog.Error("Watch failed", "error", err)
			os.Exit(1)
		}
	case "init":
		if err := config.Init(CLI.Config, CLI.Init.Force); err != nil {
			slog.Error("Init failed", "error", err)
			os.Exit(1)
		}
		slog.Info("Wrote configuration file", "path", CLI.Config)
	}
}

func mustLoadConfig() *config.Config {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	return cfg
}

func applyOverrides(cfg *config.Config, data, output string) {
	if data != "" {
		cfg.DataDir = data
	}
	if output != "" {
		cfg.OutputDir = output
	}
}

// runBuild loads records and runs the full pipeline. Returns false when
// the run must exit non-zero (any validation, structural or I/O error).
func runBuild(cfg *config.Config) bool {
	raw, err := ingest.LoadDir(cfg.DataDir)
	if err != nil {
		slog.Error("Failed to load input records", "error", err)
		return false
	}

	builder := catalog.NewBuilder(buildOptions(cfg))
	report := builder.Build(raw)
	if report.Failed() {
		slog.Error("Build failed", "summary", report.Summary())
		return false
	}
	return true
}

func buildOptions(cfg *config.Config) catalog.Options {
	return catalog.Options{
		Root: catalog.RootSpec{
			ID:          cfg.Catalog.ID,
			Title:       cfg.Catalog.Title,
			Description: cfg.Catalog.Description,
		},
		OutputDir: cfg.OutputDir,
		RootHref:  cfg.Catalog.RootHref,
		Pretty:    cfg.PrettyPrint(),
		Policy:    catalog.ExtentPolicy(cfg.ExtentPolicy),
		RootLinks: []stac.Link{
			{Rel: stac.RelAlternate, Href: "./" + metrics.FileName, Type: stac.MediaTypeJSON},
		},
		Artifacts: []catalog.ArtifactWriter{metrics.WriteArtifact},
	}
}

func runValidate(cfg *config.Config) bool {
	raw, err := ingest.LoadDir(cfg.DataDir)
	if err != nil {
		slog.Error("Failed to load input records", "error", err)
		return false
	}

	findings := validate.Run(raw)
	if len(findings) == 0 {
		fmt.Println("All records valid.")
		return true
	}
	validate.Render(os.Stdout, findings)
	return !validate.HasErrors(findings)
}

func runWatch(cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	err := watchRun(ctx, cfg)
	if err == context.Canceled {
		slog.Info("Watch stopped")
		return nil
	}
	return err
}
