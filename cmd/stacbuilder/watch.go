package main

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/stacbuilder/internal/config"
	"git.home.luguber.info/inful/stacbuilder/internal/watch"
)

// watchRun wires the watcher to full rebuilds. Every trigger reloads the
// records from disk; build failures are logged and watching continues.
func watchRun(ctx context.Context, cfg *config.Config) error {
	return watch.Run(ctx, cfg.DataDir, func() {
		if !runBuild(cfg) {
			slog.Warn("Rebuild finished with errors; waiting for next change")
		}
	})
}
