package catalog

import (
	"log/slog"
	"time"

	"git.home.luguber.info/inful/stacbuilder/internal/logfields"
)

// StageName identifies one pipeline stage for timing and issue reporting.
type StageName string

const (
	StageNormalize StageName = "normalize"
	StageLink      StageName = "link"
	StageAggregate StageName = "aggregate"
	StageSerialize StageName = "serialize"
	StagePromote   StageName = "promote"
)

// runStage times a stage body and records the duration in the report.
func runStage(report *Report, name StageName, fn func()) {
	start := time.Now()
	slog.Debug("Stage starting", logfields.Stage(string(name)))
	fn()
	elapsed := time.Since(start)
	report.StageDurations[name] = elapsed
	slog.Debug("Stage finished", logfields.Stage(string(name)), slog.Duration("elapsed", elapsed))
}
