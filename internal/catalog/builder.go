package catalog

import (
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/stacbuilder/internal/logfields"
	"git.home.luguber.info/inful/stacbuilder/internal/records"
	"git.home.luguber.info/inful/stacbuilder/internal/stac"
)

// ArtifactWriter produces an additional output file (e.g. metrics.json)
// from the finalized tree into the build directory, before promotion.
type ArtifactWriter func(tree *Tree, dir string) error

// Options configures one build run.
type Options struct {
	Root      RootSpec
	OutputDir string
	// RootHref is the published base URL for self links; empty means
	// fully relative output.
	RootHref string
	Pretty   bool
	Policy   ExtentPolicy
	// RootLinks are extra links for the root catalog document.
	RootLinks []stac.Link
	// Artifacts run after tree serialization, inside staging.
	Artifacts []ArtifactWriter
}

// Builder runs the assembly pipeline: normalize, link, aggregate,
// serialize. All state is per-run; a Builder is not reused.
type Builder struct {
	opts Options
}

// NewBuilder creates a builder for one run.
func NewBuilder(opts Options) *Builder {
	if opts.Policy == "" {
		opts.Policy = PolicyDeclaredWins
	}
	return &Builder{opts: opts}
}

// Build runs the full pipeline over the raw record set. Errors accumulate
// in the returned report instead of aborting: invalid records are skipped,
// structurally broken branches are abandoned, failed writes leave sibling
// subtrees intact. The report outcome decides the process exit status.
func (b *Builder) Build(raw records.RawSet) *Report {
	report := NewReport()
	slog.Info("Starting catalog build",
		slog.String("run_id", report.RunID),
		slog.String("output", b.opts.OutputDir))

	var set *records.Set
	runStage(report, StageNormalize, func() {
		var errs []error
		set, errs = records.Normalize(raw)
		for _, err := range errs {
			report.AddError(StageNormalize, err)
		}
		report.Records = len(set.Themes) + len(set.Projects) + len(set.Products) + len(set.Items)
	})
	if report.Records == 0 {
		report.AddWarning(StageNormalize, IssueNoRecords, fmt.Errorf("no input records after normalization"))
	}

	var tree *Tree
	runStage(report, StageLink, func() {
		slugger := NewSlugger()
		var errs []error
		tree, errs = BuildTree(set, b.opts.Root, slugger)
		for _, err := range errs {
			report.AddError(StageLink, err)
		}
	})
	report.Nodes = len(tree.byKey) + 1

	runStage(report, StageAggregate, func() {
		for _, warn := range AggregateExtents(tree, b.opts.Policy) {
			report.AddWarning(StageAggregate, IssueEmptyExtent, warn)
		}
	})

	serializer := NewSerializer(b.opts.OutputDir, b.opts.RootHref, b.opts.Pretty)
	serializer.RootExtraLinks = b.opts.RootLinks
	if err := serializer.BeginStaging(); err != nil {
		report.AddError(StageSerialize, err)
		report.Finish()
		return report
	}

	runStage(report, StageSerialize, func() {
		errs := serializer.Serialize(tree)
		for _, err := range errs {
			report.AddError(StageSerialize, err)
		}
		report.WrittenFiles = report.Nodes - len(errs)

		for _, artifact := range b.opts.Artifacts {
			if err := artifact(tree, serializer.BuildRoot()); err != nil {
				report.AddError(StageSerialize, err)
			}
		}
	})

	// Promote even on partial failure: successfully serialized subtrees
	// must land on disk, and the run reports the failure via exit status.
	runStage(report, StagePromote, func() {
		if err := serializer.Promote(); err != nil {
			report.AddError(StagePromote, err)
			serializer.Abort()
		}
	})

	report.Finish()
	if err := report.Persist(b.opts.OutputDir); err != nil {
		slog.Warn("Failed to persist build report", logfields.Error(err))
	}
	slog.Info("Catalog build finished", slog.String("summary", report.Summary()))
	return report
}
