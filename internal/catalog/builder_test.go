package catalog

import (
	"encoding/json"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/stacbuilder/internal/records"
)

func row(kind records.Kind, line int, fields map[string]string) records.Row {
	return records.Row{Kind: kind, Line: line, Fields: fields}
}

func builderTestInput() records.RawSet {
	return records.RawSet{
		Themes: []records.Row{
			row(records.KindTheme, 1, map[string]string{
				"id": "oceans", "title": "Oceans", "description": "Ocean science.",
			}),
		},
		Projects: []records.Row{
			row(records.KindProject, 1, map[string]string{
				"id": "cci-oc", "theme": "oceans", "title": "CCI Ocean Colour",
				"status": "completed", "start": "2010-01-01", "end": "2020-01-01",
			}),
		},
		Products: []records.Row{
			row(records.KindProduct, 1, map[string]string{
				"id": "chlor-a", "project": "cci-oc", "title": "Chlorophyll-a",
				"license": "CC-BY-4.0",
			}),
		},
		Items: []records.Row{
			row(records.KindItem, 1, map[string]string{
				"id": "chlor-a-2019", "product": "chlor-a",
				"datetime": "2019-06-01", "bbox": "-180,-90,180,90",
			}),
		},
	}
}

func builderTestOptions(t *testing.T) Options {
	t.Helper()
	return Options{
		Root: RootSpec{
			ID:          "test-catalog",
			Title:       "Test Catalog",
			Description: "Catalog under test.",
		},
		OutputDir: filepath.Join(t.TempDir(), "out"),
		Pretty:    true,
	}
}

// snapshotTree reads every output file keyed by relative path. The build
// report carries a fresh run id and timestamps each run, so it is excluded
// when comparing runs for byte-identical output.
func snapshotTree(t *testing.T, dir string) map[string]string {
	t.Helper()
	files := map[string]string{}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if strings.HasPrefix(filepath.Base(rel), "build-report") {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	require.NoError(t, err)
	return files
}

func TestBuildWritesCompleteTree(t *testing.T) {
	opts := builderTestOptions(t)
	report := NewBuilder(opts).Build(builderTestInput())

	assert.False(t, report.Failed(), "errors: %v", report.Errors)
	assert.Equal(t, OutcomeSuccess, report.Outcome)
	assert.Equal(t, 4, report.Records)
	assert.Equal(t, 5, report.Nodes)
	assert.Equal(t, 5, report.WrittenFiles)

	for _, rel := range []string{
		"catalog.json",
		"oceans/catalog.json",
		"oceans/cci-ocean-colour/catalog.json",
		"oceans/cci-ocean-colour/chlorophyll-a/collection.json",
		"oceans/cci-ocean-colour/chlorophyll-a/chlor-a-2019/chlor-a-2019.json",
		"build-report.json",
		"build-report.txt",
	} {
		_, err := os.Stat(filepath.Join(opts.OutputDir, filepath.FromSlash(rel)))
		assert.NoError(t, err, rel)
	}

	// Staging must be gone after promotion.
	_, err := os.Stat(opts.OutputDir + "_stage")
	assert.True(t, os.IsNotExist(err))
}

func TestBuildIsIdempotent(t *testing.T) {
	opts := builderTestOptions(t)
	b := NewBuilder(opts)

	require.False(t, b.Build(builderTestInput()).Failed())
	first := snapshotTree(t, opts.OutputDir)
	require.False(t, NewBuilder(opts).Build(builderTestInput()).Failed())
	second := snapshotTree(t, opts.OutputDir)

	assert.Equal(t, first, second)
}

func TestBuildDanglingParentLeavesSiblings(t *testing.T) {
	input := builderTestInput()
	input.Products = append(input.Products,
		row(records.KindProduct, 2, map[string]string{
			"id": "orphan", "project": "no-such-project", "title": "Orphan",
		}))

	opts := builderTestOptions(t)
	report := NewBuilder(opts).Build(input)

	assert.True(t, report.Failed())
	require.Len(t, report.Errors, 1)

	// The healthy sibling branch still lands on disk.
	_, err := os.Stat(filepath.Join(opts.OutputDir,
		"oceans", "cci-ocean-colour", "chlorophyll-a", "collection.json"))
	assert.NoError(t, err)

	var codes []IssueCode
	for _, issue := range report.Issues {
		codes = append(codes, issue.Code)
	}
	assert.Contains(t, codes, IssueStructuralFailure)
}

// TestBuildLinkReachability follows child and item links from the root
// catalog and checks that every serialized document is reached.
func TestBuildLinkReachability(t *testing.T) {
	opts := builderTestOptions(t)
	require.False(t, NewBuilder(opts).Build(builderTestInput()).Failed())

	visited := map[string]bool{}
	var follow func(rel string)
	follow = func(rel string) {
		if visited[rel] {
			return
		}
		visited[rel] = true

		data, err := os.ReadFile(filepath.Join(opts.OutputDir, filepath.FromSlash(rel)))
		require.NoError(t, err, rel)
		var doc struct {
			Links []struct {
				Rel  string `json:"rel"`
				Href string `json:"href"`
			} `json:"links"`
		}
		require.NoError(t, json.Unmarshal(data, &doc), rel)

		base := path.Dir(rel)
		for _, l := range doc.Links {
			if l.Rel != "child" && l.Rel != "item" {
				continue
			}
			follow(path.Clean(path.Join(base, l.Href)))
		}
	}
	follow("catalog.json")

	// Every document in the tree must have been reached.
	for rel := range snapshotTree(t, opts.OutputDir) {
		if rel == "metrics.json" {
			continue // linked as alternate, not part of the child/item walk
		}
		assert.True(t, visited[path.Clean(rel)], "unreachable document %s", rel)
	}
}

func TestBuildReportDocument(t *testing.T) {
	opts := builderTestOptions(t)
	report := NewBuilder(opts).Build(builderTestInput())
	require.False(t, report.Failed())

	data, err := os.ReadFile(filepath.Join(opts.OutputDir, "build-report.json"))
	require.NoError(t, err)

	var doc struct {
		SchemaVersion int      `json:"schema_version"`
		RunID         string   `json:"run_id"`
		Outcome       string   `json:"outcome"`
		WrittenFiles  int      `json:"written_files"`
		Errors        []string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, 1, doc.SchemaVersion)
	assert.Equal(t, report.RunID, doc.RunID)
	assert.Equal(t, "success", doc.Outcome)
	assert.Equal(t, 5, doc.WrittenFiles)
	assert.Empty(t, doc.Errors)
}

func TestBuildRootDocumentLinks(t *testing.T) {
	opts := builderTestOptions(t)
	require.False(t, NewBuilder(opts).Build(builderTestInput()).Failed())

	data, err := os.ReadFile(filepath.Join(opts.OutputDir, "catalog.json"))
	require.NoError(t, err)

	var doc struct {
		Type  string `json:"type"`
		ID    string `json:"id"`
		Links []struct {
			Rel  string `json:"rel"`
			Href string `json:"href"`
		} `json:"links"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "Catalog", doc.Type)
	assert.Equal(t, "test-catalog", doc.ID)

	var childHrefs []string
	for _, l := range doc.Links {
		if l.Rel == "child" {
			childHrefs = append(childHrefs, l.Href)
		}
	}
	assert.Equal(t, []string{"./oceans/catalog.json"}, childHrefs)
}
