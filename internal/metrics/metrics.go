// Package metrics builds the metrics.json summary document published next
// to the root catalog: product counts and year coverage per theme and
// project, plus a global rollup.
package metrics

import (
	"path/filepath"
	"sort"

	"git.home.luguber.info/inful/stacbuilder/internal/catalog"
	"git.home.luguber.info/inful/stacbuilder/internal/stac"
)

// FileName is the artifact name in the output root.
const FileName = "metrics.json"

// ProjectSummary aggregates one project subtree.
type ProjectSummary struct {
	Years            []int `json:"years"`
	NumberOfProducts int   `json:"numberOfProducts"`
}

// ProjectMetrics names one project with its summary.
type ProjectMetrics struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Summary     ProjectSummary `json:"summary"`
}

// ThemeSummary aggregates one theme subtree.
type ThemeSummary struct {
	Years            []int `json:"years"`
	NumberOfProducts int   `json:"numberOfProducts"`
	NumberOfProjects int   `json:"numberOfProjects"`
}

// ThemeMetrics names one theme with its summary and projects.
type ThemeMetrics struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Website     string           `json:"website,omitempty"`
	Summary     ThemeSummary     `json:"summary"`
	Projects    []ProjectMetrics `json:"projects"`
}

// GlobalSummary aggregates the whole catalog.
type GlobalSummary struct {
	Years            []int `json:"years"`
	NumberOfProducts int   `json:"numberOfProducts"`
	NumberOfProjects int   `json:"numberOfProjects"`
	NumberOfThemes   int   `json:"numberOfThemes"`
	NumberOfItems    int   `json:"numberOfItems"`
}

// GlobalMetrics is the document root.
type GlobalMetrics struct {
	ID      string         `json:"id"`
	Summary GlobalSummary  `json:"summary"`
	Themes  []ThemeMetrics `json:"themes"`
}

// Build computes the metrics document from a finalized tree. The tree must
// already carry aggregated extents; year coverage comes from closed
// temporal intervals (open-ended coverage contributes no years, matching
// the source behavior).
func Build(tree *catalog.Tree) *GlobalMetrics {
	global := &GlobalMetrics{
		ID: tree.Root.ID,
		Summary: GlobalSummary{
			Years:            intervalYears(tree.Root),
			NumberOfProducts: tree.Count(catalog.NodeProduct),
			NumberOfProjects: tree.Count(catalog.NodeProject),
			NumberOfThemes:   tree.Count(catalog.NodeTheme),
			NumberOfItems:    tree.Count(catalog.NodeItem),
		},
		Themes: []ThemeMetrics{},
	}

	for _, theme := range tree.Root.Children() {
		tm := ThemeMetrics{
			Name:        theme.Title,
			Description: theme.Desc,
			Summary: ThemeSummary{
				Years:            intervalYears(theme),
				NumberOfProjects: len(theme.Children()),
			},
			Projects: []ProjectMetrics{},
		}
		if theme.Theme != nil {
			tm.Website = theme.Theme.Link
		}
		for _, project := range theme.Children() {
			pm := ProjectMetrics{
				Name:        project.Title,
				Description: project.Desc,
				Summary: ProjectSummary{
					Years:            intervalYears(project),
					NumberOfProducts: len(project.Children()),
				},
			}
			tm.Summary.NumberOfProducts += len(project.Children())
			tm.Projects = append(tm.Projects, pm)
		}
		global.Themes = append(global.Themes, tm)
	}
	return global
}

// WriteArtifact is the catalog.ArtifactWriter that persists metrics.json.
func WriteArtifact(tree *catalog.Tree, dir string) error {
	doc := Build(tree)
	return stac.WriteFile(filepath.Join(dir, FileName), doc, true)
}

// intervalYears expands a node's closed temporal interval into the sorted
// list of covered years.
func intervalYears(n *catalog.Node) []int {
	years := []int{}
	if !n.HasTemporal {
		return years
	}
	if iv := n.Interval; iv.Start != nil && iv.End != nil {
		for y := iv.Start.Year(); y <= iv.End.Year(); y++ {
			years = append(years, y)
		}
	}
	sort.Ints(years)
	return years
}
