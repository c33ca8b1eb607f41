// Package validate runs the standalone input checks behind the validate
// command: normalization plus cross-reference consistency, without
// building or writing anything.
package validate

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"git.home.luguber.info/inful/stacbuilder/internal/foundation"
	"git.home.luguber.info/inful/stacbuilder/internal/records"
)

// Finding is one validation result row.
type Finding struct {
	Severity string
	Kind     string
	Entity   string
	Message  string
}

// Run normalizes the raw set and cross-checks every ownership reference.
// It returns all findings; an empty slice means the input would build
// cleanly (structural checks included).
func Run(raw records.RawSet) []Finding {
	var findings []Finding

	set, errs := records.Normalize(raw)
	for _, err := range errs {
		findings = append(findings, findingFromError(err))
	}

	themes := make(map[string]bool, len(set.Themes))
	for _, t := range set.Themes {
		if themes[t.ID] {
			findings = append(findings, Finding{"error", "theme", t.ID, "duplicate theme id"})
		}
		themes[t.ID] = true
	}
	projects := make(map[string]bool, len(set.Projects))
	for _, p := range set.Projects {
		if projects[p.ID] {
			findings = append(findings, Finding{"error", "project", p.ID, "duplicate project id"})
		}
		projects[p.ID] = true
		if !themes[p.Theme] {
			findings = append(findings, Finding{"error", "project", p.ID,
				fmt.Sprintf("references non-existing theme %q", p.Theme)})
		}
	}
	products := make(map[string]bool, len(set.Products))
	for _, p := range set.Products {
		if products[p.ID] {
			findings = append(findings, Finding{"error", "product", p.ID, "duplicate product id"})
		}
		products[p.ID] = true
		if !projects[p.Project] {
			findings = append(findings, Finding{"error", "product", p.ID,
				fmt.Sprintf("references non-existing project %q", p.Project)})
		}
	}
	items := make(map[string]bool, len(set.Items))
	itemCount := make(map[string]int)
	for _, it := range set.Items {
		if items[it.ID] {
			findings = append(findings, Finding{"error", "item", it.ID, "duplicate item id"})
		}
		items[it.ID] = true
		if !products[it.Product] {
			findings = append(findings, Finding{"error", "item", it.ID,
				fmt.Sprintf("references non-existing product %q", it.Product)})
		}
		itemCount[it.Product]++
	}
	for _, p := range set.Products {
		if itemCount[p.ID] == 0 {
			findings = append(findings, Finding{"warning", "product", p.ID, "has no items; extent cannot be derived"})
		}
	}

	return findings
}

// HasErrors reports whether any finding is error-severity.
func HasErrors(findings []Finding) bool {
	for _, f := range findings {
		if f.Severity == "error" {
			return true
		}
	}
	return false
}

// Render writes the findings as a terminal table.
func Render(w io.Writer, findings []Finding) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Severity", "Kind", "Entity", "Problem"})
	for _, f := range findings {
		t.AppendRow(table.Row{f.Severity, f.Kind, f.Entity, f.Message})
	}
	t.SetStyle(table.StyleLight)
	t.Render()
}

func findingFromError(err error) Finding {
	f := Finding{Severity: "error", Message: err.Error()}
	var classified *foundation.ClassifiedError
	if foundation.AsClassified(err, &classified) {
		f.Entity = classified.Entity
		if kind, ok := classified.Context["kind"].(string); ok {
			f.Kind = kind
		}
		if classified.Severity == foundation.SeverityWarning {
			// Validation errors still fail the build; keep them as errors
			// in the findings table.
			f.Severity = "error"
		}
	}
	return f
}
