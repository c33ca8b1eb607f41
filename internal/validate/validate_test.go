package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/stacbuilder/internal/records"
)

func row(kind records.Kind, fields map[string]string) records.Row {
	return records.Row{Kind: kind, Line: 1, Fields: fields}
}

func validInput() records.RawSet {
	return records.RawSet{
		Themes: []records.Row{
			row(records.KindTheme, map[string]string{"id": "oceans", "title": "Oceans"}),
		},
		Projects: []records.Row{
			row(records.KindProject, map[string]string{"id": "p1", "theme": "oceans", "title": "P1"}),
		},
		Products: []records.Row{
			row(records.KindProduct, map[string]string{"id": "prod1", "project": "p1", "title": "Prod1"}),
		},
		Items: []records.Row{
			row(records.KindItem, map[string]string{"id": "i1", "product": "prod1", "datetime": "2020"}),
		},
	}
}

func TestRunCleanInput(t *testing.T) {
	findings := Run(validInput())
	assert.Empty(t, findings)
	assert.False(t, HasErrors(findings))
}

func TestRunCrossReferences(t *testing.T) {
	input := validInput()
	input.Products = append(input.Products,
		row(records.KindProduct, map[string]string{"id": "orphan", "project": "missing", "title": "Orphan"}))
	input.Items = append(input.Items,
		row(records.KindItem, map[string]string{"id": "i2", "product": "nope", "datetime": "2020"}))

	findings := Run(input)
	require.True(t, HasErrors(findings))

	messages := make([]string, len(findings))
	for i, f := range findings {
		messages[i] = f.Entity + ": " + f.Message
	}
	joined := strings.Join(messages, "\n")
	assert.Contains(t, joined, `orphan: references non-existing project "missing"`)
	assert.Contains(t, joined, `i2: references non-existing product "nope"`)
	// The orphaned product also has no items, which is only a warning.
	assert.Contains(t, joined, "orphan: has no items")
}

func TestRunDuplicateIDs(t *testing.T) {
	input := validInput()
	input.Themes = append(input.Themes,
		row(records.KindTheme, map[string]string{"id": "oceans", "title": "Oceans again"}))

	findings := Run(input)
	require.True(t, HasErrors(findings))

	var found bool
	for _, f := range findings {
		if f.Kind == "theme" && f.Entity == "oceans" && strings.Contains(f.Message, "duplicate") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestRunNormalizationFindingsCarryKind(t *testing.T) {
	input := validInput()
	input.Projects[0].Fields["status"] = "paused"

	findings := Run(input)
	require.True(t, HasErrors(findings))
	assert.Equal(t, "project", findings[0].Kind)
	assert.Equal(t, "p1", findings[0].Entity)
}

func TestProductsWithoutItemsWarn(t *testing.T) {
	input := validInput()
	input.Items = nil

	findings := Run(input)
	require.Len(t, findings, 1)
	assert.Equal(t, "warning", findings[0].Severity)
	assert.False(t, HasErrors(findings))
}

func TestRenderTable(t *testing.T) {
	var sb strings.Builder
	Render(&sb, []Finding{{Severity: "error", Kind: "item", Entity: "i9", Message: "broken"}})

	out := sb.String()
	assert.Contains(t, out, "SEVERITY")
	assert.Contains(t, out, "i9")
	assert.Contains(t, out, "broken")
}
