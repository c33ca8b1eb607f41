package ingest

import (
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/stacbuilder/internal/logfields"
	"git.home.luguber.info/inful/stacbuilder/internal/markdown"
	"git.home.luguber.info/inful/stacbuilder/internal/records"
)

// applyDescriptionOverlays replaces the description field of any record
// that has a markdown overlay file at descriptions/<kind>s/<id>.md. The
// markdown is flattened to plain text for the catalog documents.
func applyDescriptionOverlays(dir string, set *records.RawSet) {
	for _, group := range []struct {
		kind records.Kind
		rows []records.Row
	}{
		{records.KindTheme, set.Themes},
		{records.KindProject, set.Projects},
		{records.KindProduct, set.Products},
		{records.KindItem, set.Items},
	} {
		for i := range group.rows {
			row := &group.rows[i]
			id := row.Get("id")
			if id == "" {
				continue
			}
			path := filepath.Join(dir, "descriptions", string(group.kind)+"s", id+".md")
			body, err := os.ReadFile(path)
			if err != nil {
				if !os.IsNotExist(err) {
					slog.Warn("Failed to read description overlay", logfields.Path(path), logfields.Error(err))
				}
				continue
			}
			text := markdown.PlainText(body)
			if text == "" {
				continue
			}
			row.Fields["description"] = text
			slog.Debug("Applied description overlay", logfields.Entity(id), logfields.Path(path))
		}
	}
}
