// Package ingest reads the raw input record sets the build consumes: one
// CSV per entity type plus optional markdown description overlays.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/stacbuilder/internal/logfields"
	"git.home.luguber.info/inful/stacbuilder/internal/records"
)

// Per-type CSV file names inside the data directory.
const (
	FileThemes   = "themes.csv"
	FileProjects = "projects.csv"
	FileProducts = "products.csv"
	FileItems    = "items.csv"
)

// headerAliases maps legacy column names from the upstream spreadsheets to
// the canonical field names the normalizer expects.
var headerAliases = map[string]string{
	"Short_Name":         "id",
	"Product":            "title",
	"Project":            "project",
	"Project_Name":       "title",
	"Description":        "description",
	"Short_Description":  "description",
	"Website":            "website",
	"Access":             "access",
	"DOI":                "doi",
	"Start":              "start",
	"End":                "end",
	"Start_Date_Project": "start",
	"End_Date_Project":   "end",
	"Polygon":            "geometry",
	"Region":             "region",
	"Released":           "released",
	"Keywords":           "keywords",
	"Consortium":         "consortium",
	"Status":             "status",
	"TO":                 "technical_officer",
	"TO_E-mail":          "technical_officer_email",
	"theme":              "theme",
	"variable":           "id",
	"link":               "link",
	"image":              "image",
}

// kindAliases override headerAliases per entity type. The legacy theme
// sheet names its id column "theme", which for every other sheet is the
// owning-theme reference; the legacy variables sheet carries "variable
// description" and a plural "themes" column.
var kindAliases = map[records.Kind]map[string]string{
	records.KindTheme: {
		"theme": "id",
	},
	records.KindProject: {
		"variable description": "description",
		"themes":               "theme",
	},
}

// LoadDir reads all record CSVs from dir. A missing items.csv is allowed
// (products without items are legal, they just warn during aggregation);
// the other three files are required.
func LoadDir(dir string) (records.RawSet, error) {
	set := records.RawSet{}
	for _, spec := range []struct {
		name     string
		kind     records.Kind
		required bool
		dest     *[]records.Row
	}{
		{FileThemes, records.KindTheme, true, &set.Themes},
		{FileProjects, records.KindProject, true, &set.Projects},
		{FileProducts, records.KindProduct, true, &set.Products},
		{FileItems, records.KindItem, false, &set.Items},
	} {
		path := filepath.Join(dir, spec.name)
		rows, err := loadFile(path, spec.kind)
		if err != nil {
			if os.IsNotExist(err) && !spec.required {
				slog.Debug("Optional record file absent", logfields.Path(path))
				continue
			}
			return set, fmt.Errorf("load %s: %w", spec.name, err)
		}
		*spec.dest = rows
	}

	applyDescriptionOverlays(dir, &set)
	return set, nil
}

func loadFile(path string, kind records.Kind) ([]records.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadRows(f, kind)
}

// ReadRows parses CSV content into raw rows, mapping legacy headers to
// canonical field names. The first record is the header.
func ReadRows(r io.Reader, kind records.Kind) ([]records.Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	fields := make([]string, len(header))
	for i, col := range header {
		col = strings.TrimSpace(col)
		if canonical, ok := kindAliases[kind][strings.ToLower(col)]; ok {
			fields[i] = canonical
		} else if canonical, ok := headerAliases[col]; ok {
			fields[i] = canonical
		} else {
			fields[i] = strings.ToLower(col)
		}
	}

	var rows []records.Row
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return rows, fmt.Errorf("read row: %w", err)
		}
		line++
		row := records.Row{Kind: kind, Line: line, Fields: make(map[string]string, len(fields))}
		for i, value := range record {
			if i >= len(fields) {
				break
			}
			// First matching column wins; legacy sheets repeat some names.
			if _, exists := row.Fields[fields[i]]; !exists {
				row.Fields[fields[i]] = strings.TrimSpace(value)
			}
		}
		// Theme1..Theme3 columns collapse into the single theme reference.
		if kind == records.KindProject {
			if row.Fields["theme"] == "" {
				for _, col := range []string{"theme1", "theme2", "theme3"} {
					if t := row.Fields[col]; t != "" {
						row.Fields["theme"] = t
						break
					}
				}
			}
			// The legacy variables sheet lists several themes; the first
			// names the owning theme.
			if t := row.Fields["theme"]; t != "" {
				for _, sep := range []string{";", ","} {
					if i := strings.Index(t, sep); i >= 0 {
						t = t[:i]
					}
				}
				row.Fields["theme"] = strings.TrimSpace(t)
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
