// Package records defines the typed input records the catalog is built
// from and the normalizer that produces them from raw row mappings.
package records

import (
	"time"

	"git.home.luguber.info/inful/stacbuilder/internal/geometry"
)

// Kind identifies the entity type of a record.
type Kind string

const (
	KindTheme   Kind = "theme"
	KindProject Kind = "project"
	KindProduct Kind = "product"
	KindItem    Kind = "item"
)

// Status is the lifecycle state of a project.
type Status string

const (
	StatusPlanned   Status = "planned"
	StatusOngoing   Status = "ongoing"
	StatusCompleted Status = "completed"
)

// Row is one raw input record: an ordered field mapping plus enough
// provenance to name it in validation errors.
type Row struct {
	Kind   Kind
	Line   int // 1-based data row number in the source
	Fields map[string]string
}

// Get returns a field value, "" when absent.
func (r Row) Get(key string) string { return r.Fields[key] }

// Contact is a named point of contact.
type Contact struct {
	Name  string
	Email string
}

// Interval is a temporal interval; a nil end means open-ended.
type Interval struct {
	Start *time.Time
	End   *time.Time
}

// IsZero reports whether neither bound is set.
func (iv Interval) IsZero() bool { return iv.Start == nil && iv.End == nil }

// Theme is a top-level grouping.
type Theme struct {
	ID          string
	Title       string
	Description string
	Link        string
	Image       string
}

// Project is a mid-level grouping (a variable in the source data) owned by
// a theme. Extent fields, when declared, override derived aggregation
// under the default extent policy.
type Project struct {
	ID               string
	Theme            string // owning theme id
	Title            string
	Description      string
	Status           Status
	Website          string
	Consortium       []string
	TechnicalOfficer Contact
	Interval         Interval
	BBox             *geometry.BBox // declared spatial extent; nil when underived
}

// Product is a collection-equivalent dataset owned by a project.
type Product struct {
	ID          string
	Project     string // owning project id
	Title       string
	Description string
	License     string
	Providers   []string
	Keywords    []string
	Region      string
	Website     string
	Access      string
	DOI         string
	Released    *time.Time
	// ReleasePlanned is set when the source carries the "Planned" sentinel
	// instead of a release date.
	ReleasePlanned bool
	Interval       Interval
	BBox           *geometry.BBox
}

// Item is the leaf record owned by exactly one product.
type Item struct {
	ID        string
	Product   string // owning product id
	Title     string
	Datetime  *time.Time // instant; exclusive with Interval
	Interval  Interval
	Geometry  *geometry.Geometry
	BBox      *geometry.BBox // declared bbox when geometry absent
	AssetHref string
	AssetType string
}

// Set is the full normalized record set for one build run.
type Set struct {
	Themes   []Theme
	Projects []Project
	Products []Product
	Items    []Item
}
