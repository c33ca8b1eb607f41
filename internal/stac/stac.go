// Package stac is the object model for the emitted catalog documents. It
// covers the three STAC entity types the builder produces (Catalog,
// Collection, Item) and their standard fields; it does not implement the
// full STAC specification.
package stac

// Version is the STAC specification version stamped on every document.
const Version = "1.0.0"

// Link relation types used in the emitted documents.
const (
	RelSelf       = "self"
	RelRoot       = "root"
	RelParent     = "parent"
	RelChild      = "child"
	RelItem       = "item"
	RelCollection = "collection"
	RelRelated    = "related"
	RelVia        = "via"
	RelAlternate  = "alternate"
)

// Media types for link and asset targets.
const (
	MediaTypeJSON    = "application/json"
	MediaTypeGeoJSON = "application/geo+json"
)

// Link is a STAC link object. Href values are relative to the document
// that carries the link.
type Link struct {
	Rel   string `json:"rel"`
	Href  string `json:"href"`
	Type  string `json:"type,omitempty"`
	Title string `json:"title,omitempty"`
}

// Asset references a file associated with an entity.
type Asset struct {
	Href  string   `json:"href"`
	Title string   `json:"title,omitempty"`
	Type  string   `json:"type,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

// Provider describes an organization contributing to a collection.
type Provider struct {
	Name  string   `json:"name"`
	Roles []string `json:"roles,omitempty"`
	URL   string   `json:"url,omitempty"`
}

// SpatialExtent holds one or more bounding boxes [west, south, east, north].
type SpatialExtent struct {
	BBox [][]float64 `json:"bbox"`
}

// TemporalExtent holds one or more [start, end] intervals as RFC 3339
// strings; a nil end means open-ended ("ongoing").
type TemporalExtent struct {
	Interval [][]*string `json:"interval"`
}

// Extent combines spatial and temporal coverage.
type Extent struct {
	Spatial  SpatialExtent  `json:"spatial"`
	Temporal TemporalExtent `json:"temporal"`
}

// Catalog is a grouping document carrying links and optional assets (e.g.
// a theme thumbnail). The osc: fields are the open-science extension
// emitted on project catalogs.
type Catalog struct {
	Type        string           `json:"type"`
	StacVersion string           `json:"stac_version"`
	ID          string           `json:"id"`
	Title       string           `json:"title,omitempty"`
	Description string           `json:"description"`
	Status      string           `json:"osc:status,omitempty"`
	Consortium  []string         `json:"osc:consortium,omitempty"`
	Contacts    []Contact        `json:"osc:contacts,omitempty"`
	Assets      map[string]Asset `json:"assets,omitempty"`
	Links       []Link           `json:"links"`
}

// Contact is a named point of contact on a project catalog.
type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// NewCatalog creates a catalog document with the version stamped.
func NewCatalog(id, title, description string) *Catalog {
	return &Catalog{
		Type:        "Catalog",
		StacVersion: Version,
		ID:          id,
		Title:       title,
		Description: description,
	}
}

// AddLink appends a link to the catalog.
func (c *Catalog) AddLink(l Link) { c.Links = append(c.Links, l) }

// AddAsset attaches a named asset to the catalog.
func (c *Catalog) AddAsset(key string, a Asset) {
	if c.Assets == nil {
		c.Assets = make(map[string]Asset)
	}
	c.Assets[key] = a
}

// Collection describes a dataset with aggregated extent. The osc: fields
// carry the open-science product metadata.
type Collection struct {
	Type        string           `json:"type"`
	StacVersion string           `json:"stac_version"`
	ID          string           `json:"id"`
	Title       string           `json:"title,omitempty"`
	Description string           `json:"description"`
	License     string           `json:"license"`
	Keywords    []string         `json:"keywords,omitempty"`
	Providers   []Provider       `json:"providers,omitempty"`
	Region      string           `json:"osc:region,omitempty"`
	Status      string           `json:"osc:status,omitempty"`
	Released    string           `json:"osc:released,omitempty"`
	Extent      Extent           `json:"extent"`
	Assets      map[string]Asset `json:"assets,omitempty"`
	Links       []Link           `json:"links"`
}

// NewCollection creates a collection document with the version stamped.
// License defaults to "proprietary" when unset, per the STAC core schema.
func NewCollection(id, title, description, license string) *Collection {
	if license == "" {
		license = "proprietary"
	}
	return &Collection{
		Type:        "Collection",
		StacVersion: Version,
		ID:          id,
		Title:       title,
		Description: description,
		License:     license,
	}
}

// AddLink appends a link to the collection.
func (c *Collection) AddLink(l Link) { c.Links = append(c.Links, l) }

// AddAsset attaches a named asset to the collection.
func (c *Collection) AddAsset(key string, a Asset) {
	if c.Assets == nil {
		c.Assets = make(map[string]Asset)
	}
	c.Assets[key] = a
}

// Item is the leaf entity describing one discrete asset.
type Item struct {
	Type        string           `json:"type"`
	StacVersion string           `json:"stac_version"`
	ID          string           `json:"id"`
	Geometry    any              `json:"geometry"`
	BBox        []float64        `json:"bbox,omitempty"`
	Properties  map[string]any   `json:"properties"`
	Collection  string           `json:"collection,omitempty"`
	Assets      map[string]Asset `json:"assets,omitempty"`
	Links       []Link           `json:"links"`
}

// NewItem creates an item document with the version stamped. Geometry stays
// null until set.
func NewItem(id string) *Item {
	return &Item{
		Type:        "Feature",
		StacVersion: Version,
		ID:          id,
		Properties:  make(map[string]any),
	}
}

// AddLink appends a link to the item.
func (i *Item) AddLink(l Link) { i.Links = append(i.Links, l) }

// AddAsset attaches a named asset to the item.
func (i *Item) AddAsset(key string, a Asset) {
	if i.Assets == nil {
		i.Assets = make(map[string]Asset)
	}
	i.Assets[key] = a
}
