package catalog

import (
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/stacbuilder/internal/foundation"
	"git.home.luguber.info/inful/stacbuilder/internal/geometry"
	"git.home.luguber.info/inful/stacbuilder/internal/logfields"
	"git.home.luguber.info/inful/stacbuilder/internal/stac"
)

// Serializer walks a finalized tree and writes one document per node. It
// never mutates the tree; serialization is a pure function of the linked,
// extent-populated graph, so two runs over the same tree produce
// byte-identical files.
type Serializer struct {
	outputDir string
	stageDir  string
	rootHref  string
	pretty    bool

	// RootExtraLinks are appended to the root catalog document (e.g. the
	// alternate link to metrics.json).
	RootExtraLinks []stac.Link
}

// NewSerializer creates a serializer targeting outputDir. rootHref, when
// non-empty, is the published base URL used for self links; otherwise self
// links point at the document's own file name.
func NewSerializer(outputDir, rootHref string, pretty bool) *Serializer {
	return &Serializer{outputDir: outputDir, rootHref: rootHref, pretty: pretty}
}

// BuildRoot returns the directory writes should target: the staging
// directory while one is active, else the final output directory.
func (s *Serializer) BuildRoot() string {
	if s.stageDir != "" {
		return s.stageDir
	}
	return s.outputDir
}

// BeginStaging creates an isolated sibling staging directory so a failed
// build never clobbers the previous output.
func (s *Serializer) BeginStaging() error {
	stage := s.outputDir + "_stage"
	if err := os.RemoveAll(stage); err != nil {
		return fmt.Errorf("clear stale staging: %w", err)
	}
	if err := os.MkdirAll(stage, 0o755); err != nil {
		return fmt.Errorf("create staging: %w", err)
	}
	s.stageDir = stage
	slog.Debug("Initialized staging directory", "staging", stage, "final", s.outputDir)
	return nil
}

// Promote atomically replaces the output directory with the staged tree:
// move existing output aside, rename staging into place, drop the backup.
func (s *Serializer) Promote() error {
	if s.stageDir == "" {
		return fmt.Errorf("no staging directory initialized")
	}
	prev := s.outputDir + ".prev"
	if err := os.RemoveAll(prev); err != nil {
		return fmt.Errorf("remove previous backup: %w", err)
	}
	if _, err := os.Stat(s.outputDir); err == nil {
		if err := os.Rename(s.outputDir, prev); err != nil {
			return fmt.Errorf("backup existing output: %w", err)
		}
	}
	if err := os.Rename(s.stageDir, s.outputDir); err != nil {
		return fmt.Errorf("promote staging: %w", err)
	}
	s.stageDir = ""
	if err := os.RemoveAll(prev); err != nil {
		slog.Warn("Failed to remove previous backup", logfields.Path(prev), logfields.Error(err))
	}
	slog.Info("Promoted staging directory", "output", s.outputDir)
	return nil
}

// Abort removes an active staging directory after a failed build.
func (s *Serializer) Abort() {
	if s.stageDir == "" {
		return
	}
	dir := s.stageDir
	s.stageDir = ""
	if err := os.RemoveAll(dir); err != nil {
		slog.Warn("Failed to remove staging directory after abort", "staging", dir, logfields.Error(err))
	}
}

// Serialize writes every node's document under BuildRoot. An I/O failure at
// one node is recorded and the walk continues with the remaining nodes, so
// unaffected subtrees still land on disk completely.
func (s *Serializer) Serialize(tree *Tree) []error {
	var errs []error
	root := s.BuildRoot()
	start := time.Now()
	written := 0

	tree.Walk(func(n *Node) {
		doc := s.document(n)
		target := filepath.Join(root, filepath.FromSlash(NodePath(n)))
		if err := stac.WriteFile(target, doc, s.pretty); err != nil {
			errs = append(errs, foundation.SerializationError("failed to write document").
				WithEntity(n.ID).
				WithComponent("serializer").
				WithContext(foundation.Fields{"path": NodePath(n)}).
				WithCause(err).
				Build())
			slog.Error("Failed to write document", logfields.Entity(n.ID), logfields.Path(target), logfields.Error(err))
			return
		}
		written++
	})

	slog.Info("Serialized catalog tree",
		logfields.Count(written),
		slog.Duration("elapsed", time.Since(start)),
		slog.Int("failed", len(errs)))
	return errs
}

// NodeDir returns the slash-separated directory of a node's document,
// derived from its slug chain. "" is the output root.
func NodeDir(n *Node) string {
	var parts []string
	for cur := n; cur != nil && cur.Kind != NodeRoot; cur = cur.Parent() {
		parts = append([]string{cur.Slug}, parts...)
	}
	return path.Join(parts...)
}

// NodeFile returns the file name a node serializes to.
func NodeFile(n *Node) string {
	switch n.Kind {
	case NodeProduct:
		return "collection.json"
	case NodeItem:
		return n.ID + ".json"
	default:
		return "catalog.json"
	}
}

// NodePath returns the slash-separated output path of a node's document
// relative to the output root.
func NodePath(n *Node) string {
	return path.Join(NodeDir(n), NodeFile(n))
}

// relHref computes the relative href from the directory of `from` to the
// document of `to`.
func relHref(from, to *Node) string {
	fromDir := NodeDir(from)
	toPath := NodePath(to)

	var fromParts []string
	if fromDir != "" {
		fromParts = strings.Split(fromDir, "/")
	}
	toParts := strings.Split(toPath, "/")

	common := 0
	for common < len(fromParts) && common < len(toParts)-1 && fromParts[common] == toParts[common] {
		common++
	}

	var sb strings.Builder
	for i := common; i < len(fromParts); i++ {
		sb.WriteString("../")
	}
	sb.WriteString(strings.Join(toParts[common:], "/"))
	href := sb.String()
	if !strings.HasPrefix(href, "../") {
		href = "./" + href
	}
	return href
}

// selfHref is the self link target: absolute when a published root href is
// configured, else the document's own file name.
func (s *Serializer) selfHref(n *Node) string {
	if s.rootHref == "" {
		return "./" + NodeFile(n)
	}
	return strings.TrimRight(s.rootHref, "/") + "/" + NodePath(n)
}

// document builds the STAC document for one node.
func (s *Serializer) document(n *Node) any {
	switch n.Kind {
	case NodeProduct:
		return s.collectionDoc(n)
	case NodeItem:
		return s.itemDoc(n)
	default:
		return s.catalogDoc(n)
	}
}

func (s *Serializer) catalogDoc(n *Node) *stac.Catalog {
	desc := n.Desc
	if desc == "" {
		desc = n.Title
	}
	doc := stac.NewCatalog(n.ID, n.Title, desc)

	doc.AddLink(stac.Link{Rel: stac.RelSelf, Href: s.selfHref(n), Type: stac.MediaTypeJSON})
	doc.AddLink(stac.Link{Rel: stac.RelRoot, Href: relHref(n, n.Root()), Type: stac.MediaTypeJSON})
	if parent := n.Parent(); parent != nil {
		doc.AddLink(stac.Link{Rel: stac.RelParent, Href: relHref(n, parent), Type: stac.MediaTypeJSON})
	}
	for _, child := range n.Children() {
		doc.AddLink(stac.Link{Rel: stac.RelChild, Href: relHref(n, child), Type: stac.MediaTypeJSON, Title: child.Title})
	}

	if n.Theme != nil {
		if n.Theme.Link != "" {
			doc.AddLink(stac.Link{Rel: stac.RelVia, Href: n.Theme.Link, Title: "Link"})
		}
		if n.Theme.Image != "" {
			doc.AddAsset("thumbnail", stac.Asset{Href: n.Theme.Image, Roles: []string{"thumbnail"}})
		}
	}
	if n.Project != nil {
		project := n.Project
		doc.Status = string(project.Status)
		doc.Consortium = project.Consortium
		if project.TechnicalOfficer.Name != "" {
			doc.Contacts = append(doc.Contacts, stac.Contact{
				Name:  project.TechnicalOfficer.Name,
				Email: project.TechnicalOfficer.Email,
				Role:  "technical_officer",
			})
		}
		if project.Website != "" {
			doc.AddLink(stac.Link{Rel: stac.RelVia, Href: project.Website, Title: "Website"})
		}
	}
	if n.Kind == NodeRoot {
		doc.Links = append(doc.Links, s.RootExtraLinks...)
	}
	return doc
}

func (s *Serializer) collectionDoc(n *Node) *stac.Collection {
	product := n.Product
	desc := n.Desc
	if desc == "" {
		desc = n.Title
	}
	doc := stac.NewCollection(n.ID, n.Title, desc, product.License)
	doc.Keywords = product.Keywords
	for _, name := range product.Providers {
		doc.Providers = append(doc.Providers, stac.Provider{Name: name, Roles: []string{"producer"}})
	}
	doc.Region = product.Region
	switch {
	case product.ReleasePlanned:
		doc.Status = "planned"
	case product.Released != nil:
		doc.Status = "released"
		doc.Released = fmtTime(*product.Released)
	}
	doc.Extent = s.extent(n)

	doc.AddLink(stac.Link{Rel: stac.RelSelf, Href: s.selfHref(n), Type: stac.MediaTypeJSON})
	doc.AddLink(stac.Link{Rel: stac.RelRoot, Href: relHref(n, n.Root()), Type: stac.MediaTypeJSON})
	doc.AddLink(stac.Link{Rel: stac.RelParent, Href: relHref(n, n.Parent()), Type: stac.MediaTypeJSON})
	for _, child := range n.Children() {
		title := child.Title
		if title == "" {
			title = child.ID
		}
		doc.AddLink(stac.Link{Rel: stac.RelItem, Href: relHref(n, child), Type: stac.MediaTypeGeoJSON, Title: title})
	}

	// Themes and projects classify products rather than merely contain
	// them, so the governing nodes get lateral links distinct from parent.
	project := n.Parent()
	theme := project.Parent()
	doc.AddLink(stac.Link{Rel: stac.RelRelated, Href: relHref(n, project), Type: stac.MediaTypeJSON, Title: "Project: " + project.Title})
	doc.AddLink(stac.Link{Rel: stac.RelRelated, Href: relHref(n, theme), Type: stac.MediaTypeJSON, Title: "Theme: " + theme.Title})

	if product.Website != "" {
		doc.AddLink(stac.Link{Rel: stac.RelVia, Href: product.Website, Title: "Website"})
	}
	if product.Access != "" {
		doc.AddLink(stac.Link{Rel: stac.RelVia, Href: product.Access, Title: "Access"})
	}
	if product.DOI != "" {
		doc.AddLink(stac.Link{Rel: "cite-as", Href: "https://doi.org/" + product.DOI})
	}
	return doc
}

func (s *Serializer) itemDoc(n *Node) *stac.Item {
	item := n.Item
	doc := stac.NewItem(n.ID)
	doc.Collection = n.Parent().ID

	if item.Geometry != nil {
		doc.Geometry = item.Geometry.GeoJSON()
	}
	if !n.BBox.IsEmpty() {
		doc.BBox = n.BBox.Slice()
	}

	if item.Title != "" {
		doc.Properties["title"] = item.Title
	}
	switch {
	case item.Datetime != nil:
		doc.Properties["datetime"] = fmtTime(*item.Datetime)
	default:
		doc.Properties["datetime"] = nil
		if item.Interval.Start != nil {
			doc.Properties["start_datetime"] = fmtTime(*item.Interval.Start)
		}
		if item.Interval.End != nil {
			doc.Properties["end_datetime"] = fmtTime(*item.Interval.End)
		}
	}

	doc.AddLink(stac.Link{Rel: stac.RelSelf, Href: s.selfHref(n), Type: stac.MediaTypeGeoJSON})
	doc.AddLink(stac.Link{Rel: stac.RelRoot, Href: relHref(n, n.Root()), Type: stac.MediaTypeJSON})
	doc.AddLink(stac.Link{Rel: stac.RelParent, Href: relHref(n, n.Parent()), Type: stac.MediaTypeJSON})
	doc.AddLink(stac.Link{Rel: stac.RelCollection, Href: relHref(n, n.Parent()), Type: stac.MediaTypeJSON})

	if item.AssetHref != "" {
		assetType := item.AssetType
		if assetType == "" {
			assetType = stac.MediaTypeJSON
		}
		doc.AddAsset("data", stac.Asset{Href: item.AssetHref, Type: assetType, Roles: []string{"data"}})
	}
	return doc
}

// extent converts a node's aggregated coverage into the collection extent
// object. Collections must carry an extent, so an empty spatial sentinel
// falls back to the whole globe and a missing temporal coverage to the
// fully open interval, matching the published-catalog convention.
func (s *Serializer) extent(n *Node) stac.Extent {
	box := n.BBox
	if box.IsEmpty() {
		box = geometry.World()
	}
	var start, end *string
	if n.HasTemporal {
		if n.Interval.Start != nil {
			v := fmtTime(*n.Interval.Start)
			start = &v
		}
		if n.Interval.End != nil {
			v := fmtTime(*n.Interval.End)
			end = &v
		}
	}
	return stac.Extent{
		Spatial:  stac.SpatialExtent{BBox: [][]float64{box.Slice()}},
		Temporal: stac.TemporalExtent{Interval: [][]*string{{start, end}}},
	}
}

// fmtTime renders a timestamp in the fixed RFC 3339 UTC form used across
// all documents, keeping output byte-stable.
func fmtTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05Z")
}
