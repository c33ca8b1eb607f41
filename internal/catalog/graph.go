package catalog

import (
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/stacbuilder/internal/foundation"
	"git.home.luguber.info/inful/stacbuilder/internal/geometry"
	"git.home.luguber.info/inful/stacbuilder/internal/logfields"
	"git.home.luguber.info/inful/stacbuilder/internal/records"
)

// RootSpec names the root catalog document.
type RootSpec struct {
	ID          string
	Title       string
	Description string
}

// BuildTree assembles the catalog graph from normalized records: themes
// under the root, projects under their theme, products under their
// project, items under their product. Slugs are resolved per sibling set
// in input order.
//
// Structural problems (dangling parent reference, duplicate id, ancestor
// cycle) abort only the affected branch; the error list carries one
// classified error per abandoned record and sibling branches build on.
func BuildTree(set *records.Set, root RootSpec, slugger *Slugger) (*Tree, []error) {
	var errs []error
	tree := &Tree{
		Root: &Node{
			Kind:  NodeRoot,
			ID:    root.ID,
			Title: root.Title,
			Desc:  root.Description,
			BBox:  geometry.Empty(),
		},
		byKey: make(map[string]*Node),
	}

	register := func(n *Node) bool {
		key := string(n.Kind) + "/" + n.ID
		if _, dup := tree.byKey[key]; dup {
			errs = append(errs, foundation.StructuralError(fmt.Sprintf("duplicate %s id", n.Kind)).
				WithEntity(n.ID).
				WithComponent("graph").
				Build())
			return false
		}
		tree.byKey[key] = n
		return true
	}

	attach := func(parent, child *Node) error {
		if child == parent || child.isAncestorOf(parent) {
			return foundation.StructuralError("cycle detected: node would become its own ancestor").
				WithEntity(child.ID).
				WithComponent("graph").
				Build()
		}
		child.parent = parent
		parent.children = append(parent.children, child)
		return nil
	}

	for i := range set.Themes {
		theme := &set.Themes[i]
		node := &Node{
			Kind:  NodeTheme,
			ID:    theme.ID,
			Title: theme.Title,
			Desc:  theme.Description,
			Theme: theme,
			BBox:  geometry.Empty(),
		}
		if !register(node) {
			continue
		}
		node.Slug = slugger.Resolve("/", theme.ID, theme.Title)
		if err := attach(tree.Root, node); err != nil {
			errs = append(errs, err)
		}
	}

	for i := range set.Projects {
		project := &set.Projects[i]
		parent := tree.Lookup(NodeTheme, project.Theme)
		if parent == nil {
			errs = append(errs, danglingParent("project", project.ID, "theme", project.Theme))
			continue
		}
		node := &Node{
			Kind:     NodeProject,
			ID:       project.ID,
			Title:    project.Title,
			Desc:     project.Description,
			Project:  project,
			BBox:     declaredOrEmpty(project.BBox),
			Interval: project.Interval,
		}
		if !register(node) {
			continue
		}
		node.Slug = slugger.Resolve(parent.Slug, project.ID, project.Title)
		if err := attach(parent, node); err != nil {
			errs = append(errs, err)
		}
	}

	for i := range set.Products {
		product := &set.Products[i]
		parent := tree.Lookup(NodeProject, product.Project)
		if parent == nil {
			errs = append(errs, danglingParent("product", product.ID, "project", product.Project))
			continue
		}
		node := &Node{
			Kind:     NodeProduct,
			ID:       product.ID,
			Title:    product.Title,
			Desc:     product.Description,
			Product:  product,
			BBox:     declaredOrEmpty(product.BBox),
			Interval: product.Interval,
		}
		if !register(node) {
			continue
		}
		node.Slug = slugger.Resolve(parent.Parent().Slug+"/"+parent.Slug, product.ID, product.Title)
		if err := attach(parent, node); err != nil {
			errs = append(errs, err)
		}
	}

	for i := range set.Items {
		item := &set.Items[i]
		parent := tree.Lookup(NodeProduct, item.Product)
		if parent == nil {
			errs = append(errs, danglingParent("item", item.ID, "product", item.Product))
			continue
		}
		node := &Node{
			Kind:  NodeItem,
			ID:    item.ID,
			Title: item.Title,
			Item:  item,
			BBox:  geometry.Empty(),
		}
		if !register(node) {
			continue
		}
		scope := parent.Parent().Parent().Slug + "/" + parent.Parent().Slug + "/" + parent.Slug
		node.Slug = slugger.Resolve(scope, item.ID, item.ID)
		if err := attach(parent, node); err != nil {
			errs = append(errs, err)
		}
	}

	slog.Debug("Assembled catalog tree",
		logfields.Count(len(tree.byKey)),
		slog.Int("themes", tree.Count(NodeTheme)),
		slog.Int("projects", tree.Count(NodeProject)),
		slog.Int("products", tree.Count(NodeProduct)),
		slog.Int("items", tree.Count(NodeItem)))

	return tree, errs
}

// declaredOrEmpty lifts an optional declared bbox into the node sentinel.
func declaredOrEmpty(box *geometry.BBox) geometry.BBox {
	if box == nil {
		return geometry.Empty()
	}
	return *box
}

func danglingParent(kind, id, parentKind, parentID string) error {
	return foundation.StructuralError(
		fmt.Sprintf("%s references non-existing %s %q", kind, parentKind, parentID)).
		WithEntity(id).
		WithComponent("graph").
		WithContext(foundation.Fields{"parent_kind": parentKind, "parent_id": parentID}).
		Build()
}
