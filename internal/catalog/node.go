// Package catalog is the assembly engine: it turns normalized records into
// a linked tree of catalog nodes, aggregates extents bottom-up, and writes
// the static document tree.
package catalog

import (
	"git.home.luguber.info/inful/stacbuilder/internal/geometry"
	"git.home.luguber.info/inful/stacbuilder/internal/records"
)

// NodeKind tags the variant of a catalog node.
type NodeKind string

const (
	NodeRoot    NodeKind = "root"
	NodeTheme   NodeKind = "theme"
	NodeProject NodeKind = "project"
	NodeProduct NodeKind = "product"
	NodeItem    NodeKind = "item"
)

// Node is one entity in the assembled tree. The four entity kinds share
// this single tagged shape instead of an inheritance chain; exactly one of
// the payload pointers is set for non-root nodes.
type Node struct {
	Kind     NodeKind
	ID       string
	Title    string
	Desc     string
	Slug     string
	parent   *Node
	children []*Node

	Theme   *records.Theme
	Project *records.Project
	Product *records.Product
	Item    *records.Item

	// Aggregated extent, populated by the post-order aggregation pass.
	BBox        geometry.BBox
	Interval    records.Interval
	HasTemporal bool
}

// Parent returns the owning node, nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the owned nodes in input order.
func (n *Node) Children() []*Node { return n.children }

// Depth returns the number of parent hops to the root.
func (n *Node) Depth() int {
	d := 0
	for p := n.parent; p != nil; p = p.parent {
		d++
	}
	return d
}

// Root follows the parent chain to the tree root.
func (n *Node) Root() *Node {
	r := n
	for r.parent != nil {
		r = r.parent
	}
	return r
}

// isAncestorOf reports whether n appears on other's parent chain.
func (n *Node) isAncestorOf(other *Node) bool {
	for p := other.parent; p != nil; p = p.parent {
		if p == n {
			return true
		}
	}
	return false
}

// Tree is the assembled catalog graph for one build run.
type Tree struct {
	Root *Node
	// byKey indexes nodes by kind+id for lateral reference resolution.
	byKey map[string]*Node
}

// Lookup returns the node for a kind and id, nil when absent.
func (t *Tree) Lookup(kind NodeKind, id string) *Node {
	return t.byKey[string(kind)+"/"+id]
}

// Walk visits every node pre-order, root first.
func (t *Tree) Walk(fn func(*Node)) {
	var visit func(*Node)
	visit = func(n *Node) {
		fn(n)
		for _, c := range n.children {
			visit(c)
		}
	}
	visit(t.Root)
}

// WalkPost visits every node post-order, children before parents.
func (t *Tree) WalkPost(fn func(*Node)) {
	var visit func(*Node)
	visit = func(n *Node) {
		for _, c := range n.children {
			visit(c)
		}
		fn(n)
	}
	visit(t.Root)
}

// Count returns the number of nodes of the given kind.
func (t *Tree) Count(kind NodeKind) int {
	n := 0
	t.Walk(func(node *Node) {
		if node.Kind == kind {
			n++
		}
	})
	return n
}
