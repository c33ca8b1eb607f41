package catalog

import (
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/stacbuilder/internal/geometry"
	"git.home.luguber.info/inful/stacbuilder/internal/logfields"
	"git.home.luguber.info/inful/stacbuilder/internal/records"
)

// ExtentPolicy decides whether a declared extent on a project or product
// beats the extent derived from its descendants.
type ExtentPolicy string

const (
	// PolicyDeclaredWins keeps explicitly declared extents and derives only
	// what is missing. This is the default.
	PolicyDeclaredWins ExtentPolicy = "declared-wins"
	// PolicyDerivedWins always aggregates from descendants, falling back to
	// declared values only when nothing can be derived.
	PolicyDerivedWins ExtentPolicy = "derived-wins"
)

// AggregateExtents computes spatial and temporal extents for every node in
// a single post-order pass: leaves contribute their own coverage, internal
// nodes the union of their children. A node with no children and no
// declared extent is a warning, not an error; the returned list carries one
// warning per such node and the build proceeds with the empty sentinel.
func AggregateExtents(tree *Tree, policy ExtentPolicy) []error {
	var warnings []error

	tree.WalkPost(func(n *Node) {
		if n.Kind == NodeItem {
			aggregateItem(n)
			return
		}

		declaredBBox := n.BBox
		declaredInterval := n.Interval

		derivedBBox := geometry.Empty()
		derivedInterval := records.Interval{}
		derivedTemporal := false
		for _, child := range n.Children() {
			derivedBBox = derivedBBox.Union(child.BBox)
			if child.HasTemporal {
				derivedInterval = unionInterval(derivedInterval, child.Interval, derivedTemporal)
				derivedTemporal = true
			}
		}

		switch policy {
		case PolicyDerivedWins:
			n.BBox = derivedBBox
			if derivedBBox.IsEmpty() {
				n.BBox = declaredBBox
			}
			n.Interval = derivedInterval
			n.HasTemporal = derivedTemporal
			if !derivedTemporal && !declaredInterval.IsZero() {
				n.Interval = declaredInterval
				n.HasTemporal = true
			}
		default: // declared wins
			n.BBox = declaredBBox
			if declaredBBox.IsEmpty() {
				n.BBox = derivedBBox
			}
			if !declaredInterval.IsZero() {
				n.Interval = declaredInterval
				n.HasTemporal = true
			} else {
				n.Interval = derivedInterval
				n.HasTemporal = derivedTemporal
			}
		}

		if len(n.Children()) == 0 && n.Kind != NodeRoot {
			warnings = append(warnings, fmt.Errorf("%s %q has no children to derive an extent from", n.Kind, n.ID))
			slog.Warn("Node has no children for extent aggregation",
				logfields.Kind(string(n.Kind)), logfields.Entity(n.ID))
		}
	})

	return warnings
}

// aggregateItem fills a leaf's extent from its own geometry and dates.
// Items without geometry keep the empty spatial sentinel (they are excluded
// from the parent bbox union) but still contribute temporally.
func aggregateItem(n *Node) {
	item := n.Item

	box := geometry.Empty()
	if item.Geometry != nil {
		box = item.Geometry.Bounds()
	} else if item.BBox != nil {
		box = *item.BBox
	}
	n.BBox = box

	switch {
	case item.Datetime != nil:
		n.Interval = records.Interval{Start: item.Datetime, End: item.Datetime}
		n.HasTemporal = true
	case !item.Interval.IsZero():
		n.Interval = item.Interval
		n.HasTemporal = true
	}
}

// unionInterval spans the earliest start and latest end of two intervals.
// A nil end means open-ended and is preserved: once any contributor is
// ongoing, the union is ongoing.
func unionInterval(acc, next records.Interval, accSet bool) records.Interval {
	if !accSet {
		return next
	}
	out := acc
	if out.Start != nil {
		if next.Start == nil {
			out.Start = nil
		} else if next.Start.Before(*out.Start) {
			out.Start = next.Start
		}
	}
	if out.End != nil {
		if next.End == nil {
			out.End = nil
		} else if next.End.After(*out.End) {
			out.End = next.End
		}
	}
	return out
}
