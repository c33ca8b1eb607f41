package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/stacbuilder/internal/geometry"
	"git.home.luguber.info/inful/stacbuilder/internal/records"
)

func ts(value string) *time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	t = t.UTC()
	return &t
}

func extentTestTree(t *testing.T, items []records.Item) *Tree {
	t.Helper()
	set := &records.Set{
		Themes:   []records.Theme{{ID: "t", Title: "Theme"}},
		Projects: []records.Project{{ID: "p", Theme: "t", Title: "Project"}},
		Products: []records.Product{{ID: "prod", Project: "p", Title: "Product"}},
		Items:    items,
	}
	tree, errs := BuildTree(set, testRoot(), NewSlugger())
	require.Empty(t, errs)
	return tree
}

func TestAggregateSpatialUnion(t *testing.T) {
	tree := extentTestTree(t, []records.Item{
		{ID: "a", Product: "prod", Datetime: ts("2020-01-01"),
			BBox: &geometry.BBox{West: 0, South: 0, East: 1, North: 1}},
		{ID: "b", Product: "prod", Datetime: ts("2020-01-02"),
			BBox: &geometry.BBox{West: 2, South: 2, East: 3, North: 3}},
	})

	AggregateExtents(tree, PolicyDeclaredWins)

	product := tree.Lookup(NodeProduct, "prod")
	assert.Equal(t, geometry.BBox{West: 0, South: 0, East: 3, North: 3}, product.BBox)
	// Extents bubble all the way up.
	assert.Equal(t, geometry.BBox{West: 0, South: 0, East: 3, North: 3}, tree.Root.BBox)
}

func TestAggregateTemporalUnionPreservesOpenEnd(t *testing.T) {
	tree := extentTestTree(t, []records.Item{
		{ID: "a", Product: "prod",
			Interval: records.Interval{Start: ts("2020-01-01"), End: ts("2020-06-01")}},
		{ID: "b", Product: "prod",
			Interval: records.Interval{Start: ts("2020-03-01"), End: nil}},
	})

	AggregateExtents(tree, PolicyDeclaredWins)

	product := tree.Lookup(NodeProduct, "prod")
	require.True(t, product.HasTemporal)
	require.NotNil(t, product.Interval.Start)
	assert.Equal(t, *ts("2020-01-01"), *product.Interval.Start)
	assert.Nil(t, product.Interval.End, "open end must be preserved")
}

func TestAggregateItemsWithoutGeometryStillCountTemporally(t *testing.T) {
	tree := extentTestTree(t, []records.Item{
		{ID: "a", Product: "prod", Datetime: ts("2019-05-01"),
			BBox: &geometry.BBox{West: 10, South: 10, East: 20, North: 20}},
		{ID: "b", Product: "prod", Datetime: ts("2023-05-01")}, // no geometry, no bbox
	})

	AggregateExtents(tree, PolicyDeclaredWins)

	product := tree.Lookup(NodeProduct, "prod")
	assert.Equal(t, geometry.BBox{West: 10, South: 10, East: 20, North: 20}, product.BBox,
		"item without geometry must not disturb the bbox union")
	require.True(t, product.HasTemporal)
	assert.Equal(t, *ts("2019-05-01"), *product.Interval.Start)
	assert.Equal(t, *ts("2023-05-01"), *product.Interval.End)
}

func TestAggregateEmptyProductWarns(t *testing.T) {
	tree := extentTestTree(t, nil)

	warnings := AggregateExtents(tree, PolicyDeclaredWins)
	require.NotEmpty(t, warnings)

	product := tree.Lookup(NodeProduct, "prod")
	assert.True(t, product.BBox.IsEmpty())
	assert.False(t, product.HasTemporal)
}

func TestAggregateDeclaredWins(t *testing.T) {
	set := &records.Set{
		Themes:   []records.Theme{{ID: "t", Title: "Theme"}},
		Projects: []records.Project{{ID: "p", Theme: "t", Title: "Project"}},
		Products: []records.Product{{
			ID: "prod", Project: "p", Title: "Product",
			BBox:     &geometry.BBox{West: -10, South: -10, East: 10, North: 10},
			Interval: records.Interval{Start: ts("2000-01-01"), End: ts("2010-01-01")},
		}},
		Items: []records.Item{
			{ID: "a", Product: "prod", Datetime: ts("2020-01-01"),
				BBox: &geometry.BBox{West: 0, South: 0, East: 1, North: 1}},
		},
	}
	tree, errs := BuildTree(set, testRoot(), NewSlugger())
	require.Empty(t, errs)

	AggregateExtents(tree, PolicyDeclaredWins)
	product := tree.Lookup(NodeProduct, "prod")
	assert.Equal(t, geometry.BBox{West: -10, South: -10, East: 10, North: 10}, product.BBox)
	assert.Equal(t, *ts("2000-01-01"), *product.Interval.Start)

	// Same input under derived-wins prefers the aggregation.
	tree2, errs := BuildTree(set, testRoot(), NewSlugger())
	require.Empty(t, errs)
	AggregateExtents(tree2, PolicyDerivedWins)
	product2 := tree2.Lookup(NodeProduct, "prod")
	assert.Equal(t, geometry.BBox{West: 0, South: 0, East: 1, North: 1}, product2.BBox)
	assert.Equal(t, *ts("2020-01-01"), *product2.Interval.Start)
}
