// Package geometry provides the minimal spatial handling the catalog
// builder needs: axis-aligned bounding boxes, their union, and parsing of
// the coordinate-array geometry notation used by the input records.
package geometry

import (
	"encoding/json"
	"fmt"
	"math"
)

// BBox is an axis-aligned bounding box in lon/lat order:
// west, south, east, north.
type BBox struct {
	West  float64
	South float64
	East  float64
	North float64
}

// Empty is the sentinel used before any coordinates contribute to a box.
func Empty() BBox {
	return BBox{
		West:  math.Inf(1),
		South: math.Inf(1),
		East:  math.Inf(-1),
		North: math.Inf(-1),
	}
}

// IsEmpty reports whether the box covers nothing.
func (b BBox) IsEmpty() bool {
	return b.West > b.East || b.South > b.North
}

// Slice returns the STAC wire form [west, south, east, north].
func (b BBox) Slice() []float64 {
	return []float64{b.West, b.South, b.East, b.North}
}

// Extend grows the box to include the given point.
func (b BBox) Extend(lon, lat float64) BBox {
	return BBox{
		West:  math.Min(b.West, lon),
		South: math.Min(b.South, lat),
		East:  math.Max(b.East, lon),
		North: math.Max(b.North, lat),
	}
}

// Union returns the smallest box covering both operands. Empty operands do
// not contribute.
func (b BBox) Union(other BBox) BBox {
	if b.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return b
	}
	return BBox{
		West:  math.Min(b.West, other.West),
		South: math.Min(b.South, other.South),
		East:  math.Max(b.East, other.East),
		North: math.Max(b.North, other.North),
	}
}

// World is the whole-globe box used when a collection must carry an extent
// but none could be derived.
func World() BBox {
	return BBox{West: -180, South: -90, East: 180, North: 90}
}

// GeometryType discriminates parsed geometries.
type GeometryType string

const (
	TypePoint   GeometryType = "Point"
	TypePolygon GeometryType = "Polygon"
)

// Geometry is a parsed input geometry. Coordinates follow GeoJSON
// conventions for the respective type.
type Geometry struct {
	Type    GeometryType
	Point   []float64     // lon, lat when Type == TypePoint
	Polygon [][][]float64 // rings when Type == TypePolygon
}

// Bounds computes the bounding box of the geometry.
func (g *Geometry) Bounds() BBox {
	box := Empty()
	switch g.Type {
	case TypePoint:
		if len(g.Point) >= 2 {
			box = box.Extend(g.Point[0], g.Point[1])
		}
	case TypePolygon:
		for _, ring := range g.Polygon {
			for _, pos := range ring {
				if len(pos) >= 2 {
					box = box.Extend(pos[0], pos[1])
				}
			}
		}
	}
	return box
}

// GeoJSON returns the geometry in GeoJSON object form for item documents.
func (g *Geometry) GeoJSON() map[string]any {
	switch g.Type {
	case TypePoint:
		return map[string]any{"type": "Point", "coordinates": g.Point}
	case TypePolygon:
		return map[string]any{"type": "Polygon", "coordinates": g.Polygon}
	}
	return nil
}

// Parse reads the record geometry notation: a JSON coordinate array that is
// either a single position (point) or a ring array (polygon shell plus
// optional holes). An empty source yields nil without error.
func Parse(source string) (*Geometry, error) {
	if source == "" {
		return nil, nil
	}
	var raw any
	if err := json.Unmarshal([]byte(source), &raw); err != nil {
		return nil, fmt.Errorf("parse geometry: %w", err)
	}
	switch depth(raw) {
	case 1:
		point, ok := positions(raw)
		if !ok || len(point) < 2 {
			return nil, fmt.Errorf("parse geometry: point needs two coordinates")
		}
		return &Geometry{Type: TypePoint, Point: point}, nil
	case 3:
		rings, ok := ringSet(raw)
		if !ok {
			return nil, fmt.Errorf("parse geometry: malformed polygon rings")
		}
		return &Geometry{Type: TypePolygon, Polygon: rings}, nil
	default:
		return nil, fmt.Errorf("parse geometry: unsupported nesting depth")
	}
}

// ParseBBox reads an explicit "west,south,east,north" bounding box, either
// as a JSON array or comma-separated numbers.
func ParseBBox(source string) (BBox, error) {
	if source == "" {
		return Empty(), nil
	}
	var vals []float64
	if err := json.Unmarshal([]byte(source), &vals); err != nil {
		if _, serr := fmt.Sscanf(source, "%f,%f,%f,%f", new(float64), new(float64), new(float64), new(float64)); serr != nil {
			return Empty(), fmt.Errorf("parse bbox: %w", err)
		}
		vals = make([]float64, 4)
		fmt.Sscanf(source, "%f,%f,%f,%f", &vals[0], &vals[1], &vals[2], &vals[3])
	}
	if len(vals) != 4 {
		return Empty(), fmt.Errorf("parse bbox: need 4 values, got %d", len(vals))
	}
	return BBox{West: vals[0], South: vals[1], East: vals[2], North: vals[3]}, nil
}

func depth(v any) int {
	list, ok := v.([]any)
	if !ok || len(list) == 0 {
		return 0
	}
	return depth(list[0]) + 1
}

func positions(v any) ([]float64, bool) {
	list, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]float64, 0, len(list))
	for _, item := range list {
		f, ok := item.(float64)
		if !ok {
			return nil, false
		}
		out = append(out, f)
	}
	return out, true
}

func ringSet(v any) ([][][]float64, bool) {
	list, ok := v.([]any)
	if !ok {
		return nil, false
	}
	rings := make([][][]float64, 0, len(list))
	for _, rawRing := range list {
		ringList, ok := rawRing.([]any)
		if !ok {
			return nil, false
		}
		ring := make([][]float64, 0, len(ringList))
		for _, rawPos := range ringList {
			pos, ok := positions(rawPos)
			if !ok || len(pos) < 2 {
				return nil, false
			}
			ring = append(ring, pos)
		}
		rings = append(rings, ring)
	}
	return rings, true
}
