package geo

import (
	"errors"
	"fmt"

	"github.com/jamiegrech/RSBot-API/pkg/client"
	"github.com/jamiegrech/RSBot-API/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

// TileSize is the edge length of one tile in fine units.
const TileSize = 1 << client.FineUnitShift

// ErrDegeneratePolygon is returned when a polygon has fewer than three vertices
var ErrDegeneratePolygon = errors.New("polygon needs at least 3 vertices")

// TileCorners returns the fine-unit ground corners of a region tile, in
// ring order starting at the south-west corner.
func TileCorners(off core.RegionOffset) [4][2]int {
	x0, y0 := off.X*TileSize, off.Y*TileSize
	x1, y1 := x0+TileSize, y0+TileSize
	return [4][2]int{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}}
}

// TileBounds projects the four ground corners of a tile. ok is false if any
// corner falls outside the view frustum.
func TileBounds(p client.Projector, off core.RegionOffset) (core.Polygon, bool) {
	return TileBoundsAt(p, off, 0)
}

// TileBoundsAt projects the tile outline at the given height offset, the
// same offset GroundToScreen takes.
func TileBoundsAt(p client.Projector, off core.RegionOffset, height int) (core.Polygon, bool) {
	poly := make(core.Polygon, 0, 4)
	for _, c := range TileCorners(off) {
		pt, ok := p.GroundToScreen(c[0], c[1], off.Plane, height)
		if !ok {
			return nil, false
		}
		poly = append(poly, pt)
	}
	return poly, true
}

// ToGeom converts a screen polygon into a closed simplefeatures polygon.
func ToGeom(poly core.Polygon) (geom.Polygon, error) {
	if len(poly) < 3 {
		return geom.Polygon{}, ErrDegeneratePolygon
	}
	flat := make([]float64, 0, (len(poly)+1)*2)
	for _, p := range poly {
		flat = append(flat, float64(p.X), float64(p.Y))
	}
	// close the ring
	flat = append(flat, float64(poly[0].X), float64(poly[0].Y))

	ring, err := geom.NewLineString(geom.NewSequence(flat, geom.DimXY))
	if err != nil {
		return geom.Polygon{}, fmt.Errorf("polygon ring: %w", err)
	}
	g, err := geom.NewPolygon([]geom.LineString{ring})
	if err != nil {
		return geom.Polygon{}, fmt.Errorf("polygon: %w", err)
	}
	return g, nil
}

// PointToGeom converts a screen point to a simplefeatures point.
func PointToGeom(p core.Point) (geom.Point, error) {
	return geom.NewPoint(geom.Coordinates{
		XY:   geom.XY{X: float64(p.X), Y: float64(p.Y)},
		Type: geom.DimXY,
	})
}

// Contains reports whether pt lies inside poly or on its edge. A polygon
// that does not form a valid ring, such as a tile the camera collapsed onto
// a line, contains nothing.
func Contains(poly core.Polygon, pt core.Point) bool {
	g, err := ToGeom(poly)
	if err != nil {
		return false
	}
	p, err := PointToGeom(pt)
	if err != nil {
		return false
	}
	return geom.Intersects(g.AsGeometry(), p.AsGeometry())
}

// ContainsAny reports whether any polygon contains pt.
func ContainsAny(polys []core.Polygon, pt core.Point) bool {
	for _, poly := range polys {
		if Contains(poly, pt) {
			return true
		}
	}
	return false
}

// Center returns the integer centroid of the polygon vertices.
func Center(poly core.Polygon) (core.Point, bool) {
	if len(poly) == 0 {
		return core.Point{}, false
	}
	var sx, sy int
	for _, p := range poly {
		sx += p.X
		sy += p.Y
	}
	return core.Point{X: sx / len(poly), Y: sy / len(poly)}, true
}
