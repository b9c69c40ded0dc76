// pkg/core/types.go
package core

// RegionOffset is a tile position relative to the currently loaded map region.
// It is only meaningful while that region stays loaded.
type RegionOffset struct {
	X     int `json:"x"`
	Y     int `json:"y"`
	Plane int `json:"plane"`
}

// Tile is an absolute world tile: region base + RegionOffset.
type Tile struct {
	X     int `json:"x"`
	Y     int `json:"y"`
	Plane int `json:"plane"`
}

// Point is a position in screen space (pixels).
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Polygon is a closed screen-space outline. The last vertex connects back
// to the first, so the ring is not repeated.
type Polygon []Point
