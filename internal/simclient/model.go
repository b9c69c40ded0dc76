package simclient

import (
	"github.com/jamiegrech/RSBot-API/internal/geo"
	"github.com/jamiegrech/RSBot-API/pkg/client"
	"github.com/jamiegrech/RSBot-API/pkg/core"
)

// Model is the projected outline of an actor for one frame: the screen
// rectangle swept by its ground footprint lifted to its height.
type Model struct {
	world  *World
	bounds []core.Polygon
	center core.Point
}

func capture(w *World, x, y, plane, height int) (*Model, bool) {
	half := geo.TileSize / 2
	corners := [][2]int{{x - half, y - half}, {x + half, y + half}}

	var pts []core.Point
	for _, c := range corners {
		p, ok := w.GroundToScreen(c[0], c[1], plane, 0)
		if !ok {
			return nil, false
		}
		pts = append(pts, p)
	}

	minX, maxX := min(pts[0].X, pts[1].X), max(pts[0].X, pts[1].X)
	minY, maxY := min(pts[0].Y, pts[1].Y), max(pts[0].Y, pts[1].Y)
	minY -= height

	body := core.Polygon{{X: minX, Y: minY}, {X: maxX, Y: minY}, {X: maxX, Y: maxY}, {X: minX, Y: maxY}}
	center, _ := geo.Center(body)

	return &Model{world: w, bounds: []core.Polygon{body}, center: center}, true
}

// CentralPoint implements client.Model.
func (m *Model) CentralPoint() (core.Point, bool) {
	return m.center, true
}

// NextViewportPoint implements client.Model.
func (m *Model) NextViewportPoint() (core.Point, bool) {
	return m.center, true
}

// Contains implements client.Model. Edges are inside.
func (m *Model) Contains(p core.Point) bool {
	return geo.ContainsAny(m.bounds, p)
}

// OnScreen implements client.Model.
func (m *Model) OnScreen() bool {
	return m.world.OnScreen(m.center)
}

// Bounds implements client.Model.
func (m *Model) Bounds() []core.Polygon {
	out := make([]core.Polygon, len(m.bounds))
	copy(out, m.bounds)
	return out
}

// Hover implements client.Model.
func (m *Model) Hover() bool {
	return m.world.mouse.Apply(m, func(core.Point) bool { return true })
}

// Click implements client.Model.
func (m *Model) Click(left bool) bool {
	return m.world.mouse.Apply(m, func(core.Point) bool {
		m.world.mouse.Click(left)
		return true
	})
}

// Interact implements client.Model.
func (m *Model) Interact(action, option string) bool {
	return m.world.mouse.Apply(m, func(core.Point) bool {
		return m.world.menu.Select(action, option)
	})
}

var _ client.Model = (*Model)(nil)
