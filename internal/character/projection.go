package character

import (
	"github.com/jamiegrech/RSBot-API/internal/geo"
	"github.com/jamiegrech/RSBot-API/pkg/client"
	"github.com/jamiegrech/RSBot-API/pkg/core"
)

// CapturedModel is the model the renderer captured this frame, bound to the
// character it belongs to.
type CapturedModel struct {
	client.Model
	Owner *Character
}

// Model returns the captured model; ok is false when the renderer did not
// capture one this frame or the actor is unavailable.
func (c *Character) Model() (*CapturedModel, bool) {
	a, ok := c.Get()
	if !ok {
		return nil, false
	}
	m := a.Model()
	if m == nil {
		return nil, false
	}
	return &CapturedModel{Model: m, Owner: c}, true
}

// projection is the screen-space view of a character for one logical call:
// either the captured model or the tile fallback. Resolving it once keeps
// every sub-query on the same side of that choice.
type projection interface {
	client.Target
	centralPoint() (core.Point, bool)
	onScreen() bool
	bounds() []core.Polygon
}

type modelProjection struct {
	model client.Model
}

func (p modelProjection) centralPoint() (core.Point, bool)      { return p.model.CentralPoint() }
func (p modelProjection) NextViewportPoint() (core.Point, bool) { return p.model.NextViewportPoint() }
func (p modelProjection) Contains(pt core.Point) bool           { return p.model.Contains(pt) }
func (p modelProjection) onScreen() bool                        { return p.model.OnScreen() }
func (p modelProjection) bounds() []core.Polygon                { return p.model.Bounds() }

// tileProjection is derived from the raw fine location, plane and height as
// read in a single pass.
type tileProjection struct {
	projector client.Projector
	x, y      int
	offset    core.RegionOffset
	height    int
}

func (p tileProjection) centralPoint() (core.Point, bool) {
	return p.projector.GroundToScreen(p.x, p.y, p.offset.Plane, -p.height/2)
}

func (p tileProjection) NextViewportPoint() (core.Point, bool) {
	return p.centralPoint()
}

// Contains accepts the ground tile and the tile lifted to the anchor
// height, so the anchor handed to the pointer is always a hit.
func (p tileProjection) Contains(pt core.Point) bool {
	if poly, ok := geo.TileBounds(p.projector, p.offset); ok && geo.Contains(poly, pt) {
		return true
	}
	if anchor, ok := p.centralPoint(); ok && anchor == pt {
		return true
	}
	poly, ok := geo.TileBoundsAt(p.projector, p.offset, -p.height/2)
	return ok && geo.Contains(poly, pt)
}

func (p tileProjection) onScreen() bool {
	pt, ok := p.centralPoint()
	return ok && p.projector.OnScreen(pt)
}

func (p tileProjection) bounds() []core.Polygon {
	poly, ok := geo.TileBounds(p.projector, p.offset)
	if !ok {
		return nil
	}
	return []core.Polygon{poly}
}

// resolveProjection reads the actor once and picks the projection strategy.
func (c *Character) resolveProjection() (projection, bool) {
	a, ok := c.Get()
	if !ok {
		return nil, false
	}
	return c.projectionOf(a), true
}

func (c *Character) projectionOf(a client.Actor) projection {
	if m := a.Model(); m != nil {
		return modelProjection{model: m}
	}
	x, y := a.Location()
	return tileProjection{
		projector: c.deps.Projector,
		x:         x,
		y:         y,
		offset:    toRegionOffset(x, y, a.Plane()),
		height:    a.Height(),
	}
}

// CentralPoint returns the screen anchor of the character.
func (c *Character) CentralPoint() (core.Point, bool) {
	p, ok := c.resolveProjection()
	if !ok {
		return core.Point{}, false
	}
	return p.centralPoint()
}

// NextViewportPoint returns a point suitable for moving the pointer onto.
func (c *Character) NextViewportPoint() (core.Point, bool) {
	p, ok := c.resolveProjection()
	if !ok {
		return core.Point{}, false
	}
	return p.NextViewportPoint()
}

// Contains reports whether pt hits the character. Without a captured model
// the tile outline is used, both on the ground and lifted to the anchor;
// its edges count as hits.
func (c *Character) Contains(pt core.Point) bool {
	p, ok := c.resolveProjection()
	if !ok {
		return false
	}
	return p.Contains(pt)
}

// OnScreen reports whether the character is visible in the viewport.
func (c *Character) OnScreen() bool {
	p, ok := c.resolveProjection()
	if !ok {
		return false
	}
	return p.onScreen()
}

// Bounds returns the screen outlines of the character, nil when none can
// be projected.
func (c *Character) Bounds() []core.Polygon {
	p, ok := c.resolveProjection()
	if !ok {
		return nil
	}
	return p.bounds()
}

// MarkerColor is the debug overlay colour (opaque red).
const MarkerColor uint32 = 0xff0000ff

// Draw paints a 6x6 marker on the character's anchor point.
func (c *Character) Draw(r client.Renderer) {
	pt, ok := c.CentralPoint()
	if !ok {
		return
	}
	r.FillRect(pt.X-3, pt.Y-3, 6, 6, MarkerColor)
}
