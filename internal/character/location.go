package character

import (
	"github.com/jamiegrech/RSBot-API/pkg/client"
	"github.com/jamiegrech/RSBot-API/pkg/core"
)

// toRegionOffset converts raw fine coordinates to a tile offset.
func toRegionOffset(x, y, plane int) core.RegionOffset {
	return core.RegionOffset{
		X:     x >> client.FineUnitShift,
		Y:     y >> client.FineUnitShift,
		Plane: plane,
	}
}

func regionOffset(a client.Actor) core.RegionOffset {
	x, y := a.Location()
	return toRegionOffset(x, y, a.Plane())
}

// RegionOffset returns the tile offset inside the loaded region.
func (c *Character) RegionOffset() (core.RegionOffset, bool) {
	a, ok := c.Get()
	if !ok {
		return core.RegionOffset{}, false
	}
	return regionOffset(a), true
}

// Location returns the absolute world tile. The region base is read on
// every call because it moves whenever a new region loads.
func (c *Character) Location() (core.Tile, bool) {
	off, ok := c.RegionOffset()
	if !ok {
		return core.Tile{}, false
	}
	return core.Tile{
		X:     c.deps.Client.BaseX() + off.X,
		Y:     c.deps.Client.BaseY() + off.Y,
		Plane: off.Plane,
	}, true
}

// Plane returns the floor level, -1 when unavailable.
func (c *Character) Plane() int {
	a, ok := c.Get()
	if !ok {
		return -1
	}
	return a.Plane()
}

// Height returns the model height used to lift the projected anchor, -1
// when unavailable.
func (c *Character) Height() int {
	a, ok := c.Get()
	if !ok {
		return -1
	}
	return a.Height()
}
