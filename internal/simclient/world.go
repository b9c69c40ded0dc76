// Package simclient is an in-memory game client. It implements every
// interface in pkg/client so the character layer can run without a live
// game attached: tests drive it directly, and cmd/rsbot uses it as a demo
// host whose simulation advances on its own goroutine.
package simclient

import (
	"sort"
	"sync"

	"github.com/jamiegrech/RSBot-API/pkg/client"
	"github.com/jamiegrech/RSBot-API/pkg/core"
)

// Camera is a top-down orthographic view centred on a fine-unit position.
type Camera struct {
	X, Y   int
	Plane  int
	Scale  int // fine units per pixel
	Width  int
	Height int
}

// DefaultCamera is a 765x503 viewport where one tile spans 64 pixels.
var DefaultCamera = Camera{Scale: 8, Width: 765, Height: 503}

// World is the simulated client state. All fields are guarded by mu because
// the host loop mutates them while readers query.
type World struct {
	mu        sync.RWMutex
	baseX     int
	baseY     int
	loopCycle int
	camera    Camera

	npcs    map[int]*Actor
	players map[int]*Actor

	mouse *Mouse
	menu  *Menu
}

// NewWorld creates an empty world whose loaded region starts at baseX, baseY.
func NewWorld(baseX, baseY int) *World {
	w := &World{
		baseX:   baseX,
		baseY:   baseY,
		camera:  DefaultCamera,
		npcs:    make(map[int]*Actor),
		players: make(map[int]*Actor),
	}
	w.mouse = &Mouse{}
	w.menu = &Menu{}
	return w
}

// Mouse returns the world's pointer.
func (w *World) Mouse() *Mouse {
	return w.mouse
}

// Menu returns the world's context menu.
func (w *World) Menu() *Menu {
	return w.menu
}

// Actor implements client.Client.
func (w *World) Actor(ref client.Ref) (client.Actor, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	var a *Actor
	switch ref.Kind {
	case client.KindNPC:
		a = w.npcs[ref.Index]
	case client.KindPlayer:
		a = w.players[ref.Index]
	}
	if a == nil {
		return nil, false
	}
	return a, true
}

// NPCs implements client.Client. Actors are returned in index order.
func (w *World) NPCs() []client.Actor {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return sorted(w.npcs)
}

// Players implements client.Client.
func (w *World) Players() []client.Actor {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return sorted(w.players)
}

// Refs lists every occupied slot, NPCs first.
func (w *World) Refs() []client.Ref {
	w.mu.RLock()
	defer w.mu.RUnlock()

	refs := make([]client.Ref, 0, len(w.npcs)+len(w.players))
	for _, i := range sortedKeys(w.npcs) {
		refs = append(refs, client.NPCRef(i))
	}
	for _, i := range sortedKeys(w.players) {
		refs = append(refs, client.PlayerRef(i))
	}
	return refs
}

func sortedKeys(m map[int]*Actor) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func sorted(m map[int]*Actor) []client.Actor {
	out := make([]client.Actor, 0, len(m))
	for _, k := range sortedKeys(m) {
		out = append(out, m[k])
	}
	return out
}

// BaseX implements client.Client.
func (w *World) BaseX() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.baseX
}

// BaseY implements client.Client.
func (w *World) BaseY() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.baseY
}

// LoopCycle implements client.Client.
func (w *World) LoopCycle() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.loopCycle
}

// SetBase moves the loaded region. Actor fine positions are region-local,
// so actors keep their offsets and shift in absolute terms.
func (w *World) SetBase(baseX, baseY int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.baseX, w.baseY = baseX, baseY
}

// SetLoopCycle sets the global tick.
func (w *World) SetLoopCycle(tick int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.loopCycle = tick
}

// SetCamera replaces the view.
func (w *World) SetCamera(c Camera) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.camera = c
}

// Spawn places a new actor in the slot addressed by ref, replacing any
// previous occupant. The returned handle is distinct from every earlier one.
func (w *World) Spawn(ref client.Ref, spec Spec) *Actor {
	a := &Actor{world: w}
	a.apply(spec)

	w.mu.Lock()
	defer w.mu.Unlock()
	switch ref.Kind {
	case client.KindNPC:
		w.npcs[ref.Index] = a
	case client.KindPlayer:
		a.id = -1
		w.players[ref.Index] = a
	}
	return a
}

// Despawn empties the slot addressed by ref.
func (w *World) Despawn(ref client.Ref) {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch ref.Kind {
	case client.KindNPC:
		delete(w.npcs, ref.Index)
	case client.KindPlayer:
		delete(w.players, ref.Index)
	}
}

// Step advances the simulation by one tick. Moving actors walk along the
// axis they face by their speed in fine units.
func (w *World) Step() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.loopCycle++
	for _, m := range []map[int]*Actor{w.npcs, w.players} {
		for _, a := range m {
			if a.speed == 0 {
				continue
			}
			// 0 faces south, 512 west, 1024 north, 1536 east
			switch (a.orientation + 256) % 2048 / 512 {
			case 0:
				a.y -= a.speed
			case 1:
				a.x -= a.speed
			case 2:
				a.y += a.speed
			default:
				a.x += a.speed
			}
		}
	}
}

// GroundToScreen implements client.Projector. Points further than one
// viewport outside the frame are treated as behind the frustum.
func (w *World) GroundToScreen(x, y, plane, height int) (core.Point, bool) {
	w.mu.RLock()
	c := w.camera
	w.mu.RUnlock()
	return c.project(x, y, plane, height)
}

// OnScreen implements client.Projector.
func (w *World) OnScreen(p core.Point) bool {
	w.mu.RLock()
	c := w.camera
	w.mu.RUnlock()
	return p.X >= 0 && p.Y >= 0 && p.X < c.Width && p.Y < c.Height
}

func (c Camera) project(x, y, plane, height int) (core.Point, bool) {
	if plane != c.Plane || c.Scale <= 0 {
		return core.Point{}, false
	}
	p := core.Point{
		X: c.Width/2 + (x-c.X)/c.Scale,
		Y: c.Height/2 - (y-c.Y)/c.Scale + height,
	}
	if p.X < -c.Width || p.X > 2*c.Width || p.Y < -c.Height || p.Y > 2*c.Height {
		return core.Point{}, false
	}
	return p, true
}

var (
	_ client.Client    = (*World)(nil)
	_ client.Projector = (*World)(nil)
)
