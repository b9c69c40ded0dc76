package simclient

import (
	"strings"
	"sync"

	"github.com/jamiegrech/RSBot-API/pkg/client"
	"github.com/jamiegrech/RSBot-API/pkg/core"
)

// Click is one recorded mouse click.
type Click struct {
	At   core.Point
	Left bool
}

// Mouse is a pointer that teleports to the target's viewport point.
type Mouse struct {
	mu     sync.Mutex
	pos    core.Point
	moves  int
	clicks []Click
}

// Apply implements client.Pointer.
func (m *Mouse) Apply(target client.Target, accept func(core.Point) bool) bool {
	p, ok := target.NextViewportPoint()
	if !ok || !target.Contains(p) {
		return false
	}

	m.mu.Lock()
	m.pos = p
	m.moves++
	m.mu.Unlock()

	return accept(p)
}

// Click implements client.Pointer.
func (m *Mouse) Click(left bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clicks = append(m.clicks, Click{At: m.pos, Left: left})
}

// Position returns the last pointer position.
func (m *Mouse) Position() core.Point {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pos
}

// Moves returns how many times the pointer was moved.
func (m *Mouse) Moves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.moves
}

// Clicks returns every recorded click.
func (m *Mouse) Clicks() []Click {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Click, len(m.clicks))
	copy(out, m.clicks)
	return out
}

// MenuEntry is one line of the context menu, e.g. "Attack" / "Goblin".
type MenuEntry struct {
	Action string
	Option string
}

// Menu is a context menu whose entries are set by the host.
type Menu struct {
	mu       sync.Mutex
	entries  []MenuEntry
	selected []MenuEntry
}

// SetEntries replaces the menu contents.
func (m *Menu) SetEntries(entries ...MenuEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = entries
}

// Select implements client.Menu. Matching is case-insensitive.
func (m *Menu) Select(action, option string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if !strings.EqualFold(e.Action, action) {
			continue
		}
		if option != "" && !strings.EqualFold(e.Option, option) {
			continue
		}
		m.selected = append(m.selected, e)
		return true
	}
	return false
}

// Selected returns every entry chosen so far.
func (m *Menu) Selected() []MenuEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MenuEntry, len(m.selected))
	copy(out, m.selected)
	return out
}

// Rect is a recorded FillRect call.
type Rect struct {
	X, Y, W, H int
	RGBA       uint32
}

// Canvas records debug overlay draws.
type Canvas struct {
	mu    sync.Mutex
	rects []Rect
}

// FillRect implements client.Renderer.
func (c *Canvas) FillRect(x, y, w, h int, rgba uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rects = append(c.rects, Rect{X: x, Y: y, W: w, H: h, RGBA: rgba})
}

// Rects returns every recorded draw.
func (c *Canvas) Rects() []Rect {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Rect, len(c.rects))
	copy(out, c.rects)
	return out
}

var (
	_ client.Pointer  = (*Mouse)(nil)
	_ client.Menu     = (*Menu)(nil)
	_ client.Renderer = (*Canvas)(nil)
)
