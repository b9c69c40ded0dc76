// Package client declares the boundary between this library and the running
// game client. Everything here is implemented by the host: raw actor fields,
// the loaded region, the simulation tick, screen projection and the input
// devices. Implementations may change underneath a caller at any time.
package client

import (
	"github.com/jamiegrech/RSBot-API/pkg/core"
)

// PlayerIndexOffset splits the interacting-index space. Indices below it
// address the NPC table, indices at or above it address the player array.
const PlayerIndexOffset = 0x8000

// FineUnitShift converts raw fine coordinates (1/512 tile) to tiles.
const FineUnitShift = 9

// Kind is the closed set of character variants.
type Kind uint8

const (
	KindNPC Kind = iota
	KindPlayer
)

// String returns the lowercase variant name.
func (k Kind) String() string {
	switch k {
	case KindNPC:
		return "npc"
	case KindPlayer:
		return "player"
	default:
		return "unknown"
	}
}

// Ref addresses a character slot in one of the two directories.
type Ref struct {
	Kind  Kind
	Index int
}

// NPCRef returns a reference into the NPC table.
func NPCRef(index int) Ref {
	return Ref{Kind: KindNPC, Index: index}
}

// PlayerRef returns a reference into the player array.
func PlayerRef(index int) Ref {
	return Ref{Kind: KindPlayer, Index: index}
}

// RefFromInteracting maps an interacting index as stored on an actor to a
// Ref. ok is false for -1 (no target).
func RefFromInteracting(index int) (Ref, bool) {
	switch {
	case index < 0:
		return Ref{}, false
	case index < PlayerIndexOffset:
		return NPCRef(index), true
	default:
		return PlayerRef(index - PlayerIndexOffset), true
	}
}

// CombatStatus is one entry of an actor's combat-status chain.
type CombatStatus struct {
	// Data is the head of this entry's data list, nil when the list is empty.
	Data *CombatStatusData
	Next *CombatStatus
}

// CombatStatusData is a tick-stamped health record.
type CombatStatusData struct {
	// LoopCycle is the tick from which this record is valid.
	LoopCycle int
	// HPRatio is remaining health scaled to 0..255.
	HPRatio int
	Next    *CombatStatusData
}

// Actor is a live character handle. Two handles refer to the same
// character iff they compare equal with ==.
type Actor interface {
	// Location returns the region-local position in fine units.
	Location() (x, y int)
	Plane() int
	Height() int
	// Orientation is the raw rotation, 0..2047.
	Orientation() int
	// Speed is the raw movement indicator; zero when standing still.
	Speed() int
	// Interacting is the index of the target actor, -1 for none.
	Interacting() int
	// Animation returns the active sequence id; ok is false when none plays.
	Animation() (id int, ok bool)
	// PassiveAnimation may fail on client builds that lack the field.
	PassiveAnimation() (id int, ok bool, err error)
	// Message returns the overhead text; it may fail like PassiveAnimation.
	Message() (msg string, ok bool, err error)
	CombatStatus() *CombatStatus
	// Model returns the model captured this frame, nil when none was.
	Model() Model
	Name() string
	Level() int
	// ID is the definition id for NPCs and -1 for players.
	ID() int
}

// Client is the live game accessor.
type Client interface {
	// Actor resolves ref to the live handle occupying that slot right now.
	Actor(ref Ref) (Actor, bool)
	// NPCs and Players enumerate the currently loaded actors.
	NPCs() []Actor
	Players() []Actor
	// BaseX and BaseY are the absolute tile origin of the loaded region.
	BaseX() int
	BaseY() int
	// LoopCycle is the global simulation tick.
	LoopCycle() int
}

// Projector maps ground positions to the screen.
type Projector interface {
	// GroundToScreen projects region-local fine coordinates at the given
	// plane, lifted by height pixels. ok is false off the view frustum.
	GroundToScreen(x, y, plane, height int) (core.Point, bool)
	OnScreen(p core.Point) bool
}

// Model is a captured 3D model projected for the current frame.
type Model interface {
	CentralPoint() (core.Point, bool)
	NextViewportPoint() (core.Point, bool)
	Contains(p core.Point) bool
	OnScreen() bool
	Bounds() []core.Polygon
	Hover() bool
	Click(left bool) bool
	// Interact selects action from the context menu; an empty option
	// accepts any option.
	Interact(action, option string) bool
}

// Target is anything the pointer can be moved onto.
type Target interface {
	NextViewportPoint() (core.Point, bool)
	Contains(p core.Point) bool
}

// Pointer is the mouse. Apply moves onto target and calls accept with the
// pointer position, returning accept's result. It returns false without
// calling accept when no point on target can be reached.
type Pointer interface {
	Apply(target Target, accept func(core.Point) bool) bool
	Click(left bool)
}

// Menu selects entries from the context menu open at the pointer. An empty
// option matches any option.
type Menu interface {
	Select(action, option string) bool
}

// Renderer draws debug overlays.
type Renderer interface {
	FillRect(x, y, w, h int, rgba uint32)
}
