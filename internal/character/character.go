// Package character wraps a live game actor (NPC or player) behind accessors
// that re-read the client on every call. Nothing is cached between calls:
// if the actor despawns, accessors degrade to their documented sentinels
// (-1, "", false, or ok == false) instead of failing.
package character

import (
	"errors"
	"fmt"

	"github.com/jamiegrech/RSBot-API/pkg/client"
)

var (
	// ErrActorUnavailable means the referenced slot is empty or was reused.
	ErrActorUnavailable = errors.New("actor unavailable")
	// ErrOffScreen means no screen point exists for the actor this frame.
	ErrOffScreen = errors.New("actor not projectable")
)

// Dependencies are the client collaborators shared by all characters.
type Dependencies struct {
	Client    client.Client
	Projector client.Projector
	Pointer   client.Pointer
	Menu      client.Menu
}

// Character is an NPC or player addressed by its directory slot.
type Character struct {
	ref  client.Ref
	deps *Dependencies
}

// New returns a character for ref. It does not check that the slot is
// occupied; use Validate for that.
func New(deps *Dependencies, ref client.Ref) *Character {
	return &Character{ref: ref, deps: deps}
}

// NPC returns the character in NPC slot index.
func NPC(deps *Dependencies, index int) *Character {
	return New(deps, client.NPCRef(index))
}

// Player returns the character in player slot index.
func Player(deps *Dependencies, index int) *Character {
	return New(deps, client.PlayerRef(index))
}

// Ref returns the slot this character is bound to.
func (c *Character) Ref() client.Ref {
	return c.ref
}

// String implements fmt.Stringer.
func (c *Character) String() string {
	return fmt.Sprintf("%s[%d]", c.ref.Kind, c.ref.Index)
}

// Get resolves the live handle. ok is false once the actor has despawned.
func (c *Character) Get() (client.Actor, bool) {
	if c == nil || c.deps == nil || c.deps.Client == nil {
		return nil, false
	}
	a, ok := c.deps.Client.Actor(c.ref)
	if !ok || a == nil {
		return nil, false
	}
	return a, true
}

// Validate reports whether the handle resolves and is still listed in the
// directory matching the character's kind.
func (c *Character) Validate() bool {
	self, ok := c.Get()
	if !ok {
		return false
	}

	var loaded []client.Actor
	switch c.ref.Kind {
	case client.KindNPC:
		loaded = c.deps.Client.NPCs()
	case client.KindPlayer:
		loaded = c.deps.Client.Players()
	default:
		return true
	}
	for _, a := range loaded {
		if a == self {
			return true
		}
	}
	return false
}

// Equal reports whether both characters resolve, right now, to the very same
// live handle. Slot, name and position play no part.
func (c *Character) Equal(other *Character) bool {
	a, ok := c.Get()
	if !ok {
		return false
	}
	b, ok := other.Get()
	if !ok {
		return false
	}
	return a == b
}

// Name returns the display name, "" when unavailable.
func (c *Character) Name() string {
	a, ok := c.Get()
	if !ok {
		return ""
	}
	return a.Name()
}

// Level returns the combat level, -1 when unavailable.
func (c *Character) Level() int {
	a, ok := c.Get()
	if !ok {
		return -1
	}
	return a.Level()
}

// ID returns the NPC definition id; players and unavailable actors give -1.
func (c *Character) ID() int {
	a, ok := c.Get()
	if !ok {
		return -1
	}
	return a.ID()
}

// Interacting returns the character this one is targeting. ok is false when
// there is no target or the actor is unavailable.
func (c *Character) Interacting() (*Character, bool) {
	a, ok := c.Get()
	if !ok {
		return nil, false
	}
	ref, ok := client.RefFromInteracting(a.Interacting())
	if !ok {
		return nil, false
	}
	target := New(c.deps, ref)
	if _, ok := target.Get(); !ok {
		return nil, false
	}
	return target, true
}
