package character

import (
	"time"

	"github.com/jamiegrech/RSBot-API/pkg/client"
	"github.com/jamiegrech/RSBot-API/pkg/core"
)

// Snapshot collects every accessor into one state value. The handle is
// resolved once and every field is read from it, so a despawn during the
// capture cannot mix sentinels into the state. ok is false when the actor
// is unavailable.
func (c *Character) Snapshot(at time.Time) (core.CharacterState, bool) {
	a, ok := c.Get()
	if !ok {
		return core.CharacterState{}, false
	}

	off := regionOffset(a)
	s := core.CharacterState{
		Kind:      c.ref.Kind.String(),
		Index:     c.ref.Index,
		Time:      at,
		LoopCycle: c.deps.Client.LoopCycle(),
		Name:      a.Name(),
		Level:     a.Level(),
		Location: core.Tile{
			X:     c.deps.Client.BaseX() + off.X,
			Y:     c.deps.Client.BaseY() + off.Y,
			Plane: off.Plane,
		},
		Orientation: OrientationFromRotation(a.Orientation()),
		Animation:   -1,
		HPRatio:     FullHPRatio,
		HPPercent:   FullHPPercent,
		Moving:      a.Speed() != 0,
		Interacting: a.Interacting(),
	}

	if id, ok := a.Animation(); ok {
		s.Animation = id
	}
	if data, ok := c.combatData(a); ok {
		s.HPRatio = data.HPRatio
		s.HPPercent = HPPercentFromRatio(data.HPRatio)
		s.InCombat = true
	}
	if msg, ok, err := a.Message(); err == nil && ok {
		s.Message = msg
	}

	_, targeting := c.Interacting()
	s.Idle = !s.Moving && !s.InCombat && s.Animation == -1 && !targeting

	p := c.projectionOf(a)
	_, s.ModelCapture = p.(modelProjection)
	s.OnScreen = p.onScreen()
	s.Bounds = p.bounds()

	return s, true
}

// FromRefs binds a character to each ref, preserving order.
func FromRefs(deps *Dependencies, refs []client.Ref) []*Character {
	out := make([]*Character, 0, len(refs))
	for _, ref := range refs {
		out = append(out, New(deps, ref))
	}
	return out
}
