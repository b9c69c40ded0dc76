package character

import "github.com/jamiegrech/RSBot-API/pkg/core"

// apply runs an interaction against the resolved projection. With a
// captured model the model's own routine runs; otherwise the pointer is
// moved onto the tile fallback and accept decides the outcome. Nothing is
// touched when the character has no screen point at all.
func (c *Character) apply(viaModel func(m *CapturedModel) bool, accept func(core.Point) bool) bool {
	p, ok := c.resolveProjection()
	if !ok {
		return false
	}
	if mp, ok := p.(modelProjection); ok {
		return viaModel(&CapturedModel{Model: mp.model, Owner: c})
	}
	if _, ok := p.centralPoint(); !ok {
		return false
	}
	if c.deps.Pointer == nil {
		return false
	}
	return c.deps.Pointer.Apply(p, accept)
}

// Hover moves the pointer onto the character.
func (c *Character) Hover() bool {
	return c.apply(
		func(m *CapturedModel) bool { return m.Hover() },
		func(core.Point) bool { return true },
	)
}

// Click moves onto the character and clicks the given button.
func (c *Character) Click(left bool) bool {
	return c.apply(
		func(m *CapturedModel) bool { return m.Click(left) },
		func(core.Point) bool {
			c.deps.Pointer.Click(left)
			return true
		},
	)
}

// Interact opens the context menu on the character and selects action.
// A missing entry is reported as false and not retried.
func (c *Character) Interact(action string) bool {
	return c.InteractOption(action, "")
}

// InteractOption is Interact with the entry further narrowed by its option
// label, e.g. ("Attack", "Goblin").
func (c *Character) InteractOption(action, option string) bool {
	return c.apply(
		func(m *CapturedModel) bool { return m.Interact(action, option) },
		func(core.Point) bool {
			if c.deps.Menu == nil {
				return false
			}
			return c.deps.Menu.Select(action, option)
		},
	)
}
