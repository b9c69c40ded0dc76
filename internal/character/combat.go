package character

import "github.com/jamiegrech/RSBot-API/pkg/client"

const (
	// FullHPRatio is reported when an actor carries no combat data.
	FullHPRatio = 255
	// FullHPPercent is FullHPRatio as a percentage.
	FullHPPercent = 100
)

// ResolveCombatStatus walks a combat-status chain and returns the head data
// entry of the first chain entry that is valid at loopCycle. Entries with an
// empty data list, or whose head only becomes valid after loopCycle, are
// skipped and traversal continues past them.
func ResolveCombatStatus(head *client.CombatStatus, loopCycle int) (*client.CombatStatusData, bool) {
	for status := head; status != nil; status = status.Next {
		data := status.Data
		if data == nil || data.LoopCycle > loopCycle {
			continue
		}
		return data, true
	}
	return nil, false
}

// HPPercentFromRatio scales a 0..255 ratio to a percentage, rounding up.
func HPPercentFromRatio(ratio int) int {
	return (ratio*100 + FullHPRatio - 1) / FullHPRatio
}

// combatData reads the chain and the tick once and resolves against them.
func (c *Character) combatData(a client.Actor) (*client.CombatStatusData, bool) {
	return ResolveCombatStatus(a.CombatStatus(), c.deps.Client.LoopCycle())
}

// HPRatio returns remaining health as 0..255, 255 without combat data and
// -1 when unavailable.
func (c *Character) HPRatio() int {
	a, ok := c.Get()
	if !ok {
		return -1
	}
	data, ok := c.combatData(a)
	if !ok {
		return FullHPRatio
	}
	return data.HPRatio
}

// HPPercent returns remaining health as a percentage, 100 without combat
// data and -1 when unavailable.
func (c *Character) HPPercent() int {
	a, ok := c.Get()
	if !ok {
		return -1
	}
	data, ok := c.combatData(a)
	if !ok {
		return FullHPPercent
	}
	return HPPercentFromRatio(data.HPRatio)
}

// InCombat reports whether any current combat-status entry exists. A full
// health entry still counts.
func (c *Character) InCombat() bool {
	a, ok := c.Get()
	if !ok {
		return false
	}
	_, ok = c.combatData(a)
	return ok
}
