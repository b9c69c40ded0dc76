package character

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamiegrech/RSBot-API/pkg/client"
)

// chain builds a combat-status chain in the given order. A negative tick
// leaves that entry's data list empty.
func chain(entries ...[2]int) *client.CombatStatus {
	var head *client.CombatStatus
	for i := len(entries) - 1; i >= 0; i-- {
		status := &client.CombatStatus{Next: head}
		if entries[i][0] >= 0 {
			status.Data = &client.CombatStatusData{LoopCycle: entries[i][0], HPRatio: entries[i][1]}
		}
		head = status
	}
	return head
}

func TestResolveCombatStatus_NoChain(t *testing.T) {
	_, ok := ResolveCombatStatus(nil, 100)
	assert.False(t, ok)
}

func TestResolveCombatStatus_SkipsFutureEntries(t *testing.T) {
	// newest first, as the client links them
	head := chain([2]int{15, 10}, [2]int{10, 20}, [2]int{5, 30})

	data, ok := ResolveCombatStatus(head, 12)
	require.True(t, ok)
	assert.Equal(t, 10, data.LoopCycle)
	assert.Equal(t, 20, data.HPRatio)
}

func TestResolveCombatStatus_FirstValidInChainOrder(t *testing.T) {
	head := chain([2]int{5, 30}, [2]int{10, 20}, [2]int{15, 10})

	data, ok := ResolveCombatStatus(head, 12)
	require.True(t, ok)
	assert.Equal(t, 5, data.LoopCycle)
}

func TestResolveCombatStatus_AllFuture(t *testing.T) {
	head := chain([2]int{13, 10}, [2]int{14, 20}, [2]int{15, 30})

	_, ok := ResolveCombatStatus(head, 12)
	assert.False(t, ok)
}

func TestResolveCombatStatus_SkipsEmptyDataLists(t *testing.T) {
	head := chain([2]int{-1, 0}, [2]int{-1, 0}, [2]int{8, 77})

	data, ok := ResolveCombatStatus(head, 8)
	require.True(t, ok, "an entry valid exactly at the current tick is current")
	assert.Equal(t, 77, data.HPRatio)
}

func TestResolveCombatStatus_OnlyHeadOfDataListCounts(t *testing.T) {
	head := &client.CombatStatus{
		Data: &client.CombatStatusData{
			LoopCycle: 50,
			HPRatio:   1,
			Next:      &client.CombatStatusData{LoopCycle: 1, HPRatio: 2},
		},
	}

	_, ok := ResolveCombatStatus(head, 10)
	assert.False(t, ok)
}

func TestHPPercentFromRatio(t *testing.T) {
	cases := map[int]int{
		0:   0,
		1:   1,
		128: 51,
		254: 100,
		255: 100,
		51:  20,
	}
	for ratio, want := range cases {
		assert.Equal(t, want, HPPercentFromRatio(ratio), "ratio %d", ratio)
	}
}

func TestCharacter_Health_NoCombatData(t *testing.T) {
	w, deps := newTestWorld(t)
	spawnGoblin(w)
	c := NPC(deps, 1)

	assert.Equal(t, FullHPRatio, c.HPRatio())
	assert.Equal(t, FullHPPercent, c.HPPercent())
	assert.False(t, c.InCombat())
}

func TestCharacter_Health_FromChain(t *testing.T) {
	w, deps := newTestWorld(t)
	goblin := spawnGoblin(w)
	w.SetLoopCycle(12)
	goblin.SetCombatStatus(chain([2]int{15, 10}, [2]int{10, 128}, [2]int{5, 200}))
	c := NPC(deps, 1)

	assert.Equal(t, 128, c.HPRatio())
	assert.Equal(t, 51, c.HPPercent())
	assert.True(t, c.InCombat())
}

func TestCharacter_Health_AllFutureIsNotCombat(t *testing.T) {
	w, deps := newTestWorld(t)
	goblin := spawnGoblin(w)
	w.SetLoopCycle(12)
	goblin.SetCombatStatus(chain([2]int{13, 10}, [2]int{14, 20}, [2]int{15, 30}))
	c := NPC(deps, 1)

	assert.Equal(t, 100, c.HPPercent())
	assert.Equal(t, 255, c.HPRatio())
	assert.False(t, c.InCombat())
}

func TestCharacter_InCombat_FullHealthEntryCounts(t *testing.T) {
	w, deps := newTestWorld(t)
	goblin := spawnGoblin(w)
	goblin.Hit(255, 0)
	c := NPC(deps, 1)

	assert.Equal(t, 100, c.HPPercent())
	assert.True(t, c.InCombat())
}

func TestCharacter_Health_BecomesValidAsTicksAdvance(t *testing.T) {
	w, deps := newTestWorld(t)
	goblin := spawnGoblin(w)
	goblin.Hit(64, 3)
	c := NPC(deps, 1)

	assert.False(t, c.InCombat())
	for i := 0; i < 3; i++ {
		w.Step()
	}
	assert.True(t, c.InCombat())
	assert.Equal(t, 26, c.HPPercent())
}
