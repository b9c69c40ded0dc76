package convert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamiegrech/RSBot-API/internal/model"
	"github.com/jamiegrech/RSBot-API/pkg/core"
)

func TestCoreToCharacterState(t *testing.T) {
	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	s := core.CharacterState{
		Kind:        "npc",
		Index:       4,
		Time:        now,
		LoopCycle:   99,
		Name:        "Goblin",
		Level:       2,
		Location:    core.Tile{X: 3201, Y: 3265, Plane: 1},
		Orientation: 270,
		Animation:   -1,
		HPRatio:     128,
		HPPercent:   51,
		InCombat:    true,
		Interacting: 0x8000,
		Bounds:      []core.Polygon{{{X: 1, Y: 2}, {X: 3, Y: 4}, {X: 5, Y: 0}}},
	}

	m, err := CoreToCharacterState(s)
	require.NoError(t, err)

	assert.Equal(t, "npc", m.Kind)
	assert.Equal(t, 4, m.SlotIndex)
	assert.Equal(t, 1, m.Plane)
	xy, ok := m.Position.XY()
	require.True(t, ok)
	assert.Equal(t, 3201.0, xy.X)
	assert.Equal(t, 3265.0, xy.Y)
	assert.JSONEq(t, `[[{"x":1,"y":2},{"x":3,"y":4},{"x":5,"y":0}]]`, string(m.Bounds))

	back, err := CharacterStateToCore(m)
	require.NoError(t, err)
	assert.Equal(t, s, back)
}

func TestCoreToCharacterState_NoBounds(t *testing.T) {
	m, err := CoreToCharacterState(core.CharacterState{Kind: "player"})
	require.NoError(t, err)
	assert.Nil(t, m.Bounds)
}

func TestCharacterStateToCore_EmptyPosition(t *testing.T) {
	s, err := CharacterStateToCore(model.CharacterState{Plane: 2})
	require.NoError(t, err)
	assert.Equal(t, core.Tile{Plane: 2}, s.Location)
}

func TestSessionRoundTrip(t *testing.T) {
	s := core.Session{ID: 7, Name: "Lumbridge", Tag: "Demo", StartTime: time.Unix(1700000000, 0).UTC(), SampleInterval: 600}

	assert.Equal(t, s, SessionToCore(CoreToSession(s)))
}

func TestEndTime(t *testing.T) {
	assert.False(t, EndTime(time.Time{}).Valid)
	assert.True(t, EndTime(time.Now()).Valid)
}

func TestCoreToInteraction(t *testing.T) {
	m := CoreToInteraction(core.Interaction{
		Kind: "npc", Index: 3, Action: core.ActionInteract, Verb: "Attack", Option: "Goblin", Success: true,
	})
	assert.Equal(t, 3, m.SlotIndex)
	assert.Equal(t, "interact", m.Action)
	assert.Equal(t, "Attack", m.Verb)
	assert.True(t, m.Success)
}

func TestInteractionRoundTrip(t *testing.T) {
	in := core.Interaction{
		Kind:      "player",
		Index:     3,
		Time:      time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		LoopCycle: 900,
		Action:    core.ActionInteract,
		Verb:      "Trade with",
		Option:    "Bob",
		Success:   true,
	}
	row := CoreToInteraction(in)
	assert.Equal(t, 3, row.SlotIndex)
	assert.Equal(t, in, InteractionToCore(row))
}
