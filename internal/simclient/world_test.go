package simclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamiegrech/RSBot-API/pkg/client"
	"github.com/jamiegrech/RSBot-API/pkg/core"
)

func TestWorld_SpawnAndResolve(t *testing.T) {
	w := NewWorld(3200, 3200)
	npc := w.Spawn(client.NPCRef(4), Spec{Name: "Rat", ID: 47})
	player := w.Spawn(client.PlayerRef(1), Spec{Name: "Zezima", ID: 12})

	a, ok := w.Actor(client.NPCRef(4))
	require.True(t, ok)
	assert.Same(t, npc, a)

	a, ok = w.Actor(client.PlayerRef(1))
	require.True(t, ok)
	assert.Same(t, player, a)
	assert.Equal(t, -1, a.ID(), "players have no definition id")

	_, ok = w.Actor(client.NPCRef(1))
	assert.False(t, ok)
}

func TestWorld_SpawnDefaults(t *testing.T) {
	w := NewWorld(0, 0)
	a := w.Spawn(client.NPCRef(0), Spec{})

	_, ok := a.Animation()
	assert.False(t, ok)
	_, ok, err := a.PassiveAnimation()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, -1, a.Interacting())
	assert.Nil(t, a.Model())
}

func TestWorld_ListingIsOrdered(t *testing.T) {
	w := NewWorld(0, 0)
	w.Spawn(client.NPCRef(9), Spec{Name: "c"})
	w.Spawn(client.NPCRef(2), Spec{Name: "a"})
	w.Spawn(client.NPCRef(5), Spec{Name: "b"})
	w.Spawn(client.PlayerRef(0), Spec{Name: "p"})

	var names []string
	for _, a := range w.NPCs() {
		names = append(names, a.Name())
	}
	assert.Equal(t, []string{"a", "b", "c"}, names)
	assert.Len(t, w.Players(), 1)
	assert.Equal(t, []client.Ref{
		client.NPCRef(2), client.NPCRef(5), client.NPCRef(9), client.PlayerRef(0),
	}, w.Refs())
}

func TestWorld_Respawn(t *testing.T) {
	w := NewWorld(0, 0)
	first := w.Spawn(client.NPCRef(1), Spec{Name: "Goblin"})
	w.Despawn(client.NPCRef(1))

	_, ok := w.Actor(client.NPCRef(1))
	assert.False(t, ok)

	second := w.Spawn(client.NPCRef(1), Spec{Name: "Goblin"})
	assert.NotSame(t, first, second)
}

func TestWorld_Step(t *testing.T) {
	w := NewWorld(0, 0)
	south := w.Spawn(client.NPCRef(0), Spec{X: 1000, Y: 1000, Orientation: 0, Speed: 4})
	west := w.Spawn(client.NPCRef(1), Spec{X: 1000, Y: 1000, Orientation: 512, Speed: 4})
	north := w.Spawn(client.NPCRef(2), Spec{X: 1000, Y: 1000, Orientation: 1024, Speed: 4})
	east := w.Spawn(client.NPCRef(3), Spec{X: 1000, Y: 1000, Orientation: 1536, Speed: 4})
	idle := w.Spawn(client.NPCRef(4), Spec{X: 1000, Y: 1000})

	w.Step()
	w.Step()

	assert.Equal(t, 2, w.LoopCycle())
	assertAt(t, south, 1000, 992)
	assertAt(t, west, 992, 1000)
	assertAt(t, north, 1000, 1008)
	assertAt(t, east, 1008, 1000)
	assertAt(t, idle, 1000, 1000)
}

func assertAt(t *testing.T, a *Actor, x, y int) {
	t.Helper()
	ax, ay := a.Location()
	assert.Equal(t, [2]int{x, y}, [2]int{ax, ay})
}

func TestWorld_Projection(t *testing.T) {
	w := NewWorld(0, 0)

	p, ok := w.GroundToScreen(0, 0, 0, 0)
	require.True(t, ok)
	assert.Equal(t, core.Point{X: 382, Y: 251}, p)

	p, ok = w.GroundToScreen(80, 80, 0, -10)
	require.True(t, ok)
	assert.Equal(t, core.Point{X: 392, Y: 231}, p)

	_, ok = w.GroundToScreen(0, 0, 1, 0)
	assert.False(t, ok, "other planes are not visible")

	_, ok = w.GroundToScreen(100000, 0, 0, 0)
	assert.False(t, ok, "far outside the frustum")

	assert.True(t, w.OnScreen(core.Point{X: 0, Y: 0}))
	assert.False(t, w.OnScreen(core.Point{X: 765, Y: 10}))
	assert.False(t, w.OnScreen(core.Point{X: 10, Y: -1}))
}

func TestModel_CaptureIsSnapshot(t *testing.T) {
	w := NewWorld(0, 0)
	a := w.Spawn(client.NPCRef(0), Spec{X: TileCenter(1), Y: TileCenter(1), Height: 40, Captured: true})

	m := a.Model()
	require.NotNil(t, m)
	before, _ := m.CentralPoint()

	a.SetTile(3, 3, 0)
	after, _ := m.CentralPoint()
	assert.Equal(t, before, after)

	moved, _ := a.Model().CentralPoint()
	assert.NotEqual(t, before, moved)
}

func TestMouse_ApplyRequiresHit(t *testing.T) {
	w := NewWorld(0, 0)
	a := w.Spawn(client.NPCRef(0), Spec{X: TileCenter(1), Y: TileCenter(1), Captured: true})
	m := a.Model()
	require.NotNil(t, m)

	called := false
	ok := w.Mouse().Apply(m, func(core.Point) bool { called = true; return true })
	assert.True(t, ok)
	assert.True(t, called)

	ok = w.Mouse().Apply(missTarget{}, func(core.Point) bool { t.Fatal("accept called"); return true })
	assert.False(t, ok)
	assert.Equal(t, 1, w.Mouse().Moves())
}

type missTarget struct{}

func (missTarget) NextViewportPoint() (core.Point, bool) { return core.Point{X: 1, Y: 1}, true }
func (missTarget) Contains(core.Point) bool              { return false }

func TestMenu_Select(t *testing.T) {
	m := &Menu{}
	m.SetEntries(MenuEntry{Action: "Attack", Option: "Goblin"}, MenuEntry{Action: "Talk-to", Option: "Guard"})

	assert.True(t, m.Select("ATTACK", ""))
	assert.True(t, m.Select("talk-to", "guard"))
	assert.False(t, m.Select("Attack", "Guard"))
	assert.Len(t, m.Selected(), 2)
}
