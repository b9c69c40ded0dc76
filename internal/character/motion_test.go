package character

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jamiegrech/RSBot-API/pkg/client"
)

func TestOrientationFromRotation(t *testing.T) {
	assert.Equal(t, 270, OrientationFromRotation(0))
	assert.Equal(t, 248, OrientationFromRotation(1024))
	assert.Equal(t, 226, OrientationFromRotation(2047))

	prev := OrientationFromRotation(0)
	for r := 0; r < 2048; r++ {
		deg := OrientationFromRotation(r)
		if deg != (630-r*45/2048)%360 {
			t.Fatalf("rotation %d gave %d degrees", r, deg)
		}
		if deg < 0 || deg >= 360 {
			t.Fatalf("rotation %d gave %d degrees, out of range", r, deg)
		}
		if deg > prev {
			t.Fatalf("rotation %d turned back from %d to %d", r, prev, deg)
		}
		prev = deg
	}
}

func TestCharacter_OrientationEveryRotation(t *testing.T) {
	w, deps := newTestWorld(t)
	goblin := spawnGoblin(w)
	c := NPC(deps, 1)

	for r := 0; r < 2048; r++ {
		goblin.SetOrientation(r)
		if got, want := c.Orientation(), (630-r*45/2048)%360; got != want {
			t.Fatalf("rotation %d: expected %d degrees, got %d", r, want, got)
		}
	}
}

func TestCharacter_Orientation(t *testing.T) {
	w, deps := newTestWorld(t)
	goblin := spawnGoblin(w)
	goblin.SetOrientation(1024)
	c := NPC(deps, 1)

	assert.Equal(t, 1024, c.Rotation())
	assert.Equal(t, 248, c.Orientation())
}

func TestCharacter_Moving(t *testing.T) {
	w, deps := newTestWorld(t)
	goblin := spawnGoblin(w)
	c := NPC(deps, 1)

	assert.False(t, c.IsMoving())
	goblin.SetSpeed(4)
	assert.True(t, c.IsMoving())
	assert.Equal(t, 4, c.Speed())
}

func TestCharacter_Animations(t *testing.T) {
	w, deps := newTestWorld(t)
	goblin := spawnGoblin(w)
	c := NPC(deps, 1)

	assert.Equal(t, -1, c.Animation())
	assert.Equal(t, -1, c.PassiveAnimation())

	goblin.SetAnimation(422)
	assert.Equal(t, 422, c.Animation())
	goblin.SetAnimation(-1)
	assert.Equal(t, -1, c.Animation())
}

func TestCharacter_PassiveAnimationAndMessage(t *testing.T) {
	w, deps := newTestWorld(t)
	w.Spawn(client.NPCRef(3), simclientSpec("Guard", 808, "Halt!"))
	c := NPC(deps, 3)

	assert.Equal(t, 808, c.PassiveAnimation())
	assert.Equal(t, "Halt!", c.Message())
}

func TestCharacter_FieldReadErrorsAreSwallowed(t *testing.T) {
	w, deps := newTestWorld(t)
	guard := w.Spawn(client.NPCRef(3), simclientSpec("Guard", 808, "Halt!"))
	guard.SetFieldErrors(errors.New("field missing on this build"))
	c := NPC(deps, 3)

	assert.Equal(t, -1, c.PassiveAnimation())
	assert.Equal(t, "", c.Message())
	assert.Equal(t, "Guard", c.Name(), "other fields still read")
}

func TestCharacter_IsIdle(t *testing.T) {
	tests := []struct {
		name  string
		setup func(w *testWorld)
		want  bool
	}{
		{name: "standing", setup: func(*testWorld) {}, want: true},
		{name: "moving", setup: func(w *testWorld) { w.goblin.SetSpeed(2) }, want: false},
		{name: "animating", setup: func(w *testWorld) { w.goblin.SetAnimation(422) }, want: false},
		{name: "in combat", setup: func(w *testWorld) { w.goblin.Hit(200, 0) }, want: false},
		{name: "targeting", setup: func(w *testWorld) { w.goblin.SetInteracting(client.PlayerIndexOffset) }, want: false},
		{name: "dangling target", setup: func(w *testWorld) { w.goblin.SetInteracting(77) }, want: true},
		{name: "future combat entry", setup: func(w *testWorld) { w.goblin.Hit(200, 50) }, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tw := newGoblinWorld(t)
			tt.setup(tw)
			assert.Equal(t, tt.want, NPC(tw.deps, 1).IsIdle())
		})
	}
}
