package simclient

import (
	"github.com/jamiegrech/RSBot-API/internal/geo"
	"github.com/jamiegrech/RSBot-API/pkg/client"
)

// Spec describes a freshly spawned actor. Zero values mean "none" where the
// client would report none: no animation, no target, no model.
type Spec struct {
	Name  string
	Level int
	ID    int

	// X and Y are region-local fine coordinates.
	X, Y   int
	Plane  int
	Height int

	Orientation int
	Speed       int

	Animation        int // -1 or 0 for none
	PassiveAnimation int
	Interacting      int // -1 or 0 for none
	Message          string

	// Captured marks the model as rendered this frame.
	Captured bool
}

// Actor is a simulated live handle.
type Actor struct {
	world *World

	name  string
	level int
	id    int

	x, y   int
	plane  int
	height int

	orientation int
	speed       int
	interacting int

	animation        int
	passiveAnimation int
	passiveErr       error

	message    string
	messageErr error

	combat   *client.CombatStatus
	captured bool
}

func (a *Actor) apply(s Spec) {
	a.name = s.Name
	a.level = s.Level
	a.id = s.ID
	a.x, a.y = s.X, s.Y
	a.plane = s.Plane
	a.height = s.Height
	a.orientation = s.Orientation
	a.speed = s.Speed
	a.animation = noneIfZero(s.Animation)
	a.passiveAnimation = noneIfZero(s.PassiveAnimation)
	a.interacting = noneIfZero(s.Interacting)
	a.message = s.Message
	a.captured = s.Captured
}

func noneIfZero(v int) int {
	if v == 0 {
		return -1
	}
	return v
}

// TileCenter returns the fine coordinate of the centre of region tile t.
func TileCenter(t int) int {
	return t*geo.TileSize + geo.TileSize/2
}

func (a *Actor) read(f func()) {
	a.world.mu.RLock()
	defer a.world.mu.RUnlock()
	f()
}

func (a *Actor) write(f func()) {
	a.world.mu.Lock()
	defer a.world.mu.Unlock()
	f()
}

// Location implements client.Actor.
func (a *Actor) Location() (x, y int) {
	a.read(func() { x, y = a.x, a.y })
	return x, y
}

// Plane implements client.Actor.
func (a *Actor) Plane() (p int) {
	a.read(func() { p = a.plane })
	return p
}

// Height implements client.Actor.
func (a *Actor) Height() (h int) {
	a.read(func() { h = a.height })
	return h
}

// Orientation implements client.Actor.
func (a *Actor) Orientation() (o int) {
	a.read(func() { o = a.orientation })
	return o
}

// Speed implements client.Actor.
func (a *Actor) Speed() (s int) {
	a.read(func() { s = a.speed })
	return s
}

// Interacting implements client.Actor.
func (a *Actor) Interacting() (i int) {
	a.read(func() { i = a.interacting })
	return i
}

// Animation implements client.Actor.
func (a *Actor) Animation() (id int, ok bool) {
	a.read(func() { id = a.animation })
	return id, id != -1
}

// PassiveAnimation implements client.Actor.
func (a *Actor) PassiveAnimation() (id int, ok bool, err error) {
	a.read(func() { id, err = a.passiveAnimation, a.passiveErr })
	if err != nil {
		return 0, false, err
	}
	return id, id != -1, nil
}

// Message implements client.Actor.
func (a *Actor) Message() (msg string, ok bool, err error) {
	a.read(func() { msg, err = a.message, a.messageErr })
	if err != nil {
		return "", false, err
	}
	return msg, msg != "", nil
}

// CombatStatus implements client.Actor.
func (a *Actor) CombatStatus() (c *client.CombatStatus) {
	a.read(func() { c = a.combat })
	return c
}

// Name implements client.Actor.
func (a *Actor) Name() (n string) {
	a.read(func() { n = a.name })
	return n
}

// Level implements client.Actor.
func (a *Actor) Level() (l int) {
	a.read(func() { l = a.level })
	return l
}

// ID implements client.Actor.
func (a *Actor) ID() (id int) {
	a.read(func() { id = a.id })
	return id
}

// Model implements client.Actor. The capture is a snapshot: later moves of
// the actor do not alter a model already handed out.
func (a *Actor) Model() client.Model {
	var captured bool
	var x, y, plane, height int
	a.read(func() {
		captured = a.captured
		x, y, plane, height = a.x, a.y, a.plane, a.height
	})
	if !captured {
		return nil
	}
	m, ok := capture(a.world, x, y, plane, height)
	if !ok {
		return nil
	}
	return m
}

// SetLocation moves the actor to region-local fine coordinates.
func (a *Actor) SetLocation(x, y int) {
	a.write(func() { a.x, a.y = x, y })
}

// SetTile moves the actor to the centre of a region tile.
func (a *Actor) SetTile(x, y, plane int) {
	a.write(func() {
		a.x, a.y = TileCenter(x), TileCenter(y)
		a.plane = plane
	})
}

// SetOrientation sets the raw rotation.
func (a *Actor) SetOrientation(o int) {
	a.write(func() { a.orientation = o })
}

// SetSpeed sets the movement indicator.
func (a *Actor) SetSpeed(s int) {
	a.write(func() { a.speed = s })
}

// SetAnimation sets the active sequence, -1 for none.
func (a *Actor) SetAnimation(id int) {
	a.write(func() { a.animation = id })
}

// SetInteracting sets the target index, -1 for none.
func (a *Actor) SetInteracting(index int) {
	a.write(func() { a.interacting = index })
}

// SetMessage sets the overhead text.
func (a *Actor) SetMessage(msg string) {
	a.write(func() { a.message = msg })
}

// SetFieldErrors makes the passive animation and message reads fail, as
// they do on client builds missing those fields.
func (a *Actor) SetFieldErrors(err error) {
	a.write(func() {
		a.passiveErr = err
		a.messageErr = err
	})
}

// SetCaptured toggles whether the renderer captured this actor's model.
func (a *Actor) SetCaptured(captured bool) {
	a.write(func() { a.captured = captured })
}

// SetCombatStatus replaces the whole combat-status chain.
func (a *Actor) SetCombatStatus(head *client.CombatStatus) {
	a.write(func() { a.combat = head })
}

// Hit records a health change valid from loopCycle. The newest entry is
// placed at the head of the chain, as the client does.
func (a *Actor) Hit(hpRatio, loopCycle int) {
	a.write(func() {
		a.combat = &client.CombatStatus{
			Data: &client.CombatStatusData{LoopCycle: loopCycle, HPRatio: hpRatio},
			Next: a.combat,
		}
	})
}

var _ client.Actor = (*Actor)(nil)
