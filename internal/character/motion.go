package character

// OrientationFromRotation converts a raw 0..2047 rotation into compass
// degrees. The multiply happens before the divide to match the client's
// integer rounding.
func OrientationFromRotation(rotation int) int {
	return (630 - rotation*45/2048) % 360
}

// Rotation returns the raw rotation, -1 when unavailable.
func (c *Character) Rotation() int {
	a, ok := c.Get()
	if !ok {
		return -1
	}
	return a.Orientation()
}

// Orientation returns the facing in degrees, -1 when unavailable.
func (c *Character) Orientation() int {
	a, ok := c.Get()
	if !ok {
		return -1
	}
	return OrientationFromRotation(a.Orientation())
}

// Speed returns the raw movement indicator, 0 when unavailable.
func (c *Character) Speed() int {
	a, ok := c.Get()
	if !ok {
		return 0
	}
	return a.Speed()
}

// IsMoving reports a non-zero movement indicator.
func (c *Character) IsMoving() bool {
	return c.Speed() != 0
}

// Animation returns the active sequence id, -1 for none.
func (c *Character) Animation() int {
	a, ok := c.Get()
	if !ok {
		return -1
	}
	if id, ok := a.Animation(); ok {
		return id
	}
	return -1
}

// PassiveAnimation returns the idle/stance sequence id, -1 for none. Some
// client builds cannot read the field; that is also reported as -1.
func (c *Character) PassiveAnimation() int {
	a, ok := c.Get()
	if !ok {
		return -1
	}
	id, ok, err := a.PassiveAnimation()
	if err != nil || !ok {
		return -1
	}
	return id
}

// Message returns the overhead chat text, "" when there is none or it
// cannot be read.
func (c *Character) Message() string {
	a, ok := c.Get()
	if !ok {
		return ""
	}
	msg, ok, err := a.Message()
	if err != nil || !ok {
		return ""
	}
	return msg
}

// IsIdle reports that the character is standing still, out of combat, not
// animating and not targeting anyone. Unavailable actors are not idle.
func (c *Character) IsIdle() bool {
	if _, ok := c.Get(); !ok {
		return false
	}
	if c.IsMoving() || c.InCombat() || c.Animation() != -1 {
		return false
	}
	_, targeting := c.Interacting()
	return !targeting
}
