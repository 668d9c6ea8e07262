package ragdoll

import (
	"fmt"

	"github.com/Faultbox/midgard-ragdoll/pkg/math"
)

// IKController steers a dynamic link before each physics step.
type IKController interface {
	Enabled() bool
	SetEnabled(enabled bool)
	// PreTick runs before the physics step while the link is dynamic.
	PreTick(dt float32)
}

// AddIKController attaches c to the link. Adding the same controller twice
// has no effect.
func (l *Link) AddIKController(c IKController) error {
	if c == nil {
		return fmt.Errorf("%w: nil IK controller", ErrInvalidArgument)
	}
	for _, x := range l.ik {
		if x == c {
			return nil
		}
	}
	l.ik = append(l.ik, c)
	return nil
}

// RemoveIKController detaches c and reports whether it was attached.
func (l *Link) RemoveIKController(c IKController) bool {
	for i, x := range l.ik {
		if x == c {
			l.ik = append(l.ik[:i], l.ik[i+1:]...)
			return true
		}
	}
	return false
}

// IKControllers returns the link's controllers.
func (l *Link) IKControllers() []IKController {
	return append([]IKController(nil), l.ik...)
}

// DisableAllIKControllers disables every controller on every link.
func (c *Control) DisableAllIKControllers() {
	for _, l := range c.links {
		for _, x := range l.ik {
			x.SetEnabled(false)
		}
	}
}

// TargetController pulls a link's body toward a world-space goal with a
// spring-like impulse each step.
type TargetController struct {
	link    *Link
	Goal    math.Vec3
	Gain    float32 // Impulse per meter of error per second
	Damping float32 // Impulse per unit of velocity per second
	enabled bool
}

// NewTargetController returns an enabled controller for l. Attach it with
// l.AddIKController.
func NewTargetController(l *Link, goal math.Vec3, gain float32) *TargetController {
	return &TargetController{link: l, Goal: goal, Gain: gain, enabled: true}
}

// Link returns the controlled link.
func (t *TargetController) Link() *Link { return t.link }

// Enabled implements IKController.
func (t *TargetController) Enabled() bool { return t.enabled }

// SetEnabled implements IKController.
func (t *TargetController) SetEnabled(enabled bool) { t.enabled = enabled }

// PreTick implements IKController.
func (t *TargetController) PreTick(dt float32) {
	engine := t.link.control.engine
	body := t.link.body
	toGoal := t.Goal.Sub(engine.Transform(body).Translation)
	if toGoal.IsZero() && t.Damping == 0 {
		return
	}
	impulse := toGoal.Scale(t.Gain * dt)
	if t.Damping > 0 {
		impulse = impulse.Sub(engine.LinearVelocity(body).Scale(t.Damping * dt))
	}
	engine.ApplyImpulse(body, impulse, math.Vec3{})
}

var _ IKController = (*TargetController)(nil)
