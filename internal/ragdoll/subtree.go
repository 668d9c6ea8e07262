package ragdoll

import (
	"fmt"
	gomath "math"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-ragdoll/internal/physics"
	"github.com/Faultbox/midgard-ragdoll/pkg/math"
)

// SetDynamicSubtree hands root and its descendants to the physics engine,
// each under the given gravity. With lockLocalAxes their joints lose every
// rotational degree of freedom so the limb stays rigid; otherwise the
// configured range of motion applies. Joints to the parent stay intact.
func (c *Control) SetDynamicSubtree(root *Link, gravity math.Vec3, lockLocalAxes bool) error {
	if err := c.checkDynamic("set dynamic", root); err != nil {
		return err
	}
	for _, l := range c.Subtree(root) {
		if l.IsReleased() {
			continue
		}
		if err := l.setDynamic(gravity); err != nil {
			return err
		}
		if l.joint != physics.NoJoint && l.kind != KindAttachment {
			limits := l.limits
			if lockLocalAxes {
				limits = limits.WithAngularLocked()
			}
			c.engine.SetJointLimits(l.joint, limits)
		}
	}
	c.logger.Debug("subtree dynamic",
		zap.String("root", root.name),
		zap.Bool("locked", lockLocalAxes))
	return nil
}

// SetRagdollMode makes the whole tree limp under the configured gravity.
func (c *Control) SetRagdollMode() error {
	if !c.IsAttached() {
		return ErrNotAttached
	}
	return c.SetDynamicSubtree(c.Torso(), c.cfg.Gravity, false)
}

// SetContactResponseSubtree turns collision response of root and its
// descendants on or off without changing their mode.
func (c *Control) SetContactResponseSubtree(root *Link, enabled bool) error {
	if err := c.check("set contact response", root); err != nil {
		return err
	}
	for _, l := range c.Subtree(root) {
		c.engine.SetContactResponse(l.body, enabled)
	}
	return nil
}

// FreezeSubtree stops root and its descendants in their current pose.
// Kinematic links, or every link when forceKinematic is set, snap to
// kinematic mode holding the pose; dynamic links float in place with their
// joints locked.
func (c *Control) FreezeSubtree(root *Link, forceKinematic bool) error {
	if err := c.check("freeze", root); err != nil {
		return err
	}
	links := c.Subtree(root)
	if !forceKinematic && !c.ready {
		for _, l := range links {
			if !l.IsKinematic() && !l.IsReleased() {
				return fmt.Errorf("freeze %s: %w", root.name, ErrNotReady)
			}
		}
	}

	for _, l := range links {
		if l.IsReleased() || l.amputated {
			continue
		}
		c.engine.SetLinearVelocity(l.body, math.Vec3{})
		c.engine.SetAngularVelocity(l.body, math.Vec3{})
		if forceKinematic || l.IsKinematic() {
			l.kpVelocity = math.Vec3{}
			var endRoot *math.Transform
			if l.kind == KindTorso {
				held := c.model.Root
				endRoot = &held
			}
			l.blendToKinematicMode(0, c.currentPose(l), endRoot)
			continue
		}
		if err := l.setDynamic(math.Vec3{}); err != nil {
			return err
		}
		if l.joint != physics.NoJoint {
			c.engine.SetJointLimits(l.joint, l.limits.WithAngularLocked())
		}
	}
	return nil
}

// BindSubtree blends root and its descendants back to kinematic mode,
// ending in the skeleton's bind pose.
func (c *Control) BindSubtree(root *Link, interval float32) error {
	if err := c.check("bind", root); err != nil {
		return err
	}
	if err := checkInterval(interval); err != nil {
		return fmt.Errorf("bind %s: %w", root.name, err)
	}
	for _, l := range c.Subtree(root) {
		if l.IsReleased() || l.amputated {
			continue
		}
		var end []math.Transform
		if l.pose != nil {
			end = c.bindPose(l)
		}
		l.blendToKinematicMode(interval, end, nil)
	}
	return nil
}

// BlendToKinematicMode blends every link back to the live animation. When
// endModelTransform is non-nil the model's root transform moves there too.
func (c *Control) BlendToKinematicMode(interval float32, endModelTransform *math.Transform) error {
	if !c.IsAttached() {
		return ErrNotAttached
	}
	if err := checkInterval(interval); err != nil {
		return fmt.Errorf("blend to kinematic: %w", err)
	}
	for _, l := range c.links {
		if l.IsReleased() || l.amputated {
			continue
		}
		var endRoot *math.Transform
		if l.kind == KindTorso {
			endRoot = endModelTransform
		}
		l.blendToKinematicMode(interval, nil, endRoot)
	}
	c.logger.Debug("blending to kinematic", zap.Float32("interval", interval))
	return nil
}

// AmputateSubtree severs a bone link from its parent. The subtree falls
// under the control's gravity, stops taking part in later blends, and its
// bones shrink to nothing over interval seconds.
func (c *Control) AmputateSubtree(root *Link, interval float32) error {
	if err := c.checkDynamic("amputate", root); err != nil {
		return err
	}
	if root.kind != KindBone {
		return fmt.Errorf("amputate %s: %w: only bone links can be amputated", root.name, ErrInvalidLink)
	}
	if err := checkInterval(interval); err != nil {
		return fmt.Errorf("amputate %s: %w", root.name, err)
	}
	if root.amputated {
		return nil
	}

	if root.joint != physics.NoJoint {
		c.engine.RemoveJoint(root.joint)
		root.joint = physics.NoJoint
	}
	root.severed = true
	for _, l := range c.Subtree(root) {
		if l.IsReleased() {
			continue
		}
		if err := l.setDynamic(c.cfg.Gravity); err != nil {
			return err
		}
		l.amputated = true
	}
	root.startFade(interval)

	c.logger.Info("subtree amputated", zap.String("root", root.name))
	return nil
}

// DropAttachments releases every attachment: its joint goes away, its body
// falls freely, and the control stops updating it. Releasing is permanent.
func (c *Control) DropAttachments() error {
	if !c.IsAttached() {
		return ErrNotAttached
	}
	if !c.ready {
		return fmt.Errorf("drop attachments: %w", ErrNotReady)
	}
	for _, l := range c.links {
		if l.kind == KindAttachment && !l.IsReleased() {
			c.release(l)
		}
	}
	return nil
}

func (c *Control) release(l *Link) {
	if l.joint != physics.NoJoint {
		c.engine.RemoveJoint(l.joint)
		l.joint = physics.NoJoint
	}
	l.severed = true
	l.setKinematicWeight(0)
	l.gravity = c.cfg.Gravity
	c.engine.SetGravity(l.body, l.gravity)
	l.attachment.released = true
	c.logger.Debug("attachment released", zap.String("link", l.name))
}

// PinLink joins the link's body to the world where it is now, leaving it
// free to rotate.
func (c *Control) PinLink(l *Link) error {
	if err := c.check("pin", l); err != nil {
		return err
	}
	if l.pin != physics.NoJoint {
		return nil
	}
	free := physics.AxisLimits{Lower: -gomath.Pi, Upper: gomath.Pi}
	id, err := c.engine.AddJoint(physics.JointSpec{
		BodyA:  l.body,
		BodyB:  physics.NoBody,
		PivotB: c.engine.Transform(l.body).Translation,
		Limits: physics.BallLimits(free, free, free),
	})
	if err != nil {
		return fmt.Errorf("pin %s: %w", l.name, err)
	}
	l.pin = id
	return nil
}

// Unpin removes the world joint added by PinLink.
func (c *Control) Unpin(l *Link) error {
	if err := c.check("unpin", l); err != nil {
		return err
	}
	if l.pin != physics.NoJoint {
		c.engine.RemoveJoint(l.pin)
		l.pin = physics.NoJoint
	}
	return nil
}

// checkDynamic verifies everything an operation forcing dynamic mode needs,
// before anything changes.
func (c *Control) checkDynamic(op string, l *Link) error {
	if err := c.check(op, l); err != nil {
		return err
	}
	if !c.ready {
		return fmt.Errorf("%s %s: %w", op, l.name, ErrNotReady)
	}
	return nil
}

func checkInterval(interval float32) error {
	if interval < 0 || gomath.IsNaN(float64(interval)) {
		return fmt.Errorf("%w: blend interval %v", ErrInvalidArgument, interval)
	}
	return nil
}
