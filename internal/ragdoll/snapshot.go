package ragdoll

import (
	"fmt"

	"github.com/Faultbox/midgard-ragdoll/internal/physics"
	"github.com/Faultbox/midgard-ragdoll/pkg/math"
)

// State is a saved ragdoll: enough to resume every blend exactly where it
// was. Body and joint ids are informational; Restore matches links by name.
type State struct {
	Model string         `codec:"model"`
	Root  math.Transform `codec:"root"`
	Ready bool           `codec:"ready"`
	Links []LinkState    `codec:"links"`
}

// LinkState is the saved state of one link.
type LinkState struct {
	Name            string           `codec:"name"`
	Kind            Kind             `codec:"kind"`
	BlendInterval   float32          `codec:"blend_interval"`
	BlendElapsed    float64          `codec:"blend_elapsed"`
	KinematicWeight float32          `codec:"kinematic_weight"`
	LocalOffset     math.Vec3        `codec:"local_offset"`
	KPTransform     math.Transform   `codec:"kp_transform"`
	KPVelocity      math.Vec3        `codec:"kp_velocity"`
	Body            physics.BodyID   `codec:"body"`
	Joint           physics.JointID  `codec:"joint"`
	BodyTransform   math.Transform   `codec:"body_transform"`
	BodyVelocity    math.Vec3        `codec:"body_velocity"`
	Gravity         math.Vec3        `codec:"gravity"`
	Pose            []math.Transform `codec:"pose"`
	StartPose       []math.Transform `codec:"start_pose"`
	EndPose         []math.Transform `codec:"end_pose"`
	StartRoot       math.Transform   `codec:"start_root"`
	EndRoot         *math.Transform  `codec:"end_root"`
	Severed         bool             `codec:"severed"`
	Amputated       bool             `codec:"amputated"`
	Fading          bool             `codec:"fading"`
	FadeScale       float32          `codec:"fade_scale"`
	FadeTime        float32          `codec:"fade_time"`
	FadeSpan        float32          `codec:"fade_span"`
	Released        bool             `codec:"released"`
}

// Snapshot captures the control's current state.
func (c *Control) Snapshot() (State, error) {
	if !c.IsAttached() {
		return State{}, ErrNotAttached
	}
	s := State{Model: c.model.Name, Root: c.model.Root, Ready: c.ready}
	for _, l := range c.links {
		ls := LinkState{
			Name:            l.name,
			Kind:            l.kind,
			BlendInterval:   l.blendInterval,
			BlendElapsed:    l.blendElapsed,
			KinematicWeight: l.kinematicWeight,
			LocalOffset:     l.localOffset,
			KPTransform:     l.kpTransform,
			KPVelocity:      l.kpVelocity,
			Body:            l.body,
			Joint:           l.joint,
			BodyTransform:   c.engine.Transform(l.body),
			BodyVelocity:    c.engine.LinearVelocity(l.body),
			Gravity:         l.gravity,
			Pose:            c.currentPose(l),
			Severed:         l.severed,
			Amputated:       l.amputated,
			Fading:          l.fading,
			FadeScale:       l.fadeScale,
			FadeTime:        l.fadeTime,
			FadeSpan:        l.fadeSpan,
			Released:        l.IsReleased(),
		}
		if l.pose != nil {
			ls.StartPose = append([]math.Transform(nil), l.pose.start...)
			if l.pose.end != nil {
				ls.EndPose = append([]math.Transform(nil), l.pose.end...)
			}
		}
		switch l.kind {
		case KindTorso:
			ls.StartRoot = l.torso.root.start
			if l.torso.end != nil {
				end := *l.torso.end
				ls.EndRoot = &end
			}
		case KindAttachment:
			ls.StartRoot = l.attachment.root.start
		}
		s.Links = append(s.Links, ls)
	}
	return s, nil
}

// Restore applies a snapshot taken from a control with the same
// configuration and skeleton. A snapshot with dynamic links can only be
// restored once the control is ready. Links severed since the snapshot
// are joined to their parents again. Nothing changes when the snapshot is
// rejected.
func (c *Control) Restore(s State) error {
	if !c.IsAttached() {
		return ErrNotAttached
	}
	if len(s.Links) != len(c.links) {
		return fmt.Errorf("%w: snapshot has %d links, ragdoll has %d", ErrInvalidArgument, len(s.Links), len(c.links))
	}
	for i, ls := range s.Links {
		l := c.links[i]
		if ls.Name != l.name || ls.Kind != l.kind {
			return fmt.Errorf("%w: snapshot link %d is %s %q, ragdoll has %s %q",
				ErrInvalidArgument, i, ls.Kind, ls.Name, l.kind, l.name)
		}
		if len(ls.Pose) != len(l.bones) || (ls.StartPose != nil && len(ls.StartPose) != len(l.bones)) ||
			(ls.EndPose != nil && len(ls.EndPose) != len(l.bones)) {
			return fmt.Errorf("%w: snapshot pose of %q does not match", ErrInvalidArgument, l.name)
		}
		if ls.KinematicWeight < 0 || ls.KinematicWeight > 1 || ls.BlendInterval < 0 || ls.BlendElapsed < 0 {
			return fmt.Errorf("%w: snapshot blend of %q out of range", ErrInvalidArgument, l.name)
		}
		if ls.KinematicWeight == 0 && !c.ready {
			return fmt.Errorf("restore %s: %w", l.name, ErrNotReady)
		}
	}

	c.model.Root = s.Root
	for i, ls := range s.Links {
		c.restoreLink(c.links[i], ls)
	}
	return c.rejoin()
}

// rejoin recreates the joints of links that were severed after the snapshot
// was taken. Before the control is ready the next Update creates them.
func (c *Control) rejoin() error {
	if !c.ready {
		return nil
	}
	for _, l := range c.links[1:] {
		if l.severed || l.joint != physics.NoJoint {
			continue
		}
		if err := c.joinToParent(l); err != nil {
			return fmt.Errorf("restore: %w", err)
		}
	}
	return nil
}

func (c *Control) restoreLink(l *Link, ls LinkState) {
	skel := c.model.Skeleton
	for i, b := range l.bones {
		skel.SetLocal(b, ls.Pose[i])
	}
	if l.pose != nil {
		if ls.StartPose != nil {
			copy(l.pose.start, ls.StartPose)
		}
		l.pose.end = nil
		if ls.EndPose != nil {
			l.pose.end = append([]math.Transform(nil), ls.EndPose...)
		}
		l.pose.tracked = false
	}
	switch l.kind {
	case KindTorso:
		l.torso.root = rootBlend{start: ls.StartRoot}
		l.torso.end = nil
		if ls.EndRoot != nil {
			end := *ls.EndRoot
			l.torso.end = &end
		}
	case KindAttachment:
		l.attachment.root = rootBlend{start: ls.StartRoot}
	}

	if ls.Severed && l.joint != physics.NoJoint {
		c.engine.RemoveJoint(l.joint)
		l.joint = physics.NoJoint
	}
	l.severed = ls.Severed
	l.amputated = ls.Amputated
	l.fading = ls.Fading
	l.fade = nil
	l.fadeScale = ls.FadeScale
	if ls.Fading {
		l.resumeFade(ls.FadeSpan, ls.FadeTime)
	}
	if l.attachment != nil {
		l.attachment.released = ls.Released
	}

	l.blendInterval = ls.BlendInterval
	l.blendElapsed = ls.BlendElapsed
	l.kinematicWeight = ls.KinematicWeight
	l.kpTransform = ls.KPTransform
	l.kpVelocity = ls.KPVelocity
	l.gravity = ls.Gravity

	c.engine.SetKinematic(l.body, ls.KinematicWeight > 0)
	c.engine.SetTransform(l.body, ls.BodyTransform)
	c.engine.SetLinearVelocity(l.body, ls.BodyVelocity)
	c.engine.SetGravity(l.body, ls.Gravity)
}
