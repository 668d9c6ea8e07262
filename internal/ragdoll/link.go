package ragdoll

import (
	"fmt"
	gomath "math"

	"github.com/tanema/gween"

	"github.com/Faultbox/midgard-ragdoll/internal/physics"
	"github.com/Faultbox/midgard-ragdoll/internal/skeleton"
	"github.com/Faultbox/midgard-ragdoll/pkg/math"
)

// LinkID indexes a link inside its Control.
type LinkID int

const (
	// NoLink is the parent of the torso.
	NoLink LinkID = -1
	// TorsoID is always the root of the tree.
	TorsoID LinkID = 0
)

// blendEpsilon is the weight a blend starts from: the smallest positive
// float32, so the link counts as kinematic before any time has passed.
const blendEpsilon = gomath.SmallestNonzeroFloat32

// blendSnap is the relative shortfall of elapsed time that still ends a blend.
const blendSnap = 1e-6

// Link couples one rigid body to part of the animated model. A link is
// kinematic (driven by animation) while its weight is positive and dynamic
// (driven by physics) when the weight is zero.
type Link struct {
	control  *Control
	id       LinkID
	name     string
	kind     Kind
	parent   LinkID
	children []LinkID

	bone  int   // Main bone; for attachments, the bone holding the sub-model
	bones []int // Managed bones, main bone first; empty for attachments

	bodyConfig  BodyConfig
	body        physics.BodyID
	joint       physics.JointID
	pin         physics.JointID
	limits      physics.JointLimits
	localOffset math.Vec3
	gravity     math.Vec3

	kinematicWeight float32
	blendInterval   float32
	blendElapsed    float64 // Seconds since the blend began
	kpTransform     math.Transform
	kpVelocity      math.Vec3

	ik        []IKController
	severed   bool // Joint removed on purpose; only Restore joins it again
	amputated bool
	fading    bool // Root of an amputated subtree, shrinking out of view
	fade      *gween.Tween
	fadeScale float32
	fadeTime  float32 // Seconds since the fade began
	fadeSpan  float32 // Fade duration

	pose       *poseBlend      // Torso and bone links
	torso      *torsoData      // Torso only
	attachment *attachmentData // Attachments only
}

// ID returns the link's index in its control.
func (l *Link) ID() LinkID { return l.id }

// Name returns the linked bone's name, or "torso".
func (l *Link) Name() string { return l.name }

// Kind reports which variant the link is.
func (l *Link) Kind() Kind { return l.kind }

// Parent returns the managing link, or nil for the torso.
func (l *Link) Parent() *Link {
	if l.parent == NoLink {
		return nil
	}
	return l.control.links[l.parent]
}

// Children returns the links managed by this one, in creation order.
func (l *Link) Children() []*Link {
	out := make([]*Link, len(l.children))
	for i, id := range l.children {
		out[i] = l.control.links[id]
	}
	return out
}

// BoneName returns the main bone's name. For attachments it is the bone that
// holds the sub-model.
func (l *Link) BoneName() string {
	return l.control.model.Skeleton.Name(l.bone)
}

// ManagedBones returns the names of the bones this link animates.
func (l *Link) ManagedBones() []string {
	skel := l.control.model.Skeleton
	out := make([]string, len(l.bones))
	for i, b := range l.bones {
		out[i] = skel.Name(b)
	}
	return out
}

// Body returns the link's rigid body.
func (l *Link) Body() physics.BodyID { return l.body }

// Joint returns the joint to the parent's body, or physics.NoJoint.
func (l *Link) Joint() physics.JointID { return l.joint }

// KinematicWeight returns the blend weight in [0, 1].
func (l *Link) KinematicWeight() float32 { return l.kinematicWeight }

// BlendInterval returns the duration of the current or last blend.
func (l *Link) BlendInterval() float32 { return l.blendInterval }

// IsKinematic reports whether animation drives the link.
func (l *Link) IsKinematic() bool { return l.kinematicWeight > 0 }

// LocalOffset returns the body center in the main bone's frame.
func (l *Link) LocalOffset() math.Vec3 { return l.localOffset }

// KPTransform returns the last kinematic physics transform.
func (l *Link) KPTransform() math.Transform { return l.kpTransform }

// KPVelocity returns the last kinematic velocity estimate.
func (l *Link) KPVelocity() math.Vec3 { return l.kpVelocity }

// Gravity returns the acceleration applied while dynamic.
func (l *Link) Gravity() math.Vec3 { return l.gravity }

// Transform returns the body's current world transform.
func (l *Link) Transform() math.Transform {
	return l.control.engine.Transform(l.body)
}

// Velocity returns the body's linear velocity, or the kinematic estimate
// while kinematic.
func (l *Link) Velocity() math.Vec3 {
	if l.IsKinematic() {
		return l.kpVelocity
	}
	return l.control.engine.LinearVelocity(l.body)
}

// IsAmputated reports whether the link was cut off with AmputateSubtree.
func (l *Link) IsAmputated() bool { return l.amputated }

// IsReleased reports whether the attachment was dropped. Always false for
// other kinds.
func (l *Link) IsReleased() bool {
	return l.attachment != nil && l.attachment.released
}

// IsPinned reports whether the body is joined to the world.
func (l *Link) IsPinned() bool { return l.pin != physics.NoJoint }

// AttachedModel returns the held sub-model, or nil for other kinds.
func (l *Link) AttachedModel() *skeleton.Model {
	if l.attachment == nil {
		return nil
	}
	return l.attachment.model
}

// setParent wires the link under parent. It runs once, while the tree is built.
func (l *Link) setParent(parent *Link) error {
	if l.parent != NoLink {
		return fmt.Errorf("%w: %s already has a parent", ErrInvalidLink, l.name)
	}
	if parent.kind == KindAttachment {
		return fmt.Errorf("%w: attachment %s cannot have children", ErrInvalidLink, parent.name)
	}
	l.parent = parent.id
	parent.children = append(parent.children, l.id)
	return nil
}

// setKinematicWeight moves the weight, switching the body between modes
// without a jump in position or velocity.
func (l *Link) setKinematicWeight(w float32) {
	if w < 0 {
		w = 0
	}
	if w > 1 {
		w = 1
	}
	wasKinematic := l.kinematicWeight > 0
	l.kinematicWeight = w
	isKinematic := w > 0

	engine := l.control.engine
	switch {
	case wasKinematic && !isKinematic:
		engine.SetKinematic(l.body, false)
		engine.SetTransform(l.body, l.kpTransform)
		engine.SetLinearVelocity(l.body, l.kpVelocity)
	case isKinematic && !wasKinematic:
		l.kpTransform = engine.Transform(l.body)
		l.kpVelocity = engine.LinearVelocity(l.body)
		engine.SetKinematic(l.body, true)
	}
}

// blendToKinematicMode starts a blend of the given length. endLocals, when
// non-nil, replaces the live animation as the target pose of the managed
// bones; endRoot does the same for the torso's model transform.
func (l *Link) blendToKinematicMode(interval float32, endLocals []math.Transform, endRoot *math.Transform) {
	l.blendInterval = interval
	l.blendElapsed = 0
	l.captureBlendStart(endLocals, endRoot)
	l.setKinematicWeight(blendEpsilon)
}

// setDynamic hands the link to the physics engine with its own gravity.
func (l *Link) setDynamic(gravity math.Vec3) error {
	if !l.control.ready {
		return fmt.Errorf("set %s dynamic: %w", l.name, ErrNotReady)
	}
	if l.IsReleased() {
		return fmt.Errorf("set %s dynamic: %w", l.name, ErrReleased)
	}
	l.setKinematicWeight(0)
	l.gravity = gravity
	l.control.engine.SetGravity(l.body, gravity)
	return nil
}

func (l *Link) preTick(dt float32) {
	if l.IsKinematic() {
		l.control.engine.SetTransform(l.body, l.kpTransform)
		return
	}
	for _, c := range l.ik {
		if c.Enabled() {
			c.PreTick(dt)
		}
	}
}

func (l *Link) postTick() {
	if !l.IsKinematic() {
		l.control.engine.Activate(l.body)
	}
}

func (l *Link) update(tpf float32) {
	if l.IsKinematic() {
		l.kinematicUpdate(tpf)
	} else {
		l.dynamicUpdate()
	}
	if l.fading {
		l.updateFade(tpf)
	}
}

// kinematicUpdate advances the weight, writes the blended pose for it, then
// refreshes the kinematic transform and velocity.
func (l *Link) kinematicUpdate(tpf float32) {
	l.advanceBlend(tpf)
	l.blendPose()

	previous := l.kpTransform.Translation
	l.kpTransform = l.physicsTransform()
	if tpf > 0 {
		l.kpVelocity = l.kpTransform.Translation.Sub(previous).Scale(1 / tpf)
	}
}

// advanceBlend sets the weight to the elapsed share of the blend interval.
// Elapsed time within blendSnap of the interval completes the blend, so
// frame times that are not exact binary fractions still end on 1.
func (l *Link) advanceBlend(tpf float32) {
	if l.blendInterval == 0 {
		l.setKinematicWeight(1)
		return
	}
	l.blendElapsed += float64(tpf)
	interval := float64(l.blendInterval)
	if l.blendElapsed >= interval*(1-blendSnap) {
		l.setKinematicWeight(1)
		return
	}
	w := float32(l.blendElapsed / interval)
	if w < l.kinematicWeight {
		w = l.kinematicWeight
	}
	l.setKinematicWeight(w)
}

// postRebuild carries the blend state over from the link this one replaced.
func (l *Link) postRebuild(old *Link) {
	if old.IsKinematic() {
		l.blendInterval = old.blendInterval
		l.blendElapsed = old.blendElapsed
		l.kinematicWeight = old.kinematicWeight
		if l.pose != nil && old.pose != nil && len(old.pose.start) == len(l.pose.start) {
			l.pose = old.pose.clone()
		}
		if l.torso != nil && old.torso != nil {
			*l.torso = *old.torso
		}
	} else {
		l.blendInterval = 0
		l.blendElapsed = 0
		l.kinematicWeight = 1
	}
}

// eased maps a blend weight through the control's easing curve.
func (l *Link) eased(w float32) float32 {
	return l.control.ease(w, 0, 1, 1)
}

func (l *Link) startFade(interval float32) {
	l.fading = true
	l.resumeFade(interval, 0)
	l.applyFade()
}

// resumeFade restarts the shrink tween elapsed seconds into its span.
func (l *Link) resumeFade(span, elapsed float32) {
	l.fadeSpan = span
	l.fadeTime = elapsed
	l.fadeScale = 0
	l.fade = nil
	if elapsed < span {
		l.fade = gween.New(1, 0, span, l.control.ease)
		l.fadeScale, _ = l.fade.Update(elapsed)
	}
}

// updateFade keeps the scale applied after the tween ends, since animation
// may rewrite the bone's scale every frame.
func (l *Link) updateFade(tpf float32) {
	if l.fade != nil {
		l.fadeTime += tpf
		scale, done := l.fade.Update(tpf)
		l.fadeScale = scale
		if done {
			l.fade = nil
			l.fadeScale = 0
		}
	}
	l.applyFade()
}

// applyFade shrinks the main bone, and with it everything below.
func (l *Link) applyFade() {
	skel := l.control.model.Skeleton
	local := skel.Local(l.bone)
	local.Scale = math.Vec3One().Scale(l.fadeScale)
	skel.SetLocal(l.bone, local)
}
