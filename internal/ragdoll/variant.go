package ragdoll

import (
	"github.com/Faultbox/midgard-ragdoll/internal/skeleton"
	"github.com/Faultbox/midgard-ragdoll/pkg/math"
)

// Kind tells the three link variants apart.
type Kind int

const (
	KindTorso Kind = iota
	KindBone
	KindAttachment
)

// String returns the kind's name.
func (k Kind) String() string {
	switch k {
	case KindTorso:
		return "torso"
	case KindBone:
		return "bone"
	case KindAttachment:
		return "attachment"
	default:
		return "unknown"
	}
}

// poseBlend tracks the local transforms of the managed bones during a blend.
type poseBlend struct {
	start []math.Transform // Captured when the blend began
	end   []math.Transform // Fixed target pose; nil follows the animation

	// Bones no animation wrote since the last frame still hold the blended
	// pose, so the previous target is reused for them.
	target  []math.Transform
	written []math.Transform
	tracked bool
}

func newPoseBlend(n int) *poseBlend {
	return &poseBlend{
		start:   make([]math.Transform, n),
		target:  make([]math.Transform, n),
		written: make([]math.Transform, n),
	}
}

func (p *poseBlend) targetFor(i int, current math.Transform) math.Transform {
	if p.end != nil {
		return p.end[i]
	}
	if p.tracked && current == p.written[i] {
		return p.target[i]
	}
	return current
}

func (p *poseBlend) clone() *poseBlend {
	c := &poseBlend{
		start:   append([]math.Transform(nil), p.start...),
		target:  append([]math.Transform(nil), p.target...),
		written: append([]math.Transform(nil), p.written...),
		tracked: p.tracked,
	}
	if p.end != nil {
		c.end = append([]math.Transform(nil), p.end...)
	}
	return c
}

// rootBlend tracks a model's root transform during a blend, with the same
// target reuse as poseBlend.
type rootBlend struct {
	start   math.Transform
	target  math.Transform
	written math.Transform
	tracked bool
}

func (r *rootBlend) targetFor(current math.Transform) math.Transform {
	if r.tracked && current == r.written {
		return r.target
	}
	return current
}

type torsoData struct {
	root rootBlend
	end  *math.Transform // Model transform to reach; cleared once reached
}

type attachmentData struct {
	model     *skeleton.Model
	placement math.Transform // Sub-model root relative to the holding bone
	root      rootBlend
	released  bool
}

// captureBlendStart records the pose a new blend departs from.
func (l *Link) captureBlendStart(endLocals []math.Transform, endRoot *math.Transform) {
	m := l.control.model
	if p := l.pose; p != nil {
		for i, b := range l.bones {
			p.start[i] = m.Skeleton.Local(b)
		}
		p.end = nil
		if endLocals != nil {
			p.end = append([]math.Transform(nil), endLocals...)
		}
		p.tracked = false
	}
	switch l.kind {
	case KindTorso:
		l.torso.root = rootBlend{start: m.Root}
		l.torso.end = nil
		if endRoot != nil {
			end := *endRoot
			l.torso.end = &end
		}
	case KindAttachment:
		l.attachment.root = rootBlend{start: l.attachment.model.Root}
	}
}

// blendPose writes the kinematic pose for the current weight.
func (l *Link) blendPose() {
	switch l.kind {
	case KindTorso:
		l.blendTorsoRoot()
		l.blendBones()
	case KindBone:
		l.blendBones()
	case KindAttachment:
		a := l.attachment
		target := l.control.model.BoneWorld(l.bone).Combine(a.placement)
		a.model.Root = l.blend(a.root.start, target)
	}
}

func (l *Link) blend(start, target math.Transform) math.Transform {
	if l.kinematicWeight >= 1 {
		return target
	}
	return start.Interpolate(target, l.eased(l.kinematicWeight))
}

func (l *Link) blendTorsoRoot() {
	m := l.control.model
	t := l.torso
	if t.end != nil && l.kinematicWeight >= 1 {
		m.Root = *t.end
		t.end = nil
		t.root.tracked = false
		return
	}
	target := t.root.targetFor(m.Root)
	if t.end != nil {
		target = *t.end
	}
	out := l.blend(t.root.start, target)
	m.Root = out
	t.root.target = target
	t.root.written = out
	t.root.tracked = true
}

func (l *Link) blendBones() {
	skel := l.control.model.Skeleton
	p := l.pose
	for i, b := range l.bones {
		target := p.targetFor(i, skel.Local(b))
		out := l.blend(p.start[i], target)
		skel.SetLocal(b, out)
		p.target[i] = target
		p.written[i] = out
	}
	p.tracked = true
}

// physicsTransform places the body from the main bone and the local offset.
func (l *Link) physicsTransform() math.Transform {
	w := l.mainWorld()
	return math.NewTransform(w.TransformPoint(l.localOffset), w.Rotation)
}

// mainWorld returns the world transform of the bone the body is offset from.
func (l *Link) mainWorld() math.Transform {
	if l.kind == KindAttachment {
		return l.attachment.model.BoneWorld(0)
	}
	return l.control.model.BoneWorld(l.bone)
}

// boneFromBody inverts physicsTransform, keeping the bone's current scale.
func (l *Link) boneFromBody(scale math.Vec3) math.Transform {
	b := l.control.engine.Transform(l.body)
	return math.Transform{
		Translation: b.Translation.Sub(b.Rotation.Rotate(l.localOffset.Mul(scale))),
		Rotation:    b.Rotation,
		Scale:       scale,
	}
}

// dynamicUpdate poses the model from the body.
func (l *Link) dynamicUpdate() {
	switch l.kind {
	case KindTorso:
		followBody(l.control.model, l.bone, l.boneFromBody(l.mainWorld().Scale))
	case KindBone:
		m := l.control.model
		m.SetBoneWorld(l.bone, l.boneFromBody(m.BoneWorld(l.bone).Scale))
	case KindAttachment:
		followBody(l.attachment.model, 0, l.boneFromBody(l.mainWorld().Scale))
	}
}

// followBody moves a model's root so that bone ends up at world.
func followBody(m *skeleton.Model, bone int, world math.Transform) {
	m.Root = world.Combine(m.Skeleton.ModelSpace(bone).Invert())
}
