// Package ragdoll maps an animated skeleton onto a tree of rigid bodies and
// joints, and blends each part between animation (kinematic) and simulation
// (dynamic) control.
package ragdoll

import (
	"fmt"

	"github.com/tanema/gween/ease"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-ragdoll/internal/physics"
	"github.com/Faultbox/midgard-ragdoll/internal/skeleton"
	"github.com/Faultbox/midgard-ragdoll/pkg/math"
)

// Control owns the link tree of one character. It is not safe for
// concurrent use; drive it from the simulation loop.
type Control struct {
	cfg    Config
	ease   ease.TweenFunc
	logger *zap.Logger

	engine physics.Engine
	model  *skeleton.Model
	props  map[string]*skeleton.Model
	links  []*Link // Arena; index is the LinkID, torso first
	byName map[string]LinkID
	ready  bool
}

// Option configures a Control.
type Option func(*Control)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(c *Control) {
		if l != nil {
			c.logger = l
		}
	}
}

// New validates cfg and returns a detached control.
func New(cfg Config, opts ...Option) (*Control, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	fn, err := lookupEasing(cfg.Easing)
	if err != nil {
		return nil, err
	}
	c := &Control{cfg: cfg, ease: fn, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Config returns the configuration the control was built with.
func (c *Control) Config() Config { return c.cfg }

// Model returns the attached model, or nil.
func (c *Control) Model() *skeleton.Model { return c.model }

// Engine returns the physics engine the control is attached to, or nil.
func (c *Control) Engine() physics.Engine { return c.engine }

// IsAttached reports whether a link tree exists.
func (c *Control) IsAttached() bool { return c.links != nil }

// IsReady reports whether every link and joint exists, which dynamic mode
// requires. It becomes true at the end of the first Update after Attach.
func (c *Control) IsReady() bool { return c.ready }

// Attach builds the link tree for model. props supplies the sub-model of
// each attachment, keyed by the holding bone's name. All bodies start
// kinematic at the model's current pose; nothing is created on error.
func (c *Control) Attach(engine physics.Engine, model *skeleton.Model, props map[string]*skeleton.Model) error {
	if c.IsAttached() {
		return ErrAlreadyAttached
	}
	if engine == nil || model == nil || model.Skeleton == nil {
		return fmt.Errorf("%w: attach needs an engine and a model", ErrInvalidArgument)
	}

	links, err := c.plan(model.Skeleton, props)
	if err != nil {
		return err
	}

	c.engine = engine
	c.model = model
	c.props = props
	c.links = links
	c.byName = make(map[string]LinkID, len(links))
	for _, l := range links {
		c.byName[l.name] = l.id
	}

	if err := c.createBodies(); err != nil {
		c.teardown()
		return err
	}

	c.logger.Info("ragdoll attached",
		zap.String("model", model.Name),
		zap.Int("links", len(links)),
		zap.Int("bones", model.Skeleton.Len()))
	return nil
}

// plan resolves the configuration against a skeleton and lays out the arena:
// torso, then bone links parent-before-child, then attachments.
func (c *Control) plan(skel *skeleton.Skeleton, props map[string]*skeleton.Model) ([]*Link, error) {
	torsoBone, ok := skel.Index(c.cfg.Torso.MainBone)
	if !ok {
		return nil, fmt.Errorf("torso: %w %q", ErrUnknownBone, c.cfg.Torso.MainBone)
	}

	linkCfg := make(map[int]LinkConfig, len(c.cfg.Links))
	for _, lc := range c.cfg.Links {
		b, ok := skel.Index(lc.Bone)
		if !ok {
			return nil, fmt.Errorf("link: %w %q", ErrUnknownBone, lc.Bone)
		}
		for p := skel.Parent(torsoBone); p != skeleton.NoBone; p = skel.Parent(p) {
			if p == b {
				return nil, fmt.Errorf("%w: link %q is above the torso bone", ErrInvalidConfig, lc.Bone)
			}
		}
		linkCfg[b] = lc
	}

	torso := c.newLink(TorsoID, "torso", KindTorso, torsoBone, c.cfg.Torso.BodyConfig)
	torso.torso = &torsoData{}
	links := []*Link{torso}

	// Skeleton order is parent-first, so every bone's owner is known before
	// its children are visited.
	owner := make([]LinkID, skel.Len())
	for b := 0; b < skel.Len(); b++ {
		parentOwner := TorsoID
		if p := skel.Parent(b); p != skeleton.NoBone {
			parentOwner = owner[p]
		}
		switch lc, linked := linkCfg[b]; {
		case b == torsoBone:
			owner[b] = TorsoID
		case linked:
			l := c.newLink(LinkID(len(links)), lc.Bone, KindBone, b, lc.BodyConfig)
			l.limits = lc.RangeOfMotion.Limits()
			if err := l.setParent(links[parentOwner]); err != nil {
				return nil, err
			}
			links = append(links, l)
			owner[b] = l.id
		default:
			owner[b] = parentOwner
		}
		links[owner[b]].bones = append(links[owner[b]].bones, b)
	}

	// The main bone goes first; skeleton order already puts it first for
	// bone links, but the torso may own bones above its main bone.
	torso.bones = moveToFront(torso.bones, torsoBone)
	for _, l := range links {
		l.pose = newPoseBlend(len(l.bones))
	}

	for _, ac := range c.cfg.Attachments {
		b, ok := skel.Index(ac.Bone)
		if !ok {
			return nil, fmt.Errorf("attachment: %w %q", ErrUnknownBone, ac.Bone)
		}
		prop := props[ac.Bone]
		if prop == nil || prop.Skeleton == nil {
			return nil, fmt.Errorf("%w: no model for the attachment on %q", ErrInvalidArgument, ac.Bone)
		}
		l := c.newLink(LinkID(len(links)), "attachment:"+ac.Bone, KindAttachment, b, ac.BodyConfig)
		l.limits = physics.LockedLimits()
		l.attachment = &attachmentData{model: prop, placement: ac.Placement.Sanitized()}
		if err := l.setParent(links[owner[b]]); err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, nil
}

func (c *Control) newLink(id LinkID, name string, kind Kind, bone int, bc BodyConfig) *Link {
	return &Link{
		control:         c,
		id:              id,
		name:            name,
		kind:            kind,
		parent:          NoLink,
		bone:            bone,
		bodyConfig:      bc,
		localOffset:     bc.Offset,
		gravity:         c.cfg.Gravity,
		kinematicWeight: 1,
		blendInterval:   1,
	}
}

func moveToFront(bones []int, b int) []int {
	out := []int{b}
	for _, x := range bones {
		if x != b {
			out = append(out, x)
		}
	}
	return out
}

func (c *Control) createBodies() error {
	for _, l := range c.links {
		if l.kind == KindAttachment {
			a := l.attachment
			a.model.Root = c.model.BoneWorld(l.bone).Combine(a.placement)
		}
		for i, b := range l.bones {
			l.pose.start[i] = c.model.Skeleton.Local(b)
		}
		if l.kind == KindTorso {
			l.torso.root.start = c.model.Root
		}

		bc := l.bodyConfig
		l.kpTransform = l.physicsTransform()
		id, err := c.engine.CreateBody(physics.BodySpec{
			Name:      l.name,
			Shape:     bc.Shape,
			Mass:      bc.Mass,
			Transform: l.kpTransform,
			Kinematic: true,
		})
		if err != nil {
			return fmt.Errorf("create body for %s: %w", l.name, err)
		}
		l.body = id
		c.engine.SetGravity(id, l.gravity)
	}
	return nil
}

// createJoints connects every link to its parent at the child's main bone.
func (c *Control) createJoints() error {
	for _, l := range c.links[1:] {
		if l.joint != physics.NoJoint || l.severed {
			continue
		}
		parent := c.links[l.parent]
		c.engine.SetTransform(l.body, l.kpTransform)
		c.engine.SetTransform(parent.body, parent.kpTransform)
		if err := c.joinToParent(l); err != nil {
			return err
		}
	}
	return nil
}

// joinToParent adds the joint between l and its parent, pivoting at l's
// main bone with both bodies where they stand.
func (c *Control) joinToParent(l *Link) error {
	parent := c.links[l.parent]
	pivot := l.mainWorld().Translation
	a := c.engine.Transform(parent.body)
	b := c.engine.Transform(l.body)
	id, err := c.engine.AddJoint(physics.JointSpec{
		BodyA:  parent.body,
		BodyB:  l.body,
		PivotA: a.Invert().TransformPoint(pivot),
		PivotB: b.Invert().TransformPoint(pivot),
		Limits: l.limits,
	})
	if err != nil {
		return fmt.Errorf("create joint for %s: %w", l.name, err)
	}
	l.joint = id
	return nil
}

// Detach removes every joint and body and forgets the model.
func (c *Control) Detach() error {
	if !c.IsAttached() {
		return ErrNotAttached
	}
	name := c.model.Name
	c.teardown()
	c.logger.Info("ragdoll detached", zap.String("model", name))
	return nil
}

func (c *Control) teardown() {
	c.destroy(c.links)
	c.links = nil
	c.byName = nil
	c.engine = nil
	c.model = nil
	c.props = nil
	c.ready = false
}

// destroy removes the joints and bodies of links from the engine.
func (c *Control) destroy(links []*Link) {
	for _, l := range links {
		if l.pin != physics.NoJoint {
			c.engine.RemoveJoint(l.pin)
		}
		if l.joint != physics.NoJoint {
			c.engine.RemoveJoint(l.joint)
		}
	}
	for _, l := range links {
		if l.body != physics.NoBody {
			c.engine.DestroyBody(l.body)
		}
	}
}

// Rebuild recreates the link tree, for example after the model was
// rescaled, and carries each link's blend state over by name. Amputations,
// released attachments, pins and IK controllers are not carried over: the
// new tree starts whole. The control is not ready again until the next
// Update. If the new tree cannot be built the old one stays in place.
func (c *Control) Rebuild() error {
	if !c.IsAttached() {
		return ErrNotAttached
	}
	old, oldByName, ready := c.links, c.byName, c.ready
	engine, model, props := c.engine, c.model, c.props

	c.links, c.byName, c.ready = nil, nil, false
	if err := c.Attach(engine, model, props); err != nil {
		c.engine, c.model, c.props = engine, model, props
		c.links, c.byName, c.ready = old, oldByName, ready
		return fmt.Errorf("rebuild: %w", err)
	}
	c.destroy(old)
	for _, prev := range old {
		if id, ok := c.byName[prev.name]; ok && c.links[id].kind == prev.kind {
			c.links[id].postRebuild(prev)
		}
	}
	c.logger.Info("ragdoll rebuilt", zap.String("model", model.Name))
	return nil
}

// PreTick runs before the physics step: kinematic bodies receive their
// pose, dynamic links run their IK controllers.
func (c *Control) PreTick(dt float32) {
	for _, l := range c.links {
		if !l.IsReleased() {
			l.preTick(dt)
		}
	}
}

// PostTick runs after the physics step and keeps dynamic bodies awake.
func (c *Control) PostTick() {
	for _, l := range c.links {
		if !l.IsReleased() {
			l.postTick()
		}
	}
}

// Update advances blends and syncs the model with the bodies. Call it once
// per frame after the animation has posed the skeleton. The first call after
// Attach creates the joints.
func (c *Control) Update(tpf float32) error {
	if !c.IsAttached() {
		return ErrNotAttached
	}
	if tpf < 0 {
		return fmt.Errorf("%w: negative time step %v", ErrInvalidArgument, tpf)
	}
	for _, l := range c.links {
		if !l.IsReleased() {
			l.update(tpf)
		}
	}
	if !c.ready {
		if err := c.createJoints(); err != nil {
			return err
		}
		c.ready = true
		c.logger.Debug("ragdoll ready", zap.String("model", c.model.Name))
	}
	return nil
}

// Step runs one physics step for the controls sharing engine.
func Step(engine physics.Engine, dt float32, controls ...*Control) {
	for _, c := range controls {
		c.PreTick(dt)
	}
	engine.Step(dt)
	for _, c := range controls {
		c.PostTick()
	}
}

// Links returns every link, torso first.
func (c *Control) Links() []*Link {
	return append([]*Link(nil), c.links...)
}

// Link returns the link with the given id, or nil.
func (c *Control) Link(id LinkID) *Link {
	if id < 0 || int(id) >= len(c.links) {
		return nil
	}
	return c.links[id]
}

// Torso returns the root link, or nil when detached.
func (c *Control) Torso() *Link {
	return c.Link(TorsoID)
}

// FindBoneLink returns the link of a linked bone, or nil.
func (c *Control) FindBoneLink(bone string) *Link {
	if id, ok := c.byName[bone]; ok && c.links[id].kind == KindBone {
		return c.links[id]
	}
	return nil
}

// FindAttachmentLink returns the attachment held by bone, or nil.
func (c *Control) FindAttachmentLink(bone string) *Link {
	if id, ok := c.byName["attachment:"+bone]; ok {
		return c.links[id]
	}
	return nil
}

// FindManager returns the link that animates bone.
func (c *Control) FindManager(bone string) (*Link, error) {
	if !c.IsAttached() {
		return nil, ErrNotAttached
	}
	b, ok := c.model.Skeleton.Index(bone)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownBone, bone)
	}
	for _, l := range c.links {
		for _, x := range l.bones {
			if x == b {
				return l, nil
			}
		}
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownBone, bone)
}

// Subtree returns root and all its descendants, parents before children.
func (c *Control) Subtree(root *Link) []*Link {
	out := []*Link{root}
	for i := 0; i < len(out); i++ {
		for _, id := range out[i].children {
			out = append(out, c.links[id])
		}
	}
	return out
}

// check verifies that l belongs to this attached control.
func (c *Control) check(op string, l *Link) error {
	if !c.IsAttached() {
		return fmt.Errorf("%s: %w", op, ErrNotAttached)
	}
	if l == nil || l.control != c || c.Link(l.id) != l {
		return fmt.Errorf("%s: %w", op, ErrInvalidLink)
	}
	return nil
}

// bindPose returns the rest pose of the link's managed bones.
func (c *Control) bindPose(l *Link) []math.Transform {
	out := make([]math.Transform, len(l.bones))
	for i, b := range l.bones {
		out[i] = c.model.Skeleton.Bind(b)
	}
	return out
}

// currentPose returns the present local transforms of the managed bones.
func (c *Control) currentPose(l *Link) []math.Transform {
	out := make([]math.Transform, len(l.bones))
	for i, b := range l.bones {
		out[i] = c.model.Skeleton.Local(b)
	}
	return out
}
