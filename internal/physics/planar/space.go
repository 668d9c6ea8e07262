// Package planar implements physics.Engine on top of the Chipmunk2D port
// github.com/jakecoffman/cp. Bodies live in the XY plane: translation Z and any
// rotation that is not a twist about Z are carried through unchanged, so a
// ragdoll laid out in the XY plane simulates faithfully.
package planar

import (
	"fmt"
	gomath "math"

	"github.com/jakecoffman/cp"

	"github.com/Faultbox/midgard-ragdoll/internal/physics"
	"github.com/Faultbox/midgard-ragdoll/pkg/math"
)

// Config holds space-wide settings.
type Config struct {
	Gravity    math.Vec3 // Default per-body gravity
	Iterations int       // Solver iterations per step
	Friction   float32   // Friction of every created shape
}

type body struct {
	body      *cp.Body
	shape     *cp.Shape
	mass      float64
	moment    float64
	gravity   cp.Vector
	kinematic bool
	z         float32   // Out-of-plane translation
	swing     math.Quat // Rotation left after removing the Z twist
}

type joint struct {
	a, b   *cp.Body
	pivot  *cp.Constraint
	rotary *cp.Constraint // Nil when the Z rotation is unrestricted
	rest   float64        // Relative angle at creation
}

// Space is a planar physics.Engine.
type Space struct {
	space    *cp.Space
	friction float64
	gravity  cp.Vector

	bodies    map[physics.BodyID]*body
	joints    map[physics.JointID]*joint
	nextBody  physics.BodyID
	nextJoint physics.JointID
	ground    []*cp.Shape
}

// New creates an empty space.
func New(cfg Config) *Space {
	s := cp.NewSpace()
	if cfg.Iterations > 0 {
		s.Iterations = uint(cfg.Iterations)
	}
	return &Space{
		space:    s,
		friction: float64(cfg.Friction),
		gravity:  vec(cfg.Gravity),
		bodies:   make(map[physics.BodyID]*body),
		joints:   make(map[physics.JointID]*joint),
	}
}

// AddGround adds a static floor segment at height y spanning [-halfWidth, halfWidth].
func (s *Space) AddGround(y, halfWidth float32) {
	a := cp.Vector{X: float64(-halfWidth), Y: float64(y)}
	b := cp.Vector{X: float64(halfWidth), Y: float64(y)}
	seg := cp.NewSegment(s.space.StaticBody, a, b, 0)
	seg.SetFriction(s.friction)
	s.space.AddShape(seg)
	s.ground = append(s.ground, seg)
}

// BodyCount returns the number of live bodies.
func (s *Space) BodyCount() int {
	return len(s.bodies)
}

// JointCount returns the number of live joints.
func (s *Space) JointCount() int {
	return len(s.joints)
}

// CreateBody implements physics.Engine.
func (s *Space) CreateBody(spec physics.BodySpec) (physics.BodyID, error) {
	if err := spec.Validate(); err != nil {
		return physics.NoBody, err
	}
	mass := float64(spec.Mass)
	moment := momentFor(spec.Shape, mass)

	b := cp.NewBody(mass, moment)
	shape := newShape(b, spec.Shape)
	shape.SetFriction(s.friction)

	entry := &body{body: b, shape: shape, mass: mass, moment: moment, gravity: s.gravity}
	b.SetVelocityUpdateFunc(func(cb *cp.Body, _ cp.Vector, damping, dt float64) {
		cp.BodyUpdateVelocity(cb, entry.gravity, damping, dt)
	})

	s.space.AddBody(b)
	s.space.AddShape(shape)

	s.nextBody++
	id := s.nextBody
	s.bodies[id] = entry
	s.setTransform(entry, spec.Transform)
	s.setKinematic(entry, spec.Kinematic)
	return id, nil
}

// DestroyBody implements physics.Engine. Joints touching the body go with it.
func (s *Space) DestroyBody(id physics.BodyID) {
	b, ok := s.bodies[id]
	if !ok {
		return
	}
	for jid, j := range s.joints {
		if j.a == b.body || j.b == b.body {
			s.RemoveJoint(jid)
		}
	}
	s.space.RemoveShape(b.shape)
	s.space.RemoveBody(b.body)
	delete(s.bodies, id)
}

// Transform implements physics.Engine.
func (s *Space) Transform(id physics.BodyID) math.Transform {
	b, ok := s.bodies[id]
	if !ok {
		return math.TransformIdentity()
	}
	p := b.body.Position()
	twist := math.QuatFromAxisAngle(math.Vec3{Z: 1}, float32(b.body.Angle()))
	return math.NewTransform(
		math.Vec3{X: float32(p.X), Y: float32(p.Y), Z: b.z},
		twist.Mul(b.swing).Normalize(),
	)
}

// SetTransform implements physics.Engine.
func (s *Space) SetTransform(id physics.BodyID, t math.Transform) {
	if b, ok := s.bodies[id]; ok {
		s.setTransform(b, t)
	}
}

func (s *Space) setTransform(b *body, t math.Transform) {
	rot := t.Rotation.Normalize()
	angle := rot.AngleZ()
	twist := math.QuatFromAxisAngle(math.Vec3{Z: 1}, angle)
	b.swing = twist.Conjugate().Mul(rot).Normalize()
	b.z = t.Translation.Z
	b.body.SetPosition(cp.Vector{X: float64(t.Translation.X), Y: float64(t.Translation.Y)})
	b.body.SetAngle(float64(angle))
}

// LinearVelocity implements physics.Engine.
func (s *Space) LinearVelocity(id physics.BodyID) math.Vec3 {
	b, ok := s.bodies[id]
	if !ok {
		return math.Vec3{}
	}
	v := b.body.Velocity()
	return math.Vec3{X: float32(v.X), Y: float32(v.Y)}
}

// SetLinearVelocity implements physics.Engine.
func (s *Space) SetLinearVelocity(id physics.BodyID, v math.Vec3) {
	if b, ok := s.bodies[id]; ok {
		b.body.SetVelocityVector(vec(v))
	}
}

// SetAngularVelocity implements physics.Engine. Only the Z component applies.
func (s *Space) SetAngularVelocity(id physics.BodyID, v math.Vec3) {
	if b, ok := s.bodies[id]; ok {
		b.body.SetAngularVelocity(float64(v.Z))
	}
}

// SetGravity implements physics.Engine.
func (s *Space) SetGravity(id physics.BodyID, g math.Vec3) {
	if b, ok := s.bodies[id]; ok {
		b.gravity = vec(g)
		b.body.Activate()
	}
}

// SetKinematic implements physics.Engine.
func (s *Space) SetKinematic(id physics.BodyID, kinematic bool) {
	if b, ok := s.bodies[id]; ok {
		s.setKinematic(b, kinematic)
	}
}

func (s *Space) setKinematic(b *body, kinematic bool) {
	if b.kinematic == kinematic {
		return
	}
	b.kinematic = kinematic
	if kinematic {
		b.body.SetType(cp.BODY_KINEMATIC)
		return
	}
	// Switching to dynamic recomputes mass from shapes, which carry none.
	b.body.SetType(cp.BODY_DYNAMIC)
	b.body.SetMass(b.mass)
	b.body.SetMoment(b.moment)
	b.body.Activate()
}

// IsKinematic implements physics.Engine.
func (s *Space) IsKinematic(id physics.BodyID) bool {
	if b, ok := s.bodies[id]; ok {
		return b.kinematic
	}
	return false
}

// SetContactResponse implements physics.Engine. A body without contact
// response becomes a sensor: it still reports overlaps but is not pushed.
func (s *Space) SetContactResponse(id physics.BodyID, enabled bool) {
	if b, ok := s.bodies[id]; ok {
		b.shape.SetSensor(!enabled)
	}
}

// ApplyImpulse implements physics.Engine. offset is relative to the body center.
func (s *Space) ApplyImpulse(id physics.BodyID, impulse, offset math.Vec3) {
	b, ok := s.bodies[id]
	if !ok || b.kinematic {
		return
	}
	point := b.body.Position().Add(vec(offset))
	b.body.ApplyImpulseAtWorldPoint(vec(impulse), point)
}

// Activate implements physics.Engine.
func (s *Space) Activate(id physics.BodyID) {
	if b, ok := s.bodies[id]; ok {
		b.body.Activate()
	}
}

// AddJoint implements physics.Engine. Translation is always pinned at the
// pivot; the Z angular limit becomes a rotary limit.
func (s *Space) AddJoint(spec physics.JointSpec) (physics.JointID, error) {
	if err := spec.Validate(); err != nil {
		return physics.NoJoint, err
	}
	a, ok := s.bodies[spec.BodyA]
	if !ok {
		return physics.NoJoint, fmt.Errorf("%w: unknown body %d", physics.ErrInvalidSpec, spec.BodyA)
	}
	bb := s.space.StaticBody
	if spec.BodyB != physics.NoBody {
		b, ok := s.bodies[spec.BodyB]
		if !ok {
			return physics.NoJoint, fmt.Errorf("%w: unknown body %d", physics.ErrInvalidSpec, spec.BodyB)
		}
		bb = b.body
	}

	j := &joint{
		a:     a.body,
		b:     bb,
		pivot: cp.NewPivotJoint2(a.body, bb, vec(spec.PivotA), vec(spec.PivotB)),
		rest:  bb.Angle() - a.body.Angle(),
	}
	j.pivot.SetCollideBodies(false)
	s.space.AddConstraint(j.pivot)

	s.nextJoint++
	id := s.nextJoint
	s.joints[id] = j
	s.applyLimits(j, spec.Limits)
	return id, nil
}

// RemoveJoint implements physics.Engine.
func (s *Space) RemoveJoint(id physics.JointID) {
	j, ok := s.joints[id]
	if !ok {
		return
	}
	s.space.RemoveConstraint(j.pivot)
	if j.rotary != nil {
		s.space.RemoveConstraint(j.rotary)
	}
	delete(s.joints, id)
}

// SetJointLimits implements physics.Engine.
func (s *Space) SetJointLimits(id physics.JointID, limits physics.JointLimits) {
	j, ok := s.joints[id]
	if !ok {
		return
	}
	s.applyLimits(j, limits)
}

func (s *Space) applyLimits(j *joint, limits physics.JointLimits) {
	z := limits.Angular[2]
	free := float64(z.Upper-z.Lower) >= 2*gomath.Pi
	if free {
		if j.rotary != nil {
			s.space.RemoveConstraint(j.rotary)
			j.rotary = nil
		}
		return
	}
	lo, hi := j.rest+float64(z.Lower), j.rest+float64(z.Upper)
	if j.rotary == nil {
		j.rotary = cp.NewRotaryLimitJoint(j.a, j.b, lo, hi)
		j.rotary.SetCollideBodies(false)
		s.space.AddConstraint(j.rotary)
		return
	}
	rl := j.rotary.Class.(*cp.RotaryLimitJoint)
	rl.Min, rl.Max = lo, hi
	j.a.Activate()
	j.b.Activate()
}

// Step implements physics.Engine.
func (s *Space) Step(dt float32) {
	s.space.Step(float64(dt))
}

func vec(v math.Vec3) cp.Vector {
	return cp.Vector{X: float64(v.X), Y: float64(v.Y)}
}

func newShape(b *cp.Body, s physics.Shape) *cp.Shape {
	switch s.Kind {
	case physics.ShapeBox:
		return cp.NewBox(b, float64(2*s.HalfExtents.X), float64(2*s.HalfExtents.Y), 0)
	case physics.ShapeCapsule:
		h := float64(s.Height / 2)
		return cp.NewSegment(b, cp.Vector{Y: -h}, cp.Vector{Y: h}, float64(s.Radius))
	default:
		return cp.NewCircle(b, float64(s.Radius), cp.Vector{})
	}
}

func momentFor(s physics.Shape, mass float64) float64 {
	switch s.Kind {
	case physics.ShapeBox:
		return cp.MomentForBox(mass, float64(2*s.HalfExtents.X), float64(2*s.HalfExtents.Y))
	case physics.ShapeCapsule:
		h := float64(s.Height / 2)
		return cp.MomentForSegment(mass, cp.Vector{Y: -h}, cp.Vector{Y: h}, float64(s.Radius))
	default:
		return cp.MomentForCircle(mass, 0, float64(s.Radius), cp.Vector{})
	}
}

var _ physics.Engine = (*Space)(nil)
