// Package physicstest provides an in-memory physics.Engine for tests. Bodies
// integrate gravity with explicit Euler steps; joints are recorded but not solved.
package physicstest

import (
	"fmt"

	"github.com/Faultbox/midgard-ragdoll/internal/physics"
	"github.com/Faultbox/midgard-ragdoll/pkg/math"
)

// Body is the recorded state of one rigid body.
type Body struct {
	Spec            physics.BodySpec
	Transform       math.Transform
	Velocity        math.Vec3
	AngularVelocity math.Vec3
	Gravity         math.Vec3
	Kinematic       bool
	ContactResponse bool
	Impulses        int
	Activations     int
}

// Joint is the recorded state of one joint.
type Joint struct {
	Spec physics.JointSpec
}

// Engine records every body and joint it is asked to manage.
type Engine struct {
	Bodies map[physics.BodyID]*Body
	Joints map[physics.JointID]*Joint
	Steps  int

	// FailCreate, when set, is returned by CreateBody instead of a body.
	FailCreate error

	nextBody  physics.BodyID
	nextJoint physics.JointID
}

// New returns an empty engine.
func New() *Engine {
	return &Engine{
		Bodies: make(map[physics.BodyID]*Body),
		Joints: make(map[physics.JointID]*Joint),
	}
}

// CreateBody implements physics.Engine.
func (e *Engine) CreateBody(spec physics.BodySpec) (physics.BodyID, error) {
	if e.FailCreate != nil {
		return physics.NoBody, e.FailCreate
	}
	if err := spec.Validate(); err != nil {
		return physics.NoBody, err
	}
	e.nextBody++
	e.Bodies[e.nextBody] = &Body{
		Spec:            spec,
		Transform:       spec.Transform,
		Kinematic:       spec.Kinematic,
		ContactResponse: true,
	}
	return e.nextBody, nil
}

// DestroyBody implements physics.Engine.
func (e *Engine) DestroyBody(id physics.BodyID) {
	delete(e.Bodies, id)
}

// Transform implements physics.Engine.
func (e *Engine) Transform(id physics.BodyID) math.Transform {
	if b, ok := e.Bodies[id]; ok {
		return b.Transform
	}
	return math.TransformIdentity()
}

// SetTransform implements physics.Engine.
func (e *Engine) SetTransform(id physics.BodyID, t math.Transform) {
	if b, ok := e.Bodies[id]; ok {
		b.Transform = t
	}
}

// LinearVelocity implements physics.Engine.
func (e *Engine) LinearVelocity(id physics.BodyID) math.Vec3 {
	if b, ok := e.Bodies[id]; ok {
		return b.Velocity
	}
	return math.Vec3{}
}

// SetLinearVelocity implements physics.Engine.
func (e *Engine) SetLinearVelocity(id physics.BodyID, v math.Vec3) {
	if b, ok := e.Bodies[id]; ok {
		b.Velocity = v
	}
}

// SetAngularVelocity implements physics.Engine.
func (e *Engine) SetAngularVelocity(id physics.BodyID, v math.Vec3) {
	if b, ok := e.Bodies[id]; ok {
		b.AngularVelocity = v
	}
}

// SetGravity implements physics.Engine.
func (e *Engine) SetGravity(id physics.BodyID, g math.Vec3) {
	if b, ok := e.Bodies[id]; ok {
		b.Gravity = g
	}
}

// SetKinematic implements physics.Engine.
func (e *Engine) SetKinematic(id physics.BodyID, kinematic bool) {
	if b, ok := e.Bodies[id]; ok {
		b.Kinematic = kinematic
	}
}

// IsKinematic implements physics.Engine.
func (e *Engine) IsKinematic(id physics.BodyID) bool {
	if b, ok := e.Bodies[id]; ok {
		return b.Kinematic
	}
	return false
}

// SetContactResponse implements physics.Engine.
func (e *Engine) SetContactResponse(id physics.BodyID, enabled bool) {
	if b, ok := e.Bodies[id]; ok {
		b.ContactResponse = enabled
	}
}

// ApplyImpulse implements physics.Engine.
func (e *Engine) ApplyImpulse(id physics.BodyID, impulse, offset math.Vec3) {
	if b, ok := e.Bodies[id]; ok && !b.Kinematic {
		b.Velocity = b.Velocity.Add(impulse.Scale(1 / b.Spec.Mass))
		b.Impulses++
	}
}

// Activate implements physics.Engine.
func (e *Engine) Activate(id physics.BodyID) {
	if b, ok := e.Bodies[id]; ok {
		b.Activations++
	}
}

// AddJoint implements physics.Engine.
func (e *Engine) AddJoint(spec physics.JointSpec) (physics.JointID, error) {
	if err := spec.Validate(); err != nil {
		return physics.NoJoint, err
	}
	if _, ok := e.Bodies[spec.BodyA]; !ok {
		return physics.NoJoint, fmt.Errorf("%w: unknown body %d", physics.ErrInvalidSpec, spec.BodyA)
	}
	if _, ok := e.Bodies[spec.BodyB]; spec.BodyB != physics.NoBody && !ok {
		return physics.NoJoint, fmt.Errorf("%w: unknown body %d", physics.ErrInvalidSpec, spec.BodyB)
	}
	e.nextJoint++
	e.Joints[e.nextJoint] = &Joint{Spec: spec}
	return e.nextJoint, nil
}

// RemoveJoint implements physics.Engine.
func (e *Engine) RemoveJoint(id physics.JointID) {
	delete(e.Joints, id)
}

// SetJointLimits implements physics.Engine.
func (e *Engine) SetJointLimits(id physics.JointID, limits physics.JointLimits) {
	if j, ok := e.Joints[id]; ok {
		j.Spec.Limits = limits
	}
}

// Step implements physics.Engine.
func (e *Engine) Step(dt float32) {
	e.Steps++
	for _, b := range e.Bodies {
		if b.Kinematic {
			continue
		}
		b.Velocity = b.Velocity.Add(b.Gravity.Scale(dt))
		b.Transform.Translation = b.Transform.Translation.Add(b.Velocity.Scale(dt))
	}
}

// Connected reports whether some joint links bodies a and b.
func (e *Engine) Connected(a, b physics.BodyID) bool {
	for _, j := range e.Joints {
		if (j.Spec.BodyA == a && j.Spec.BodyB == b) || (j.Spec.BodyA == b && j.Spec.BodyB == a) {
			return true
		}
	}
	return false
}

var _ physics.Engine = (*Engine)(nil)
