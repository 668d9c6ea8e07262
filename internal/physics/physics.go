// Package physics defines the narrow boundary between the ragdoll and a rigid-body
// engine: bodies with a shape and mass, their transforms and velocities, and
// 6-DOF joints with per-axis limits.
package physics

import (
	"errors"
	"fmt"

	"github.com/Faultbox/midgard-ragdoll/pkg/math"
)

// BodyID identifies a rigid body inside an Engine. Zero is never a valid body.
type BodyID uint32

// JointID identifies a joint inside an Engine. Zero is never a valid joint.
type JointID uint32

// NoBody stands for the static world when used as a joint endpoint.
const NoBody BodyID = 0

// NoJoint marks the absence of a joint.
const NoJoint JointID = 0

// ErrInvalidSpec is returned for malformed body or joint specifications.
var ErrInvalidSpec = errors.New("invalid physics spec")

// BodySpec describes a rigid body to create.
type BodySpec struct {
	Name      string
	Shape     Shape
	Mass      float32
	Transform math.Transform
	Kinematic bool
}

// Validate checks the spec before it reaches the engine.
func (s BodySpec) Validate() error {
	if s.Mass <= 0 {
		return fmt.Errorf("%w: body %q mass %v must be positive", ErrInvalidSpec, s.Name, s.Mass)
	}
	if err := s.Shape.Validate(); err != nil {
		return fmt.Errorf("body %q: %w", s.Name, err)
	}
	return nil
}

// JointSpec describes a 6-DOF joint between two bodies. BodyB may be NoBody to
// anchor BodyA to the world, in which case PivotB is a world-space point.
type JointSpec struct {
	BodyA  BodyID
	BodyB  BodyID
	PivotA math.Vec3 // In BodyA's local frame
	PivotB math.Vec3 // In BodyB's local frame, or world space for NoBody
	Limits JointLimits
}

// Validate checks the spec before it reaches the engine.
func (s JointSpec) Validate() error {
	if s.BodyA == NoBody {
		return fmt.Errorf("%w: joint needs a first body", ErrInvalidSpec)
	}
	if s.BodyA == s.BodyB {
		return fmt.Errorf("%w: joint connects body %d to itself", ErrInvalidSpec, s.BodyA)
	}
	return s.Limits.Validate()
}

// Engine is the rigid-body simulation the ragdoll drives. Calls with unknown
// ids are ignored; creation errors are reported.
type Engine interface {
	CreateBody(spec BodySpec) (BodyID, error)
	DestroyBody(id BodyID)

	Transform(id BodyID) math.Transform
	SetTransform(id BodyID, t math.Transform)
	LinearVelocity(id BodyID) math.Vec3
	SetLinearVelocity(id BodyID, v math.Vec3)
	SetAngularVelocity(id BodyID, v math.Vec3)
	SetGravity(id BodyID, g math.Vec3)
	SetKinematic(id BodyID, kinematic bool)
	IsKinematic(id BodyID) bool
	SetContactResponse(id BodyID, enabled bool)
	ApplyImpulse(id BodyID, impulse, offset math.Vec3)
	Activate(id BodyID)

	AddJoint(spec JointSpec) (JointID, error)
	RemoveJoint(id JointID)
	SetJointLimits(id JointID, limits JointLimits)

	Step(dt float32)
}
