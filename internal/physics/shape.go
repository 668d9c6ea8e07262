package physics

import (
	"fmt"

	"github.com/Faultbox/midgard-ragdoll/pkg/math"
)

// ShapeKind selects the collision primitive.
type ShapeKind string

// Supported collision primitives.
const (
	ShapeBox     ShapeKind = "box"
	ShapeCapsule ShapeKind = "capsule"
	ShapeSphere  ShapeKind = "sphere"
)

// Shape is an opaque collision-shape description. Box uses HalfExtents,
// sphere uses Radius, capsule uses Radius and Height (cylinder length, Y axis).
type Shape struct {
	Kind        ShapeKind `yaml:"kind"`
	HalfExtents math.Vec3 `yaml:"half_extents"`
	Radius      float32   `yaml:"radius"`
	Height      float32   `yaml:"height"`
}

// Box returns a box shape.
func Box(halfExtents math.Vec3) Shape {
	return Shape{Kind: ShapeBox, HalfExtents: halfExtents}
}

// Capsule returns a Y-aligned capsule shape.
func Capsule(radius, height float32) Shape {
	return Shape{Kind: ShapeCapsule, Radius: radius, Height: height}
}

// Sphere returns a sphere shape.
func Sphere(radius float32) Shape {
	return Shape{Kind: ShapeSphere, Radius: radius}
}

// Validate checks that the dimensions required by the kind are positive.
func (s Shape) Validate() error {
	switch s.Kind {
	case ShapeBox:
		he := s.HalfExtents
		if he.X <= 0 || he.Y <= 0 || he.Z <= 0 {
			return fmt.Errorf("%w: box half extents %v must be positive", ErrInvalidSpec, he)
		}
	case ShapeSphere:
		if s.Radius <= 0 {
			return fmt.Errorf("%w: sphere radius %v must be positive", ErrInvalidSpec, s.Radius)
		}
	case ShapeCapsule:
		if s.Radius <= 0 || s.Height < 0 {
			return fmt.Errorf("%w: capsule radius %v / height %v", ErrInvalidSpec, s.Radius, s.Height)
		}
	default:
		return fmt.Errorf("%w: unknown shape kind %q", ErrInvalidSpec, s.Kind)
	}
	return nil
}

// HalfSize returns the half extents of the shape's bounding box.
func (s Shape) HalfSize() math.Vec3 {
	switch s.Kind {
	case ShapeBox:
		return s.HalfExtents
	case ShapeCapsule:
		return math.Vec3{X: s.Radius, Y: s.Height/2 + s.Radius, Z: s.Radius}
	default:
		return math.Vec3{X: s.Radius, Y: s.Radius, Z: s.Radius}
	}
}
