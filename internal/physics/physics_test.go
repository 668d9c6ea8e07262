package physics

import (
	"errors"
	"testing"

	"github.com/Faultbox/midgard-ragdoll/pkg/math"
)

func TestShapeValidate(t *testing.T) {
	tests := []struct {
		name  string
		shape Shape
		ok    bool
	}{
		{"box", Box(math.Vec3{X: 0.1, Y: 0.2, Z: 0.1}), true},
		{"flat box", Box(math.Vec3{X: 0.1, Y: 0, Z: 0.1}), false},
		{"sphere", Sphere(0.2), true},
		{"zero sphere", Sphere(0), false},
		{"capsule", Capsule(0.05, 0.3), true},
		{"unknown", Shape{Kind: "torus", Radius: 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.shape.Validate()
			if tt.ok && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidSpec) {
				t.Errorf("Validate() = %v, want ErrInvalidSpec", err)
			}
		})
	}
}

func TestBodySpecValidate(t *testing.T) {
	spec := BodySpec{Name: "torso", Shape: Sphere(0.2), Mass: 0}
	if err := spec.Validate(); !errors.Is(err, ErrInvalidSpec) {
		t.Errorf("zero mass: got %v, want ErrInvalidSpec", err)
	}
	spec.Mass = 5
	if err := spec.Validate(); err != nil {
		t.Errorf("valid spec: got %v", err)
	}
}

func TestJointSpecValidate(t *testing.T) {
	if err := (JointSpec{BodyA: 1, BodyB: 1}).Validate(); err == nil {
		t.Error("self joint should be rejected")
	}
	inverted := BallLimits(AxisLimits{Lower: 1, Upper: -1}, AxisLimits{}, AxisLimits{})
	if err := (JointSpec{BodyA: 1, BodyB: 2, Limits: inverted}).Validate(); err == nil {
		t.Error("inverted limits should be rejected")
	}
	if err := (JointSpec{BodyA: 1, BodyB: NoBody}).Validate(); err != nil {
		t.Errorf("world joint: got %v", err)
	}
}

func TestWithAngularLocked(t *testing.T) {
	l := BallLimits(AxisLimits{-1, 1}, AxisLimits{-0.5, 0.5}, AxisLimits{0, 2})
	locked := l.WithAngularLocked()
	for i, a := range locked.Angular {
		if !a.Locked() {
			t.Errorf("axis %d not locked: %+v", i, a)
		}
	}
	if l.Angular[0].Locked() {
		t.Error("WithAngularLocked modified the receiver")
	}
}
