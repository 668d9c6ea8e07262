package planar

import (
	"testing"

	"github.com/Faultbox/midgard-ragdoll/internal/physics"
	"github.com/Faultbox/midgard-ragdoll/pkg/math"
)

func newTestSpace() *Space {
	return New(Config{Gravity: math.Vec3{Y: -9.8}, Iterations: 10, Friction: 0.5})
}

func TestTransformRoundTrip(t *testing.T) {
	s := newTestSpace()
	rot := math.QuatFromAxisAngle(math.Vec3{Z: 1}, 0.7).Mul(math.QuatFromAxisAngle(math.Vec3{X: 1}, 0.3))
	want := math.NewTransform(math.Vec3{X: 1, Y: 2, Z: 0.25}, rot)

	id, err := s.CreateBody(physics.BodySpec{Name: "b", Shape: physics.Sphere(0.1), Mass: 1, Transform: want, Kinematic: true})
	if err != nil {
		t.Fatalf("CreateBody: %v", err)
	}
	if got := s.Transform(id); !got.ApproxEqual(want, 0.0001) {
		t.Errorf("Transform() = %+v, want %+v", got, want)
	}
}

func TestDynamicBodyFalls(t *testing.T) {
	s := newTestSpace()
	start := math.NewTransform(math.Vec3{Y: 5}, math.QuatIdentity())
	dyn, _ := s.CreateBody(physics.BodySpec{Name: "dyn", Shape: physics.Box(math.Vec3{X: 0.1, Y: 0.1, Z: 0.1}), Mass: 1, Transform: start})
	kin, _ := s.CreateBody(physics.BodySpec{Name: "kin", Shape: physics.Sphere(0.1), Mass: 1, Transform: start, Kinematic: true})

	for i := 0; i < 30; i++ {
		s.Step(1.0 / 60)
	}

	if y := s.Transform(dyn).Translation.Y; y >= 5 {
		t.Errorf("dynamic body y = %v, want < 5", y)
	}
	if y := s.Transform(kin).Translation.Y; y != 5 {
		t.Errorf("kinematic body y = %v, want 5", y)
	}
}

func TestPerBodyGravity(t *testing.T) {
	s := newTestSpace()
	id, _ := s.CreateBody(physics.BodySpec{Name: "b", Shape: physics.Sphere(0.1), Mass: 1, Transform: math.TransformIdentity()})
	s.SetGravity(id, math.Vec3{Y: 20})
	for i := 0; i < 10; i++ {
		s.Step(1.0 / 60)
	}
	if v := s.LinearVelocity(id); v.Y <= 0 {
		t.Errorf("velocity = %v, want upward", v)
	}
}

func TestKinematicToggleKeepsMass(t *testing.T) {
	s := newTestSpace()
	id, _ := s.CreateBody(physics.BodySpec{Name: "b", Shape: physics.Capsule(0.05, 0.3), Mass: 2, Transform: math.TransformIdentity(), Kinematic: true})
	if !s.IsKinematic(id) {
		t.Fatal("body should start kinematic")
	}
	s.SetKinematic(id, false)
	s.ApplyImpulse(id, math.Vec3{X: 4}, math.Vec3{})
	if v := s.LinearVelocity(id); v.X < 1.99 || v.X > 2.01 {
		t.Errorf("velocity after impulse 4 on mass 2 = %v, want 2", v.X)
	}
}

func TestJointsAndDestroy(t *testing.T) {
	s := newTestSpace()
	a, _ := s.CreateBody(physics.BodySpec{Name: "a", Shape: physics.Sphere(0.1), Mass: 1, Transform: math.TransformIdentity()})
	b, _ := s.CreateBody(physics.BodySpec{Name: "b", Shape: physics.Sphere(0.1), Mass: 1, Transform: math.NewTransform(math.Vec3{X: 0.3}, math.QuatIdentity())})

	limits := physics.BallLimits(physics.AxisLimits{}, physics.AxisLimits{}, physics.AxisLimits{Lower: -0.5, Upper: 0.5})
	j, err := s.AddJoint(physics.JointSpec{BodyA: a, BodyB: b, PivotA: math.Vec3{X: 0.15}, PivotB: math.Vec3{X: -0.15}, Limits: limits})
	if err != nil {
		t.Fatalf("AddJoint: %v", err)
	}
	if _, err := s.AddJoint(physics.JointSpec{BodyA: a, BodyB: 99}); err == nil {
		t.Error("joint to unknown body should fail")
	}

	s.SetJointLimits(j, limits.WithAngularLocked())
	s.Step(1.0 / 60)

	s.DestroyBody(b)
	if s.JointCount() != 0 {
		t.Errorf("joints after destroying endpoint = %d, want 0", s.JointCount())
	}
	if s.BodyCount() != 1 {
		t.Errorf("bodies = %d, want 1", s.BodyCount())
	}
}

func TestGroundStopsFall(t *testing.T) {
	s := newTestSpace()
	s.AddGround(0, 10)
	id, _ := s.CreateBody(physics.BodySpec{Name: "ball", Shape: physics.Sphere(0.2), Mass: 1, Transform: math.NewTransform(math.Vec3{Y: 1}, math.QuatIdentity())})
	for i := 0; i < 240; i++ {
		s.Step(1.0 / 120)
	}
	if y := s.Transform(id).Translation.Y; y < 0.1 {
		t.Errorf("ball y = %v, want resting above ground", y)
	}
}
