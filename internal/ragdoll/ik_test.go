package ragdoll

import (
	"errors"
	"testing"

	"github.com/Faultbox/midgard-ragdoll/internal/skeleton"
	"github.com/Faultbox/midgard-ragdoll/pkg/math"
)

func TestTargetControllerPullsDynamicLink(t *testing.T) {
	f := newReadyFixture(t)
	c := f.control
	shin := f.bone(t, skeleton.ShinL)
	start := shin.KPTransform().Translation
	goal := start.Add(math.Vec3{Y: 1})

	ctrl := NewTargetController(shin, goal, 50)
	if err := shin.AddIKController(ctrl); err != nil {
		t.Fatalf("AddIKController: %v", err)
	}
	if err := shin.AddIKController(ctrl); err != nil || len(shin.IKControllers()) != 1 {
		t.Errorf("adding twice should keep one controller, have %d", len(shin.IKControllers()))
	}

	// Kinematic links ignore their controllers.
	Step(f.engine, 0.1, c)
	if n := f.engine.Bodies[shin.Body()].Impulses; n != 0 {
		t.Errorf("kinematic link received %d impulses", n)
	}

	if err := c.SetDynamicSubtree(shin, math.Vec3{}, false); err != nil {
		t.Fatalf("SetDynamicSubtree: %v", err)
	}
	for i := 0; i < 5; i++ {
		f.frame(t, 0.1)
	}
	body := f.engine.Bodies[shin.Body()]
	if body.Impulses != 5 {
		t.Errorf("impulses = %d, want 5", body.Impulses)
	}
	if body.Transform.Translation.Y <= start.Y {
		t.Errorf("shin should rise toward the goal, y = %v", body.Transform.Translation.Y)
	}

	c.DisableAllIKControllers()
	if ctrl.Enabled() {
		t.Error("controller should be disabled")
	}
	f.frame(t, 0.1)
	if body.Impulses != 5 {
		t.Error("disabled controller should not act")
	}

	if !shin.RemoveIKController(ctrl) || shin.RemoveIKController(ctrl) {
		t.Error("RemoveIKController should succeed exactly once")
	}
}

func TestAddNilIKController(t *testing.T) {
	f := newFixture(t)
	if err := f.control.Torso().AddIKController(nil); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("error = %v, want ErrInvalidArgument", err)
	}
}
