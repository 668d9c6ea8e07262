package ragdoll

import (
	"errors"
	"testing"

	"github.com/Faultbox/midgard-ragdoll/internal/physics"
	"github.com/Faultbox/midgard-ragdoll/internal/skeleton"
	"github.com/Faultbox/midgard-ragdoll/pkg/math"
)

// midBlend leaves the left arm halfway through a blend back to the bind
// pose, and the right arm amputated.
func midBlend(t *testing.T, f *fixture) {
	t.Helper()
	c := f.control
	arm := f.bone(t, skeleton.ClavicleL)
	if err := c.SetDynamicSubtree(arm, math.Vec3{X: 3, Y: -2}, false); err != nil {
		t.Fatalf("SetDynamicSubtree: %v", err)
	}
	if err := c.AmputateSubtree(f.bone(t, skeleton.UlnaR), 1); err != nil {
		t.Fatalf("AmputateSubtree: %v", err)
	}
	for i := 0; i < 3; i++ {
		f.frame(t, 0.1)
	}
	if err := c.BindSubtree(arm, 1); err != nil {
		t.Fatalf("BindSubtree: %v", err)
	}
	f.frame(t, 0.25)
	f.frame(t, 0.25)
}

func TestSnapshotRestoreResumesBlend(t *testing.T) {
	a := newReadyFixture(t)
	midBlend(t, a)
	state, err := a.control.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	b := newReadyFixture(t)
	if err := b.control.Restore(state); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if !b.bone(t, skeleton.UlnaR).IsAmputated() || b.bone(t, skeleton.UlnaR).Joint() != 0 {
		t.Error("amputation should survive restore")
	}

	for i := 0; i < 3; i++ {
		a.frame(t, 0.25)
		b.frame(t, 0.25)
	}

	for i, la := range a.control.Links() {
		lb := b.control.Links()[i]
		if la.KinematicWeight() != lb.KinematicWeight() || la.BlendInterval() != lb.BlendInterval() {
			t.Errorf("%s blend %v/%v, restored %v/%v", la.Name(),
				la.KinematicWeight(), la.BlendInterval(), lb.KinematicWeight(), lb.BlendInterval())
		}
		if !la.KPTransform().ApproxEqual(lb.KPTransform(), eps) {
			t.Errorf("%s kp %+v, restored %+v", la.Name(), la.KPTransform(), lb.KPTransform())
		}
	}
	skelA, skelB := a.model.Skeleton, b.model.Skeleton
	for i := 0; i < skelA.Len(); i++ {
		if !skelA.Local(i).ApproxEqual(skelB.Local(i), eps) {
			t.Errorf("bone %s %+v, restored %+v", skelA.Name(i), skelA.Local(i), skelB.Local(i))
		}
	}
}

func TestSnapshotFields(t *testing.T) {
	f := newReadyFixture(t)
	midBlend(t, f)
	state, err := f.control.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if state.Model != "hero" || !state.Ready || len(state.Links) != 12 {
		t.Fatalf("state header = %q ready=%v links=%d", state.Model, state.Ready, len(state.Links))
	}
	for _, ls := range state.Links {
		switch ls.Name {
		case skeleton.ClavicleL:
			if ls.KinematicWeight != 0.5 || ls.BlendInterval != 1 || ls.BlendElapsed != 0.5 || ls.EndPose == nil {
				t.Errorf("clavicle state = %+v", ls)
			}
		case skeleton.UlnaR:
			if !ls.Amputated || !ls.Severed || ls.Joint != 0 || !ls.Fading {
				t.Errorf("ulna.R state = %+v", ls)
			}
		}
	}
}

func TestRestoreRejoinsSeveredLinks(t *testing.T) {
	f := newReadyFixture(t)
	c := f.control
	state, err := c.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	joints := len(f.engine.Joints)

	ulna := f.bone(t, skeleton.UlnaL)
	sword := c.FindAttachmentLink(skeleton.HandleR)
	if err := c.AmputateSubtree(ulna, 1); err != nil {
		t.Fatalf("AmputateSubtree: %v", err)
	}
	if err := c.DropAttachments(); err != nil {
		t.Fatalf("DropAttachments: %v", err)
	}
	f.frame(t, 0.1)
	if got := len(f.engine.Joints); got != joints-2 {
		t.Fatalf("joints after severing = %d, want %d", got, joints-2)
	}

	if err := c.Restore(state); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if ulna.IsAmputated() || ulna.Joint() == physics.NoJoint {
		t.Errorf("ulna amputated=%v joint=%d after restore", ulna.IsAmputated(), ulna.Joint())
	}
	if !f.engine.Connected(ulna.Parent().Body(), ulna.Body()) {
		t.Errorf("ulna should be joined to %s again", ulna.Parent().Name())
	}
	if sword.IsReleased() || !f.engine.Connected(sword.Parent().Body(), sword.Body()) {
		t.Error("sword should be held again")
	}
	if got := len(f.engine.Joints); got != joints {
		t.Errorf("joints after restore = %d, want %d", got, joints)
	}

	// Restoring over a whole tree adds nothing.
	if err := c.Restore(state); err != nil {
		t.Fatalf("second Restore: %v", err)
	}
	if got := len(f.engine.Joints); got != joints {
		t.Errorf("joints after second restore = %d, want %d", got, joints)
	}
	f.frame(t, 0.1)
	if !ulna.IsKinematic() || ulna.KinematicWeight() != 1 {
		t.Errorf("ulna weight = %v, want 1", ulna.KinematicWeight())
	}
}

func TestRestoreMismatch(t *testing.T) {
	f := newReadyFixture(t)
	state, err := f.control.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	short := state
	short.Links = state.Links[:3]
	if err := f.control.Restore(short); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("short snapshot error = %v", err)
	}

	renamed := state
	renamed.Links = append([]LinkState(nil), state.Links...)
	renamed.Links[2].Name = "tail"
	if err := f.control.Restore(renamed); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("renamed snapshot error = %v", err)
	}
}

func TestRestoreDynamicNeedsReady(t *testing.T) {
	a := newReadyFixture(t)
	if err := a.control.SetRagdollMode(); err != nil {
		t.Fatalf("SetRagdollMode: %v", err)
	}
	state, err := a.control.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	b := newFixture(t)
	if err := b.control.Restore(state); !errors.Is(err, ErrNotReady) {
		t.Errorf("error = %v, want ErrNotReady", err)
	}
	if !b.control.Torso().IsKinematic() {
		t.Error("refused restore must not change links")
	}
}

func TestSnapshotDetached(t *testing.T) {
	c, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.Snapshot(); !errors.Is(err, ErrNotAttached) {
		t.Errorf("error = %v, want ErrNotAttached", err)
	}
}
