package store

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/hashicorp/go-msgpack/v2/codec"

	"github.com/Faultbox/midgard-ragdoll/internal/physics/physicstest"
	"github.com/Faultbox/midgard-ragdoll/internal/ragdoll"
	"github.com/Faultbox/midgard-ragdoll/internal/skeleton"
	"github.com/Faultbox/midgard-ragdoll/pkg/math"
)

// blendingState returns a snapshot of a ragdoll halfway through a blend.
func blendingState(t *testing.T) ragdoll.State {
	t.Helper()
	c, err := ragdoll.New(ragdoll.DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	engine := physicstest.New()
	props := map[string]*skeleton.Model{skeleton.HandleR: skeleton.NewProp("sword")}
	if err := c.Attach(engine, skeleton.NewHumanoid("hero"), props); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if err := c.Update(0.25); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := c.SetRagdollMode(); err != nil {
		t.Fatalf("SetRagdollMode: %v", err)
	}
	ragdoll.Step(engine, 0.25, c)
	if err := c.Update(0.25); err != nil {
		t.Fatalf("Update: %v", err)
	}
	end := math.NewTransform(math.Vec3{X: 1}, math.QuatIdentity())
	if err := c.BlendToKinematicMode(1, &end); err != nil {
		t.Fatalf("BlendToKinematicMode: %v", err)
	}
	if err := c.Update(0.25); err != nil {
		t.Fatalf("Update: %v", err)
	}
	s, err := c.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	return s
}

func TestEncodeDecode(t *testing.T) {
	want := blendingState(t)
	data, err := Encode(want)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if got.Model != want.Model || got.Ready != want.Ready || len(got.Links) != len(want.Links) {
		t.Fatalf("header = %q/%v/%d, want %q/%v/%d",
			got.Model, got.Ready, len(got.Links), want.Model, want.Ready, len(want.Links))
	}
	torso := got.Links[0]
	if torso.EndRoot == nil || *torso.EndRoot != *want.Links[0].EndRoot {
		t.Errorf("torso end root = %v, want %v", torso.EndRoot, want.Links[0].EndRoot)
	}
	for i := range want.Links {
		w, g := want.Links[i], got.Links[i]
		if g.Name != w.Name || g.KinematicWeight != w.KinematicWeight || g.BlendInterval != w.BlendInterval {
			t.Errorf("link %d = %s %v/%v, want %s %v/%v", i,
				g.Name, g.KinematicWeight, g.BlendInterval, w.Name, w.KinematicWeight, w.BlendInterval)
		}
		if g.KPTransform != w.KPTransform || g.BodyTransform != w.BodyTransform || g.LocalOffset != w.LocalOffset {
			t.Errorf("link %s transforms differ after decode", w.Name)
		}
		if len(w.StartPose) > 0 && !reflect.DeepEqual(g.StartPose, w.StartPose) {
			t.Errorf("link %s start pose differs after decode", w.Name)
		}
	}
}

func TestDecodeRejectsOtherVersion(t *testing.T) {
	var data []byte
	enc := codec.NewEncoderBytes(&data, &handle)
	if err := enc.Encode(envelope{Version: FormatVersion + 1}); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, err := Decode(data); !errors.Is(err, ErrVersion) {
		t.Errorf("error = %v, want ErrVersion", err)
	}
	if _, err := Decode(nil); err == nil {
		t.Error("empty input should not decode")
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(NewMemory())
	if _, err := st.Load("slot"); !errors.Is(err, ErrNotFound) {
		t.Errorf("empty load error = %v, want ErrNotFound", err)
	}

	want := blendingState(t)
	if err := st.Save("slot", want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := st.Load("slot")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Links) != len(want.Links) || got.Links[3].Name != want.Links[3].Name {
		t.Errorf("loaded %d links, want %d", len(got.Links), len(want.Links))
	}
}

func TestFileRoundTripRestores(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hero.ragdoll")
	want := blendingState(t)
	if err := WriteFile(path, want); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	// The decoded state restores into a fresh, ready ragdoll.
	c, err := ragdoll.New(ragdoll.DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	props := map[string]*skeleton.Model{skeleton.HandleR: skeleton.NewProp("sword")}
	if err := c.Attach(physicstest.New(), skeleton.NewHumanoid("hero"), props); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if err := c.Update(0.25); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := c.Restore(got); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if w := c.Torso().KinematicWeight(); w != 0.25 {
		t.Errorf("restored torso weight = %v, want 0.25", w)
	}
}
