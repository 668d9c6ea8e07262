package skeleton

import (
	"errors"
	"testing"

	"github.com/Faultbox/midgard-ragdoll/pkg/math"
)

func TestNew_ParentsFirst(t *testing.T) {
	// Children listed before their parents still come out parent-first.
	defs := []BoneDef{
		{Name: "c", Parent: "b"},
		{Name: "b", Parent: "a"},
		{Name: "a"},
	}
	s, err := New(defs)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for i := 0; i < s.Len(); i++ {
		if p := s.Parent(i); p != NoBone && p >= i {
			t.Errorf("bone %s (index %d) has parent index %d, want < %d", s.Name(i), i, p, i)
		}
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name string
		defs []BoneDef
	}{
		{"empty", nil},
		{"duplicate", []BoneDef{{Name: "a"}, {Name: "a"}}},
		{"unknown parent", []BoneDef{{Name: "a", Parent: "ghost"}}},
		{"cycle", []BoneDef{{Name: "a", Parent: "b"}, {Name: "b", Parent: "a"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.defs)
			if !errors.Is(err, ErrInvalidSkeleton) {
				t.Errorf("New() error = %v, want ErrInvalidSkeleton", err)
			}
		})
	}
}

func TestModelSpaceRoundTrip(t *testing.T) {
	m := NewHumanoid("hero")
	ulna, _ := m.Skeleton.Index(UlnaL)

	ms := m.Skeleton.ModelSpace(ulna)
	want := math.Vec3{X: 0.08 + 0.15 + 0.28, Y: 1.0 + 0.15 + 0.25 + 0.2}
	if !ms.Translation.ApproxEqual(want, 0.0001) {
		t.Errorf("ulna model-space translation = %v, want %v", ms.Translation, want)
	}

	moved := ms
	moved.Translation = moved.Translation.Add(math.Vec3{Y: -0.3})
	m.Skeleton.SetModelSpace(ulna, moved)
	if got := m.Skeleton.ModelSpace(ulna); !got.ApproxEqual(moved, 0.0001) {
		t.Errorf("after SetModelSpace got %+v, want %+v", got, moved)
	}
}

func TestBoneWorldFollowsRoot(t *testing.T) {
	m := NewHumanoid("hero")
	head, _ := m.Skeleton.Index(Head)
	before := m.BoneWorld(head)

	m.Root.Translation = math.Vec3{X: 5}
	after := m.BoneWorld(head)
	if !after.Translation.ApproxEqual(before.Translation.Add(math.Vec3{X: 5}), 0.0001) {
		t.Errorf("head world = %v, want shifted by +5 X", after.Translation)
	}

	m.SetBoneWorld(head, before)
	if got := m.BoneWorld(head); !got.ApproxEqual(before, 0.0001) {
		t.Errorf("SetBoneWorld: got %+v, want %+v", got, before)
	}
}

func TestDescendants(t *testing.T) {
	m := NewHumanoid("hero")
	clav, _ := m.Skeleton.Index(ClavicleL)
	got := m.Skeleton.Descendants(clav)
	if len(got) != 4 {
		t.Fatalf("clavicle.L descendants = %d, want 4", len(got))
	}
	if m.Skeleton.Name(got[0]) != HumerusL {
		t.Errorf("first descendant = %s, want %s", m.Skeleton.Name(got[0]), HumerusL)
	}
}
