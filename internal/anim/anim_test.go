package anim

import (
	"math"
	"testing"

	"github.com/Faultbox/midgard-ragdoll/internal/skeleton"
	gm "github.com/Faultbox/midgard-ragdoll/pkg/math"
)

func TestInterpolateRotKeys(t *testing.T) {
	z := gm.Vec3{Z: 1}
	keys := []RotKey{
		{Time: 0, Rotation: gm.QuatIdentity()},
		{Time: 1, Rotation: gm.QuatFromAxisAngle(z, float32(math.Pi/2))},
	}

	tests := []struct {
		name  string
		time  float32
		angle float32
	}{
		{"before first", -1, 0},
		{"start", 0, 0},
		{"middle", 0.5, float32(math.Pi / 4)},
		{"past last", 2, float32(math.Pi / 2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InterpolateRotKeys(keys, tt.time).AngleZ()
			if math.Abs(float64(got-tt.angle)) > 0.001 {
				t.Errorf("angle = %v, want %v", got, tt.angle)
			}
		})
	}
}

func TestInterpolateVecKeysDefault(t *testing.T) {
	def := gm.Vec3{X: 7}
	if got := InterpolateVecKeys(nil, 3, def); got != def {
		t.Errorf("empty keys = %v, want default %v", got, def)
	}
	keys := []VecKey{{Time: 0, Value: gm.Vec3{}}, {Time: 2, Value: gm.Vec3{Y: 4}}}
	if got := InterpolateVecKeys(keys, 1, def); !got.ApproxEqual(gm.Vec3{Y: 2}, 0.0001) {
		t.Errorf("midpoint = %v, want (0,2,0)", got)
	}
}

func TestHasAnimation(t *testing.T) {
	if HasAnimation(&Clip{Length: 1, Tracks: []Track{{Bone: "a", RotKeys: []RotKey{{}}}}}) {
		t.Error("single-key clip should not count as animation")
	}
	if !HasAnimation(Wave(2)) {
		t.Error("wave clip should count as animation")
	}
}

func TestPlayerLoopsAndPoses(t *testing.T) {
	m := skeleton.NewHumanoid("hero")
	p := NewPlayer(Wave(2), m.Skeleton)

	p.Update(0.5) // quarter of the clip: humerus.L at +0.6 rad
	humerus, _ := m.Skeleton.Index(skeleton.HumerusL)
	if got := m.Skeleton.Local(humerus).Rotation.AngleZ(); math.Abs(float64(got-0.6)) > 0.001 {
		t.Errorf("humerus.L angle = %v, want 0.6", got)
	}
	if got := m.Skeleton.Local(humerus).Translation; got != m.Skeleton.Bind(humerus).Translation {
		t.Errorf("humerus.L translation = %v, want bind %v", got, m.Skeleton.Bind(humerus).Translation)
	}

	p.Update(2)
	if got := p.Time(); math.Abs(float64(got-0.5)) > 0.0001 {
		t.Errorf("looped time = %v, want 0.5", got)
	}
}
