package anim

import (
	"github.com/Faultbox/midgard-ragdoll/internal/skeleton"
	"github.com/Faultbox/midgard-ragdoll/pkg/math"
)

// Wave returns a looping clip that swings both arms about the Z axis.
func Wave(length float32) *Clip {
	z := math.Vec3{Z: 1}
	swing := func(bone string, amp float32) Track {
		return Track{
			Bone: bone,
			RotKeys: []RotKey{
				{Time: 0, Rotation: math.QuatIdentity()},
				{Time: length / 4, Rotation: math.QuatFromAxisAngle(z, amp)},
				{Time: length * 3 / 4, Rotation: math.QuatFromAxisAngle(z, -amp)},
				{Time: length, Rotation: math.QuatIdentity()},
			},
		}
	}
	return &Clip{
		Name:   "wave",
		Length: length,
		Tracks: []Track{
			swing(skeleton.HumerusL, 0.6),
			swing(skeleton.UlnaL, 0.4),
			swing(skeleton.HumerusR, -0.6),
			swing(skeleton.UlnaR, -0.4),
		},
	}
}
