// Package anim provides keyframed bone animation: clips of per-bone tracks
// and a player that writes the sampled pose into a skeleton every frame.
package anim

import "github.com/Faultbox/midgard-ragdoll/pkg/math"

// RotKey is a rotation keyframe. Time is in seconds.
type RotKey struct {
	Time     float32
	Rotation math.Quat
}

// VecKey is a translation or scale keyframe. Time is in seconds.
type VecKey struct {
	Time  float32
	Value math.Vec3
}

// Track animates one bone. Empty key lists leave that channel at the bind pose.
type Track struct {
	Bone      string
	RotKeys   []RotKey
	PosKeys   []VecKey
	ScaleKeys []VecKey
}

// Clip is a named set of tracks.
type Clip struct {
	Name   string
	Length float32
	Tracks []Track
}

// surrounding finds the keyframe pair around t in a time-sorted key list.
// prev == next means t is at or past the last key.
func surrounding(n int, timeAt func(int) float32, t float32) (prev, next int, frac float32) {
	for i := 0; i < n; i++ {
		if timeAt(i) > t {
			next = i
			break
		}
		prev = i
		next = i
	}
	if prev == next {
		return prev, next, 0
	}
	t0, t1 := timeAt(prev), timeAt(next)
	if t1 != t0 {
		frac = (t - t0) / (t1 - t0)
	}
	return prev, next, frac
}

// InterpolateRotKeys samples rotation keyframes at time t.
func InterpolateRotKeys(keys []RotKey, t float32) math.Quat {
	if len(keys) == 0 {
		return math.QuatIdentity()
	}
	if len(keys) == 1 || t <= keys[0].Time {
		return keys[0].Rotation
	}
	prev, next, frac := surrounding(len(keys), func(i int) float32 { return keys[i].Time }, t)
	if prev == next {
		return keys[prev].Rotation
	}
	return keys[prev].Rotation.Slerp(keys[next].Rotation, frac)
}

// InterpolateVecKeys samples translation or scale keyframes at time t.
// With no keys it returns def.
func InterpolateVecKeys(keys []VecKey, t float32, def math.Vec3) math.Vec3 {
	if len(keys) == 0 {
		return def
	}
	if len(keys) == 1 || t <= keys[0].Time {
		return keys[0].Value
	}
	prev, next, frac := surrounding(len(keys), func(i int) float32 { return keys[i].Time }, t)
	if prev == next {
		return keys[prev].Value
	}
	return keys[prev].Value.Lerp(keys[next].Value, frac)
}

// HasAnimation reports whether the clip actually moves anything.
// Tracks with a single key per channel are static poses, not animations.
func HasAnimation(c *Clip) bool {
	if c == nil || c.Length <= 0 {
		return false
	}
	for i := range c.Tracks {
		tr := &c.Tracks[i]
		if len(tr.RotKeys) > 1 || len(tr.PosKeys) > 1 || len(tr.ScaleKeys) > 1 {
			return true
		}
	}
	return false
}
