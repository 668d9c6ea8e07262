package anim

import (
	"github.com/Faultbox/midgard-ragdoll/internal/skeleton"
	"github.com/Faultbox/midgard-ragdoll/pkg/math"
)

// Player advances a clip and poses a skeleton with it.
type Player struct {
	clip  *Clip
	time  float32
	Speed float32
	Loop  bool

	bones []int // skeleton index per track, -1 when the bone is absent
	skel  *skeleton.Skeleton
}

// NewPlayer binds a clip to a skeleton. Tracks naming unknown bones are ignored.
func NewPlayer(clip *Clip, skel *skeleton.Skeleton) *Player {
	p := &Player{clip: clip, Speed: 1, Loop: true, skel: skel}
	p.bones = make([]int, len(clip.Tracks))
	for i, tr := range clip.Tracks {
		idx, ok := skel.Index(tr.Bone)
		if !ok {
			idx = -1
		}
		p.bones[i] = idx
	}
	return p
}

// Clip returns the clip being played.
func (p *Player) Clip() *Clip {
	return p.clip
}

// Time returns the current playback position in seconds.
func (p *Player) Time() float32 {
	return p.time
}

// Update advances playback by tpf seconds and writes the sampled pose.
func (p *Player) Update(tpf float32) {
	p.time += tpf * p.Speed
	if p.clip.Length > 0 {
		if p.Loop {
			for p.time >= p.clip.Length {
				p.time -= p.clip.Length
			}
		} else if p.time > p.clip.Length {
			p.time = p.clip.Length
		}
	}
	p.Apply()
}

// Apply writes the pose at the current time into the skeleton. Channels
// without keys fall back to the bone's bind transform.
func (p *Player) Apply() {
	for i := range p.clip.Tracks {
		idx := p.bones[i]
		if idx < 0 {
			continue
		}
		tr := &p.clip.Tracks[i]
		bind := p.skel.Bind(idx)
		rot := bind.Rotation
		if len(tr.RotKeys) > 0 {
			rot = InterpolateRotKeys(tr.RotKeys, p.time)
		}
		p.skel.SetLocal(idx, math.Transform{
			Translation: InterpolateVecKeys(tr.PosKeys, p.time, bind.Translation),
			Rotation:    rot,
			Scale:       InterpolateVecKeys(tr.ScaleKeys, p.time, bind.Scale),
		})
	}
}
