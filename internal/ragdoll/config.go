package ragdoll

import (
	"fmt"

	"github.com/Faultbox/midgard-ragdoll/internal/physics"
	"github.com/Faultbox/midgard-ragdoll/internal/skeleton"
	"github.com/Faultbox/midgard-ragdoll/pkg/math"
)

// Config declares which bones get rigid bodies and how they are shaped and
// jointed. It is plain data so it can live in the application's YAML file.
type Config struct {
	Gravity     math.Vec3          `yaml:"gravity"`
	Easing      string             `yaml:"easing"` // See EasingNames; empty means linear
	Torso       TorsoConfig        `yaml:"torso"`
	Links       []LinkConfig       `yaml:"links"`
	Attachments []AttachmentConfig `yaml:"attachments"`
}

// BodyConfig describes the rigid body of one link.
type BodyConfig struct {
	Mass   float32       `yaml:"mass"`
	Shape  physics.Shape `yaml:"shape"`
	Offset math.Vec3     `yaml:"offset"` // Body center in the main bone's frame
}

// TorsoConfig describes the root link.
type TorsoConfig struct {
	MainBone   string `yaml:"main_bone"`
	BodyConfig `yaml:",inline"`
}

// LinkConfig describes one linked bone.
type LinkConfig struct {
	Bone          string        `yaml:"bone"`
	BodyConfig    `yaml:",inline"`
	RangeOfMotion RangeOfMotion `yaml:"range_of_motion"`
}

// AttachmentConfig describes a sub-model rigidly held by a bone.
type AttachmentConfig struct {
	Bone       string         `yaml:"bone"`
	Placement  math.Transform `yaml:"placement"` // Sub-model root relative to the bone
	BodyConfig `yaml:",inline"`
}

// RangeOfMotion bounds a joint's rotation about each axis, in radians. A
// zero range locks the axis.
type RangeOfMotion struct {
	X physics.AxisLimits `yaml:"x"`
	Y physics.AxisLimits `yaml:"y"`
	Z physics.AxisLimits `yaml:"z"`
}

// Symmetric returns a range of ±x, ±y and ±z radians.
func Symmetric(x, y, z float32) RangeOfMotion {
	return RangeOfMotion{
		X: physics.AxisLimits{Lower: -x, Upper: x},
		Y: physics.AxisLimits{Lower: -y, Upper: y},
		Z: physics.AxisLimits{Lower: -z, Upper: z},
	}
}

// Limits converts the range to joint limits with locked translation.
func (r RangeOfMotion) Limits() physics.JointLimits {
	return physics.BallLimits(r.X, r.Y, r.Z)
}

// Validate checks everything that can be checked without a skeleton.
func (c Config) Validate() error {
	if _, err := lookupEasing(c.Easing); err != nil {
		return err
	}
	if c.Torso.MainBone == "" {
		return fmt.Errorf("%w: torso needs a main bone", ErrInvalidConfig)
	}
	if err := c.Torso.validate("torso"); err != nil {
		return err
	}

	seen := map[string]bool{c.Torso.MainBone: true}
	for _, l := range c.Links {
		if l.Bone == "" {
			return fmt.Errorf("%w: link with empty bone name", ErrInvalidConfig)
		}
		if seen[l.Bone] {
			return fmt.Errorf("%w: bone %q linked twice", ErrInvalidConfig, l.Bone)
		}
		seen[l.Bone] = true
		if err := l.validate(l.Bone); err != nil {
			return err
		}
		if err := l.RangeOfMotion.Limits().Validate(); err != nil {
			return fmt.Errorf("%w: link %q: %v", ErrInvalidConfig, l.Bone, err)
		}
	}

	held := make(map[string]bool, len(c.Attachments))
	for _, a := range c.Attachments {
		if a.Bone == "" {
			return fmt.Errorf("%w: attachment with empty bone name", ErrInvalidConfig)
		}
		if held[a.Bone] {
			return fmt.Errorf("%w: bone %q holds two attachments", ErrInvalidConfig, a.Bone)
		}
		held[a.Bone] = true
		if err := a.validate("attachment " + a.Bone); err != nil {
			return err
		}
	}
	return nil
}

func (b BodyConfig) validate(name string) error {
	if b.Mass <= 0 {
		return fmt.Errorf("%w: %s mass %v must be positive", ErrInvalidConfig, name, b.Mass)
	}
	if err := b.Shape.Validate(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, name, err)
	}
	return nil
}

// DefaultConfig returns a ragdoll for skeleton.NewHumanoid holding a sword
// in its right hand.
func DefaultConfig() Config {
	arm := func(x float32) physics.Shape {
		return physics.Box(math.Vec3{X: x, Y: 0.05, Z: 0.05})
	}
	leg := physics.Capsule(0.07, 0.3)
	elbowL := RangeOfMotion{Z: physics.AxisLimits{Lower: 0, Upper: 2.5}}
	elbowR := RangeOfMotion{Z: physics.AxisLimits{Lower: -2.5, Upper: 0}}
	hip := RangeOfMotion{
		X: physics.AxisLimits{Lower: -1.2, Upper: 0.6},
		Y: physics.AxisLimits{Lower: -0.3, Upper: 0.3},
		Z: physics.AxisLimits{Lower: -0.5, Upper: 0.5},
	}
	knee := RangeOfMotion{X: physics.AxisLimits{Lower: 0, Upper: 2.4}, Z: physics.AxisLimits{Lower: -0.1, Upper: 0.1}}

	return Config{
		Gravity: math.Vec3{Y: -9.8},
		Easing:  "linear",
		Torso: TorsoConfig{
			MainBone: skeleton.Pelvis,
			BodyConfig: BodyConfig{
				Mass:   10,
				Shape:  physics.Box(math.Vec3{X: 0.15, Y: 0.1, Z: 0.1}),
				Offset: math.Vec3{Y: 0.05},
			},
		},
		Links: []LinkConfig{
			{Bone: skeleton.Spine, BodyConfig: BodyConfig{Mass: 15, Shape: physics.Box(math.Vec3{X: 0.15, Y: 0.3, Z: 0.1}), Offset: math.Vec3{Y: 0.3}}, RangeOfMotion: Symmetric(0.3, 0.3, 0.4)},
			{Bone: skeleton.Head, BodyConfig: BodyConfig{Mass: 4, Shape: physics.Sphere(0.12), Offset: math.Vec3{Y: 0.12}}, RangeOfMotion: Symmetric(0.5, 0.7, 0.5)},
			{Bone: skeleton.ClavicleL, BodyConfig: BodyConfig{Mass: 3, Shape: arm(0.2), Offset: math.Vec3{X: 0.2}}, RangeOfMotion: Symmetric(1, 1, 1.5)},
			{Bone: skeleton.UlnaL, BodyConfig: BodyConfig{Mass: 2, Shape: arm(0.18), Offset: math.Vec3{X: 0.17}}, RangeOfMotion: elbowL},
			{Bone: skeleton.ClavicleR, BodyConfig: BodyConfig{Mass: 3, Shape: arm(0.2), Offset: math.Vec3{X: -0.2}}, RangeOfMotion: Symmetric(1, 1, 1.5)},
			{Bone: skeleton.UlnaR, BodyConfig: BodyConfig{Mass: 2, Shape: arm(0.18), Offset: math.Vec3{X: -0.17}}, RangeOfMotion: elbowR},
			{Bone: skeleton.ThighL, BodyConfig: BodyConfig{Mass: 8, Shape: leg, Offset: math.Vec3{Y: -0.225}}, RangeOfMotion: hip},
			{Bone: skeleton.ShinL, BodyConfig: BodyConfig{Mass: 5, Shape: leg, Offset: math.Vec3{Y: -0.225}}, RangeOfMotion: knee},
			{Bone: skeleton.ThighR, BodyConfig: BodyConfig{Mass: 8, Shape: leg, Offset: math.Vec3{Y: -0.225}}, RangeOfMotion: hip},
			{Bone: skeleton.ShinR, BodyConfig: BodyConfig{Mass: 5, Shape: leg, Offset: math.Vec3{Y: -0.225}}, RangeOfMotion: knee},
		},
		Attachments: []AttachmentConfig{
			{
				Bone:      skeleton.HandleR,
				Placement: math.TransformIdentity(),
				BodyConfig: BodyConfig{
					Mass:   1,
					Shape:  physics.Box(math.Vec3{X: 0.03, Y: 0.45, Z: 0.01}),
					Offset: math.Vec3{Y: 0.45},
				},
			},
		},
	}
}
