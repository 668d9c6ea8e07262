// Package config handles loading and saving the ragdoll demo configuration.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/Faultbox/midgard-ragdoll/internal/ragdoll"
	"github.com/Faultbox/midgard-ragdoll/pkg/math"
)

// Config holds all application settings.
type Config struct {
	Logging LoggingConfig  `yaml:"logging"`
	Physics PhysicsConfig  `yaml:"physics"`
	Ragdoll ragdoll.Config `yaml:"ragdoll"`
	Demo    DemoConfig     `yaml:"demo"`
	Storage StorageConfig  `yaml:"storage"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"` // Empty disables the rotating file
}

// PhysicsConfig holds physics space settings.
type PhysicsConfig struct {
	Timestep        float32   `yaml:"timestep"` // Seconds per frame
	Gravity         math.Vec3 `yaml:"gravity"`  // Space default, before per-body overrides
	GroundHeight    float32   `yaml:"ground_height"`
	GroundHalfWidth float32   `yaml:"ground_half_width"`
	Iterations      int       `yaml:"iterations"`
	Friction        float32   `yaml:"friction"`
}

// DemoConfig holds the scripted scene.
type DemoConfig struct {
	Duration  time.Duration `yaml:"duration"`
	Height    float32       `yaml:"height"` // Model scale, 1 is a 2 m humanoid
	ClipSpeed float32       `yaml:"clip_speed"`
	Script    []ScriptStep  `yaml:"script"`
}

// ScriptStep runs one named action when the scene clock reaches At seconds.
// Arg is action specific; zero selects the action's default.
type ScriptStep struct {
	At     float32 `yaml:"at"`
	Action string  `yaml:"action"`
	Arg    float32 `yaml:"arg,omitempty"`
}

// StorageConfig holds snapshot persistence settings.
type StorageConfig struct {
	AppName      string `yaml:"app_name"`
	SnapshotKey  string `yaml:"snapshot_key"`
	SnapshotFile string `yaml:"snapshot_file"` // Also written on save when set
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level: "info",
		},
		Physics: PhysicsConfig{
			Timestep:        1.0 / 64,
			Gravity:         math.Vec3{Y: -9.8},
			GroundHeight:    0,
			GroundHalfWidth: 50,
			Iterations:      20,
			Friction:        0.7,
		},
		Ragdoll: ragdoll.DefaultConfig(),
		Demo: DemoConfig{
			Duration:  15 * time.Second,
			Height:    1,
			ClipSpeed: 1,
			Script:    DefaultScript(),
		},
		Storage: StorageConfig{
			AppName:     "midgard_ragdoll",
			SnapshotKey: "ragdoll.snapshot",
		},
	}
}

// DefaultScript walks through every ragdoll mode once.
func DefaultScript() []ScriptStep {
	return []ScriptStep{
		{At: 0.5, Action: "dump"},
		{At: 1, Action: "limp-left-arm"},
		{At: 2, Action: "raise-left-hand"},
		{At: 3, Action: "bind-pose", Arg: 1},
		{At: 4.5, Action: "go-floating"},
		{At: 5.5, Action: "blend-kinematic", Arg: 0.5},
		{At: 6.5, Action: "raise-left-foot"},
		{At: 7.5, Action: "freeze-upper-body"},
		{At: 8, Action: "ghost-upper-body"},
		{At: 8.5, Action: "save"},
		{At: 9, Action: "go-limp"},
		{At: 10, Action: "load"},
		{At: 10.5, Action: "pin-left-femur"},
		{At: 11, Action: "amputate-left-elbow", Arg: 1},
		{At: 12, Action: "drop-attachments"},
		{At: 12.5, Action: "set-height", Arg: 1.2},
		{At: 13, Action: "freeze-all"},
		{At: 14.5, Action: "dump"},
	}
}

// Validate reports settings the demo cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Physics.Timestep <= 0 {
		errs = append(errs, fmt.Errorf("physics.timestep %v must be positive", c.Physics.Timestep))
	}
	if c.Physics.Iterations < 0 {
		errs = append(errs, fmt.Errorf("physics.iterations %d must not be negative", c.Physics.Iterations))
	}
	if c.Demo.Duration < 0 {
		errs = append(errs, fmt.Errorf("demo.duration %v must not be negative", c.Demo.Duration))
	}
	if c.Demo.Height <= 0 {
		errs = append(errs, fmt.Errorf("demo.height %v must be positive", c.Demo.Height))
	}
	for i, s := range c.Demo.Script {
		if s.Action == "" {
			errs = append(errs, fmt.Errorf("demo.script[%d]: empty action", i))
		}
		if i > 0 && s.At < c.Demo.Script[i-1].At {
			errs = append(errs, fmt.Errorf("demo.script[%d]: at %v is before the previous step", i, s.At))
		}
	}
	if c.Storage.AppName == "" {
		errs = append(errs, errors.New("storage.app_name is empty"))
	}
	if err := c.Ragdoll.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("ragdoll: %w", err))
	}
	return errors.Join(errs...)
}
