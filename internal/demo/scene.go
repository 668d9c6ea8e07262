// Package demo runs a headless ragdoll scene: a waving humanoid holding a
// sword, standing on a planar ground, driven through a timed script of
// ragdoll actions.
package demo

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-ragdoll/internal/anim"
	"github.com/Faultbox/midgard-ragdoll/internal/config"
	"github.com/Faultbox/midgard-ragdoll/internal/physics/planar"
	"github.com/Faultbox/midgard-ragdoll/internal/ragdoll"
	"github.com/Faultbox/midgard-ragdoll/internal/skeleton"
	"github.com/Faultbox/midgard-ragdoll/internal/store"
)

// ErrNoStore is returned by the save and load actions when the scene has no
// snapshot store.
var ErrNoStore = errors.New("no snapshot store")

// Scene owns the physics space, the model and its ragdoll control.
type Scene struct {
	cfg    *config.Config
	log    *zap.Logger
	store  *store.Store
	space  *planar.Space
	model  *skeleton.Model
	sword  *skeleton.Model
	player *anim.Player
	dac    *ragdoll.Control

	clock  float32
	frames int
	next   int // Index of the next script step
	done   []string
}

// New builds the scene. st may be nil, in which case only the snapshot file
// (if configured) is used by save and load.
func New(cfg *config.Config, st *store.Store, log *zap.Logger) (*Scene, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := CheckScript(cfg.Demo.Script); err != nil {
		return nil, err
	}

	log.Info("initializing scene",
		zap.Float32("timestep", cfg.Physics.Timestep),
		zap.Float32("height", cfg.Demo.Height),
		zap.Int("steps", len(cfg.Demo.Script)),
	)

	s := &Scene{
		cfg:   cfg,
		log:   log,
		store: st,
		space: planar.New(planar.Config{
			Gravity:    cfg.Physics.Gravity,
			Iterations: cfg.Physics.Iterations,
			Friction:   cfg.Physics.Friction,
		}),
		model: skeleton.NewHumanoid("sinbad"),
		sword: skeleton.NewProp("sword"),
	}
	s.space.AddGround(cfg.Physics.GroundHeight, cfg.Physics.GroundHalfWidth)
	if cfg.Demo.Height != 1 {
		s.model.Rescale(cfg.Demo.Height)
	}

	s.player = anim.NewPlayer(anim.Wave(2), s.model.Skeleton)
	if cfg.Demo.ClipSpeed > 0 {
		s.player.Speed = cfg.Demo.ClipSpeed
	}

	dac, err := ragdoll.New(cfg.Ragdoll, ragdoll.WithLogger(log.Named("ragdoll")))
	if err != nil {
		return nil, fmt.Errorf("failed to create ragdoll: %w", err)
	}
	props := map[string]*skeleton.Model{skeleton.HandleR: s.sword}
	if err := dac.Attach(s.space, s.model, props); err != nil {
		return nil, fmt.Errorf("failed to attach ragdoll: %w", err)
	}
	s.dac = dac

	log.Info("scene initialized", zap.Int("links", len(dac.Links())))
	return s, nil
}

// Control returns the ragdoll control.
func (s *Scene) Control() *ragdoll.Control { return s.dac }

// Model returns the animated humanoid.
func (s *Scene) Model() *skeleton.Model { return s.model }

// Space returns the physics space.
func (s *Scene) Space() *planar.Space { return s.space }

// Clock returns the scene time in seconds.
func (s *Scene) Clock() float32 { return s.clock }

// Executed returns the names of the script steps run so far.
func (s *Scene) Executed() []string { return s.done }

// Tick runs the script steps that are due, then advances one frame: the
// physics step bracketed by the ragdoll's pre and post ticks, then the
// animation and the ragdoll update.
func (s *Scene) Tick(dt float32) error {
	script := s.cfg.Demo.Script
	for s.next < len(script) && script[s.next].At <= s.clock {
		step := script[s.next]
		s.next++
		if err := s.Do(step.Action, step.Arg); err != nil {
			return fmt.Errorf("step %q at %.2fs: %w", step.Action, step.At, err)
		}
		s.done = append(s.done, step.Action)
	}

	ragdoll.Step(s.space, dt, s.dac)
	s.player.Update(dt)
	if err := s.dac.Update(dt); err != nil {
		return fmt.Errorf("ragdoll update: %w", err)
	}

	s.clock += dt
	s.frames++
	if s.frames%256 == 0 {
		torso := s.dac.Torso()
		s.log.Debug("frame",
			zap.Int("n", s.frames),
			zap.Float32("clock", s.clock),
			zap.Float32("torso_weight", torso.KinematicWeight()),
			zap.Float32("torso_y", torso.Transform().Translation.Y),
		)
	}
	return nil
}

// Run ticks at the configured timestep until the demo duration has elapsed
// or ctx is cancelled.
func (s *Scene) Run(ctx context.Context) error {
	dt := s.cfg.Physics.Timestep
	frames := s.cfg.Frames()
	s.log.Info("starting scene", zap.Int("frames", frames))

	for i := 0; i < frames; i++ {
		if err := ctx.Err(); err != nil {
			s.log.Info("scene interrupted", zap.Float32("clock", s.clock))
			return err
		}
		if err := s.Tick(dt); err != nil {
			return err
		}
	}

	s.log.Info("scene finished",
		zap.Float32("clock", s.clock),
		zap.Strings("executed", s.done),
	)
	return nil
}

// Close detaches the ragdoll and frees its bodies.
func (s *Scene) Close() error {
	s.log.Info("closing scene")
	if s.dac.IsAttached() {
		return s.dac.Detach()
	}
	return nil
}
