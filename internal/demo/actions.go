package demo

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Faultbox/midgard-ragdoll/internal/config"
	"github.com/Faultbox/midgard-ragdoll/internal/ragdoll"
	"github.com/Faultbox/midgard-ragdoll/internal/skeleton"
	"github.com/Faultbox/midgard-ragdoll/internal/store"
	"github.com/Faultbox/midgard-ragdoll/pkg/math"
)

// ErrUnknownAction is returned for script steps naming no action.
var ErrUnknownAction = errors.New("unknown action")

type action struct {
	arg float32 // Used when the step gives none
	run func(s *Scene, arg float32) error
}

var actions = map[string]action{
	"go-limp": {run: func(s *Scene, _ float32) error {
		return s.dac.SetRagdollMode()
	}},
	"go-floating": {run: func(s *Scene, _ float32) error {
		return s.dac.SetDynamicSubtree(s.dac.Torso(), math.Vec3{}, false)
	}},
	"limp-left-arm": {run: func(s *Scene, _ float32) error {
		return s.limp(skeleton.ClavicleL)
	}},
	"limp-right-arm": {run: func(s *Scene, _ float32) error {
		return s.limp(skeleton.ClavicleR)
	}},
	"raise-left-hand": {run: func(s *Scene, _ float32) error {
		l, err := s.link(skeleton.UlnaL)
		if err != nil {
			return err
		}
		return s.dac.SetDynamicSubtree(l, s.cfg.Ragdoll.Gravity.Neg(), false)
	}},
	"raise-left-foot": {arg: 0.4, run: (*Scene).raiseLeftFoot},
	"blend-kinematic": {arg: 0.5, run: func(s *Scene, arg float32) error {
		s.dac.DisableAllIKControllers()
		return s.dac.BlendToKinematicMode(arg, nil)
	}},
	"bind-pose": {arg: 1, run: func(s *Scene, arg float32) error {
		s.dac.DisableAllIKControllers()
		return s.dac.BindSubtree(s.dac.Torso(), arg)
	}},
	"freeze-all": {run: func(s *Scene, _ float32) error {
		return s.dac.FreezeSubtree(s.dac.Torso(), false)
	}},
	"freeze-upper-body": {run: func(s *Scene, _ float32) error {
		l, err := s.link(skeleton.Spine)
		if err != nil {
			return err
		}
		return s.dac.FreezeSubtree(l, false)
	}},
	"ghost-upper-body": {run: func(s *Scene, _ float32) error {
		l, err := s.link(skeleton.Spine)
		if err != nil {
			return err
		}
		return s.dac.SetContactResponseSubtree(l, false)
	}},
	"drop-attachments": {run: func(s *Scene, _ float32) error {
		return s.dac.DropAttachments()
	}},
	"pin-left-femur": {run: func(s *Scene, _ float32) error {
		l, err := s.link(skeleton.ThighL)
		if err != nil {
			return err
		}
		return s.dac.PinLink(l)
	}},
	"amputate-left-elbow": {arg: 1, run: func(s *Scene, arg float32) error {
		l, err := s.link(skeleton.UlnaL)
		if err != nil {
			return err
		}
		return s.dac.AmputateSubtree(l, arg)
	}},
	"set-height": {arg: 1, run: (*Scene).setHeight},
	"save":       {run: (*Scene).save},
	"load":       {run: (*Scene).load},
	"dump": {run: func(s *Scene, _ float32) error {
		s.dac.LogTree(zapcore.InfoLevel)
		return nil
	}},
}

// Actions lists the action names a script may use.
func Actions() []string {
	names := make([]string, 0, len(actions))
	for name := range actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CheckScript reports the first step naming an unknown action.
func CheckScript(script []config.ScriptStep) error {
	for i, step := range script {
		if _, ok := actions[step.Action]; !ok {
			return fmt.Errorf("script step %d: %w %q", i, ErrUnknownAction, step.Action)
		}
	}
	return nil
}

// Do runs one action now. A zero arg selects the action's default.
func (s *Scene) Do(name string, arg float32) error {
	a, ok := actions[name]
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownAction, name)
	}
	if arg == 0 {
		arg = a.arg
	}
	s.log.Info("action", zap.String("name", name), zap.Float32("arg", arg), zap.Float32("clock", s.clock))
	return a.run(s, arg)
}

func (s *Scene) link(bone string) (*ragdoll.Link, error) {
	l := s.dac.FindBoneLink(bone)
	if l == nil {
		return nil, fmt.Errorf("bone %q: %w", bone, ragdoll.ErrUnknownBone)
	}
	return l, nil
}

func (s *Scene) limp(bone string) error {
	l, err := s.link(bone)
	if err != nil {
		return err
	}
	return s.dac.SetDynamicSubtree(l, s.cfg.Ragdoll.Gravity, false)
}

// raiseLeftFoot lets the left leg float and pulls the shin up and forward
// by lift meters.
func (s *Scene) raiseLeftFoot(lift float32) error {
	thigh, err := s.link(skeleton.ThighL)
	if err != nil {
		return err
	}
	shin, err := s.link(skeleton.ShinL)
	if err != nil {
		return err
	}
	if err := s.dac.SetDynamicSubtree(thigh, math.Vec3{}, false); err != nil {
		return err
	}
	goal := shin.Transform().Translation.Add(math.Vec3{X: lift, Y: lift})
	ik := ragdoll.NewTargetController(shin, goal, 40)
	ik.Damping = 4
	return shin.AddIKController(ik)
}

// setHeight rescales the model so its root scale becomes height, then
// rebuilds the ragdoll to fit.
func (s *Scene) setHeight(height float32) error {
	if height <= 0 {
		return fmt.Errorf("height %v: %w", height, ragdoll.ErrInvalidArgument)
	}
	current := s.model.Root.Scale.Y
	if current == 0 {
		return fmt.Errorf("model scale is zero: %w", ragdoll.ErrInvalidArgument)
	}
	s.model.Rescale(height / current)
	return s.dac.Rebuild()
}

func (s *Scene) save(_ float32) error {
	state, err := s.dac.Snapshot()
	if err != nil {
		return err
	}
	saved := false
	if s.store != nil {
		if err := s.store.Save(s.cfg.Storage.SnapshotKey, state); err != nil {
			return err
		}
		saved = true
	}
	if path := s.cfg.Storage.SnapshotFile; path != "" {
		if err := store.WriteFile(path, state); err != nil {
			return err
		}
		saved = true
	}
	if !saved {
		return ErrNoStore
	}
	s.log.Info("snapshot saved", zap.String("key", s.cfg.Storage.SnapshotKey), zap.Int("links", len(state.Links)))
	return nil
}

func (s *Scene) load(_ float32) error {
	var (
		state ragdoll.State
		err   error
	)
	switch {
	case s.store != nil:
		state, err = s.store.Load(s.cfg.Storage.SnapshotKey)
	case s.cfg.Storage.SnapshotFile != "":
		state, err = store.ReadFile(s.cfg.Storage.SnapshotFile)
	default:
		return ErrNoStore
	}
	if err != nil {
		return err
	}
	if err := s.dac.Restore(state); err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	s.log.Info("snapshot loaded", zap.String("key", s.cfg.Storage.SnapshotKey))
	return nil
}
