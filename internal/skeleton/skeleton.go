// Package skeleton models the animated side of a character: a hierarchy of
// named bones with local, bind and model-space transforms, plus the model that
// places the skeleton in the world.
package skeleton

import (
	"errors"
	"fmt"

	"github.com/Faultbox/midgard-ragdoll/pkg/math"
)

// NoBone marks the absence of a parent bone.
const NoBone = -1

// ErrInvalidSkeleton is returned for malformed bone definitions.
var ErrInvalidSkeleton = errors.New("invalid skeleton")

// BoneDef describes one bone when building a skeleton.
type BoneDef struct {
	Name   string
	Parent string         // Empty for root bones
	Bind   math.Transform // Rest pose, relative to the parent bone
}

// Bone is a single joint of the skeleton.
type Bone struct {
	Name     string
	Parent   int
	Children []int

	bind  math.Transform
	local math.Transform
}

// Skeleton holds bones in parent-before-child order.
type Skeleton struct {
	bones []Bone
	index map[string]int
}

// New builds a skeleton from bone definitions given in any order.
func New(defs []BoneDef) (*Skeleton, error) {
	if len(defs) == 0 {
		return nil, fmt.Errorf("%w: no bones", ErrInvalidSkeleton)
	}

	byName := make(map[string]BoneDef, len(defs))
	for _, d := range defs {
		if d.Name == "" {
			return nil, fmt.Errorf("%w: bone with empty name", ErrInvalidSkeleton)
		}
		if _, dup := byName[d.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate bone %q", ErrInvalidSkeleton, d.Name)
		}
		byName[d.Name] = d
	}

	s := &Skeleton{index: make(map[string]int, len(defs))}

	// Emit parents first; anything left over has a missing parent or a cycle.
	for len(s.bones) < len(defs) {
		added := 0
		for _, d := range defs {
			if _, done := s.index[d.Name]; done {
				continue
			}
			parent := NoBone
			if d.Parent != "" {
				if _, ok := byName[d.Parent]; !ok {
					return nil, fmt.Errorf("%w: bone %q has unknown parent %q", ErrInvalidSkeleton, d.Name, d.Parent)
				}
				p, ok := s.index[d.Parent]
				if !ok {
					continue
				}
				parent = p
			}
			bind := d.Bind.Sanitized()
			idx := len(s.bones)
			s.bones = append(s.bones, Bone{Name: d.Name, Parent: parent, bind: bind, local: bind})
			s.index[d.Name] = idx
			if parent != NoBone {
				s.bones[parent].Children = append(s.bones[parent].Children, idx)
			}
			added++
		}
		if added == 0 {
			return nil, fmt.Errorf("%w: parent cycle", ErrInvalidSkeleton)
		}
	}

	return s, nil
}

// Len returns the number of bones.
func (s *Skeleton) Len() int {
	return len(s.bones)
}

// Index looks up a bone by name.
func (s *Skeleton) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// Bone returns the bone at index i.
func (s *Skeleton) Bone(i int) *Bone {
	return &s.bones[i]
}

// Name returns the name of bone i.
func (s *Skeleton) Name(i int) string {
	return s.bones[i].Name
}

// Parent returns the parent index of bone i, or NoBone.
func (s *Skeleton) Parent(i int) int {
	return s.bones[i].Parent
}

// Roots returns the indices of all bones without a parent.
func (s *Skeleton) Roots() []int {
	var roots []int
	for i := range s.bones {
		if s.bones[i].Parent == NoBone {
			roots = append(roots, i)
		}
	}
	return roots
}

// Local returns the transform of bone i relative to its parent.
func (s *Skeleton) Local(i int) math.Transform {
	return s.bones[i].local
}

// SetLocal sets the transform of bone i relative to its parent.
func (s *Skeleton) SetLocal(i int, t math.Transform) {
	s.bones[i].local = t
}

// Bind returns the rest-pose local transform of bone i.
func (s *Skeleton) Bind(i int) math.Transform {
	return s.bones[i].bind
}

// ModelSpace returns the transform of bone i relative to the model root.
func (s *Skeleton) ModelSpace(i int) math.Transform {
	t := s.bones[i].local
	for p := s.bones[i].Parent; p != NoBone; p = s.bones[p].Parent {
		t = s.bones[p].local.Combine(t)
	}
	return t
}

// SetModelSpace sets bone i so that its model-space transform equals t,
// keeping the parent chain unchanged.
func (s *Skeleton) SetModelSpace(i int, t math.Transform) {
	p := s.bones[i].Parent
	if p == NoBone {
		s.bones[i].local = t
		return
	}
	s.bones[i].local = s.ModelSpace(p).Invert().Combine(t)
}

// ResetToBind restores every bone to its rest pose.
func (s *Skeleton) ResetToBind() {
	for i := range s.bones {
		s.bones[i].local = s.bones[i].bind
	}
}

// Descendants returns all bones below i in parent-before-child order.
func (s *Skeleton) Descendants(i int) []int {
	var out []int
	stack := append([]int(nil), s.bones[i].Children...)
	for len(stack) > 0 {
		b := stack[0]
		stack = stack[1:]
		out = append(out, b)
		stack = append(stack, s.bones[b].Children...)
	}
	return out
}
