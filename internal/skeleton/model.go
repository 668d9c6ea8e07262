package skeleton

import "github.com/Faultbox/midgard-ragdoll/pkg/math"

// Model places a skeleton in the world. Root is the model's world transform
// (the scene node the skeleton hangs from).
type Model struct {
	Name     string
	Root     math.Transform
	Skeleton *Skeleton
}

// NewModel creates a model at the identity transform.
func NewModel(name string, skel *Skeleton) *Model {
	return &Model{Name: name, Root: math.TransformIdentity(), Skeleton: skel}
}

// BoneWorld returns the world transform of bone i.
func (m *Model) BoneWorld(i int) math.Transform {
	return m.Root.Combine(m.Skeleton.ModelSpace(i))
}

// SetBoneWorld poses bone i so that its world transform equals t.
func (m *Model) SetBoneWorld(i int, t math.Transform) {
	m.Skeleton.SetModelSpace(i, m.Root.Invert().Combine(t))
}

// Rescale multiplies the root scale uniformly.
func (m *Model) Rescale(factor float32) {
	m.Root.Scale = m.Root.Scale.Scale(factor)
}
