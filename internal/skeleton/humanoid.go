package skeleton

import "github.com/Faultbox/midgard-ragdoll/pkg/math"

// Humanoid bone names.
const (
	Pelvis    = "pelvis"
	Spine     = "spine"
	Chest     = "chest"
	Neck      = "neck"
	Head      = "head"
	ClavicleL = "clavicle.L"
	HumerusL  = "humerus.L"
	UlnaL     = "ulna.L"
	HandL     = "hand.L"
	HandleL   = "handle.L"
	ClavicleR = "clavicle.R"
	HumerusR  = "humerus.R"
	UlnaR     = "ulna.R"
	HandR     = "hand.R"
	HandleR   = "handle.R"
	ThighL    = "thigh.L"
	ShinL     = "shin.L"
	FootL     = "foot.L"
	ThighR    = "thigh.R"
	ShinR     = "shin.R"
	FootR     = "foot.R"
)

// HumanoidDefs returns the bone definitions of a 2 m tall biped laid out in
// the XY plane, arms spread, facing +Z.
func HumanoidDefs() []BoneDef {
	at := func(x, y float32) math.Transform {
		return math.NewTransform(math.Vec3{X: x, Y: y}, math.QuatIdentity())
	}
	return []BoneDef{
		{Name: Pelvis, Bind: at(0, 1.0)},
		{Name: Spine, Parent: Pelvis, Bind: at(0, 0.15)},
		{Name: Chest, Parent: Spine, Bind: at(0, 0.25)},
		{Name: Neck, Parent: Chest, Bind: at(0, 0.25)},
		{Name: Head, Parent: Neck, Bind: at(0, 0.1)},

		{Name: ClavicleL, Parent: Chest, Bind: at(0.08, 0.2)},
		{Name: HumerusL, Parent: ClavicleL, Bind: at(0.15, 0)},
		{Name: UlnaL, Parent: HumerusL, Bind: at(0.28, 0)},
		{Name: HandL, Parent: UlnaL, Bind: at(0.25, 0)},
		{Name: HandleL, Parent: HandL, Bind: at(0.08, 0)},

		{Name: ClavicleR, Parent: Chest, Bind: at(-0.08, 0.2)},
		{Name: HumerusR, Parent: ClavicleR, Bind: at(-0.15, 0)},
		{Name: UlnaR, Parent: HumerusR, Bind: at(-0.28, 0)},
		{Name: HandR, Parent: UlnaR, Bind: at(-0.25, 0)},
		{Name: HandleR, Parent: HandR, Bind: at(-0.08, 0)},

		{Name: ThighL, Parent: Pelvis, Bind: at(0.1, -0.05)},
		{Name: ShinL, Parent: ThighL, Bind: at(0, -0.45)},
		{Name: FootL, Parent: ShinL, Bind: at(0, -0.45)},

		{Name: ThighR, Parent: Pelvis, Bind: at(-0.1, -0.05)},
		{Name: ShinR, Parent: ThighR, Bind: at(0, -0.45)},
		{Name: FootR, Parent: ShinR, Bind: at(0, -0.45)},
	}
}

// NewHumanoid builds a model around the humanoid rig.
func NewHumanoid(name string) *Model {
	skel, err := New(HumanoidDefs())
	if err != nil {
		// The rig is static data; a failure here is a programming error.
		panic(err)
	}
	return NewModel(name, skel)
}

// NewProp builds a single-bone model for a held prop such as a sword.
func NewProp(name string) *Model {
	skel, err := New([]BoneDef{{Name: name, Bind: math.TransformIdentity()}})
	if err != nil {
		panic(err)
	}
	return NewModel(name, skel)
}
