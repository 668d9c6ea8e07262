package math

// Transform is a similarity transform: scale, then rotate, then translate.
type Transform struct {
	Translation Vec3 `yaml:"translation"`
	Rotation    Quat `yaml:"rotation"`
	Scale       Vec3 `yaml:"scale"`
}

// TransformIdentity returns the identity transform.
func TransformIdentity() Transform {
	return Transform{Rotation: QuatIdentity(), Scale: Vec3One()}
}

// NewTransform creates a unit-scale transform from a translation and rotation.
func NewTransform(translation Vec3, rotation Quat) Transform {
	return Transform{Translation: translation, Rotation: rotation, Scale: Vec3One()}
}

// Sanitized fills in fields a config file may leave zeroed: a zero rotation
// becomes identity and a zero scale becomes (1, 1, 1).
func (t Transform) Sanitized() Transform {
	if t.Rotation.IsZero() {
		t.Rotation = QuatIdentity()
	} else {
		t.Rotation = t.Rotation.Normalize()
	}
	if t.Scale.IsZero() {
		t.Scale = Vec3One()
	}
	return t
}

// TransformPoint maps a point from the local frame of t to its parent frame.
func (t Transform) TransformPoint(p Vec3) Vec3 {
	return t.Translation.Add(t.Rotation.Rotate(p.Mul(t.Scale)))
}

// Combine returns t applied after child, i.e. the child's transform expressed
// in t's parent frame.
func (t Transform) Combine(child Transform) Transform {
	return Transform{
		Translation: t.TransformPoint(child.Translation),
		Rotation:    t.Rotation.Mul(child.Rotation).Normalize(),
		Scale:       t.Scale.Mul(child.Scale),
	}
}

// Invert returns the inverse transform. Exact for uniform scale.
func (t Transform) Invert() Transform {
	inv := Transform{
		Rotation: t.Rotation.Inverse(),
		Scale:    Vec3{invf(t.Scale.X), invf(t.Scale.Y), invf(t.Scale.Z)},
	}
	inv.Translation = inv.Rotation.Rotate(t.Translation.Neg()).Mul(inv.Scale)
	return inv
}

// Interpolate blends from t toward other: translation and scale linearly,
// rotation spherically.
func (t Transform) Interpolate(other Transform, f float32) Transform {
	if f <= 0 {
		return t
	}
	if f >= 1 {
		return other
	}
	return Transform{
		Translation: t.Translation.Lerp(other.Translation, f),
		Rotation:    t.Rotation.Slerp(other.Rotation, f),
		Scale:       t.Scale.Lerp(other.Scale, f),
	}
}

// ApproxEqual compares every component within eps.
func (t Transform) ApproxEqual(other Transform, eps float32) bool {
	return t.Translation.ApproxEqual(other.Translation, eps) &&
		t.Rotation.ApproxEqual(other.Rotation, eps) &&
		t.Scale.ApproxEqual(other.Scale, eps)
}

func invf(x float32) float32 {
	if x == 0 {
		return 0
	}
	return 1 / x
}
