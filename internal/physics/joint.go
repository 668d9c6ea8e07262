package physics

import "fmt"

// AxisLimits bounds one degree of freedom. Lower == Upper == 0 locks the axis.
type AxisLimits struct {
	Lower float32 `yaml:"lower"`
	Upper float32 `yaml:"upper"`
}

// Locked reports whether the axis allows no motion.
func (a AxisLimits) Locked() bool {
	return a.Lower == 0 && a.Upper == 0
}

// JointLimits holds the limits of a 6-DOF joint. Linear limits are distances,
// angular limits are radians about the X, Y and Z axes of the joint frame.
type JointLimits struct {
	Linear  [3]AxisLimits
	Angular [3]AxisLimits
}

// Validate rejects inverted ranges.
func (l JointLimits) Validate() error {
	for i, a := range l.Linear {
		if a.Lower > a.Upper {
			return fmt.Errorf("%w: linear axis %d lower %v > upper %v", ErrInvalidSpec, i, a.Lower, a.Upper)
		}
	}
	for i, a := range l.Angular {
		if a.Lower > a.Upper {
			return fmt.Errorf("%w: angular axis %d lower %v > upper %v", ErrInvalidSpec, i, a.Lower, a.Upper)
		}
	}
	return nil
}

// LockedLimits returns limits that allow no relative motion.
func LockedLimits() JointLimits {
	return JointLimits{}
}

// BallLimits returns limits with locked translation and the given rotation ranges.
func BallLimits(x, y, z AxisLimits) JointLimits {
	return JointLimits{Angular: [3]AxisLimits{x, y, z}}
}

// WithAngularLocked returns a copy with every rotational axis locked.
func (l JointLimits) WithAngularLocked() JointLimits {
	l.Angular = [3]AxisLimits{}
	return l
}
