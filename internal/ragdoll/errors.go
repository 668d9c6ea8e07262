package ragdoll

import "errors"

// Errors returned by Control and Link operations. Callers match them with
// errors.Is; the returned errors carry the operation and link name.
var (
	ErrNotReady        = errors.New("ragdoll not ready for dynamic mode")
	ErrNotAttached     = errors.New("ragdoll not attached")
	ErrAlreadyAttached = errors.New("ragdoll already attached")
	ErrUnknownBone     = errors.New("unknown bone")
	ErrInvalidLink     = errors.New("invalid link")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidConfig   = errors.New("invalid ragdoll config")
	ErrReleased        = errors.New("attachment released")
)
