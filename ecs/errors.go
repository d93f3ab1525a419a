package ecs

import "github.com/rotisserie/eris"

var (
	ErrUnknownEntity       = eris.New("entity does not exist")
	ErrUnregisteredType    = eris.New("component type not registered")
	ErrUnregisteredGroup   = eris.New("component group not registered")
	ErrAlreadyRegistered   = eris.New("already registered")
	ErrDuplicateComponent  = eris.New("component already on entity")
	ErrNotFound            = eris.New("component not on entity")
	ErrSignatureMismatch   = eris.New("entity signature does not match group")
	ErrCapacityExceeded    = eris.New("capacity exceeded")
	ErrInvalidGroup        = eris.New("group needs at least two distinct component types")
	ErrIterationInProgress = eris.New("structural mutation during view iteration")

	// ErrCorruptState is returned when an entity's signature and the pools disagree.
	// The store that produced it refuses further mutations.
	ErrCorruptState = eris.New("signature and component storage disagree")
)
