package engine

import "errors"

// Typed failures surfaced to the caller. Every operation validates its
// preconditions and returns one of these before mutating any state, so
// no partial mutation is ever observable on failure.
var (
	ErrInvalidPhase           = errors.New("operation not allowed in current phase")
	ErrNotFound               = errors.New("not found")
	ErrConditionsUnmet        = errors.New("conditions not met")
	ErrIncompatiblePolicy     = errors.New("incompatible policy active")
	ErrInsufficientResources  = errors.New("insufficient resources")
	ErrAlreadyEnacted         = errors.New("policy already enacted")
	ErrInvalidSaveData        = errors.New("invalid save data")
	ErrPersistenceUnavailable = errors.New("persistence unavailable")
)
