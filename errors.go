package logging

import (
	"github.com/pkg/errors"
)

var (
	// ErrInvalidName is returned when a logger is requested or created with an empty name.
	ErrInvalidName = errors.New("logger name must not be empty")
	// ErrNotRegistered signals a dispatch to a name that has no registered logger.
	ErrNotRegistered = errors.New("logger is not registered")
	// ErrLevelNotBound signals a dispatch to a level the logger was never extended with.
	ErrLevelNotBound = errors.New("level method is not bound")
	// ErrCanonicalLevel is returned when removing one of the canonical levels.
	ErrCanonicalLevel = errors.New("canonical level cannot be removed")
	// ErrExtensionResult is returned when an extension does not return the logger it was given.
	ErrExtensionResult = errors.New("extension must return the logger it extends")
	// ErrInvalidRank is returned for level ranks below 1.
	ErrInvalidRank = errors.New("level rank must be positive")
)
