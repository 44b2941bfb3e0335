package logging

import (
	"sync"

	"github.com/pkg/errors"
)

var (
	defaultRegistry  = New()
	defaultReplaced  bool
	defaultRegistryL sync.RWMutex
)

// SetDefault replaces the process-wide registry. It may be called once,
// at startup, before any logger is requested from the default registry.
func SetDefault(r *Registry) {
	if r == nil {
		panic(errors.New("Registry should not be nil"))
	}
	defaultRegistryL.Lock()
	defer defaultRegistryL.Unlock()
	if defaultReplaced {
		panic(errors.New("cannot re-update default Registry"))
	}
	defaultRegistry = r
	defaultReplaced = true
}

// Default returns the process-wide registry.
func Default() *Registry {
	defaultRegistryL.RLock()
	defer defaultRegistryL.RUnlock()
	return defaultRegistry
}

// GetLoggerManager returns the process-wide registry as a LoggerManager.
func GetLoggerManager() LoggerManager {
	return Default()
}

// Get returns the named logger from the default registry.
func Get(loggerName string, config ...Config) *Logger {
	return Default().Get(loggerName, config...)
}

// GetLogger is Default().GetLogger.
func GetLogger(loggerName string, config ...Config) (*Logger, error) {
	return Default().GetLogger(loggerName, config...)
}

// All returns a live view of the default registry.
func All() *Loggers {
	return Default().All()
}
