package logging

type LoggerManager interface {
	GetLogger(loggerName string, config ...Config) (*Logger, error)
}

// Config is passed through the registry and the Factory uninterpreted.
// Adapters may decode it, see the config package.
type Config map[string]interface{}

// LevelFunc is a bound level method. It returns nothing; a failing backend
// panics and the panic reaches the caller of the logger.
type LevelFunc func(args ...interface{})

// EnabledFunc answers whether a logger is enabled for the given level.
// It is called with zero or one level name.
type EnabledFunc func(level ...string) bool

// Factory creates a bare named logger whose generic call form re-enters the
// registry dispatcher. It must not bind level methods.
type Factory func(r *Registry, name string, config Config) (*Logger, error)

// Dispatcher resolves the level of a generic call on the logger registered
// under name and invokes the matching level method.
type Dispatcher func(r *Registry, name string, args ...interface{})

// Extension binds one level method per entry in the registry level table
// plus EnabledFor onto l and returns l. It must be safe to apply repeatedly.
type Extension func(r *Registry, l *Logger) *Logger
