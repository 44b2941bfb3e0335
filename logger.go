package logging

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// Logger is a named logger. Its level methods are bound by an Extension and
// looked up by level name; Call is the generic form that lets the registry
// dispatcher pick the level.
type Logger struct {
	name   string
	config Config
	call   func(args []interface{})

	lock       sync.RWMutex
	methods    map[string]LevelFunc
	enabledFor EnabledFunc
}

// NewLogFunction returns a bare logger named name. Calling it hands the
// arguments to call. Custom factories use it to build logger shells.
func NewLogFunction(name string, config Config, call func(name string, args ...interface{})) (*Logger, error) {
	if name == "" {
		return nil, ErrInvalidName
	}
	if call == nil {
		return nil, errors.Errorf("nil call function for logger=[%s]", name)
	}
	return &Logger{
		name:   name,
		config: config,
		call: func(args []interface{}) {
			call(name, args...)
		},
	}, nil
}

func (l *Logger) Name() string {
	return l.name
}

// Config returns the config the logger was created with, possibly nil.
func (l *Logger) Config() Config {
	return l.config
}

// Call is the generic call form: Call("msg") logs at "log",
// Call("info", "msg") logs "msg" at "info".
func (l *Logger) Call(args ...interface{}) {
	l.call(args)
}

// Bind replaces all level methods and the enablement query in one step.
// Extensions use it; calling it again with equivalent bindings is harmless.
func (l *Logger) Bind(methods map[string]LevelFunc, enabledFor EnabledFunc) {
	m := make(map[string]LevelFunc, len(methods))
	for level, fn := range methods {
		if fn != nil {
			m[level] = fn
		}
	}
	l.lock.Lock()
	l.methods = m
	l.enabledFor = enabledFor
	l.lock.Unlock()
}

// Bindings returns a copy of the bound methods and the enablement query,
// for extensions that decorate the bindings of another extension.
func (l *Logger) Bindings() (map[string]LevelFunc, EnabledFunc) {
	l.lock.RLock()
	defer l.lock.RUnlock()
	m := make(map[string]LevelFunc, len(l.methods))
	for level, fn := range l.methods {
		m[level] = fn
	}
	return m, l.enabledFor
}

// Method returns the method bound for level.
func (l *Logger) Method(level string) (LevelFunc, bool) {
	l.lock.RLock()
	defer l.lock.RUnlock()
	fn, ok := l.methods[level]
	return fn, ok
}

// Has reports whether a method is bound for level.
func (l *Logger) Has(level string) bool {
	_, ok := l.Method(level)
	return ok
}

// Levels returns the names of the bound level methods, sorted.
func (l *Logger) Levels() []string {
	l.lock.RLock()
	levels := make([]string, 0, len(l.methods))
	for level := range l.methods {
		levels = append(levels, level)
	}
	l.lock.RUnlock()
	sort.Strings(levels)
	return levels
}

// EnabledFor asks the bound enablement query. A logger that was never
// extended reports false.
func (l *Logger) EnabledFor(level ...string) bool {
	l.lock.RLock()
	fn := l.enabledFor
	l.lock.RUnlock()
	if fn == nil {
		return false
	}
	return fn(level...)
}

// Invoke calls the method bound for level. It panics with ErrLevelNotBound
// when there is none.
func (l *Logger) Invoke(level string, args ...interface{}) {
	fn, ok := l.Method(level)
	if !ok {
		panic(errors.Wrapf(ErrLevelNotBound, "logger=[%s] level=[%s]", l.name, level))
	}
	fn(args...)
}

func (l *Logger) Error(args ...interface{}) {
	l.Invoke(LevelError, args...)
}

func (l *Logger) Warn(args ...interface{}) {
	l.Invoke(LevelWarn, args...)
}

func (l *Logger) Info(args ...interface{}) {
	l.Invoke(LevelInfo, args...)
}

func (l *Logger) Log(args ...interface{}) {
	l.Invoke(LevelLog, args...)
}

func (l *Logger) Debug(args ...interface{}) {
	l.Invoke(LevelDebug, args...)
}

func (l *Logger) Trace(args ...interface{}) {
	l.Invoke(LevelTrace, args...)
}
