package logging

import (
	"fmt"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"
)

var _ LoggerManager = (*Registry)(nil)

// Registry memoizes loggers by name. It also holds the level table and the
// Factory, Dispatcher and Extension slots consulted when loggers are created
// and called. Replace the slots before creating loggers: loggers that already
// exist keep the methods bound at their last extension.
type Registry struct {
	lock    sync.RWMutex
	loggers map[string]*Logger
	group   singleflight.Group

	slotLock   sync.RWMutex
	levels     *LevelTable
	factory    Factory
	dispatcher Dispatcher
	extension  Extension
}

// Option configures a Registry at construction.
type Option func(*Registry)

// WithLevels makes the registry use t as its level table.
func WithLevels(t *LevelTable) Option {
	return func(r *Registry) {
		if t != nil {
			r.levels = t
		}
	}
}

// WithExtension installs the extension applied to every new logger.
func WithExtension(ext Extension) Option {
	return func(r *Registry) {
		if ext != nil {
			r.extension = ext
		}
	}
}

// WithFactory installs the factory creating bare loggers.
func WithFactory(f Factory) Option {
	return func(r *Registry) {
		if f != nil {
			r.factory = f
		}
	}
}

// WithDispatcher installs the dispatcher used by the generic call form.
func WithDispatcher(d Dispatcher) Option {
	return func(r *Registry) {
		if d != nil {
			r.dispatcher = d
		}
	}
}

// New returns an empty registry with the canonical levels, DefaultFactory,
// DefaultDispatcher and NopExtension unless overridden by opts.
func New(opts ...Option) *Registry {
	r := &Registry{
		loggers:    make(map[string]*Logger),
		levels:     defaultLevelTable(),
		factory:    DefaultFactory,
		dispatcher: DefaultDispatcher,
		extension:  NopExtension,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GetLogger returns the logger registered under loggerName, creating,
// extending and registering it on first use. Only the first config is used
// and only when the logger is created.
func (r *Registry) GetLogger(loggerName string, config ...Config) (*Logger, error) {
	if loggerName == "" {
		return nil, ErrInvalidName
	}
	if l, ok := r.lookup(loggerName); ok {
		return l, nil
	}
	var cfg Config
	if len(config) > 0 {
		cfg = config[0]
	}

	v, err, _ := r.group.Do(loggerName, func() (v interface{}, err error) {
		defer func() {
			if p := recover(); p != nil {
				v, err = createPanic{value: p}, nil
			}
		}()
		if l, ok := r.lookup(loggerName); ok {
			return l, nil
		}
		l, err := r.create(loggerName, cfg)
		if err != nil {
			return nil, err
		}
		r.lock.Lock()
		r.loggers[loggerName] = l
		r.lock.Unlock()
		return l, nil
	})
	if p, ok := v.(createPanic); ok {
		panic(p.value)
	}
	if err != nil {
		return nil, err
	}
	return v.(*Logger), nil
}

// createPanic carries a factory or extension panic out of the singleflight
// call so every waiter re-raises the original value in its own goroutine.
type createPanic struct {
	value interface{}
}

// Get is GetLogger for callers that only pass valid names. It returns nil
// for an empty name and panics if the factory or extension fails.
func (r *Registry) Get(loggerName string, config ...Config) *Logger {
	if loggerName == "" {
		return nil
	}
	l, err := r.GetLogger(loggerName, config...)
	if err != nil {
		panic(err)
	}
	return l
}

func (r *Registry) create(name string, cfg Config) (*Logger, error) {
	l, err := r.Factory()(r, name, cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "create logger=[%s]", name)
	}
	if l == nil || l.Name() != name {
		return nil, errors.Errorf("factory returned a logger not named [%s]", name)
	}
	if ext := r.Extension()(r, l); ext != l {
		return nil, errors.Wrapf(ErrExtensionResult, "logger=[%s]", name)
	}
	return l, nil
}

func (r *Registry) lookup(name string) (*Logger, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	l, ok := r.loggers[name]
	return l, ok
}

// All returns a live view of every registered logger.
func (r *Registry) All() *Loggers {
	return &Loggers{r: r}
}

// Reset forgets all registered loggers. Intended for tests.
func (r *Registry) Reset() {
	r.lock.Lock()
	r.loggers = make(map[string]*Logger)
	r.lock.Unlock()
}

// Extend applies the current extension to l again, for example after
// levels were added to the table.
func (r *Registry) Extend(l *Logger) *Logger {
	return r.Extension()(r, l)
}

// Dispatch hands a generic call for name to the current dispatcher.
func (r *Registry) Dispatch(name string, args ...interface{}) {
	r.Dispatcher()(r, name, args...)
}

// ResolveLevel picks the level of a generic call. The first argument selects
// the level only when there is more than one argument and it names a level
// in the table; it is consumed in that case. Everything else goes to "log".
func (r *Registry) ResolveLevel(args []interface{}) (string, []interface{}) {
	if len(args) > 1 {
		if level, ok := levelName(args[0]); ok && r.Levels().Has(level) {
			return level, args[1:]
		}
	}
	return LevelLog, args
}

func levelName(v interface{}) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case fmt.Stringer:
		return s.String(), true
	}
	return "", false
}

func (r *Registry) Levels() *LevelTable {
	r.slotLock.RLock()
	defer r.slotLock.RUnlock()
	return r.levels
}

func (r *Registry) Factory() Factory {
	r.slotLock.RLock()
	defer r.slotLock.RUnlock()
	return r.factory
}

// SetFactory replaces the factory; nil restores DefaultFactory.
func (r *Registry) SetFactory(f Factory) {
	if f == nil {
		f = DefaultFactory
	}
	r.slotLock.Lock()
	r.factory = f
	r.slotLock.Unlock()
}

func (r *Registry) Dispatcher() Dispatcher {
	r.slotLock.RLock()
	defer r.slotLock.RUnlock()
	return r.dispatcher
}

// SetDispatcher replaces the dispatcher; nil restores DefaultDispatcher.
func (r *Registry) SetDispatcher(d Dispatcher) {
	if d == nil {
		d = DefaultDispatcher
	}
	r.slotLock.Lock()
	r.dispatcher = d
	r.slotLock.Unlock()
}

func (r *Registry) Extension() Extension {
	r.slotLock.RLock()
	defer r.slotLock.RUnlock()
	return r.extension
}

// SetExtension replaces the extension for loggers created afterwards; nil
// restores NopExtension.
func (r *Registry) SetExtension(ext Extension) {
	if ext == nil {
		ext = NopExtension
	}
	r.slotLock.Lock()
	r.extension = ext
	r.slotLock.Unlock()
}

// DefaultFactory creates a logger whose generic call goes through r.Dispatch.
func DefaultFactory(r *Registry, name string, config Config) (*Logger, error) {
	return NewLogFunction(name, config, r.Dispatch)
}

// DefaultDispatcher resolves the level with ResolveLevel and invokes it on
// the logger registered under name. A missing logger is an invariant
// violation and panics with ErrNotRegistered.
func DefaultDispatcher(r *Registry, name string, args ...interface{}) {
	l, ok := r.lookup(name)
	if !ok {
		panic(errors.Wrapf(ErrNotRegistered, "logger=[%s]", name))
	}
	level, rest := r.ResolveLevel(args)
	l.Invoke(level, rest...)
}

// NopExtension binds a no-op method for every level in the table and an
// EnabledFor that always reports false.
func NopExtension(r *Registry, l *Logger) *Logger {
	names := r.Levels().Names()
	methods := make(map[string]LevelFunc, len(names))
	for _, level := range names {
		methods[level] = nop
	}
	l.Bind(methods, nopEnabled)
	return l
}

func nop(...interface{}) {}

func nopEnabled(...string) bool {
	return false
}

// Loggers is a live view of a registry's loggers.
type Loggers struct {
	r *Registry
}

func (v *Loggers) Len() int {
	v.r.lock.RLock()
	defer v.r.lock.RUnlock()
	return len(v.r.loggers)
}

func (v *Loggers) Lookup(name string) (*Logger, bool) {
	return v.r.lookup(name)
}

// Names returns the registered names, sorted.
func (v *Loggers) Names() []string {
	v.r.lock.RLock()
	names := make([]string, 0, len(v.r.loggers))
	for name := range v.r.loggers {
		names = append(names, name)
	}
	v.r.lock.RUnlock()
	sort.Strings(names)
	return names
}

// Range calls fn for each logger in name order until fn returns false.
func (v *Loggers) Range(fn func(name string, l *Logger) bool) {
	for _, name := range v.Names() {
		l, ok := v.r.lookup(name)
		if !ok {
			continue
		}
		if !fn(name, l) {
			return
		}
	}
}

// Delete unregisters name. Loggers obtained earlier keep working until
// their generic call form is used.
func (v *Loggers) Delete(name string) {
	v.r.lock.Lock()
	delete(v.r.loggers, name)
	v.r.lock.Unlock()
}
