// Package zapadapter binds logger level methods to a zap backend.
package zapadapter

import (
	"fmt"
	"sort"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/FimGroup/anylogging"
	"github.com/FimGroup/anylogging/config"
)

// ChannelKey carries the facade level on entries whose zap level is shared
// with other facade levels.
const ChannelKey = "channel"

var defaultLevelMapping = map[string]zapcore.Level{
	logging.LevelError: zapcore.ErrorLevel,
	logging.LevelWarn:  zapcore.WarnLevel,
	logging.LevelInfo:  zapcore.InfoLevel,
	logging.LevelLog:   zapcore.InfoLevel,
	logging.LevelDebug: zapcore.DebugLevel,
	logging.LevelTrace: zapcore.DebugLevel,
}

// native levels are written without a channel field
var nativeLevels = map[string]bool{
	logging.LevelError: true,
	logging.LevelWarn:  true,
	logging.LevelInfo:  true,
	logging.LevelDebug: true,
}

type Options struct {
	// Logger is the backend; zap.NewNop() when nil.
	Logger *zap.Logger
	Policy *config.Policy
	// Levels overrides or extends the level mapping. Unmapped levels are
	// written like "log".
	Levels map[string]zapcore.Level
}

type Adapter struct {
	logger *zap.Logger
	policy *config.Policy
	levels map[string]zapcore.Level
}

func New(opts Options) *Adapter {
	a := &Adapter{
		logger: opts.Logger,
		policy: opts.Policy,
		levels: make(map[string]zapcore.Level, len(defaultLevelMapping)+len(opts.Levels)),
	}
	if a.logger == nil {
		a.logger = zap.NewNop()
	}
	if a.policy == nil {
		policy, err := config.DefaultPolicy()
		if err != nil {
			a.logger.Warn("using default policy", zap.Error(err))
		}
		a.policy = policy
	}
	for k, v := range defaultLevelMapping {
		a.levels[k] = v
	}
	for k, v := range opts.Levels {
		a.levels[k] = v
	}
	return a
}

// Install makes a the extension of r.
func (a *Adapter) Install(r *logging.Registry) {
	r.SetExtension(a.Extension())
}

func (a *Adapter) Extension() logging.Extension {
	return func(r *logging.Registry, l *logging.Logger) *logging.Logger {
		settings, err := config.Decode(l.Config())
		if err != nil {
			a.logger.Warn("ignoring invalid logger config", zap.String("logger", l.Name()), zap.Error(err))
		}
		threshold := a.policy.Resolve(l.Name(), settings)
		zl := a.logger.Named(l.Name()).With(settingFields(settings)...)

		enabledFor := func(level ...string) bool {
			var lv string
			if len(level) > 0 {
				lv = level[0]
			}
			return config.Enabled(r.Levels(), threshold, lv) && zl.Core().Enabled(a.backendLevel(lv))
		}

		names := r.Levels().Names()
		methods := make(map[string]logging.LevelFunc, len(names))
		for _, level := range names {
			level := level
			lv := a.backendLevel(level)
			var extra []zap.Field
			if !nativeLevels[level] {
				extra = []zap.Field{zap.String(ChannelKey, level)}
			}
			methods[level] = func(args ...interface{}) {
				if !enabledFor(level) {
					return
				}
				zl.Log(lv, fmt.Sprint(args...), extra...)
			}
		}
		l.Bind(methods, enabledFor)
		return l
	}
}

// backendLevel maps a facade level to zap; unmapped and empty levels are
// written like "log".
func (a *Adapter) backendLevel(level string) zapcore.Level {
	if lv, ok := a.levels[level]; ok {
		return lv
	}
	return a.levels[logging.LevelLog]
}

func settingFields(s config.Settings) []zap.Field {
	keys := make([]string, 0, len(s.Fields))
	for k := range s.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fields := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, zap.Any(k, s.Fields[k]))
	}
	return fields
}
