// Package zerologadapter binds logger level methods to a zerolog backend.
package zerologadapter

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/FimGroup/anylogging"
	"github.com/FimGroup/anylogging/config"
)

const (
	LoggerKey  = "logger"
	ChannelKey = "channel"
)

var defaultLevelMapping = map[string]zerolog.Level{
	logging.LevelError: zerolog.ErrorLevel,
	logging.LevelWarn:  zerolog.WarnLevel,
	logging.LevelInfo:  zerolog.InfoLevel,
	logging.LevelLog:   zerolog.InfoLevel,
	logging.LevelDebug: zerolog.DebugLevel,
	logging.LevelTrace: zerolog.TraceLevel,
}

type Options struct {
	// Logger is the backend; zerolog.Nop() when nil.
	Logger *zerolog.Logger
	Policy *config.Policy
	Levels map[string]zerolog.Level
}

type Adapter struct {
	logger zerolog.Logger
	policy *config.Policy
	levels map[string]zerolog.Level
}

func New(opts Options) *Adapter {
	a := &Adapter{
		logger: zerolog.Nop(),
		policy: opts.Policy,
		levels: make(map[string]zerolog.Level, len(defaultLevelMapping)+len(opts.Levels)),
	}
	if opts.Logger != nil {
		a.logger = *opts.Logger
	}
	if a.policy == nil {
		policy, err := config.DefaultPolicy()
		if err != nil {
			a.logger.Warn().Err(err).Msg("using default policy")
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
			a.logger.Warn().Str(LoggerKey, l.Name()).Err(err).Msg("ignoring invalid logger config")
		}
		threshold := a.policy.Resolve(l.Name(), settings)
		ctx := a.logger.With().Str(LoggerKey, l.Name())
		if len(settings.Fields) > 0 {
			ctx = ctx.Fields(settings.Fields)
		}
		zl := ctx.Logger()

		enabledFor := func(level ...string) bool {
			var lv string
			if len(level) > 0 {
				lv = level[0]
			}
			return config.Enabled(r.Levels(), threshold, lv) && backendEnabled(zl, a.backendLevel(lv))
		}

		names := r.Levels().Names()
		methods := make(map[string]logging.LevelFunc, len(names))
		for _, level := range names {
			level := level
			_, mapped := a.levels[level]
			lv := a.backendLevel(level)
			channel := level == logging.LevelLog || !mapped
			methods[level] = func(args ...interface{}) {
				if !enabledFor(level) {
					return
				}
				ev := zl.WithLevel(lv)
				if channel {
					ev = ev.Str(ChannelKey, level)
				}
				ev.Msg(fmt.Sprint(args...))
			}
		}
		l.Bind(methods, enabledFor)
		return l
	}
}

func (a *Adapter) backendLevel(level string) zerolog.Level {
	if lv, ok := a.levels[level]; ok {
		return lv
	}
	return a.levels[logging.LevelLog]
}

// backendEnabled mirrors zerolog's own filter: the logger level and the
// process-wide global level must both admit lv.
func backendEnabled(zl zerolog.Logger, lv zerolog.Level) bool {
	return lv >= zl.GetLevel() && lv >= zerolog.GlobalLevel()
}
