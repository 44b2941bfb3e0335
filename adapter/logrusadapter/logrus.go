// Package logrusadapter binds logger level methods to a logrus backend.
package logrusadapter

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/FimGroup/anylogging"
	"github.com/FimGroup/anylogging/config"
)

const (
	loggerNameField = "logger"
	callerField     = "caller"
)

var defaultLevelMapping = map[string]logrus.Level{
	logging.LevelError: logrus.ErrorLevel,
	logging.LevelWarn:  logrus.WarnLevel,
	logging.LevelInfo:  logrus.InfoLevel,
	logging.LevelLog:   logrus.InfoLevel,
	logging.LevelDebug: logrus.DebugLevel,
	logging.LevelTrace: logrus.TraceLevel,
}

type Options struct {
	// Logger is the backend. A new logrus logger is created when nil.
	// New sets the level of a provided logger to logrus.TraceLevel, since
	// thresholds come from Policy; lowering it afterwards still filters.
	Logger *logrus.Logger
	// Out replaces the backend output when set.
	Out       io.Writer
	Formatter logrus.Formatter
	Hooks     []logrus.Hook
	// DisableConsoleOutput drops formatted output; hooks still fire.
	DisableConsoleOutput bool
	// ReportCaller adds the calling function and line to every entry.
	// A logger's own report_caller setting also enables it.
	ReportCaller bool
	// Policy supplies thresholds. config.DefaultPolicy() when nil.
	Policy *config.Policy
	// Levels overrides or extends the level to logrus level mapping.
	// Levels without a mapping are written like "log".
	Levels map[string]logrus.Level
}

type Adapter struct {
	logger       *logrus.Logger
	policy       *config.Policy
	reportCaller bool
	levels       map[string]logrus.Level
}

func New(opts Options) *Adapter {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
	}
	// thresholds are applied per logger before entries reach logrus
	logger.SetLevel(logrus.TraceLevel)
	if opts.Out != nil {
		logger.SetOutput(opts.Out)
	}
	if opts.DisableConsoleOutput {
		logger.SetOutput(nilWriteCloser{})
	}
	if opts.Formatter != nil {
		logger.SetFormatter(opts.Formatter)
	}
	for _, hook := range opts.Hooks {
		logger.AddHook(hook)
	}
	policy := opts.Policy
	if policy == nil {
		var err error
		if policy, err = config.DefaultPolicy(); err != nil {
			logger.WithError(err).Warn("using default policy")
		}
	}
	levels := make(map[string]logrus.Level, len(defaultLevelMapping)+len(opts.Levels))
	for k, v := range defaultLevelMapping {
		levels[k] = v
	}
	for k, v := range opts.Levels {
		levels[k] = v
	}
	return &Adapter{
		logger:       logger,
		policy:       policy,
		reportCaller: opts.ReportCaller,
		levels:       levels,
	}
}

// Logger returns the logrus backend.
func (a *Adapter) Logger() *logrus.Logger {
	return a.logger
}

// Install makes a the extension of r. Loggers created before keep their bindings.
func (a *Adapter) Install(r *logging.Registry) {
	r.SetExtension(a.Extension())
}

// Extension returns the logging.Extension writing through this adapter.
func (a *Adapter) Extension() logging.Extension {
	return func(r *logging.Registry, l *logging.Logger) *logging.Logger {
		settings, err := config.Decode(l.Config())
		if err != nil {
			a.logger.WithField(loggerNameField, l.Name()).WithError(err).Warn("ignoring invalid logger config")
		}
		threshold := a.policy.Resolve(l.Name(), settings)
		reportCaller := a.reportCaller || settings.ReportCaller
		fields := logrus.Fields{loggerNameField: l.Name()}
		for k, v := range settings.Fields {
			fields[k] = v
		}

		enabledFor := func(level ...string) bool {
			var lv string
			if len(level) > 0 {
				lv = level[0]
			}
			return config.Enabled(r.Levels(), threshold, lv) && a.logger.IsLevelEnabled(a.backendLevel(lv))
		}

		names := r.Levels().Names()
		methods := make(map[string]logging.LevelFunc, len(names))
		for _, level := range names {
			level := level
			lv := a.backendLevel(level)
			methods[level] = func(args ...interface{}) {
				if !enabledFor(level) {
					return
				}
				entry := a.logger.WithFields(fields)
				if reportCaller {
					if f := getCaller(); f != nil {
						entry = entry.WithField(callerField, fmt.Sprintf("%s:%d", f.Function, f.Line))
					}
				}
				entry.Log(lv, args...)
			}
		}
		l.Bind(methods, enabledFor)
		return l
	}
}

func (a *Adapter) backendLevel(level string) logrus.Level {
	if lv, ok := a.levels[level]; ok {
		return lv
	}
	return a.levels[logging.LevelLog]
}
