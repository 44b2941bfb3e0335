// Package config holds the settings adapters read: per-logger settings
// decoded from the config passed to the registry, and a process policy
// file naming thresholds and extra levels.
package config

import (
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"

	"github.com/FimGroup/anylogging"
)

// LevelNone as a threshold disables every level.
const LevelNone = "none"

// Settings is the adapter view of a logging.Config.
type Settings struct {
	// Level is the threshold for this logger. Empty means the policy decides.
	Level        string                 `mapstructure:"level"`
	ReportCaller bool                   `mapstructure:"report_caller"`
	Fields       map[string]interface{} `mapstructure:"fields"`
}

// Decode reads Settings out of cfg. Unknown keys are left for other consumers.
func Decode(cfg logging.Config) (Settings, error) {
	var s Settings
	if len(cfg) == 0 {
		return s, nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &s,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return s, err
	}
	if err := dec.Decode(map[string]interface{}(cfg)); err != nil {
		return s, errors.Wrap(err, "decode logger config")
	}
	return s, nil
}

// Enabled reports whether level is enabled under threshold: the level's
// rank must not exceed the threshold's rank. An empty level means "log".
func Enabled(levels *logging.LevelTable, threshold, level string) bool {
	if threshold == LevelNone {
		return false
	}
	if level == "" {
		level = logging.LevelLog
	}
	lr, ok := levels.Rank(level)
	if !ok {
		return false
	}
	tr, ok := levels.Rank(threshold)
	if !ok {
		return false
	}
	return lr <= tr
}
