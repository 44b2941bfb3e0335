package config

import (
	"os"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/FimGroup/anylogging"
)

// EnvLevel overrides Policy.DefaultLevel when set.
const EnvLevel = "ANYLOGGING_LEVEL"

const defaultThreshold = logging.LevelInfo

// Policy names the threshold of each logger and the extra levels to install.
//
//	default_level: info
//	loggers:
//	  app:db: debug
//	  app:http*: warn
//	levels:
//	  silly: 7
type Policy struct {
	DefaultLevel string            `yaml:"default_level"`
	Loggers      map[string]string `yaml:"loggers"`
	Levels       map[string]int    `yaml:"levels"`
}

// DefaultPolicy enables error through info for every logger, unless
// ANYLOGGING_LEVEL says otherwise. An unknown ANYLOGGING_LEVEL is reported
// as an error alongside a usable policy at the info threshold.
func DefaultPolicy() (*Policy, error) {
	p := &Policy{DefaultLevel: defaultThreshold}
	p.applyEnv()
	if err := p.Validate(); err != nil {
		bad := p.DefaultLevel
		p.DefaultLevel = defaultThreshold
		return p, errors.Wrapf(err, "%s=[%s] ignored", EnvLevel, bad)
	}
	return p, nil
}

// LoadPolicy reads a YAML policy file from fs.
func LoadPolicy(fs afero.Fs, path string) (*Policy, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, "read policy file=[%s]", path)
	}
	p, err := ParsePolicy(data)
	if err != nil {
		return nil, errors.Wrapf(err, "policy file=[%s]", path)
	}
	return p, nil
}

// ParsePolicy decodes and validates a YAML policy.
func ParsePolicy(data []byte) (*Policy, error) {
	p := &Policy{}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, errors.Wrap(err, "parse policy")
	}
	if p.DefaultLevel == "" {
		p.DefaultLevel = defaultThreshold
	}
	p.applyEnv()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Policy) applyEnv() {
	if lv := strings.TrimSpace(os.Getenv(EnvLevel)); lv != "" {
		p.DefaultLevel = lv
	}
}

// Validate reports every unknown threshold level, bad rank and malformed
// logger pattern at once.
func (p *Policy) Validate() error {
	var merr *multierror.Error
	known := func(level string) bool {
		if level == LevelNone || logging.IsCanonical(level) {
			return true
		}
		_, ok := p.Levels[level]
		return ok
	}
	if !known(p.DefaultLevel) {
		merr = multierror.Append(merr, errors.Errorf("default_level: unknown level [%s]", p.DefaultLevel))
	}
	for _, name := range sortedKeys(p.Loggers) {
		level := p.Loggers[name]
		if name == "" || name == "*" {
			merr = multierror.Append(merr, errors.Errorf("loggers: invalid logger pattern [%s]", name))
		} else if i := strings.IndexByte(name, '*'); i >= 0 && i != len(name)-1 {
			merr = multierror.Append(merr, errors.Errorf("loggers: [%s] may only end with '*'", name))
		}
		if !known(level) {
			merr = multierror.Append(merr, errors.Errorf("loggers: [%s] unknown level [%s]", name, level))
		}
	}
	for _, level := range sortedKeys(p.Levels) {
		if p.Levels[level] < 1 {
			merr = multierror.Append(merr, errors.Wrapf(logging.ErrInvalidRank, "levels: [%s]", level))
		}
		if level == LevelNone {
			merr = multierror.Append(merr, errors.Errorf("levels: [%s] is reserved", LevelNone))
		}
	}
	return merr.ErrorOrNil()
}

// Apply installs the policy's extra levels into the registry level table.
// Call it before creating loggers.
func (p *Policy) Apply(r *logging.Registry) error {
	var merr *multierror.Error
	for _, level := range sortedKeys(p.Levels) {
		if err := r.Levels().Set(level, p.Levels[level]); err != nil {
			merr = multierror.Append(merr, err)
		}
	}
	return merr.ErrorOrNil()
}

// Threshold returns the threshold for the named logger: an exact entry
// wins, then the longest matching "prefix*" entry, then DefaultLevel.
func (p *Policy) Threshold(name string) string {
	if lv, ok := p.Loggers[name]; ok {
		return lv
	}
	best, bestLen := "", -1
	for pattern, lv := range p.Loggers {
		if !strings.HasSuffix(pattern, "*") {
			continue
		}
		prefix := strings.TrimSuffix(pattern, "*")
		if strings.HasPrefix(name, prefix) && len(prefix) > bestLen {
			best, bestLen = lv, len(prefix)
		}
	}
	if bestLen >= 0 {
		return best
	}
	if p.DefaultLevel == "" {
		return defaultThreshold
	}
	return p.DefaultLevel
}

// Resolve returns the threshold of a logger, letting its own settings
// override the policy.
func (p *Policy) Resolve(name string, s Settings) string {
	if s.Level != "" {
		return s.Level
	}
	return p.Threshold(name)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
