// Package metrics counts level method calls with prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/FimGroup/anylogging"
)

const (
	subsystem  = "log"
	levelLabel = "level"
)

var _ prometheus.Collector = (*Metrics)(nil)

// Metrics groups the call counters of every logger an extension wrapped by
// Wrap binds.
type Metrics struct {
	CallCount     *prometheus.CounterVec
	DisabledCount *prometheus.CounterVec
}

func New(namespace string) *Metrics {
	return &Metrics{
		CallCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "calls_total",
			Help:      "Number of level method calls.",
		}, []string{levelLabel}),
		DisabledCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "disabled_calls_total",
			Help:      "Number of level method calls on loggers not enabled for the level.",
		}, []string{levelLabel}),
	}
}

// Wrap decorates ext so that each bound level method is counted before it
// runs. EnabledFor is left as ext bound it.
func (m *Metrics) Wrap(ext logging.Extension) logging.Extension {
	return func(r *logging.Registry, l *logging.Logger) *logging.Logger {
		l = ext(r, l)
		if l == nil {
			return nil
		}
		methods, enabledFor := l.Bindings()
		for level, fn := range methods {
			methods[level] = m.count(level, fn, enabledFor)
		}
		l.Bind(methods, enabledFor)
		return l
	}
}

func (m *Metrics) count(level string, fn logging.LevelFunc, enabledFor logging.EnabledFunc) logging.LevelFunc {
	calls := m.CallCount.WithLabelValues(level)
	disabled := m.DisabledCount.WithLabelValues(level)
	return func(args ...interface{}) {
		calls.Inc()
		if enabledFor != nil && !enabledFor(level) {
			disabled.Inc()
		}
		fn(args...)
	}
}

func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.CallCount.Describe(ch)
	m.DisabledCount.Describe(ch)
}

func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.CallCount.Collect(ch)
	m.DisabledCount.Collect(ch)
}
