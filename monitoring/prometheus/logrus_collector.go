package prometheus

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"
)

// LogrusCollector is a logrus hook counting emitted log entries per level and
// subsystem prefix. Warn and error rates are the cheapest signal that a job
// cycle is degrading before the healthz endpoint flips.
type LogrusCollector struct {
	counterVec *prometheus.CounterVec
}

var (
	hookLevels = []logrus.Level{logrus.InfoLevel, logrus.WarnLevel, logrus.ErrorLevel}
	logCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "log_entries_total",
		Help: "Total number of log messages.",
	}, []string{"level", "prefix"})
)

const prefixKey = "prefix"
const defaultPrefix = "global"

// NewLogrusCollector returns a hook backed by the package level counter, so
// it must be attached to logrus at most once per process.
func NewLogrusCollector() *LogrusCollector {
	return &LogrusCollector{
		counterVec: logCounter,
	}
}

// Fire is called on every log call.
func (hook *LogrusCollector) Fire(entry *logrus.Entry) error {
	prefix := defaultPrefix
	if prefixValue, ok := entry.Data[prefixKey]; ok {
		prefix, ok = prefixValue.(string)
		if !ok {
			return errors.New("prefix is not a string")
		}
	}
	hook.counterVec.WithLabelValues(entry.Level.String(), prefix).Inc()
	return nil
}

// Levels returns the levels this hook counts.
func (_ *LogrusCollector) Levels() []logrus.Level {
	return hookLevels
}
