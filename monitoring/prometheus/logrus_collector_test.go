package prometheus

import (
	"testing"

	"github.com/lidofinance/validator-ejector/testing/assert"
	"github.com/lidofinance/validator-ejector/testing/require"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
)

func TestLogrusCollector(t *testing.T) {
	hook := NewLogrusCollector()
	logger := logrus.New()
	logger.AddHook(hook)

	tests := []struct {
		name   string
		count  int
		prefix string
		level  logrus.Level
	}{
		{"info message with empty prefix", 3, "", logrus.InfoLevel},
		{"warn message with empty prefix", 2, "", logrus.WarnLevel},
		{"error message with prefix", 1, "foo", logrus.ErrorLevel},
		{"info message with prefix", 3, "foo", logrus.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prefix := defaultPrefix
			if tt.prefix != "" {
				prefix = tt.prefix
			}
			before := promtest.ToFloat64(logCounter.WithLabelValues(tt.level.String(), prefix))
			for i := 0; i < tt.count; i++ {
				logExampleMessage(logger, tt.prefix, tt.level)
			}
			after := promtest.ToFloat64(logCounter.WithLabelValues(tt.level.String(), prefix))
			assert.Equal(t, float64(tt.count), after-before)
		})
	}
}

func TestLogrusCollectorLevels(t *testing.T) {
	hook := NewLogrusCollector()
	levels := hook.Levels()
	require.Equal(t, 3, len(levels))
}

func logExampleMessage(logger *logrus.Logger, prefix string, level logrus.Level) {
	entry := logrus.NewEntry(logger)
	if prefix != "" {
		entry = entry.WithField(prefixKey, prefix)
	}
	switch level {
	case logrus.InfoLevel:
		entry.Info("test info message")
	case logrus.WarnLevel:
		entry.Warn("test warn message")
	case logrus.ErrorLevel:
		entry.Error("test error message")
	}
}
