package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T, level zapcore.Level) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(level)
	Set(zap.New(core))
	return logs
}

func TestInit(t *testing.T) {
	Init()
	assert.NotNil(t, log)
	assert.NotNil(t, L())
}

func TestInfo(t *testing.T) {
	logs := observe(t, zapcore.InfoLevel)

	Info("test message", "member_id", 7)

	entries := logs.All()
	assert.Len(t, entries, 1)
	assert.Equal(t, "test message", entries[0].Message)
	assert.Equal(t, int64(7), entries[0].ContextMap()["member_id"])
}

func TestError(t *testing.T) {
	logs := observe(t, zapcore.InfoLevel)

	Error("test error")

	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
}

func TestDebugFilteredAtInfo(t *testing.T) {
	logs := observe(t, zapcore.InfoLevel)

	Debug("hidden")
	Debugf("hidden %d", 1)

	assert.Equal(t, 0, logs.Len())
}

func TestFormatted(t *testing.T) {
	logs := observe(t, zapcore.DebugLevel)

	Infof("test %s", "message")
	Errorf("test %s", "error")
	Debugf("test %s", "debug")
	Warnf("test %s", "warn")

	messages := make([]string, 0, logs.Len())
	for _, e := range logs.All() {
		messages = append(messages, e.Message)
	}
	assert.Equal(t, []string{"test message", "test error", "test debug", "test warn"}, messages)
}

func TestWithError(t *testing.T) {
	logs := observe(t, zapcore.InfoLevel)

	WithError(assert.AnError).Info("test with error")

	entries := logs.All()
	assert.Len(t, entries, 1)
	assert.Contains(t, entries[0].ContextMap(), "error")
}

func TestWithFields(t *testing.T) {
	logs := observe(t, zapcore.InfoLevel)

	WithFields(map[string]interface{}{"key1": "value1", "key2": 123}).Info("test with fields")

	ctx := logs.All()[0].ContextMap()
	assert.Equal(t, "value1", ctx["key1"])
	assert.Equal(t, int64(123), ctx["key2"])
}

func TestBuildJSON(t *testing.T) {
	var buf bytes.Buffer
	l := build(Options{Level: "warn"}, &buf)

	l.Info("dropped")
	l.Warn("kept")
	_ = l.Sync()

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), `"msg":"kept"`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("nonsense"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
}
