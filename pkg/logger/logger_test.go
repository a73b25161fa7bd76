package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelString(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{TraceLevel, "TRACE"},
		{DebugLevel, "DEBUG"},
		{InfoLevel, "INFO"},
		{WarnLevel, "WARN"},
		{ErrorLevel, "ERROR"},
		{Level(999), "UNKNOWN"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.level.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    Level
		wantErr bool
	}{
		{"trace", TraceLevel, false},
		{"DEBUG", DebugLevel, false},
		{"", InfoLevel, false},
		{" info ", InfoLevel, false},
		{"warning", WarnLevel, false},
		{"error", ErrorLevel, false},
		{"loud", InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoggerPrettyFormatting(t *testing.T) {
	l := New(Config{Level: InfoLevel, Component: "goproj"}, &bytes.Buffer{})

	entry := LogEntry{
		Time:      time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
		Level:     "INFO",
		Message:   "resolved inputs",
		Component: "goproj",
		Fields:    map[string]interface{}{"zeta": 1, "alpha": "a", "mid": true},
	}

	result := l.formatPretty(entry)
	for _, part := range []string{"2025-01-01 12:00:00", "[INFO]", "goproj:", "resolved inputs", "{alpha=a, mid=true, zeta=1}"} {
		assert.Contains(t, result, part)
	}
}

func TestLoggerJSONFormatting(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: InfoLevel, JSON: true, Component: "goproj"}, &buf)

	l.Log(InfoLevel, "artifact found", String("id", "counts"), Strings("labels", []string{"a/outputs", "b/outputs"}))

	var parsed LogEntry
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &parsed))
	assert.Equal(t, "artifact found", parsed.Message)
	assert.Equal(t, "INFO", parsed.Level)
	assert.Equal(t, "counts", parsed.Fields["id"])
	assert.Equal(t, "a/outputs,b/outputs", parsed.Fields["labels"])
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: WarnLevel}, &buf)

	l.Log(InfoLevel, "info message")
	l.Log(DebugLevel, "debug message")
	l.Log(WarnLevel, "warn message")
	l.Log(ErrorLevel, "error message")

	output := buf.String()
	assert.NotContains(t, output, "info message")
	assert.NotContains(t, output, "debug message")
	assert.Contains(t, output, "warn message")
	assert.Contains(t, output, "error message")
}

func TestErrField(t *testing.T) {
	f := Err(errors.New("boom"))
	assert.Equal(t, "error", f.Key)
	assert.Equal(t, "boom", f.Value)
	assert.Equal(t, "<nil>", Err(nil).Value)
}

func TestDefaultLogger(t *testing.T) {
	original := defaultLogger
	defer func() { defaultLogger = original }()

	require.NoError(t, Initialize(Config{Level: InfoLevel, Component: "test"}))
	var buf bytes.Buffer
	SetOutput(&buf)

	Info("default info")
	Debug("default debug")
	Warn("default warn")

	output := buf.String()
	assert.Contains(t, output, "default info")
	assert.Contains(t, output, "default warn")
	assert.NotContains(t, output, "default debug")

	// uninitialized logger must not panic
	defaultLogger = nil
	Warn("dropped")
	Debug("dropped")
	SetOutput(&buf)
}
