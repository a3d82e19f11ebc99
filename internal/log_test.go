package internal

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"ERROR":   LogLevelError,
		"warn":    LogLevelWarn,
		" debug ": LogLevelDebug,
		"TRACE":   LogLevelTrace,
		"":        LogLevelInfo,
		"verbose": LogLevelInfo,
	}
	for input, want := range tests {
		if got := ParseLogLevel(input); got != want {
			t.Errorf("ParseLogLevel(%q) = %d, want %d", input, got, want)
		}
	}
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerTo(&buf, LogLevelWarn, false)

	l.Info("hidden %d", 1)
	l.Warn("shown %d", 2)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, "shown 2") {
		t.Errorf("expected warn record, got: %s", out)
	}
}

func TestLoggerWithAddsAttributes(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerTo(&buf, LogLevelInfo, true).With("subject_id", "subj-7")

	l.Info("validated")

	if !strings.Contains(buf.String(), `"subject_id":"subj-7"`) {
		t.Errorf("expected structured attribute, got: %s", buf.String())
	}
}

func TestTraceLevel(t *testing.T) {
	var buf bytes.Buffer
	NewLoggerTo(&buf, LogLevelTrace, false).Trace("deep %s", "detail")
	if !strings.Contains(buf.String(), "deep detail") {
		t.Errorf("expected trace record, got: %s", buf.String())
	}
}
