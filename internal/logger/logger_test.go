package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":  zerolog.DebugLevel,
		" WARN ": zerolog.WarnLevel,
		"error":  zerolog.ErrorLevel,
		"":       zerolog.InfoLevel,
		"bogus":  zerolog.InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
	if ValidLevel("bogus") {
		t.Error("bogus should not be a valid level")
	}
	if !ValidLevel("trace") {
		t.Error("trace should be valid")
	}
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf)
	ctx := WithContext(context.Background(), WithFields(l, map[string]any{"request_id": "abc"}))

	got := FromContext(ctx)
	got.Info().Msg("hello")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, buf.String())
	}
	if line["request_id"] != "abc" || line["message"] != "hello" {
		t.Errorf("line = %v", line)
	}
	if _, ok := line["time"]; !ok {
		t.Error("expected a timestamp")
	}
}

func TestFromContextWithoutLogger(t *testing.T) {
	l := FromContext(context.Background())
	if l.GetLevel() != zerolog.Disabled {
		t.Errorf("level = %v, want disabled", l.GetLevel())
	}
}
