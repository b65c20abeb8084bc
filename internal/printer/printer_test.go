package printer

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevelGating(t *testing.T) {
	var buf bytes.Buffer
	s := &stream{w: &buf, colorize: false}

	SetLevel(LevelWarning)
	defer SetLevel(LevelInfo)

	s.Debugf("should not appear")
	s.Infof("should not appear either")
	if buf.Len() != 0 {
		t.Fatalf("expected nothing written below the minimum level, got %q", buf.String())
	}

	s.Warningf("hello %s", "world")
	if !strings.Contains(buf.String(), "hello world") {
		t.Fatalf("expected message to be written, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		"info":    LevelInfo,
		"warning": LevelWarning,
		"warn":    LevelWarning,
		"error":   LevelError,
	}
	for s, want := range cases {
		got, ok := ParseLevel(s)
		if !ok || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v, true", s, got, ok, want)
		}
	}

	if _, ok := ParseLevel("bogus"); ok {
		t.Error("expected an unrecognized level string to report ok=false")
	}
}
