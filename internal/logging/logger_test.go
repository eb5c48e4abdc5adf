// ABOUTME: Tests for the tagged logger
// ABOUTME: Covers level filtering, per-tag overrides and shared destinations
package logging

import (
	"bytes"
	"strings"
	"testing"
)

func newTestLogger(level Level) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	root := &Logger{sink: &sink{out: &buf, level: level}}
	return root, &buf
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
		ok   bool
	}{
		{"error", Error, true},
		{"W", Warn, true},
		{"info", Info, true},
		{"d", Debug, true},
		{"verbose", Verbose, true},
		{"trace", MaxLevel, true},
		{"5", Level(5), true},
		{"-3", Info, false},
		{"10", Info, false},
		{"loud", Info, false},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("ParseLevel(%q) error = %v, want ok=%v", tt.in, err, tt.ok)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	root, buf := newTestLogger(Warn)
	log := root.WithTag("filter-test")

	log.Info("hidden")
	log.Warn("shown %d", 1)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message should be filtered at Warn level: %q", out)
	}
	if !strings.Contains(out, "shown 1") {
		t.Errorf("warn message missing: %q", out)
	}
	if !strings.Contains(out, "filter-test") {
		t.Errorf("tag missing from output: %q", out)
	}
}

func TestTagOverride(t *testing.T) {
	root, buf := newTestLogger(Error)
	SetTagLevel("override-test", Verbose)

	root.WithTag("override-test").Verbose("chatty")
	root.WithTag("other-tag").Info("quiet")

	out := buf.String()
	if !strings.Contains(out, "chatty") {
		t.Errorf("override tag should log verbose messages: %q", out)
	}
	if strings.Contains(out, "quiet") {
		t.Errorf("non-overridden tag should stay at Error: %q", out)
	}
}

func TestSetOutputSharedByDerivedLoggers(t *testing.T) {
	root, _ := newTestLogger(Info)
	child := root.WithTag("shared-test")

	var redirected bytes.Buffer
	root.SetOutput(&redirected)
	child.Info("after redirect")

	if !strings.Contains(redirected.String(), "after redirect") {
		t.Errorf("derived logger should follow root destination, got %q", redirected.String())
	}
}

func TestParseDirectives(t *testing.T) {
	if err := ParseDirectives("directive-test=debug, bogus=nope"); err == nil {
		t.Error("expected error for invalid directive")
	}
	level, ok := tagLevel("directive-test")
	if !ok || level != Debug {
		t.Errorf("expected directive-test at Debug, got %v (set=%v)", level, ok)
	}
}
