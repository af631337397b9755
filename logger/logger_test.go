package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"":        INFO,
		"debug":   DEBUG,
		"INFO":    INFO,
		"Warning": WARN,
		" error ": ERROR,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil {
			t.Fatalf("ParseLevel(%q) returned error: %v", in, err)
		}
		if got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}

	if _, err := ParseLevel("verbose"); err == nil {
		t.Error("Expected error for unknown level")
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, WARN)
	defer SetOutput(&bytes.Buffer{}, INFO)

	Infof("job %s queued", "job-1")
	Warnf("asset %s exists", "output-1")
	Error("cleanup failed")

	out := buf.String()
	if strings.Contains(out, "job-1") {
		t.Errorf("INFO message should be filtered at WARN level, got %q", out)
	}
	if !strings.Contains(out, "[WARN]  ") || !strings.Contains(out, "asset output-1 exists") {
		t.Errorf("Expected warning in output, got %q", out)
	}
	if !strings.Contains(out, "[ERROR] ") {
		t.Errorf("Expected error in output, got %q", out)
	}
}
