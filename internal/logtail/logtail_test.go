package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestRead(t *testing.T) {
	// Create a temporary log file
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	// Write 10 lines of content
	var content strings.Builder
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		expectedAll = append(expectedAll, line)
	}

	if err := os.WriteFile(logPath, []byte(content.String()), 0644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{
			name:     "read all (0)",
			maxLines: 0,
			expected: expectedAll,
		},
		{
			name:     "read all (negative)",
			maxLines: -1,
			expected: expectedAll,
		},
		{
			name:     "read partial (5)",
			maxLines: 5,
			expected: expectedAll[5:],
		},
		{
			name:     "read exactly all (10)",
			maxLines: 10,
			expected: expectedAll,
		},
		{
			name:     "read more than exists (20)",
			maxLines: 20,
			expected: expectedAll,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(logPath, tt.maxLines)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Read() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRead_MissingFile(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "nope.log"), 10)
	if err != nil || got != nil {
		t.Fatalf("Read() = %v, %v; want nil, nil", got, err)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		level     string
		message   string
		attrs     []Attr
		formatted string
	}{
		{
			name:      "plain line",
			input:     "something happened",
			message:   "something happened",
			formatted: "something happened",
		},
		{
			name:      "empty line",
			input:     "",
			formatted: "",
		},
		{
			name:    "quoted message with attrs",
			input:   `time=2025-10-08T21:01:05.123Z level=WARN msg="page fetch failed" page=3 error="dial tcp: timeout"`,
			level:   "WARN",
			message: "page fetch failed",
			attrs:   []Attr{{"page", "3"}, {"error", "dial tcp: timeout"}},
		},
		{
			name:      "bare message no time",
			input:     `level=info msg=started`,
			level:     "INFO",
			message:   "started",
			formatted: "INFO started",
		},
		{
			name:      "broken quoting falls back to raw",
			input:     `level=INFO msg="unterminated`,
			message:   `level=INFO msg="unterminated`,
			formatted: `level=INFO msg="unterminated`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.input)
			if got.Level != tt.level || got.Message != tt.message {
				t.Fatalf("Parse() = level %q msg %q, want %q %q", got.Level, got.Message, tt.level, tt.message)
			}
			if !reflect.DeepEqual(got.Attrs, tt.attrs) {
				t.Fatalf("Parse() attrs = %#v, want %#v", got.Attrs, tt.attrs)
			}
			if got.Raw != tt.input {
				t.Fatalf("Raw = %q", got.Raw)
			}
			if tt.formatted != "" && got.Format() != tt.formatted {
				t.Fatalf("Format() = %q, want %q", got.Format(), tt.formatted)
			}
		})
	}
}

func TestFormat_IncludesTimeAndAttrs(t *testing.T) {
	e := Parse(`time=2025-10-08T21:01:05Z level=ERROR msg=boom url=mem://x`)
	if e.Time.IsZero() {
		t.Fatalf("time not parsed")
	}
	got := e.Format()
	if !strings.HasSuffix(got, "ERROR boom url=mem://x") {
		t.Fatalf("Format() = %q", got)
	}
	if len(got) != len("15:04:05 ERROR boom url=mem://x") {
		t.Fatalf("Format() = %q, want a leading clock time", got)
	}
}
