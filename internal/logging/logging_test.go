package logging

import (
	"bytes"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var linePrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2} -- `)

func TestNew_LineFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, 0)

	log.Info("Updating a: OK", "host", "a", "result", "OK")

	line := strings.TrimSuffix(buf.String(), "\n")
	require.NotEmpty(t, line)
	assert.Regexp(t, linePrefix, line)
	assert.Contains(t, line, " -- Updating a: OK -- ")
	assert.Contains(t, line, `"host": "a"`)
	assert.Contains(t, line, `"result": "OK"`)
	assert.NotContains(t, line, "INFO")
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
}

func TestNew_NoFields(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, 0).Info("forcing update")

	line := strings.TrimSuffix(buf.String(), "\n")
	assert.Regexp(t, linePrefix, line)
	assert.True(t, strings.HasSuffix(line, " -- forcing update"), "got %q", line)
}

func TestNew_Verbosity(t *testing.T) {
	tests := []struct {
		name      string
		verbosity int
		wantDebug bool
	}{
		{"default", 0, false},
		{"negative clamps to default", -3, false},
		{"debug", 1, true},
		{"trace", 2, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			New(&buf, tt.verbosity).V(1).Info("debug line")
			assert.Equal(t, tt.wantDebug, strings.Contains(buf.String(), "debug line"))
		})
	}
}

func TestNew_Error(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, 0).Error(errors.New("boom"), "resolving public IP")

	out := buf.String()
	assert.Contains(t, out, "resolving public IP")
	assert.Contains(t, out, `"error": "boom"`)
}

func TestNew_WithName(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, 0).WithName("cache").Info("cache written")

	// Logger names are not rendered.
	line := strings.TrimSuffix(buf.String(), "\n")
	assert.Regexp(t, linePrefix, line)
	assert.True(t, strings.HasSuffix(line, " -- cache written"), "got %q", line)
}
