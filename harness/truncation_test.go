package harness

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateOutputUnderLimit(t *testing.T) {
	out := TruncateOutput("short", 100, TruncateHeadTail)
	assert.Equal(t, "short", out)
}

func TestTruncateOutputHeadTail(t *testing.T) {
	input := strings.Repeat("a", 500) + strings.Repeat("z", 500)
	out := TruncateOutput(input, 200, TruncateHeadTail)

	assert.True(t, strings.HasPrefix(out, strings.Repeat("a", 100)))
	assert.True(t, strings.HasSuffix(out, strings.Repeat("z", 100)))
	assert.Contains(t, out, "800 characters were removed from the middle")
}

func TestTruncateOutputTail(t *testing.T) {
	input := strings.Repeat("a", 500) + strings.Repeat("z", 100)
	out := TruncateOutput(input, 100, TruncateTail)

	assert.True(t, strings.HasSuffix(out, strings.Repeat("z", 100)))
	assert.Contains(t, out, "First 500 characters were removed")
}

func TestTruncateLines(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 100; i++ {
		sb.WriteString("line\n")
	}
	out := TruncateLines(sb.String(), 10)

	assert.Contains(t, out, "lines omitted")
	assert.Less(t, len(strings.Split(out, "\n")), 15)
}

func TestTruncateLinesUnderLimit(t *testing.T) {
	input := "a\nb\nc"
	assert.Equal(t, input, TruncateLines(input, 10))
}

func TestTruncateToolOutputPerToolLimits(t *testing.T) {
	big := strings.Repeat("x", 60000)

	// read_file allows 50000 chars.
	readOut := TruncateToolOutput(big, "read_file")
	assert.Less(t, len(readOut), 51000)

	// write_file confirmations are capped much tighter.
	writeOut := TruncateToolOutput(big, "write_file")
	assert.Less(t, len(writeOut), 1500)
}

func TestTruncateToolOutputUnknownToolDefaults(t *testing.T) {
	big := strings.Repeat("x", 60000)
	out := TruncateToolOutput(big, "unknown_tool")
	assert.Less(t, len(out), 31000)
}

func TestTruncateToolOutputAppliesLineLimit(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 1000; i++ {
		sb.WriteString("line\n")
	}
	out := TruncateToolOutput(sb.String(), "run_command")
	assert.LessOrEqual(t, len(strings.Split(out, "\n")), 260)
}
