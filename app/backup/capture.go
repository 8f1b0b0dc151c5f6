package backup

import (
	"bytes"
	"strings"
	"sync"
)

// tailWriter keeps the last lines written to it, used to capture stderr of client tools.
// Thread safe for concurrent writes.
type tailWriter struct {
	maxLines int
	lines    []string
	mu       sync.Mutex
}

func newTailWriter(maxLines int) *tailWriter {
	return &tailWriter{maxLines: maxLines}
}

// Write satisfies io.Writer, keeps non-empty lines in a circular buffer
func (t *tailWriter) Write(p []byte) (n int, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for line := range bytes.SplitSeq(p, []byte("\n")) {
		line = bytes.TrimRight(line, "\r")
		if len(line) == 0 {
			continue
		}
		if len(t.lines) >= t.maxLines {
			t.lines = t.lines[1:]
		}
		t.lines = append(t.lines, string(line))
	}
	return len(p), nil
}

// String returns captured lines joined with newlines
func (t *tailWriter) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.Join(t.lines, "\n")
}
