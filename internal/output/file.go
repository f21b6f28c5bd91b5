// Package output appends formatted summary blocks to a flat text file.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileSink appends summary blocks to a single file, creating it (and its
// parent directories) on first write. Writes are serialized so concurrent
// runs never interleave blocks.
type FileSink struct {
	mu   sync.Mutex
	path string
}

// NewFileSink returns a sink writing to the given path.
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

// Path returns the file the sink writes to.
func (s *FileSink) Path() string { return s.path }

// AppendLines appends each block to the file, separated by blank lines.
// Existing content is never truncated.
func (s *FileSink) AppendLines(lines []string) error {
	if len(lines) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory %q: %w", dir, err)
		}
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening output file %q: %w", s.path, err)
	}
	defer f.Close()

	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteString("\n\n")
	}
	if _, err := f.WriteString(b.String()); err != nil {
		return fmt.Errorf("writing output file %q: %w", s.path, err)
	}
	return nil
}
