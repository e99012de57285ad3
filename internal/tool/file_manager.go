package tool

import (
	"fmt"
	"strings"
)

// FileManager is the ordered list of file paths an agent run was given
// (spec.md's createAgent `files` option), grounded on the reference
// FileManager: indexes are the only handle a tool's `file_indexes`
// parameter ever sees, keeping absolute filesystem paths out of the
// conversation the LLM reads.
type FileManager struct {
	paths []string
}

// NewFileManager wraps paths. A nil or empty slice is a valid, empty
// FileManager.
func NewFileManager(paths []string) *FileManager {
	return &FileManager{paths: paths}
}

// IsEmpty reports whether no files were provided.
func (m *FileManager) IsEmpty() bool {
	return len(m.paths) == 0
}

// GetPath returns the path at i, or an error naming the out-of-range
// index (matching the reference's ValueError("File index N out of
// range") text, including for negative indexes).
func (m *FileManager) GetPath(i int) (string, error) {
	if i < 0 || i >= len(m.paths) {
		return "", fmt.Errorf("File index %d out of range", i)
	}
	return m.paths[i], nil
}

// GetPaths resolves each index in order, failing on the first
// out-of-range one.
func (m *FileManager) GetPaths(indexes []int) ([]string, error) {
	out := make([]string, 0, len(indexes))
	for _, i := range indexes {
		p, err := m.GetPath(i)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// FormatContext renders the file list the way the system prompt presents
// it to the LLM: empty string when there are no files, otherwise one
// "Files:" header followed by one "- [i] path" line per file.
func (m *FileManager) FormatContext() string {
	if m.IsEmpty() {
		return ""
	}
	var b strings.Builder
	b.WriteString("Files:")
	for i, p := range m.paths {
		fmt.Fprintf(&b, "\n- [%d] %s", i, p)
	}
	return b.String()
}
