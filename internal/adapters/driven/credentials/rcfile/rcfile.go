// Package rcfile reads exported variables from shell rc files such as
// ~/.zshrc or ~/.bashrc. It never executes or modifies the file.
package rcfile

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/custodia-labs/flowsync/internal/core/ports/driven"
)

// Ensure Source implements the interface.
var _ driven.CredentialSource = (*Source)(nil)

// maxLine bounds a single rc line; long PATH exports are common.
const maxLine = 1 << 20

// Source loads variables from one rc file.
type Source struct {
	Path string
}

// NewSource creates a source for the rc file at path.
func NewSource(path string) *Source {
	return &Source{Path: path}
}

// Load parses the file. A missing file, or an empty Path, yields an empty map.
func (s *Source) Load(ctx context.Context) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Path == "" {
		return map[string]string{}, nil
	}

	f, err := os.Open(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("open rc file: %w", err)
	}
	defer f.Close()

	vars, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("read rc file %s: %w", s.Path, err)
	}
	return vars, nil
}

// Parse extracts KEY=value assignments, with or without a leading export.
// One layer of matching quotes is removed, comments and blank lines are
// ignored, and later assignments override earlier ones. Lines that are not
// plain assignments (functions, conditionals, aliases) are skipped.
func Parse(r io.Reader) (map[string]string, error) {
	vars := make(map[string]string)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)
	for scanner.Scan() {
		key, value, ok := parseLine(scanner.Text())
		if ok {
			vars[key] = value
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return vars, nil
}

func parseLine(line string) (key, value string, ok bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", "", false
	}

	if rest, found := strings.CutPrefix(line, "export"); found && rest != "" && (rest[0] == ' ' || rest[0] == '\t') {
		line = strings.TrimSpace(rest)
	}

	key, value, found := strings.Cut(line, "=")
	if !found || !isIdentifier(key) {
		return "", "", false
	}
	return key, unquote(value), true
}

// unquote strips one layer of quotes. A quoted value ends at its closing
// quote and anything after it, such as a comment, is dropped. Unquoted
// values lose any trailing " # comment".
func unquote(value string) string {
	value = strings.TrimSpace(value)
	if value != "" && (value[0] == '"' || value[0] == '\'') {
		if end := strings.IndexByte(value[1:], value[0]); end >= 0 {
			return value[1 : 1+end]
		}
	}
	if i := strings.Index(value, " #"); i >= 0 {
		value = strings.TrimSpace(value[:i])
	}
	return value
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c == '_', c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
