// Package localfile stores workflow documents as JSON files on local disk
// and watches them for edits.
package localfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/flowsync/internal/core/domain"
	"github.com/custodia-labs/flowsync/internal/core/ports/driven"
	"github.com/custodia-labs/flowsync/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.LocalWorkflowStore = (*Store)(nil)

const (
	// FileMode is the permission used for workflow documents.
	FileMode = 0o644

	// DirMode is the permission used for created parent directories.
	DirMode = 0o755

	backupInfix = ".backup."
)

// Store reads and writes workflow documents on the local filesystem.
type Store struct {
	backupKeep int
	now        func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithBackupKeep sets how many backups per file Backup retains.
// Zero or less keeps every backup.
func WithBackupKeep(n int) Option {
	return func(s *Store) {
		s.backupKeep = n
	}
}

// NewStore creates a local file store that keeps domain.DefaultBackupKeep
// backups per file unless configured otherwise.
func NewStore(opts ...Option) *Store {
	s := &Store{
		backupKeep: domain.DefaultBackupKeep,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Read loads the document at path. Fields outside the editable workflow
// content (id, versionId, tags and the like, present in editor exports)
// are dropped while decoding.
func (s *Store) Read(ctx context.Context, path string) (*driven.LocalWorkflow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
		}
		return nil, fmt.Errorf("open workflow file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat workflow file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", domain.ErrInvalidInput, path)
	}

	wf, err := decodeWorkflow(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return &driven.LocalWorkflow{
		Path:       path,
		Workflow:   wf,
		ModifiedAt: info.ModTime(),
	}, nil
}

// Write replaces the document at path. The content goes to a temporary
// file in the same directory first and is renamed over the target, so a
// concurrent reader never sees a partial document.
func (s *Store) Write(ctx context.Context, path string, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, DirMode); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, FileMode); err != nil {
		cleanup()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("replace workflow file: %w", err)
	}
	return nil
}

// Backup copies the current document to <path>.backup.<unixmillis> and
// then deletes the oldest backups of path beyond the retention limit.
func (s *Store) Backup(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read workflow file: %w", err)
	}

	backupPath := fmt.Sprintf("%s%s%d", path, backupInfix, s.now().UnixMilli())
	if err := os.WriteFile(backupPath, content, FileMode); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}

	if err := s.pruneBackups(path); err != nil {
		logger.Warn("prune backups of %s: %v", path, err)
	}
	return backupPath, nil
}

// pruneBackups removes all but the newest backupKeep backups of path.
// Files whose suffix is not a millisecond timestamp are left alone.
func (s *Store) pruneBackups(path string) error {
	if s.backupKeep <= 0 {
		return nil
	}

	dir := filepath.Dir(path)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	type backup struct {
		name  string
		stamp int64
	}
	prefix := filepath.Base(path) + backupInfix
	var backups []backup
	for _, entry := range entries {
		suffix, ok := strings.CutPrefix(entry.Name(), prefix)
		if !ok || entry.IsDir() {
			continue
		}
		stamp, err := strconv.ParseInt(suffix, 10, 64)
		if err != nil {
			continue
		}
		backups = append(backups, backup{name: entry.Name(), stamp: stamp})
	}
	if len(backups) <= s.backupKeep {
		return nil
	}

	slices.SortFunc(backups, func(a, b backup) int {
		switch {
		case a.stamp < b.stamp:
			return -1
		case a.stamp > b.stamp:
			return 1
		}
		return 0
	})

	var errs []error
	for _, b := range backups[:len(backups)-s.backupKeep] {
		if err := os.Remove(filepath.Join(dir, b.name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func decodeWorkflow(r io.Reader) (domain.Workflow, error) {
	var wf domain.Workflow

	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&wf); err != nil {
		return wf, err
	}
	if dec.More() {
		return wf, errors.New("unexpected data after workflow document")
	}
	return wf.Normalised(), nil
}
