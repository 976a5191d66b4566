package cron

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
)

const defaultLockTTL = 2 * time.Hour

// Lock coordinates exclusive cron runs.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// FileLock implements Lock with an exclusively created lock file holding the
// owner id. A lock file older than the TTL is treated as abandoned.
type FileLock struct {
	path  string
	ttl   time.Duration
	owner string
	now   func() time.Time
}

// NewFileLock constructs a lock backed by the file at path.
func NewFileLock(path string, ttl time.Duration) (*FileLock, error) {
	if path == "" {
		return nil, errors.New("lock path is required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &FileLock{path: path, ttl: ttl, now: time.Now}, nil
}

// Acquire tries to own the lock, reclaiming it when the holder's file is stale.
func (l *FileLock) Acquire(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return false, fmt.Errorf("create lock directory: %w", err)
	}

	ok, err := l.create()
	if err != nil || ok {
		return ok, err
	}

	info, err := os.Stat(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return l.create()
		}
		return false, fmt.Errorf("stat lock: %w", err)
	}
	if l.now().Sub(info.ModTime()) < l.ttl {
		return false, nil
	}
	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("remove stale lock: %w", err)
	}
	return l.create()
}

func (l *FileLock) create() (bool, error) {
	file, err := os.OpenFile(l.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return false, nil
		}
		return false, fmt.Errorf("create lock: %w", err)
	}
	owner := uuid.NewString()
	_, writeErr := file.WriteString(owner)
	closeErr := file.Close()
	if writeErr != nil || closeErr != nil {
		_ = os.Remove(l.path)
		return false, fmt.Errorf("write lock owner: %w", multierr.Combine(writeErr, closeErr))
	}
	l.owner = owner
	return true, nil
}

// Release frees the lock only if the owner value still matches.
func (l *FileLock) Release(ctx context.Context) error {
	if l.owner == "" {
		return nil
	}
	value, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			l.owner = ""
			return nil
		}
		return fmt.Errorf("read lock owner: %w", err)
	}
	if strings.TrimSpace(string(value)) != l.owner {
		l.owner = ""
		return nil
	}
	if err := os.Remove(l.path); err != nil {
		return fmt.Errorf("delete lock: %w", err)
	}
	l.owner = ""
	return nil
}
