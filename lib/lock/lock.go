package lock

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"syscall"
	"time"
)

// ErrHeld is returned when another live process owns the lock.
var ErrHeld = errors.New("lock: held by another process")

// FileLock is an exclusive, process-scoped lock backed by a file holding
// the owner's PID. It keeps two instances from writing the same local
// storage.
type FileLock struct {
	dir    string
	logger *slog.Logger
}

func NewFileLock(dir string, logger *slog.Logger) *FileLock {
	if dir == "" {
		dir = os.TempDir()
	}
	return &FileLock{dir: filepath.Join(dir, "marquee-locks"), logger: logger}
}

// TryLock attempts to acquire key until timeout elapses. A lock left
// behind by a process that no longer runs is taken over.
func (fl *FileLock) TryLock(ctx context.Context, key string, timeout time.Duration) error {
	lockFile := fl.path(key)

	if err := os.MkdirAll(filepath.Dir(lockFile), 0750); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	deadline := time.Now().Add(timeout)
	for {
		// #nosec G304 - lockFile is built by path from a fixed directory
		file, err := os.OpenFile(lockFile, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
		if err == nil {
			_, werr := fmt.Fprintf(file, "%d\n%d\n", os.Getpid(), time.Now().Unix())
			cerr := file.Close()
			if werr != nil || cerr != nil {
				_ = os.Remove(lockFile)
				return fmt.Errorf("failed to write lock file: %w", errors.Join(werr, cerr))
			}
			fl.logger.Debug("Acquired lock", slog.String("key", key), slog.String("file", lockFile))
			return nil
		}
		if !os.IsExist(err) {
			return fmt.Errorf("failed to create lock file: %w", err)
		}

		if owner, alive := ownerAlive(lockFile); !alive {
			fl.logger.Warn("Removing stale lock file", slog.String("file", lockFile), slog.Int("pid", owner))
			if err := os.Remove(lockFile); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("failed to remove stale lock file: %w", err)
			}
			continue
		}

		if !time.Now().Before(deadline) {
			return fmt.Errorf("%w: %s", ErrHeld, key)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
}

// Unlock releases the lock for the given key
func (fl *FileLock) Unlock(key string) error {
	lockFile := fl.path(key)

	if err := os.Remove(lockFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lock file: %w", err)
	}

	fl.logger.Debug("Released lock", slog.String("key", key), slog.String("file", lockFile))
	return nil
}

func (fl *FileLock) path(key string) string {
	return filepath.Clean(filepath.Join(fl.dir, filepath.Base(key)+".lock"))
}

// ownerAlive reads the PID on the first line of lockFile and probes it.
// Unreadable files count as stale.
func ownerAlive(lockFile string) (int, bool) {
	// #nosec G304 - see TryLock
	f, err := os.Open(lockFile)
	if err != nil {
		return 0, false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return 0, false
	}
	pid, err := strconv.Atoi(scanner.Text())
	if err != nil || pid <= 0 {
		return 0, false
	}
	if pid == os.Getpid() {
		return pid, true
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return pid, false
	}
	return pid, proc.Signal(syscall.Signal(0)) == nil
}
