package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// lockStaleAfter is how old a lock file may be before it is considered
// abandoned by a crashed process.
const lockStaleAfter = 10 * time.Minute

// Lock is an exclusive repo lock held for the duration of an apply, so
// two concurrent applies cannot rewrite the same template files.
type Lock struct {
	path string
	id   string
}

// Acquire takes the repo lock under root/.accord/. A stale lock is
// removed; a fresh one fails the acquisition.
func Acquire(root string) (*Lock, error) {
	lockPath := filepath.Join(root, ".accord", "apply.lock")
	if err := os.MkdirAll(filepath.Dir(lockPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	if info, err := os.Stat(lockPath); err == nil {
		if time.Since(info.ModTime()) > lockStaleAfter {
			os.Remove(lockPath)
		} else {
			return nil, fmt.Errorf("repo is locked by another apply (lock file: %s). "+
				"If this is an error, remove the lock file manually", lockPath)
		}
	}

	l := &Lock{path: lockPath, id: uuid.NewString()}
	content := fmt.Sprintf("id=%s\npid=%d\ntime=%s\n",
		l.id, os.Getpid(), time.Now().UTC().Format(time.RFC3339))
	if err := os.WriteFile(lockPath, []byte(content), 0644); err != nil {
		return nil, fmt.Errorf("failed to create lock file: %w", err)
	}
	return l, nil
}

// Release removes the lock file.
func (l *Lock) Release() error {
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lock file: %w", err)
	}
	return nil
}
