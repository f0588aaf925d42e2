package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/gofrs/flock"
)

// sessionLockPath derives a stable lock file name for an endpoint. The
// endpoint is hashed so URI characters never leak into the filesystem name.
func sessionLockPath(lockDir, endpoint string) string {
	sum := sha256.Sum256([]byte(endpoint))
	return filepath.Join(lockDir, "chainenv-"+hex.EncodeToString(sum[:8])+".lock")
}

// acquireSessionLock takes the exclusive per-endpoint session lock without
// blocking. A lock held elsewhere means another chainenv process owns a
// session against the same endpoint: the cross-process shape of
// ErrAlreadyActive.
func acquireSessionLock(lockDir, endpoint string) (*flock.Flock, error) {
	fl := flock.New(sessionLockPath(lockDir, endpoint))
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire session lock %s: %w", fl.Path(), err)
	}
	if !locked {
		return nil, fmt.Errorf("endpoint %s is held by another session: %w", endpoint, ErrAlreadyActive)
	}
	return fl, nil
}

// releaseSessionLock releases the lock and closes its file descriptor.
// The lock file is intentionally left on disk: removing it could invalidate
// a lock concurrently acquired by another process. Best-effort; errors are
// logged at debug level.
func releaseSessionLock(log *slog.Logger, fl *flock.Flock) {
	if fl == nil {
		return
	}
	if err := fl.Close(); err != nil {
		log.Debug("release session lock", "path", fl.Path(), "error", err)
	}
}
