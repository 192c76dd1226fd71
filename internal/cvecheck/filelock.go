package cvecheck

import (
	"os"
	"path/filepath"
	"syscall"

	"github.com/alien4friends/a4f-core/internal/a4ferr"
)

// lockDir takes an exclusive flock on dir/.lock, blocking until it is
// available, and returns a function that releases it. This is the file
// lock spec.md §5 requires so multiple concurrent processes don't refresh
// the NVD feed directory at once; there is no clearing-server or pgx
// analog for a purely local directory, so this stays on syscall.Flock.
func lockDir(dir string) (func(), error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, a4ferr.New("cvecheck.lockDir", a4ferr.KindInternal, "creating feed dir", err)
	}
	path := filepath.Join(dir, ".lock")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, a4ferr.New("cvecheck.lockDir", a4ferr.KindInternal, "opening lock file", err)
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		f.Close()
		return nil, a4ferr.New("cvecheck.lockDir", a4ferr.KindInternal, "acquiring flock", err)
	}
	return func() {
		syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
		f.Close()
	}, nil
}
