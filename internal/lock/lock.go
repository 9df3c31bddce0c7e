// Package lock keeps a second process from appending to a log that is
// already open elsewhere.
package lock

import "errors"

const Suffix = ".lock"

var ErrLocked = errors.New("log already in use by another process")

// Path returns the lock file path for the log at path.
func Path(path string) string {
	return path + Suffix
}
