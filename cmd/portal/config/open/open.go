//go:build !windows

// Package open creates files meant to hold credentials.
package open

import "os"

// Private creates path as an empty file readable and writable only by
// the current user. An existing file is truncated. The profile store
// keeps passwords, so it never leaves a wider mode behind.
func Private(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_TRUNC|os.O_CREATE|os.O_RDWR, os.FileMode(0600))
}
