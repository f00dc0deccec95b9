//go:build windows

// Package open creates files meant to hold credentials.
package open

import (
	"os"

	winacl "github.com/hectane/go-acl"
)

// Private creates path as an empty file readable and writable only by
// the current user. An existing file is truncated.
//
// Windows cannot apply an ACL at creation, so the mode is enforced
// right after, before anything is written.
func Private(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_TRUNC|os.O_CREATE|os.O_RDWR, os.FileMode(0600))
	if err != nil {
		return nil, err
	}
	if err := winacl.Chmod(path, os.FileMode(0600)); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}
