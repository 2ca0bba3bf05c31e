// Package fs provides file output helpers for directory exports.
package fs

import (
	"os"
	"path/filepath"
)

// AtomicFile writes to a temporary file next to its target and moves it
// into place on Commit, so readers never see a partial export.
type AtomicFile struct {
	*os.File
	path string
}

// CreateAtomic creates the temporary file for path, creating parent
// directories as needed.
func CreateAtomic(path string) (*AtomicFile, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, err
	}
	return &AtomicFile{File: f, path: path}, nil
}

// Commit closes the temporary file and renames it over the target.
func (f *AtomicFile) Commit() error {
	if err := f.File.Close(); err != nil {
		os.Remove(f.Name())
		return err
	}
	if err := os.Chmod(f.Name(), 0644); err != nil {
		os.Remove(f.Name())
		return err
	}
	return os.Rename(f.Name(), f.path)
}

// Abort closes and removes the temporary file, leaving the target as it
// was. It is safe to call after Commit.
func (f *AtomicFile) Abort() error {
	_ = f.File.Close()
	if err := os.Remove(f.Name()); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
