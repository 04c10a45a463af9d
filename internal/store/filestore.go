// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pennyworth/penny-tui/internal/util"
)

// ============================================================================
// FILE STORE
// ============================================================================

// FileStore keeps one JSON file per key under a directory. Writes go through
// an atomic temp-file rename, so a crash never leaves a torn state file.
// Files are 0600: conversation state is personal financial data.
type FileStore struct {
	dir string
}

// NewFileStore creates a store rooted at dir. The directory is created on
// first write, not here, so constructing a store never fails.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Dir returns the backing directory.
func (fs *FileStore) Dir() string {
	return fs.dir
}

// Get reads the value for key. Any read failure reports absence; the caller
// falls back to its empty default.
func (fs *FileStore) Get(key string) (string, bool) {
	data, err := os.ReadFile(fs.path(key))
	if err != nil {
		return "", false
	}
	return string(data), true
}

// Set writes the value for key atomically.
func (fs *FileStore) Set(key, value string) error {
	return util.AtomicWriteFileWithDir(fs.path(key), []byte(value), 0600, 0700)
}

// Delete removes the file for key. A missing file is not an error.
func (fs *FileStore) Delete(key string) error {
	err := os.Remove(fs.path(key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// path maps a key to its file, flattening any separator a hostile key could
// carry so every entry stays inside the store directory.
func (fs *FileStore) path(key string) string {
	safe := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(key)
	return filepath.Join(fs.dir, safe+".json")
}
