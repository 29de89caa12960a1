package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/maksimkurb/fw-ipsets/src/internal/log"
)

func CloseOrWarn(file io.Closer) {
	if err := file.Close(); err != nil {
		log.Warnf("Failed to close file: %v", err)
	}
}

// RemoveOrWarn deletes a file, ignoring files that are already gone.
func RemoveOrWarn(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warnf("Failed to remove file %s: %v", path, err)
	}
}

// GetAbsolutePath returns path if it was absolute, otherwise joins it with baseDir
func GetAbsolutePath(path, baseDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Clean(filepath.Join(baseDir, path))
}

// WriteTempFile writes content to a new private file in the system temp dir.
// The returned cleanup removes the file and is safe to call more than once.
func WriteTempFile(pattern string, content []byte) (string, func(), error) {
	file, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", func() {}, fmt.Errorf("failed to create temp file: %w", err)
	}
	path := file.Name()
	cleanup := func() { RemoveOrWarn(path) }

	if _, err := file.Write(content); err != nil {
		CloseOrWarn(file)
		cleanup()
		return "", func() {}, fmt.Errorf("failed to write temp file %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		cleanup()
		return "", func() {}, fmt.Errorf("failed to close temp file %s: %w", path, err)
	}

	return path, cleanup, nil
}
