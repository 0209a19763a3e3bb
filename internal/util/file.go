package util

import (
	"os"
	"path/filepath"
)

// ExpandGlobs expands a list of file paths, including those with glob patterns.
func ExpandGlobs(files []string) []string {
	var expandedFiles []string
	for _, file := range files {
		if matches, err := filepath.Glob(file); err == nil && len(matches) > 0 {
			expandedFiles = append(expandedFiles, matches...)
		} else {
			expandedFiles = append(expandedFiles, file)
		}
	}
	return expandedFiles
}

// WriteFileAtomic writes data to a file atomically.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(path), ".tmp-")
	if err != nil {
		return err
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return err
	}
	if err := tmpFile.Chmod(perm); err != nil {
		tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}
	return os.Rename(tmpFile.Name(), path)
}
