package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// textExtensions are the extensions query and filter files normally carry
var textExtensions = map[string]bool{
	".txt": true, ".text": true, ".md": true, ".markdown": true, ".json": true,
}

// ValidateInputFile returns an error unless name is a regular file that can
// be opened for reading
func ValidateInputFile(name string) error {
	if name == "" {
		return errors.New("filename cannot be empty")
	}

	info, err := os.Stat(name)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("file does not exist: %s", name)
	case err != nil:
		return fmt.Errorf("cannot access file %s: %w", name, err)
	case !info.Mode().IsRegular():
		return fmt.Errorf("not a regular file: %s", name)
	}

	f, err := os.Open(name)
	if err != nil {
		return fmt.Errorf("cannot read file %s: %w", name, err)
	}
	return f.Close()
}

// ValidateOutputFile makes sure the parent directory of name exists,
// creating it when needed. An empty name means stdout.
func ValidateOutputFile(name string) error {
	if name == "" {
		return nil
	}
	dir := filepath.Dir(name)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("cannot create directory %s: %w", dir, err)
	}
	return nil
}

// IsTextFile reports whether name has a known text extension
func IsTextFile(name string) bool {
	return textExtensions[strings.ToLower(filepath.Ext(name))]
}

// FormatFileSize renders size in binary units, e.g. "64.0 KB"
func FormatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	value, prefix := float64(size)/unit, 0
	for value >= unit && prefix < len("KMGTPE")-1 {
		value /= unit
		prefix++
	}
	return fmt.Sprintf("%.1f %cB", value, "KMGTPE"[prefix])
}
