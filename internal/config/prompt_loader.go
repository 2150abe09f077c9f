package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// promptFile describes one configured prompt file and where its content goes
type promptFile struct {
	path      string
	kind      string // "system" or "user"
	operation string
	target    *string
}

// promptFiles lists every prompt file path set in the configuration
func (c *Config) promptFiles(out *AllLoadedPrompts) []promptFile {
	files := []promptFile{
		{c.AI.CustomPrompts.SystemPrompts.ParseQueryFile, "system", "global parseQuery", &out.Global.SystemPrompts.ParseQuery},
		{c.AI.CustomPrompts.UserPrompts.ParseQueryFile, "user", "global parseQuery", &out.Global.UserPrompts.ParseQuery},
		{c.AI.Parse.CustomPrompts.SystemPrompts.ParseQueryFile, "system", "parseQuery", &out.Parse.SystemPrompts.ParseQuery},
		{c.AI.Parse.CustomPrompts.UserPrompts.ParseQueryFile, "user", "parseQuery", &out.Parse.UserPrompts.ParseQuery},
	}

	result := files[:0]
	for _, f := range files {
		if f.path != "" {
			result = append(result, f)
		}
	}
	return result
}

// PromptFilePaths returns the absolute paths of all configured prompt files
func (c *Config) PromptFilePaths() []string {
	var scratch AllLoadedPrompts
	var paths []string
	for _, f := range c.promptFiles(&scratch) {
		if abs, err := filepath.Abs(f.path); err == nil {
			paths = append(paths, abs)
		}
	}
	return paths
}

// loadPromptsFromFiles reads every configured prompt file and publishes
// the result. Nothing is published when any file fails.
func (c *Config) loadPromptsFromFiles() error {
	var loaded AllLoadedPrompts
	files := c.promptFiles(&loaded)
	for _, f := range files {
		content, err := loadPromptFromFile(f.path, f.kind, f.operation)
		if err != nil {
			return err
		}
		*f.target = content
	}

	storeLoadedPrompts(loaded)
	if len(files) > 0 {
		log.Printf("[CONFIG] Loaded %d custom prompt file(s)", len(files))
	}
	return nil
}

// ReloadPrompts re-reads all prompt files. On error the previously loaded
// prompts stay in place.
func (c *Config) ReloadPrompts() error {
	return c.loadPromptsFromFiles()
}

// loadPromptFromFile returns the trimmed content of a prompt file. User
// templates must hold exactly one %s.
func loadPromptFromFile(filePath, kind, operation string) (string, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("%s %s prompt path %q: %w", kind, operation, filePath, err)
	}

	raw, err := os.ReadFile(absPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "", fmt.Errorf("%s %s prompt file not found: %s", kind, operation, absPath)
	case err != nil:
		return "", fmt.Errorf("failed to read %s %s prompt file %s: %w", kind, operation, absPath, err)
	}

	content := strings.TrimSpace(string(raw))
	if content == "" {
		return "", fmt.Errorf("%s %s prompt file %s is empty", kind, operation, absPath)
	}
	if kind == "user" && strings.Count(content, "%s") != 1 {
		return "", fmt.Errorf("user %s prompt file %s must contain exactly one %%s placeholder", operation, absPath)
	}
	return content, nil
}

// validatePromptFiles checks that every configured prompt file exists
func (c *Config) validatePromptFiles() error {
	var missing []error
	var scratch AllLoadedPrompts
	for _, f := range c.promptFiles(&scratch) {
		if _, err := os.Stat(f.path); err != nil {
			missing = append(missing, fmt.Errorf("%s %s prompt file: %w", f.kind, f.operation, err))
		}
	}
	return errors.Join(missing...)
}
