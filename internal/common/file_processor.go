package common

import (
	stdErrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"talentsearch/internal/errors"
	"talentsearch/internal/utils"
)

// StdinName is the file name that reads from standard input
const StdinName = "-"

// FileProcessor reads query and filter files and writes command output
type FileProcessor struct {
	logger *errors.Logger
	stdin  io.Reader
}

func NewFileProcessor(logger *errors.Logger) *FileProcessor {
	return &FileProcessor{logger: logger, stdin: os.Stdin}
}

// ReadFile returns the content of filename, or of stdin for StdinName
func (fp *FileProcessor) ReadFile(filename string) (string, error) {
	if filename == StdinName {
		content, err := io.ReadAll(fp.stdin)
		if err != nil {
			return "", errors.NewIOError(errors.ErrCodeFileNotReadable, "Failed to read standard input", err)
		}
		return string(content), nil
	}

	content, err := os.ReadFile(filename)
	switch {
	case stdErrors.Is(err, fs.ErrNotExist):
		return "", errors.NewIOError(errors.ErrCodeFileNotFound, "File not found: "+filename, err)
	case err != nil:
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable, "Cannot read file: "+filename, err)
	}
	return string(content), nil
}

// WriteFile writes content to filename, creating parent directories
func (fp *FileProcessor) WriteFile(filename, content string) error {
	if err := utils.ValidateOutputFile(filename); err != nil {
		return errors.NewIOError("DIRECTORY_CREATE_FAILED", "Cannot create output directory", err)
	}
	if err := os.WriteFile(filename, []byte(content), 0600); err != nil {
		return errors.NewIOError("FILE_WRITE_FAILED", "Cannot write file: "+filename, err)
	}
	return nil
}

// ValidateAndReadFiles reads every file in order, checking each one first.
// Non-text extensions are read anyway but logged.
func (fp *FileProcessor) ValidateAndReadFiles(filenames ...string) ([]string, error) {
	contents := make([]string, 0, len(filenames))
	for _, filename := range filenames {
		if err := fp.checkInput(filename); err != nil {
			return nil, err
		}
		content, err := fp.ReadFile(filename)
		if err != nil {
			return nil, err
		}
		contents = append(contents, content)
	}
	return contents, nil
}

func (fp *FileProcessor) checkInput(filename string) error {
	if filename == StdinName {
		return nil
	}
	if err := utils.ValidateInputFile(filename); err != nil {
		return errors.NewValidationError("INVALID_INPUT_FILE", fmt.Sprintf("Invalid file %s", filename), err)
	}
	if !utils.IsTextFile(filename) && fp.logger != nil {
		fp.logger.Warn("File may not be a text file", "filename", filename)
	}
	return nil
}

// ValidateOutputFile checks an output path; empty means stdout
func (fp *FileProcessor) ValidateOutputFile(filename string) error {
	if err := utils.ValidateOutputFile(filename); err != nil {
		return errors.NewValidationError("INVALID_OUTPUT_FILE", "Invalid output file: "+filename, err)
	}
	return nil
}
