package common

import (
	"fmt"
	"io"
	"os"

	"talentsearch/internal/errors"
	"talentsearch/internal/formatters"
)

// CommandConfig is the --output and --format pair shared by CLI commands
type CommandConfig struct {
	OutputFile   string
	OutputFormat string
}

// OutputHandler renders command results and writes them to stdout or a file
type OutputHandler struct {
	files    *FileProcessor
	registry *formatters.Registry
	logger   *errors.Logger
	stdout   io.Writer
}

func NewOutputHandler(logger *errors.Logger) *OutputHandler {
	return &OutputHandler{
		files:    NewFileProcessor(logger),
		registry: formatters.GlobalRegistry,
		logger:   logger,
		stdout:   os.Stdout,
	}
}

// HandleOutput renders data as cfg.OutputFormat. The output path is checked
// before rendering so a bad path fails without doing the work.
func (oh *OutputHandler) HandleOutput(data any, cfg CommandConfig) error {
	if err := oh.files.ValidateOutputFile(cfg.OutputFile); err != nil {
		return err
	}

	rendered, err := oh.registry.Format(data, cfg.OutputFormat)
	if err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("cannot render output as %s", cfg.OutputFormat), err)
	}

	if cfg.OutputFile == "" {
		_, err := io.WriteString(oh.stdout, rendered)
		return err
	}
	if err := oh.files.WriteFile(cfg.OutputFile, rendered); err != nil {
		return err
	}
	if oh.logger != nil {
		oh.logger.Info("Output written", "file", cfg.OutputFile, "format", cfg.OutputFormat)
	}
	return nil
}
