package common

import (
	"fmt"
	"slices"
	"strings"

	"talentsearch/internal/errors"
	"talentsearch/internal/formatters"
)

// OutputFormats lists the registered formats that configured allows. An
// empty configured list allows every registered format.
func OutputFormats(configured []string) []string {
	registered := formatters.GlobalRegistry.Formats()
	if len(configured) == 0 {
		return registered
	}
	return slices.DeleteFunc(registered, func(f string) bool {
		return !slices.Contains(configured, f)
	})
}

// ValidateOutputFormat checks format against OutputFormats(configured)
func ValidateOutputFormat(format string, configured []string) error {
	allowed := OutputFormats(configured)
	if slices.Contains(allowed, format) {
		return nil
	}
	return errors.NewValidationError(errors.ErrCodeInvalidFormat,
		fmt.Sprintf("unsupported output format %q (available: %s)", format, strings.Join(allowed, ", ")), nil)
}
