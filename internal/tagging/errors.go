package tagging

import (
	"errors"
	"fmt"

	"github.com/phrazzld/taskboard-api/internal/domain"
)

// ConfigurationError reports a category that is referenced by the membership
// rules but missing from the categories table. The taxonomy is seeded by
// migration, so this is never retried or skipped.
type ConfigurationError struct {
	Category domain.CategoryName
	Err      error
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("category %q is not seeded: %v", e.Category, e.Err)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// IsConfigurationError reports whether err is or wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}
