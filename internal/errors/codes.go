// Package errors provides structured error handling for codescope.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO errors (file, disk)
//   - 3XX: Storage errors (history database)
//   - 4XX: Validation errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates file and disk I/O errors.
	CategoryIO Category = "IO"
	// CategoryStorage indicates history store errors.
	CategoryStorage Category = "STORAGE"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigInvalid = "ERR_101_CONFIG_INVALID"

	// IO errors (200-299)
	ErrCodeScanIO       = "ERR_201_SCAN_IO"
	ErrCodeDecode       = "ERR_202_DECODE"
	ErrCodeFileNotFound = "ERR_203_FILE_NOT_FOUND"

	// Storage errors (300-399)
	ErrCodePersistence = "ERR_301_PERSISTENCE"

	// Validation errors (400-499)
	ErrCodeInvalidQuery = "ERR_401_INVALID_QUERY"

	// Internal errors (500-599)
	ErrCodeInternal            = "ERR_501_INTERNAL"
	ErrCodeRevisionUnavailable = "ERR_502_REVISION_UNAVAILABLE"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '3':
		return CategoryStorage
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}
