package suggest

import "errors"

var (
	// ErrDictionaryRequired is returned when a suggestion is requested without a dictionary.
	ErrDictionaryRequired = errors.New("dictionary required")

	// ErrInvalidConfig is returned when a suggester is created with unusable settings.
	ErrInvalidConfig = errors.New("invalid suggester config")
)
