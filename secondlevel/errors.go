package secondlevel

import "errors"

var (
	// ErrEmptyDocument is returned when a document has no tokens.
	ErrEmptyDocument = errors.New("document has no tokens")

	// ErrIndexRequired is returned when a suggester is built without an index.
	ErrIndexRequired = errors.New("index required")

	// ErrTokenSuggesterRequired is returned when a phrase suggester has no token suggester.
	ErrTokenSuggesterRequired = errors.New("token suggester required")

	// ErrCorrectorRequired is returned when the corpus factory has no corrector.
	ErrCorrectorRequired = errors.New("corrector required")

	// ErrInvalidConfig is returned for unusable second-level settings.
	ErrInvalidConfig = errors.New("invalid second-level config")
)
