package dictionary

import "errors"

var (
	// ErrRepositoryRequired is returned when creating a Dictionary without a repository.
	ErrRepositoryRequired = errors.New("dictionary repository is required")

	// ErrSuggesterRequired is returned when registering a nil second-level suggester.
	ErrSuggesterRequired = errors.New("second-level suggester is required")

	// ErrInvalidWeight is returned for a non-positive blend weight.
	ErrInvalidWeight = errors.New("second-level weight must be positive")
)
