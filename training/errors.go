package training

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrDictionaryRequired is returned when a trainer or pool has no dictionary.
	ErrDictionaryRequired = errors.New("dictionary is required")

	// ErrManagerRequired is returned when a pool has no session manager.
	ErrManagerRequired = errors.New("session manager is required")

	// ErrTrainerRequired is returned when a pool has no trainer.
	ErrTrainerRequired = errors.New("trainer is required")

	// ErrExtractorRequired is returned when a pool has no goal tree extractor.
	ErrExtractorRequired = errors.New("goal tree extractor is required")
)
