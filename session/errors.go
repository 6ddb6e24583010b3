package session

import (
	"errors"
	"fmt"

	"github.com/poiesic/didyoumean/core"
)

var (
	// ErrRepositoryRequired is returned when creating a Manager without a repository.
	ErrRepositoryRequired = errors.New("session repository is required")

	// ErrAlreadyClassified is returned when the juror is asked to pick goals
	// for a tree that already has one.
	ErrAlreadyClassified = fmt.Errorf("%w: goal tree already contains a goal", core.ErrIllegalState)

	// ErrMalformedLogLine is returned by the importer for an unparsable line.
	ErrMalformedLogLine = errors.New("malformed query log line")
)
