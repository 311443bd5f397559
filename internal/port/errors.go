package port

import "errors"

// Sentinel errors used across ports.
var (
	ErrProjectNotFound   = errors.New("project not found")
	ErrRepoConflict      = errors.New("repository already registered to an active project")
	ErrDraftNotFound     = errors.New("draft not found")
	ErrInvalidTransition = errors.New("draft is in a terminal state")
	ErrNoSelection       = errors.New("no postable selection")
	ErrPublisherNotFound = errors.New("no publisher for destination kind")
	ErrValidation        = errors.New("validation failed")
)
