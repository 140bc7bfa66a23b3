package domain

import "errors"

var (
	// ErrWorkspaceNotFound is returned when a lab workspace has not been opened or was closed.
	ErrWorkspaceNotFound = errors.New("lab workspace not found")
	// ErrContentNotFound indicates the lab content could not be loaded.
	ErrContentNotFound = errors.New("lab content not found")
	// ErrInvalidContent is returned when loaded content breaks a structural rule.
	ErrInvalidContent = errors.New("invalid lab content")
	// ErrUnknownAction indicates an action name the lab does not understand.
	ErrUnknownAction = errors.New("unknown lab action")
)
