package model

import "errors"

var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("validation error")

	// Query-path authorization failures. Returned to the caller, never retried.
	ErrUnauthorized       = errors.New("caller could not be resolved")
	ErrForbidden          = errors.New("caller not in organisation")
	ErrMembershipInactive = errors.New("membership inactive")
)
