package domain

import "errors"

// Common errors
var (
	ErrNotFound      = errors.New("resource not found") // General not found
	ErrStoryNotFound = errors.New("story not found")
)

// Account errors
var (
	ErrAccountNotFound    = errors.New("ngo account not found")
	ErrEmailAlreadyExists = errors.New("account with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthorized       = errors.New("unauthorized") // Authentication required or failed
	ErrForbidden          = errors.New("forbidden")    // Authenticated, but not the owner
)

// Token errors
var (
	ErrTokenInvalid   = errors.New("token is invalid")
	ErrTokenMalformed = errors.New("token is malformed")
	ErrTokenExpired   = errors.New("token has expired")
)

// Story pipeline errors
var (
	ErrGenerationUnavailable = errors.New("story generation collaborator unavailable")
	ErrSafetyRejected        = errors.New("content failed safety validation")
	ErrSlideSetInvalid       = errors.New("generated slide set violates content invariants")
)

// Generic request/server errors
var (
	ErrInvalidInput   = errors.New("invalid input data")
	ErrInternalServer = errors.New("internal server error")
)
