package domain

import "errors"

var (
	// ErrValidation is returned for locally detectable bad input; it is
	// never the result of a network call.
	ErrValidation = errors.New("invalid input")
	// ErrAuth is returned when the session token is invalid or expired.
	ErrAuth = errors.New("authentication rejected")
	// ErrNetwork is returned when the backend gave no response.
	ErrNetwork = errors.New("backend unreachable")
	// ErrServer is returned for backend-side failures.
	ErrServer = errors.New("backend failure")
	// ErrNotFound indicates the quiz group (or result) does not exist.
	ErrNotFound = errors.New("quiz group not found")
)
