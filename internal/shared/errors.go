package shared

import "errors"

var (
	// ErrInvalidCredentials indicates a failed operator login.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
