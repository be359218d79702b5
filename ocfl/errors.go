package ocfl

import "errors"

// Sentinel errors returned by the package, suitable for errors.Is checks.
var (
	ErrNotFound          = errors.New("not found")
	ErrAlreadyExists     = errors.New("already exists")
	ErrObjectOutOfSync   = errors.New("object state is out of sync with the request")
	ErrPathAlreadyExists = errors.New("destination path already exists")
	ErrFixity            = errors.New("fixity check failed")
	ErrValidation        = errors.New("validation failed")
	ErrInvalidState      = errors.New("invalid state")
	ErrInvalidInput      = errors.New("invalid input")
	ErrIO                = errors.New("storage I/O error")
	ErrLockTimeout       = errors.New("timed out waiting for lock")
	ErrClosed            = errors.New("closed")
)
