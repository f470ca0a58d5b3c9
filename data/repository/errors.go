package repository

import "errors"

var (
	ErrAlreadyExists   = errors.New("error already exists")
	ErrNotFound        = errors.New("error not found")
	ErrUnavailable     = errors.New("error storage unavailable")
	ErrCommitFailed    = errors.New("error store commit failed")
	ErrNegativeBalance = errors.New("error balance would become negative")
)
