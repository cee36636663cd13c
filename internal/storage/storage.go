package storage

import "errors"

var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrAccountExists     = errors.New("account already exists")
	ErrAdmissionNotFound = errors.New("admission not found")
)
