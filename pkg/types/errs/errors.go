package errs

import "errors"

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrEmptySecret    = errors.New("secret payload is empty")
)
