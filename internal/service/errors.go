package service

import "errors"

// ErrInvalidInput marks caller mistakes such as a malformed season.
var ErrInvalidInput = errors.New("invalid input")
