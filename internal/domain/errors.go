package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrEmailTaken      = errors.New("email already in use")
	ErrClientIDTaken   = errors.New("client id already in use")
	ErrInternal        = errors.New("internal error")
)
