package models

import "errors"

// Business-rule failures. Handlers map these to status codes with errors.Is.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrTargetNotFound     = errors.New("target user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPasswordTooLong    = errors.New("password too long")
	ErrInvalidAmount      = errors.New("amount must be greater than zero")
	ErrSelfTransfer       = errors.New("cannot transfer to self")
	ErrInsufficientFunds  = errors.New("insufficient funds")
)
