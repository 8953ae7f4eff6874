package service

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")

	ErrAlreadyBorrowed    = errors.New("item is already borrowed")
	ErrOverdueBlock       = errors.New("patron has overdue loans")
	ErrUnpaidFineBlock    = errors.New("patron has unpaid fines")
	ErrHasActiveLoans     = errors.New("patron has active loans")
	ErrAlreadyExists      = errors.New("already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotAuthorized      = errors.New("not authorized")
)
