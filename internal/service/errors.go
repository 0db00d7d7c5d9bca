package service

import "errors"

var (
	ErrInvalidProduct    = errors.New("invalid product")
	ErrInvalidOrder      = errors.New("invalid order")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrInvalidPayment    = errors.New("invalid payment request")
	ErrInvalidEmail      = errors.New("invalid email")
)
