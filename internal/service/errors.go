package service

import "errors"

var (
	// ErrValidation is the base error for malformed input; specific
	// validation failures wrap it so handlers can map them uniformly.
	ErrValidation = errors.New("invalid input")
	// ErrForbidden indicates the caller is authenticated but not allowed
	// to perform the operation on this resource.
	ErrForbidden = errors.New("forbidden")
)
