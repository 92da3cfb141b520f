package vnpay

import "errors"

var (
	// ErrInvalidConfig is returned when the client configuration is incomplete
	ErrInvalidConfig = errors.New("invalid vnpay configuration")

	// ErrInvalidRequest is returned when the payment request parameters are invalid
	ErrInvalidRequest = errors.New("invalid payment request parameters")

	// ErrSignatureMismatch is returned when a callback's secure hash does not
	// match the recomputed signature; the callback must not be trusted
	ErrSignatureMismatch = errors.New("secure hash mismatch")

	// ErrMissingSignature is returned when a callback carries no secure hash
	ErrMissingSignature = errors.New("missing secure hash")
)
