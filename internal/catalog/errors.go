package catalog

import "errors"

var (
	// ErrNotFound is returned when no product carries the given gtin.
	ErrNotFound = errors.New("product not found")

	// ErrUserNotFound is returned when an actor reference cannot be resolved.
	ErrUserNotFound = errors.New("user not found")

	// ErrPermissionDenied covers every privilege and ownership rejection.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrDuplicateGTIN is the conflict raised by the store's uniqueness
	// constraint; the loser of a concurrent create race receives it.
	ErrDuplicateGTIN = errors.New("product with this gtin already exists")

	// ErrNotPending is the state conflict raised when approving a product
	// that is not pending.
	ErrNotPending = errors.New("only pending products can be approved")

	// ErrValidation wraps all pre-persistence input rejections.
	ErrValidation = errors.New("validation failed")
)
