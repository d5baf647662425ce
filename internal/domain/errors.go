package domain

import "errors"

var (
	ErrNotFound           = errors.New("Not found")
	ErrStorageFull        = errors.New("Impossible de sauvegarder. Espace de stockage insuffisant.")
	ErrInvalidStatus      = errors.New("Invalid status")
	ErrInvalidTransition  = errors.New("Invalid status transition")
	ErrInvalidCredentials = errors.New("Invalid email or password")
	ErrAccountDisabled    = errors.New("Account disabled")
	ErrInvalidRole        = errors.New("Invalid role")
	ErrInvalidEmail       = errors.New("Invalid email")
	ErrWeakPassword       = errors.New("Password must be at least 8 characters with a letter, a number and a special character")
	ErrInvalidQuantity    = errors.New("Quantity must be at least 1")
	ErrEmailTaken         = errors.New("Email already registered")
	ErrMissingField       = errors.New("Missing required field")
	ErrInvalidImage       = errors.New("Failed to process image")
	ErrLastSuperAdmin     = errors.New("At least one active super admin is required")
	ErrInvalidPrice       = errors.New("Price must be a non-negative number")
	ErrInvalidFullName    = errors.New("Invalid full name")
	ErrInvalidPhone       = errors.New("Invalid phone number")
)
