package domain

import "errors"

var (
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrNotFound           = errors.New("not found")
	ErrAlreadyRedeemed    = errors.New("booking already verified")
	ErrRenderFailure      = errors.New("failed to generate ticket")
	ErrEmailTaken         = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidOTP         = errors.New("invalid or expired otp")
	ErrForbidden          = errors.New("access denied")
	ErrValidation         = errors.New("validation failed")
)
