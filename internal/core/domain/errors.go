package domain

import "errors"

// Common domain errors
var (
	ErrNotFound       = errors.New("record not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrInternalServer = errors.New("internal server error")
)

// Account lifecycle errors
var (
	ErrDuplicateCardNumber      = errors.New("card number already registered")
	ErrNfcAlreadyAssigned       = errors.New("nfc id already assigned to another account")
	ErrCredentialCreationFailed = errors.New("failed to create credential")
	ErrEmailAlreadyRegistered   = errors.New("email already registered")
)

// Authentication and authorization errors
var (
	ErrInvalidCredential = errors.New("invalid card number or password")
	ErrAccountNotUsable  = errors.New("account is not active or not yet approved")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrUnknownIdentity   = errors.New("unknown identity")
	ErrWrongSecret       = errors.New("wrong secret")
)
