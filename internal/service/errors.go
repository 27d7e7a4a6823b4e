package service

import (
	"errors"
	"fmt"

	"github.com/samber/oops"
)

// InvalidCredentialsMessage is the only message a caller sees for a failed
// login, whichever check failed.
const InvalidCredentialsMessage = "identity and secret do not match."

var (
	// ErrInvalidCredentials covers both an unknown identity and a wrong secret.
	ErrInvalidCredentials = errors.New(InvalidCredentialsMessage)
	// ErrStoreUnavailable wraps persistence failures other than not-found and
	// duplicate.
	ErrStoreUnavailable = errors.New("credential store unavailable")
	// ErrDuplicateIdentity is returned by SignUp for an identity already taken.
	ErrDuplicateIdentity = errors.New("identity already exists")
	// ErrInvalidInput rejects a signup with missing fields or an unknown role.
	ErrInvalidInput = errors.New("invalid input")
)

func invalidCredentials() error {
	return oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
}

func storeFailure(operation string, err error) error {
	return oops.Code("AUTH_STORE_UNAVAILABLE").
		With("operation", operation).
		Wrap(fmt.Errorf("%w: %w", ErrStoreUnavailable, err))
}

func invalidInput(reason string) error {
	return oops.Code("SIGNUP_INVALID_INPUT").
		With("reason", reason).
		Wrap(fmt.Errorf("%w: %s", ErrInvalidInput, reason))
}
