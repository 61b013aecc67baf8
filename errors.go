package account

import (
	goerrors "github.com/goliatone/go-errors"
)

// ErrNoEmptyString is returned when a required string input is empty
var ErrNoEmptyString = goerrors.New("value should not be an empty string", goerrors.CategoryValidation).
	WithTextCode("EMPTY_STRING")

// ErrPasswordTooShort is returned before any hashing work when a plaintext
// password does not meet the minimum length policy
var ErrPasswordTooShort = goerrors.New("password must be at least 8 characters long", goerrors.CategoryValidation).
	WithTextCode("PASSWORD_TOO_SHORT")

// ErrPasswordUnchanged is returned when a password update supplies the
// current password as the new one
var ErrPasswordUnchanged = goerrors.New("the new password must be different", goerrors.CategoryValidation).
	WithTextCode("PASSWORD_UNCHANGED")

// ErrInvalidCredentials is the single generic failure for every
// authentication miss: unknown email, soft deleted account, or a password
// that does not verify. Keeping one message prevents account enumeration.
var ErrInvalidCredentials = goerrors.New("invalid credentials", goerrors.CategoryAuth).
	WithTextCode("INVALID_CREDENTIALS")

// ErrMismatchedHashAndPassword is returned when a digest comparison fails,
// including malformed digests
var ErrMismatchedHashAndPassword = goerrors.New("mismatched hash and password", goerrors.CategoryAuth).
	WithTextCode("PASSWORD_MISMATCH")

// ErrTokenInvalid is the single failure for every token verification miss:
// decryption, signature, issuer, or expiry. Causes are never distinguished
// so the verifier cannot be probed as an oracle.
var ErrTokenInvalid = goerrors.New("invalid authentication token", goerrors.CategoryAuth).
	WithTextCode("TOKEN_INVALID")

// ErrEmailTaken is the translation of a store-level uniqueness violation on
// the email column
var ErrEmailTaken = goerrors.New("email is already taken", goerrors.CategoryConflict).
	WithTextCode("EMAIL_TAKEN")

// ErrTermsNotAccepted is returned when a registration does not accept the
// terms and conditions
var ErrTermsNotAccepted = goerrors.New("terms and conditions must be accepted", goerrors.CategoryConflict).
	WithTextCode("TERMS_NOT_ACCEPTED")

// ErrAccountNotFound is returned when an operation targets an account that
// does not exist or is soft deleted in the requested context
var ErrAccountNotFound = goerrors.New("account not found", goerrors.CategoryNotFound).
	WithTextCode("ACCOUNT_NOT_FOUND")

// ErrBadSigningSecret is a configuration failure; the process must not
// serve tokens with a secret of the wrong size
var ErrBadSigningSecret = goerrors.New("signing secret must be exactly 32 bytes", goerrors.CategoryInternal).
	WithTextCode("BAD_SIGNING_SECRET")

// IsNotFound reports whether err maps to the not found failure kind
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	return goerrors.IsNotFound(err) || hasCategory(err, goerrors.CategoryNotFound)
}

// IsConflict reports whether err maps to the conflict failure kind
func IsConflict(err error) bool {
	return hasCategory(err, goerrors.CategoryConflict)
}

// IsValidation reports whether err maps to the validation failure kind
func IsValidation(err error) bool {
	return hasCategory(err, goerrors.CategoryValidation)
}

// IsAuthFailure reports whether err maps to the authentication failure kind
func IsAuthFailure(err error) bool {
	return hasCategory(err, goerrors.CategoryAuth)
}

func hasCategory(err error, category goerrors.Category) bool {
	if err == nil {
		return false
	}
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return rich.Category == category
	}
	return false
}
