package domain

import (
	"errors"
	"fmt"
)

// ErrUnauthorized is the parent of every credential rejection. Match it with
// errors.Is to treat the specific causes below uniformly.
var ErrUnauthorized = errors.New("unauthorized")

var (
	ErrUnknownLogin      = fmt.Errorf("%w: user not found", ErrUnauthorized)
	ErrIncorrectPassword = fmt.Errorf("%w: password incorrect", ErrUnauthorized)
	ErrTokenNotActive    = fmt.Errorf("%w: token not found or expired", ErrUnauthorized)
)

var ErrUserNotFound = errors.New("user not found")
var ErrRoleNotFound = errors.New("role not found")
var ErrUserExists = errors.New("user already exists")
var ErrEmailInUse = errors.New("e-mail already registered")
var ErrRefreshTokenNotFound = errors.New("refresh token not found")
var ErrInvalidOrExpiredCode = errors.New("invalid or expired validation code")
var ErrInvalidIdentity = errors.New("invalid identity")
var ErrInvalidInput = errors.New("invalid input")
var ErrTooManyAttempts = errors.New("too many attempts")
var ErrForbidden = errors.New("access forbidden")

// ErrConfiguration marks a missing or malformed server-side setting. It is
// never retried.
var ErrConfiguration = errors.New("configuration error")

// ErrInternal wraps unexpected storage or transport failures.
var ErrInternal = errors.New("internal error")
