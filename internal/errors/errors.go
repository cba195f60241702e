package errors

import (
	"errors"
	"fmt"
)

// Common error types for the credential check
var (
	// Configuration errors
	ErrMissingConfig = errors.New("missing required configuration")
	ErrInvalidConfig = errors.New("invalid configuration")

	// Token endpoint errors
	ErrTokenRejected    = errors.New("token request rejected")
	ErrUnexpectedStatus = errors.New("unexpected token endpoint status")
	ErrTransport        = errors.New("token request failed")
	ErrDiscovery        = errors.New("openid discovery failed")
)

// New returns an error that formats as the given text.
func New(text string) error {
	return errors.New(text)
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Join returns an error that wraps the given errors, discarding nils.
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
