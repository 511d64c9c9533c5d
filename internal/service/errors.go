package service

import (
	"errors"
	"fmt"

	"github.com/devaloi/agora/internal/domain"
	"github.com/devaloi/agora/internal/store"
)

// Error kinds. Handlers map them to status codes with errors.Is.
var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidInput       = errors.New("invalid input")
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInactive           = errors.New("account is deactivated")
)

// Error is a service failure with a message safe to show to clients.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func fail(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// BanError is returned by Login for a user whose ban is in force.
type BanError struct {
	Message string
	Ban     domain.Ban
}

func (e *BanError) Error() string { return e.Message }

// notFound turns store.ErrNotFound into a client-facing not-found error and
// wraps anything else.
func notFound(err error, what string) error {
	if errors.Is(err, store.ErrNotFound) {
		return fail(ErrNotFound, "%s not found", what)
	}
	return fmt.Errorf("load %s: %w", what, err)
}
