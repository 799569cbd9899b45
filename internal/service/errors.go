package service

import (
	"errors"
	"strings"

	"github.com/Atim-01/devblog/internal/auth"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = auth.ErrInvalidToken
	ErrUsernameTaken      = errors.New("username already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrAuthorNotFound     = errors.New("author not found")
	ErrPostNotFound       = errors.New("post not found")

	ErrPostUpdateForbidden = &ForbiddenError{Reason: "you can only update your own posts"}
	ErrPostDeleteForbidden = &ForbiddenError{Reason: "you can only delete your own posts"}
	ErrUserUpdateForbidden = &ForbiddenError{Reason: "you can only update your own account"}
	ErrUserDeleteForbidden = &ForbiddenError{Reason: "you can only delete your own account"}
)

// ForbiddenError is returned when the caller does not own the resource
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string {
	return e.Reason
}

// ValidationError lists every rule an input broke
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Errors, "; ")
}
