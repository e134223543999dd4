package service

import (
	"errors"
	"fmt"

	"github.com/takeco/cmms/internal/repository"
)

// Sentinel kinds. Handlers map these to HTTP status codes in one place;
// services never see gin.
var (
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrConflict          = errors.New("conflict")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrPrecondition      = errors.New("precondition not met")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
)

func notFoundf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrNotFound}, args...)...)
}

func validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrValidation}, args...)...)
}

func conflictf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrConflict}, args...)...)
}

func insufficientStockf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrInsufficientStock}, args...)...)
}

func preconditionf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrPrecondition}, args...)...)
}

// wrapNotFound converts the repository sentinel into the service one so
// handlers only ever match service errors.
func wrapNotFound(err error, what string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return notFoundf("%s", what)
	}
	return err
}
