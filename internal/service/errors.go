package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"go-fabric-retail/internal/model"
)

var (
	// ErrNotFound maps to a 404 at the handler boundary.
	ErrNotFound = errors.New("record not found")
	// ErrSaleNumberExhausted signals the bounded uniqueness retry ran out.
	ErrSaleNumberExhausted = errors.New("failed to generate a unique sale number")
)

// ValidationError is a client-correctable failure. Handlers map it to 400
// with the message verbatim.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErrorf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// Actor identifies the authenticated user performing an operation.
type Actor struct {
	ID    uuid.UUID
	Name  string
	Email string
	Role  model.Role
}
