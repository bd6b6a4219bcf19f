package service

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrUnauthorized       = errors.New("operator access required")
	ErrInvalidTransition  = errors.New("order status does not allow this action")
	ErrGatewayUnavailable = errors.New("crypto payments are not configured")
	ErrGateway            = errors.New("payment gateway failure")
	ErrMethodNotAllowed   = errors.New("payment method not allowed for this order")
	ErrNoPendingAction    = errors.New("no pending operator action")
	ErrNoExpectation      = errors.New("no input expected")
)

// ValidationError describes user input that was rejected. The user is asked
// for the same input again.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
