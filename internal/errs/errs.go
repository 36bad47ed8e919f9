package errs

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// Code classifies a StoreError.
type Code string

const (
	InvalidArgument Code = "invalid_argument"
	NotFound        Code = "not_found"
	Unavailable     Code = "unavailable"
	Internal        Code = "internal"
)

// StoreError is any failure coming out of the notes store: transport, validation or missing rows.
type StoreError struct {
	Op      string
	Code    Code
	Message string
	Err     error
}

func (e *StoreError) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		msg = string(e.Code)
	}
	if e.Op != "" {
		return e.Op + ": " + msg
	}
	return msg
}

func (e *StoreError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a coded store error.
func New(op string, code Code, message string) error {
	return &StoreError{Op: op, Code: code, Message: message}
}

// Wrap creates a coded store error around a cause.
func Wrap(op string, code Code, message string, cause error) error {
	return &StoreError{Op: op, Code: code, Message: message, Err: cause}
}

// CodeOf returns the code of the first StoreError in the chain, defaulting to Internal.
func CodeOf(err error) Code {
	var se *StoreError
	if errors.As(err, &se) && se.Code != "" {
		return se.Code
	}
	return Internal
}

// MessageOf returns a message safe to show to clients.
// Errors without a StoreError wrapper report "internal error" so raw driver errors stay in the logs.
func MessageOf(err error) string {
	var se *StoreError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	return "internal error"
}

// Is reports whether err is a StoreError with the given code.
func Is(err error, code Code) bool {
	var se *StoreError
	return errors.As(err, &se) && se.Code == code
}

// HTTPStatus maps a code to an HTTP status.
func HTTPStatus(code Code) int {
	switch code {
	case InvalidArgument:
		return fiber.StatusBadRequest
	case NotFound:
		return fiber.StatusNotFound
	case Unavailable:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// FromHTTPStatus is the inverse of HTTPStatus, used by remote store clients.
func FromHTTPStatus(status int) Code {
	switch {
	case status == fiber.StatusBadRequest || status == fiber.StatusUnprocessableEntity:
		return InvalidArgument
	case status == fiber.StatusNotFound:
		return NotFound
	case status == fiber.StatusServiceUnavailable || status == fiber.StatusTooManyRequests ||
		status == fiber.StatusBadGateway || status == fiber.StatusGatewayTimeout:
		return Unavailable
	default:
		return Internal
	}
}
