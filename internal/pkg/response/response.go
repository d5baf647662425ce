package response

import (
	"souk-backend/internal/domain"

	"github.com/gofiber/fiber/v2"
)

// Result is the uniform envelope returned by every data service operation.
type Result[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

// OK wraps data in a successful result.
func OK[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data}
}

// OKMessage wraps data in a successful result with a message.
func OKMessage[T any](data T, message string) Result[T] {
	return Result[T]{Success: true, Data: data, Message: message}
}

// Fail builds a failed result carrying err's message.
func Fail[T any](err error) Result[T] {
	return Result[T]{Message: err.Error()}
}

// FailMessage builds a failed result with a plain message.
func FailMessage[T any](message string) Result[T] {
	return Result[T]{Message: message}
}

// ErrorBody is the standardized error JSON shape.
type ErrorBody struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message"`
	StatusCode int         `json:"statusCode"`
	Details    interface{} `json:"details,omitempty"`
}

// Send writes r with okStatus on success, or with a status derived from its message on failure.
func Send[T any](c *fiber.Ctx, r Result[T], okStatus int) error {
	if r.Success {
		return c.Status(okStatus).JSON(r)
	}
	return c.Status(StatusFor(r.Message)).JSON(r)
}

// Success sends a 200 OK result.
func Success[T any](c *fiber.Ctx, r Result[T]) error {
	return Send(c, r, fiber.StatusOK)
}

// Created sends a 201 Created result.
func Created[T any](c *fiber.Ctx, r Result[T]) error {
	return Send(c, r, fiber.StatusCreated)
}

// Error sends a failure with the standard error format.
func Error(c *fiber.Ctx, message string, statusCode int, details interface{}) error {
	return c.Status(statusCode).JSON(ErrorBody{
		Message:    message,
		StatusCode: statusCode,
		Details:    details,
	})
}

// BadRequest sends 400 with the standard error format.
func BadRequest(c *fiber.Ctx, message string) error {
	return Error(c, message, fiber.StatusBadRequest, nil)
}

// Unauthorized sends 401 with the same shape as other errors.
func Unauthorized(c *fiber.Ctx, message string) error {
	return Error(c, message, fiber.StatusUnauthorized, nil)
}

// StatusFor maps a failure message onto an HTTP status. Unknown messages are client errors.
func StatusFor(message string) int {
	switch message {
	case domain.ErrNotFound.Error():
		return fiber.StatusNotFound
	case domain.ErrStorageFull.Error():
		return fiber.StatusInsufficientStorage
	case domain.ErrInvalidCredentials.Error():
		return fiber.StatusUnauthorized
	case domain.ErrAccountDisabled.Error():
		return fiber.StatusForbidden
	case domain.ErrEmailTaken.Error():
		return fiber.StatusConflict
	}
	return fiber.StatusBadRequest
}
