package api

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"wordreminder/internal/logger"
	"wordreminder/internal/schedule"
	"wordreminder/internal/store"
)

type FieldError struct {
	Field string `json:"field"`
	Msg   string `json:"msg"`
}

// ValidationError lists every rejected request field. It renders as a 400.
type ValidationError struct {
	Errors []FieldError `json:"errors"`
}

func (v *ValidationError) Add(field, msg string) {
	v.Errors = append(v.Errors, FieldError{Field: field, Msg: msg})
}

func (v *ValidationError) Error() string {
	parts := make([]string, len(v.Errors))
	for i, fe := range v.Errors {
		parts[i] = fe.Field + ": " + fe.Msg
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// orNil keeps a nil *ValidationError from becoming a non-nil error.
func (v *ValidationError) orNil() error {
	if v == nil || len(v.Errors) == 0 {
		return nil
	}
	return v
}

func invalid(field, msg string) error {
	v := &ValidationError{}
	v.Add(field, msg)
	return v
}

// ErrorHandler is the app-wide Fiber error handler.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return c.Status(fiber.StatusBadRequest).JSON(verr)
	}

	code := fiber.StatusInternalServerError
	msg := "Internal server error"
	var ferr *fiber.Error
	switch {
	case errors.As(err, &ferr):
		code = ferr.Code
		msg = ferr.Message
	case errors.Is(err, store.ErrNotFound):
		code = fiber.StatusNotFound
		msg = "Not found"
	case errors.Is(err, store.ErrConflict):
		code = fiber.StatusConflict
		msg = "Already exists"
	case errors.Is(err, store.ErrNoWords):
		return c.Status(fiber.StatusBadRequest).JSON(&ValidationError{
			Errors: []FieldError{{Field: "user_words", Msg: err.Error()}},
		})
	case errors.Is(err, schedule.ErrInvalidCadence):
		return c.Status(fiber.StatusBadRequest).JSON(&ValidationError{
			Errors: []FieldError{{Field: "reminder", Msg: err.Error()}},
		})
	default:
		logger.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
	}
	return c.Status(code).JSON(fiber.Map{"error": msg})
}
