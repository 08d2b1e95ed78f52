package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"belajar-todo/internal/service"
	"belajar-todo/pkg/logger"
)

// NewValidator membuat validator yang melaporkan nama field sesuai tag json.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// writeError memetakan error dari service ke status HTTP. Error yang tidak
// dikenal hanya dicatat di log; client menerima pesan generik.
func writeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": clientMessage(err, service.ErrValidation)})
	case errors.Is(err, service.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": clientMessage(err, service.ErrConflict)})
	case errors.Is(err, service.ErrInvalidCredentials):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid credentials"})
	case errors.Is(err, service.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": clientMessage(err, service.ErrNotFound)})
	}
	logger.ErrorLogger.Error("Unhandled error",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Internal server error"})
}

// clientMessage membuang prefix kind dari "kind: detail".
func clientMessage(err, kind error) string {
	msg := strings.TrimPrefix(err.Error(), kind.Error()+": ")
	if msg == "" {
		return kind.Error()
	}
	return msg
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": msg})
}

// bindJSON mem-parse body lalu menjalankan validator. Response 400 sudah
// ditulis jika ok bernilai false.
func bindJSON(c *fiber.Ctx, v *validator.Validate, out interface{}) (ok bool, err error) {
	if err := c.BodyParser(out); err != nil {
		logger.AuditLogger.Warn("Bad request body", zap.String("path", c.Path()), zap.Error(err))
		return false, badRequest(c, "invalid request body")
	}
	if err := v.Struct(out); err != nil {
		logger.AuditLogger.Warn("Validation error", zap.String("path", c.Path()), zap.Error(err))
		return false, badRequest(c, validationMessage(err))
	}
	return true, nil
}

func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return "validation error"
	}
	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

// paramID membaca :id sebagai integer positif.
func paramID(c *fiber.Ctx) (int, bool) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
