package middleware

import (
	"fmt"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"belajar-todo/pkg/logger"
)

// ErrorHandler mencatat setiap request dan mengubah panic menjadi 500 generik.
// Detail panic hanya masuk ke error log, tidak ke response.
func ErrorHandler() fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				logger.ErrorLogger.Error(fmt.Sprintf("Recovered from panic: %v", r),
					zap.String("request_id", requestID(c)),
					zap.String("stack", string(debug.Stack())),
				)
				err = c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"message": "Internal server error",
				})
			}
		}()

		// Logging request masuk
		logger.RequestLogger.Info("Incoming request",
			zap.String("request_id", requestID(c)),
			zap.String("method", c.Method()),
			zap.String("url", c.OriginalURL()),
		)
		err = c.Next()
		logger.RequestLogger.Info("Request completed",
			zap.String("request_id", requestID(c)),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("latency", time.Since(start)),
		)
		return err
	}
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return c.Get(fiber.HeaderXRequestID)
}
