package helper

import (
	"context"
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/rollbar/rollbar-go"
	rollbarerrors "github.com/rollbar/rollbar-go/errors"

	"github.com/suhendararyadi/lppm-iaipi-mhs/app/model"
	"github.com/suhendararyadi/lppm-iaipi-mhs/config"
)

// InitReporter configures Rollbar; reporting stays disabled without a token.
func InitReporter() {
	rollbar.SetToken(config.Env.RollbarToken)
	rollbar.SetEnvironment(config.Env.AppEnv)
	rollbar.SetStackTracer(rollbarerrors.StackTracer)
	rollbar.SetEnabled(config.Env.RollbarToken != "")
}

func CloseReporter() {
	rollbar.Close()
}

// ReportError logs err and forwards it to Rollbar. Cancelled requests are
// only logged.
func ReportError(msg string, err error, extras ...map[string]interface{}) {
	if errors.Is(err, context.Canceled) {
		log.Printf("%s: request dibatalkan klien", msg)
		return
	}
	log.Printf("%s: %+v", msg, err)

	extra := map[string]interface{}{"message": msg}
	for _, e := range extras {
		for k, v := range e {
			extra[k] = v
		}
	}
	rollbar.Error(err, extra)
}

// ErrorHandler answers errors that escaped a handler in the usual
// ErrorResponse shape.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Terjadi kesalahan pada server"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}

	if code >= fiber.StatusInternalServerError {
		ReportError("unhandled error", err, map[string]interface{}{
			"method": c.Method(),
			"path":   c.Path(),
		})
	}

	return c.Status(code).JSON(model.ErrorResponse{
		Success: false,
		Message: message,
	})
}
