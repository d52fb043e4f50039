package controller

import (
	"errors"

	"crmportal/utils"

	"github.com/gofiber/fiber/v2"
)

const genericError = "Something went wrong. Please try again later."

// ErrorHandler renders the error page. Messages of client errors are shown
// as is; server errors are logged and replaced by a generic message.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := genericError

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		if code < fiber.StatusInternalServerError {
			message = fe.Message
		}
	}

	if code >= fiber.StatusInternalServerError {
		utils.LogError("request_failed", err, map[string]interface{}{
			"method": c.Method(),
			"path":   c.Path(),
			"status": code,
		})
	}

	c.Status(code)
	if rerr := renderAuth(c, "error", "Error", fiber.Map{
		"Status":  code,
		"Message": message,
	}); rerr != nil {
		return c.Status(code).SendString(message)
	}
	return nil
}
