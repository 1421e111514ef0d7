package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// success renders the standard response envelope.
func success(c *fiber.Ctx, status int, message string, data any) error {
	body := fiber.Map{"status": "success"}
	if message != "" {
		body["message"] = message
	}
	if data != nil {
		body["data"] = data
	}
	return c.Status(status).JSON(body)
}
