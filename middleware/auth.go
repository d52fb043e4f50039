package middleware

import (
	"crmportal/session"

	"github.com/gofiber/fiber/v2"
)

// Protected requires a signed-in user. Anyone else is sent to the login
// page before the handler runs.
func Protected() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ident, ok := session.Identify(session.From(c))
		if !ok {
			return c.Redirect("/login", fiber.StatusSeeOther)
		}

		// Add identity to context
		session.SetCurrent(c, ident)
		c.Locals("userID", ident.ID)

		return c.Next()
	}
}

// GuestOnly sends signed-in users to the dashboard.
func GuestOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := session.Identify(session.From(c)); ok {
			return c.Redirect("/dashboard", fiber.StatusSeeOther)
		}
		return c.Next()
	}
}

// RequireRole must run after Protected.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ident, ok := session.Current(c)
		if !ok {
			return c.Redirect("/login", fiber.StatusSeeOther)
		}
		if !ident.HasRole(roles...) {
			return fiber.NewError(fiber.StatusForbidden, "You do not have permission to access this page.")
		}
		return c.Next()
	}
}
