package middleware

import (
	"time"

	"crmportal/session"
	"crmportal/utils"

	"github.com/gofiber/fiber/v2"
)

const (
	// CSRFField is the form field and query parameter carrying the token.
	CSRFField = "_csrf"
	// CSRFLocal is where the token for the current page is stored.
	CSRFLocal = "csrf"
)

var errCSRF = fiber.NewError(fiber.StatusForbidden, "Invalid or expired security token. Please go back and try again.")

// CSRF issues a token bound to the session for every page. Must run
// after Session. Submitted tokens are checked by VerifyCSRF, which goes
// after the access gate so signed-out visitors are sent to the login page
// rather than refused.
func CSRF(secret []byte, ttl time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := session.From(c)
		if sess == nil {
			return fiber.ErrInternalServerError
		}

		token, err := utils.GenerateCSRFToken(secret, sess.ID(), ttl)
		if err != nil {
			return err
		}
		c.Locals(CSRFLocal, token)

		return c.Next()
	}
}

// VerifyCSRF checks the form token of POST requests. Other methods pass.
func VerifyCSRF(secret []byte) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodPost {
			return c.Next()
		}
		sess := session.From(c)
		if sess == nil {
			return fiber.ErrInternalServerError
		}
		if err := verify(c, secret, sess.ID(), c.FormValue(CSRFField)); err != nil {
			return err
		}
		return c.Next()
	}
}

// VerifyCSRFQuery guards state changing GET links, such as delete links,
// that carry the token in the query string.
func VerifyCSRFQuery(secret []byte) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := session.From(c)
		if sess == nil {
			return fiber.ErrInternalServerError
		}
		if err := verify(c, secret, sess.ID(), c.Query(CSRFField)); err != nil {
			return err
		}
		return c.Next()
	}
}

func verify(c *fiber.Ctx, secret []byte, sessionID, token string) error {
	if err := utils.VerifyCSRFToken(secret, token, sessionID); err != nil {
		utils.LogEvent("csrf_rejected", map[string]interface{}{
			"path":   c.Path(),
			"method": c.Method(),
			"ip":     c.IP(),
			"reason": err.Error(),
		})
		return errCSRF
	}
	return nil
}

// CSRFToken returns the token issued for the current page.
func CSRFToken(c *fiber.Ctx) string {
	token, _ := c.Locals(CSRFLocal).(string)
	return token
}
