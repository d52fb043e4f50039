package session

import "github.com/gofiber/fiber/v2"

const (
	localsSession  = "session"
	localsIdentity = "identity"
)

// Attach makes sess available to later handlers of the request.
func Attach(c *fiber.Ctx, sess Session) {
	c.Locals(localsSession, sess)
}

// From returns the session attached to the request, or nil.
func From(c *fiber.Ctx) Session {
	sess, _ := c.Locals(localsSession).(Session)
	return sess
}

// SetCurrent records the identity that passed the access gate.
func SetCurrent(c *fiber.Ctx, ident Identity) {
	c.Locals(localsIdentity, ident)
}

// Current returns the identity that passed the access gate.
func Current(c *fiber.Ctx) (Identity, bool) {
	ident, ok := c.Locals(localsIdentity).(Identity)
	return ident, ok
}
