package middleware

import (
	"crmportal/session"
	"crmportal/utils"

	"github.com/gofiber/fiber/v2"
)

// Session loads the visitor's session before the handler runs and saves
// it afterwards.
func Session(store session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := store.Get(c)
		if err != nil {
			utils.LogError("session_load_failed", err, map[string]interface{}{
				"path": c.Path(),
			})
			return fiber.ErrInternalServerError
		}
		session.Attach(c, sess)

		handlerErr := c.Next()

		if err := sess.Save(); err != nil {
			utils.LogError("session_save_failed", err, map[string]interface{}{
				"path": c.Path(),
			})
			if handlerErr == nil {
				return fiber.ErrInternalServerError
			}
		}
		return handlerErr
	}
}
