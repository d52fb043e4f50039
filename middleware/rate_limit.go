package middleware

import (
	"time"

	"crmportal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// LoginRateLimiter limits sign-in attempts per client IP. onLimit renders
// the response once the limit is reached. A nil storage keeps counters in
// memory.
func LoginRateLimiter(max int, storage fiber.Storage, onLimit fiber.Handler) fiber.Handler {
	if max <= 0 {
		max = 10
	}

	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "login:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			utils.LogEvent("login_rate_limit_hit", map[string]interface{}{
				"ip":         c.IP(),
				"user_agent": c.Get("User-Agent"),
			})

			c.Status(fiber.StatusTooManyRequests)
			if onLimit != nil {
				return onLimit(c)
			}
			return c.SendString("Too many login attempts. Please try again later.")
		},
		Storage: storage,
	})
}
