package middleware

import (
	"fmt"
	"strings"
	"time"

	"go-pos-ws/internal/cache"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"
	maxIdempotencyKeyLen = 128
)

// Idempotency rejects a replayed mutation carrying an Idempotency-Key the
// same user already sent to the same route. Failed requests release their
// key so the client may retry. Requests without the header pass through.
func Idempotency(store cache.IdempotencyStore, ttl time.Duration, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := strings.TrimSpace(c.Get(HeaderIdempotencyKey))
		if key == "" {
			return c.Next()
		}
		if len(key) > maxIdempotencyKeyLen {
			return c.Status(400).JSON(fiber.Map{"error": "Idempotency-Key is too long"})
		}

		user, _ := c.Locals(LocalUserID).(string)
		scoped := fmt.Sprintf("%s:%s:%s:%s", user, c.Method(), c.Path(), key)

		first, err := store.MarkProcessed(c.UserContext(), scoped, ttl)
		if err != nil {
			// Without the store we cannot tell; let the request through.
			log.Warn("idempotency store unavailable", zap.Error(err))
			return c.Next()
		}
		if !first {
			return c.Status(409).JSON(fiber.Map{"error": "Duplicate request: this Idempotency-Key was already used"})
		}

		chainErr := c.Next()
		if chainErr != nil || c.Response().StatusCode() >= 400 {
			if err := store.Forget(c.UserContext(), scoped); err != nil {
				log.Warn("release idempotency key", zap.Error(err))
			}
		}
		return chainErr
	}
}
