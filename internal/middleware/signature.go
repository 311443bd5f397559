package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/gofiber/fiber/v3"
)

// VerifySignature creates a Fiber middleware that checks the GitHub-style
// HMAC-SHA256 signature over the raw request body. With no secret
// configured the check is skipped entirely. Invalid or missing signatures
// are rejected before any side effect.
func VerifySignature(secret string) fiber.Handler {
	return func(c fiber.Ctx) error {
		if secret == "" {
			return c.Next()
		}

		signature := c.Get("X-Hub-Signature-256")
		if signature == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing signature",
			})
		}

		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(c.Body())
		expected := "sha256=" + hex.EncodeToString(mac.Sum(nil))

		if !hmac.Equal([]byte(signature), []byte(expected)) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid signature",
			})
		}
		return c.Next()
	}
}

// VerifySlackSignature checks the v0 request signature Slack attaches to
// interaction callbacks. Skipped when no signing secret is configured.
func VerifySlackSignature(secret string) fiber.Handler {
	return func(c fiber.Ctx) error {
		if secret == "" {
			return c.Next()
		}

		timestamp := c.Get("X-Slack-Request-Timestamp")
		signature := c.Get("X-Slack-Signature")
		if timestamp == "" || signature == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing signature",
			})
		}

		mac := hmac.New(sha256.New, []byte(secret))
		fmt.Fprintf(mac, "v0:%s:%s", timestamp, c.Body())
		expected := "v0=" + hex.EncodeToString(mac.Sum(nil))

		if !hmac.Equal([]byte(signature), []byte(expected)) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid signature",
			})
		}
		return c.Next()
	}
}
