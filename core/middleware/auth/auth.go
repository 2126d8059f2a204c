package auth

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// DefaultHeader carries the API key.
const DefaultHeader = "X-API-Key"

// Config holds the auth middleware settings.
type Config struct {
	// ApiKey is the shared secret. Empty disables the check.
	ApiKey string
	// Header overrides DefaultHeader.
	Header string
	// PublicPrefixes lists path prefixes served without a key.
	PublicPrefixes []string
}

// New returns a middleware rejecting requests without a valid API key. The
// key is read from the configured header or an "Authorization: Bearer" header.
func New(cfg Config) fiber.Handler {
	header := cfg.Header
	if header == "" {
		header = DefaultHeader
	}
	expected := []byte(cfg.ApiKey)

	return func(c *fiber.Ctx) error {
		if len(expected) == 0 || isPublic(c.Path(), cfg.PublicPrefixes) {
			return c.Next()
		}

		key := c.Get(header)
		if key == "" {
			key = strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
		}
		if key == "" || subtle.ConstantTimeCompare([]byte(key), expected) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or missing API key",
			})
		}
		return c.Next()
	}
}

func isPublic(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
