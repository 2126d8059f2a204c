package rayid

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"
)

const (
	// Header is echoed on every response.
	Header = "X-Ray-ID"
	// LocalsKey stores the id in the request context.
	LocalsKey = "ray_id"
)

// New returns a middleware assigning a ray id to every request. A valid UUID
// sent by the client is kept.
func New() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := utils.CopyString(c.Get(Header))
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Locals(LocalsKey, id)
		c.Set(Header, id)
		return c.Next()
	}
}

// Get returns the ray id of the request, or "".
func Get(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalsKey).(string)
	return id
}
