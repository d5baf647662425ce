package middleware

import (
	"strings"

	"souk-backend/internal/pkg/constants"
	"souk-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

const (
	UserIDHeader   = "X-User-Id"
	UserRoleHeader = "X-User-Role"
	actorLocal     = "actor"
)

// Actor is the caller making the request. The mock backend trusts the
// identity headers set by the frontend.
type Actor struct {
	ID   string
	Role string
}

// Identity loads the actor from the identity headers. Requests without a
// user id stay anonymous.
func Identity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := strings.TrimSpace(c.Get(UserIDHeader))
		if id != "" {
			c.Locals(actorLocal, &Actor{ID: id, Role: constants.NormalizeRole(c.Get(UserRoleHeader))})
		}
		return c.Next()
	}
}

// RequireAuth ensures an actor is present. Returns 401 with standard error format if not.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if GetActor(c) == nil {
			return response.Unauthorized(c, "Unauthorized")
		}
		return c.Next()
	}
}

// GetActor returns the request actor (nil when anonymous).
func GetActor(c *fiber.Ctx) *Actor {
	a, _ := c.Locals(actorLocal).(*Actor)
	return a
}

// ActorID returns the actor id, or "" when anonymous.
func ActorID(c *fiber.Ctx) string {
	if a := GetActor(c); a != nil {
		return a.ID
	}
	return ""
}
