package usercontext

import "github.com/gofiber/fiber/v2"

// UserContext represents the caller identity for a request
type UserContext struct {
	Subject         string `json:"subject"`
	IsAuthenticated bool   `json:"is_authenticated"`
	TokenVerified   bool   `json:"token_verified"`
}

// GetUserContext retrieves the user context from fiber context
// Returns a default anonymous context if none is set
func GetUserContext(c *fiber.Ctx) UserContext {
	if ctx, ok := c.Locals(KeyUserContext).(UserContext); ok {
		return ctx
	}
	return UserContext{}
}

func SetUserContext(c *fiber.Ctx, uc UserContext) {
	c.Locals(KeyUserContext, uc)
}

// GetSubject returns the credential subject, or empty string if anonymous
func GetSubject(c *fiber.Ctx) string {
	return GetUserContext(c).Subject
}
