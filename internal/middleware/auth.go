package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/SufailSLX/budget-tracker/internal/models"
	"github.com/SufailSLX/budget-tracker/internal/repository"
	"github.com/SufailSLX/budget-tracker/internal/utils"
)

const userLocalKey = "currentUser"

// RequireAuth validates the Bearer token and loads the authenticated user
// into the request context. Every failure mode returns the same generic 401
// so a caller learns nothing about why it was rejected.
func RequireAuth(users repository.UserRepository, secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		unauthorized := func() error {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Not authorized",
			})
		}

		auth := c.Get("Authorization")
		if auth == "" {
			return unauthorized()
		}
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return unauthorized()
		}

		userID, err := utils.ParseAccessToken(parts[1], secret)
		if err != nil {
			return unauthorized()
		}
		oid, err := primitive.ObjectIDFromHex(userID)
		if err != nil {
			return unauthorized()
		}

		u, err := users.FindByID(c.Context(), oid)
		if err != nil {
			return unauthorized()
		}

		c.Locals(userLocalKey, u)
		return c.Next()
	}
}

// CurrentUser returns the user loaded by RequireAuth, or nil on an
// unauthenticated route.
func CurrentUser(c *fiber.Ctx) *models.User {
	u, _ := c.Locals(userLocalKey).(*models.User)
	return u
}
