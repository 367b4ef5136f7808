package middleware

import (
	"github.com/Tully-L/Stu-Points-wxapp-backend/internal/apperr"
	"github.com/Tully-L/Stu-Points-wxapp-backend/internal/models"
	"github.com/gofiber/fiber/v2"
)

var ErrForbiddenRole = apperr.Forbidden("no permission to perform this operation")

// RequireRoles admits accounts whose role is one of roles. It must run after
// SessionGuard.
func RequireRoles(roles ...models.Role) fiber.Handler {
	allowed := make(map[models.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		account := CurrentAccount(c)
		if account == nil {
			return ErrNoSession
		}
		if account.Role == nil {
			return ErrForbiddenRole
		}
		if _, ok := allowed[*account.Role]; !ok {
			return ErrForbiddenRole
		}
		return c.Next()
	}
}
