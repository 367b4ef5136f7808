package middleware

import (
	"github.com/Tully-L/Stu-Points-wxapp-backend/internal/models"
	"github.com/gofiber/fiber/v2"
)

const accountContextKey = "account"

func setAccount(c *fiber.Ctx, account *models.Account) {
	c.Locals(accountContextKey, account)
}

// CurrentAccount returns the account resolved by SessionGuard, or nil when the
// route is not guarded.
func CurrentAccount(c *fiber.Ctx) *models.Account {
	account, _ := c.Locals(accountContextKey).(*models.Account)
	return account
}
