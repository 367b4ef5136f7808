package middleware

import (
	"context"
	"errors"

	"github.com/Tully-L/Stu-Points-wxapp-backend/internal/apperr"
	"github.com/Tully-L/Stu-Points-wxapp-backend/internal/models"
	"github.com/Tully-L/Stu-Points-wxapp-backend/internal/repository"
	"github.com/Tully-L/Stu-Points-wxapp-backend/internal/services"
	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenContextKey = "session"

var (
	ErrNoSession      = apperr.Unauthorized("please log in")
	ErrInvalidSession = apperr.Unauthorized("invalid login state")
	ErrSessionExpired = apperr.Unauthorized("login expired, please log in again")
	ErrUnknownAccount = apperr.Unauthorized("user does not exist")
)

// AccountFinder loads the account a session token refers to.
type AccountFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
}

// SessionGuard verifies the bearer token, loads its account and stores it for
// CurrentAccount. Failures are returned as errors for the app ErrorHandler.
func SessionGuard(secret string, accounts AccountFinder) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{
			JWTAlg: jwt.SigningMethodHS256.Alg(),
			Key:    []byte(secret),
		},
		Claims:     &services.SessionClaims{},
		ContextKey: tokenContextKey,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return classifyTokenError(err)
		},
		SuccessHandler: func(c *fiber.Ctx) error {
			token, ok := c.Locals(tokenContextKey).(*jwt.Token)
			if !ok {
				return ErrInvalidSession
			}
			claims, ok := token.Claims.(*services.SessionClaims)
			if !ok {
				return ErrInvalidSession
			}
			accountID, err := uuid.Parse(claims.UserID)
			if err != nil {
				return ErrInvalidSession
			}

			account, err := accounts.FindByID(c.UserContext(), accountID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return ErrUnknownAccount
				}
				return apperr.Internal("failed to load session account", err)
			}

			setAccount(c, account)
			if hub := sentryfiber.GetHubFromContext(c); hub != nil {
				hub.Scope().SetUser(sentry.User{ID: account.ID.String()})
			}
			return c.Next()
		},
	})
}

func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwtware.ErrJWTMissingOrMalformed):
		return ErrNoSession
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrSessionExpired
	case errors.Is(err, jwt.ErrTokenMalformed),
		errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable),
		errors.Is(err, jwt.ErrTokenInvalidClaims),
		errors.Is(err, jwt.ErrTokenNotValidYet):
		return ErrInvalidSession
	case err == nil:
		// jwtware reports a parsed but invalid token with a nil error.
		return ErrInvalidSession
	default:
		return apperr.Internal("failed to verify session", err)
	}
}
