package routes

import (
	"github.com/Tully-L/Stu-Points-wxapp-backend/internal/handlers"
	"github.com/Tully-L/Stu-Points-wxapp-backend/internal/middleware"
	"github.com/Tully-L/Stu-Points-wxapp-backend/internal/models"
	"github.com/gofiber/fiber/v2"
)

func Setup(
	app *fiber.App,
	jwtSecret string,
	accounts middleware.AccountFinder,
	authHandler *handlers.AuthHandler,
	healthHandler *handlers.HealthHandler,
	submissionHandler *handlers.SubmissionHandler,
) {
	app.Get("/", healthHandler.Index)
	app.Get("/health", healthHandler.Check)

	api := app.Group("/api")

	// Auth (public)
	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)

	// Submissions (session required; create and list are student-only)
	studentOnly := middleware.RequireRoles(models.RoleStudent)
	submissions := api.Group("/submissions", middleware.SessionGuard(jwtSecret, accounts))
	submissions.Post("", studentOnly, submissionHandler.Create)
	submissions.Get("/my", studentOnly, submissionHandler.ListMine)
	submissions.Get("/:id", submissionHandler.Detail)

	app.Use(handlers.NotFound)
}
