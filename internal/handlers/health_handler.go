package handlers

import (
	"time"

	"github.com/Tully-L/Stu-Points-wxapp-backend/internal/dto"
	"github.com/gofiber/fiber/v2"
)

const (
	serviceName    = "Student Points API"
	serviceVersion = "1.0.0"
)

type HealthHandler struct {
	ping        func() error
	environment string
}

func NewHealthHandler(ping func() error, environment string) *HealthHandler {
	return &HealthHandler{ping: ping, environment: environment}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	dbStatus := "connected"
	if h.ping == nil || h.ping() != nil {
		dbStatus = "disconnected"
	}

	return c.JSON(dto.HealthResponse{
		Status:      "ok",
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Service:     serviceName,
		Database:    dbStatus,
		Environment: h.environment,
	})
}

// Index lists the public endpoints.
func (h *HealthHandler) Index(c *fiber.Ctx) error {
	return c.JSON(dto.IndexResponse{
		Name:    serviceName,
		Version: serviceVersion,
		Endpoints: map[string]any{
			"health": "/health",
			"auth":   "/api/auth/login",
			"submissions": map[string]string{
				"create": "POST /api/submissions",
				"list":   "GET /api/submissions/my",
				"detail": "GET /api/submissions/:id",
			},
		},
	})
}
