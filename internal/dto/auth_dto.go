package dto

import (
	"time"

	"github.com/Tully-L/Stu-Points-wxapp-backend/internal/models"
)

type LoginRequest struct {
	Code string `json:"code"`
}

type LoginResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expiresAt"`
	User      *models.Account `json:"user"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Path    string `json:"path,omitempty"`
	Method  string `json:"method,omitempty"`
}

type HealthResponse struct {
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	Service     string `json:"service"`
	Database    string `json:"database"`
	Environment string `json:"environment"`
}

type IndexResponse struct {
	Name      string         `json:"name"`
	Version   string         `json:"version"`
	Endpoints map[string]any `json:"endpoints"`
}
