package handlers

import (
	"github.com/Tully-L/Stu-Points-wxapp-backend/internal/dto"
	"github.com/Tully-L/Stu-Points-wxapp-backend/internal/middleware"
	"github.com/Tully-L/Stu-Points-wxapp-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type SubmissionHandler struct {
	submissionService *services.SubmissionService
}

func NewSubmissionHandler(submissionService *services.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{submissionService: submissionService}
}

func (h *SubmissionHandler) Create(c *fiber.Ctx) error {
	caller := middleware.CurrentAccount(c)
	if caller == nil {
		return middleware.ErrNoSession
	}

	var req dto.CreateSubmissionRequest
	if err := c.BodyParser(&req); err != nil {
		return errInvalidBody
	}

	resp, err := h.submissionService.Create(c.UserContext(), caller, &req)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

// ListMine serves GET /my?page=&limit=. Non-numeric values fall back to the
// defaults and the service normalizes the rest.
func (h *SubmissionHandler) ListMine(c *fiber.Ctx) error {
	caller := middleware.CurrentAccount(c)
	if caller == nil {
		return middleware.ErrNoSession
	}

	page := c.QueryInt("page", services.DefaultPage)
	limit := c.QueryInt("limit", services.DefaultPageSize)

	resp, err := h.submissionService.ListMine(c.UserContext(), caller, page, limit)
	if err != nil {
		return err
	}

	return c.JSON(resp)
}

func (h *SubmissionHandler) Detail(c *fiber.Ctx) error {
	caller := middleware.CurrentAccount(c)
	if caller == nil {
		return middleware.ErrNoSession
	}

	resp, err := h.submissionService.Detail(c.UserContext(), caller, c.Params("id"))
	if err != nil {
		return err
	}

	return c.JSON(resp)
}
