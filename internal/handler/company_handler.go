package handler

import (
	"go-pos-ws/internal/model"
	"go-pos-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

type CompanyHandler struct {
	service service.CompanyService
}

func NewCompanyHandler(s service.CompanyService) *CompanyHandler {
	return &CompanyHandler{service: s}
}

// GET /api/v1/company/info
func (h *CompanyHandler) GetInfo(c *fiber.Ctx) error {
	info, err := h.service.GetInfo()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(info)
}

// PUT /api/v1/company/info
func (h *CompanyHandler) UpdateInfo(c *fiber.Ctx) error {
	var req model.CompanyInfo
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	info, err := h.service.UpdateInfo(&req, getActor(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Company info updated", "data": info})
}
