package handler

import (
	"go-pos-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

type CashSessionHandler struct {
	service service.CashSessionService
}

func NewCashSessionHandler(s service.CashSessionService) *CashSessionHandler {
	return &CashSessionHandler{service: s}
}

// Open starts a register session with the counted opening float
// POST /api/v1/register/open
func (h *CashSessionHandler) Open(c *fiber.Ctx) error {
	var req service.OpenRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	session, err := h.service.Open(&req, getActor(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(201).JSON(fiber.Map{"message": "Register opened", "data": session})
}

// Close ends the open session and stores the expected balance
// POST /api/v1/register/close
func (h *CashSessionHandler) Close(c *fiber.Ctx) error {
	summary, err := h.service.Close(getActor(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Register closed", "data": summary})
}

// GET /api/v1/register/current
func (h *CashSessionHandler) Current(c *fiber.Ctx) error {
	summary, err := h.service.Current()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summary)
}

// AddAdjustment records a suprimento or sangria on the open session
// POST /api/v1/register/adjustments
func (h *CashSessionHandler) AddAdjustment(c *fiber.Ctx) error {
	var req service.AdjustmentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	adjustment, err := h.service.AddAdjustment(&req, getActor(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(201).JSON(fiber.Map{"message": "Adjustment recorded", "data": adjustment})
}

// GET /api/v1/register/sessions
func (h *CashSessionHandler) History(c *fiber.Ctx) error {
	sessions, err := h.service.History()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sessions)
}

// GET /api/v1/register/sessions/:id
func (h *CashSessionHandler) GetSession(c *fiber.Ctx) error {
	id, err := parseID(c, "session")
	if err != nil {
		return err
	}

	summary, err := h.service.GetSession(id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summary)
}

// DELETE /api/v1/register/sessions/:id
func (h *CashSessionHandler) DeleteSession(c *fiber.Ctx) error {
	id, err := parseID(c, "session")
	if err != nil {
		return err
	}

	if err := h.service.DeleteSession(id, getActor(c)); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Session deleted"})
}
