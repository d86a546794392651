package handler

import (
	"net/url"

	"go-pos-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

type FiadoHandler struct {
	service service.FiadoService
}

func NewFiadoHandler(s service.FiadoService) *FiadoHandler {
	return &FiadoHandler{service: s}
}

// customerParam decodes the :customer path segment; names carry spaces
func customerParam(c *fiber.Ctx) string {
	raw := c.Params("customer")
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

// POST /api/v1/fiado/sales
func (h *FiadoHandler) CreateSale(c *fiber.Ctx) error {
	var req service.CreateFiadoSaleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	result, err := h.service.AddFiadoSale(&req, getActor(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(201).JSON(fiber.Map{"message": "Fiado sale recorded", "data": result})
}

// POST /api/v1/fiado/payments
func (h *FiadoHandler) AddPayment(c *fiber.Ctx) error {
	var req service.FiadoPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	result, err := h.service.AddPayment(&req, getActor(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(201).JSON(fiber.Map{"message": "Payment recorded", "data": result})
}

// GET /api/v1/fiado/accounts
func (h *FiadoHandler) ListAccounts(c *fiber.Ctx) error {
	accounts, err := h.service.ListAccounts()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(accounts)
}

// GET /api/v1/fiado/accounts/:customer
func (h *FiadoHandler) GetAccount(c *fiber.Ctx) error {
	account, err := h.service.GetAccount(customerParam(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(account)
}

// Reconcile recomputes the balance from the account's transactions
// POST /api/v1/fiado/accounts/:customer/reconcile
func (h *FiadoHandler) Reconcile(c *fiber.Ctx) error {
	result, err := h.service.Reconcile(customerParam(c), getActor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Account reconciled", "data": result})
}
