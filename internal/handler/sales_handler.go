package handler

import (
	"strconv"
	"time"

	"go-pos-ws/internal/model"
	"go-pos-ws/internal/repository"
	"go-pos-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

type SalesHandler struct {
	service service.SalesService
}

func NewSalesHandler(s service.SalesService) *SalesHandler {
	return &SalesHandler{service: s}
}

// POST /api/v1/sales
func (h *SalesHandler) CreateSale(c *fiber.Ctx) error {
	var req service.CreateSaleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	sale, err := h.service.AddSale(&req, getActor(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(201).JSON(fiber.Map{"message": "Sale recorded", "data": sale})
}

// POST /api/v1/sales/:id/cancel
func (h *SalesHandler) CancelSale(c *fiber.Ctx) error {
	id, err := parseID(c, "sale")
	if err != nil {
		return err
	}

	sale, err := h.service.CancelSale(id, getActor(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Sale cancelled", "data": sale})
}

// GET /api/v1/sales/:id
func (h *SalesHandler) GetSale(c *fiber.Ctx) error {
	id, err := parseID(c, "sale")
	if err != nil {
		return err
	}

	sale, err := h.service.GetSale(id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sale)
}

// GET /api/v1/sales?from=&to=&status=&limit=
func (h *SalesHandler) ListSales(c *fiber.Ctx) error {
	filter := repository.SaleFilter{Status: model.SaleStatus(c.Query("status"))}

	if c.Query("from") != "" || c.Query("to") != "" {
		from, to, err := dateRange(c, time.Now())
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		filter.From, filter.To = &from, &to
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid limit"})
		}
		filter.Limit = limit
	}

	sales, err := h.service.ListSales(filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sales)
}
