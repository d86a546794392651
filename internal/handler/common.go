package handler

import (
	"errors"
	"time"

	"go-pos-ws/internal/middleware"
	"go-pos-ws/internal/service"
	"go-pos-ws/pkg/jwt"
	"go-pos-ws/pkg/validator"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var errorStatus = []struct {
	err    error
	status int
}{
	{validator.ErrValidation, fiber.StatusBadRequest},
	{service.ErrEmptyCart, fiber.StatusBadRequest},
	{service.ErrInvalidQuantity, fiber.StatusBadRequest},
	{service.ErrInvalidCSV, fiber.StatusBadRequest},
	{service.ErrInvalidRole, fiber.StatusBadRequest},
	{service.ErrDeleteSelf, fiber.StatusBadRequest},
	{service.ErrWrongPassword, fiber.StatusBadRequest},

	{service.ErrInvalidCredentials, fiber.StatusUnauthorized},
	{service.ErrSessionReplaced, fiber.StatusUnauthorized},
	{jwt.ErrInvalidToken, fiber.StatusUnauthorized},
	{jwt.ErrMissingToken, fiber.StatusUnauthorized},

	{service.ErrUserInactive, fiber.StatusForbidden},

	{service.ErrProductNotFound, fiber.StatusNotFound},
	{service.ErrSaleNotFound, fiber.StatusNotFound},
	{service.ErrSessionNotFound, fiber.StatusNotFound},
	{service.ErrFiadoAccountNotFound, fiber.StatusNotFound},
	{service.ErrOrderNotFound, fiber.StatusNotFound},
	{service.ErrUserNotFound, fiber.StatusNotFound},

	{service.ErrInsufficientStock, fiber.StatusConflict},
	{service.ErrReservationMismatch, fiber.StatusConflict},
	{service.ErrSaleAlreadyCancelled, fiber.StatusConflict},
	{service.ErrFiadoSaleNotCancellable, fiber.StatusConflict},
	{service.ErrRegisterAlreadyOpen, fiber.StatusConflict},
	{service.ErrRegisterClosed, fiber.StatusConflict},
	{service.ErrSessionStillOpen, fiber.StatusConflict},
	{service.ErrNothingToPay, fiber.StatusConflict},
	{service.ErrInvalidOrderTransition, fiber.StatusConflict},
	{service.ErrCodeExists, fiber.StatusConflict},
	{service.ErrProductHasReserve, fiber.StatusConflict},
	{service.ErrEmailExists, fiber.StatusConflict},
}

// statusFor maps a service error to its HTTP status; unknown errors are 500
func statusFor(err error) int {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return fiber.StatusInternalServerError
}

// respondError writes {"error": msg}. Internal errors are hidden from the
// client and left for the request logger.
func respondError(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	if status == fiber.StatusInternalServerError {
		c.Locals(middleware.LocalError, err)
		return c.Status(status).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// getActor reads the user set by RequireAuth
func getActor(c *fiber.Ctx) service.Actor {
	actor := service.Actor{ID: "system", Name: "Unknown"}
	if v, ok := c.Locals(middleware.LocalUserID).(string); ok {
		actor.ID = v
	}
	if v, ok := c.Locals(middleware.LocalUserName).(string); ok {
		actor.Name = v
	}
	if v, ok := c.Locals(middleware.LocalUserEmail).(string); ok {
		actor.Email = v
	}
	return actor
}

func parseID(c *fiber.Ctx, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, c.Status(400).JSON(fiber.Map{"error": "Invalid " + what + " ID"})
	}
	return id, nil
}

// dateRange reads from/to (YYYY-MM-DD, inclusive) or a "range" preset
// (7d, 1m, 3m, 6m, 12m). Defaults to the last 7 days.
func dateRange(c *fiber.Ctx, now time.Time) (time.Time, time.Time, error) {
	const layout = "2006-01-02"

	if from, to := c.Query("from"), c.Query("to"); from != "" || to != "" {
		start, err := time.ParseInLocation(layout, from, now.Location())
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("invalid from date, use YYYY-MM-DD")
		}
		end := now
		if to != "" {
			day, err := time.ParseInLocation(layout, to, now.Location())
			if err != nil {
				return time.Time{}, time.Time{}, errors.New("invalid to date, use YYYY-MM-DD")
			}
			end = day.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		if end.Before(start) {
			return time.Time{}, time.Time{}, errors.New("to must not be before from")
		}
		return start, end, nil
	}

	var start time.Time
	switch c.Query("range", "7d") {
	case "1m":
		start = now.AddDate(0, -1, 0)
	case "3m":
		start = now.AddDate(0, -3, 0)
	case "6m":
		start = now.AddDate(0, -6, 0)
	case "12m":
		start = now.AddDate(0, -12, 0)
	default:
		start = now.AddDate(0, 0, -7)
	}
	return start, now, nil
}
