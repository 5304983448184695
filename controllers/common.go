package controllers

import (
	"errors"
	"strconv"

	"academica_go/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// paramID parses a numeric route parameter.
func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid "+name)
	}
	return uint(id), nil
}

// respondServiceError maps service-layer failures onto HTTP responses. Rows
// that exist under another tenant come back as record-not-found from the org
// scope, so cross-tenant probes get the same 404 as a genuinely missing row.
func respondServiceError(c *fiber.Ctx, err error) error {
	var conflict *services.ConflictError
	switch {
	case errors.As(err, &conflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":            "Schedule conflict",
			"conflicting_slot": conflict.Slot,
		})
	case errors.Is(err, services.ErrInvalidRange),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrScoreOutOfRange):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errors.Is(err, services.ErrJustificationRequired):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errors.Is(err, gorm.ErrRecordNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Not found",
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
}
