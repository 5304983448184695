package controllers

import (
	"academica_go/middleware"
	"academica_go/services"

	"github.com/gofiber/fiber/v2"
)

type ScheduleController struct{}

// CheckConflict runs a dry-run conflict check for a prospective slot. A clean
// answer here can still lose a race; the create and update paths repeat the
// check inside their write transaction.
func (sc *ScheduleController) CheckConflict(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return err
	}

	var req struct {
		services.SlotInput
		ExcludeSlotID *uint `json:"exclude_slot_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	conflict, err := services.NewScheduleService().CheckConflict(
		claims.OrgID, req.TeacherID, req.DayOfWeek, req.StartTime, req.EndTime, req.ExcludeSlotID)
	if err != nil {
		return respondServiceError(c, err)
	}

	if conflict != nil {
		return c.JSON(fiber.Map{
			"has_conflict":     true,
			"conflicting_slot": conflict,
		})
	}
	return c.JSON(fiber.Map{"has_conflict": false})
}

// CreateSlot adds a class slot to the weekly timetable
func (sc *ScheduleController) CreateSlot(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return err
	}

	var input services.SlotInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	slot, err := services.NewScheduleService().CreateSlot(claims.OrgID, input)
	if err != nil {
		return respondServiceError(c, err)
	}

	middleware.LogActivity(c, "CREATE", "class_slots", slot.ID, input)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"slot": slot})
}

// UpdateSlot moves or retimes an existing slot
func (sc *ScheduleController) UpdateSlot(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return err
	}
	slotID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var input services.SlotInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	slot, err := services.NewScheduleService().UpdateSlot(claims.OrgID, slotID, input)
	if err != nil {
		return respondServiceError(c, err)
	}

	middleware.LogActivity(c, "UPDATE", "class_slots", slot.ID, input)

	return c.JSON(fiber.Map{"slot": slot})
}

// DeactivateSlot removes a slot from the active timetable, keeping history
func (sc *ScheduleController) DeactivateSlot(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return err
	}
	slotID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	if err := services.NewScheduleService().DeactivateSlot(claims.OrgID, slotID); err != nil {
		return respondServiceError(c, err)
	}

	middleware.LogActivity(c, "DELETE", "class_slots", slotID, nil)

	return c.JSON(fiber.Map{"message": "Slot deactivated"})
}

// GetTeacherSchedule lists a teacher's active weekly slots
func (sc *ScheduleController) GetTeacherSchedule(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return err
	}
	teacherID, err := paramID(c, "teacherId")
	if err != nil {
		return err
	}

	slots, err := services.NewScheduleService().ListTeacherSlots(claims.OrgID, teacherID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"teacher_id": teacherID,
		"slots":      slots,
	})
}
