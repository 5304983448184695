package controllers

import (
	"academica_go/database"
	"academica_go/middleware"
	"academica_go/models"

	"github.com/gofiber/fiber/v2"
)

type CourseController struct{}

type CreateCourseRequest struct {
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

// CreateCourse adds a course to the organization's catalog
func (cc *CourseController) CreateCourse(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return err
	}

	var req CreateCourseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Name == "" || req.Code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "name and code are required",
		})
	}

	course := models.Course{
		OrgID:       claims.OrgID,
		Name:        req.Name,
		Code:        req.Code,
		Description: req.Description,
		Status:      "active",
	}
	if err := database.DB.Create(&course).Error; err != nil {
		return respondServiceError(c, err)
	}

	middleware.LogActivity(c, "CREATE", "courses", course.ID, req)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"course": course})
}

// GetCourses lists the tenant's courses
func (cc *CourseController) GetCourses(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return err
	}

	query := database.DB.Scopes(database.WithinOrg(claims.OrgID))
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var courses []models.Course
	if err := query.Order("code").Find(&courses).Error; err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"courses": courses})
}

// GetCourse returns one course with its assignments
func (cc *CourseController) GetCourse(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return err
	}
	courseID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var course models.Course
	err = database.DB.Scopes(database.WithinOrg(claims.OrgID)).
		Preload("Assignments").
		First(&course, courseID).Error
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"course": course})
}
