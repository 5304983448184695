package controllers

import (
	"academica_go/database"
	"academica_go/middleware"
	"academica_go/models"
	"academica_go/services"

	"github.com/gofiber/fiber/v2"
)

type GradebookController struct{}

type CreateAssignmentRequest struct {
	CourseID    uint    `json:"course_id"`
	Code        string  `json:"code"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	MaxScore    float64 `json:"max_score"`
	Weight      float64 `json:"weight"`
}

// CreateAssignment adds an assessment item to a course. Weights that do not
// sum to 100 across the course produce a warning in the response, never a
// rejection.
func (gc *GradebookController) CreateAssignment(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return err
	}

	var req CreateAssignmentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Title == "" || req.MaxScore <= 0 || req.Weight < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "title, positive max_score and non-negative weight are required",
		})
	}

	var course models.Course
	err = database.DB.Scopes(database.WithinOrg(claims.OrgID)).First(&course, req.CourseID).Error
	if err != nil {
		return respondServiceError(c, err)
	}

	assignment := models.Assignment{
		OrgID:       claims.OrgID,
		CourseID:    req.CourseID,
		Code:        req.Code,
		Title:       req.Title,
		Description: req.Description,
		MaxScore:    req.MaxScore,
		Weight:      req.Weight,
	}
	if err := database.DB.Create(&assignment).Error; err != nil {
		return respondServiceError(c, err)
	}

	middleware.LogActivity(c, "CREATE", "assignments", assignment.ID, req)

	warning, _ := services.NewGradebookService().WeightWarning(claims.OrgID, req.CourseID)
	resp := fiber.Map{"assignment": assignment}
	if warning != "" {
		resp["warning"] = warning
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// ListAssignments lists a course's assessment items with the weight warning
func (gc *GradebookController) ListAssignments(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return err
	}
	courseID, err := paramID(c, "courseId")
	if err != nil {
		return err
	}

	var course models.Course
	err = database.DB.Scopes(database.WithinOrg(claims.OrgID)).First(&course, courseID).Error
	if err != nil {
		return respondServiceError(c, err)
	}

	var assignments []models.Assignment
	err = database.DB.Scopes(database.WithinOrg(claims.OrgID)).
		Where("course_id = ?", courseID).
		Order("id").
		Find(&assignments).Error
	if err != nil {
		return respondServiceError(c, err)
	}

	warning, _ := services.NewGradebookService().WeightWarning(claims.OrgID, courseID)
	resp := fiber.Map{"assignments": assignments}
	if warning != "" {
		resp["warning"] = warning
	}
	return c.JSON(resp)
}

type UpsertScoreRequest struct {
	StudentID uint     `json:"student_id"`
	Score     *float64 `json:"score"`
	Feedback  string   `json:"feedback"`
}

// UpsertScore enters or replaces one student's grade for an assignment. A null
// score clears the grade back to ungraded.
func (gc *GradebookController) UpsertScore(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return err
	}
	assignmentID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req UpsertScoreRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	row, err := services.NewGradebookService().UpsertScore(
		claims.OrgID, assignmentID, req.StudentID, req.Score, req.Feedback)
	if err != nil {
		return respondServiceError(c, err)
	}

	middleware.LogActivity(c, "UPDATE", "assignment_scores", row.ID, fiber.Map{
		"assignment_id": assignmentID,
		"student_id":    req.StudentID,
	})

	return c.JSON(fiber.Map{"score": row})
}

// RecordSubmission registers that the authenticated student handed in work
func (gc *GradebookController) RecordSubmission(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return err
	}
	assignmentID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var student models.Student
	err = database.DB.Scopes(database.WithinOrg(claims.OrgID)).
		Where("user_id = ?", claims.UserID).
		First(&student).Error
	if err != nil {
		return respondServiceError(c, err)
	}

	row, err := services.NewGradebookService().RecordSubmission(claims.OrgID, assignmentID, student.ID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"submission": row})
}

// GetStudentAverage returns one student's weighted running average for a course
func (gc *GradebookController) GetStudentAverage(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return err
	}
	courseID, err := paramID(c, "courseId")
	if err != nil {
		return err
	}
	studentID, err := paramID(c, "studentId")
	if err != nil {
		return err
	}

	avg, err := services.NewGradebookService().ComputeAverage(claims.OrgID, studentID, courseID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"average": avg})
}

// GetCourseAverage returns the course-level mean of student averages
func (gc *GradebookController) GetCourseAverage(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return err
	}
	courseID, err := paramID(c, "courseId")
	if err != nil {
		return err
	}

	avg, err := services.NewGradebookService().ComputeGroupAverage(claims.OrgID, courseID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"course_average": avg})
}
