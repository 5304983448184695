package controllers

import (
	"time"

	"academica_go/database"
	"academica_go/middleware"
	"academica_go/models"

	"github.com/gofiber/fiber/v2"
)

type GroupController struct{}

type CreateGroupRequest struct {
	Name      string `json:"name"`
	CourseID  uint   `json:"course_id"`
	TeacherID uint   `json:"teacher_id"`
}

// CreateGroup creates a learning group bound to a course and a teacher
func (gc *GroupController) CreateGroup(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return err
	}

	var req CreateGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Name == "" || req.CourseID == 0 || req.TeacherID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "name, course_id and teacher_id are required",
		})
	}

	var course models.Course
	if err := database.DB.Scopes(database.WithinOrg(claims.OrgID)).First(&course, req.CourseID).Error; err != nil {
		return respondServiceError(c, err)
	}
	var teacher models.Teacher
	if err := database.DB.Scopes(database.WithinOrg(claims.OrgID)).First(&teacher, req.TeacherID).Error; err != nil {
		return respondServiceError(c, err)
	}

	group := models.Group{
		OrgID:     claims.OrgID,
		Name:      req.Name,
		CourseID:  req.CourseID,
		TeacherID: req.TeacherID,
		Status:    "active",
	}
	if err := database.DB.Create(&group).Error; err != nil {
		return respondServiceError(c, err)
	}

	middleware.LogActivity(c, "CREATE", "groups", group.ID, req)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"group": group})
}

// GetGroups lists the tenant's groups
func (gc *GroupController) GetGroups(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return err
	}

	query := database.DB.Scopes(database.WithinOrg(claims.OrgID)).
		Preload("Course").
		Preload("Teacher")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var groups []models.Group
	if err := query.Order("name").Find(&groups).Error; err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"groups": groups})
}

// GetGroup returns one group with its roster
func (gc *GroupController) GetGroup(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return err
	}
	groupID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var group models.Group
	err = database.DB.Scopes(database.WithinOrg(claims.OrgID)).
		Preload("Course").
		Preload("Teacher").
		Preload("Members", "status = ?", "active").
		Preload("Members.Student").
		First(&group, groupID).Error
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"group": group})
}

type AddMemberRequest struct {
	StudentID uint `json:"student_id"`
}

// AddMember enrolls a student into a group. A previously removed member is
// re-activated rather than duplicated.
func (gc *GroupController) AddMember(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return err
	}
	groupID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req AddMemberRequest
	if err := c.BodyParser(&req); err != nil || req.StudentID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "student_id is required",
		})
	}

	var group models.Group
	if err := database.DB.Scopes(database.WithinOrg(claims.OrgID)).First(&group, groupID).Error; err != nil {
		return respondServiceError(c, err)
	}
	var student models.Student
	if err := database.DB.Scopes(database.WithinOrg(claims.OrgID)).First(&student, req.StudentID).Error; err != nil {
		return respondServiceError(c, err)
	}

	now := time.Now()
	var member models.GroupMember
	err = database.DB.Scopes(database.WithinOrg(claims.OrgID)).
		Where("group_id = ? AND student_id = ?", groupID, req.StudentID).
		First(&member).Error
	if err == nil {
		if member.Status == "active" {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Student is already a member",
			})
		}
		member.Status = "active"
		member.JoinedAt = &now
		if err := database.DB.Save(&member).Error; err != nil {
			return respondServiceError(c, err)
		}
	} else {
		member = models.GroupMember{
			OrgID:     claims.OrgID,
			GroupID:   groupID,
			StudentID: req.StudentID,
			Status:    "active",
			JoinedAt:  &now,
		}
		if err := database.DB.Create(&member).Error; err != nil {
			return respondServiceError(c, err)
		}
	}

	middleware.LogActivity(c, "CREATE", "group_members", member.ID, req)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"member": member})
}

// RemoveMember marks a member inactive. Past attendance and grades stay.
func (gc *GroupController) RemoveMember(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return err
	}
	groupID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	studentID, err := paramID(c, "studentId")
	if err != nil {
		return err
	}

	result := database.DB.Model(&models.GroupMember{}).
		Scopes(database.WithinOrg(claims.OrgID)).
		Where("group_id = ? AND student_id = ? AND status = ?", groupID, studentID, "active").
		Update("status", "inactive")
	if result.Error != nil {
		return respondServiceError(c, result.Error)
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Not found",
		})
	}

	middleware.LogActivity(c, "DELETE", "group_members", studentID, nil)

	return c.JSON(fiber.Map{"message": "Member removed"})
}
