package controllers

import (
	"academica_go/database"
	"academica_go/middleware"
	"academica_go/models"
	"academica_go/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type UserController struct{}

type CreateUserRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// CreateUser provisions a user in the admin's organization, creating the
// matching teacher or student profile for those roles.
func (uc *UserController) CreateUser(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return err
	}

	var req CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Username == "" || len(req.Password) < 8 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "username and a password of at least 8 characters are required",
		})
	}
	if !utils.IsValidRole(req.Role) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "role must be admin, teacher or student",
		})
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to hash password",
		})
	}

	user := models.User{
		OrgID:    claims.OrgID,
		Username: req.Username,
		Password: hashed,
		Email:    req.Email,
		Role:     req.Role,
		Status:   "active",
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		switch req.Role {
		case "teacher":
			return tx.Create(&models.Teacher{
				OrgID:     claims.OrgID,
				UserID:    user.ID,
				FirstName: req.FirstName,
				LastName:  req.LastName,
				Active:    true,
			}).Error
		case "student":
			return tx.Create(&models.Student{
				OrgID:     claims.OrgID,
				UserID:    user.ID,
				FirstName: req.FirstName,
				LastName:  req.LastName,
			}).Error
		}
		return nil
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	middleware.LogActivity(c, "CREATE", "users", user.ID, fiber.Map{
		"username": req.Username,
		"role":     req.Role,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"user": user})
}

// GetUsers lists the organization's users
func (uc *UserController) GetUsers(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return err
	}

	query := database.DB.Scopes(database.WithinOrg(claims.OrgID))
	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}

	var users []models.User
	if err := query.Order("username").Find(&users).Error; err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"users": users})
}

// UpdateUserStatus activates, deactivates or suspends a user
func (uc *UserController) UpdateUserStatus(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return err
	}
	userID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil || !utils.IsValidUserStatus(req.Status) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "status must be active, inactive or suspended",
		})
	}

	result := database.DB.Model(&models.User{}).
		Scopes(database.WithinOrg(claims.OrgID)).
		Where("id = ?", userID).
		Update("status", req.Status)
	if result.Error != nil {
		return respondServiceError(c, result.Error)
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Not found",
		})
	}

	middleware.LogActivity(c, "UPDATE", "users", userID, req)

	return c.JSON(fiber.Map{"message": "Status updated"})
}
