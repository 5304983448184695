package controllers

import (
	"academica_go/database"
	"academica_go/middleware"
	"academica_go/models"
	"academica_go/utils"

	"github.com/gofiber/fiber/v2"
)

type AuthController struct{}

type LoginRequest struct {
	OrgCode  string `json:"org_code"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login authenticates a user within an organization and issues a JWT. The org
// code is part of the credential: the same username may exist under several
// tenants.
func (ac *AuthController) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.OrgCode == "" || req.Username == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "org_code, username and password are required",
		})
	}

	var org models.Organization
	if err := database.DB.Where("code = ?", req.OrgCode).First(&org).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid credentials",
		})
	}

	var user models.User
	err := database.DB.Scopes(database.WithinOrg(org.ID)).
		Where("username = ? AND status = ?", req.Username, "active").
		First(&user).Error
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid credentials",
		})
	}

	if err := utils.CheckPassword(req.Password, user.Password); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid credentials",
		})
	}

	token, err := middleware.GenerateToken(&user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate token",
		})
	}

	middleware.LogActivity(c, "LOGIN", "users", user.ID, nil)

	return c.JSON(fiber.Map{
		"token": token,
		"user": fiber.Map{
			"id":       user.ID,
			"username": user.Username,
			"role":     user.Role,
			"org_id":   user.OrgID,
		},
	})
}

// GetProfile returns the authenticated user with their linked profile
func (ac *AuthController) GetProfile(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	var full models.User
	err = database.DB.Scopes(database.WithinOrg(user.OrgID)).
		Preload("Organization").
		Preload("Student").
		Preload("Teacher").
		First(&full, user.ID).Error
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"user": full})
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePassword updates the authenticated user's password
func (ac *AuthController) ChangePassword(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	var req ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if len(req.NewPassword) < 8 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "New password must be at least 8 characters",
		})
	}

	if err := utils.CheckPassword(req.CurrentPassword, user.Password); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Current password is incorrect",
		})
	}

	hashed, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to hash password",
		})
	}

	err = database.DB.Model(user).Update("password", hashed).Error
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Password updated"})
}
