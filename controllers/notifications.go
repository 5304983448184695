package controllers

import (
	"time"

	"academica_go/database"
	"academica_go/middleware"
	"academica_go/models"

	"github.com/gofiber/fiber/v2"
)

type NotificationController struct{}

// GetNotifications returns notifications for the current user
func (nc *NotificationController) GetNotifications(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit

	query := database.DB.Scopes(database.WithinOrg(user.OrgID)).
		Where("user_id = ?", user.ID)

	if read := c.Query("read"); read == "true" {
		query = query.Where("`read` = ?", true)
	} else if read == "false" {
		query = query.Where("`read` = ?", false)
	}
	if typ := c.Query("type"); typ != "" {
		query = query.Where("type = ?", typ)
	}

	var total int64
	query.Model(&models.Notification{}).Count(&total)

	var notifications []models.Notification
	if err := query.Order("created_at DESC").
		Offset(offset).Limit(limit).Find(&notifications).Error; err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"notifications": notifications,
		"pagination": fiber.Map{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// GetUnreadCount returns the number of unread notifications
func (nc *NotificationController) GetUnreadCount(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	var count int64
	database.DB.Model(&models.Notification{}).
		Scopes(database.WithinOrg(user.OrgID)).
		Where("user_id = ? AND `read` = ?", user.ID, false).
		Count(&count)

	return c.JSON(fiber.Map{"unread_count": count})
}

// MarkAsRead marks one notification read
func (nc *NotificationController) MarkAsRead(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User not found",
		})
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	now := time.Now()
	result := database.DB.Model(&models.Notification{}).
		Scopes(database.WithinOrg(user.OrgID)).
		Where("id = ? AND user_id = ?", id, user.ID).
		Updates(map[string]interface{}{"read": true, "read_at": &now})
	if result.Error != nil {
		return respondServiceError(c, result.Error)
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Not found",
		})
	}

	return c.JSON(fiber.Map{"message": "Notification marked as read"})
}

// MarkAllAsRead marks every unread notification of the user read
func (nc *NotificationController) MarkAllAsRead(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	now := time.Now()
	result := database.DB.Model(&models.Notification{}).
		Scopes(database.WithinOrg(user.OrgID)).
		Where("user_id = ? AND `read` = ?", user.ID, false).
		Updates(map[string]interface{}{"read": true, "read_at": &now})
	if result.Error != nil {
		return respondServiceError(c, result.Error)
	}

	return c.JSON(fiber.Map{
		"message": "All notifications marked as read",
		"updated": result.RowsAffected,
	})
}
