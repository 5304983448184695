package controllers

import (
	"academica_go/database"
	"academica_go/middleware"
	"academica_go/models"
	"academica_go/services"

	"github.com/gofiber/fiber/v2"
)

// LogController exposes the activity log and its S3 archives to admins.
type LogController struct{}

// GetActivityLogs lists the tenant's activity logs with pagination
func (lc *LogController) GetActivityLogs(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return err
	}

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 50)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}

	query := database.DB.Scopes(database.WithinOrg(claims.OrgID))
	if action := c.Query("action"); action != "" {
		query = query.Where("action = ?", action)
	}
	if resource := c.Query("resource"); resource != "" {
		query = query.Where("resource = ?", resource)
	}

	var total int64
	query.Model(&models.ActivityLog{}).Count(&total)

	var logs []models.ActivityLog
	err = query.Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Preload("User").
		Find(&logs).Error
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"logs": logs,
		"pagination": fiber.Map{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// GetArchives lists archived log files
func (lc *LogController) GetArchives(c *fiber.Ctx) error {
	archives, err := services.NewLogArchiveService().GetArchivedLogs()
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"archives": archives})
}

// DownloadArchive streams one archive ZIP from S3
func (lc *LogController) DownloadArchive(c *fiber.Ctx) error {
	archiveID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	reader, fileName, err := services.NewLogArchiveService().DownloadArchivedLogs(archiveID)
	if err != nil {
		return respondServiceError(c, err)
	}
	defer reader.Close()

	c.Set("Content-Type", "application/zip")
	c.Set("Content-Disposition", "attachment; filename=\""+fileName+"\"")
	return c.SendStream(reader)
}

// FlushLogs forces cached logs from Redis into the database
func (lc *LogController) FlushLogs(c *fiber.Ctx) error {
	if err := services.NewLogArchiveService().FlushCachedLogsToDatabase(); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Cached logs flushed"})
}

// ArchiveLogs archives logs older than the requested number of days
func (lc *LogController) ArchiveLogs(c *fiber.Ctx) error {
	days := c.QueryInt("days", 30)
	if err := services.NewLogArchiveService().ArchiveOldLogs(days); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"message": "Archive completed"})
}
