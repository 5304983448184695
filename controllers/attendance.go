package controllers

import (
	"time"

	"academica_go/middleware"
	"academica_go/services"

	"github.com/gofiber/fiber/v2"
)

type AttendanceController struct{}

// parseDate accepts the date query/body format used across attendance routes.
func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fiber.NewError(fiber.StatusBadRequest, "date is required")
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fiber.NewError(fiber.StatusBadRequest, "date must be YYYY-MM-DD")
	}
	return t, nil
}

type SaveSessionRequest struct {
	GroupID uint            `json:"group_id"`
	Date    string          `json:"date"`
	Marks   []services.Mark `json:"marks"`
}

// SaveSession records attendance for a group on a date. The submitted marks
// plus the absent default for everyone unmarked replace the session's previous
// record set in full.
func (ac *AttendanceController) SaveSession(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return err
	}

	var req SaveSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return err
	}

	summary, err := services.NewAttendanceService().SaveSession(
		claims.OrgID, req.GroupID, date, claims.UserID, req.Marks)
	if err != nil {
		return respondServiceError(c, err)
	}

	middleware.LogActivity(c, "CREATE", "attendance_sessions", summary.SessionID, fiber.Map{
		"group_id": req.GroupID,
		"date":     req.Date,
	})

	return c.JSON(fiber.Map{"summary": summary})
}

// GetSession returns the saved session for a group and date with all records
func (ac *AttendanceController) GetSession(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return err
	}
	groupID, err := paramID(c, "groupId")
	if err != nil {
		return err
	}
	date, err := parseDate(c.Query("date"))
	if err != nil {
		return err
	}

	session, err := services.NewAttendanceService().GetSession(claims.OrgID, groupID, date)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"session": session})
}

// GetSessionProgress reports the marked-over-roster percentage for a session
func (ac *AttendanceController) GetSessionProgress(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return err
	}
	groupID, err := paramID(c, "groupId")
	if err != nil {
		return err
	}
	date, err := parseDate(c.Query("date"))
	if err != nil {
		return err
	}

	percent, err := services.NewAttendanceService().SessionProgress(claims.OrgID, groupID, date)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"group_id": groupID,
		"date":     date.Format("2006-01-02"),
		"progress": percent,
	})
}

// GetCumulativeAttendance reports a student's attendance rate for a group
func (ac *AttendanceController) GetCumulativeAttendance(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return err
	}
	groupID, err := paramID(c, "groupId")
	if err != nil {
		return err
	}
	studentID, err := paramID(c, "studentId")
	if err != nil {
		return err
	}

	result, err := services.NewAttendanceService().CumulativeAttendance(claims.OrgID, groupID, studentID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"attendance": result})
}

type FileJustificationRequest struct {
	SessionID uint   `json:"session_id"`
	StudentID uint   `json:"student_id"`
	Reason    string `json:"reason"`
}

// FileJustification opens a request to excuse a recorded absence
func (ac *AttendanceController) FileJustification(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return err
	}

	var req FileJustificationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	request, err := services.FileJustification(claims.OrgID, req.SessionID, req.StudentID, req.Reason)
	if err != nil {
		return respondServiceError(c, err)
	}

	middleware.LogActivity(c, "CREATE", "justification_requests", request.ID, nil)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"request": request})
}

type DecideJustificationRequest struct {
	Approve bool `json:"approve"`
}

// DecideJustification approves or rejects a pending justification request
func (ac *AttendanceController) DecideJustification(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return err
	}
	requestID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req DecideJustificationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	err = services.DecideJustification(claims.OrgID, requestID, claims.UserID, req.Approve)
	if err != nil {
		return respondServiceError(c, err)
	}

	middleware.LogActivity(c, "UPDATE", "justification_requests", requestID, req)

	return c.JSON(fiber.Map{"message": "Request decided"})
}

// ListJustifications lists justification requests, optionally for one group
func (ac *AttendanceController) ListJustifications(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return err
	}

	var groupID *uint
	if raw := c.QueryInt("group_id"); raw > 0 {
		id := uint(raw)
		groupID = &id
	}

	requests, err := services.ListJustifications(claims.OrgID, groupID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"requests": requests})
}
