package services

import (
	"fmt"
	"strings"
	"time"

	"academica_go/database"
	"academica_go/models"

	"gorm.io/gorm"
)

// FileJustification opens a request to have a recorded absence excused. The
// reason becomes the record's justification note if the request is approved.
func FileJustification(orgID, sessionID, studentID uint, reason string) (*models.JustificationRequest, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, ErrJustificationRequired
	}

	var record models.AttendanceRecord
	err := database.DB.Scopes(database.WithinOrg(orgID)).
		Where("session_id = ? AND student_id = ?", sessionID, studentID).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	if record.Status != models.AttendanceAbsent && record.Status != models.AttendanceLate {
		return nil, fmt.Errorf("only absent or late records can be justified")
	}

	var open int64
	database.DB.Model(&models.JustificationRequest{}).
		Scopes(database.WithinOrg(orgID)).
		Where("session_id = ? AND student_id = ? AND status = ?", sessionID, studentID, "pending").
		Count(&open)
	if open > 0 {
		return nil, fmt.Errorf("a pending request already exists for this session")
	}

	request := models.JustificationRequest{
		OrgID:     orgID,
		SessionID: sessionID,
		StudentID: studentID,
		Reason:    reason,
		Status:    "pending",
	}
	if err := database.DB.Create(&request).Error; err != nil {
		return nil, err
	}

	go notifyGroupTeacher(orgID, sessionID,
		"Justification request",
		"A student asked to have an absence excused.",
		fmt.Sprintf("/justifications/%d", request.ID))

	return &request, nil
}

// DecideJustification approves or rejects a pending request. Approval rewrites
// the student's attendance record to excused, carrying the reason as the note,
// inside one transaction with the request update.
func DecideJustification(orgID, requestID, deciderUserID uint, approve bool) error {
	var request models.JustificationRequest
	if err := database.DB.Scopes(database.WithinOrg(orgID)).First(&request, requestID).Error; err != nil {
		return err
	}

	if request.Status != "pending" {
		return fmt.Errorf("request has already been decided")
	}

	now := time.Now()
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if approve {
			request.Status = "approved"
			result := tx.Model(&models.AttendanceRecord{}).
				Scopes(database.WithinOrg(orgID)).
				Where("session_id = ? AND student_id = ?", request.SessionID, request.StudentID).
				Updates(map[string]interface{}{
					"status": models.AttendanceExcused,
					"note":   request.Reason,
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}
		} else {
			request.Status = "rejected"
		}

		request.DecidedByUserID = &deciderUserID
		request.DecidedAt = &now
		return tx.Save(&request).Error
	})
	if err != nil {
		return err
	}

	var student models.Student
	if err := database.DB.Scopes(database.WithinOrg(orgID)).First(&student, request.StudentID).Error; err == nil {
		title := "Justification rejected"
		typ := "warning"
		if approve {
			title = "Justification approved"
			typ = "success"
		}
		go notifyUsers(orgID, []uint{student.UserID}, title,
			"Your absence justification request has been decided.", typ,
			fmt.Sprintf("/justifications/%d", request.ID))
	}

	return nil
}

// ListJustifications returns requests for the tenant, optionally filtered to
// one group's sessions.
func ListJustifications(orgID uint, groupID *uint) ([]models.JustificationRequest, error) {
	query := database.DB.Scopes(database.WithinOrg(orgID)).
		Preload("Session").
		Preload("Student").
		Order("justification_requests.created_at DESC")
	if groupID != nil {
		query = query.Joins("JOIN attendance_sessions ON attendance_sessions.id = justification_requests.session_id").
			Where("attendance_sessions.group_id = ?", *groupID)
	}

	var requests []models.JustificationRequest
	if err := query.Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

// notifyGroupTeacher pings the teacher who owns the session's group.
func notifyGroupTeacher(orgID, sessionID uint, title, message, link string) {
	var session models.AttendanceSession
	if err := database.DB.Scopes(database.WithinOrg(orgID)).
		Preload("Group.Teacher").
		First(&session, sessionID).Error; err != nil {
		return
	}
	if session.Group.Teacher.UserID == 0 {
		return
	}
	notifyUsers(orgID, []uint{session.Group.Teacher.UserID}, title, message, "info", link)
}
