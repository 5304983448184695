package services

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"academica_go/database"
	"academica_go/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ScheduleService owns the weekly timetable of class slots and prevents a
// teacher from being double-booked. The conflict check and the write run in
// the same transaction, with the teacher's active slots for the day locked,
// so two racing requests cannot both pass the check and both insert.
type ScheduleService struct {
	db *gorm.DB
}

func NewScheduleService() *ScheduleService {
	return &ScheduleService{db: database.GetDB()}
}

// SlotInput carries the caller-supplied fields of a class slot.
type SlotInput struct {
	TeacherID uint   `json:"teacher_id"`
	GroupID   uint   `json:"group_id"`
	DayOfWeek int    `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Classroom string `json:"classroom"`
}

// parseHourMinute extracts the hour and minute from a time-of-day value.
// Clients send plain "HH:MM" strings, but rows imported from spreadsheets or
// older clients sometimes arrive as full datetimes, so fall back to the usual
// layouts before giving up.
func parseHourMinute(value string) (int, int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, 0, fmt.Errorf("time value cannot be empty")
	}

	layout := "15:04"
	if colonCount := strings.Count(value, ":"); colonCount >= 2 {
		layout = "15:04:05"
	}

	if t, err := time.Parse(layout, value); err == nil {
		return t.Hour(), t.Minute(), nil
	} else {
		fallbackLayouts := []string{
			time.RFC3339Nano,
			time.RFC3339,
			"2006-01-02 15:04:05",
			"2006-01-02T15:04:05",
			"2006-01-02 15:04",
			"2006-01-02T15:04",
		}

		for _, layout := range fallbackLayouts {
			if parsed, altErr := time.Parse(layout, value); altErr == nil {
				return parsed.Hour(), parsed.Minute(), nil
			}
		}

		timePattern := regexp.MustCompile(`\d{1,2}:\d{2}(?::\d{2})?`)
		if match := timePattern.FindString(value); match != "" && match != value {
			return parseHourMinute(match)
		}

		return 0, 0, fmt.Errorf("invalid time format %q: %w", value, err)
	}
}

// minuteOfDay converts a time-of-day value to minutes since midnight.
func minuteOfDay(value string) (int, error) {
	hour, minute, err := parseHourMinute(value)
	if err != nil {
		return 0, err
	}
	return hour*60 + minute, nil
}

// intervalsOverlap reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. Back-to-back intervals (aEnd == bStart) do not.
func intervalsOverlap(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && bStart < aEnd
}

// slotRange validates and converts a slot's times to minutes since midnight.
func slotRange(startTime, endTime string) (int, int, error) {
	startMin, err := minuteOfDay(startTime)
	if err != nil {
		return 0, 0, err
	}
	endMin, err := minuteOfDay(endTime)
	if err != nil {
		return 0, 0, err
	}
	if startMin >= endMin {
		return 0, 0, ErrInvalidRange
	}
	return startMin, endMin, nil
}

// CheckConflict reports the first active slot of the teacher on the given day
// that overlaps [start, end), or nil when the slot is free. excludeSlotID
// skips the slot being updated so an in-place update never conflicts with
// itself. The check alone is read-then-write racy; CreateSlot and UpdateSlot
// repeat it under a row lock before writing.
func (s *ScheduleService) CheckConflict(orgID, teacherID uint, dayOfWeek int, startTime, endTime string, excludeSlotID *uint) (*models.ClassSlot, error) {
	startMin, endMin, err := slotRange(startTime, endTime)
	if err != nil {
		return nil, err
	}
	if dayOfWeek < 0 || dayOfWeek > 6 {
		return nil, fmt.Errorf("day_of_week must be between 0 and 6")
	}
	return s.findConflict(s.db, orgID, teacherID, dayOfWeek, startMin, endMin, excludeSlotID, false)
}

func (s *ScheduleService) findConflict(tx *gorm.DB, orgID, teacherID uint, dayOfWeek, startMin, endMin int, excludeSlotID *uint, forUpdate bool) (*models.ClassSlot, error) {
	query := tx.Scopes(database.WithinOrg(orgID)).
		Where("teacher_id = ? AND day_of_week = ? AND active = ?", teacherID, dayOfWeek, true)
	if forUpdate {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var existing []models.ClassSlot
	if err := query.Find(&existing).Error; err != nil {
		return nil, err
	}
	return firstOverlapping(existing, startMin, endMin, excludeSlotID)
}

// firstOverlapping scans stored slots for one that overlaps [startMin, endMin),
// skipping the slot named by excludeSlotID so an in-place update never
// conflicts with its own current times.
func firstOverlapping(slots []models.ClassSlot, startMin, endMin int, excludeSlotID *uint) (*models.ClassSlot, error) {
	for _, slot := range slots {
		if excludeSlotID != nil && slot.ID == *excludeSlotID {
			continue
		}
		otherStart, otherEnd, err := slotRange(slot.StartTime, slot.EndTime)
		if err != nil {
			// A stored slot that no longer parses must not silently pass the check.
			return nil, fmt.Errorf("stored slot %d has invalid times: %w", slot.ID, err)
		}
		if intervalsOverlap(startMin, endMin, otherStart, otherEnd) {
			conflicting := slot
			return &conflicting, nil
		}
	}
	return nil, nil
}

// CreateSlot inserts a new class slot after a conflict check performed inside
// the same transaction as the insert.
func (s *ScheduleService) CreateSlot(orgID uint, input SlotInput) (*models.ClassSlot, error) {
	startMin, endMin, err := slotRange(input.StartTime, input.EndTime)
	if err != nil {
		return nil, err
	}
	if input.DayOfWeek < 0 || input.DayOfWeek > 6 {
		return nil, fmt.Errorf("day_of_week must be between 0 and 6")
	}

	var group models.Group
	if err := s.db.Scopes(database.WithinOrg(orgID)).First(&group, input.GroupID).Error; err != nil {
		return nil, err
	}

	slot := models.ClassSlot{
		OrgID:     orgID,
		TeacherID: input.TeacherID,
		GroupID:   input.GroupID,
		DayOfWeek: input.DayOfWeek,
		StartTime: canonicalTime(input.StartTime),
		EndTime:   canonicalTime(input.EndTime),
		Classroom: input.Classroom,
		Active:    true,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		conflict, err := s.findConflict(tx, orgID, input.TeacherID, input.DayOfWeek, startMin, endMin, nil, true)
		if err != nil {
			return err
		}
		if conflict != nil {
			return &ConflictError{Slot: *conflict}
		}
		// The lock makes a racing insert lose here rather than at the check;
		// a storage rejection still comes back as the same conflict shape.
		return conflictFromStorage(tx.Create(&slot).Error, slot)
	})
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

// UpdateSlot replaces a slot's day, times and classroom, re-running the
// conflict check with the slot itself excluded.
func (s *ScheduleService) UpdateSlot(orgID, slotID uint, input SlotInput) (*models.ClassSlot, error) {
	startMin, endMin, err := slotRange(input.StartTime, input.EndTime)
	if err != nil {
		return nil, err
	}
	if input.DayOfWeek < 0 || input.DayOfWeek > 6 {
		return nil, fmt.Errorf("day_of_week must be between 0 and 6")
	}

	var slot models.ClassSlot
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Scopes(database.WithinOrg(orgID)).First(&slot, slotID).Error; err != nil {
			return err
		}
		conflict, err := s.findConflict(tx, orgID, slot.TeacherID, input.DayOfWeek, startMin, endMin, &slot.ID, true)
		if err != nil {
			return err
		}
		if conflict != nil {
			return &ConflictError{Slot: *conflict}
		}

		slot.DayOfWeek = input.DayOfWeek
		slot.StartTime = canonicalTime(input.StartTime)
		slot.EndTime = canonicalTime(input.EndTime)
		if input.Classroom != "" {
			slot.Classroom = input.Classroom
		}
		if input.GroupID != 0 {
			slot.GroupID = input.GroupID
		}
		return tx.Save(&slot).Error
	})
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

// DeactivateSlot soft-deletes a slot: it stops counting for conflicts but its
// history is preserved.
func (s *ScheduleService) DeactivateSlot(orgID, slotID uint) error {
	result := s.db.Model(&models.ClassSlot{}).
		Scopes(database.WithinOrg(orgID)).
		Where("id = ?", slotID).
		Update("active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListTeacherSlots returns a teacher's active slots ordered by day and start.
func (s *ScheduleService) ListTeacherSlots(orgID, teacherID uint) ([]models.ClassSlot, error) {
	var slots []models.ClassSlot
	err := s.db.Scopes(database.WithinOrg(orgID)).
		Where("teacher_id = ? AND active = ?", teacherID, true).
		Order("day_of_week, start_time").
		Preload("Group").
		Find(&slots).Error
	return slots, err
}

// canonicalTime normalizes a parseable time-of-day value to "HH:MM" so stored
// slots always compare cleanly.
func canonicalTime(value string) string {
	hour, minute, err := parseHourMinute(value)
	if err != nil {
		return value
	}
	return fmt.Sprintf("%02d:%02d", hour, minute)
}
