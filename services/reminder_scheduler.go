package services

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"academica_go/database"
	"academica_go/models"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// ReminderScheduler nudges teachers who held a class today (per the weekly
// timetable) but never saved attendance for it. Purely advisory: it reads the
// same aggregates the engine derives and only ever emits notifications.
type ReminderScheduler struct {
	db   *gorm.DB
	cron *cron.Cron
}

func NewReminderScheduler() *ReminderScheduler {
	return &ReminderScheduler{
		db:   database.GetDB(),
		cron: cron.New(),
	}
}

// Start registers the daily job. Runs every evening after classes end.
func (rs *ReminderScheduler) Start() {
	if _, err := rs.cron.AddFunc("0 18 * * *", rs.RemindMissingAttendance); err != nil {
		logrus.WithError(err).Error("failed to schedule attendance reminder job")
		return
	}
	rs.cron.Start()
	logrus.Info("Attendance reminder scheduler started")
}

// Stop halts the scheduler, letting a running job finish.
func (rs *ReminderScheduler) Stop() {
	if rs.cron != nil {
		rs.cron.Stop()
	}
}

// RemindMissingAttendance finds groups that had an active slot today with no
// saved session and notifies their teachers.
func (rs *ReminderScheduler) RemindMissingAttendance() {
	now := time.Now()
	today := dateOnly(now)
	weekday := int(now.Weekday())

	var slots []models.ClassSlot
	err := rs.db.Where("day_of_week = ? AND active = ?", weekday, true).
		Preload("Group.Teacher").
		Find(&slots).Error
	if err != nil {
		logrus.WithError(err).Error("reminder: failed to load today's slots")
		return
	}

	type groupKey struct {
		orgID   uint
		groupID uint
	}
	seen := make(map[groupKey]bool)

	for _, slot := range slots {
		key := groupKey{orgID: slot.OrgID, groupID: slot.GroupID}
		if seen[key] {
			continue
		}
		seen[key] = true

		var count int64
		err := rs.db.Model(&models.AttendanceSession{}).
			Scopes(database.WithinOrg(slot.OrgID)).
			Where("group_id = ? AND date = ?", slot.GroupID, today).
			Count(&count).Error
		if err != nil || count > 0 {
			continue
		}

		teacherUserID := slot.Group.Teacher.UserID
		if teacherUserID == 0 {
			continue
		}

		notifyUsers(slot.OrgID, []uint{teacherUserID},
			"Attendance not recorded",
			fmt.Sprintf("Attendance for %s has not been saved today.", slot.Group.Name),
			"warning",
			fmt.Sprintf("/groups/%d/attendance", slot.GroupID))
	}
}
