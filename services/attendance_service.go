package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"academica_go/database"
	"academica_go/models"

	"gorm.io/gorm"
)

// AttendanceService owns the session -> record -> percentage pipeline. A save
// always covers the whole roster: students the teacher did not mark are
// recorded as absent (closed-world default), and re-saving a (group, date)
// pair replaces every record of that session atomically.
type AttendanceService struct {
	db *gorm.DB
}

func NewAttendanceService() *AttendanceService {
	return &AttendanceService{db: database.GetDB()}
}

// Mark is one student's submitted status within a save call.
type Mark struct {
	StudentID uint                    `json:"student_id"`
	Status    models.AttendanceStatus `json:"status"`
	Note      string                  `json:"note"`
}

// SessionSummary is returned from a save: counts per status over the full
// roster plus the session identity.
type SessionSummary struct {
	SessionID  uint      `json:"session_id"`
	GroupID    uint      `json:"group_id"`
	Date       time.Time `json:"date"`
	RosterSize int       `json:"roster_size"`
	Present    int       `json:"present"`
	Late       int       `json:"late"`
	Absent     int       `json:"absent"`
	Excused    int       `json:"excused"`
}

// AttendanceBand is the three-tier classification exposed so callers don't
// re-derive thresholds inconsistently.
type AttendanceBand string

const (
	BandNominal  AttendanceBand = "nominal"  // >= 90%
	BandWarning  AttendanceBand = "warning"  // 70% - 89%
	BandCritical AttendanceBand = "critical" // < 70%
)

const (
	nominalThreshold = 90.0
	warningThreshold = 70.0
)

// ClassifyAttendance maps a cumulative percentage onto its band.
func ClassifyAttendance(percent float64) AttendanceBand {
	switch {
	case percent >= nominalThreshold:
		return BandNominal
	case percent >= warningThreshold:
		return BandWarning
	default:
		return BandCritical
	}
}

// StudentAttendance is the student-facing cumulative rate for one group.
type StudentAttendance struct {
	StudentID     uint           `json:"student_id"`
	GroupID       uint           `json:"group_id"`
	TotalSessions int            `json:"total_sessions"`
	PresentCount  int            `json:"present_count"`
	Percent       float64        `json:"percent"`
	Band          AttendanceBand `json:"band"`
}

// validateMarks rejects a save before any write happens: unknown statuses and
// excused marks without a note never reach storage.
func validateMarks(marks []Mark) error {
	for _, m := range marks {
		if !m.Status.Valid() {
			return fmt.Errorf("student %d: %w", m.StudentID, ErrInvalidStatus)
		}
		if m.Status == models.AttendanceExcused && strings.TrimSpace(m.Note) == "" {
			return fmt.Errorf("student %d: %w", m.StudentID, ErrJustificationRequired)
		}
	}
	return nil
}

// mergeRoster produces the full record set for a session: one record per
// enrolled student, defaulting unmarked students to absent. Marks for
// students outside the roster are reported as an error rather than silently
// written into the session.
func mergeRoster(roster []uint, marks []Mark) ([]Mark, error) {
	byStudent := make(map[uint]Mark, len(marks))
	for _, m := range marks {
		byStudent[m.StudentID] = m
	}

	enrolled := make(map[uint]bool, len(roster))
	full := make([]Mark, 0, len(roster))
	for _, studentID := range roster {
		enrolled[studentID] = true
		if m, ok := byStudent[studentID]; ok {
			full = append(full, m)
		} else {
			full = append(full, Mark{StudentID: studentID, Status: models.AttendanceAbsent})
		}
	}

	for studentID := range byStudent {
		if !enrolled[studentID] {
			return nil, fmt.Errorf("student %d is not an active member of the group", studentID)
		}
	}
	return full, nil
}

func summarize(marks []Mark) SessionSummary {
	summary := SessionSummary{RosterSize: len(marks)}
	for _, m := range marks {
		switch m.Status {
		case models.AttendancePresent:
			summary.Present++
		case models.AttendanceLate:
			summary.Late++
		case models.AttendanceAbsent:
			summary.Absent++
		case models.AttendanceExcused:
			summary.Excused++
		}
	}
	return summary
}

// dateOnly truncates a timestamp to its calendar date.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SaveSession records attendance for a group on a date. The whole roster is
// resubmitted every save; the previous record set, if any, is replaced inside
// one transaction. Last write wins for concurrent saves of the same session;
// the (org, group, date) unique index backstops two concurrent first saves.
func (s *AttendanceService) SaveSession(orgID, groupID uint, date time.Time, takenByUserID uint, marks []Mark) (*SessionSummary, error) {
	if err := validateMarks(marks); err != nil {
		return nil, err
	}

	var group models.Group
	if err := s.db.Scopes(database.WithinOrg(orgID)).First(&group, groupID).Error; err != nil {
		return nil, err
	}

	roster, err := s.activeRoster(orgID, groupID)
	if err != nil {
		return nil, err
	}

	full, err := mergeRoster(roster, marks)
	if err != nil {
		return nil, err
	}

	day := dateOnly(date)
	var session models.AttendanceSession

	err = s.db.Transaction(func(tx *gorm.DB) error {
		created, err := s.findOrCreateSession(tx, orgID, groupID, day, takenByUserID, &session)
		if err != nil {
			return err
		}
		if !created {
			// Whole-session replace: partial overwrite is not supported.
			if err := tx.Unscoped().
				Where("session_id = ?", session.ID).
				Delete(&models.AttendanceRecord{}).Error; err != nil {
				return err
			}
		}

		if len(full) == 0 {
			// A group without active members still gets its session row;
			// there are no records to write.
			return nil
		}

		records := make([]models.AttendanceRecord, 0, len(full))
		for _, m := range full {
			records = append(records, models.AttendanceRecord{
				OrgID:     orgID,
				SessionID: session.ID,
				StudentID: m.StudentID,
				Status:    m.Status,
				Note:      m.Note,
			})
		}
		return tx.Create(&records).Error
	})
	if err != nil {
		return nil, err
	}

	summary := summarize(full)
	summary.SessionID = session.ID
	summary.GroupID = groupID
	summary.Date = day

	go s.notifyAbsentees(orgID, group, day, full)

	return &summary, nil
}

// findOrCreateSession resolves the session row for (group, day), creating it
// when none exists. A concurrent first save can slip between the read and the
// insert; the (org, group, date) unique index rejects the second insert and
// the loser adopts the winner's row, degrading to a plain replace so the save
// keeps its last-write-wins semantics. Returns whether the row was created.
func (s *AttendanceService) findOrCreateSession(tx *gorm.DB, orgID, groupID uint, day time.Time, takenByUserID uint, session *models.AttendanceSession) (bool, error) {
	err := tx.Scopes(database.WithinOrg(orgID)).
		Where("group_id = ? AND date = ?", groupID, day).
		First(session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		*session = models.AttendanceSession{
			OrgID:         orgID,
			GroupID:       groupID,
			Date:          day,
			TakenByUserID: takenByUserID,
		}
		createErr := tx.Create(session).Error
		if createErr == nil {
			return true, nil
		}
		if !errors.Is(createErr, gorm.ErrDuplicatedKey) {
			return false, createErr
		}
		if err := tx.Scopes(database.WithinOrg(orgID)).
			Where("group_id = ? AND date = ?", groupID, day).
			First(session).Error; err != nil {
			return false, err
		}
	} else if err != nil {
		return false, err
	}

	session.TakenByUserID = takenByUserID
	return false, tx.Save(session).Error
}

// GetSession returns the saved session for a (group, date) pair with its full
// record set, absentees included.
func (s *AttendanceService) GetSession(orgID, groupID uint, date time.Time) (*models.AttendanceSession, error) {
	var session models.AttendanceSession
	err := s.db.Scopes(database.WithinOrg(orgID)).
		Where("group_id = ? AND date = ?", groupID, dateOnly(date)).
		Preload("Records").
		Preload("Records.Student").
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// ProgressPercent is the live "how much have I marked" number: marked students
// over roster size, independent of status values. It deliberately shares no
// code with the cumulative attendance rate, which divides by session count.
func ProgressPercent(marked, rosterSize int) float64 {
	if rosterSize <= 0 {
		return 0
	}
	return float64(marked) / float64(rosterSize) * 100
}

// SessionProgress reports how much of the current roster a saved session
// explicitly covers.
func (s *AttendanceService) SessionProgress(orgID, groupID uint, date time.Time) (float64, error) {
	session, err := s.GetSession(orgID, groupID, date)
	if err != nil {
		return 0, err
	}
	roster, err := s.activeRoster(orgID, groupID)
	if err != nil {
		return 0, err
	}
	return ProgressPercent(len(session.Records), len(roster)), nil
}

// CumulativeAttendance computes a student's attendance rate over every saved
// session of the group: sessions marked present over all sessions. Late,
// absent and excused all count against the rate.
func (s *AttendanceService) CumulativeAttendance(orgID, groupID, studentID uint) (*StudentAttendance, error) {
	var group models.Group
	if err := s.db.Scopes(database.WithinOrg(orgID)).First(&group, groupID).Error; err != nil {
		return nil, err
	}

	var totalSessions int64
	if err := s.db.Model(&models.AttendanceSession{}).
		Scopes(database.WithinOrg(orgID)).
		Where("group_id = ?", groupID).
		Count(&totalSessions).Error; err != nil {
		return nil, err
	}

	var presentCount int64
	if err := s.db.Model(&models.AttendanceRecord{}).
		Scopes(database.WithinOrg(orgID)).
		Joins("JOIN attendance_sessions ON attendance_sessions.id = attendance_records.session_id").
		Where("attendance_sessions.group_id = ? AND attendance_records.student_id = ? AND attendance_records.status = ?",
			groupID, studentID, models.AttendancePresent).
		Count(&presentCount).Error; err != nil {
		return nil, err
	}

	result := &StudentAttendance{
		StudentID:     studentID,
		GroupID:       groupID,
		TotalSessions: int(totalSessions),
		PresentCount:  int(presentCount),
	}
	if totalSessions > 0 {
		result.Percent = float64(presentCount) / float64(totalSessions) * 100
	}
	result.Band = ClassifyAttendance(result.Percent)
	return result, nil
}

// activeRoster returns the student ids of a group's active members. Enrollment
// itself is owned by the membership layer; the engine only reads it.
func (s *AttendanceService) activeRoster(orgID, groupID uint) ([]uint, error) {
	var members []models.GroupMember
	err := s.db.Scopes(database.WithinOrg(orgID)).
		Where("group_id = ? AND status = ?", groupID, "active").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	roster := make([]uint, 0, len(members))
	for _, m := range members {
		roster = append(roster, m.StudentID)
	}
	return roster, nil
}

// notifyAbsentees emits fire-and-forget notifications to students recorded
// absent. Delivery is someone else's problem; a failure here never fails the
// save.
func (s *AttendanceService) notifyAbsentees(orgID uint, group models.Group, date time.Time, marks []Mark) {
	absentees := make([]uint, 0)
	for _, m := range marks {
		if m.Status == models.AttendanceAbsent {
			absentees = append(absentees, m.StudentID)
		}
	}
	if len(absentees) == 0 {
		return
	}

	var students []models.Student
	if err := s.db.Scopes(database.WithinOrg(orgID)).Find(&students, absentees).Error; err != nil {
		return
	}
	userIDs := make([]uint, 0, len(students))
	for _, st := range students {
		userIDs = append(userIDs, st.UserID)
	}
	if len(userIDs) == 0 {
		return
	}

	notifyUsers(orgID, userIDs,
		"Absence recorded",
		fmt.Sprintf("You were marked absent for %s on %s.", group.Name, date.Format("2006-01-02")),
		"warning",
		fmt.Sprintf("/groups/%d/attendance", group.ID))
}
