package models

import (
	"database/sql/driver"
	"time"

	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// JSON field type for GORM
type JSON []byte

func (j JSON) Value() (driver.Value, error) {
	if j.IsNull() {
		return nil, nil
	}
	return string(j), nil
}

func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	s, ok := value.([]byte)
	if !ok {
		return nil
	}
	*j = append((*j)[0:0], s...)
	return nil
}

func (j JSON) MarshalJSON() ([]byte, error) {
	if j == nil {
		return []byte("null"), nil
	}
	return j, nil
}

func (j *JSON) UnmarshalJSON(data []byte) error {
	if j == nil {
		return nil
	}
	*j = append((*j)[0:0], data...)
	return nil
}

func (j JSON) IsNull() bool {
	return len(j) == 0 || string(j) == "null"
}

// Organization is the tenant boundary. Every tenant-owned row carries OrgID,
// every query must filter by it, and unique constraints are composite with it.
type Organization struct {
	BaseModel
	Name   string `json:"name" gorm:"size:255;not null"`
	Code   string `json:"code" gorm:"size:50;not null;uniqueIndex"`
	Active bool   `json:"active" gorm:"default:true"`

	// Relationships
	Users   []User   `json:"users,omitempty" gorm:"foreignKey:OrgID"`
	Courses []Course `json:"courses,omitempty" gorm:"foreignKey:OrgID"`
	Groups  []Group  `json:"groups,omitempty" gorm:"foreignKey:OrgID"`
}

// User model
type User struct {
	BaseModel
	OrgID    uint   `json:"org_id" gorm:"not null;uniqueIndex:idx_users_org_username,priority:1"`
	Username string `json:"username" gorm:"size:100;not null;uniqueIndex:idx_users_org_username,priority:2"`
	Password string `json:"-" gorm:"size:255;not null"`
	Email    string `json:"email" gorm:"size:255;index"`
	Role     string `json:"role" gorm:"size:50;not null;default:'student';type:enum('admin','teacher','student')"` // admin, teacher, student
	Status   string `json:"status" gorm:"size:50;not null;default:'active';type:enum('active','inactive','suspended')"`

	// Relationships
	Organization Organization `json:"organization,omitempty" gorm:"foreignKey:OrgID"`
	Student      *Student     `json:"student,omitempty" gorm:"foreignKey:UserID"`
	Teacher      *Teacher     `json:"teacher,omitempty" gorm:"foreignKey:UserID"`
}

// Teacher model
type Teacher struct {
	BaseModel
	OrgID     uint   `json:"org_id" gorm:"not null;index"`
	UserID    uint   `json:"user_id" gorm:"uniqueIndex;not null"`
	FirstName string `json:"first_name" gorm:"size:100"`
	LastName  string `json:"last_name" gorm:"size:100"`
	Active    bool   `json:"active" gorm:"default:true"`

	// Relationships
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// Student model
type Student struct {
	BaseModel
	OrgID     uint   `json:"org_id" gorm:"not null;index"`
	UserID    uint   `json:"user_id" gorm:"uniqueIndex;not null"`
	FirstName string `json:"first_name" gorm:"size:100"`
	LastName  string `json:"last_name" gorm:"size:100"`

	// Relationships
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// Course model
type Course struct {
	BaseModel
	OrgID       uint   `json:"org_id" gorm:"not null;uniqueIndex:idx_courses_org_code,priority:1"`
	Name        string `json:"name" gorm:"size:255;not null"`
	Code        string `json:"code" gorm:"size:100;not null;uniqueIndex:idx_courses_org_code,priority:2"`
	Description string `json:"description" gorm:"type:text"`
	Status      string `json:"status" gorm:"size:50;default:'active';type:enum('active','inactive')"` // active, inactive

	// Relationships
	Assignments []Assignment `json:"assignments,omitempty" gorm:"foreignKey:CourseID"`
}

// Group is a learning group: one teacher, one course, a roster of students.
type Group struct {
	BaseModel
	OrgID     uint   `json:"org_id" gorm:"not null;index"`
	Name      string `json:"name" gorm:"size:100;not null"`
	CourseID  uint   `json:"course_id" gorm:"not null"`
	TeacherID uint   `json:"teacher_id" gorm:"not null"`
	Status    string `json:"status" gorm:"size:50;default:'active';type:enum('active','inactive','archived')"`

	// Relationships
	Course  Course        `json:"course,omitempty" gorm:"foreignKey:CourseID"`
	Teacher Teacher       `json:"teacher,omitempty" gorm:"foreignKey:TeacherID"`
	Members []GroupMember `json:"members,omitempty" gorm:"foreignKey:GroupID"`
}

// GroupMember enrolls a student in a group. The roster a session is taken
// against is the set of active members.
type GroupMember struct {
	BaseModel
	OrgID     uint       `json:"org_id" gorm:"not null;uniqueIndex:idx_members_org_group_student,priority:1"`
	GroupID   uint       `json:"group_id" gorm:"not null;uniqueIndex:idx_members_org_group_student,priority:2"`
	StudentID uint       `json:"student_id" gorm:"not null;uniqueIndex:idx_members_org_group_student,priority:3"`
	Status    string     `json:"status" gorm:"size:50;default:'active';type:enum('active','inactive')"`
	JoinedAt  *time.Time `json:"joined_at"`

	// Relationships
	Group   Group   `json:"group,omitempty" gorm:"foreignKey:GroupID"`
	Student Student `json:"student,omitempty" gorm:"foreignKey:StudentID"`
}

// ClassSlot is a recurring weekly time block owned by one teacher. Start and
// end are times of day ("HH:MM"); recurrence is weekly, not calendar-dated.
// Deactivating a slot removes it from conflict consideration but keeps history.
type ClassSlot struct {
	BaseModel
	OrgID     uint   `json:"org_id" gorm:"not null;index:idx_slots_org_teacher_day,priority:1"`
	TeacherID uint   `json:"teacher_id" gorm:"not null;index:idx_slots_org_teacher_day,priority:2"`
	GroupID   uint   `json:"group_id" gorm:"not null"`
	DayOfWeek int    `json:"day_of_week" gorm:"not null;index:idx_slots_org_teacher_day,priority:3"` // 0=Sunday .. 6=Saturday
	StartTime string `json:"start_time" gorm:"size:5;not null"`                                      // "HH:MM"
	EndTime   string `json:"end_time" gorm:"size:5;not null"`                                        // "HH:MM", exclusive
	Classroom string `json:"classroom" gorm:"size:100"`
	Active    bool   `json:"active" gorm:"default:true;index"`

	// Relationships
	Teacher Teacher `json:"teacher,omitempty" gorm:"foreignKey:TeacherID"`
	Group   Group   `json:"group,omitempty" gorm:"foreignKey:GroupID"`
}

// AttendanceStatus is the closed set of per-record states.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceLate    AttendanceStatus = "late"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceExcused AttendanceStatus = "excused"
)

// Valid reports whether s is one of the four known states.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceLate, AttendanceAbsent, AttendanceExcused:
		return true
	}
	return false
}

// AttendanceSession is one taken-attendance event for a group on one date.
// At most one session per (org, group, date); the unique index doubles as the
// storage backstop for two concurrent first saves.
type AttendanceSession struct {
	BaseModel
	OrgID         uint      `json:"org_id" gorm:"not null;uniqueIndex:idx_sessions_org_group_date,priority:1"`
	GroupID       uint      `json:"group_id" gorm:"not null;uniqueIndex:idx_sessions_org_group_date,priority:2"`
	Date          time.Time `json:"date" gorm:"type:date;not null;uniqueIndex:idx_sessions_org_group_date,priority:3"`
	TakenByUserID uint      `json:"taken_by_user_id"`

	// Relationships
	Group   Group              `json:"group,omitempty" gorm:"foreignKey:GroupID"`
	Records []AttendanceRecord `json:"records,omitempty" gorm:"foreignKey:SessionID"`
}

// AttendanceRecord is one student's status within a session. Exactly one per
// (session, student); re-saving the session replaces the whole set.
type AttendanceRecord struct {
	BaseModel
	OrgID     uint             `json:"org_id" gorm:"not null;index"`
	SessionID uint             `json:"session_id" gorm:"not null;uniqueIndex:idx_records_session_student,priority:1"`
	StudentID uint             `json:"student_id" gorm:"not null;uniqueIndex:idx_records_session_student,priority:2"`
	Status    AttendanceStatus `json:"status" gorm:"size:50;not null;type:enum('present','late','absent','excused')"`
	Note      string           `json:"note" gorm:"type:text"` // required when status = excused

	// Relationships
	Session AttendanceSession `json:"session,omitempty" gorm:"foreignKey:SessionID"`
	Student Student           `json:"student,omitempty" gorm:"foreignKey:StudentID"`
}

// Assignment is one weighted assessment item within a course. Weight is in
// percentage points; the per-course sum targets 100 but is not enforced.
type Assignment struct {
	BaseModel
	OrgID    uint    `json:"org_id" gorm:"not null;uniqueIndex:idx_assignments_org_code,priority:1"`
	CourseID uint    `json:"course_id" gorm:"not null;index"`
	Code        string  `json:"code" gorm:"size:100;not null;uniqueIndex:idx_assignments_org_code,priority:2"`
	Title       string  `json:"title" gorm:"size:255;not null"`
	Description string  `json:"description" gorm:"type:text"`
	MaxScore    float64 `json:"max_score" gorm:"not null"`
	Weight      float64 `json:"weight" gorm:"not null"` // percentage points, 0-100

	// Relationships
	Course Course `json:"course,omitempty" gorm:"foreignKey:CourseID"`
}

// AssignmentScore is a student's score on one assignment. A NULL score means
// "not yet graded" and is distinct from zero.
type AssignmentScore struct {
	BaseModel
	OrgID        uint     `json:"org_id" gorm:"not null;uniqueIndex:idx_scores_org_assignment_student,priority:1"`
	AssignmentID uint     `json:"assignment_id" gorm:"not null;uniqueIndex:idx_scores_org_assignment_student,priority:2"`
	StudentID    uint     `json:"student_id" gorm:"not null;uniqueIndex:idx_scores_org_assignment_student,priority:3"`
	Score        *float64 `json:"score" gorm:"default:null"`
	Feedback     string   `json:"feedback" gorm:"type:text"`

	// Relationships
	Assignment Assignment `json:"assignment,omitempty" gorm:"foreignKey:AssignmentID"`
	Student    Student    `json:"student,omitempty" gorm:"foreignKey:StudentID"`
}

// JustificationRequest is a student's request to have an absence recorded as
// excused. Approval rewrites the matching attendance record.
type JustificationRequest struct {
	BaseModel
	OrgID           uint       `json:"org_id" gorm:"not null;index"`
	SessionID       uint       `json:"session_id" gorm:"not null"`
	StudentID       uint       `json:"student_id" gorm:"not null"`
	Reason          string     `json:"reason" gorm:"type:text;not null"`
	Status          string     `json:"status" gorm:"size:50;default:'pending';type:enum('pending','approved','rejected')"`
	DecidedByUserID *uint      `json:"decided_by_user_id"`
	DecidedAt       *time.Time `json:"decided_at"`

	// Relationships
	Session AttendanceSession `json:"session,omitempty" gorm:"foreignKey:SessionID"`
	Student Student           `json:"student,omitempty" gorm:"foreignKey:StudentID"`
}

// Notification model
type Notification struct {
	BaseModel
	OrgID   uint       `json:"org_id" gorm:"not null;index"`
	UserID  uint       `json:"user_id" gorm:"not null;index"`
	Title   string     `json:"title" gorm:"size:255;not null"`
	Message string     `json:"message" gorm:"type:text;not null"`
	Type    string     `json:"type" gorm:"size:50;not null;type:enum('info','warning','error','success')"` // info, warning, error, success
	Link    string     `json:"link" gorm:"size:500"`
	Read    bool       `json:"read" gorm:"default:false"`
	ReadAt  *time.Time `json:"read_at"`
	Data    JSON       `json:"data,omitempty" gorm:"type:json"`

	// Relationships
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// Log model for activity tracking
type ActivityLog struct {
	BaseModel
	OrgID      uint   `json:"org_id" gorm:"index"`
	UserID     uint   `json:"user_id"`
	Action     string `json:"action" gorm:"size:100;not null"`
	Resource   string `json:"resource" gorm:"size:100;not null"`
	ResourceID uint   `json:"resource_id"`
	Details    JSON   `json:"details" gorm:"type:json"`
	IPAddress  string `json:"ip_address" gorm:"size:45"`
	UserAgent  string `json:"user_agent" gorm:"size:500"`

	// Relationships
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// LogArchive model for tracking archived logs
type LogArchive struct {
	BaseModel
	FileName    string    `json:"file_name" gorm:"size:255;not null"`
	S3Key       string    `json:"s3_key" gorm:"size:500;not null"`
	StartDate   time.Time `json:"start_date" gorm:"not null"`
	EndDate     time.Time `json:"end_date" gorm:"not null"`
	RecordCount int       `json:"record_count" gorm:"not null"`
	FileSize    int64     `json:"file_size" gorm:"not null"`
	Status      string    `json:"status" gorm:"size:50;not null;default:'pending';type:enum('pending','completed','failed')"` // pending, completed, failed
	Error       string    `json:"error" gorm:"type:text"`
}
