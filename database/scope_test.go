package database

import (
	"strings"
	"testing"

	"academica_go/models"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// dryRunDB opens a gorm handle that builds SQL without touching a server.
func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       "user:pass@tcp(127.0.0.1:3306)/academica?charset=utf8mb4&parseTime=True",
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open dry-run db: %v", err)
	}
	return db
}

func TestWithinOrgQualifiesColumn(t *testing.T) {
	db := dryRunDB(t)

	var slots []models.ClassSlot
	stmt := db.Scopes(WithinOrg(7)).Find(&slots).Statement
	sql := stmt.SQL.String()
	if !strings.Contains(sql, "`class_slots`.`org_id` = ?") {
		t.Fatalf("expected org filter on the statement's table, got %q", sql)
	}
}

func TestWithinOrgUnambiguousInJoins(t *testing.T) {
	db := dryRunDB(t)

	var count int64
	stmt := db.Model(&models.AttendanceRecord{}).
		Scopes(WithinOrg(7)).
		Joins("JOIN attendance_sessions ON attendance_sessions.id = attendance_records.session_id").
		Where("attendance_sessions.group_id = ?", 1).
		Count(&count).Statement
	sql := stmt.SQL.String()

	if !strings.Contains(sql, "`attendance_records`.`org_id` = ?") {
		t.Fatalf("expected org filter qualified with the joined statement's table, got %q", sql)
	}
	// Both joined tables define org_id; a bare reference would be rejected by
	// MySQL as ambiguous (error 1052).
	if strings.Contains(sql, " org_id = ?") || strings.Contains(sql, "(org_id = ?") {
		t.Fatalf("unqualified org filter in joined query: %q", sql)
	}
}

func TestWithinOrgBindsTheOrgValue(t *testing.T) {
	db := dryRunDB(t)

	var members []models.GroupMember
	stmt := db.Scopes(WithinOrg(42)).
		Joins("JOIN groups ON groups.id = group_members.group_id").
		Where("groups.course_id = ?", 5).
		Find(&members).Statement

	found := false
	for _, v := range stmt.Vars {
		if id, ok := v.(uint); ok && id == 42 {
			found = true
		}
	}
	if !found {
		t.Fatalf("org id not bound as a query variable: %v", stmt.Vars)
	}
}
