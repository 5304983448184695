package services

import (
	"errors"
	"testing"
	"time"

	"academica_go/models"
)

func TestValidateMarks(t *testing.T) {
	tests := []struct {
		name    string
		marks   []Mark
		wantErr error
	}{
		{
			name: "valid marks",
			marks: []Mark{
				{StudentID: 1, Status: models.AttendancePresent},
				{StudentID: 2, Status: models.AttendanceLate},
				{StudentID: 3, Status: models.AttendanceExcused, Note: "doctor visit"},
			},
		},
		{
			name: "unknown status",
			marks: []Mark{
				{StudentID: 1, Status: "tardy"},
			},
			wantErr: ErrInvalidStatus,
		},
		{
			name: "excused without note",
			marks: []Mark{
				{StudentID: 1, Status: models.AttendanceExcused},
			},
			wantErr: ErrJustificationRequired,
		},
		{
			name: "excused with whitespace note",
			marks: []Mark{
				{StudentID: 1, Status: models.AttendanceExcused, Note: "   "},
			},
			wantErr: ErrJustificationRequired,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			err := validateMarks(tc.marks)
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestMergeRosterDefaultsUnmarkedToAbsent(t *testing.T) {
	roster := []uint{1, 2, 3, 4, 5}
	marks := []Mark{
		{StudentID: 1, Status: models.AttendancePresent},
		{StudentID: 2, Status: models.AttendanceLate},
		{StudentID: 4, Status: models.AttendanceExcused, Note: "family emergency"},
	}

	full, err := mergeRoster(roster, marks)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(full) != len(roster) {
		t.Fatalf("expected %d records, got %d", len(roster), len(full))
	}

	byStudent := make(map[uint]Mark)
	for _, m := range full {
		byStudent[m.StudentID] = m
	}
	if byStudent[3].Status != models.AttendanceAbsent {
		t.Fatalf("unmarked student 3 should default to absent, got %s", byStudent[3].Status)
	}
	if byStudent[5].Status != models.AttendanceAbsent {
		t.Fatalf("unmarked student 5 should default to absent, got %s", byStudent[5].Status)
	}
	if byStudent[1].Status != models.AttendancePresent || byStudent[2].Status != models.AttendanceLate {
		t.Fatalf("explicit marks must be preserved")
	}
	if byStudent[4].Note != "family emergency" {
		t.Fatalf("note must be preserved, got %q", byStudent[4].Note)
	}
}

func TestMergeRosterRejectsNonMembers(t *testing.T) {
	roster := []uint{1, 2}
	marks := []Mark{
		{StudentID: 1, Status: models.AttendancePresent},
		{StudentID: 99, Status: models.AttendancePresent},
	}
	if _, err := mergeRoster(roster, marks); err == nil {
		t.Fatalf("expected error for mark outside the roster")
	}
}

func TestMergeRosterEmptyRoster(t *testing.T) {
	full, err := mergeRoster(nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(full) != 0 {
		t.Fatalf("expected no records for an empty roster, got %d", len(full))
	}
	if s := summarize(full); s.RosterSize != 0 || s.Present != 0 || s.Absent != 0 {
		t.Fatalf("empty roster must summarize to zero counts: %+v", s)
	}
}

func TestMergeRosterEmptyMarks(t *testing.T) {
	full, err := mergeRoster([]uint{1, 2, 3}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, m := range full {
		if m.Status != models.AttendanceAbsent {
			t.Fatalf("all records should be absent, got %s for student %d", m.Status, m.StudentID)
		}
	}
}

func TestSummarize(t *testing.T) {
	marks := []Mark{
		{StudentID: 1, Status: models.AttendancePresent},
		{StudentID: 2, Status: models.AttendancePresent},
		{StudentID: 3, Status: models.AttendanceLate},
		{StudentID: 4, Status: models.AttendanceAbsent},
		{StudentID: 5, Status: models.AttendanceExcused, Note: "n"},
	}
	got := summarize(marks)
	if got.RosterSize != 5 || got.Present != 2 || got.Late != 1 || got.Absent != 1 || got.Excused != 1 {
		t.Fatalf("unexpected summary: %+v", got)
	}
}

func TestClassifyAttendance(t *testing.T) {
	tests := []struct {
		percent  float64
		expected AttendanceBand
	}{
		{100, BandNominal},
		{90, BandNominal},
		{89.9, BandWarning},
		{70, BandWarning},
		{69.9, BandCritical},
		{0, BandCritical},
	}
	for _, tc := range tests {
		if got := ClassifyAttendance(tc.percent); got != tc.expected {
			t.Fatalf("ClassifyAttendance(%v) = %s, want %s", tc.percent, got, tc.expected)
		}
	}
}

func TestProgressPercent(t *testing.T) {
	tests := []struct {
		name     string
		marked   int
		roster   int
		expected float64
	}{
		{"half marked", 10, 20, 50},
		{"all marked", 20, 20, 100},
		{"none marked", 0, 20, 0},
		{"empty roster", 5, 0, 0},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := ProgressPercent(tc.marked, tc.roster); got != tc.expected {
				t.Fatalf("expected %v, got %v", tc.expected, got)
			}
		})
	}
}

func TestDateOnly(t *testing.T) {
	in := time.Date(2026, 3, 14, 15, 9, 26, 535, time.UTC)
	got := dateOnly(in)
	want := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
