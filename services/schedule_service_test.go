package services

import (
	"errors"
	"fmt"
	"testing"

	"academica_go/models"

	"gorm.io/gorm"
)

func TestParseHourMinute(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		expHour    int
		expMinutes int
	}{
		{
			name:       "simple time",
			input:      "08:30",
			expHour:    8,
			expMinutes: 30,
		},
		{
			name:       "time with seconds",
			input:      "14:05:30",
			expHour:    14,
			expMinutes: 5,
		},
		{
			name:       "iso datetime",
			input:      "2007-11-30T00:00:00+07:00",
			expHour:    0,
			expMinutes: 0,
		},
		{
			name:       "mysql datetime",
			input:      "2007-11-30 13:45:00",
			expHour:    13,
			expMinutes: 45,
		},
		{
			name:       "time with trailing zone",
			input:      "09:15:00Z",
			expHour:    9,
			expMinutes: 15,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			h, m, err := parseHourMinute(tc.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if h != tc.expHour || m != tc.expMinutes {
				t.Fatalf("expected %02d:%02d, got %02d:%02d", tc.expHour, tc.expMinutes, h, m)
			}
		})
	}
}

func TestParseHourMinuteInvalid(t *testing.T) {
	if _, _, err := parseHourMinute("invalid"); err == nil {
		t.Fatalf("expected error for invalid input")
	}
	if _, _, err := parseHourMinute(""); err == nil {
		t.Fatalf("expected error for empty input")
	}
}

func TestIntervalsOverlap(t *testing.T) {
	tests := []struct {
		name     string
		aStart   int
		aEnd     int
		bStart   int
		bEnd     int
		expected bool
	}{
		{
			name:   "disjoint",
			aStart: 9 * 60, aEnd: 10 * 60,
			bStart: 11 * 60, bEnd: 12 * 60,
			expected: false,
		},
		{
			name:   "back to back is not a conflict",
			aStart: 9 * 60, aEnd: 10 * 60,
			bStart: 10 * 60, bEnd: 11 * 60,
			expected: false,
		},
		{
			name:   "partial overlap",
			aStart: 9 * 60, aEnd: 10*60 + 30,
			bStart: 10 * 60, bEnd: 11 * 60,
			expected: true,
		},
		{
			name:   "containment",
			aStart: 9 * 60, aEnd: 12 * 60,
			bStart: 10 * 60, bEnd: 11 * 60,
			expected: true,
		},
		{
			name:   "identical",
			aStart: 9 * 60, aEnd: 10 * 60,
			bStart: 9 * 60, bEnd: 10 * 60,
			expected: true,
		},
		{
			name:   "one minute overlap",
			aStart: 9 * 60, aEnd: 10*60 + 1,
			bStart: 10 * 60, bEnd: 11 * 60,
			expected: true,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := intervalsOverlap(tc.aStart, tc.aEnd, tc.bStart, tc.bEnd)
			if got != tc.expected {
				t.Fatalf("expected %v, got %v", tc.expected, got)
			}
			// Overlap is symmetric
			if intervalsOverlap(tc.bStart, tc.bEnd, tc.aStart, tc.aEnd) != tc.expected {
				t.Fatalf("overlap not symmetric for %s", tc.name)
			}
		})
	}
}

func TestSlotRange(t *testing.T) {
	start, end, err := slotRange("09:00", "10:30")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start != 9*60 || end != 10*60+30 {
		t.Fatalf("expected 540/630, got %d/%d", start, end)
	}

	if _, _, err := slotRange("10:00", "09:00"); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange for inverted range, got %v", err)
	}
	if _, _, err := slotRange("10:00", "10:00"); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange for zero-length range, got %v", err)
	}
	if _, _, err := slotRange("bad", "10:00"); err == nil {
		t.Fatalf("expected error for unparseable start")
	}
}

func uintPtr(v uint) *uint { return &v }

func slotFixture(id uint, start, end string) models.ClassSlot {
	return models.ClassSlot{
		BaseModel: models.BaseModel{ID: id},
		StartTime: start,
		EndTime:   end,
	}
}

func TestFirstOverlapping(t *testing.T) {
	stored := []models.ClassSlot{
		slotFixture(1, "09:00", "10:30"),
		slotFixture(2, "13:00", "14:30"),
	}

	tests := []struct {
		name     string
		start    int
		end      int
		exclude  *uint
		expectID uint // 0 = no conflict
	}{
		{
			name:  "free gap",
			start: 11 * 60, end: 12 * 60,
			expectID: 0,
		},
		{
			name:  "overlaps the morning slot",
			start: 10 * 60, end: 11 * 60,
			expectID: 1,
		},
		{
			name:  "updating a slot skips its own current times",
			start: 9 * 60, end: 10*60 + 30,
			exclude:  uintPtr(1),
			expectID: 0,
		},
		{
			name:  "exclusion does not hide other slots",
			start: 13 * 60, end: 15 * 60,
			exclude:  uintPtr(1),
			expectID: 2,
		},
		{
			name:  "excluding an unrelated slot changes nothing",
			start: 10 * 60, end: 11 * 60,
			exclude:  uintPtr(2),
			expectID: 1,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, err := firstOverlapping(stored, tc.start, tc.end, tc.exclude)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.expectID == 0 {
				if got != nil {
					t.Fatalf("expected no conflict, got slot %d", got.ID)
				}
				return
			}
			if got == nil || got.ID != tc.expectID {
				t.Fatalf("expected conflict with slot %d, got %+v", tc.expectID, got)
			}
		})
	}
}

func TestFirstOverlappingRejectsCorruptStoredTimes(t *testing.T) {
	stored := []models.ClassSlot{slotFixture(1, "garbage", "10:00")}
	if _, err := firstOverlapping(stored, 10*60, 11*60, nil); err == nil {
		t.Fatalf("expected error for a stored slot with unparseable times")
	}
}

func TestConflictFromStorage(t *testing.T) {
	slot := slotFixture(3, "09:00", "10:00")

	var ce *ConflictError
	if err := conflictFromStorage(gorm.ErrDuplicatedKey, slot); !errors.As(err, &ce) {
		t.Fatalf("duplicate key should map to ConflictError, got %v", err)
	} else if ce.Slot.ID != slot.ID {
		t.Fatalf("expected slot %d in the conflict, got %d", slot.ID, ce.Slot.ID)
	}

	wrapped := fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey)
	if err := conflictFromStorage(wrapped, slot); !errors.As(err, &ce) {
		t.Fatalf("wrapped duplicate key should map to ConflictError, got %v", err)
	}

	other := errors.New("connection reset")
	if err := conflictFromStorage(other, slot); err != other {
		t.Fatalf("unrelated errors must pass through, got %v", err)
	}
	if err := conflictFromStorage(nil, slot); err != nil {
		t.Fatalf("nil must pass through, got %v", err)
	}
}

func TestCanonicalTime(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"9:05", "09:05"},
		{"09:05:30", "09:05"},
		{"2007-11-30 13:45:00", "13:45"},
	}
	for _, tc := range tests {
		if got := canonicalTime(tc.input); got != tc.expected {
			t.Fatalf("canonicalTime(%q) = %q, want %q", tc.input, got, tc.expected)
		}
	}
}
