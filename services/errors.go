package services

import (
	"errors"
	"fmt"

	"academica_go/models"

	"gorm.io/gorm"
)

// Validation failures are surfaced to the caller for user-facing display and
// are never silently corrected. There are no automatic retries anywhere in
// this layer; every failure is returned to the operator.
var (
	// ErrInvalidRange means a slot's start time is not strictly before its end.
	ErrInvalidRange = errors.New("slot start time must be before end time")

	// ErrJustificationRequired means an excused mark was submitted without a note.
	ErrJustificationRequired = errors.New("excused status requires a justification note")

	// ErrInvalidStatus means an attendance mark used an unknown status value.
	ErrInvalidStatus = errors.New("unknown attendance status")

	// ErrScoreOutOfRange means a raw score is outside [0, max score].
	ErrScoreOutOfRange = errors.New("score is outside the assignment's valid range")
)

// ConflictError reports an overlapping class slot. It is returned both when
// the pre-write check finds the overlap and when the storage layer rejects a
// racing insert, so callers handle a single shape.
type ConflictError struct {
	Slot models.ClassSlot
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("slot conflicts with existing slot %d (%s-%s, day %d)",
		e.Slot.ID, e.Slot.StartTime, e.Slot.EndTime, e.Slot.DayOfWeek)
}

// conflictFromStorage maps a duplicate-key rejection from the storage layer
// onto the same conflict shape the pre-write check produces. Any other error,
// nil included, passes through untouched.
func conflictFromStorage(err error, slot models.ClassSlot) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &ConflictError{Slot: slot}
	}
	return err
}
