package services

import (
	"errors"
	"fmt"

	"academica_go/database"
	"academica_go/models"

	"gorm.io/gorm"
)

// GradeScale is the fixed output scale of course averages. With weights
// summing to 100 in the well-formed case, a perfect student lands exactly on
// this value.
const GradeScale = 10.0

// GradebookService owns the assignment-weight -> score -> running-average
// pipeline. Ungraded items are excluded from both numerator and denominator,
// never treated as zero.
type GradebookService struct {
	db *gorm.DB
}

func NewGradebookService() *GradebookService {
	return &GradebookService{db: database.GetDB()}
}

// WeightedItem is one assessment item as seen by the averaging step. A nil
// Score means "not yet graded".
type WeightedItem struct {
	Weight   float64
	MaxScore float64
	Score    *float64
}

// computeWeightedAverage folds the graded items into a 0-GradeScale average.
// Items without a score contribute neither weighted score nor applied weight,
// so one graded item at 100% among four ungraded ones yields a full-scale
// average. A student with nothing graded floors to 0.
func computeWeightedAverage(items []WeightedItem) float64 {
	var weightedScore, weightApplied float64
	for _, item := range items {
		if item.Score == nil || item.MaxScore <= 0 {
			continue
		}
		weightedScore += (*item.Score / item.MaxScore) * item.Weight
		weightApplied += item.Weight
	}
	if weightApplied <= 0 {
		return 0
	}
	return (weightedScore / weightApplied) * GradeScale
}

// StudentAverage is the per-student, per-course running average.
type StudentAverage struct {
	StudentID        uint    `json:"student_id"`
	CourseID         uint    `json:"course_id"`
	Average          float64 `json:"average"` // 0 - GradeScale
	GradedCount      int     `json:"graded_count"`
	TotalAssignments int     `json:"total_assignments"`
	WeightApplied    float64 `json:"weight_applied"`
	WeightDefined    float64 `json:"weight_defined"`
}

// CourseAverage is the unweighted mean of the enrolled students' averages.
type CourseAverage struct {
	CourseID     uint             `json:"course_id"`
	Average      float64          `json:"average"`
	StudentCount int              `json:"student_count"`
	Students     []StudentAverage `json:"students,omitempty"`
}

// ComputeAverage recomputes one student's running average for a course from
// current storage state. Pure read; safe under any number of concurrent
// callers.
func (s *GradebookService) ComputeAverage(orgID, studentID, courseID uint) (*StudentAverage, error) {
	assignments, err := s.courseAssignments(orgID, courseID)
	if err != nil {
		return nil, err
	}

	var scores []models.AssignmentScore
	if err := s.db.Scopes(database.WithinOrg(orgID)).
		Where("student_id = ?", studentID).
		Find(&scores).Error; err != nil {
		return nil, err
	}
	scoreByAssignment := make(map[uint]*float64, len(scores))
	for _, sc := range scores {
		scoreByAssignment[sc.AssignmentID] = sc.Score
	}

	result := &StudentAverage{
		StudentID:        studentID,
		CourseID:         courseID,
		TotalAssignments: len(assignments),
	}
	items := make([]WeightedItem, 0, len(assignments))
	for _, a := range assignments {
		score := scoreByAssignment[a.ID]
		items = append(items, WeightedItem{Weight: a.Weight, MaxScore: a.MaxScore, Score: score})
		result.WeightDefined += a.Weight
		if score != nil {
			result.GradedCount++
			result.WeightApplied += a.Weight
		}
	}
	result.Average = computeWeightedAverage(items)
	return result, nil
}

// ComputeGroupAverage layers the simpler aggregation on top: the unweighted
// mean of every enrolled student's individual average. A student with nothing
// graded pulls the mean down with a 0, by policy.
func (s *GradebookService) ComputeGroupAverage(orgID, courseID uint) (*CourseAverage, error) {
	studentIDs, err := s.enrolledStudents(orgID, courseID)
	if err != nil {
		return nil, err
	}

	course := &CourseAverage{CourseID: courseID, StudentCount: len(studentIDs)}
	if len(studentIDs) == 0 {
		return course, nil
	}

	var sum float64
	for _, studentID := range studentIDs {
		avg, err := s.ComputeAverage(orgID, studentID, courseID)
		if err != nil {
			return nil, err
		}
		sum += avg.Average
		course.Students = append(course.Students, *avg)
	}
	course.Average = sum / float64(len(studentIDs))
	return course, nil
}

// UpsertScore enters or replaces a grade. A nil score clears the grade back to
// "not yet graded" without deleting the row. Out-of-range scores are rejected
// per item so a bulk-grade flow can keep going with its other rows.
func (s *GradebookService) UpsertScore(orgID, assignmentID, studentID uint, score *float64, feedback string) (*models.AssignmentScore, error) {
	var assignment models.Assignment
	if err := s.db.Scopes(database.WithinOrg(orgID)).First(&assignment, assignmentID).Error; err != nil {
		return nil, err
	}

	if score != nil && (*score < 0 || *score > assignment.MaxScore) {
		return nil, fmt.Errorf("score %.2f not in [0, %.2f]: %w", *score, assignment.MaxScore, ErrScoreOutOfRange)
	}

	var row models.AssignmentScore
	err := s.db.Scopes(database.WithinOrg(orgID)).
		Where("assignment_id = ? AND student_id = ?", assignmentID, studentID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row = models.AssignmentScore{
			OrgID:        orgID,
			AssignmentID: assignmentID,
			StudentID:    studentID,
			Score:        score,
			Feedback:     feedback,
		}
		if err := s.db.Create(&row).Error; err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	} else {
		updates := map[string]interface{}{"score": score}
		if feedback != "" {
			updates["feedback"] = feedback
		}
		if err := s.db.Model(&row).Updates(updates).Error; err != nil {
			return nil, err
		}
		row.Score = score
		if feedback != "" {
			row.Feedback = feedback
		}
	}

	if score != nil {
		go s.notifyGradePosted(orgID, assignment, studentID)
	}
	return &row, nil
}

// RecordSubmission registers that a student handed an assignment in, creating
// the ungraded score row if none exists and pinging the group's teacher.
func (s *GradebookService) RecordSubmission(orgID, assignmentID, studentID uint) (*models.AssignmentScore, error) {
	var assignment models.Assignment
	if err := s.db.Scopes(database.WithinOrg(orgID)).First(&assignment, assignmentID).Error; err != nil {
		return nil, err
	}

	var row models.AssignmentScore
	err := s.db.Scopes(database.WithinOrg(orgID)).
		Where("assignment_id = ? AND student_id = ?", assignmentID, studentID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row = models.AssignmentScore{
			OrgID:        orgID,
			AssignmentID: assignmentID,
			StudentID:    studentID,
		}
		if err := s.db.Create(&row).Error; err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	go s.notifySubmissionReceived(orgID, assignment, studentID)
	return &row, nil
}

// WeightWarning reports when a course's assignment weights drift from the 100
// target. A data-quality warning, never a rejection.
func (s *GradebookService) WeightWarning(orgID, courseID uint) (string, error) {
	assignments, err := s.courseAssignments(orgID, courseID)
	if err != nil {
		return "", err
	}
	var total float64
	for _, a := range assignments {
		total += a.Weight
	}
	if len(assignments) > 0 && total != 100 {
		return fmt.Sprintf("assignment weights sum to %.1f, expected 100", total), nil
	}
	return "", nil
}

func (s *GradebookService) courseAssignments(orgID, courseID uint) ([]models.Assignment, error) {
	var course models.Course
	if err := s.db.Scopes(database.WithinOrg(orgID)).First(&course, courseID).Error; err != nil {
		return nil, err
	}
	var assignments []models.Assignment
	err := s.db.Scopes(database.WithinOrg(orgID)).
		Where("course_id = ?", courseID).
		Order("id").
		Find(&assignments).Error
	return assignments, err
}

// enrolledStudents resolves the distinct active members of all groups that
// teach the course. Enrollment is owned elsewhere; the calculator only reads.
func (s *GradebookService) enrolledStudents(orgID, courseID uint) ([]uint, error) {
	var studentIDs []uint
	err := s.db.Model(&models.GroupMember{}).
		Scopes(database.WithinOrg(orgID)).
		Joins("JOIN groups ON groups.id = group_members.group_id").
		Where("groups.course_id = ? AND group_members.status = ?", courseID, "active").
		Distinct("group_members.student_id").
		Order("group_members.student_id").
		Pluck("group_members.student_id", &studentIDs).Error
	return studentIDs, err
}

func (s *GradebookService) notifyGradePosted(orgID uint, assignment models.Assignment, studentID uint) {
	var student models.Student
	if err := s.db.Scopes(database.WithinOrg(orgID)).First(&student, studentID).Error; err != nil {
		return
	}
	notifyUsers(orgID, []uint{student.UserID},
		"Grade posted",
		fmt.Sprintf("Your grade for '%s' has been posted.", assignment.Title),
		"success",
		fmt.Sprintf("/courses/%d/grades", assignment.CourseID))
}

func (s *GradebookService) notifySubmissionReceived(orgID uint, assignment models.Assignment, studentID uint) {
	var teacherUserIDs []uint
	err := s.db.Model(&models.Group{}).
		Scopes(database.WithinOrg(orgID)).
		Joins("JOIN teachers ON teachers.id = groups.teacher_id").
		Where("groups.course_id = ?", assignment.CourseID).
		Distinct("teachers.user_id").
		Pluck("teachers.user_id", &teacherUserIDs).Error
	if err != nil || len(teacherUserIDs) == 0 {
		return
	}
	notifyUsers(orgID, teacherUserIDs,
		"Submission received",
		fmt.Sprintf("A submission for '%s' was received from student %d.", assignment.Title, studentID),
		"info",
		fmt.Sprintf("/assignments/%d/submissions", assignment.ID))
}
