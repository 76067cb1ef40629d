package dto

import (
	"time"

	"github.com/noah-isme/school-portal-api/internal/grading"
	"github.com/noah-isme/school-portal-api/internal/models"
)

// GradeRecordRequest records or replaces a student's grade for an assignment.
type GradeRecordRequest struct {
	PointsEarned     *float64 `json:"pointsEarned" validate:"omitempty,gte=0"`
	Status           string   `json:"status" validate:"omitempty,oneof=graded late missing excused"`
	LateDaysOverride *int     `json:"lateDaysOverride" validate:"omitempty,gte=0,lte=365"`
	Feedback         string   `json:"feedback" validate:"max=5000"`
}

// GradeResponse is the API view of a grade record.
type GradeResponse struct {
	ID               string     `json:"id"`
	ClassroomID      string     `json:"classroomId"`
	AssignmentID     string     `json:"assignmentId"`
	StudentID        string     `json:"studentId"`
	PointsEarned     *float64   `json:"pointsEarned"`
	Status           string     `json:"status"`
	LateDaysOverride *int       `json:"lateDaysOverride"`
	Feedback         string     `json:"feedback"`
	GradedBy         string     `json:"gradedBy"`
	GradedAt         *time.Time `json:"gradedAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// NewGradeResponse converts a Grade model into a DTO.
func NewGradeResponse(model models.Grade) GradeResponse {
	return GradeResponse{
		ID:               model.ID,
		ClassroomID:      model.ClassroomID,
		AssignmentID:     model.AssignmentID,
		StudentID:        model.StudentID,
		PointsEarned:     model.PointsEarned,
		Status:           string(grading.NormalizeStatus(model.Status)),
		LateDaysOverride: model.LateDaysOverride,
		Feedback:         model.Feedback,
		GradedBy:         model.GradedBy,
		GradedAt:         model.GradedAt,
		UpdatedAt:        model.UpdatedAt,
	}
}

// AssignmentGradeView is one row of a student's report.
type AssignmentGradeView struct {
	AssignmentID   string   `json:"assignmentId"`
	Title          string   `json:"title"`
	Category       string   `json:"category"`
	PointsPossible int      `json:"pointsPossible"`
	PointsEarned   *float64 `json:"pointsEarned"`
	Status         string   `json:"status,omitempty"`
	DueAt          string   `json:"dueAt,omitempty"`
	PastDue        bool     `json:"pastDue"`
	Submitted      bool     `json:"submitted"`
	Missing        bool     `json:"missing"`
}

// GradeReportResponse is a student's current standing in a classroom.
// Percent is null when no assignment counts yet.
type GradeReportResponse struct {
	ClassroomID  string                   `json:"classroomId"`
	StudentID    string                   `json:"studentId"`
	Percent      grading.Percent          `json:"percent"`
	Letter       string                   `json:"letter"`
	MissingCount int                      `json:"missingCount"`
	Categories   []grading.CategoryResult `json:"categories"`
	Assignments  []AssignmentGradeView    `json:"assignments"`
	ComputedAt   time.Time                `json:"computedAt"`
}
