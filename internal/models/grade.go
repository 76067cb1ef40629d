package models

import (
	"time"

	"github.com/noah-isme/school-portal-api/internal/grading"
)

// Grade is the single active grade record of a student for an assignment.
type Grade struct {
	ID               string     `gorm:"primaryKey;size:36" json:"id"`
	ClassroomID      string     `gorm:"size:36;index;not null" json:"classroom_id"`
	AssignmentID     string     `gorm:"size:36;not null;uniqueIndex:idx_grades_assignment_student" json:"assignment_id"`
	StudentID        string     `gorm:"size:64;not null;uniqueIndex:idx_grades_assignment_student;index" json:"student_id"`
	PointsEarned     *float64   `json:"points_earned"`
	Status           string     `gorm:"size:16;not null;default:graded" json:"status"`
	LateDaysOverride *int       `json:"late_days_override"`
	Feedback         string     `gorm:"type:text" json:"feedback"`
	GradedBy         string     `gorm:"size:64" json:"graded_by"`
	GradedAt         *time.Time `json:"graded_at"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// ToGrading projects the record onto the aggregator input.
func (g Grade) ToGrading() grading.Grade {
	return grading.Grade{
		AssignmentID:     g.AssignmentID,
		PointsEarned:     g.PointsEarned,
		Status:           g.Status,
		LateDaysOverride: g.LateDaysOverride,
	}
}
