package models

import (
	"time"

	"github.com/noah-isme/school-portal-api/internal/grading"
)

// Assignment is a gradable piece of work inside a classroom. Points and DueAt
// are stored as entered and normalised when grades are computed.
type Assignment struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	ClassroomID string    `gorm:"size:36;index;not null" json:"classroom_id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Category    string    `gorm:"size:100" json:"category"`
	Points      *float64  `json:"points"`
	DueAt       string    `gorm:"size:64" json:"due_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsPastDue returns true when the assignment deadline has already passed.
func (a Assignment) IsPastDue(reference time.Time) bool {
	return grading.IsPastDue(a.DueAt, reference)
}

// ToGrading projects the assignment onto the aggregator input.
func (a Assignment) ToGrading() grading.Assignment {
	return grading.Assignment{
		ID:       a.ID,
		Category: a.Category,
		Points:   a.Points,
		DueAt:    a.DueAt,
	}
}
