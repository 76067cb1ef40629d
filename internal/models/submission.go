package models

import "time"

// Submission represents an artifact a student turned in for an assignment.
type Submission struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	ClassroomID  string    `gorm:"size:36;index;not null" json:"classroom_id"`
	AssignmentID string    `gorm:"size:36;index;not null" json:"assignment_id"`
	StudentID    string    `gorm:"size:64;index;not null" json:"student_id"`
	FileName     string    `gorm:"size:255" json:"file_name"`
	FileURL      string    `gorm:"size:512" json:"file_url"`
	ContentType  string    `gorm:"size:128" json:"content_type"`
	Size         int64     `json:"size"`
	CreatedAt    time.Time `json:"created_at"`
}

// All lists every persisted model for schema migration.
func All() []interface{} {
	return []interface{}{&Classroom{}, &Assignment{}, &Grade{}, &Submission{}}
}
